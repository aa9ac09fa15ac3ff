package taxonomy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSeparator splits category paths such as "Root>Electronics>Phones"
const DefaultSeparator = ">"

// artifactExtensions are tried in order when resolving a dataset's tree
var artifactExtensions = []string{".yaml", ".yml", ".json"}

// Artifact is the persisted form of a taxonomy (YAML or JSON)
type Artifact struct {
	Name      string   `yaml:"name,omitempty"`
	Root      string   `yaml:"root,omitempty"`      // Anchors every path that does not start with it
	Separator string   `yaml:"separator,omitempty"` // Path separator (default ">")
	Edges     []Edge   `yaml:"edges,omitempty"`
	Paths     []string `yaml:"paths,omitempty"` // Category paths, one edge per adjacent pair
}

// EdgeList merges explicit edges with the edges implied by paths.
// Duplicate edges are collapsed.
func (a Artifact) EdgeList() []Edge {
	sep := a.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	seen := make(map[Edge]bool)
	var out []Edge
	add := func(e Edge) {
		if seen[e] {
			return
		}
		seen[e] = true
		out = append(out, e)
	}

	for _, e := range a.Edges {
		add(Edge{Parent: strings.TrimSpace(e.Parent), Child: strings.TrimSpace(e.Child)})
	}

	for _, p := range a.Paths {
		var parts []string
		for _, part := range strings.Split(p, sep) {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if a.Root != "" && (len(parts) == 0 || parts[0] != a.Root) {
			parts = append([]string{a.Root}, parts...)
		}
		for i := 1; i < len(parts); i++ {
			add(Edge{Parent: parts[i-1], Child: parts[i]})
		}
	}

	return out
}

// ArtifactPath resolves <dataDir>/raw/<dataset>/tree/tree_<dataset>.{yaml,yml,json}
func ArtifactPath(dataDir, dataset string) (string, error) {
	if dataset == "" {
		return "", fmt.Errorf("%w: dataset name is empty", ErrArtifact)
	}
	if dataset == "." || strings.Contains(dataset, "..") || strings.ContainsAny(dataset, `/\`) {
		return "", fmt.Errorf("%w: invalid dataset name %q", ErrArtifact, dataset)
	}

	base := filepath.Join(dataDir, "raw", dataset, "tree", "tree_"+dataset)
	for _, ext := range artifactExtensions {
		path := base + ext
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: no tree for dataset %q under %s (tried %s)",
		ErrArtifact, dataset, filepath.Dir(base), strings.Join(artifactExtensions, ", "))
}

// LoadDataset loads the taxonomy persisted for a dataset
func LoadDataset(dataDir, dataset string) (*Tree, error) {
	path, err := ArtifactPath(dataDir, dataset)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads a taxonomy artifact from disk
func LoadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArtifact, path, err)
	}

	tree, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return tree, nil
}

// Decode parses an artifact and builds the tree
func Decode(r io.Reader) (*Tree, error) {
	var a Artifact
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty artifact", ErrArtifact)
		}
		return nil, fmt.Errorf("%w: parse: %v", ErrArtifact, err)
	}

	tree, err := NewTree(a.EdgeList())
	if err != nil {
		return nil, err
	}
	if a.Root != "" && tree.Root().Name != a.Root {
		return nil, configErr("declared root does not match the tree root", a.Root, tree.Root().Name)
	}
	return tree, nil
}

// Encode writes the tree in its edge-list artifact form
func Encode(w io.Writer, t *Tree, name string) error {
	a := Artifact{
		Name:  name,
		Root:  t.Root().Name,
		Edges: t.Edges(),
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode taxonomy: %w", err)
	}
	return enc.Close()
}
