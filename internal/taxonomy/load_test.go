package taxonomy

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlArtifact = `name: toy
edges:
  - {parent: R, child: A}
  - {parent: R, child: B}
paths:
  - R > A > A1
`

func TestDecode_YAML(t *testing.T) {
	tree, err := Decode(strings.NewReader(yamlArtifact))
	require.NoError(t, err)

	assert.Equal(t, "R", tree.Root().Name)
	assert.Equal(t, []string{"A", "A1", "B"}, tree.Categories())
}

func TestDecode_JSON(t *testing.T) {
	doc := `{"edges": [{"parent": "R", "child": "A"}, {"parent": "A", "child": "A1"}]}`
	tree, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A1"}, tree.Categories())
}

func TestDecode_PathsWithRootAndSeparator(t *testing.T) {
	doc := `root: Root
separator: "/"
paths:
  - Electronics/Phones/Smartphones
  - Electronics/Laptops
  - Root/Garden
`
	tree, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "Root", tree.Root().Name)
	parents, err := tree.Parents("Smartphones")
	require.NoError(t, err)
	assert.Equal(t, []string{"Phones"}, parents)

	children, err := tree.Children("Root")
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Garden"}, children)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrArtifact)

	_, err = Decode(strings.NewReader("edges: [not, a, list of edges"))
	assert.ErrorIs(t, err, ErrArtifact)

	_, err = Decode(strings.NewReader("bogus: true\n"))
	assert.ErrorIs(t, err, ErrArtifact)

	_, err = Decode(strings.NewReader("paths: [R>A, S>B]\n"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDecode_RootMismatch(t *testing.T) {
	doc := `root: Products
edges:
  - {parent: R, child: A}
  - {parent: A, child: A1}
`
	_, err := Decode(strings.NewReader(doc))
	require.ErrorIs(t, err, ErrConfiguration)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"Products", "R"}, cfgErr.Nodes)

	_, err = Decode(strings.NewReader("root: R\n" + doc[len("root: Products\n"):]))
	assert.NoError(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	tree, err := NewTree(sampleEdges())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tree, "toy"))

	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, tree.Edges(), again.Edges())
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	treeDir := filepath.Join(dir, "raw", "icecat", "tree")
	require.NoError(t, os.MkdirAll(treeDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(treeDir, "tree_icecat.yml"), []byte(yamlArtifact), 0644))

	path, err := ArtifactPath(dir, "icecat")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(treeDir, "tree_icecat.yml"), path)

	tree, err := LoadDataset(dir, "icecat")
	require.NoError(t, err)
	assert.Equal(t, 4, tree.Len())
}

func TestLoadDataset_Missing(t *testing.T) {
	_, err := LoadDataset(t.TempDir(), "wdc")
	assert.ErrorIs(t, err, ErrArtifact)

	_, err = LoadDataset(t.TempDir(), "")
	assert.ErrorIs(t, err, ErrArtifact)

	for _, name := range []string{".", "..", "../wdc", "a/b", `a\b`, "wdc/../icecat"} {
		_, err = ArtifactPath(t.TempDir(), name)
		assert.ErrorIs(t, err, ErrArtifact, name)
		assert.ErrorContains(t, err, "invalid dataset name", name)
	}

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrArtifact)
}
