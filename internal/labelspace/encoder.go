package labelspace

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Encoder maps model-internal class IDs back to category names
type Encoder struct {
	classes []string
	index   map[string]int
}

// NewEncoder creates an encoder where class i is classes[i]
func NewEncoder(classes []string) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("encoder needs at least one class")
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate class %q in encoder", c)
		}
		index[c] = i
	}

	own := make([]string, len(classes))
	copy(own, classes)
	return &Encoder{classes: own, index: index}, nil
}

// FitEncoder builds an encoder over the sorted unique labels
func FitEncoder(labels []string) (*Encoder, error) {
	seen := make(map[string]bool)
	var classes []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	return NewEncoder(classes)
}

// encoderFile accepts either a bare list or {classes: [...]}
type encoderFile struct {
	Classes []string `yaml:"classes"`
}

// LoadEncoder reads class names from a YAML or JSON file
func LoadEncoder(path string) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encoder: %w", err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return NewEncoder(list)
	}

	var f encoderFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse encoder %s: %w", path, err)
	}
	return NewEncoder(f.Classes)
}

// Classes returns the class names in ID order
func (e *Encoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Len returns the number of classes
func (e *Encoder) Len() int {
	return len(e.classes)
}

// Transform maps category names to class IDs
func (e *Encoder) Transform(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := e.index[l]
		if !ok {
			return nil, &UnknownLabelError{Label: l, Side: "encoder", Index: i}
		}
		out[i] = id
	}
	return out, nil
}

// InverseTransform maps class IDs back to category names
func (e *Encoder) InverseTransform(ids []int) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= len(e.classes) {
			return nil, &UnknownLabelError{Label: strconv.Itoa(id), Side: "id", Index: i}
		}
		out[i] = e.classes[id]
	}
	return out, nil
}

// ArgMax returns the column index of the largest value in each row
func ArgMax(logits mat.Matrix) []int {
	r, c := logits.Dims()
	out := make([]int, r)
	if c == 0 {
		return out
	}

	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, logits)
		out[i] = floats.MaxIdx(row)
	}
	return out
}
