// Package labelspace turns single-label category sequences into
// taxonomy-indexed binary matrices.
package labelspace

import (
	"fmt"

	"github.com/ppiankov/hiereval/internal/taxonomy"
	"gonum.org/v1/gonum/mat"
)

// Binarized is the result of one binarization call.
// Column j of Truth and Pred is category Classes[j], and Tree carries the same
// hierarchy relabeled so node IDs equal column indices.
type Binarized struct {
	Truth   *mat.Dense
	Pred    *mat.Dense
	Classes []string
	Tree    *taxonomy.Tree
	Root    int64 // Relabeled root ID, always len(Classes)
}

// Columns maps every non-root category to its column, in sorted category order.
// The mapping is only meaningful within one Binarize call.
func Columns(tree *taxonomy.Tree) map[string]int {
	cats := tree.Categories()
	cols := make(map[string]int, len(cats))
	for i, c := range cats {
		cols[c] = i
	}
	return cols
}

// Binarize encodes aligned truth and prediction labels against the tree's label space
func Binarize(truth, pred []string, tree *taxonomy.Tree) (*Binarized, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("%w: %d truth vs %d predicted", ErrLengthMismatch, len(truth), len(pred))
	}
	if len(truth) == 0 {
		return nil, ErrNoExamples
	}

	classes := tree.Categories()
	cols := Columns(tree)

	truthM, err := encode(truth, cols, "truth")
	if err != nil {
		return nil, err
	}
	predM, err := encode(pred, cols, "prediction")
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]int64, len(cols)+1)
	for name, col := range cols {
		mapping[name] = int64(col)
	}
	root := int64(len(classes))
	mapping[tree.Root().Name] = root

	relabeled, err := tree.Relabel(mapping)
	if err != nil {
		return nil, fmt.Errorf("relabel taxonomy: %w", err)
	}

	return &Binarized{
		Truth:   truthM,
		Pred:    predM,
		Classes: classes,
		Tree:    relabeled,
		Root:    root,
	}, nil
}

// encode builds a one-hot row per label. The root is not a column, so it is
// rejected like any other unknown label.
func encode(labels []string, cols map[string]int, side string) (*mat.Dense, error) {
	m := mat.NewDense(len(labels), len(cols), nil)
	for i, label := range labels {
		col, ok := cols[label]
		if !ok {
			return nil, &UnknownLabelError{Label: label, Side: side, Index: i}
		}
		m.Set(i, col, 1)
	}
	return m, nil
}
