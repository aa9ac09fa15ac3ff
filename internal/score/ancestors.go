package score

import (
	"fmt"

	"github.com/ppiankov/hiereval/internal/taxonomy"
	"gonum.org/v1/gonum/mat"
)

// FillAncestors returns a copy of y where every ancestor (except the root) of
// each asserted label is asserted too. Tree node IDs must equal y's columns,
// as produced by labelspace.Binarize.
func FillAncestors(y mat.Matrix, root int64, tree *taxonomy.Tree) (*mat.Dense, error) {
	out := mat.DenseCopyOf(y)
	if err := fill(out, y, root, tree); err != nil {
		return nil, err
	}
	return out, nil
}

// FillAncestorsInPlace is FillAncestors writing into y.
// Ancestor sets are closed under the parent relation, so reading the rows
// being written does not change the result.
func FillAncestorsInPlace(y *mat.Dense, root int64, tree *taxonomy.Tree) error {
	return fill(y, y, root, tree)
}

func fill(dst *mat.Dense, src mat.Matrix, root int64, tree *taxonomy.Tree) error {
	rows, cols := src.Dims()
	if want := tree.Len() - 1; cols != want {
		return &ShapeMismatchError{
			Op:   "fill ancestors",
			Want: fmt.Sprintf("%d label columns", want),
			Got:  fmt.Sprintf("%d", cols),
		}
	}

	asserted := make([]int, 0, rows)
	for col := 0; col < cols; col++ {
		id := int64(col)
		if id == root {
			continue
		}

		asserted = asserted[:0]
		for r := 0; r < rows; r++ {
			if src.At(r, col) != 0 {
				asserted = append(asserted, r)
			}
		}
		if len(asserted) == 0 {
			continue
		}

		ancestors := tree.AncestorsByID(id)
		if ancestors == nil {
			return &ShapeMismatchError{
				Op:   "fill ancestors",
				Want: "tree relabeled to matrix columns",
				Got:  fmt.Sprintf("no node with id %d", id),
			}
		}

		for _, a := range ancestors {
			if a.ID == root {
				continue
			}
			if a.ID < 0 || a.ID >= int64(cols) {
				return &ShapeMismatchError{
					Op:   "fill ancestors",
					Want: fmt.Sprintf("ancestor ids in [0,%d)", cols),
					Got:  fmt.Sprintf("%d (%s)", a.ID, a.Name),
				}
			}
			for _, r := range asserted {
				dst.Set(r, int(a.ID), 1)
			}
		}
	}

	return nil
}

// countNonZero counts cells that are not zero
func countNonZero(m mat.Matrix) int {
	rows, cols := m.Dims()
	n := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if m.At(r, c) != 0 {
				n++
			}
		}
	}
	return n
}
