package labelspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/hiereval/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func toyTree(t *testing.T) *taxonomy.Tree {
	t.Helper()
	tree, err := taxonomy.NewTree([]taxonomy.Edge{
		{Parent: "R", Child: "A"},
		{Parent: "R", Child: "B"},
		{Parent: "A", Child: "A1"},
	})
	require.NoError(t, err)
	return tree
}

func TestBinarize(t *testing.T) {
	tree := toyTree(t)

	b, err := Binarize([]string{"A1", "B"}, []string{"A", "B"}, tree)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "A1", "B"}, b.Classes)
	assert.Equal(t, int64(3), b.Root)
	assert.Equal(t, "R", b.Tree.Root().Name)
	assert.Equal(t, b.Root, b.Tree.Root().ID)

	wantTruth := mat.NewDense(2, 3, []float64{
		0, 1, 0,
		0, 0, 1,
	})
	wantPred := mat.NewDense(2, 3, []float64{
		1, 0, 0,
		0, 0, 1,
	})
	assert.True(t, mat.Equal(wantTruth, b.Truth))
	assert.True(t, mat.Equal(wantPred, b.Pred))

	// relabeled node IDs are the column indices
	for col, name := range b.Classes {
		id, ok := b.Tree.ID(name)
		require.True(t, ok)
		assert.Equal(t, int64(col), id)
	}
}

func TestBinarize_Idempotent(t *testing.T) {
	tree := toyTree(t)
	truth := []string{"A1", "B", "A", "A1"}
	pred := []string{"A", "A1", "B", "B"}

	first, err := Binarize(truth, pred, tree)
	require.NoError(t, err)
	second, err := Binarize(truth, pred, tree)
	require.NoError(t, err)

	assert.Equal(t, first.Classes, second.Classes)
	assert.Equal(t, first.Truth.RawMatrix().Data, second.Truth.RawMatrix().Data)
	assert.Equal(t, first.Pred.RawMatrix().Data, second.Pred.RawMatrix().Data)
	assert.Equal(t, first.Tree.Edges(), second.Tree.Edges())
}

func TestBinarize_UnknownLabel(t *testing.T) {
	tree := toyTree(t)

	_, err := Binarize([]string{"A", "Z"}, []string{"A", "B"}, tree)
	require.Error(t, err)

	var ule *UnknownLabelError
	require.True(t, errors.As(err, &ule))
	assert.Equal(t, "Z", ule.Label)
	assert.Equal(t, "truth", ule.Side)
	assert.Equal(t, 1, ule.Index)
	assert.ErrorIs(t, err, ErrUnknownLabel)

	// the root is never a label column
	_, err = Binarize([]string{"A"}, []string{"R"}, tree)
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestBinarize_ShapeErrors(t *testing.T) {
	tree := toyTree(t)

	_, err := Binarize([]string{"A"}, []string{"A", "B"}, tree)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Binarize(nil, nil, tree)
	assert.ErrorIs(t, err, ErrNoExamples)
}

func TestEncoder(t *testing.T) {
	enc, err := FitEncoder([]string{"B", "A", "A1", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A1", "B"}, enc.Classes())
	assert.Equal(t, 3, enc.Len())

	ids, err := enc.Transform([]string{"B", "A"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, ids)

	names, err := enc.InverseTransform(ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, names)

	_, err = enc.InverseTransform([]int{0, 7})
	assert.ErrorIs(t, err, ErrUnknownLabel)

	_, err = enc.Transform([]string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownLabel)

	_, err = NewEncoder([]string{"A", "A"})
	assert.Error(t, err)

	_, err = NewEncoder(nil)
	assert.Error(t, err)
}

func TestLoadEncoder(t *testing.T) {
	dir := t.TempDir()

	list := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(list, []byte(`["Phones", "Laptops"]`), 0644))
	enc, err := LoadEncoder(list)
	require.NoError(t, err)
	assert.Equal(t, []string{"Phones", "Laptops"}, enc.Classes())

	wrapped := filepath.Join(dir, "classes.yaml")
	require.NoError(t, os.WriteFile(wrapped, []byte("classes:\n  - Garden\n  - Tools\n"), 0644))
	enc, err = LoadEncoder(wrapped)
	require.NoError(t, err)
	assert.Equal(t, []string{"Garden", "Tools"}, enc.Classes())

	_, err = LoadEncoder(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestArgMax(t *testing.T) {
	logits := mat.NewDense(3, 3, []float64{
		0.1, 2.5, -1,
		3, 0, 0,
		-2, -1, -0.5,
	})
	assert.Equal(t, []int{1, 0, 2}, ArgMax(logits))
}
