package score

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ppiankov/hiereval/internal/labelspace"
	"github.com/ppiankov/hiereval/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// toyTree is R -> {A, B}, A -> A1
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

// deepTree has three levels under the root and a second branch
func deepTree(t *testing.T) *taxonomy.Tree {
	t.Helper()
	tree, err := taxonomy.NewTree([]taxonomy.Edge{
		{Parent: "Root", Child: "Electronics"},
		{Parent: "Root", Child: "Garden"},
		{Parent: "Electronics", Child: "Phones"},
		{Parent: "Electronics", Child: "Laptops"},
		{Parent: "Phones", Child: "Smartphones"},
		{Parent: "Phones", Child: "Landlines"},
		{Parent: "Garden", Child: "Tools"},
		{Parent: "Garden", Child: "Plants"},
	})
	require.NoError(t, err)
	return tree
}

func binarize(t *testing.T, truth, pred []string, tree *taxonomy.Tree) *labelspace.Binarized {
	t.Helper()
	b, err := labelspace.Binarize(truth, pred, tree)
	require.NoError(t, err)
	return b
}

func column(t *testing.T, b *labelspace.Binarized, name string) int {
	t.Helper()
	for i, c := range b.Classes {
		if c == name {
			return i
		}
	}
	t.Fatalf("no column %q", name)
	return -1
}

func TestFillAncestors_Example(t *testing.T) {
	b := binarize(t, []string{"A1"}, []string{"A"}, toyTree(t))

	filled, err := FillAncestors(b.Truth, b.Root, b.Tree)
	require.NoError(t, err)

	assert.Equal(t, 1.0, filled.At(0, column(t, b, "A1")))
	assert.Equal(t, 1.0, filled.At(0, column(t, b, "A")))
	assert.Equal(t, 0.0, filled.At(0, column(t, b, "B")))

	// input untouched
	assert.Equal(t, 0.0, b.Truth.At(0, column(t, b, "A")))
}

func TestFillAncestors_InPlace(t *testing.T) {
	b := binarize(t, []string{"A1", "B"}, []string{"A", "B"}, toyTree(t))

	want, err := FillAncestors(b.Truth, b.Root, b.Tree)
	require.NoError(t, err)

	require.NoError(t, FillAncestorsInPlace(b.Truth, b.Root, b.Tree))
	assert.True(t, mat.Equal(want, b.Truth))
}

func TestFillAncestors_ZeroRowsStayZero(t *testing.T) {
	tree := deepTree(t)
	b := binarize(t, []string{"Smartphones"}, []string{"Tools"}, tree)

	y := mat.NewDense(3, len(b.Classes), nil)
	y.Set(1, column(t, b, "Smartphones"), 1)

	filled, err := FillAncestors(y, b.Root, b.Tree)
	require.NoError(t, err)

	for _, r := range []int{0, 2} {
		for c := 0; c < len(b.Classes); c++ {
			assert.Zero(t, filled.At(r, c), "row %d col %d", r, c)
		}
	}
	assert.Equal(t, 1.0, filled.At(1, column(t, b, "Phones")))
	assert.Equal(t, 1.0, filled.At(1, column(t, b, "Electronics")))
	assert.Equal(t, 0.0, filled.At(1, column(t, b, "Garden")))
}

func TestFillAncestors_IdempotentRandom(t *testing.T) {
	tree := deepTree(t)
	b := binarize(t, []string{"Tools"}, []string{"Tools"}, tree)
	cols := len(b.Classes)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 25; trial++ {
		rows := 1 + rng.Intn(12)
		y := mat.NewDense(rows, cols, nil)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if rng.Float64() < 0.2 {
					y.Set(r, c, 1)
				}
			}
		}

		once, err := FillAncestors(y, b.Root, b.Tree)
		require.NoError(t, err)
		twice, err := FillAncestors(once, b.Root, b.Tree)
		require.NoError(t, err)

		assert.True(t, mat.Equal(once, twice), "trial %d", trial)

		// previously asserted cells stay asserted
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if y.At(r, c) == 1 {
					assert.Equal(t, 1.0, once.At(r, c))
				}
			}
		}
	}
}

func TestFillAncestors_ShapeMismatch(t *testing.T) {
	b := binarize(t, []string{"A"}, []string{"A"}, toyTree(t))

	_, err := FillAncestors(mat.NewDense(1, 2, nil), b.Root, b.Tree)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestHierarchical_PartialCredit(t *testing.T) {
	b := binarize(t, []string{"A1"}, []string{"A"}, toyTree(t))

	p, err := HPrecision(b.Truth, b.Pred, b.Root, b.Tree)
	require.NoError(t, err)
	r, err := HRecall(b.Truth, b.Pred, b.Root, b.Tree)
	require.NoError(t, err)
	f, err := HFBeta(b.Truth, b.Pred, b.Root, b.Tree, 1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, p)
	assert.Equal(t, 0.5, r)
	assert.InDelta(t, 2.0/3.0, f, 1e-12)
}

func TestHierarchical_DisjointBranches(t *testing.T) {
	b := binarize(t, []string{"A1"}, []string{"B"}, toyTree(t))

	scores, err := Hierarchical(b.Truth, b.Pred, b.Root, b.Tree, DefaultBeta)
	require.NoError(t, err)

	assert.Zero(t, scores.Precision)
	assert.Zero(t, scores.Recall)
	assert.Zero(t, scores.FBeta)
	assert.Equal(t, 0, scores.TruePositives)
	assert.Equal(t, 1, scores.PredictedPositives)
	assert.Equal(t, 2, scores.TruthPositives)
}

func TestHierarchical_Perfect(t *testing.T) {
	labels := []string{"Smartphones", "Tools", "Electronics", "Plants", "Landlines"}
	b := binarize(t, labels, labels, deepTree(t))

	scores, err := Hierarchical(b.Truth, b.Pred, b.Root, b.Tree, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores.Precision)
	assert.Equal(t, 1.0, scores.Recall)
	assert.InDelta(t, 1.0, scores.FBeta, 1e-12)
}

func TestHierarchical_ZeroDenominators(t *testing.T) {
	b := binarize(t, []string{"A"}, []string{"A"}, toyTree(t))
	empty := mat.NewDense(1, len(b.Classes), nil)

	scores, err := Hierarchical(b.Truth, empty, b.Root, b.Tree, 1)
	require.NoError(t, err)
	assert.Zero(t, scores.Precision)
	assert.Zero(t, scores.Recall)
	assert.Zero(t, scores.FBeta)

	scores, err = Hierarchical(empty, b.Pred, b.Root, b.Tree, 1)
	require.NoError(t, err)
	assert.Zero(t, scores.Recall)
	assert.Zero(t, scores.Precision)
}

func TestHierarchical_Bounds(t *testing.T) {
	tree := deepTree(t)
	cats := tree.Categories()
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 20; trial++ {
		n := 1 + rng.Intn(30)
		truth := make([]string, n)
		pred := make([]string, n)
		for i := range truth {
			truth[i] = cats[rng.Intn(len(cats))]
			pred[i] = cats[rng.Intn(len(cats))]
		}
		b := binarize(t, truth, pred, tree)

		scores, err := Hierarchical(b.Truth, b.Pred, b.Root, b.Tree, 1)
		require.NoError(t, err)
		for _, v := range []float64{scores.Precision, scores.Recall, scores.FBeta} {
			assert.False(t, math.IsNaN(v))
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestHierarchical_ShapeMismatch(t *testing.T) {
	b := binarize(t, []string{"A", "B"}, []string{"A", "B"}, toyTree(t))

	short := mat.NewDense(1, len(b.Classes), nil)
	_, err := Hierarchical(b.Truth, short, b.Root, b.Tree, 1)
	require.Error(t, err)

	var sme *ShapeMismatchError
	assert.ErrorAs(t, err, &sme)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFBeta(t *testing.T) {
	assert.Zero(t, FBeta(0, 0, 1))
	assert.Equal(t, 1.0, FBeta(1, 1, 1))
	assert.InDelta(t, 0.5, FBeta(0.5, 0.5, 2), 1e-12)
	// beta 0 reduces to precision
	assert.InDelta(t, 0.8, FBeta(0.8, 0.1, 0), 1e-12)
}
