package score

import (
	"github.com/ppiankov/hiereval/internal/model"
	"github.com/ppiankov/hiereval/internal/taxonomy"
	"gonum.org/v1/gonum/mat"
)

// DefaultBeta weighs hierarchical precision and recall equally
const DefaultBeta = 1.0

// Hierarchical fills ancestors of both matrices once and scores them
func Hierarchical(truth, pred *mat.Dense, root int64, tree *taxonomy.Tree, beta float64) (model.HierarchicalScores, error) {
	scores, _, err := hierarchical(truth, pred, root, tree, beta)
	return scores, err
}

// HPrecision is the share of ancestor-filled predicted cells that are also true
func HPrecision(truth, pred *mat.Dense, root int64, tree *taxonomy.Tree) (float64, error) {
	scores, err := Hierarchical(truth, pred, root, tree, DefaultBeta)
	return scores.Precision, err
}

// HRecall is the share of ancestor-filled true cells that are also predicted
func HRecall(truth, pred *mat.Dense, root int64, tree *taxonomy.Tree) (float64, error) {
	scores, err := Hierarchical(truth, pred, root, tree, DefaultBeta)
	return scores.Recall, err
}

// HFBeta combines hierarchical precision and recall
func HFBeta(truth, pred *mat.Dense, root int64, tree *taxonomy.Tree, beta float64) (float64, error) {
	scores, err := Hierarchical(truth, pred, root, tree, beta)
	return scores.FBeta, err
}

// hierarchical also returns the element-wise AND of the filled matrices,
// which the signals reuse.
func hierarchical(truth, pred *mat.Dense, root int64, tree *taxonomy.Tree, beta float64) (model.HierarchicalScores, *mat.Dense, error) {
	if err := sameShape("hierarchical score", truth, pred); err != nil {
		return model.HierarchicalScores{}, nil, err
	}

	filledTruth, err := FillAncestors(truth, root, tree)
	if err != nil {
		return model.HierarchicalScores{}, nil, err
	}
	filledPred, err := FillAncestors(pred, root, tree)
	if err != nil {
		return model.HierarchicalScores{}, nil, err
	}

	var both mat.Dense
	both.MulElem(filledTruth, filledPred)

	tp := countNonZero(&both)
	predicted := countNonZero(filledPred)
	actual := countNonZero(filledTruth)

	p := ratio(tp, predicted)
	r := ratio(tp, actual)

	return model.HierarchicalScores{
		Precision:          p,
		Recall:             r,
		FBeta:              FBeta(p, r, beta),
		Beta:               beta,
		TruePositives:      tp,
		PredictedPositives: predicted,
		TruthPositives:     actual,
	}, &both, nil
}

// FBeta is (1+b²)PR / (b²P + R), or 0 when the denominator is 0
func FBeta(precision, recall, beta float64) float64 {
	b2 := beta * beta
	denom := b2*precision + recall
	if denom <= 0 {
		return 0
	}
	return (1 + b2) * precision * recall / denom
}

func ratio(num, denom int) float64 {
	if denom <= 0 {
		return 0
	}
	return float64(num) / float64(denom)
}
