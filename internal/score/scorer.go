package score

import (
	"fmt"

	"github.com/ppiankov/hiereval/internal/labelspace"
	"github.com/ppiankov/hiereval/internal/model"
	"github.com/ppiankov/hiereval/internal/taxonomy"
	"gonum.org/v1/gonum/mat"
)

// Result bundles everything one scoring pass produces
type Result struct {
	Metrics      model.Metrics
	Flat         model.FlatScores
	Hierarchical model.HierarchicalScores
	Signals      []model.Signal
}

// Scorer calculates flat and hierarchical scores and generates signals
type Scorer struct {
	beta float64
}

// NewScorer creates a new scorer. A negative beta falls back to DefaultBeta.
func NewScorer(beta float64) *Scorer {
	if beta < 0 {
		beta = DefaultBeta
	}
	return &Scorer{beta: beta}
}

// Beta returns the beta used for the hierarchical F-score
func (s *Scorer) Beta() float64 {
	return s.beta
}

// Calculate scores aligned truth/prediction labels against the taxonomy
func (s *Scorer) Calculate(truth, pred []string, tree *taxonomy.Tree) (Result, error) {
	// 1. Flat scores on the raw labels
	flat, err := Flat(truth, pred)
	if err != nil {
		return Result{}, err
	}

	// 2. Binarize into the taxonomy label space
	bin, err := labelspace.Binarize(truth, pred, tree)
	if err != nil {
		return Result{}, fmt.Errorf("binarize labels: %w", err)
	}

	// 3. Hierarchical scores on ancestor-filled matrices
	hier, overlap, err := hierarchical(bin.Truth, bin.Pred, bin.Root, bin.Tree, s.beta)
	if err != nil {
		return Result{}, err
	}

	metrics := model.Metrics{
		WeightedPrecision: flat.WeightedPrecision,
		WeightedRecall:    flat.WeightedRecall,
		WeightedF1:        flat.WeightedF1,
		MacroF1:           flat.MacroF1,
		HierarchicalF1:    hier.FBeta,
	}

	signals := []model.Signal{
		s.partialCredit(truth, pred, overlap),
		s.hierarchyGap(metrics),
	}
	if sig, ok := s.unseenPredictions(flat); ok {
		signals = append(signals, sig)
	}

	return Result{
		Metrics:      metrics,
		Flat:         flat,
		Hierarchical: hier,
		Signals:      signals,
	}, nil
}

// partialCredit counts misclassified rows that still share a non-root
// ancestor with the truth (their overlap row is not empty)
func (s *Scorer) partialCredit(truth, pred []string, overlap *mat.Dense) model.Signal {
	_, cols := overlap.Dims()

	misses := 0
	credited := 0
	for i := range truth {
		if truth[i] == pred[i] {
			continue
		}
		misses++
		for c := 0; c < cols; c++ {
			if overlap.At(i, c) != 0 {
				credited++
				break
			}
		}
	}

	if misses == 0 {
		return model.Signal{
			Type:        model.SignalPartialCredit,
			Severity:    model.SeverityInfo,
			Description: "No misclassifications",
			Data:        map[string]interface{}{"misses": 0},
		}
	}

	share := float64(credited) / float64(misses)
	severity := model.SeverityInfo
	if share < 0.25 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalPartialCredit,
		Severity:    severity,
		Description: fmt.Sprintf("%d/%d misclassifications stay within the true branch (%.0f%%)", credited, misses, share*100),
		Data: map[string]interface{}{
			"misses":   misses,
			"credited": credited,
			"share":    share,
			"formula":  "misses sharing a non-root ancestor / misses",
		},
	}
}

// unseenPredictions flags predicted classes that never occur in the truth
func (s *Scorer) unseenPredictions(flat model.FlatScores) (model.Signal, bool) {
	var unseen []string
	predictedRows := 0
	for _, c := range flat.Classes {
		if c.Support == 0 && c.Predicted > 0 {
			unseen = append(unseen, c.Label)
			predictedRows += c.Predicted
		}
	}
	if len(unseen) == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalUnseenPredictions,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d predicted classes never occur in the truth (each scores F1=0 in macro_f1)", len(unseen)),
		Data: map[string]interface{}{
			"classes": unseen,
			"rows":    predictedRows,
			"labels":  len(flat.Classes),
		},
	}, true
}

// hierarchyGap compares hierarchical F-score with flat weighted F1
func (s *Scorer) hierarchyGap(m model.Metrics) model.Signal {
	gap := m.HierarchicalF1 - m.WeightedF1

	severity := model.SeverityInfo
	description := fmt.Sprintf("h_f1 exceeds weighted_f1 by %.3f", gap)
	if gap < 0 {
		severity = model.SeverityWarning
		description = fmt.Sprintf("h_f1 is below weighted_f1 by %.3f (errors land far from the true branch)", -gap)
	}

	return model.Signal{
		Type:        model.SignalHierarchyGap,
		Severity:    severity,
		Description: description,
		Data: map[string]interface{}{
			"h_f1":        m.HierarchicalF1,
			"weighted_f1": m.WeightedF1,
			"gap":         gap,
			"beta":        s.beta,
			"formula":     "h_f1 - weighted_f1",
		},
	}
}
