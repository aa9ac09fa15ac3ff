package score

import (
	"fmt"
	"sort"

	"github.com/ppiankov/hiereval/internal/model"
	"gonum.org/v1/gonum/stat"
)

// Flat scores the raw label sequences one-vs-rest over the union of observed
// labels. Weighted averages use truth support as weights; macro F1 is the
// plain mean over every observed label. Zero divisions yield 0.
func Flat(truth, pred []string) (model.FlatScores, error) {
	if len(truth) != len(pred) {
		return model.FlatScores{}, &ShapeMismatchError{
			Op:   "flat score",
			Want: fmt.Sprintf("%d predictions", len(truth)),
			Got:  fmt.Sprintf("%d", len(pred)),
		}
	}
	if len(truth) == 0 {
		return model.FlatScores{}, nil
	}

	support := make(map[string]int)
	predicted := make(map[string]int)
	hits := make(map[string]int)
	for i := range truth {
		support[truth[i]]++
		predicted[pred[i]]++
		if truth[i] == pred[i] {
			hits[truth[i]]++
		}
	}

	labels := make([]string, 0, len(support)+len(predicted))
	for l := range support {
		labels = append(labels, l)
	}
	for l := range predicted {
		if _, ok := support[l]; !ok {
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)

	n := len(labels)
	precisions := make([]float64, n)
	recalls := make([]float64, n)
	f1s := make([]float64, n)
	weights := make([]float64, n)
	classes := make([]model.ClassScore, n)

	for i, l := range labels {
		p := ratio(hits[l], predicted[l])
		r := ratio(hits[l], support[l])
		f := FBeta(p, r, 1)

		precisions[i], recalls[i], f1s[i] = p, r, f
		weights[i] = float64(support[l])
		classes[i] = model.ClassScore{
			Label:     l,
			Precision: p,
			Recall:    r,
			F1:        f,
			Support:   support[l],
			Predicted: predicted[l],
		}
	}

	return model.FlatScores{
		WeightedPrecision: stat.Mean(precisions, weights),
		WeightedRecall:    stat.Mean(recalls, weights),
		WeightedF1:        stat.Mean(f1s, weights),
		MacroF1:           stat.Mean(f1s, nil),
		Classes:           classes,
	}, nil
}
