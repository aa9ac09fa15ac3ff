package model

// Metric names as they appear in a Metrics record
const (
	MetricWeightedPrecision = "weighted_prec"
	MetricWeightedRecall    = "weighted_rec"
	MetricWeightedF1        = "weighted_f1"
	MetricMacroF1           = "macro_f1"
	MetricHierarchicalF1    = "h_f1"
)

// MetricNames lists the record keys in display order
var MetricNames = []string{
	MetricWeightedPrecision,
	MetricWeightedRecall,
	MetricWeightedF1,
	MetricMacroF1,
	MetricHierarchicalF1,
}

// Metrics is the record produced by one evaluation call. It is a value type;
// AsMap hands out a fresh map each time.
type Metrics struct {
	WeightedPrecision float64 `json:"weighted_prec" yaml:"weighted_prec"`
	WeightedRecall    float64 `json:"weighted_rec" yaml:"weighted_rec"`
	WeightedF1        float64 `json:"weighted_f1" yaml:"weighted_f1"`
	MacroF1           float64 `json:"macro_f1" yaml:"macro_f1"`
	HierarchicalF1    float64 `json:"h_f1" yaml:"h_f1"`
}

// AsMap returns the record keyed by metric name
func (m Metrics) AsMap() map[string]float64 {
	return map[string]float64{
		MetricWeightedPrecision: m.WeightedPrecision,
		MetricWeightedRecall:    m.WeightedRecall,
		MetricWeightedF1:        m.WeightedF1,
		MetricMacroF1:           m.MacroF1,
		MetricHierarchicalF1:    m.HierarchicalF1,
	}
}

// FlatScores are computed on the raw label sequences
type FlatScores struct {
	WeightedPrecision float64      `json:"weighted_prec"`
	WeightedRecall    float64      `json:"weighted_rec"`
	WeightedF1        float64      `json:"weighted_f1"`
	MacroF1           float64      `json:"macro_f1"`
	Classes           []ClassScore `json:"classes,omitempty"`
}

// ClassScore is the one-vs-rest breakdown for a single category
type ClassScore struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"` // Occurrences in the truth
	Predicted int     `json:"predicted"`
}

// HierarchicalScores are computed on ancestor-propagated label matrices
type HierarchicalScores struct {
	Precision          float64 `json:"h_precision"`
	Recall             float64 `json:"h_recall"`
	FBeta              float64 `json:"h_fbeta"`
	Beta               float64 `json:"beta"`
	TruePositives      int     `json:"true_positives"`
	PredictedPositives int     `json:"predicted_positives"`
	TruthPositives     int     `json:"truth_positives"`
}
