// Package evaluate is the entry point for scoring predictions against a
// dataset's category taxonomy.
//
// An Evaluator is ready as soon as New returns: the taxonomy has been loaded
// and validated, and it is never modified afterwards. ComputeMetrics and
// Evaluate may therefore be called concurrently from many goroutines.
package evaluate

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ppiankov/hiereval/internal/labelspace"
	"github.com/ppiankov/hiereval/internal/logger"
	"github.com/ppiankov/hiereval/internal/model"
	"github.com/ppiankov/hiereval/internal/score"
	"github.com/ppiankov/hiereval/internal/taxonomy"
	"gonum.org/v1/gonum/mat"
)

// ErrNoEncoder is returned by the ID-based entry points when no encoder was configured
var ErrNoEncoder = errors.New("no label encoder configured")

// DefaultExperiment names evaluations that were not given a name
const DefaultExperiment = "Unknown"

// Config selects the taxonomy and scoring parameters
type Config struct {
	DataDir    string  // Root holding raw/<dataset>/tree/
	Dataset    string  // Dataset name, keys the taxonomy artifact
	TreePath   string  // Explicit artifact path, overrides DataDir/Dataset lookup
	Experiment string  // Name used in logs and reports
	Beta       float64 // Hierarchical F-beta; non-positive selects score.DefaultBeta
}

// Option customizes an Evaluator
type Option func(*Evaluator)

// WithLogger sets the logger used for load and per-evaluation lines
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEncoder sets the encoder that decodes numeric class IDs
func WithEncoder(enc *labelspace.Encoder) Option {
	return func(e *Evaluator) {
		e.encoder = enc
	}
}

// WithTree supplies an already loaded taxonomy, skipping artifact I/O
func WithTree(t *taxonomy.Tree) Option {
	return func(e *Evaluator) {
		e.tree = t
	}
}

// Evaluator scores label sequences against one taxonomy
type Evaluator struct {
	dataset    string
	experiment string
	tree       *taxonomy.Tree
	encoder    *labelspace.Encoder
	scorer     *score.Scorer
	logger     *slog.Logger
	now        func() time.Time
}

// New loads the taxonomy and returns a ready evaluator. There is no retry:
// an evaluator without its taxonomy is unusable.
func New(cfg Config, opts ...Option) (*Evaluator, error) {
	if math.IsNaN(cfg.Beta) || math.IsInf(cfg.Beta, 0) {
		return nil, fmt.Errorf("invalid beta %v", cfg.Beta)
	}
	beta := cfg.Beta
	if beta <= 0 {
		beta = score.DefaultBeta
	}

	experiment := cfg.Experiment
	if experiment == "" {
		experiment = DefaultExperiment
	}

	e := &Evaluator{
		dataset:    cfg.Dataset,
		experiment: experiment,
		scorer:     score.NewScorer(beta),
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	logLoad := e.logger.Debug
	if e.tree == nil {
		logLoad = e.logger.Info
		var (
			tree *taxonomy.Tree
			err  error
		)
		if cfg.TreePath != "" {
			tree, err = taxonomy.LoadFile(cfg.TreePath)
		} else {
			tree, err = taxonomy.LoadDataset(cfg.DataDir, cfg.Dataset)
		}
		if err != nil {
			return nil, fmt.Errorf("load taxonomy for dataset %q: %w", cfg.Dataset, err)
		}
		e.tree = tree
	}

	logLoad("loaded taxonomy",
		"dataset", e.dataset,
		"root", e.tree.Root().Name,
		"nodes", e.tree.Len(),
		"depth", e.tree.MaxDepth())

	return e, nil
}

// Dataset returns the dataset name
func (e *Evaluator) Dataset() string { return e.dataset }

// Experiment returns the experiment name
func (e *Evaluator) Experiment() string { return e.experiment }

// Tree returns the loaded taxonomy
func (e *Evaluator) Tree() *taxonomy.Tree { return e.tree }

// Root returns the taxonomy root
func (e *Evaluator) Root() taxonomy.Node { return e.tree.Root() }

// Beta returns the hierarchical F-beta parameter
func (e *Evaluator) Beta() float64 { return e.scorer.Beta() }

// Encoder returns the configured encoder, or nil
func (e *Evaluator) Encoder() *labelspace.Encoder { return e.encoder }

// ComputeMetrics scores aligned truth and prediction labels
func (e *Evaluator) ComputeMetrics(truth, pred []string) (model.Metrics, error) {
	result, err := e.calculate(truth, pred)
	if err != nil {
		return model.Metrics{}, err
	}
	return result.Metrics, nil
}

// ComputeMetricsFromIDs decodes class IDs through the encoder, then scores them
func (e *Evaluator) ComputeMetricsFromIDs(labelIDs, predIDs []int) (model.Metrics, error) {
	truth, pred, err := e.decode(labelIDs, predIDs)
	if err != nil {
		return model.Metrics{}, err
	}
	return e.ComputeMetrics(truth, pred)
}

// ComputeMetricsFromLogits takes the per-row argmax of model outputs as the
// predicted class IDs, then scores them like ComputeMetricsFromIDs
func (e *Evaluator) ComputeMetricsFromLogits(labelIDs []int, logits mat.Matrix) (model.Metrics, error) {
	rows, _ := logits.Dims()
	if rows != len(labelIDs) {
		return model.Metrics{}, &score.ShapeMismatchError{
			Op:   "logits",
			Want: fmt.Sprintf("%d rows", len(labelIDs)),
			Got:  fmt.Sprintf("%d", rows),
		}
	}
	return e.ComputeMetricsFromIDs(labelIDs, labelspace.ArgMax(logits))
}

// Evaluate scores aligned labels and returns the full report
func (e *Evaluator) Evaluate(truth, pred []string) (*model.Report, error) {
	result, err := e.calculate(truth, pred)
	if err != nil {
		return nil, err
	}

	return &model.Report{
		Experiment:   e.experiment,
		Dataset:      e.dataset,
		EvaluatedAt:  e.now().UTC(),
		Examples:     len(truth),
		Beta:         e.scorer.Beta(),
		Metrics:      result.Metrics,
		Flat:         result.Flat,
		Hierarchical: result.Hierarchical,
		Signals:      result.Signals,
	}, nil
}

// EvaluateIDs is Evaluate for encoder class IDs
func (e *Evaluator) EvaluateIDs(labelIDs, predIDs []int) (*model.Report, error) {
	truth, pred, err := e.decode(labelIDs, predIDs)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(truth, pred)
}

func (e *Evaluator) calculate(truth, pred []string) (score.Result, error) {
	result, err := e.scorer.Calculate(truth, pred, e.tree)
	if err != nil {
		return score.Result{}, fmt.Errorf("evaluate %s: %w", e.experiment, err)
	}

	m := result.Metrics
	e.logger.Info(fmt.Sprintf("%s | prec_weighted: %.4f | rec_weighted: %.4f | f1_weighted: %.4f | f1_macro: %.4f | h_f1: %.4f",
		e.experiment, m.WeightedPrecision, m.WeightedRecall, m.WeightedF1, m.MacroF1, m.HierarchicalF1),
		"dataset", e.dataset,
		"examples", len(truth))

	return result, nil
}

func (e *Evaluator) decode(labelIDs, predIDs []int) ([]string, []string, error) {
	if e.encoder == nil {
		return nil, nil, ErrNoEncoder
	}

	truth, err := e.encoder.InverseTransform(labelIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("decode truth: %w", err)
	}
	pred, err := e.encoder.InverseTransform(predIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("decode predictions: %w", err)
	}
	return truth, pred, nil
}
