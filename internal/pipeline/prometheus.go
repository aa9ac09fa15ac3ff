package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/hiereval/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hiereval"

// MetricsRegistry builds a registry holding one gauge per report metric
func MetricsRegistry(reports []*model.Report) (*prometheus.Registry, error) {
	scores := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "score",
		Help:      "Evaluation score by experiment, dataset and metric.",
	}, []string{"experiment", "dataset", "metric"})

	examples := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "examples",
		Help:      "Number of evaluated examples.",
	}, []string{"experiment", "dataset"})

	signals := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "signals",
		Help:      "Diagnostic signals raised, by type and severity.",
	}, []string{"experiment", "dataset", "type", "severity"})

	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{scores, examples, signals} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	for _, r := range reports {
		for name, value := range r.Metrics.AsMap() {
			scores.WithLabelValues(r.Experiment, r.Dataset, name).Set(value)
		}
		examples.WithLabelValues(r.Experiment, r.Dataset).Set(float64(r.Examples))
		for _, s := range r.Signals {
			signals.WithLabelValues(r.Experiment, r.Dataset, string(s.Type), string(s.Severity)).Inc()
		}
	}

	return reg, nil
}

// WritePrometheus writes the reports in the node_exporter textfile format
func WritePrometheus(path string, reports []*model.Report) error {
	reg, err := MetricsRegistry(reports)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write textfile: %w", err)
	}
	return nil
}
