package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrExperiments marks invalid experiment files
var ErrExperiments = errors.New("invalid experiments file")

// Experiment names one predictions file
type Experiment struct {
	Name        string `yaml:"name"`
	Predictions string `yaml:"predictions"`
}

// ExperimentSet is a run configuration: one dataset, many experiments
type ExperimentSet struct {
	Type        string       `yaml:"type"`
	Dataset     string       `yaml:"dataset"`
	Experiments []Experiment `yaml:"experiments"`
}

// LoadExperiments reads a YAML or JSON experiment file. Relative prediction
// paths resolve against the file's directory.
func LoadExperiments(path string) (*ExperimentSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiments: %w", err)
	}

	var set ExperimentSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExperiments, path, err)
	}

	if set.Dataset == "" {
		return nil, fmt.Errorf("%w: %s: dataset is required", ErrExperiments, path)
	}
	if len(set.Experiments) == 0 {
		return nil, fmt.Errorf("%w: %s: no experiments", ErrExperiments, path)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool)
	for i := range set.Experiments {
		e := &set.Experiments[i]
		if e.Predictions == "" {
			return nil, fmt.Errorf("%w: %s: experiment %d has no predictions", ErrExperiments, path, i+1)
		}
		if !filepath.IsAbs(e.Predictions) {
			e.Predictions = filepath.Join(base, e.Predictions)
		}
		if e.Name == "" {
			name := filepath.Base(e.Predictions)
			e.Name = name[:len(name)-len(filepath.Ext(name))]
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: %s: duplicate experiment %q", ErrExperiments, path, e.Name)
		}
		seen[e.Name] = true
	}

	return &set, nil
}

// CheckType rejects a set whose type differs from want. An empty want accepts any.
func (s *ExperimentSet) CheckType(want string) error {
	if want != "" && s.Type != want {
		return fmt.Errorf("%w: type %q does not match %q", ErrExperiments, s.Type, want)
	}
	return nil
}

// Jobs returns one pipeline job per experiment
func (s *ExperimentSet) Jobs() []Job {
	jobs := make([]Job, len(s.Experiments))
	for i, e := range s.Experiments {
		jobs[i] = Job{
			Path:       e.Predictions,
			Experiment: e.Name,
			Dataset:    s.Dataset,
		}
	}
	return jobs
}
