package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config is the complete hiereval configuration
type Config struct {
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Evaluation  EvaluationConfig  `yaml:"evaluation" mapstructure:"evaluation"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the taxonomy and label encoder
type DataConfig struct {
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"`         // Holds raw/<dataset>/tree/tree_<dataset>.yaml
	Dataset     string `yaml:"dataset" mapstructure:"dataset"`           // Dataset name (e.g., "icecat", "wdc_ziqi")
	TreePath    string `yaml:"tree_path" mapstructure:"tree_path"`       // Explicit artifact, overrides data_dir lookup
	EncoderPath string `yaml:"encoder_path" mapstructure:"encoder_path"` // Class list for numeric predictions
}

// EvaluationConfig controls scoring
type EvaluationConfig struct {
	Beta       float64 `yaml:"beta" mapstructure:"beta"`
	Experiment string  `yaml:"experiment" mapstructure:"experiment"`
}

// InputConfig describes prediction files
type InputConfig struct {
	Format           string `yaml:"format" mapstructure:"format"`                       // csv, tsv, jsonl (empty = by extension)
	TruthColumn      string `yaml:"truth_column" mapstructure:"truth_column"`           // Header of the ground-truth column
	PredictionColumn string `yaml:"prediction_column" mapstructure:"prediction_column"` // Header of the prediction column
	Delimiter        string `yaml:"delimiter" mapstructure:"delimiter"`                 // Overrides the format's field separator
	IDs              bool   `yaml:"ids" mapstructure:"ids"`                             // Columns hold encoder class IDs
}

// CacheConfig controls the report cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds batch evaluation
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	JSON           bool   `yaml:"json" mapstructure:"json"`
	Markdown       bool   `yaml:"markdown" mapstructure:"markdown"`
	PerClass       bool   `yaml:"per_class" mapstructure:"per_class"` // Include the per-class table in Markdown
	PrometheusFile string `yaml:"prometheus_file" mapstructure:"prometheus_file"`
	Verbose        bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return &Config{
		Data: DataConfig{
			DataDir: "data",
		},
		Evaluation: EvaluationConfig{
			Beta: 1.0,
		},
		Input: InputConfig{
			TruthColumn:      "truth",
			PredictionColumn: "prediction",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(home, ".hiereval", "cache"),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			Dir:      "./hiereval-reports",
			JSON:     true,
			Markdown: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
