package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/hiereval/internal/logger"
	"github.com/ppiankov/hiereval/internal/model"
	"github.com/spf13/viper"
)

// setDefaults registers every configuration key so env variables and the
// config file can override it
func setDefaults() {
	d := model.DefaultConfig()

	viper.SetDefault("data.data_dir", d.Data.DataDir)
	viper.SetDefault("data.dataset", d.Data.Dataset)
	viper.SetDefault("data.tree_path", d.Data.TreePath)
	viper.SetDefault("data.encoder_path", d.Data.EncoderPath)

	viper.SetDefault("evaluation.beta", d.Evaluation.Beta)
	viper.SetDefault("evaluation.experiment", d.Evaluation.Experiment)

	viper.SetDefault("input.format", d.Input.Format)
	viper.SetDefault("input.truth_column", d.Input.TruthColumn)
	viper.SetDefault("input.prediction_column", d.Input.PredictionColumn)
	viper.SetDefault("input.delimiter", d.Input.Delimiter)
	viper.SetDefault("input.ids", d.Input.IDs)

	viper.SetDefault("cache.enabled", d.Cache.Enabled)
	viper.SetDefault("cache.dir", d.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", d.Cache.DiskTTL)

	viper.SetDefault("concurrency.workers", d.Concurrency.Workers)

	viper.SetDefault("output.dir", d.Output.Dir)
	viper.SetDefault("output.json", d.Output.JSON)
	viper.SetDefault("output.markdown", d.Output.Markdown)
	viper.SetDefault("output.per_class", d.Output.PerClass)
	viper.SetDefault("output.prometheus_file", d.Output.PrometheusFile)
	viper.SetDefault("output.verbose", d.Output.Verbose)

	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// loadConfig merges defaults, config file, env and flags into one Config
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if noCache {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = model.DefaultConfig().Concurrency.Workers
	}
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)

	return cfg, nil
}

// newLogger builds the structured logger; verbose lowers info to debug
func newLogger(cfg *model.Config, w io.Writer) *slog.Logger {
	level := cfg.Log.Level
	if cfg.Output.Verbose && strings.EqualFold(level, "info") {
		level = "debug"
	}
	return logger.New(level, cfg.Log.Format, w)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// sanitizeFilename turns an experiment name into a safe file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")

	if s == "" {
		s = "report"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}

// reportPaths returns the JSON and Markdown paths for a report in dir,
// honoring the output toggles
func reportPaths(cfg *model.Config, dir, name string) (jsonPath, mdPath string) {
	slug := sanitizeFilename(name)
	if cfg.Output.JSON {
		jsonPath = filepath.Join(dir, slug+".json")
	}
	if cfg.Output.Markdown {
		mdPath = filepath.Join(dir, slug+".md")
	}
	return jsonPath, mdPath
}
