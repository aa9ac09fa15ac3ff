package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/hiereval/internal/model"
	"github.com/ppiankov/hiereval/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON          string
	outMD            string
	experiment       string
	evalTimeout      time.Duration
	inputFormat      string
	truthColumn      string
	predictionColumn string
	perClass         bool
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <predictions-file>",
	Short: "Score one predictions file against a dataset taxonomy",
	Long: `Eval reads aligned ground-truth and predicted categories and reports:
- Weighted precision, recall and F1 and macro F1 on the raw labels
- Hierarchical F-beta on ancestor-expanded labels
- Diagnostic signals (partial credit, unseen predictions, hierarchy gap)

Predictions are CSV/TSV with a header row (columns "truth" and "prediction"
by default) or JSON Lines objects with the same keys.

Example:
  hiereval eval preds.csv --dataset icecat
  hiereval eval preds.jsonl --tree taxonomy.yaml --beta 2 --json out.json --md out.md
  hiereval eval logits-argmax.csv --dataset wdc --ids --encoder classes.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	// Output flags
	evalCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: <output-dir>/<experiment>.json)")
	evalCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (default: <output-dir>/<experiment>.md)")
	evalCmd.Flags().BoolVar(&perClass, "per-class", false, "include the per-class table in Markdown")

	// Input flags
	evalCmd.Flags().StringVarP(&experiment, "experiment", "e", "", "experiment name (default: file name)")
	evalCmd.Flags().StringVar(&inputFormat, "format", "", "input format: csv, tsv, jsonl (default: by extension)")
	evalCmd.Flags().StringVar(&truthColumn, "truth-column", "", "ground-truth column name")
	evalCmd.Flags().StringVar(&predictionColumn, "prediction-column", "", "prediction column name")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", time.Minute, "evaluation timeout")
}

func runEval(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if inputFormat != "" {
		cfg.Input.Format = inputFormat
	}
	if truthColumn != "" {
		cfg.Input.TruthColumn = truthColumn
	}
	if predictionColumn != "" {
		cfg.Input.PredictionColumn = predictionColumn
	}
	if perClass {
		cfg.Output.PerClass = true
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Evaluating: %s\n", path)
		fmt.Fprintf(os.Stderr, "Dataset:    %s\n", cfg.Data.Dataset)
		fmt.Fprintf(os.Stderr, "Beta:       %g\n", cfg.Evaluation.Beta)
		fmt.Fprintf(os.Stderr, "Cache:      %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, newLogger(cfg, os.Stderr))

	report, err := p.EvaluateFile(ctx, pipeline.Job{Path: path, Experiment: experiment})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	jsonPath, mdPath := outJSON, outMD
	if jsonPath == "" && mdPath == "" {
		jsonPath, mdPath = reportPaths(cfg, cfg.Output.Dir, report.Experiment)
	}

	if err := p.RenderReport(report, jsonPath, mdPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if cfg.Output.PrometheusFile != "" {
		if err := pipeline.WritePrometheus(cfg.Output.PrometheusFile, []*model.Report{report}); err != nil {
			return fmt.Errorf("write prometheus file: %w", err)
		}
	}

	return nil
}
