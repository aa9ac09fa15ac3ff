package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/hiereval/internal/pipeline"
	"github.com/ppiankov/hiereval/internal/worker"
	"github.com/spf13/cobra"
)

var (
	runType    string
	runTimeout time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <experiments-file>",
	Short: "Run every experiment listed in an experiments file",
	Long: `Run loads an experiments file and evaluates each listed predictions file
against the file's dataset:

  type: flat
  dataset: icecat
  experiments:
    - name: bert-base
      predictions: preds/bert-base.csv
    - name: roberta
      predictions: preds/roberta.jsonl

Relative prediction paths resolve against the experiments file.

Example:
  hiereval run experiments.yaml --type flat
  hiereval run experiments.yaml --concurrency 4 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runExperiments,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runType, "type", "", "required experiment type (default: accept any)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "total timeout for the run")
}

func runExperiments(cmd *cobra.Command, args []string) error {
	set, err := pipeline.LoadExperiments(args[0])
	if err != nil {
		return err
	}
	if err := set.CheckType(runType); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The experiments file names the dataset; an explicit --tree still wins.
	cfg.Data.Dataset = set.Dataset

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	title := "Experiment Run"
	if set.Type != "" {
		title = fmt.Sprintf("Experiment Run (%s)", set.Type)
	}
	return runJobs(ctx, cfg, title, func(b *worker.BatchProcessor) ([]*worker.EvalResult, error) {
		return b.ProcessJobs(ctx, set.Jobs()), nil
	})
}
