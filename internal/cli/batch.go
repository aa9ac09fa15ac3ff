package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/hiereval/internal/model"
	"github.com/ppiankov/hiereval/internal/pipeline"
	"github.com/ppiankov/hiereval/internal/worker"
	"github.com/spf13/cobra"
)

var (
	listFile     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [predictions-file...]",
	Short: "Score many predictions files in parallel",
	Long: `Batch evaluates several predictions files concurrently:
- Each file is one experiment, named after the file; clashing names are
  qualified with the parent directory
- Files are scored in parallel with a bounded worker pool
- Individual JSON/Markdown reports are written to the output directory

Example:
  hiereval batch runs/*.csv --dataset icecat
  hiereval batch --list runs.txt --dataset wdc --concurrency 8 --output-dir ./reports`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&listFile, "list", "", "file listing predictions files (one per line)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && listFile == "" {
		return fmt.Errorf("no predictions files: pass paths or --list")
	}
	if len(args) > 0 && listFile != "" {
		return fmt.Errorf("pass predictions files or --list, not both")
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Every file is its own experiment, so a configured experiment name
	// would make all reports overwrite each other.
	cfg.Evaluation.Experiment = ""

	return runJobs(ctx, cfg, "Batch Evaluation", func(b *worker.BatchProcessor) ([]*worker.EvalResult, error) {
		if listFile != "" {
			return b.ProcessFile(ctx, cfg.Data.Dataset, listFile)
		}
		return b.ProcessPaths(ctx, cfg.Data.Dataset, args), nil
	})
}

// processFunc hands the configured batch processor its work
type processFunc func(b *worker.BatchProcessor) ([]*worker.EvalResult, error)

// runJobs evaluates on the worker pool, writes one report per success
// and prints the batch summary. It fails only when every job failed.
func runJobs(ctx context.Context, cfg *model.Config, title string, process processFunc) error {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Hiereval %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log := newLogger(cfg, os.Stderr)
	p := pipeline.NewPipeline(cfg, log)
	progress := worker.NewProgress(log, 0)
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, progress)

	fmt.Fprintf(os.Stderr, "⚙️  Evaluating with %d workers...\n\n", cfg.Concurrency.Workers)
	results, err := process(processor)
	if err != nil {
		return err
	}

	for _, result := range worker.Failed(results) {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
	}

	reports := worker.Reports(results)
	written := 0
	renderer := p.Renderer()
	for _, report := range reports {
		jsonPath, mdPath := reportPaths(cfg, cfg.Output.Dir, report.Experiment)
		if jsonPath != "" {
			if err := renderer.RenderJSON(report, jsonPath); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", report.Source, err)
				continue
			}
		}
		if mdPath != "" {
			if err := renderer.RenderMarkdown(report, mdPath); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", report.Source, err)
				continue
			}
		}

		written++
		fmt.Fprintf(os.Stderr, "✓ %s (h_f1: %.4f, weighted_f1: %.4f)\n",
			report.Experiment, report.Metrics.HierarchicalF1, report.Metrics.WeightedF1)
	}

	if cfg.Output.PrometheusFile != "" && len(reports) > 0 {
		if err := pipeline.WritePrometheus(cfg.Output.PrometheusFile, reports); err != nil {
			fmt.Fprintf(os.Stderr, "✗ failed to write Prometheus file: %v\n", err)
		}
	}

	// Jobs cancelled before they ran never reach the progress counters.
	done, _, _ := progress.Counts()
	skipped := len(results) - done
	failures := len(results) - written

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s Complete\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", written)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", skipped)
	}
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "\n")

	if written == 0 && failures > 0 {
		return fmt.Errorf("all %d evaluations failed", failures)
	}
	return nil
}
