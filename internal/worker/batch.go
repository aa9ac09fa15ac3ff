package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/hiereval/internal/model"
	"github.com/ppiankov/hiereval/internal/pipeline"
)

// FileEvaluator defines the interface for evaluating one predictions file
type FileEvaluator interface {
	EvaluateFile(ctx context.Context, job pipeline.Job) (*model.Report, error)
}

// EvalJob represents one predictions file to evaluate
type EvalJob struct {
	Index     int
	Job       pipeline.Job
	Evaluator FileEvaluator
	Progress  *Progress
}

// Execute executes the evaluation job
func (j *EvalJob) Execute(ctx context.Context) Result {
	report, err := j.Evaluator.EvaluateFile(ctx, j.Job)
	if j.Progress != nil {
		j.Progress.Done(j.Job.Path, err)
	}
	if err != nil {
		return &EvalResult{
			Index: j.Index,
			Path:  j.Job.Path,
			Error: err,
		}
	}
	return &EvalResult{
		Index:  j.Index,
		Path:   j.Job.Path,
		Report: report,
	}
}

// EvalResult represents the result of an evaluation job
type EvalResult struct {
	Index  int
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the evaluation result
func (r *EvalResult) GetError() error {
	return r.Error
}

// BatchProcessor evaluates multiple prediction files concurrently
type BatchProcessor struct {
	evaluator   FileEvaluator
	concurrency int
	progress    *Progress
}

// NewBatchProcessor creates a new batch processor. progress may be nil.
func NewBatchProcessor(evaluator FileEvaluator, concurrency int, progress *Progress) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
		progress:    progress,
	}
}

// ProcessJobs evaluates jobs concurrently. Results come back in job order;
// jobs that never ran because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessJobs(ctx context.Context, jobs []pipeline.Job) []*EvalResult {
	if len(jobs) == 0 {
		return []*EvalResult{}
	}

	if b.progress != nil {
		b.progress.Reset(len(jobs))
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, job := range jobs {
		submitted := pool.Submit(&EvalJob{
			Index:     i,
			Job:       job,
			Evaluator: b.evaluator,
			Progress:  b.progress,
		})
		if !submitted {
			break
		}
	}

	results := pool.Wait()

	evalResults := make([]*EvalResult, len(jobs))
	for _, result := range results {
		r := result.(*EvalResult)
		evalResults[r.Index] = r
	}

	for i, r := range evalResults {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			evalResults[i] = &EvalResult{Index: i, Path: jobs[i].Path, Error: fmt.Errorf("not evaluated: %w", err)}
		}
	}

	return evalResults
}

// ProcessPaths evaluates each path as its own experiment on the given dataset.
// Experiment names come from pipeline.NameJobs and are unique within the batch.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, dataset string, paths []string) []*EvalResult {
	return b.ProcessJobs(ctx, pipeline.NameJobs(dataset, paths))
}

// ProcessFile reads prediction paths from a list file and evaluates them
func (b *BatchProcessor) ProcessFile(ctx context.Context, dataset, listPath string) ([]*EvalResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, dataset, paths), nil
}

// ReadPathsFromFile reads file paths from a list file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

// Failed returns the results that carry an error, in job order
func Failed(results []*EvalResult) []*EvalResult {
	var failed []*EvalResult
	for _, r := range results {
		if r.Error != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Reports returns the successful reports, in job order
func Reports(results []*EvalResult) []*model.Report {
	var reports []*model.Report
	for _, r := range results {
		if r.Error == nil && r.Report != nil {
			reports = append(reports, r.Report)
		}
	}
	return reports
}
