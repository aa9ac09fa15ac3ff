package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/hiereval/internal/cache"
	"github.com/ppiankov/hiereval/internal/evaluate"
	"github.com/ppiankov/hiereval/internal/labelspace"
	"github.com/ppiankov/hiereval/internal/logger"
	"github.com/ppiankov/hiereval/internal/model"
	"github.com/ppiankov/hiereval/internal/taxonomy"
)

// ErrNoDataset is returned when neither a dataset nor a tree path is configured
var ErrNoDataset = errors.New("no dataset or tree path configured")

// Job describes one predictions file to evaluate
type Job struct {
	Path       string // Predictions file
	Experiment string // Report name; defaults to the configured experiment, then the file name
	Dataset    string // Taxonomy to score against; defaults to the configured dataset
}

// Pipeline orchestrates reading, scoring, caching and rendering of prediction files
type Pipeline struct {
	config   *model.Config
	logger   *slog.Logger
	reader   *Reader
	cache    cache.Cache // nil when disabled
	renderer *Renderer

	mu    sync.Mutex
	trees map[string]*taxonomy.Tree

	encOnce sync.Once
	encoder *labelspace.Encoder
	encErr  error
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{
		config:   cfg,
		logger:   log,
		reader:   NewReader(cfg.Input),
		cache:    cache.FromConfig(cfg.Cache),
		renderer: NewRenderer(cfg.Output.PerClass),
		trees:    make(map[string]*taxonomy.Tree),
	}
}

// Renderer returns the renderer used for reports
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Tree returns the taxonomy for dataset, loading it on first use. An explicit
// tree path in the configuration wins over the dataset lookup.
func (p *Pipeline) Tree(dataset string) (*taxonomy.Tree, error) {
	key := p.treeSource(dataset)
	if key == "" {
		return nil, ErrNoDataset
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tree, ok := p.trees[key]; ok {
		return tree, nil
	}

	var (
		tree *taxonomy.Tree
		err  error
	)
	if p.config.Data.TreePath != "" {
		tree, err = taxonomy.LoadFile(p.config.Data.TreePath)
	} else {
		tree, err = taxonomy.LoadDataset(p.config.Data.DataDir, dataset)
	}
	if err != nil {
		return nil, fmt.Errorf("load taxonomy for dataset %q: %w", dataset, err)
	}

	p.trees[key] = tree
	return tree, nil
}

func (p *Pipeline) treeSource(dataset string) string {
	if p.config.Data.TreePath != "" {
		return p.config.Data.TreePath
	}
	if dataset == "" {
		return ""
	}
	return filepath.Join(p.config.Data.DataDir, "raw", dataset)
}

// Encoder loads the configured label encoder once
func (p *Pipeline) Encoder() (*labelspace.Encoder, error) {
	p.encOnce.Do(func() {
		if p.config.Data.EncoderPath == "" {
			p.encErr = evaluate.ErrNoEncoder
			return
		}
		p.encoder, p.encErr = labelspace.LoadEncoder(p.config.Data.EncoderPath)
	})
	return p.encoder, p.encErr
}

// EvaluateFile reads one predictions file and scores it. Reports are cached by
// the inputs that determine them, so re-running an unchanged file is free.
func (p *Pipeline) EvaluateFile(ctx context.Context, job Job) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dataset := job.Dataset
	if dataset == "" {
		dataset = p.config.Data.Dataset
	}
	experiment := p.experimentName(job)

	data, err := os.ReadFile(job.Path)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}

	tree, err := p.Tree(dataset)
	if err != nil {
		return nil, err
	}

	opts := []evaluate.Option{evaluate.WithTree(tree), evaluate.WithLogger(p.logger)}
	var enc *labelspace.Encoder
	if p.config.Input.IDs {
		enc, err = p.Encoder()
		if err != nil {
			return nil, fmt.Errorf("load encoder: %w", err)
		}
		opts = append(opts, evaluate.WithEncoder(enc))
	}

	key := p.cacheKey(dataset, experiment, tree, enc, data)
	if report, ok := p.cached(key); ok {
		p.logger.Debug("cache hit", "path", job.Path, "experiment", experiment)
		return report, nil
	}

	ev, err := evaluate.New(evaluate.Config{
		Dataset:    dataset,
		Experiment: experiment,
		Beta:       p.config.Evaluation.Beta,
	}, opts...)
	if err != nil {
		return nil, err
	}

	preds, err := p.reader.Read(job.Path, data)
	if err != nil {
		return nil, err
	}

	var report *model.Report
	if p.config.Input.IDs {
		truthIDs, err := parseIDs(preds.Truth)
		if err != nil {
			return nil, fmt.Errorf("parse truth ids: %w", err)
		}
		predIDs, err := parseIDs(preds.Pred)
		if err != nil {
			return nil, fmt.Errorf("parse prediction ids: %w", err)
		}
		report, err = ev.EvaluateIDs(truthIDs, predIDs)
		if err != nil {
			return nil, err
		}
	} else {
		report, err = ev.Evaluate(preds.Truth, preds.Pred)
		if err != nil {
			return nil, err
		}
	}
	report.Source = job.Path

	p.store(key, report)
	return report, nil
}

// RenderReport writes the report to the given paths and prints a summary
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if p.config.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if p.config.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(os.Stderr, report)

	return nil
}

func (p *Pipeline) experimentName(job Job) string {
	if job.Experiment != "" {
		return job.Experiment
	}
	if p.config.Evaluation.Experiment != "" {
		return p.config.Evaluation.Experiment
	}
	return baseName(job.Path)
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NameJobs builds one job per path with an explicit, unique experiment name.
// Files are named after their base name; clashing names are qualified with the
// parent directory and, if that is not enough, with their position.
func NameJobs(dataset string, paths []string) []Job {
	names := make([]string, len(paths))
	seen := make(map[string]int, len(paths))
	for i, path := range paths {
		names[i] = baseName(path)
		seen[names[i]]++
	}

	for i, path := range paths {
		if seen[baseName(path)] < 2 {
			continue
		}
		if dir := filepath.Base(filepath.Dir(path)); dir != "." && dir != string(filepath.Separator) {
			names[i] = dir + "-" + names[i]
		}
	}

	taken := make(map[string]bool, len(paths))
	jobs := make([]Job, len(paths))
	for i, path := range paths {
		name := names[i]
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d", names[i], n)
		}
		taken[name] = true
		jobs[i] = Job{Path: path, Experiment: name, Dataset: dataset}
	}
	return jobs
}

// cacheKey covers everything a report depends on. The taxonomy and encoder
// enter by content so editing either artifact in place invalidates old reports.
func (p *Pipeline) cacheKey(dataset, experiment string, tree *taxonomy.Tree, enc *labelspace.Encoder, data []byte) string {
	in := p.config.Input
	classes := ""
	if enc != nil {
		classes = cache.ContentHash([]byte(strings.Join(enc.Classes(), "\x00")))
	}
	return cache.CacheKey(
		dataset,
		experiment,
		treeFingerprint(tree),
		classes,
		strconv.FormatFloat(p.config.Evaluation.Beta, 'g', -1, 64),
		strconv.FormatBool(in.IDs),
		in.Format, in.TruthColumn, in.PredictionColumn, in.Delimiter,
		cache.ContentHash(data),
	)
}

func treeFingerprint(tree *taxonomy.Tree) string {
	var b strings.Builder
	b.WriteString(tree.Root().Name)
	for _, e := range tree.Edges() {
		b.WriteString("\x00")
		b.WriteString(e.Parent)
		b.WriteString("\x01")
		b.WriteString(e.Child)
	}
	return cache.ContentHash([]byte(b.String()))
}

func (p *Pipeline) cached(key string) (*model.Report, bool) {
	if p.cache == nil {
		return nil, false
	}
	data, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		_ = p.cache.Delete(key)
		return nil, false
	}
	return &report, true
}

func (p *Pipeline) store(key string, report *model.Report) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		p.logger.Warn("encode report for cache", "error", err)
		return
	}
	if err := p.cache.Set(key, data, 0); err != nil {
		p.logger.Warn("write report cache", "error", err)
	}
}

func parseIDs(values []string) ([]int, error) {
	ids := make([]int, len(values))
	for i, v := range values {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %q is not a class id", ErrInput, i+1, v)
		}
		ids[i] = id
	}
	return ids, nil
}
