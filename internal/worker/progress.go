package worker

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultProgressInterval is the minimum gap between two progress lines
const DefaultProgressInterval = 2 * time.Second

// Progress reports batch completion without flooding the log: failures are
// always logged, successes at most once per interval plus the final one.
type Progress struct {
	logger    *slog.Logger
	interval  time.Duration
	total     atomic.Int64
	done      atomic.Int64
	failed    atomic.Int64
	mu        sync.Mutex
	sometimes *rate.Sometimes
}

// NewProgress creates a progress reporter. A non-positive interval selects
// DefaultProgressInterval.
func NewProgress(logger *slog.Logger, interval time.Duration) *Progress {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	p := &Progress{
		logger:   logger,
		interval: interval,
	}
	p.sometimes = p.newSometimes()
	return p
}

func (p *Progress) newSometimes() *rate.Sometimes {
	return &rate.Sometimes{First: 1, Interval: p.interval}
}

// Reset starts a new batch of total jobs
func (p *Progress) Reset(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total.Store(int64(total))
	p.done.Store(0)
	p.failed.Store(0)
	p.sometimes = p.newSometimes()
}

// Done records one finished job
func (p *Progress) Done(path string, err error) {
	done := p.done.Add(1)
	total := p.total.Load()

	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("evaluation failed", "path", path, "error", err, "done", done, "total", total)
	}

	if done == total {
		p.logger.Info("batch complete", "done", done, "failed", p.failed.Load(), "total", total)
		return
	}

	p.mu.Lock()
	s := p.sometimes
	p.mu.Unlock()

	s.Do(func() {
		p.logger.Info("batch progress", "done", done, "total", total, "last", path)
	})
}

// Counts returns finished, failed and total job counts
func (p *Progress) Counts() (done, failed, total int) {
	return int(p.done.Load()), int(p.failed.Load()), int(p.total.Load())
}
