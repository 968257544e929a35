// Package scheduler runs per-file analysis under a concurrency limit with a minimum
// duration per unit of work, consulting the content cache first.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sevigo/diff-warden/internal/cache"
	"github.com/sevigo/diff-warden/internal/core"
)

const (
	// DefaultLimit is the default number of files analyzed concurrently.
	DefaultLimit = 10
	// DefaultMinDuration is the shortest time a unit holds its permit.
	DefaultMinDuration = time.Second
)

// AnalyzeFunc analyzes the diff of one file.
type AnalyzeFunc func(ctx context.Context, file core.ChangedFile) ([]core.Finding, error)

// ContentFunc returns the current content of a file, used to compute the cache key.
type ContentFunc func(ctx context.Context, filename string) (string, error)

// Result is the outcome of one unit of work. A failed unit carries Err and no findings.
type Result struct {
	Filename string
	Findings []core.Finding
	Cached   bool
	Err      error
}

// Scheduler fans analysis out over changed files.
type Scheduler struct {
	analyze     AnalyzeFunc
	content     ContentFunc
	store       cache.Store
	limit       int
	minDuration time.Duration
	logger      *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLimit sets the maximum number of concurrent units. Values below 1 are ignored.
func WithLimit(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithMinDuration sets the pacing floor for each unit.
func WithMinDuration(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.minDuration = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scheduler. A nil store disables caching.
func New(analyze AnalyzeFunc, content ContentFunc, store cache.Store, opts ...Option) *Scheduler {
	if store == nil {
		store = cache.Noop{}
	}
	s := &Scheduler{
		analyze:     analyze,
		content:     content,
		store:       store,
		limit:       DefaultLimit,
		minDuration: DefaultMinDuration,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run analyzes every file and returns one Result per file, in no particular order.
// A failing unit never aborts the batch.
func (s *Scheduler) Run(ctx context.Context, files []core.ChangedFile) []Result {
	if len(files) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(int64(min(s.limit, len(files))))
	results := make([]Result, len(files))

	// Units never return an error to the group; failures are recorded in their Result.
	var g errgroup.Group
	for i, file := range files {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Result{Filename: file.Filename, Err: err}
				return nil
			}
			defer sem.Release(1)

			start := time.Now()
			results[i] = s.runUnit(ctx, file)
			s.pace(ctx, start)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Scheduler) runUnit(ctx context.Context, file core.ChangedFile) Result {
	res := Result{Filename: file.Filename}

	hash := ""
	if s.content != nil {
		content, err := s.content(ctx, file.Filename)
		if err != nil {
			s.logger.Warn("could not read file content, caching disabled for file", "file", file.Filename, "error", err)
		} else {
			hash = cache.HashContent(content)
		}
	}

	if hash != "" {
		if findings, ok := s.store.Get(ctx, hash); ok {
			s.logger.Debug("cache hit", "file", file.Filename, "hash", hash)
			res.Findings = retarget(findings, file.Filename)
			res.Cached = true
			return res
		}
	}

	findings, err := s.analyze(ctx, file)
	if err != nil {
		s.logger.Error("analysis failed", "file", file.Filename, "error", err)
		res.Err = err
		return res
	}
	res.Findings = findings

	if hash != "" {
		if err := s.store.Put(ctx, file.Filename, hash, findings); err != nil {
			s.logger.Warn("failed to write cache entry", "file", file.Filename, "error", err)
		}
	}
	return res
}

// retarget points cached findings at filename. Entries are keyed by content, so
// they may have been written for another file with the same bytes.
func retarget(cached []core.Finding, filename string) []core.Finding {
	out := make([]core.Finding, len(cached))
	for i, f := range cached {
		f.File = filename
		out[i] = f
	}
	return out
}

// pace holds the permit until minDuration has elapsed since start.
func (s *Scheduler) pace(ctx context.Context, start time.Time) {
	remaining := s.minDuration - time.Since(start)
	if remaining <= 0 {
		return
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Collect flattens the findings of all results and returns the failed units separately.
func Collect(results []Result) (findings []core.Finding, failed []Result) {
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			continue
		}
		findings = append(findings, r.Findings...)
	}
	return findings, failed
}
