// Package jobs runs scans triggered by GitHub webhooks in the background.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sevigo/diff-warden/internal/core"
)

const (
	// DefaultQueueSize is the number of events that may wait for a free worker.
	DefaultQueueSize = 100
	// DefaultJobTimeout bounds a single scan job in server mode.
	DefaultJobTimeout = 30 * time.Minute
)

// ErrQueueFull is returned by Dispatch when no more events can be queued.
var ErrQueueFull = errors.New("job queue is full, cannot accept new scan job")

// ErrStopped is returned by Dispatch once Stop has been called.
var ErrStopped = errors.New("dispatcher is stopped")

// Dispatcher implements core.JobDispatcher with a fixed pool of workers.
type Dispatcher struct {
	job        core.Job
	jobQueue   chan *core.GitHubEvent
	maxWorkers int
	jobTimeout time.Duration
	wg         sync.WaitGroup
	logger     *slog.Logger

	// mu guards stopped and the close of jobQueue against concurrent sends.
	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher starts maxWorkers workers (at least one). A positive jobTimeout
// bounds every job run.
func NewDispatcher(job core.Job, maxWorkers int, jobTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &Dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		jobTimeout: jobTimeout,
		jobQueue:   make(chan *core.GitHubEvent, DefaultQueueSize),
		logger:     logger,
	}
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.worker(i)
	}
	return d
}

func (d *Dispatcher) worker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting scan worker", "id", workerID)

	for event := range d.jobQueue {
		d.process(workerID, event)
	}

	d.logger.Info("shutting down scan worker", "id", workerID)
}

func (d *Dispatcher) process(workerID int, event *core.GitHubEvent) {
	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
	)

	ctx := context.Background()
	if d.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.jobTimeout)
		defer cancel()
	}

	if err := d.job.Run(ctx, event); err != nil {
		d.logger.Error("scan job failed",
			"repo", event.RepoFullName,
			"pr", event.PRNumber,
			"error", err,
		)
	}
}

// Dispatch queues an event without blocking.
func (d *Dispatcher) Dispatch(_ context.Context, event *core.GitHubEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}
	d.logger.Info("queuing scan job", "repo", event.RepoFullName, "pr", event.PRNumber)

	select {
	case d.jobQueue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for the running jobs to finish. Later calls to
// Dispatch return ErrStopped. Stop is safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobQueue)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	d.wg.Wait()
	d.logger.Info("all scan jobs have finished")
}
