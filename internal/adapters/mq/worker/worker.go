// Package worker runs queued parse jobs and merges their results.
//
// Each job is parsed into its own classification; only a successful job is
// merged into the shared season, so a failed file leaves no partial state.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/racerank/internal/adapters/mq/queue"
	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Processor parses a job's file into a classification of its own.
type Processor interface {
	Process(ctx context.Context, j Job) (*classification.Classification, error)
}

// Merger folds a finished job into the season.
type Merger interface {
	Merge(ctx context.Context, c *classification.Classification) (int, error)
}

// Reporter is told when a job starts and when it ends.
type Reporter interface {
	JobStarted(ctx context.Context, id string)
	JobFinished(ctx context.Context, id string, entries int, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

type nopReporter struct{}

func (nopReporter) JobStarted(context.Context, string)              {}
func (nopReporter) JobFinished(context.Context, string, int, error) {}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	merger    Merger
	reporter  Reporter
	name      string
	timeout   time.Duration

	// active is shared with the pool; nil for a standalone worker.
	active *atomic.Int64

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, processor Processor, merger Merger, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		processor: processor,
		merger:    merger,
		reporter:  nopReporter{},
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, j); err != nil {
				w.logger.Error(ctx, "job failed", logger.String("job", j.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob parses one file and merges it on success.
func (w *InMemoryWorker) processJob(ctx context.Context, j Job) (err error) {
	start := time.Now()
	if w.active != nil {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	}
	defer func() {
		if w.active != nil {
			metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		}
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	w.reporter.JobStarted(ctx, j.ID)
	entries := 0
	defer func() { w.reporter.JobFinished(ctx, j.ID, entries, err) }()

	jobCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	c, err := w.processor.Process(jobCtx, j)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordJobFailed()
		metrics.RecordErrorByComponent("worker", "process_error")
		return fmt.Errorf("process job %s: %w", j.ID, err)
	}

	entries, err = w.merger.Merge(ctx, c)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordJobFailed()
		metrics.RecordErrorByComponent("worker", "merge_error")
		return fmt.Errorf("merge job %s: %w", j.ID, err)
	}

	w.logger.Info(ctx, "job done",
		logger.String("job", j.ID),
		logger.String("file", j.Filename),
		logger.Int("entries", entries),
		logger.Duration("took", time.Since(start)))
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int64

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses one worker per CPU.
// Options apply to every worker.
func NewPool(workerCount int, queue Queue, processor Processor, merger Merger, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		w := NewInMemoryWorker(queue, processor, merger, wopts...)
		w.active = &pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently running a job.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater periodically republishes pool gauges.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateWorkerCount(len(p.workers))
			metrics.UpdateWorkerActiveCount(p.Active())
		}
	}
}

// Shutdown closes the queue and waits for every worker to finish its
// current job.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
