// Package service wires the parse pipeline into a running process and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/racerank/internal/adapters/mq/queue"
	"github.com/okian/racerank/internal/adapters/mq/worker"
	"github.com/okian/racerank/internal/adapters/repository"
	"github.com/okian/racerank/internal/adapters/results"
	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/internal/domain/dedupe"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/raceresult"
	"github.com/okian/racerank/internal/domain/types"
	"github.com/okian/racerank/internal/formats"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

// Service accepts result files, parses them on a worker pool and keeps the
// season classification.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	results *results.Factory

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	fileTimeout  time.Duration
	threshold    float64
	rowTolerance float64
	wordGap      float64
	members      []model.Member

	// Job status, keyed by job id
	jobsMu sync.RWMutex
	jobs   map[string]*types.JobStatus

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of parse workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the job id deduplication set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithFileTimeout bounds the processing of a single file.
func WithFileTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fileTimeout = d
		}
	}
}

// WithSignatureThreshold sets the header coverage a layout needs to be selected.
func WithSignatureThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithPDFLayout sets the glyph grouping tolerances, in points.
func WithPDFLayout(rowTolerance, wordGap float64) Option {
	return func(s *Service) {
		s.rowTolerance = rowTolerance
		s.wordGap = wordGap
	}
}

// WithMembers sets the roster matched against every file.
func WithMembers(members []model.Member) Option {
	return func(s *Service) {
		s.members = append([]model.Member(nil), members...)
	}
}

// WithStore replaces the season store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1_000,
		dedupeSize:  10_000,
		fileTimeout: 30 * time.Second,
		threshold:   formats.DefaultThreshold,
		jobs:        make(map[string]*types.JobStatus),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the components and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting racerank service...")

	if s.store == nil {
		s.store = repository.NewSeasonStore(repository.WithLogger(s.logger.Named("season")))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.results = results.NewFactory(
		results.WithDetector(formats.NewDetector(
			formats.WithThreshold(s.threshold),
			formats.WithLogger(s.logger.Named("formats")),
		)),
		results.WithPDFLayout(s.rowTolerance, s.wordGap),
		results.WithLogger(s.logger.Named("results")),
	)

	// Workers outlive the request that started the service.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.store,
		worker.WithJobTimeout(s.fileTimeout),
		worker.WithReporter(s),
	)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "racerank service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("members", len(s.members)),
	)

	return nil
}

// Stop drains the queue and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping racerank service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "racerank service stopped")
}

// Submit queues a result file for parsing. A job id already seen is
// acknowledged as a duplicate and not queued again.
func (s *Service) Submit(ctx context.Context, j model.Job) (types.SubmitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.SubmitResult{}, ErrNotStarted
	}
	if strings.TrimSpace(j.Path) == "" {
		return types.SubmitResult{}, fmt.Errorf("%w: empty path", ErrInvalidJob)
	}
	if j.Filename == "" {
		j.Filename = filepath.Base(j.Path)
	}
	if !results.Supported(j.Path) {
		return types.SubmitResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(j.Path))
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = time.Now()
	}

	if s.deduper.SeenAndRecord(ctx, j.ID) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate job", logger.String("job", j.ID))
		st, _ := s.Job(ctx, j.ID)
		return types.SubmitResult{JobID: j.ID, State: st.State, Duplicate: true}, nil
	}

	s.setStatus(&types.JobStatus{
		ID:          j.ID,
		Filename:    j.Filename,
		State:       types.JobPending,
		SubmittedAt: j.SubmittedAt,
	})

	if err := s.queue.Enqueue(ctx, j); err != nil {
		s.deduper.Unrecord(ctx, j.ID)
		s.deleteStatus(j.ID)
		if errors.Is(err, queue.ErrFull) {
			return types.SubmitResult{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return types.SubmitResult{}, fmt.Errorf("enqueue job %s: %w", j.ID, err)
	}

	metrics.RecordJobSubmitted()
	s.logger.Debug(ctx, "job queued",
		logger.String("job", j.ID),
		logger.String("file", j.Filename))
	return types.SubmitResult{JobID: j.ID, State: types.JobPending}, nil
}

// Process implements worker.Processor: it parses one file into a fresh
// classification.
func (s *Service) Process(ctx context.Context, j model.Job) (*classification.Classification, error) {
	if j.Upload {
		defer s.removeUpload(ctx, j.Path)
	}

	repo, err := s.results.For(j.Path)
	if err != nil {
		return nil, err
	}
	parser := raceresult.NewParser(repo, raceresult.WithLogger(s.logger.Named("raceresult")))

	c := classification.New()
	sum, err := parser.Parse(ctx, j.Path, j.Race, s.Members(), c)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "result file parsed",
		logger.String("job", j.ID),
		logger.String("race", sum.Race.Name),
		logger.Int("distance_km", sum.Race.DistanceKm),
		logger.Int("records", sum.Records),
		logger.Int("scored", sum.Scored),
		logger.Int("dropped", sum.Dropped),
		logger.Int("updates", sum.Updates),
		logger.Duration("reference", sum.Reference))
	return c, nil
}

// JobStarted implements worker.Reporter.
func (s *Service) JobStarted(_ context.Context, id string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if st, ok := s.jobs[id]; ok {
		st.State = types.JobRunning
	}
}

// JobFinished implements worker.Reporter.
func (s *Service) JobFinished(_ context.Context, id string, entries int, err error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	st, ok := s.jobs[id]
	if !ok {
		return
	}
	st.FinishedAt = time.Now()
	st.Entries = entries
	if err != nil {
		st.State = types.JobFailed
		st.Error = err.Error()
		return
	}
	st.State = types.JobDone
}

// Job returns the status of a submitted job.
func (s *Service) Job(_ context.Context, id string) (types.JobStatus, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	st, ok := s.jobs[id]
	if !ok {
		return types.JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *st, nil
}

// Classification returns every (member, race) entry of the season.
func (s *Service) Classification(ctx context.Context) ([]types.ClassificationEntry, error) {
	store, err := s.seasonStore()
	if err != nil {
		return nil, err
	}
	all := store.Classifications(ctx)
	out := make([]types.ClassificationEntry, len(all))
	for i := range all {
		out[i] = all[i].Entry()
	}
	return out, nil
}

// Standings returns the top n season totals.
func (s *Service) Standings(ctx context.Context, n int) ([]types.Standing, error) {
	store, err := s.seasonStore()
	if err != nil {
		return nil, err
	}
	return store.Standings(ctx, n)
}

// Rank returns the season standing of one member.
func (s *Service) Rank(ctx context.Context, firstName, lastName string) (types.Standing, error) {
	store, err := s.seasonStore()
	if err != nil {
		return types.Standing{}, err
	}
	return store.Rank(ctx, firstName, lastName)
}

// Members returns a copy of the roster. The roster is fixed at construction
// so workers read it without taking the service lock.
func (s *Service) Members() []model.Member {
	return append([]model.Member(nil), s.members...)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"members":     len(s.members),
	}

	s.jobsMu.RLock()
	byState := make(map[types.JobState]int)
	for _, st := range s.jobs {
		byState[st.State]++
	}
	s.jobsMu.RUnlock()
	for _, state := range []types.JobState{types.JobPending, types.JobRunning, types.JobDone, types.JobFailed} {
		stats["jobs_"+string(state)] = byState[state]
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		entries := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.pool.Active()
		stats["entries"] = entries

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateClassificationMembers(entries)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}

// Size returns the number of job ids held by the deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func (s *Service) seasonStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) setStatus(st *types.JobStatus) {
	s.jobsMu.Lock()
	s.jobs[st.ID] = st
	s.jobsMu.Unlock()
}

func (s *Service) deleteStatus(id string) {
	s.jobsMu.Lock()
	delete(s.jobs, id)
	s.jobsMu.Unlock()
}

// removeUpload deletes the temporary directory holding an uploaded file.
func (s *Service) removeUpload(ctx context.Context, path string) {
	if err := os.RemoveAll(filepath.Dir(path)); err != nil {
		s.logger.Warn(ctx, "upload cleanup failed", logger.String("path", path), logger.Error(err))
	}
}
