// Package service provides the core business service behind the HTTP API
// and the CLI: it fetches tournament entries, scores cards and runs
// asynchronous analysis jobs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	jobqueue "github.com/okian/cardrank/internal/adapters/mq/queue"
	workerpool "github.com/okian/cardrank/internal/adapters/mq/worker"
	repository "github.com/okian/cardrank/internal/adapters/repository"
	"github.com/okian/cardrank/internal/domain/export"
	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/internal/domain/scoring"
	"github.com/okian/cardrank/pkg/logger"
	"github.com/okian/cardrank/pkg/metrics"
)

const (
	tracerName      = "github.com/okian/cardrank/internal/app"
	stopTimeout     = 30 * time.Second
	defaultJobLimit = 10000
)

// EntryFetcher supplies tournament entries for a query.
type EntryFetcher interface {
	FetchEntries(ctx context.Context, q model.Query) ([]model.TournamentEntry, error)
}

// Service implements the API dependencies for card analysis.
type Service struct {
	mu sync.RWMutex

	// Core components
	source     EntryFetcher
	jobs       *repository.MemoryStore
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool
	tracer     trace.Tracer

	// Configuration
	workerCount      int
	queueSize        int
	jobStoreSize     int
	batchConcurrency int
	jobTimeout       time.Duration

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where entries are fetched from.
func WithSource(src EntryFetcher) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithWorkerCount sets the number of job workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobStoreSize sets how many jobs are retained for lookup.
func WithJobStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.jobStoreSize = size
		}
	}
}

// WithBatchConcurrency caps concurrent fetches in AnalyzeMany.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithJobTimeout bounds a single asynchronous analysis.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
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
		workerCount:      runtime.NumCPU(),
		queueSize:        1000,
		jobStoreSize:     defaultJobLimit,
		batchConcurrency: 4,
		logger:           logger.Nop(),
		tracer:           otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the job store, queue and worker pool. Calling Start on a
// running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.logger.Info(ctx, "starting analysis service...")

	s.jobs = repository.NewMemoryStore(ctx, repository.WithCapacity(s.jobStoreSize))
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.jobs,
		workerpool.WithLogger(s.logger),
		workerpool.WithJobTimeout(s.jobTimeout),
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("jobStoreSize", s.jobStoreSize),
	)
	return nil
}

// Stop closes the queue, waits for workers to drain it and drops the job
// store. Calling Stop on a stopped service is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping analysis service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.jobs.Close()

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

// Analyze fetches the entries for q and scores them.
func (s *Service) Analyze(ctx context.Context, q model.Query) (*model.Analysis, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if s.source == nil {
		return nil, ErrNoSource
	}

	ctx, span := s.tracer.Start(ctx, "service.Analyze", trace.WithAttributes(
		attribute.String("commander", q.Commander),
		attribute.String("time_period", q.TimePeriod.String()),
	))
	defer span.End()

	entries, err := s.source.FetchEntries(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch entries for %q: %w", q.Commander, err)
	}

	start := time.Now()
	cards := scoring.ComputeScores(entries)
	metrics.RecordAggregation(float64(time.Since(start).Milliseconds()), len(cards))
	span.SetAttributes(attribute.Int("entries", len(entries)), attribute.Int("cards", len(cards)))

	s.logger.Debug(ctx, "analysis complete",
		logger.String("commander", q.Commander),
		logger.Int("entries", len(entries)),
		logger.Int("cards", len(cards)))

	return &model.Analysis{
		Query:       q,
		EntryCount:  len(entries),
		Cards:       cards,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// AnalyzeMany runs Analyze for every query concurrently. Results keep the
// input order; the first failure cancels the remaining fetches.
func (s *Service) AnalyzeMany(ctx context.Context, qs []model.Query) ([]*model.Analysis, error) {
	results := make([]*model.Analysis, len(qs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, q := range qs {
		g.Go(func() error {
			a, err := s.Analyze(gctx, q)
			if err != nil {
				return err
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Export analyzes q and renders the top n cards as an importable deck list.
func (s *Service) Export(ctx context.Context, q model.Query, n int) (string, error) {
	a, err := s.Analyze(ctx, q)
	if err != nil {
		return "", err
	}
	return render(a, n), nil
}

// ExportJob renders the deck list of a finished job.
func (s *Service) ExportJob(ctx context.Context, id string, n int) (string, error) {
	job, err := s.Job(ctx, id)
	if err != nil {
		return "", err
	}
	switch job.Status {
	case model.JobSucceeded:
		return render(job.Analysis, n), nil
	case model.JobFailed:
		return "", fmt.Errorf("%w: %s", ErrJobFailed, job.Error)
	default:
		return "", fmt.Errorf("%w: status %s", ErrJobNotReady, job.Status)
	}
}

func render(a *model.Analysis, n int) string {
	metrics.RecordExport()
	return export.Text(export.TopN(a.Cards, n, a.Query.Commander))
}

// Submit queues q for asynchronous analysis and returns the pending job.
func (s *Service) Submit(ctx context.Context, q model.Query) (model.Job, error) {
	if err := q.Validate(); err != nil {
		return model.Job{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Job{}, ErrNotStarted
	}

	job := model.Job{ID: uuid.NewString(), Query: q, Status: model.JobPending}
	if err := s.jobs.Create(ctx, job); err != nil {
		return model.Job{}, fmt.Errorf("create job: %w", err)
	}

	if err := s.jobQueue.Enqueue(ctx, jobqueue.Message{ID: job.ID, Query: q}); err != nil {
		_ = s.jobs.Delete(ctx, job.ID)
		if errors.Is(err, jobqueue.ErrFull) {
			s.logger.Warn(ctx, "job queue full, rejecting submission", logger.String("commander", q.Commander))
			return model.Job{}, ErrBackpressure
		}
		if errors.Is(err, jobqueue.ErrClosed) {
			return model.Job{}, ErrNotStarted
		}
		return model.Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	metrics.RecordJobSubmitted()

	stored, err := s.jobs.Get(ctx, job.ID)
	if err != nil {
		// Already picked up and evicted under pressure; report what was submitted.
		return job, nil
	}
	return stored, nil
}

// Job returns the job with the given id. Unknown or evicted ids yield
// repository.ErrNotFound.
func (s *Service) Job(ctx context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Job{}, ErrNotStarted
	}
	return s.jobs.Get(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"jobStoreSize":     s.jobStoreSize,
		"batchConcurrency": s.batchConcurrency,
	}

	if s.started {
		ctx := context.Background()
		stats["queueLength"] = s.jobQueue.Len(ctx)
		stats["jobsRetained"] = s.jobs.Count(ctx)

		byStatus := make(map[string]int)
		for status, n := range s.jobs.CountByStatus(ctx) {
			byStatus[string(status)] = n
			metrics.UpdateJobsByStatus(string(status), n)
		}
		stats["jobs"] = byStatus
	}
	return stats
}
