package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/cardrank/internal/adapters/mq/queue"
	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/pkg/logger"
	"github.com/okian/cardrank/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, q model.Query) (*model.Analysis, error)
}

// JobUpdater records job progress.
type JobUpdater interface {
	Update(ctx context.Context, id string, mutate func(*model.Job)) (model.Job, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Message
}

// Worker processes jobs until its queue closes or it is shut down.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	analyzer   Analyzer
	jobs       JobUpdater
	name       string
	jobTimeout time.Duration

	shutdownOnce sync.Once
	shutdown     chan struct{}
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, analyzer Analyzer, jobs JobUpdater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		analyzer: analyzer,
		jobs:     jobs,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop. It returns once the queue channel is closed,
// ctx is done, or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	messages := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case m, ok := <-messages:
			if !ok {
				return
			}
			if err := w.process(ctx, m); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("job_id", m.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after the job in flight.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, m queue.Message) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if _, err := w.jobs.Update(ctx, m.ID, func(j *model.Job) {
		j.Status = model.JobRunning
	}); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "job_missing")
		return fmt.Errorf("mark job %s running: %w", m.ID, err)
	}

	jobCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	analysis, err := w.analyzer.Analyze(jobCtx, m.Query)

	// The outcome is recorded even when ctx was cancelled mid-analysis.
	recordCtx := context.WithoutCancel(ctx)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analysis_error")
		metrics.RecordErrorByType("analysis_error", "high")
		_, uerr := w.jobs.Update(recordCtx, m.ID, func(j *model.Job) {
			j.Status = model.JobFailed
			j.Error = err.Error()
			j.Analysis = nil
		})
		return errors.Join(fmt.Errorf("analyze job %s: %w", m.ID, err), uerr)
	}

	if _, err := w.jobs.Update(recordCtx, m.ID, func(j *model.Job) {
		j.Status = model.JobSucceeded
		j.Error = ""
		j.Analysis = analysis
	}); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "job_missing")
		return fmt.Errorf("record job %s result: %w", m.ID, err)
	}

	w.logger.Debug(ctx, "job finished",
		logger.String("job_id", m.ID),
		logger.Int("cards", len(analysis.Cards)))
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	cancel  context.CancelFunc
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers sharing q, analyzer and jobs.
// A count below one selects runtime.NumCPU().
func NewPool(workerCount int, q Queue, analyzer Analyzer, jobs JobUpdater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	probe := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(probe)
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  probe.logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, analyzer, jobs, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain what was already queued and
// waits for them. Workers still busy when ctx (or the pool timeout) expires
// are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if p.cancel != nil {
		p.cancel()
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
