package repository

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/pkg/metrics"
)

const (
	defaultCapacity              = 10000
	defaultMetricsUpdateInterval = 5 * time.Second
)

var allStatuses = []model.JobStatus{model.JobPending, model.JobRunning, model.JobSucceeded, model.JobFailed}

type record struct {
	job  model.Job
	elem *list.Element
}

// MemoryStore is a bounded in-memory JobStore. When full, Create evicts the
// oldest finished job, or the oldest job of any status if none has finished.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*record
	order    *list.List // job IDs, oldest first
	capacity int

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewMemoryStore constructs a store and starts its metrics updater, which runs
// until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]*record),
		order:                 list.New(),
		capacity:              defaultCapacity,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Capacity returns the retention bound.
func (s *MemoryStore) Capacity() int { return s.capacity }

// Create implements JobStore.Create.
func (s *MemoryStore) Create(_ context.Context, job model.Job) error {
	if job.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidJob)
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	if job.Status == "" {
		job.Status = model.JobPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[job.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, job.ID)
	}
	for len(s.byID) >= s.capacity {
		s.evictLocked()
	}
	s.byID[job.ID] = &record{job: job, elem: s.order.PushBack(job.ID)}
	return nil
}

// evictLocked drops one job. Callers hold s.mu.
func (s *MemoryStore) evictLocked() {
	victim := s.order.Front()
	for e := s.order.Front(); e != nil; e = e.Next() {
		if s.byID[e.Value.(string)].job.Status.Finished() {
			victim = e
			break
		}
	}
	if victim == nil {
		return
	}
	id := victim.Value.(string)
	s.order.Remove(victim)
	delete(s.byID, id)
	metrics.RecordJobEvicted()
}

// Get implements JobStore.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.job, nil
}

// Update implements JobStore.Update.
func (s *MemoryStore) Update(_ context.Context, id string, mutate func(*model.Job)) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job := rec.job
	mutate(&job)
	job.ID = rec.job.ID
	job.CreatedAt = rec.job.CreatedAt
	job.UpdatedAt = time.Now().UTC()
	rec.job = job
	return job, nil
}

// Delete implements JobStore.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.order.Remove(rec.elem)
	delete(s.byID, id)
	return nil
}

// Count implements JobStore.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// CountByStatus implements JobStore.CountByStatus. Every status is present
// in the result, possibly with zero.
func (s *MemoryStore) CountByStatus(_ context.Context) map[model.JobStatus]int {
	counts := make(map[model.JobStatus]int, len(allStatuses))
	for _, st := range allStatuses {
		counts[st] = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.byID {
		counts[rec.job.Status]++
	}
	return counts
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics(ctx context.Context) {
	for status, n := range s.CountByStatus(ctx) {
		metrics.UpdateJobsByStatus(string(status), n)
	}
}
