package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/cardrank/internal/domain/model"
)

func newJob(id string) model.Job {
	return model.Job{
		ID:    id,
		Query: model.Query{Commander: "Rograkh, Son of Rohgahh", MinEventSize: 60, TimePeriod: model.SixMonths},
	}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Create(ctx, newJob("job1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	job, err := store.Get(ctx, "job1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != model.JobPending {
		t.Errorf("expected pending status by default, got %s", job.Status)
	}
	if job.CreatedAt.IsZero() || !job.UpdatedAt.Equal(job.CreatedAt) {
		t.Errorf("expected timestamps to be set, got created=%v updated=%v", job.CreatedAt, job.UpdatedAt)
	}

	if err := store.Create(ctx, newJob("job1")); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if err := store.Create(ctx, newJob("")); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("expected ErrInvalidJob, got %v", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	if err := store.Create(ctx, newJob("job1")); err != nil {
		t.Fatal(err)
	}
	before, _ := store.Get(ctx, "job1")
	time.Sleep(2 * time.Millisecond)

	updated, err := store.Update(ctx, "job1", func(j *model.Job) {
		j.ID = "hijacked"
		j.CreatedAt = time.Time{}
		j.Status = model.JobSucceeded
		j.Analysis = &model.Analysis{EntryCount: 3}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != "job1" {
		t.Errorf("update must not change the id, got %s", updated.ID)
	}
	if !updated.CreatedAt.Equal(before.CreatedAt) {
		t.Error("update must not change the creation time")
	}
	if !updated.UpdatedAt.After(before.UpdatedAt) {
		t.Error("expected UpdatedAt to advance")
	}

	got, _ := store.Get(ctx, "job1")
	if got.Status != model.JobSucceeded || got.Analysis == nil || got.Analysis.EntryCount != 3 {
		t.Errorf("update not persisted: %+v", got)
	}

	if _, err := store.Update(ctx, "missing", func(*model.Job) {}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	_ = store.Create(ctx, newJob("job1"))
	if err := store.Delete(ctx, "job1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(ctx, "job1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
}

func TestMemoryStore_EvictsFinishedFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithCapacity(3))
	defer store.Close()

	for i := 1; i <= 3; i++ {
		if err := store.Create(ctx, newJob(fmt.Sprintf("job%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	// job2 finishes; job1 is older but still pending.
	_, _ = store.Update(ctx, "job2", func(j *model.Job) { j.Status = model.JobFailed })

	if err := store.Create(ctx, newJob("job4")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "job2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected finished job2 to be evicted, got %v", err)
	}
	if _, err := store.Get(ctx, "job1"); err != nil {
		t.Errorf("expected pending job1 to survive, got %v", err)
	}

	// Nothing finished: the oldest goes.
	if err := store.Create(ctx, newJob("job5")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "job1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected oldest job1 to be evicted, got %v", err)
	}
	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestMemoryStore_CountByStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	_ = store.Create(ctx, newJob("a"))
	_ = store.Create(ctx, newJob("b"))
	_ = store.Create(ctx, newJob("c"))
	_, _ = store.Update(ctx, "b", func(j *model.Job) { j.Status = model.JobRunning })
	_, _ = store.Update(ctx, "c", func(j *model.Job) { j.Status = model.JobSucceeded })

	counts := store.CountByStatus(ctx)
	want := map[model.JobStatus]int{
		model.JobPending:   1,
		model.JobRunning:   1,
		model.JobSucceeded: 1,
		model.JobFailed:    0,
	}
	for status, n := range want {
		got, ok := counts[status]
		if !ok {
			t.Errorf("status %s missing from counts", status)
		}
		if got != n {
			t.Errorf("status %s: expected %d, got %d", status, n, got)
		}
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithCapacity(50), WithMetricsUpdateInterval(time.Millisecond))
	defer store.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("g%d-%d", g, i)
				if err := store.Create(ctx, newJob(id)); err != nil {
					t.Errorf("create %s: %v", id, err)
					return
				}
				_, _ = store.Update(ctx, id, func(j *model.Job) { j.Status = model.JobSucceeded })
				_, _ = store.Get(ctx, id)
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 50 {
		t.Errorf("expected store to stay at capacity 50, got %d", count)
	}
}

func TestMemoryStore_CloseIdempotent(t *testing.T) {
	store := NewMemoryStore(context.Background())
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
}
