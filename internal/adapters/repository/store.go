// Package repository stores analysis jobs.
package repository

import (
	"context"

	"github.com/okian/cardrank/internal/domain/model"
)

// JobStore provides read/write access to submitted jobs.
type JobStore interface {
	// Create stores a new job. It fails with ErrAlreadyExists when the ID is taken.
	Create(ctx context.Context, job model.Job) error

	// Get returns a copy of the job or ErrNotFound.
	Get(ctx context.Context, id string) (model.Job, error)

	// Update applies mutate to the stored job under the store lock and returns
	// the result. The ID and creation time cannot be changed.
	Update(ctx context.Context, id string, mutate func(*model.Job)) (model.Job, error)

	Delete(ctx context.Context, id string) error

	// Count returns the number of jobs retained.
	Count(ctx context.Context) int

	// CountByStatus returns how many retained jobs are in each status.
	CountByStatus(ctx context.Context) map[model.JobStatus]int
}
