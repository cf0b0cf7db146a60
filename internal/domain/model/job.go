package model

import "time"

// Analysis is the outcome of fetching and scoring one query.
type Analysis struct {
	Query       Query
	EntryCount  int
	Cards       []CardScore
	GeneratedAt time.Time
}

// JobStatus tracks where an asynchronous analysis is in its lifecycle.
type JobStatus string

// Job statuses.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Finished reports whether the job reached a terminal status.
func (s JobStatus) Finished() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is an analysis request processed by the worker pool.
type Job struct {
	ID        string
	Query     Query
	Status    JobStatus
	Error     string
	Analysis  *Analysis
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobRequest is what travels through the job queue.
type JobRequest struct {
	ID    string
	Query Query
}
