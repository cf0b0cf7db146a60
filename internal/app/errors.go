package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrBackpressure = errors.New("job queue is full")
	ErrNotStarted   = errors.New("service not started")
	ErrNoSource     = errors.New("no entry source configured")
	ErrJobNotReady  = errors.New("job has not finished")
	ErrJobFailed    = errors.New("job failed")
)
