package model

import "errors"

// Sentinel kinds for domain validation errors.
var (
	ErrInvalidQuery      = errors.New("invalid query")
	ErrUnknownTimePeriod = errors.New("unknown time period")
)
