package api

import "github.com/okian/cardrank/internal/domain/model"

// Limits bounds what a single request may ask for and supplies query defaults.
type Limits struct {
	MaxResultLimit      int
	MaxExportSize       int
	DefaultMinEventSize int
	DefaultTimePeriod   model.TimePeriod
}

func defaultLimits() Limits {
	return Limits{
		MaxResultLimit:      1000,
		MaxExportSize:       500,
		DefaultMinEventSize: 60,
		DefaultTimePeriod:   model.OneYear,
	}
}

// Option adjusts the server Limits.
type Option func(*Limits)

// WithMaxResultLimit caps the limit parameter of GET /scores.
func WithMaxResultLimit(n int) Option {
	return func(l *Limits) {
		if n > 0 {
			l.MaxResultLimit = n
		}
	}
}

// WithMaxExportSize caps the n parameter of the export routes.
func WithMaxExportSize(n int) Option {
	return func(l *Limits) {
		if n > 0 {
			l.MaxExportSize = n
		}
	}
}

// WithQueryDefaults sets the values used when a request omits min_event_size
// or time_period.
func WithQueryDefaults(minEventSize int, period model.TimePeriod) Option {
	return func(l *Limits) {
		if minEventSize > 0 {
			l.DefaultMinEventSize = minEventSize
		}
		if period.Valid() {
			l.DefaultTimePeriod = period
		}
	}
}
