// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns defaults; Load(ctx) layers file and env on top.
// - Validation happens once, after layering, through struct tags.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// JobStoreSize bounds how many jobs are retained for polling.
	JobStoreSize int `koanf:"job_store_size" validate:"gte=1"`

	// MaxResultLimit caps GET /scores?limit.
	MaxResultLimit int `koanf:"max_result_limit" validate:"gte=1"`

	// MaxExportSize caps the n of deck-list exports.
	MaxExportSize int `koanf:"max_export_size" validate:"gte=1"`

	// BatchConcurrency bounds concurrent upstream fetches in multi-commander analyses.
	BatchConcurrency int `koanf:"batch_concurrency" validate:"gte=1"`

	// DefaultMinEventSize and DefaultTimePeriod fill in omitted query parameters.
	DefaultMinEventSize int    `koanf:"default_min_event_size" validate:"gte=1"`
	DefaultTimePeriod   string `koanf:"default_time_period" validate:"required"`

	// Source* configure the upstream GraphQL entry source.
	SourceEndpoint   string  `koanf:"source_endpoint" validate:"required,url"`
	SourceTimeoutMS  int     `koanf:"source_timeout_ms" validate:"gte=1"`
	SourceRateLimit  float64 `koanf:"source_rate_limit" validate:"gt=0"`
	SourceBurst      int     `koanf:"source_burst" validate:"gte=1"`
	SourceEntryLimit int     `koanf:"source_entry_limit" validate:"gte=1"`
	SourceUserAgent  string  `koanf:"source_user_agent"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           1_000,
		JobStoreSize:        10_000,
		MaxResultLimit:      1_000,
		MaxExportSize:       500,
		BatchConcurrency:    4,
		DefaultMinEventSize: 60,
		DefaultTimePeriod:   "ONE_YEAR",
		SourceEndpoint:      "https://edhtop16.com/api/graphql",
		SourceTimeoutMS:     30_000,
		SourceRateLimit:     2,
		SourceBurst:         1,
		SourceEntryLimit:    5_000,
		SourceUserAgent:     "cardrank/1.0",
	}
}

// SourceTimeout returns the upstream request timeout as a duration.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}
