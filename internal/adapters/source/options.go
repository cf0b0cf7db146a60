package source

import (
	"net/http"
	"time"

	"github.com/okian/cardrank/pkg/logger"
	"golang.org/x/time/rate"
)

// Defaults used when no option overrides them.
const (
	DefaultEndpoint   = "https://edhtop16.com/api/graphql"
	DefaultTimeout    = 30 * time.Second
	DefaultEntryLimit = 5000
	DefaultUserAgent  = "cardrank/1.0"
	DefaultBurst      = 1
)

// DefaultRateLimit paces outbound requests to two per second.
var DefaultRateLimit = rate.Limit(2)

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the GraphQL endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit sets the token bucket refill rate and burst.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.rateLimit = limit
		}
		if burst > 0 {
			c.burst = burst
		}
	}
}

// WithEntryLimit caps how many entries a single request asks for.
func WithEntryLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.entryLimit = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
