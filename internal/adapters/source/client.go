// Package source fetches tournament entries from an EDHTop16-compatible
// GraphQL endpoint.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/pkg/logger"
	"github.com/okian/cardrank/pkg/metrics"
)

const (
	tracerName = "github.com/okian/cardrank/internal/adapters/source"

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 64 << 20
	// maxErrorBody bounds how much of a failed response is echoed into errors.
	maxErrorBody = 512
)

const entriesQuery = `query CommanderEntries($name: String!, $minEventSize: Int!, $timePeriod: TimePeriod!, $first: Int!) {
  commander(name: $name) {
    entries(first: $first, filters: {minEventSize: $minEventSize, timePeriod: $timePeriod}) {
      edges { node { standing tournament { size } maindeck { name imageUrls } } }
    }
  }
}`

// Client is safe for concurrent use. The HTTP client and limiter are shared.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
	log        logger.Logger

	endpoint   string
	timeout    time.Duration
	rateLimit  rate.Limit
	burst      int
	entryLimit int
	userAgent  string
}

// New creates a client with conservative defaults.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		timeout:    DefaultTimeout,
		rateLimit:  DefaultRateLimit,
		burst:      DefaultBurst,
		entryLimit: DefaultEntryLimit,
		userAgent:  DefaultUserAgent,
		log:        logger.Nop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	c.limiter = rate.NewLimiter(c.rateLimit, c.burst)
	return c
}

// Endpoint returns the configured GraphQL URL.
func (c *Client) Endpoint() string { return c.endpoint }

type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// FetchEntries returns the entries matching q. An unknown commander yields an
// empty slice, not an error.
func (c *Client) FetchEntries(ctx context.Context, q model.Query) ([]model.TournamentEntry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "source.FetchEntries", trace.WithAttributes(
		attribute.String("commander", q.Commander),
		attribute.Int("min_event_size", q.MinEventSize),
		attribute.String("time_period", q.TimePeriod.String()),
	))
	defer span.End()

	start := time.Now()
	entries, err := c.fetch(ctx, q)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFetch("error", latency)
		metrics.RecordErrorByComponent("source", errorType(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn(ctx, "fetch entries failed",
			logger.String("commander", q.Commander),
			logger.Error(err))
		return nil, err
	}

	metrics.RecordFetch("ok", latency)
	metrics.RecordEntriesFetched(len(entries))
	span.SetAttributes(attribute.Int("entries", len(entries)))
	c.log.Debug(ctx, "entries fetched",
		logger.String("commander", q.Commander),
		logger.Int("entries", len(entries)),
		logger.Float64("latency_ms", latency))
	return entries, nil
}

func (c *Client) fetch(ctx context.Context, q model.Query) ([]model.TournamentEntry, error) {
	payload, err := json.Marshal(requestBody{
		Query: entriesQuery,
		Variables: map[string]any{
			"name":         q.Commander,
			"minEventSize": q.MinEventSize,
			"timePeriod":   q.TimePeriod.String(),
			"first":        c.entryLimit,
		},
	})
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Message: "failed to encode request", Err: err}
	}

	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Kind: ErrRateLimited, Message: "rate limiter error", Err: err}
	}
	metrics.RecordRateLimitWait(float64(time.Since(waitStart).Milliseconds()))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Message: "failed to execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			metrics.RecordFetchThrottled()
		}
		return nil, &APIError{
			Kind:       ErrUpstreamStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status code, body: %s", truncate(body, maxErrorBody)),
		}
	}

	decoded, err := decodeResponse(body)
	if err != nil {
		return nil, &APIError{Kind: ErrDecode, Message: "failed to decode response", Err: err}
	}
	if len(decoded.Errors) > 0 {
		msg := decoded.Errors[0].Message
		if msg == "" {
			msg = "graphql error"
		}
		return nil, &APIError{Kind: ErrUpstreamGraphQL, StatusCode: resp.StatusCode, Message: msg}
	}
	return decoded.entries(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func errorType(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "unknown"
	}
	switch apiErr.Kind {
	case ErrTransport:
		return "transport"
	case ErrUpstreamStatus:
		return "status"
	case ErrUpstreamGraphQL:
		return "graphql"
	case ErrDecode:
		return "decode"
	case ErrRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}
