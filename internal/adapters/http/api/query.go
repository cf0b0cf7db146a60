package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/cardrank/internal/domain/model"
)

// queryRequest mirrors the body of POST /analyses. Omitted fields take the
// server defaults.
type queryRequest struct {
	Commander    string `json:"commander"`
	MinEventSize *int   `json:"min_event_size"`
	TimePeriod   string `json:"time_period"`
}

func (r queryRequest) toQuery(l Limits) (model.Query, error) {
	q := model.Query{
		Commander:    strings.TrimSpace(r.Commander),
		MinEventSize: l.DefaultMinEventSize,
		TimePeriod:   l.DefaultTimePeriod,
	}
	if r.MinEventSize != nil {
		q.MinEventSize = *r.MinEventSize
	}
	if r.TimePeriod != "" {
		p, err := model.ParseTimePeriod(r.TimePeriod)
		if err != nil {
			return model.Query{}, err
		}
		q.TimePeriod = p
	}
	return q, q.Validate()
}

// parseQuery reads commander, min_event_size and time_period from the URL.
func parseQuery(v url.Values, l Limits) (model.Query, error) {
	req := queryRequest{
		Commander:  v.Get("commander"),
		TimePeriod: v.Get("time_period"),
	}
	if raw := v.Get("min_event_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.Query{}, fmt.Errorf("%w: min_event_size must be an integer", ErrBadRequest)
		}
		req.MinEventSize = &n
	}
	return req.toQuery(l)
}

// parseCount reads an optional positive integer parameter bounded by max.
// A missing parameter yields def.
func parseCount(v url.Values, name string, def, max int) (int, error) {
	raw := v.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadRequest, name)
	}
	if n > max {
		return 0, fmt.Errorf("%w: %s must not exceed %d", ErrBadRequest, name, max)
	}
	return n, nil
}
