package source

import (
	"errors"
	"fmt"
)

// Sentinel kinds carried by APIError.
var (
	ErrTransport       = errors.New("upstream transport failure")
	ErrUpstreamStatus  = errors.New("upstream returned non-success status")
	ErrUpstreamGraphQL = errors.New("upstream returned graphql errors")
	ErrDecode          = errors.New("upstream response could not be decoded")
	ErrRateLimited     = errors.New("rate limiter wait aborted")
)

// APIError describes a failed call to the entry source.
type APIError struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
