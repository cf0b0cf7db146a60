package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
)

// TimePeriod selects the window of tournaments considered upstream.
type TimePeriod string

// Supported time periods. The set is closed.
const (
	AllTime     TimePeriod = "ALL_TIME"
	OneMonth    TimePeriod = "ONE_MONTH"
	OneYear     TimePeriod = "ONE_YEAR"
	PostBan     TimePeriod = "POST_BAN"
	SixMonths   TimePeriod = "SIX_MONTHS"
	ThreeMonths TimePeriod = "THREE_MONTHS"
)

var timePeriods = []TimePeriod{AllTime, OneMonth, OneYear, PostBan, SixMonths, ThreeMonths}

// TimePeriods returns every supported period in declaration order.
func TimePeriods() []TimePeriod {
	out := make([]TimePeriod, len(timePeriods))
	copy(out, timePeriods)
	return out
}

// Valid reports whether p is a member of the enumeration.
func (p TimePeriod) Valid() bool {
	for _, tp := range timePeriods {
		if p == tp {
			return true
		}
	}
	return false
}

func (p TimePeriod) String() string { return string(p) }

// ParseTimePeriod accepts the enumeration names case-insensitively.
func ParseTimePeriod(s string) (TimePeriod, error) {
	p := TimePeriod(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		if near, ok := closestTimePeriod(p); ok {
			return "", fmt.Errorf("%w: %q (did you mean %s?)", ErrUnknownTimePeriod, s, near)
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownTimePeriod, s)
	}
	return p, nil
}

// maxSuggestDistance bounds how far a typo may be from a period name and
// still be suggested.
const maxSuggestDistance = 3

func closestTimePeriod(p TimePeriod) (TimePeriod, bool) {
	best, bestDist := TimePeriod(""), maxSuggestDistance+1
	for _, tp := range timePeriods {
		if d := levenshtein.ComputeDistance(string(p), string(tp)); d < bestDist {
			best, bestDist = tp, d
		}
	}
	return best, best != ""
}

// Query identifies which tournament entries to analyze.
type Query struct {
	Commander    string     `json:"commander" validate:"required,notblank"`
	MinEventSize int        `json:"min_event_size" validate:"gte=1"`
	TimePeriod   TimePeriod `json:"time_period" validate:"timeperiod"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func queryValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = validate.RegisterValidation("timeperiod", func(fl validator.FieldLevel) bool {
			return TimePeriod(fl.Field().String()).Valid()
		})
	})
	return validate
}

// Validate checks the query before it is sent upstream.
func (q Query) Validate() error {
	if err := queryValidator().Struct(q); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuery, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Commander":
			msgs = append(msgs, "commander must not be empty")
		case "MinEventSize":
			msgs = append(msgs, "min_event_size must be at least 1")
		case "TimePeriod":
			msgs = append(msgs, fmt.Sprintf("time_period %q is not supported", fe.Value()))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return strings.Join(msgs, "; ")
}
