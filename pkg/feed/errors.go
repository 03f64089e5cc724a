package feed

import (
	"errors"
)

// Feed request errors. Pollers never surface these to readers; they log,
// count, and keep the last known good window state.
var (
	// ErrStatus is returned when the feed answers with a non-2xx status.
	ErrStatus = errors.New("feed: unexpected status")

	// ErrMalformed is returned when a response body cannot be used: broken
	// JSON, a missing transactions array, or a record without an id.
	ErrMalformed = errors.New("feed: malformed payload")

	// ErrNoData is returned when the feed reports success=false. It means
	// "no new information", never "empty window".
	ErrNoData = errors.New("feed: no data for this request")

	// ErrBreakerOpen is returned while the circuit breaker is rejecting
	// requests.
	ErrBreakerOpen = errors.New("feed: circuit breaker open")
)

// IsMalformed reports whether the error indicates an unusable payload.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

// Classify returns the error kind label used for metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrBreakerOpen):
		return "breaker_open"
	default:
		return "transport"
	}
}
