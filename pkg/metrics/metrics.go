// Package metrics defines the collector interface for poller and feed
// observability. Implementations export to Prometheus or keep in-memory
// counts for tests; the no-op collector is the default everywhere.
package metrics

import (
	"time"
)

// Collector receives observations from the pollers, the feed client and
// the store. Implementations must be safe for concurrent use.
type Collector interface {
	// RecordRefresh records one wholesale window refresh attempt.
	RecordRefresh(window string, success bool, duration time.Duration)

	// RecordRefreshSkipped records a refresh tick skipped because the
	// previous request for that window had not resolved.
	RecordRefreshSkipped(window string)

	// RecordMerge records one incremental merge attempt; appended is false
	// when the reported transaction was already present everywhere.
	RecordMerge(appended bool, duration time.Duration)

	// RecordMergeDiscarded records a most-recent response discarded before
	// merging (malformed payload, missing id).
	RecordMergeDiscarded(reason string)

	// RecordWindowSize records the current record count of a window.
	RecordWindowSize(window string, size int)

	// RecordFeedError records a failed feed request by operation and error
	// kind (transport, status, malformed).
	RecordFeedError(op string, kind string)

	// RecordBreakerState records a feed circuit breaker state change.
	RecordBreakerState(state BreakerState)
}

// BreakerState mirrors the feed circuit breaker state for export.
type BreakerState int

const (
	// BreakerClosed means feed requests flow normally.
	BreakerClosed BreakerState = iota
	// BreakerOpen means feed requests are being rejected.
	BreakerOpen
	// BreakerHalfOpen means the breaker is probing for recovery.
	BreakerHalfOpen
)

// String returns the state label used in logs and metrics.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOp is a collector that discards every observation.
type NoOp struct{}

func (NoOp) RecordRefresh(string, bool, time.Duration) {}
func (NoOp) RecordRefreshSkipped(string)               {}
func (NoOp) RecordMerge(bool, time.Duration)           {}
func (NoOp) RecordMergeDiscarded(string)               {}
func (NoOp) RecordWindowSize(string, int)              {}
func (NoOp) RecordFeedError(string, string)            {}
func (NoOp) RecordBreakerState(BreakerState)           {}
