// Package memory provides an in-memory metrics collector used by tests and
// the JSON metrics endpoint.
package memory

import (
	"sync"
	"time"

	"fraudwatch/pkg/metrics"
)

// Collector implements metrics.Collector with plain counters behind a
// mutex.
type Collector struct {
	mu sync.RWMutex

	refreshes map[string]*RefreshCounts
	merge     MergeCounts
	sizes     map[string]int
	feedErrs  map[string]int64
	breaker   metrics.BreakerState
}

// RefreshCounts holds the wholesale refresh figures for one window.
type RefreshCounts struct {
	Attempts int64 `json:"attempts"`
	Failures int64 `json:"failures"`
	Skipped  int64 `json:"skipped"`
	LastTook time.Duration
}

// MergeCounts holds the incremental merge figures.
type MergeCounts struct {
	Attempts   int64 `json:"attempts"`
	Appended   int64 `json:"appended"`
	Duplicates int64 `json:"duplicates"`
	Discarded  int64 `json:"discarded"`
}

// New creates an empty in-memory collector.
func New() *Collector {
	return &Collector{
		refreshes: make(map[string]*RefreshCounts),
		sizes:     make(map[string]int),
		feedErrs:  make(map[string]int64),
	}
}

func (c *Collector) window(name string) *RefreshCounts {
	if _, ok := c.refreshes[name]; !ok {
		c.refreshes[name] = &RefreshCounts{}
	}
	return c.refreshes[name]
}

func (c *Collector) RecordRefresh(window string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rc := c.window(window)
	rc.Attempts++
	if !success {
		rc.Failures++
	}
	rc.LastTook = duration
}

func (c *Collector) RecordRefreshSkipped(window string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window(window).Skipped++
}

func (c *Collector) RecordMerge(appended bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.merge.Attempts++
	if appended {
		c.merge.Appended++
	} else {
		c.merge.Duplicates++
	}
}

func (c *Collector) RecordMergeDiscarded(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.merge.Discarded++
}

func (c *Collector) RecordWindowSize(window string, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sizes[window] = size
}

func (c *Collector) RecordFeedError(op string, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedErrs[op+"/"+kind]++
}

func (c *Collector) RecordBreakerState(state metrics.BreakerState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breaker = state
}

// Refresh returns a copy of the refresh counts for one window.
func (c *Collector) Refresh(window string) RefreshCounts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if rc, ok := c.refreshes[window]; ok {
		return *rc
	}
	return RefreshCounts{}
}

// Merge returns a copy of the incremental merge counts.
func (c *Collector) Merge() MergeCounts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.merge
}

// FeedErrors returns the error count for one op/kind pair.
func (c *Collector) FeedErrors(op, kind string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feedErrs[op+"/"+kind]
}

// BreakerState returns the last recorded breaker state.
func (c *Collector) BreakerState() metrics.BreakerState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.breaker
}

// Snapshot returns a JSON-friendly view of everything recorded so far.
func (c *Collector) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	refreshes := make(map[string]RefreshCounts, len(c.refreshes))
	for name, rc := range c.refreshes {
		refreshes[name] = *rc
	}
	sizes := make(map[string]int, len(c.sizes))
	for name, n := range c.sizes {
		sizes[name] = n
	}
	feedErrs := make(map[string]int64, len(c.feedErrs))
	for k, v := range c.feedErrs {
		feedErrs[k] = v
	}

	return map[string]any{
		"refreshes":    refreshes,
		"merge":        c.merge,
		"windowSizes":  sizes,
		"feedErrors":   feedErrs,
		"breakerState": c.breaker.String(),
	}
}
