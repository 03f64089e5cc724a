package poller

import (
	"fmt"
	"time"

	"fraudwatch/pkg/logging"
	"fraudwatch/pkg/metrics"
	"fraudwatch/pkg/window"
)

// Config holds poller cadence and collaborators.
//
// Cadence is a tunable, not a correctness requirement, with one invariant:
// every refresh interval must be well below its window span, so a window is
// never fully stale relative to what it claims to cover. Validate enforces
// interval <= span/2.
type Config struct {
	// RefreshIntervals maps each rolling horizon to its wholesale refresh
	// cadence. Shorter horizons refresh faster.
	RefreshIntervals map[window.Horizon]time.Duration

	// MergeInterval is the cadence of the most-recent-transaction poll.
	MergeInterval time.Duration

	// Logger for poll outcomes. Defaults to the global logger.
	Logger *logging.Logger

	// Metrics receives poll observations. Defaults to the no-op collector.
	Metrics metrics.Collector

	// Alerts, when set, receives every freshly merged fraud transaction.
	Alerts Sink
}

// DefaultConfig returns the default cadences.
func DefaultConfig() Config {
	return Config{
		RefreshIntervals: map[window.Horizon]time.Duration{
			window.Last30Minutes: 15 * time.Second,
			window.LastHour:      30 * time.Second,
			window.Last2Hours:    time.Minute,
			window.Last12Hours:   5 * time.Minute,
		},
		MergeInterval: time.Second,
	}
}

// Validate checks the cadence invariant for every rolling horizon.
func (c Config) Validate() error {
	if c.MergeInterval <= 0 {
		return fmt.Errorf("poller: merge interval must be positive")
	}
	for _, h := range window.Rolling() {
		interval, ok := c.RefreshIntervals[h]
		if !ok || interval <= 0 {
			return fmt.Errorf("poller: missing refresh interval for window %s", h)
		}
		if interval > h.Span()/2 {
			return fmt.Errorf("poller: refresh interval %v too slow for window %s (span %v)", interval, h, h.Span())
		}
	}
	return nil
}
