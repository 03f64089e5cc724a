// Package prometheus exports poller and feed metrics to Prometheus.
package prometheus

import (
	"time"

	"fraudwatch/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements metrics.Collector backed by Prometheus vectors.
type Collector struct {
	refreshes       *prometheus.CounterVec
	refreshFailures *prometheus.CounterVec
	refreshSkipped  *prometheus.CounterVec
	refreshLatency  *prometheus.HistogramVec

	merges         *prometheus.CounterVec
	mergeDiscarded *prometheus.CounterVec
	mergeLatency   prometheus.Histogram

	windowSize *prometheus.GaugeVec
	feedErrors *prometheus.CounterVec
	breaker    prometheus.Gauge
}

// New creates a Prometheus collector under the given namespace.
func New(namespace string) *Collector {
	return &Collector{
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "window_refreshes_total",
				Help:      "Total wholesale window refresh attempts per window",
			},
			[]string{"window"},
		),
		refreshFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "window_refresh_failures_total",
				Help:      "Total failed wholesale window refreshes per window",
			},
			[]string{"window"},
		),
		refreshSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "window_refresh_skipped_total",
				Help:      "Refresh ticks skipped because the previous request was still in flight",
			},
			[]string{"window"},
		),
		refreshLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "window_refresh_duration_seconds",
				Help:      "Wholesale window refresh latency",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
			},
			[]string{"window"},
		),
		merges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merges_total",
				Help:      "Incremental merge attempts by outcome (appended or duplicate)",
			},
			[]string{"outcome"},
		),
		mergeDiscarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merges_discarded_total",
				Help:      "Most-recent responses discarded before merging, by reason",
			},
			[]string{"reason"},
		),
		mergeLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "merge_duration_seconds",
				Help:      "Incremental merge latency including the feed request",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		windowSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "window_size",
				Help:      "Current record count per window",
			},
			[]string{"window"},
		),
		feedErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_errors_total",
				Help:      "Feed request errors by operation and kind",
			},
			[]string{"op", "kind"},
		),
		breaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "feed_breaker_state",
				Help:      "Feed circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
	}
}

// Register registers all vectors with the given registry.
func (c *Collector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.refreshes,
		c.refreshFailures,
		c.refreshSkipped,
		c.refreshLatency,
		c.merges,
		c.mergeDiscarded,
		c.mergeLatency,
		c.windowSize,
		c.feedErrors,
		c.breaker,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) RecordRefresh(window string, success bool, duration time.Duration) {
	c.refreshes.WithLabelValues(window).Inc()
	if !success {
		c.refreshFailures.WithLabelValues(window).Inc()
	}
	c.refreshLatency.WithLabelValues(window).Observe(duration.Seconds())
}

func (c *Collector) RecordRefreshSkipped(window string) {
	c.refreshSkipped.WithLabelValues(window).Inc()
}

func (c *Collector) RecordMerge(appended bool, duration time.Duration) {
	outcome := "duplicate"
	if appended {
		outcome = "appended"
	}
	c.merges.WithLabelValues(outcome).Inc()
	c.mergeLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordMergeDiscarded(reason string) {
	c.mergeDiscarded.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordWindowSize(window string, size int) {
	c.windowSize.WithLabelValues(window).Set(float64(size))
}

func (c *Collector) RecordFeedError(op string, kind string) {
	c.feedErrors.WithLabelValues(op, kind).Inc()
}

func (c *Collector) RecordBreakerState(state metrics.BreakerState) {
	c.breaker.Set(float64(state))
}
