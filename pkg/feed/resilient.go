package feed

import (
	"context"
	"time"

	"fraudwatch/pkg/logging"
	"fraudwatch/pkg/metrics"
	"fraudwatch/pkg/model"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ResilientClient wraps a Client with a per-request timeout and a circuit
// breaker. During a feed outage the breaker sheds requests quickly instead
// of letting every poll tick block on a dead endpoint; the pollers degrade
// to last-known-good windows either way.
type ResilientClient struct {
	inner   Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics metrics.Collector
	logger  *logging.Logger
}

// ResilientConfig configures the resilient wrapper.
type ResilientConfig struct {
	// Timeout bounds each request through the wrapper.
	Timeout time.Duration

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration

	// ConsecutiveFailures is the trip threshold.
	ConsecutiveFailures uint32
}

// DefaultResilientConfig returns defaults tuned for 1-second poll ticks.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Timeout:             4 * time.Second,
		OpenTimeout:         15 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// NewResilientClient wraps the inner client with breaker protection.
func NewResilientClient(inner Client, config ResilientConfig, collector metrics.Collector) *ResilientClient {
	if collector == nil {
		collector = metrics.NoOp{}
	}
	logger := logging.L().Named("feed")

	rc := &ResilientClient{
		inner:   inner,
		timeout: config.Timeout,
		metrics: collector,
		logger:  logger,
	}

	rc.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "feed",
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("feed breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			rc.metrics.RecordBreakerState(breakerState(to))
		},
	})

	return rc
}

// MostRecent implements Client with timeout and breaker protection.
func (rc *ResilientClient) MostRecent(ctx context.Context) (model.Transaction, error) {
	result, err := rc.execute(ctx, "most_recent", func(ctx context.Context) (any, error) {
		return rc.inner.MostRecent(ctx)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return result.(model.Transaction), nil
}

// WithinMinutes implements Client with timeout and breaker protection.
func (rc *ResilientClient) WithinMinutes(ctx context.Context, minutes int) ([]model.Transaction, error) {
	result, err := rc.execute(ctx, "within_minutes", func(ctx context.Context) (any, error) {
		return rc.inner.WithinMinutes(ctx, minutes)
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.Transaction), nil
}

func (rc *ResilientClient) execute(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	if rc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	result, err := rc.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		err = ErrBreakerOpen
	}
	if err != nil {
		rc.metrics.RecordFeedError(op, Classify(err))
	}
	return result, err
}

func breakerState(s gobreaker.State) metrics.BreakerState {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}
