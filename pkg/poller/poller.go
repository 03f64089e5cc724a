// Package poller drives the fetch-and-merge cycle: one wholesale refresher
// per rolling horizon, replacing the window's contents with the feed's
// authoritative answer, and one shared incremental poller merging the
// newest transaction into every window it is missing from.
//
// The two paths are uncoordinated by design. Wholesale refresh is an
// idempotent full replace, incremental merge is an idempotent append keyed
// by transaction id, so responses landing in any order converge on the next
// refresh cycle. Failures never propagate past this package: a window keeps
// its last known good contents through any feed outage.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"fraudwatch/pkg/feed"
	"fraudwatch/pkg/logging"
	"fraudwatch/pkg/metrics"
	"fraudwatch/pkg/model"
	"fraudwatch/pkg/window"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Sink receives freshly merged fraud transactions, e.g. for publishing to
// an alert channel. Implementations must tolerate being called from the
// merge goroutine; errors are logged, never acted on.
type Sink interface {
	Publish(ctx context.Context, t model.Transaction) error
}

// Poller owns the periodic triggers. Start launches them, Close stops them
// all in one teardown action and waits for in-flight work to finish.
type Poller struct {
	feed    feed.Client
	store   *window.Store
	config  Config
	logger  *logging.Logger
	metrics metrics.Collector

	// sf coalesces concurrent refreshes of the same horizon.
	sf singleflight.Group

	// inflight tracks at most one outstanding request per horizon;
	// a tick that finds the flag set is skipped, not queued.
	inflight map[window.Horizon]*atomic.Bool

	stop    chan struct{}
	wg      sync.WaitGroup
	started atomic.Bool
}

// New creates a poller over the given feed and store.
func New(feedClient feed.Client, store *window.Store, config Config) (*Poller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = logging.L()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NoOp{}
	}

	inflight := make(map[window.Horizon]*atomic.Bool, len(window.Rolling()))
	for _, h := range window.Rolling() {
		inflight[h] = &atomic.Bool{}
	}

	return &Poller{
		feed:     feedClient,
		store:    store,
		config:   config,
		logger:   config.Logger.Named("poller"),
		metrics:  config.Metrics,
		inflight: inflight,
		stop:     make(chan struct{}),
	}, nil
}

// Start launches one refresh loop per rolling horizon plus the incremental
// merge loop. Each loop fires immediately, then on its interval. Start is
// a no-op after the first call.
func (p *Poller) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	for _, h := range window.Rolling() {
		p.wg.Add(1)
		go p.runRefresh(h, p.config.RefreshIntervals[h])
	}

	p.wg.Add(1)
	go p.runMerge(p.config.MergeInterval)

	p.logger.Info("pollers started",
		zap.Int("windows", len(window.Rolling())),
		zap.Duration("merge_interval", p.config.MergeInterval),
	)
}

// Close stops every periodic trigger and waits for outstanding requests.
func (p *Poller) Close() error {
	select {
	case <-p.stop:
		return nil
	default:
	}
	close(p.stop)
	p.wg.Wait()
	p.logger.Info("pollers stopped")
	return nil
}

// runRefresh is the wholesale refresh loop for one horizon.
func (p *Poller) runRefresh(h window.Horizon, interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tickRefresh(h)
	for {
		select {
		case <-ticker.C:
			p.tickRefresh(h)
		case <-p.stop:
			return
		}
	}
}

// tickRefresh dispatches one refresh unless the previous request for this
// horizon is still outstanding, in which case the tick is dropped. Requests
// that never resolve are superseded by a later tick once the client timeout
// frees the flag; they never queue behind each other.
func (p *Poller) tickRefresh(h window.Horizon) {
	if !p.inflight[h].CompareAndSwap(false, true) {
		p.metrics.RecordRefreshSkipped(h.String())
		p.logger.Debug("refresh tick skipped, previous request in flight",
			zap.String("window", h.String()))
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inflight[h].Store(false)
		p.Refresh(context.Background(), h)
	}()
}

// Refresh performs one wholesale refresh of the horizon now: the window's
// entire contents are replaced with the feed's current answer. On any
// failure the window is left untouched and the error is returned for
// callers that care; the periodic path ignores it. Concurrent calls for
// the same horizon are coalesced.
func (p *Poller) Refresh(ctx context.Context, h window.Horizon) error {
	_, err, _ := p.sf.Do(h.String(), func() (any, error) {
		start := time.Now()
		records, err := p.feed.WithinMinutes(ctx, h.Minutes())
		took := time.Since(start)

		if err != nil {
			p.metrics.RecordRefresh(h.String(), false, took)
			p.logger.Warn("window refresh failed, keeping previous contents",
				zap.String("window", h.String()),
				zap.String("kind", feed.Classify(err)),
				zap.Error(err),
			)
			return nil, err
		}

		// The feed already scopes the response to the horizon, but a slow
		// response can carry records that aged out in transit. Re-check
		// membership against the current clock before the swap; records
		// without a usable timestamp are kept.
		now := time.Now()
		kept := records[:0]
		for _, t := range records {
			if h.Contains(t, now) {
				kept = append(kept, t)
			}
		}

		p.store.Replace(h, kept)
		p.metrics.RecordRefresh(h.String(), true, took)
		p.metrics.RecordWindowSize(h.String(), len(kept))
		p.logger.Debug("window refreshed",
			zap.String("window", h.String()),
			zap.Int("records", len(kept)),
			zap.Duration("took", took),
		)
		return nil, nil
	})
	return err
}

// runMerge is the incremental merge loop.
func (p *Poller) runMerge(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.MergeOnce(context.Background())
	for {
		select {
		case <-ticker.C:
			p.MergeOnce(context.Background())
		case <-p.stop:
			return
		}
	}
}

// MergeOnce polls the newest transaction and merges it, by id, into every
// window that does not already contain it. A malformed response is
// discarded; re-observing the same transaction is a counted no-op. This
// path never prunes: records aging out of a horizon are removed only by the
// next wholesale refresh.
func (p *Poller) MergeOnce(ctx context.Context) {
	start := time.Now()

	tx, err := p.feed.MostRecent(ctx)
	if err != nil {
		if feed.IsMalformed(err) {
			p.metrics.RecordMergeDiscarded("malformed")
		}
		p.logger.Debug("most-recent poll failed",
			zap.String("kind", feed.Classify(err)),
			zap.Error(err),
		)
		return
	}

	appended := p.store.Merge(tx)
	p.metrics.RecordMerge(appended > 0, time.Since(start))

	if appended == 0 {
		return
	}

	p.logger.Debug("transaction merged",
		zap.String("transaction_id", tx.TransactionID),
		zap.Int("windows", appended),
		zap.Bool("fraud", tx.Fraud),
	)
	for h, size := range p.store.Sizes() {
		p.metrics.RecordWindowSize(h.String(), size)
	}

	if tx.Fraud && p.config.Alerts != nil {
		if err := p.config.Alerts.Publish(ctx, tx); err != nil {
			p.logger.Warn("fraud alert publish failed",
				zap.String("transaction_id", tx.TransactionID),
				zap.Error(err),
			)
		}
	}
}
