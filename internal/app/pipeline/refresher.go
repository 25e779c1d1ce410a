package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/engine"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// RefreshConfig sizes the dashboard fetch.
type RefreshConfig struct {
	Interval    time.Duration
	Limit       int
	RecentCount int
}

// Refresher polls the dashboard page on a ticker and publishes immutable snapshots.
type Refresher struct {
	src ports.TelemetrySource
	cls ports.Classifier
	obs ports.Observability
	cfg RefreshConfig
	now func() time.Time

	// called with alerts not handed out by a previous refresh
	onAlerts func(context.Context, []domain.Alert)

	current atomic.Pointer[domain.Snapshot]

	// held from fetch to publish so an older batch never replaces a newer one
	refreshMu sync.Mutex

	mu        sync.Mutex
	lastErr   string
	lastErrAt time.Time
	watermark time.Time
}

func NewRefresher(src ports.TelemetrySource, cls ports.Classifier, obs ports.Observability, cfg RefreshConfig) *Refresher {
	if cls == nil {
		cls = engine.ThresholdClassifier{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.RecentCount <= 0 {
		cfg.RecentCount = 5
	}
	return &Refresher{src: src, cls: cls, obs: obs, cfg: cfg, now: time.Now}
}

// SetClock replaces the wall clock used for fetched_at and alert ages.
func (r *Refresher) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// OnAlerts registers the receiver of newly seen alerts. Call before Run.
func (r *Refresher) OnAlerts(fn func(context.Context, []domain.Alert)) {
	r.onAlerts = fn
}

// Snapshot returns the latest successful snapshot, or nil before the first one.
func (r *Refresher) Snapshot() *domain.Snapshot {
	return r.current.Load()
}

// LastError reports the message of the most recent failed refresh. It is cleared
// by the next successful one.
func (r *Refresher) LastError() (string, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr, r.lastErrAt
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	_ = r.RefreshOnce(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = r.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce fetches one batch. On failure the previous snapshot stays current.
// A fetch that completes after ctx is cancelled is discarded. Concurrent calls
// run one at a time.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	start := time.Now()
	batch, err := r.src.FetchPage(ctx, 1, r.cfg.Limit)
	r.obs.ObserveLatency(ports.MetricUpstreamFetchSeconds, time.Since(start).Seconds())

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		r.fail(err)
		return err
	}

	snap := BuildSnapshot(batch, r.cls, r.now(), r.cfg.RecentCount)
	r.current.Store(snap)

	r.mu.Lock()
	r.lastErr, r.lastErrAt = "", time.Time{}
	fresh := r.unseenLocked(snap.Alerts.Alerts)
	r.mu.Unlock()

	r.obs.IncCounter(ports.MetricRefreshTotal, 1)
	if batch.Rejected > 0 {
		r.obs.IncCounter(ports.MetricRecordsRejected, float64(batch.Rejected))
	}
	r.obs.SetGauge(ports.MetricFleetMachines, float64(snap.Summary.TotalMachines))
	r.obs.SetGauge(ports.MetricFleetFaultyMachines, float64(snap.Summary.FaultyMachines))
	r.obs.SetGauge(ports.MetricActiveAlerts, float64(snap.Summary.ActiveAlerts))
	r.obs.LogInfo("snapshot_refreshed",
		ports.Field{Key: "snapshot_id", Value: snap.ID},
		ports.Field{Key: "records", Value: len(batch.Records)},
		ports.Field{Key: "rejected", Value: batch.Rejected},
		ports.Field{Key: "alerts", Value: snap.Summary.ActiveAlerts})

	if r.onAlerts != nil && len(fresh) > 0 {
		r.onAlerts(ctx, fresh)
	}
	return nil
}

func (r *Refresher) fail(err error) {
	r.mu.Lock()
	r.lastErr, r.lastErrAt = err.Error(), r.now()
	r.mu.Unlock()

	r.obs.IncCounter(ports.MetricRefreshFailures, 1)
	if cause := errors.Unwrap(err); cause != nil {
		r.obs.LogError("refresh_failed", err, ports.Field{Key: "cause", Value: cause.Error()})
		return
	}
	r.obs.LogError("refresh_failed", err)
}

// unseenLocked keeps alerts at or after the newest timestamp already handed out.
// Alerts sharing that timestamp are handed out again; the journal key absorbs them.
func (r *Refresher) unseenLocked(alerts []domain.Alert) []domain.Alert {
	var (
		out  []domain.Alert
		high = r.watermark
	)
	for _, a := range alerts {
		ts := a.Record.Timestamp
		if ts.Before(r.watermark) {
			continue
		}
		out = append(out, a)
		if ts.After(high) {
			high = ts
		}
	}
	r.watermark = high
	return out
}
