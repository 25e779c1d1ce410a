package predpost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/observability"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/queue"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/sensorapi"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/adapters/sink"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/app/httpapi"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/app/pipeline"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

const shutdownTimeout = 5 * time.Second

// MonitorOption customizes the dependencies used by Monitor.
type MonitorOption func(*monitorOverrides)

type monitorOverrides struct {
	source        TelemetrySource
	predictor     Predictor
	journal       JournalSink
	queue         AlertQueue
	observability Observability
	classifier    Classifier
	now           func() time.Time
}

// WithSource replaces the HTTP sensor API as the telemetry source.
func WithSource(src TelemetrySource) MonitorOption {
	return func(o *monitorOverrides) {
		o.source = src
	}
}

// WithPredictor replaces the HTTP sensor API as the prediction backend.
func WithPredictor(p Predictor) MonitorOption {
	return func(o *monitorOverrides) {
		o.predictor = p
	}
}

// WithJournalSink enables the alert journal with a custom sink, even when no
// journal connection string is configured.
func WithJournalSink(s JournalSink) MonitorOption {
	return func(o *monitorOverrides) {
		o.journal = s
	}
}

// WithAlertQueue injects the queue that buffers alerts for the journal.
func WithAlertQueue(q AlertQueue) MonitorOption {
	return func(o *monitorOverrides) {
		o.queue = q
	}
}

// WithObservability plugs in a custom metrics and logging backend.
func WithObservability(obs Observability) MonitorOption {
	return func(o *monitorOverrides) {
		o.observability = obs
	}
}

// WithClassifier swaps the threshold table used to grade alerts.
func WithClassifier(c Classifier) MonitorOption {
	return func(o *monitorOverrides) {
		o.classifier = c
	}
}

// WithClock replaces time.Now for snapshot times and alert ages.
func WithClock(now func() time.Time) MonitorOption {
	return func(o *monitorOverrides) {
		o.now = now
	}
}

// Monitor wires the refresher, the optional alert journal and the HTTP API, and
// exposes lifecycle hooks for embedding the dashboard backend in any Go service.
type Monitor struct {
	cfg       *Config
	obs       ports.Observability
	refresher *pipeline.Refresher
	journal   *pipeline.Journal
	tsSink    *sink.TimescaleSink
	db        *sql.DB
	handler   http.Handler

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	apiAddr net.Addr
}

// NewMonitor bootstraps the default adapters (sensor API client, threshold
// classifier, Timescale journal when configured, Prometheus observability).
func NewMonitor(cfg *Config, opts ...MonitorOption) (*Monitor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides monitorOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(observability.NewLogger("predpost", cfg.Log.Level))
	}

	loc, err := cfg.LoadLocation()
	if err != nil {
		return nil, fmt.Errorf("views.location: %w", err)
	}

	client, err := sensorapi.New(cfg.Upstream.BaseURL,
		sensorapi.WithTimeout(cfg.Upstream.Timeout),
		sensorapi.WithRejectHook(func(err error) {
			obs.LogError("record_rejected", err)
		}))
	if err != nil {
		return nil, err
	}

	var src ports.TelemetrySource = client
	if overrides.source != nil {
		src = overrides.source
	}
	var pred ports.Predictor = client
	if overrides.predictor != nil {
		pred = overrides.predictor
	}

	m := &Monitor{cfg: cfg, obs: obs}

	m.refresher = pipeline.NewRefresher(src, overrides.classifier, obs, pipeline.RefreshConfig{
		Interval:    cfg.Refresh.Interval,
		Limit:       cfg.Views.DashboardLimit,
		RecentCount: cfg.Views.RecentCount,
	})
	if overrides.now != nil {
		m.refresher.SetClock(overrides.now)
	}

	snk := overrides.journal
	if snk == nil && cfg.Journal.Enabled() {
		m.db, err = sql.Open("postgres", cfg.Journal.ConnString)
		if err != nil {
			return nil, err
		}
		m.tsSink = sink.NewTimescaleSink(m.db, cfg.Journal.Table)
		snk = m.tsSink
	}
	if snk != nil {
		q := overrides.queue
		if q == nil {
			q = queue.NewMemQueue(cfg.Journal.Policy.MaxQueueLen)
		}
		m.journal = pipeline.NewJournal(q, snk, cfg.Journal.Policy, obs)
		m.refresher.OnAlerts(func(ctx context.Context, alerts []Alert) {
			m.journal.Submit(ctx, alerts)
		})
	}

	m.handler = httpapi.New(httpapi.Deps{
		Snapshots:  m.refresher,
		Source:     src,
		Predictor:  pred,
		Health:     client,
		Classifier: overrides.classifier,
		Obs:        obs,
		Views: httpapi.Views{
			HistoryPageSize: cfg.Views.HistoryPageSize,
			VisualizeLimit:  cfg.Views.VisualizeLimit,
			TimelineWindow:  cfg.Views.TimelineWindow,
		},
		Location: loc,
		Now:      overrides.now,
	}).Router()

	return m, nil
}

// Conf loads YAML from disk and builds a Monitor in one step.
func Conf(path string, opts ...MonitorOption) (*Monitor, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewMonitor(cfg, opts...)
}

// Handler returns the HTTP API so callers can mount it on their own server.
func (m *Monitor) Handler() http.Handler { return m.handler }

// Snapshot returns the latest successful refresh, or nil before the first one.
func (m *Monitor) Snapshot() *Snapshot { return m.refresher.Snapshot() }

// LastError reports the most recent refresh failure, cleared by the next success.
func (m *Monitor) LastError() (string, time.Time) { return m.refresher.LastError() }

// Refresh fetches the dashboard page once, outside the ticker.
func (m *Monitor) Refresh(ctx context.Context) error { return m.refresher.RefreshOnce(ctx) }

// Addr reports the API listener address once Run has bound it.
func (m *Monitor) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiAddr
}

// Run starts every component and blocks until ctx is cancelled, Shutdown is
// called, or a component fails.
func (m *Monitor) Run(ctx context.Context) error {
	if m == nil {
		return fmt.Errorf("monitor is nil")
	}

	ln, err := net.Listen("tcp", m.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.cfg.Server.Addr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.mu.Lock()
	m.cancel, m.done, m.apiAddr = cancel, done, ln.Addr()
	m.mu.Unlock()
	defer close(done)
	defer cancel()

	if m.tsSink != nil {
		if err := m.tsSink.CreateTable(); err != nil {
			m.obs.LogError("journal_table_create_failed", err)
		}
	}

	servers := []*http.Server{{Handler: m.handler}}
	listeners := []net.Listener{ln}
	if addr := m.cfg.Metrics.Addr; addr != "" && addr != m.cfg.Server.Addr {
		mln, err := net.Listen("tcp", addr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		servers = append(servers, &http.Server{Handler: mux})
		listeners = append(listeners, mln)
	}

	m.obs.LogInfo("monitor_started",
		ports.Field{Key: "api_addr", Value: ln.Addr().String()},
		ports.Field{Key: "upstream", Value: m.cfg.Upstream.BaseURL},
		ports.Field{Key: "journal", Value: m.journal != nil})

	// the journal outlives the refresher so its final flush sees every submitted alert
	journalCtx, stopJournal := context.WithCancel(context.Background())
	defer stopJournal()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer stopJournal()
		return m.refresher.Run(gctx)
	})
	if m.journal != nil {
		g.Go(func() error { return m.journal.Run(journalCtx) })
	}
	for i := range servers {
		srv, l := servers[i], listeners[i]
		g.Go(func() error {
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	if cerr := m.closeDB(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	m.obs.LogInfo("monitor_stopped")
	return err
}

// Shutdown stops a running Monitor and waits for it to drain, or for ctx to expire.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel == nil {
		return m.closeDB()
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) closeDB() error {
	m.mu.Lock()
	db := m.db
	m.db = nil
	m.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.Close()
}
