package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// PromObs records metrics in the default Prometheus registry and writes
// structured logs through slog.
type PromObs struct {
	log      *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(logger *slog.Logger) *PromObs {
	if logger == nil {
		logger = slog.Default()
	}

	refreshes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricRefreshTotal,
		Help: "Refresh cycles that produced a new snapshot.",
	})
	refreshFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricRefreshFailures,
		Help: "Refresh cycles that kept the previous snapshot because the upstream call failed.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricRecordsRejected,
		Help: "Upstream rows dropped because a required field was missing or malformed.",
	})
	written := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricJournalWritten,
		Help: "Alerts written to the journal sink.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricJournalDropped,
		Help: "Alerts lost due to journal queue backpressure or sink failures.",
	})
	machines := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricFleetMachines,
		Help: "Distinct machines in the latest snapshot.",
	})
	faulty := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricFleetFaultyMachines,
		Help: "Faulty machines in the latest snapshot (capped at the machine count).",
	})
	alerts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricActiveAlerts,
		Help: "Faulty samples in the latest snapshot.",
	})
	queueLen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricJournalQueueLength,
		Help: "Alerts buffered for the journal sink.",
	})
	fetch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricUpstreamFetchSeconds,
		Help:    "Latency of upstream telemetry page fetches.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})
	journal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricJournalWriteSeconds,
		Help:    "Latency of journal batch writes.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	prometheus.MustRegister(refreshes, refreshFailures, rejected, written, dropped,
		machines, faulty, alerts, queueLen, fetch, journal)

	return &PromObs{
		log: logger,
		counters: map[string]prometheus.Counter{
			ports.MetricRefreshTotal:    refreshes,
			ports.MetricRefreshFailures: refreshFailures,
			ports.MetricRecordsRejected: rejected,
			ports.MetricJournalWritten:  written,
			ports.MetricJournalDropped:  dropped,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricFleetMachines:       machines,
			ports.MetricFleetFaultyMachines: faulty,
			ports.MetricActiveAlerts:        alerts,
			ports.MetricJournalQueueLength:  queueLen,
		},
		histos: map[string]prometheus.Observer{
			ports.MetricUpstreamFetchSeconds: fetch,
			ports.MetricJournalWriteSeconds:  journal,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(fields), slog.Any("err", err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(fields), slog.Any("err", err), slog.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDrop(a *domain.Alert, err error) {
	p.IncCounter(ports.MetricJournalDropped, 1)
	if a != nil {
		p.log.Warn("journal_alert_dropped",
			slog.String("machine_id", a.Record.MachineID),
			slog.Time("ts", a.Record.Timestamp),
			slog.Any("err", err))
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields)+2)
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
