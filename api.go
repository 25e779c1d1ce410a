package predpost

import (
	"context"
	"time"

	base "github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/pkg/predpost"
)

// Re-exported errors for convenience.
var (
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard directly.
type (
	Config           = base.Config
	Policy           = base.Policy
	UpstreamConfig   = base.UpstreamConfig
	RefreshConfig    = base.RefreshConfig
	ViewsConfig      = base.ViewsConfig
	ServerConfig     = base.ServerConfig
	MetricsConfig    = base.MetricsConfig
	JournalConfig    = base.JournalConfig
	LogConfig        = base.LogConfig
	Monitor          = base.Monitor
	MonitorOption    = base.MonitorOption
	Record           = base.Record
	Batch            = base.Batch
	Severity         = base.Severity
	Alert            = base.Alert
	AlertReport      = base.AlertReport
	SeverityCounts   = base.SeverityCounts
	FleetSummary     = base.FleetSummary
	HealthShare      = base.HealthShare
	RecentPrediction = base.RecentPrediction
	Snapshot         = base.Snapshot
	TelemetrySource  = base.TelemetrySource
	Predictor        = base.Predictor
	PredictRequest   = base.PredictRequest
	PredictResult    = base.PredictResult
	Classifier       = base.Classifier
	ClassifierFunc   = base.ClassifierFunc
	JournalSink      = base.JournalSink
	AlertQueue       = base.AlertQueue
	AlertBatchFunc   = base.AlertBatchFunc
	Observability    = base.Observability
	Field            = base.Field
	HistoryQuery     = base.HistoryQuery
	StatusFilter     = base.StatusFilter
	SortDirection    = base.SortDirection
	SortState        = base.SortState
	Series           = base.Series
	Point            = base.Point
)

const (
	SeverityLow      = base.SeverityLow
	SeverityMedium   = base.SeverityMedium
	SeverityHigh     = base.SeverityHigh
	SeverityCritical = base.SeverityCritical
	StatusAll        = base.StatusAll
	StatusNormal     = base.StatusNormal
	StatusFault      = base.StatusFault
	SortAsc          = base.SortAsc
	SortDesc         = base.SortDesc
	MachineAll       = base.MachineAll
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Monitor and options.
func NewMonitor(cfg *Config, opts ...MonitorOption) (*Monitor, error) {
	return base.NewMonitor(cfg, opts...)
}

func Conf(path string, opts ...MonitorOption) (*Monitor, error) {
	return base.Conf(path, opts...)
}

func WithSource(src TelemetrySource) MonitorOption {
	return base.WithSource(src)
}

func WithPredictor(p Predictor) MonitorOption {
	return base.WithPredictor(p)
}

func WithJournalSink(s JournalSink) MonitorOption {
	return base.WithJournalSink(s)
}

func WithAlertQueue(q AlertQueue) MonitorOption {
	return base.WithAlertQueue(q)
}

func WithObservability(obs Observability) MonitorOption {
	return base.WithObservability(obs)
}

func WithClassifier(c Classifier) MonitorOption {
	return base.WithClassifier(c)
}

func WithClock(now func() time.Time) MonitorOption {
	return base.WithClock(now)
}

// Journal sink adapters.
func NewCallbackSink(name string, fn AlertBatchFunc) JournalSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (JournalSink, <-chan []Alert, func()) {
	return base.NewChannelSink(name, buffer)
}

// Engine.
func Classify(r Record) Severity {
	return base.Classify(r)
}

func Aggregate(records []Record) FleetSummary {
	return base.Aggregate(records)
}

func BuildAlerts(records []Record, cls Classifier, now time.Time) AlertReport {
	return base.BuildAlerts(records, cls, now)
}

func Query(records []Record, q HistoryQuery) ([]Record, error) {
	return base.Query(records, q)
}

func PageCount(total, limit int) int {
	return base.PageCount(total, limit)
}

func Select(records []Record, machine string, loc *time.Location) Series {
	return base.Select(records, machine, loc)
}

// Run loads the config at path and blocks until ctx is cancelled.
func Run(ctx context.Context, path string, opts ...MonitorOption) error {
	m, err := base.Conf(path, opts...)
	if err != nil {
		return err
	}
	return m.Run(ctx)
}
