package predpost

import (
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/engine"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// Record is one telemetry sample with the model verdict.
type Record = domain.Record

// Batch is one upstream page.
type Batch = domain.Batch

type Severity = domain.Severity

const (
	SeverityLow      = domain.SeverityLow
	SeverityMedium   = domain.SeverityMedium
	SeverityHigh     = domain.SeverityHigh
	SeverityCritical = domain.SeverityCritical
)

type (
	Alert            = domain.Alert
	AlertReport      = domain.AlertReport
	SeverityCounts   = domain.SeverityCounts
	FleetSummary     = domain.FleetSummary
	HealthShare      = domain.HealthShare
	RecentPrediction = domain.RecentPrediction
	Snapshot         = domain.Snapshot
)

// TelemetrySource fetches pages of records; the default is the HTTP sensor API client.
type TelemetrySource = ports.TelemetrySource

// Predictor submits one sensor tuple to the model.
type Predictor = ports.Predictor

type (
	PredictRequest = ports.PredictRequest
	PredictResult  = ports.PredictResult
)

// Classifier maps a record to a severity. Implementations must be pure.
type Classifier = ports.Classifier

type ClassifierFunc = ports.ClassifierFunc

// JournalSink receives batches of new alerts.
type JournalSink = ports.JournalSink

// AlertQueue is the bounded buffer in front of the journal sink.
type AlertQueue = ports.AlertQueue

// Observability emits metrics and logs about refreshes and the journal.
type Observability = ports.Observability

type Field = ports.Field

type (
	HistoryQuery  = engine.HistoryQuery
	StatusFilter  = engine.StatusFilter
	SortDirection = engine.SortDirection
	SortState     = engine.SortState
	Series        = engine.Series
	Point         = engine.Point
)

const (
	StatusAll    = engine.StatusAll
	StatusNormal = engine.StatusNormal
	StatusFault  = engine.StatusFault
	SortAsc      = engine.SortAsc
	SortDesc     = engine.SortDesc
	MachineAll   = engine.MachineAll
)
