package predpost

import (
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/engine"
)

// Classify grades a record with the built-in threshold table.
func Classify(r Record) Severity { return engine.Classify(r) }

// Aggregate computes fleet counters over an unfiltered batch.
func Aggregate(records []Record) FleetSummary { return engine.Aggregate(records) }

func BuildAlerts(records []Record, cls Classifier, now time.Time) AlertReport {
	return engine.BuildAlerts(records, cls, now)
}

// Query filters and stably sorts a copy of records.
func Query(records []Record, q HistoryQuery) ([]Record, error) { return engine.Query(records, q) }

func PageCount(total, limit int) int { return engine.PageCount(total, limit) }

// Select builds the chronological series of one machine, or of every machine for MachineAll.
func Select(records []Record, machine string, loc *time.Location) Series {
	return engine.Select(records, machine, loc)
}
