package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
)

const (
	MachineAll            = "all"
	DefaultTimelineWindow = 20
	denseSeriesPoints     = 50
	chartLabelLayout      = "15:04:05"
)

// Point is one chart sample.
type Point struct {
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is the chronological view of one machine (or the whole fleet).
type Series struct {
	records  []domain.Record
	machines []string
	loc      *time.Location
}

// Select sorts a copy of records by timestamp and keeps the rows of machine.
// MachineAll keeps every row. Chart labels are rendered in loc (UTC when nil).
func Select(records []domain.Record, machine string, loc *time.Location) Series {
	if loc == nil {
		loc = time.UTC
	}
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b domain.Record) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	seen := make(map[string]struct{})
	machines := make([]string, 0)
	for _, r := range sorted {
		if _, ok := seen[r.MachineID]; ok {
			continue
		}
		seen[r.MachineID] = struct{}{}
		machines = append(machines, r.MachineID)
	}

	selected := sorted
	if machine != MachineAll {
		selected = make([]domain.Record, 0, len(sorted))
		for _, r := range sorted {
			if r.MachineID == machine {
				selected = append(selected, r)
			}
		}
	}

	return Series{records: selected, machines: machines, loc: loc}
}

// Records returns the selected rows in ascending timestamp order.
func (s Series) Records() []domain.Record { return slices.Clone(s.records) }

// Machines lists the distinct ids of the whole batch in first-seen order.
func (s Series) Machines() []string { return slices.Clone(s.machines) }

func (s Series) Len() int { return len(s.records) }

// Timeline returns the last n selected rows, newest first.
func (s Series) Timeline(n int) []domain.Record {
	if n < 0 {
		n = 0
	}
	start := max(len(s.records)-n, 0)
	out := slices.Clone(s.records[start:])
	slices.Reverse(out)
	return out
}

// Chart returns one point per selected row for a sensor field.
func (s Series) Chart(field string) ([]Point, error) {
	if _, ok := (domain.Record{}).SensorValue(field); !ok {
		return nil, fmt.Errorf("unknown sensor field %q", field)
	}
	out := make([]Point, 0, len(s.records))
	for _, r := range s.records {
		v, _ := r.SensorValue(field)
		out = append(out, Point{
			Label:     r.Timestamp.In(s.loc).Format(chartLabelLayout),
			Timestamp: r.Timestamp,
			Value:     v,
		})
	}
	return out, nil
}

// Charts builds Chart for every sensor field.
func (s Series) Charts() map[string][]Point {
	out := make(map[string][]Point, len(domain.SensorFields))
	for _, f := range domain.SensorFields {
		pts, _ := s.Chart(f)
		out[f] = pts
	}
	return out
}

// PointRadius hides point markers on dense series.
func (s Series) PointRadius() int {
	if len(s.records) > denseSeriesPoints {
		return 0
	}
	return 3
}
