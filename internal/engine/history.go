package engine

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
)

type StatusFilter string

const (
	StatusAll    StatusFilter = "all"
	StatusNormal StatusFilter = "normal"
	StatusFault  StatusFilter = "fault"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

var (
	ErrInvalidStatus    = errors.New("invalid status filter")
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidDirection = errors.New("invalid sort direction")
)

var sortableFields = []string{
	domain.FieldTimestamp,
	domain.FieldMachineID,
	domain.FieldTemperature,
	domain.FieldVibration,
	domain.FieldRPMDev,
	domain.FieldCurrentDelta,
	domain.FieldPrediction,
}

// HistoryQuery is the per-request browsing state. Zero values fall back to
// status "all", field "timestamp", direction "desc".
type HistoryQuery struct {
	Status    StatusFilter
	SortField string
	Direction SortDirection
}

func (q HistoryQuery) withDefaults() HistoryQuery {
	if q.Status == "" {
		q.Status = StatusAll
	}
	if q.SortField == "" {
		q.SortField = domain.FieldTimestamp
	}
	if q.Direction == "" {
		q.Direction = SortDesc
	}
	return q
}

func (q HistoryQuery) Validate() error {
	q = q.withDefaults()
	switch q.Status {
	case StatusAll, StatusNormal, StatusFault:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, q.Status)
	}
	if !slices.Contains(sortableFields, q.SortField) {
		return fmt.Errorf("%w: %q", ErrInvalidSortField, q.SortField)
	}
	switch q.Direction {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, q.Direction)
	}
	return nil
}

// FilterStatus returns a new slice holding the records matching the filter.
func FilterStatus(records []domain.Record, status StatusFilter) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		switch status {
		case StatusNormal:
			if r.Prediction != domain.PredictionNormal {
				continue
			}
		case StatusFault:
			if r.Prediction != domain.PredictionFault {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Query filters and stably sorts a copy of records. The input is not modified.
func Query(records []domain.Record, q HistoryQuery) ([]domain.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q = q.withDefaults()

	out := FilterStatus(records, q.Status)
	sign := 1
	if q.Direction == SortDesc {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b domain.Record) int {
		return sign * compareField(a, b, q.SortField)
	})
	return out, nil
}

func compareField(a, b domain.Record, field string) int {
	switch field {
	case domain.FieldTimestamp:
		return a.Timestamp.Compare(b.Timestamp)
	case domain.FieldMachineID:
		return compareMachineID(a.MachineID, b.MachineID)
	case domain.FieldPrediction:
		return cmp.Compare(a.Prediction, b.Prediction)
	}
	av, _ := a.SensorValue(field)
	bv, _ := b.SensorValue(field)
	return cmp.Compare(av, bv)
}

// compareMachineID orders numeric ids numerically and anything else as text.
func compareMachineID(a, b string) int {
	af, aErr := strconv.ParseFloat(a, 64)
	bf, bErr := strconv.ParseFloat(b, 64)
	if aErr == nil && bErr == nil {
		return cmp.Compare(af, bf)
	}
	return strings.Compare(a, b)
}

// SortState is the interactive sort selection kept by a caller between requests.
type SortState struct {
	Field     string
	Direction SortDirection
}

func DefaultSortState() SortState {
	return SortState{Field: domain.FieldTimestamp, Direction: SortDesc}
}

// Toggle flips the direction when field is already selected, otherwise selects
// field ascending.
func (s SortState) Toggle(field string) SortState {
	if s.Field == field {
		if s.Direction == SortAsc {
			s.Direction = SortDesc
		} else {
			s.Direction = SortAsc
		}
		return s
	}
	return SortState{Field: field, Direction: SortAsc}
}

func (s SortState) Query(status StatusFilter) HistoryQuery {
	return HistoryQuery{Status: status, SortField: s.Field, Direction: s.Direction}
}

// PageCount is ceil(total/limit), never less than 1.
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}
