package sensorapi

import (
	"math"
	"strconv"
	"strings"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// PredictForm is the raw operator input for a prediction request.
type PredictForm struct {
	Temperature  string `json:"temperature"`
	Vibration    string `json:"vibration"`
	RPMDev       string `json:"rpm_dev"`
	CurrentDelta string `json:"current_delta"`
}

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range domain.SensorFields {
		if msg, ok := e.Fields[f]; ok {
			msgs = append(msgs, msg)
		}
	}
	return strings.Join(msgs, "; ")
}

var fieldLabels = map[string]string{
	domain.FieldTemperature:  "Temperature",
	domain.FieldVibration:    "Vibration",
	domain.FieldRPMDev:       "RPM Deviation",
	domain.FieldCurrentDelta: "Current Delta",
}

// Parse validates every field and converts the form into a request. Submission must
// not happen while the returned error is non-nil.
func (f PredictForm) Parse() (ports.PredictRequest, error) {
	raw := map[string]string{
		domain.FieldTemperature:  f.Temperature,
		domain.FieldVibration:    f.Vibration,
		domain.FieldRPMDev:       f.RPMDev,
		domain.FieldCurrentDelta: f.CurrentDelta,
	}

	values := make(map[string]float64, len(raw))
	errs := make(map[string]string)
	for field, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			errs[field] = fieldLabels[field] + " is required"
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			errs[field] = fieldLabels[field] + " must be a number"
			continue
		}
		values[field] = v
	}
	if len(errs) > 0 {
		return ports.PredictRequest{}, &ValidationError{Fields: errs}
	}

	return ports.PredictRequest{
		Temperature:  values[domain.FieldTemperature],
		Vibration:    values[domain.FieldVibration],
		RPMDev:       values[domain.FieldRPMDev],
		CurrentDelta: values[domain.FieldCurrentDelta],
	}, nil
}
