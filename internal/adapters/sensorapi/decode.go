package sensorapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
)

var errMissingField = errors.New("missing required field")

// number accepts a JSON number or a numeric string.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return err
		}
		raw = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a finite number: %s", b)
	}
	*n = number(f)
	return nil
}

// identifier accepts a JSON string or number and keeps its text form.
type identifier string

func (id *identifier) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*id = identifier(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("machine_id must be a string or number: %s", b)
	}
	*id = identifier(n.String())
	return nil
}

type wireRecord struct {
	MachineID    *identifier     `json:"machine_id"`
	Timestamp    json.RawMessage `json:"timestamp"`
	Temperature  *number         `json:"temperature"`
	Vibration    *number         `json:"vibration"`
	RPMDev       *number         `json:"rpm_dev"`
	CurrentDelta *number         `json:"current_delta"`
	Prediction   *number         `json:"prediction"`
}

type pageResponse struct {
	Data  []json.RawMessage `json:"data"`
	Total int               `json:"total"`
}

// decodeRecord turns one upstream row into a domain record. Missing or null
// numeric fields are rejected, never defaulted to zero.
func decodeRecord(raw json.RawMessage) (domain.Record, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.Record{}, err
	}

	if w.MachineID == nil || strings.TrimSpace(string(*w.MachineID)) == "" {
		return domain.Record{}, fmt.Errorf("%w: %s", errMissingField, domain.FieldMachineID)
	}
	ts, err := parseTimestamp(w.Timestamp)
	if err != nil {
		return domain.Record{}, err
	}

	numbers := []struct {
		name string
		v    *number
	}{
		{domain.FieldTemperature, w.Temperature},
		{domain.FieldVibration, w.Vibration},
		{domain.FieldRPMDev, w.RPMDev},
		{domain.FieldCurrentDelta, w.CurrentDelta},
		{domain.FieldPrediction, w.Prediction},
	}
	for _, n := range numbers {
		if n.v == nil {
			return domain.Record{}, fmt.Errorf("%w: %s", errMissingField, n.name)
		}
	}

	prediction := float64(*w.Prediction)
	if prediction != domain.PredictionNormal && prediction != domain.PredictionFault {
		return domain.Record{}, fmt.Errorf("prediction must be 0 or 1, got %v", prediction)
	}

	return domain.Record{
		MachineID:    string(*w.MachineID),
		Timestamp:    ts,
		Temperature:  float64(*w.Temperature),
		Vibration:    float64(*w.Vibration),
		RPMDev:       float64(*w.RPMDev),
		CurrentDelta: float64(*w.CurrentDelta),
		Prediction:   int(prediction),
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// parseTimestamp accepts the common ISO 8601 layouts, RFC 1123 strings and
// numeric epoch milliseconds. Zone-less layouts are read as UTC. Instants are
// kept at millisecond precision, the resolution of the CSV export.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return time.Time{}, fmt.Errorf("%w: %s", errMissingField, domain.FieldTimestamp)
	}

	if trimmed[0] != '"' {
		var millis json.Number
		if err := json.Unmarshal(trimmed, &millis); err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %s", trimmed)
		}
		ms, err := millis.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %s", trimmed)
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return time.Time{}, err
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

// decodePage decodes a /sensor-data body. Rows that fail validation are skipped and
// returned as errors alongside the batch.
func decodePage(body []byte) ([]domain.Record, int, []error, error) {
	var page pageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, 0, nil, fmt.Errorf("decode response: %w", err)
	}

	records := make([]domain.Record, 0, len(page.Data))
	var rowErrs []error
	for i, raw := range page.Data {
		r, err := decodeRecord(raw)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		records = append(records, r)
	}
	return records, page.Total, rowErrs, nil
}
