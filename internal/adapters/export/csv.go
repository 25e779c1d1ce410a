package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
)

// TimestampLayout matches ISO 8601 with millisecond precision in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var Header = []string{
	"Timestamp",
	"Machine ID",
	"Temperature",
	"Vibration",
	"RPM Deviation",
	"Current Delta",
	"Prediction",
	"Status",
}

// WriteCSV renders records in the given order, one row each, after the header.
func WriteCSV(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.UTC().Format(TimestampLayout),
			r.MachineID,
			formatFloat(r.Temperature),
			formatFloat(r.Vibration),
			formatFloat(r.RPMDev),
			formatFloat(r.CurrentDelta),
			strconv.Itoa(r.Prediction),
			r.Status(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the output of WriteCSV back into records.
func ReadCSV(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("unexpected header %v", head)
	}

	var out []domain.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRow(row []string) (domain.Record, error) {
	ts, err := time.Parse(TimestampLayout, row[0])
	if err != nil {
		return domain.Record{}, fmt.Errorf("timestamp: %w", err)
	}
	nums := make([]float64, 4)
	for i := range nums {
		v, err := strconv.ParseFloat(row[2+i], 64)
		if err != nil {
			return domain.Record{}, fmt.Errorf("%s: %w", Header[2+i], err)
		}
		nums[i] = v
	}
	pred, err := strconv.Atoi(row[6])
	if err != nil {
		return domain.Record{}, fmt.Errorf("prediction: %w", err)
	}
	return domain.Record{
		MachineID:    row[1],
		Timestamp:    ts,
		Temperature:  nums[0],
		Vibration:    nums[1],
		RPMDev:       nums[2],
		CurrentDelta: nums[3],
		Prediction:   pred,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
