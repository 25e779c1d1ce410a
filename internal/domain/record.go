package domain

import "time"

// Record is one sensor sample for one machine at one instant, together with the
// fault prediction computed upstream. Records are read-only once decoded.
type Record struct {
	MachineID    string    `json:"machine_id"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  float64   `json:"temperature"`
	Vibration    float64   `json:"vibration"`
	RPMDev       float64   `json:"rpm_dev"`
	CurrentDelta float64   `json:"current_delta"`
	Prediction   int       `json:"prediction"`
}

const (
	PredictionNormal = 0
	PredictionFault  = 1
)

// Faulty reports whether the upstream model flagged the sample.
func (r Record) Faulty() bool { return r.Prediction == PredictionFault }

// Status renders the prediction as the operator-facing label.
func (r Record) Status() string {
	if r.Faulty() {
		return "Fault"
	}
	return "Normal"
}

// Field names as exposed on the wire; also the accepted history sort keys.
const (
	FieldMachineID    = "machine_id"
	FieldTimestamp    = "timestamp"
	FieldTemperature  = "temperature"
	FieldVibration    = "vibration"
	FieldRPMDev       = "rpm_dev"
	FieldCurrentDelta = "current_delta"
	FieldPrediction   = "prediction"
)

// SensorFields lists the four numeric sensor readings in display order.
var SensorFields = []string{FieldTemperature, FieldVibration, FieldRPMDev, FieldCurrentDelta}

// SensorValue returns the reading for one of SensorFields.
func (r Record) SensorValue(field string) (float64, bool) {
	switch field {
	case FieldTemperature:
		return r.Temperature, true
	case FieldVibration:
		return r.Vibration, true
	case FieldRPMDev:
		return r.RPMDev, true
	case FieldCurrentDelta:
		return r.CurrentDelta, true
	}
	return 0, false
}

// Batch is one fetched page of telemetry, treated as an immutable snapshot.
type Batch struct {
	Records []Record
	Total   int
	Page    int
	Limit   int
	// Rejected counts upstream rows dropped during decoding.
	Rejected int
}
