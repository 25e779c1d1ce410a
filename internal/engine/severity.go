package engine

import (
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// threshold is a two-tier exclusive lower bound for one sensor field.
// A reading above warn scores 1, above crit scores 2.
type threshold struct {
	field string
	warn  float64
	crit  float64
}

var thresholds = []threshold{
	{field: domain.FieldTemperature, warn: 70, crit: 80},
	{field: domain.FieldVibration, warn: 3, crit: 5},
	{field: domain.FieldRPMDev, warn: 100, crit: 200},
	{field: domain.FieldCurrentDelta, warn: 2, crit: 3},
}

// Score sums the per-field threshold points of a record (0..8).
func Score(r domain.Record) int {
	score := 0
	for _, t := range thresholds {
		v, _ := r.SensorValue(t.field)
		switch {
		case v > t.crit:
			score += 2
		case v > t.warn:
			score++
		}
	}
	return score
}

// SeverityForScore maps a threshold score onto the severity ladder.
func SeverityForScore(score int) domain.Severity {
	switch {
	case score >= 5:
		return domain.SeverityCritical
	case score >= 3:
		return domain.SeverityHigh
	case score >= 1:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// Classify derives the severity of a record from its four sensor readings.
// The prediction flag and machine id are not consulted.
func Classify(r domain.Record) domain.Severity {
	return SeverityForScore(Score(r))
}

// AboveNormal flags every sensor field whose reading exceeds its first tier.
func AboveNormal(r domain.Record) map[string]bool {
	out := make(map[string]bool, len(thresholds))
	for _, t := range thresholds {
		v, _ := r.SensorValue(t.field)
		out[t.field] = v > t.warn
	}
	return out
}

// ThresholdClassifier is the default ports.Classifier.
type ThresholdClassifier struct{}

func (ThresholdClassifier) Classify(r domain.Record) domain.Severity { return Classify(r) }

var _ ports.Classifier = ThresholdClassifier{}
