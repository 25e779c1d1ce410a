package engine

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

// Aggregate reduces a full, unfiltered batch into fleet counters.
func Aggregate(records []domain.Record) domain.FleetSummary {
	machines := make(map[string]struct{}, len(records))
	alerts := 0
	for _, r := range records {
		machines[r.MachineID] = struct{}{}
		if r.Faulty() {
			alerts++
		}
	}

	total := len(machines)
	faulty := min(alerts, total)
	return domain.FleetSummary{
		TotalMachines:   total,
		HealthyMachines: total - faulty,
		FaultyMachines:  faulty,
		ActiveAlerts:    alerts,
	}
}

// Share converts a summary into healthy/faulty percentages.
func Share(s domain.FleetSummary) domain.HealthShare {
	total := s.HealthyMachines + s.FaultyMachines
	if total == 0 {
		return domain.HealthShare{}
	}
	return domain.HealthShare{
		HealthyPct: float64(s.HealthyMachines) / float64(total) * 100,
		FaultyPct:  float64(s.FaultyMachines) / float64(total) * 100,
	}
}

// Recent returns the first n rows of the batch with their status label.
func Recent(records []domain.Record, n int) []domain.RecentPrediction {
	if n < 0 {
		n = 0
	}
	n = min(n, len(records))
	out := make([]domain.RecentPrediction, 0, n)
	for _, r := range records[:n] {
		out = append(out, domain.RecentPrediction{Record: r, Status: r.Status()})
	}
	return out
}

var baseRecommendations = []string{
	"Schedule immediate maintenance inspection",
	"Monitor machine continuously for further anomalies",
	"Review operational logs for root cause analysis",
}

// Recommendations lists operator actions for an alert of the given severity.
func Recommendations(s domain.Severity) []string {
	out := slices.Clone(baseRecommendations)
	if s == domain.SeverityCritical {
		out = append(out, "Consider emergency shutdown if conditions worsen")
	}
	return out
}

// BuildAlerts keeps the faulty records, orders them newest first, classifies each and
// counts the severities of exactly that set. A nil classifier uses Classify.
func BuildAlerts(records []domain.Record, cls ports.Classifier, now time.Time) domain.AlertReport {
	if cls == nil {
		cls = ThresholdClassifier{}
	}

	faulty := FilterStatus(records, StatusFault)
	slices.SortStableFunc(faulty, func(a, b domain.Record) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})

	report := domain.AlertReport{Alerts: make([]domain.Alert, 0, len(faulty))}
	for _, r := range faulty {
		sev := cls.Classify(r)
		report.Counts.Add(sev)
		report.Alerts = append(report.Alerts, domain.Alert{
			Record:          r,
			Severity:        sev,
			Age:             AgeLabel(now.Sub(r.Timestamp)),
			AboveNormal:     AboveNormal(r),
			Recommendations: Recommendations(sev),
		})
	}
	return report
}

// AgeLabel renders elapsed time in whole seconds, minutes, hours or days.
// Negative durations (clock skew) read as "0 seconds ago".
func AgeLabel(elapsed time.Duration) string {
	seconds := int64(elapsed / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d minutes ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d hours ago", seconds/3600)
	default:
		return fmt.Sprintf("%d days ago", seconds/86400)
	}
}
