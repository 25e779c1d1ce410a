package domain

import "time"

// FleetSummary holds the dashboard counters computed over one batch.
//
// FaultyMachines is min(ActiveAlerts, TotalMachines). It caps the faulty count for
// display and is not a per-machine dedup: several faulty samples from one machine can
// hide another machine's fault, or count a machine that also reported normal samples.
type FleetSummary struct {
	TotalMachines   int `json:"total_machines"`
	HealthyMachines int `json:"healthy_machines"`
	FaultyMachines  int `json:"faulty_machines"`
	ActiveAlerts    int `json:"active_alerts"`
}

// HealthShare is the healthy/faulty split of a summary in percent.
type HealthShare struct {
	HealthyPct float64 `json:"healthy_pct"`
	FaultyPct  float64 `json:"faulty_pct"`
}

// Alert is a faulty record ranked by severity and recency.
type Alert struct {
	Record          Record          `json:"record"`
	Severity        Severity        `json:"severity"`
	Age             string          `json:"age"`
	AboveNormal     map[string]bool `json:"above_normal"`
	Recommendations []string        `json:"recommendations"`
}

// SeverityCounts is the histogram of alert severities.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	default:
		c.Low++
	}
}

// AlertReport is the alert view: faulty records newest first plus the histogram.
type AlertReport struct {
	Alerts []Alert        `json:"alerts"`
	Counts SeverityCounts `json:"counts"`
}

// RecentPrediction is a dashboard row.
type RecentPrediction struct {
	Record Record `json:"record"`
	Status string `json:"status"`
}

// Snapshot is the result of one successful refresh.
type Snapshot struct {
	ID        string             `json:"id"`
	FetchedAt time.Time          `json:"fetched_at"`
	Batch     Batch              `json:"-"`
	Rejected  int                `json:"rejected"`
	Summary   FleetSummary       `json:"summary"`
	Share     HealthShare        `json:"share"`
	Alerts    AlertReport        `json:"alerts"`
	Recent    []RecentPrediction `json:"recent"`
}
