package ports

// Metric names understood by Observability implementations.
const (
	MetricRefreshTotal         = "predpost_refresh_total"
	MetricRefreshFailures      = "predpost_refresh_failures_total"
	MetricRecordsRejected      = "predpost_records_rejected_total"
	MetricJournalWritten       = "predpost_journal_written_total"
	MetricJournalDropped       = "predpost_journal_dropped_total"
	MetricFleetMachines        = "predpost_fleet_machines"
	MetricFleetFaultyMachines  = "predpost_fleet_faulty_machines"
	MetricActiveAlerts         = "predpost_active_alerts"
	MetricJournalQueueLength   = "predpost_journal_queue_length"
	MetricUpstreamFetchSeconds = "predpost_upstream_fetch_seconds"
	MetricJournalWriteSeconds  = "predpost_journal_write_seconds"
)
