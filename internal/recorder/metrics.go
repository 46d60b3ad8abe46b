package recorder

import "expvar"

var (
	metricEventsQueuedTotal      = expvar.NewInt("forge_recorder_events_queued_total")
	metricEventsDroppedTotal     = expvar.NewInt("forge_recorder_events_dropped_total")
	metricEventsWrittenTotal     = expvar.NewInt("forge_recorder_events_written_total")
	metricRequestsProjectedTotal = expvar.NewInt("forge_recorder_requests_projected_total")
	metricWriteErrorsTotal       = expvar.NewInt("forge_recorder_write_errors_total")
	metricSnapshotsTotal         = expvar.NewInt("forge_recorder_snapshots_total")
	metricSnapshotErrorsTotal    = expvar.NewInt("forge_recorder_snapshot_errors_total")
	metricRecorderQueueLen       = expvar.NewInt("forge_recorder_queue_len")
)
