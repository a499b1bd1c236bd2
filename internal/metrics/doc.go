// Package metrics provides Prometheus instrumentation for the media compressor.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "media_compressor_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Run Metrics
//
//   - RunsTotal: Counter of runs by outcome (completed/stopped)
//   - RunActive: Gauge indicating if a run is in progress
//   - RunLastDuration, RunLastTimestamp: Gauges describing the last run
//   - QueueItems: Gauge of queue items by status
//   - CurrentProgress: Gauge of the active file's progress percent
//
// ## Item Metrics
//
//   - ItemsTotal: Counter of item outcomes (finished/skipped/failed)
//   - BytesSavedTotal: Counter of bytes reclaimed by replacements
//   - DiscoveryErrors: Counter of entries skipped while walking
//   - DiscoveryDuration: Histogram of queue build time
//
// ## Transcoder Metrics
//
//   - TranscoderJobsTotal: Counter by status (success/error/killed)
//   - TranscoderJobDuration: Histogram of job duration
//   - TranscoderJobsInProgress: Gauge of active jobs
//   - ProbesTotal: Counter of ffprobe invocations by status
//
// ## Ledger and History Metrics
//
//   - LedgerEntries: Gauge of recorded paths
//   - LedgerWriteErrors: Counter of failed ledger persists
//   - DBQueryTotal, DBQueryDuration: history database query metrics
//
// ## Filesystem Metrics
//
// NFS retry behaviour recorded through [NewFilesystemObserver]; see the
// filesystem package.
//
// # Collector
//
// [Collector] periodically reads a [StatsProvider] (the orchestrator) and
// refreshes the ledger and queue gauges:
//
//	collector := metrics.NewCollector(orchestrator, 15*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Space reclaimed per hour:
//
//	increase(media_compressor_bytes_saved_total[1h])
//
// Failure ratio of compressed items:
//
//	rate(media_compressor_items_total{status="failed"}[1h]) /
//	sum(rate(media_compressor_items_total[1h]))
package metrics
