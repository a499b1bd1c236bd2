package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_compressor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_compressor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Run metrics
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_runs_total",
			Help: "Total number of compression runs by outcome",
		},
		[]string{"outcome"}, // "completed", "stopped"
	)

	RunActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_compressor_run_active",
			Help: "Whether a compression run is in progress (1 = running, 0 = idle)",
		},
	)

	RunLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_compressor_run_last_duration_seconds",
			Help: "Duration of the last compression run in seconds",
		},
	)

	RunLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_compressor_run_last_timestamp",
			Help: "Unix timestamp of the last compression run completion",
		},
	)

	QueueItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_compressor_queue_items",
			Help: "Number of items in the current queue by status",
		},
		[]string{"status"},
	)

	CurrentProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_compressor_current_progress_percent",
			Help: "Progress of the file currently being compressed",
		},
	)
)

// Item metrics
var (
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_items_total",
			Help: "Total number of queue items by terminal status",
		},
		[]string{"status"}, // "finished", "skipped", "failed"
	)

	BytesSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_compressor_bytes_saved_total",
			Help: "Total bytes reclaimed by replacing originals with smaller outputs",
		},
	)

	DiscoveryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_compressor_discovery_errors_total",
			Help: "Total number of entries skipped during discovery",
		},
	)

	DiscoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_compressor_discovery_duration_seconds",
			Help:    "Duration of queue building (walk + classification) in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_transcoder_jobs_total",
			Help: "Total number of transcoding jobs",
		},
		[]string{"status"}, // "success", "error", "killed"
	)

	TranscoderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_compressor_transcoder_job_duration_seconds",
			Help:    "Transcoding job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_compressor_transcoder_jobs_in_progress",
			Help: "Number of transcoding jobs currently in progress",
		},
	)

	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_probes_total",
			Help: "Total number of ffprobe invocations",
		},
		[]string{"status"},
	)
)

// Ledger metrics
var (
	LedgerEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_compressor_ledger_entries",
			Help: "Number of paths recorded as compressed",
		},
	)

	LedgerWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_compressor_ledger_write_errors_total",
			Help: "Total number of failed ledger persists",
		},
	)
)

// History database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_db_queries_total",
			Help: "Total number of history database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_compressor_db_query_duration_seconds",
			Help:    "History database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_compressor_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_filesystem_retry_attempts_total",
			Help: "Total number of retries after NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_filesystem_retry_success_total",
			Help: "Total number of operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_filesystem_retry_failures_total",
			Help: "Total number of operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_compressor_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_compressor_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_compressor_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
