package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range []string{"completed", "stopped"} {
		RunsTotal.WithLabelValues(outcome)
	}

	for _, status := range []string{"finished", "skipped", "failed"} {
		ItemsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"pending", "active", "finished", "skipped", "failed"} {
		QueueItems.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error", "killed"} {
		TranscoderJobsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error"} {
		ProbesTotal.WithLabelValues(status)
	}

	volumes := []string{"media", "ledger", "unknown"}
	fsOps := []string{"stat", "readdir", "rename", "remove"}
	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"initialize_schema", "begin_run", "record_item", "finish_run", "list_runs", "get_run"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
