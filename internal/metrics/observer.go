package metrics

import "media-compressor/internal/filesystem"

// NewFilesystemObserver returns an observer that feeds filesystem events
// into the media_compressor_filesystem_* metrics.
func NewFilesystemObserver() filesystem.Observer {
	return filesystem.ObserverFunc(observeFilesystem)
}

func observeFilesystem(e filesystem.Event) {
	switch e.Kind {
	case filesystem.EventAttempt:
		FilesystemOperationDuration.WithLabelValues(e.Volume, e.Operation).Observe(e.Duration.Seconds())
		if e.Err != nil {
			FilesystemOperationErrors.WithLabelValues(e.Volume, e.Operation).Inc()
		}
	case filesystem.EventStale:
		FilesystemStaleErrors.WithLabelValues(e.Operation, e.Volume).Inc()
	case filesystem.EventRetry:
		FilesystemRetryAttempts.WithLabelValues(e.Operation, e.Volume).Inc()
	case filesystem.EventRecovered:
		FilesystemRetrySuccess.WithLabelValues(e.Operation, e.Volume).Inc()
	case filesystem.EventExhausted:
		FilesystemRetryFailures.WithLabelValues(e.Operation, e.Volume).Inc()
	case filesystem.EventDone:
		FilesystemRetryDuration.WithLabelValues(e.Operation, e.Volume).Observe(e.Duration.Seconds())
	}
}
