package handlers

import (
	"context"
	"time"

	"media-compressor/internal/compressor"
	"media-compressor/internal/history"
	"media-compressor/internal/metrics"
	"media-compressor/internal/queue"
)

// Compressor is the orchestrator surface the handlers drive.
type Compressor interface {
	Start(options []string) error
	Stop() error
	Progress() compressor.Progress
	Queue() []queue.Item
	State() compressor.RunState
	Browse() (compressor.Listing, error)
	Move(dir string) (string, error)
	GetStats() metrics.Stats
}

// HistoryReader lists past runs. A nil *history.Store satisfies it.
type HistoryReader interface {
	ListRuns(ctx context.Context, limit int) ([]history.Run, error)
	GetRun(ctx context.Context, id int64) (*history.Run, error)
}

// Handlers holds the dependencies of the HTTP API.
type Handlers struct {
	compressor Compressor
	history    HistoryReader
	ledgerPath string
	startTime  time.Time
}

// New returns handlers serving c. hist may be nil when run history is
// disabled.
func New(c Compressor, hist HistoryReader, ledgerPath string) *Handlers {
	return &Handlers{
		compressor: c,
		history:    hist,
		ledgerPath: ledgerPath,
		startTime:  time.Now(),
	}
}
