package history

import "time"

// Outcome describes how a run ended.
type Outcome string

const (
	// OutcomeRunning marks a run that has not finished yet (or whose process
	// died before it could be closed).
	OutcomeRunning Outcome = "running"
	// OutcomeCompleted marks a run that worked through its whole queue.
	OutcomeCompleted Outcome = "completed"
	// OutcomeStopped marks a run ended by a stop request or shutdown.
	OutcomeStopped Outcome = "stopped"
)

// Run is one row of the runs table.
type Run struct {
	ID             int64      `json:"id"`
	Root           string     `json:"root"`
	Options        []string   `json:"options"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	Outcome        Outcome    `json:"outcome"`
	TotalFiles     int        `json:"totalFiles"`
	ProcessedFiles int        `json:"processedFiles"`
	Finished       int        `json:"finished"`
	Skipped        int        `json:"skipped"`
	Failed         int        `json:"failed"`
	BytesSaved     int64      `json:"bytesSaved"`
	Items          []ItemRow  `json:"items,omitempty"`
}

// ItemRow is the recorded outcome of one queue item.
type ItemRow struct {
	Path         string    `json:"path"`
	Status       string    `json:"status"`
	SizeBytes    int64     `json:"sizeBytes"`
	NewSizeBytes int64     `json:"newSizeBytes,omitempty"`
	DurationMs   int64     `json:"durationMs"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary is the final tally written when a run ends.
type Summary struct {
	Outcome        Outcome
	TotalFiles     int
	ProcessedFiles int
	Finished       int
	Skipped        int
	Failed         int
	BytesSaved     int64
}
