package compressor

// RunState is the process-wide state of the orchestrator.
type RunState struct {
	IsProcessing           bool    `json:"isProcessing"`
	ShouldStop             bool    `json:"shouldStop"`
	CurrentFile            string  `json:"currentFile"`
	CurrentProgressPercent float64 `json:"currentProgressPercent"`
	TotalFiles             int     `json:"totalFiles"`
	ProcessedFiles         int     `json:"processedFiles"`
	CurrentPath            string  `json:"currentPath"`
}

// Progress is the aggregate progress snapshot served to polling clients.
type Progress struct {
	TotalFiles             int     `json:"totalFiles"`
	ProcessedFiles         int     `json:"processedFiles"`
	CurrentFile            string  `json:"currentFile"`
	CurrentProgressPercent float64 `json:"currentProgressPercent"`
	IsProcessing           bool    `json:"isProcessing"`
}

// Listing is the content of the current browse directory.
type Listing struct {
	Path  string   `json:"path"`
	Files []string `json:"files"`
}

// runTally accumulates per-run outcome counts for metrics and history.
type runTally struct {
	finished   int
	skipped    int
	failed     int
	bytesSaved int64
}
