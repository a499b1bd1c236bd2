package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"media-compressor/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Ready         bool   `json:"ready"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	Processing    bool   `json:"processing"`
	CurrentFile   string `json:"currentFile,omitempty"`
	LedgerEntries int    `json:"ledgerEntries"`
	LedgerError   string `json:"ledgerError,omitempty"`

	// Queue counts by item status for the current run
	Queue map[string]int `json:"queue"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// ledgerProblem reports why the ledger document cannot be used, or "" when
// it is present.
func (h *Handlers) ledgerProblem() string {
	if h.ledgerPath == "" {
		return ""
	}
	if _, err := os.Stat(h.ledgerPath); err != nil {
		return err.Error()
	}
	return ""
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.compressor.GetStats()
	progress := h.compressor.Progress()

	response := HealthResponse{
		Status:        statusHealthy,
		Ready:         true,
		Version:       startup.Version,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Processing:    progress.IsProcessing,
		CurrentFile:   progress.CurrentFile,
		LedgerEntries: stats.LedgerEntries,
		Queue:         stats.QueueByStatus,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}
	if response.Queue == nil {
		response.Queue = map[string]int{}
	}

	if problem := h.ledgerProblem(); problem != "" {
		response.Status = statusDegraded
		response.LedgerError = problem
	}

	writeJSONStatus(w, http.StatusOK, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when the ledger document is reachable
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if problem := h.ledgerProblem(); problem != "" {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": problem,
		})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}
