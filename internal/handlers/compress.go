package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"media-compressor/internal/compressor"
	"media-compressor/internal/history"
	"media-compressor/internal/logging"
	"media-compressor/internal/queue"

	"github.com/gorilla/mux"
)

// Response messages kept compatible with the existing web UI.
const (
	msgStarted        = "Started processing videos"
	msgAlreadyRunning = "Already processing videos"
	msgStopping       = "Stopping processing videos"
)

// BrowseRequest is the body of POST /api/browse.
type BrowseRequest struct {
	Type string `json:"type"`
	Dir  string `json:"dir"`
}

// CompressRequest is the body of POST /api/compress.
type CompressRequest struct {
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

// legacyStartRequest is the body of POST /api/ffmpeg/start.
type legacyStartRequest struct {
	FFmpegOptions []string `json:"ffmpegOptions"`
}

// Browse lists or changes the current directory.
// POST /api/browse
func (h *Handlers) Browse(w http.ResponseWriter, r *http.Request) {
	var req BrowseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Type {
	case "read":
		listing, err := h.compressor.Browse()
		if err != nil {
			logging.Warn("Failed to read directory: %v", err)
			writeText(w, http.StatusInternalServerError, "Failed to read directory")
			return
		}
		if listing.Files == nil {
			listing.Files = []string{}
		}
		writeJSONStatus(w, http.StatusOK, listing)

	case "move":
		if req.Dir == "" {
			writeText(w, http.StatusBadRequest, "dir is required")
			return
		}
		path, err := h.compressor.Move(req.Dir)
		switch {
		case errors.Is(err, compressor.ErrBusy):
			writeText(w, http.StatusConflict, err.Error())
		case errors.Is(err, compressor.ErrOutsideRoot):
			writeText(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, compressor.ErrNotDirectory):
			writeText(w, http.StatusNotFound, err.Error())
		case err != nil:
			logging.Warn("Failed to change directory: %v", err)
			writeText(w, http.StatusInternalServerError, "Failed to change directory")
		default:
			writeText(w, http.StatusOK, path)
		}

	default:
		writeText(w, http.StatusBadRequest, "Unknown browse type: "+strconv.Quote(req.Type))
	}
}

// Compress starts or stops a compression run.
// POST /api/compress
func (h *Handlers) Compress(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Type {
	case "start":
		h.start(w, req.Options)
	case "stop":
		h.stop(w)
	default:
		writeText(w, http.StatusBadRequest, "Unknown compress type: "+strconv.Quote(req.Type))
	}
}

// LegacyStart accepts the original start request shape.
// POST /api/ffmpeg/start
func (h *Handlers) LegacyStart(w http.ResponseWriter, r *http.Request) {
	var req legacyStartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.start(w, req.FFmpegOptions)
}

// LegacyStop stops the current run.
// POST /api/ffmpeg/stop
func (h *Handlers) LegacyStop(w http.ResponseWriter, _ *http.Request) {
	h.stop(w)
}

func (h *Handlers) start(w http.ResponseWriter, options []string) {
	err := h.compressor.Start(options)
	switch {
	case errors.Is(err, compressor.ErrAlreadyRunning):
		writeText(w, http.StatusConflict, msgAlreadyRunning)
	case errors.Is(err, compressor.ErrClosed):
		writeText(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		logging.Error("Failed to start compression: %v", err)
		writeText(w, http.StatusInternalServerError, "Failed to start processing videos")
	default:
		writeText(w, http.StatusAccepted, msgStarted)
	}
}

func (h *Handlers) stop(w http.ResponseWriter) {
	if err := h.compressor.Stop(); err != nil {
		// the kill was sent; the loop is still unwinding
		logging.Warn("Stop request: %v", err)
	}
	writeText(w, http.StatusOK, msgStopping)
}

// GetProgress returns the aggregate progress of the current run.
// GET /api/progress
func (h *Handlers) GetProgress(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, h.compressor.Progress())
}

// GetQueue returns the queue in processing order.
// GET /api/queue
func (h *Handlers) GetQueue(w http.ResponseWriter, _ *http.Request) {
	items := h.compressor.Queue()
	if items == nil {
		items = []queue.Item{}
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, items)
}

// GetState returns the full run state including the current directory.
// GET /api/state
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, h.compressor.State())
}

// ListHistory returns recent runs, newest first.
// GET /api/history?limit=N
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSONStatus(w, http.StatusOK, []history.Run{})
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeText(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.history.ListRuns(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to list run history: %v", err)
		writeText(w, http.StatusInternalServerError, "Failed to list run history")
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSONStatus(w, http.StatusOK, runs)
}

// GetHistoryRun returns one run with its item outcomes.
// GET /api/history/{id}
func (h *Handlers) GetHistoryRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid run id")
		return
	}
	if h.history == nil {
		writeText(w, http.StatusNotFound, "Run history is disabled")
		return
	}

	run, err := h.history.GetRun(r.Context(), id)
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeText(w, http.StatusNotFound, "Run not found")
	case err != nil:
		logging.Error("Failed to load run %d: %v", id, err)
		writeText(w, http.StatusInternalServerError, "Failed to load run")
	default:
		writeJSONStatus(w, http.StatusOK, run)
	}
}
