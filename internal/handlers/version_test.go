package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"media-compressor/internal/startup"
)

func TestGetVersion(t *testing.T) {
	h := New(&mockCompressor{}, nil, "")

	w := httptest.NewRecorder()
	h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var info startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info != startup.GetBuildInfo() {
		t.Errorf("version = %+v, want %+v", info, startup.GetBuildInfo())
	}
}
