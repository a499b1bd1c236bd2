package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func withObserver(t *testing.T) *recordingObserver {
	t.Helper()
	original := defaultObserver
	obs := &recordingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(original) })
	return obs
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE error", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT error", syscall.ENOENT, false},
		{"generic error", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"media":  "/mnt/media",
		"ledger": "/mnt/storage",
		"nested": "/mnt/media/archive",
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"media root", "/mnt/media", "media"},
		{"media file", "/mnt/media/shows/a.mkv", "media"},
		{"longest prefix wins", "/mnt/media/archive/b.mp4", "nested"},
		{"ledger document", "/mnt/storage/compressedVideos.json", "ledger"},
		{"sibling with shared prefix", "/mnt/media2/c.mp4", "unknown"},
		{"unknown path", "/etc/hosts", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve_NilResolver(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/mnt/media/a.mp4"); got != "unknown" {
		t.Errorf("nil resolver Resolve() = %q, want %q", got, "unknown")
	}
}

func TestRetryConfig_ResolveVolume(t *testing.T) {
	original := defaultResolver
	defer func() { defaultResolver = original }()

	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"default-media": "/mnt/media"}))

	config := fastConfig()
	if got := config.resolveVolume("/mnt/media/a.mp4"); got != "default-media" {
		t.Errorf("resolveVolume() = %q, want default-media", got)
	}

	config.VolumeResolver = NewVolumeResolver(map[string]string{"override": "/mnt/media"})
	if got := config.resolveVolume("/mnt/media/a.mp4"); got != "override" {
		t.Errorf("resolveVolume() = %q, want override", got)
	}
}

func TestWithRetry_RetriesStaleHandle(t *testing.T) {
	obs := withObserver(t)

	calls := 0
	got, err := withRetry("stat", "/mnt/media/a.mp4", fastConfig(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, syscall.ESTALE
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if got != 42 {
		t.Errorf("withRetry() = %d, want 42", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := map[EventKind]int{
		EventAttempt:   3,
		EventStale:     2,
		EventRetry:     2,
		EventRecovered: 1,
		EventExhausted: 0,
		EventDone:      1,
	}
	for kind, n := range want {
		if got := obs.count(kind); got != n {
			t.Errorf("events of kind %d = %d, want %d", kind, got, n)
		}
	}
	last := obs.events[len(obs.events)-1]
	if last.Kind != EventDone || last.Operation != "stat" || last.Volume == "" {
		t.Errorf("last event = %+v, want labelled done for stat", last)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	obs := withObserver(t)

	calls := 0
	_, err := withRetry("readdir", "/mnt/media", fastConfig(), func() (int, error) {
		calls++
		return 0, syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("withRetry() error = %v, want ESTALE", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", calls)
	}
	if got := obs.count(EventExhausted); got != 1 {
		t.Errorf("exhausted events = %d, want 1", got)
	}
	if got := obs.count(EventRetry); got != 3 {
		t.Errorf("retry events = %d, want 3", got)
	}
}

func TestWithRetry_NonStaleErrorNotRetried(t *testing.T) {
	obs := withObserver(t)

	calls := 0
	_, err := withRetry("stat", "/x", fastConfig(), func() (int, error) {
		calls++
		return 0, os.ErrPermission
	})
	if obs.count(EventStale) != 0 || obs.count(EventDone) != 1 {
		t.Errorf("events = %+v, want one attempt and done", obs.events)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("error = %v, want ErrPermission", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_NilObserver(t *testing.T) {
	original := defaultObserver
	SetObserver(nil)
	defer SetObserver(original)

	calls := 0
	_, err := withRetry("stat", "/x", fastConfig(), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, syscall.ESTALE
		}
		return 1, nil
	})
	if err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}

func TestFileOperations(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.mp4")
	if err := os.WriteFile(file, []byte("test"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := StatWithRetry(file, fastConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Size() = %d, want 4", info.Size())
	}

	if _, err := StatWithRetry(filepath.Join(dir, "missing"), fastConfig()); !os.IsNotExist(err) {
		t.Errorf("StatWithRetry(missing) error = %v, want not-exist", err)
	}

	entries, err := ReadDirWithRetry(dir, fastConfig())
	if err != nil {
		t.Fatalf("ReadDirWithRetry() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.mp4" {
		t.Errorf("ReadDirWithRetry() = %v, want [a.mp4]", entries)
	}

	renamed := filepath.Join(dir, "b.mp4")
	if err := RenameWithRetry(file, renamed, fastConfig()); err != nil {
		t.Fatalf("RenameWithRetry() error = %v", err)
	}
	if _, err := os.Stat(renamed); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}

	if err := RemoveWithRetry(renamed, fastConfig()); err != nil {
		t.Fatalf("RemoveWithRetry() error = %v", err)
	}
	if err := RemoveWithRetry(renamed, fastConfig()); err != nil {
		t.Errorf("RemoveWithRetry() on missing file error = %v, want nil", err)
	}
}

func TestRenameWithRetry_ReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.compress.mp4")
	dst := filepath.Join(dir, "a.mp4")
	if err := os.WriteFile(src, []byte("small"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("original-and-larger"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RenameWithRetry(src, dst, fastConfig()); err != nil {
		t.Fatalf("RenameWithRetry() error = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "small" {
		t.Errorf("destination = %q, want %q", data, "small")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source should no longer exist")
	}
}

func TestObserverFunc(t *testing.T) {
	var got []EventKind
	original := defaultObserver
	SetObserver(ObserverFunc(func(e Event) { got = append(got, e.Kind) }))
	t.Cleanup(func() { SetObserver(original) })

	if _, err := StatWithRetry(t.TempDir(), fastConfig()); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != EventAttempt || got[1] != EventDone {
		t.Errorf("events = %v, want attempt then done", got)
	}
}
