package ledger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func readDocument(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("parse ledger: %v", err)
	}
	return entries
}

func TestOpenCreatesMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "compressedVideos.json")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	if l.Path() != path {
		t.Errorf("Path() = %q, want %q", l.Path(), path)
	}
	if entries := readDocument(t, path); len(entries) != 0 {
		t.Errorf("document = %v, want empty array", entries)
	}
}

func TestOpenExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte(`["/m/b.mp4", "/m/a.mp4", "/m/a.mp4"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (duplicates collapse)", l.Len())
	}
	if !l.Contains("/m/a.mp4") || !l.Contains("/m/b.mp4") {
		t.Error("expected both paths to be present")
	}
	if l.Contains("/m/c.mp4") {
		t.Error("unexpected path present")
	}
	if got, want := l.Paths(), []string{"/m/a.mp4", "/m/b.mp4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
}

func TestOpenMalformedDocument(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not JSON", "this is not json"},
		{"object instead of array", `{"paths": []}`},
		{"array of numbers", `[1, 2, 3]`},
		{"truncated", `["/m/a.mp4"`},
		{"null", `null`},
		{"empty object", `{}`},
		{"empty entry", `["/m/a.mp4", ""]`},
		{"relative entry", `["relative/a.mp4"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := Open(path)
			var storageErr *StorageError
			if !errors.As(err, &storageErr) {
				t.Fatalf("Open() error = %v, want *StorageError", err)
			}
			if storageErr.Op != "parse" {
				t.Errorf("Op = %q, want parse", storageErr.Op)
			}

			data, _ := os.ReadFile(path)
			if string(data) != tt.content {
				t.Error("malformed document must not be overwritten")
			}
		})
	}
}

func TestRecordPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Record("/m/b.mp4"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := l.Record("/m/a.mp4"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := l.Record("/m/a.mp4"); err != nil {
		t.Fatalf("Record() duplicate error = %v", err)
	}

	if got, want := readDocument(t, path), []string{"/m/a.mp4", "/m/b.mp4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("document = %v, want %v", got, want)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if reopened.Len() != 2 {
		t.Errorf("reopened Len() = %d, want 2", reopened.Len())
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestRecordRollsBackOnPersistFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Record("/m/a.mp4"); err != nil {
		t.Fatal(err)
	}

	l.writeFile = func(string, []byte) error { return errors.New("disk full") }

	err = l.Record("/m/b.mp4")
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Record() error = %v, want *StorageError", err)
	}
	if storageErr.Op != "write" {
		t.Errorf("Op = %q, want write", storageErr.Op)
	}
	if l.Contains("/m/b.mp4") {
		t.Error("failed Record must not leave the path in memory")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
	if got := readDocument(t, path); !reflect.DeepEqual(got, []string{"/m/a.mp4"}) {
		t.Errorf("document = %v, want previous contents", got)
	}
}

func TestRecordKeepsEntriesFromOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	server, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := server.Record("/m/a.mp4"); err != nil {
		t.Fatal(err)
	}

	offline, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := offline.Record("/m/b.mp4"); err != nil {
		t.Fatal(err)
	}

	if err := server.Record("/m/c.mp4"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	want := []string{"/m/a.mp4", "/m/b.mp4", "/m/c.mp4"}
	if got := readDocument(t, path); !reflect.DeepEqual(got, want) {
		t.Errorf("document = %v, want %v", got, want)
	}
	if !server.Contains("/m/b.mp4") {
		t.Error("entry written by the other ledger should be merged into memory")
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Record("/m/a.mp4"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		content string
		added   int
		wantErr bool
		wantLen int
	}{
		{"new entries", `["/m/a.mp4", "/m/b.mp4", "/m/c.mp4"]`, 2, false, 3},
		{"nothing new", `["/m/b.mp4"]`, 0, false, 3},
		{"malformed", `null`, 0, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			added, err := l.Reload()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Reload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if added != tt.added {
				t.Errorf("Reload() added = %d, want %d", added, tt.added)
			}
			if l.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", l.Len(), tt.wantLen)
			}
		})
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if added, err := l.Reload(); err != nil || added != 0 {
		t.Errorf("Reload() on removed document = %d, %v; want 0, nil", added, err)
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	err := &StorageError{Op: "read", Path: "/x", Err: os.ErrPermission}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("StorageError should unwrap to its cause")
	}
	if err.Error() != "ledger read /x: permission denied" {
		t.Errorf("Error() = %q", err.Error())
	}
}
