package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"media-compressor/internal/filesystem"
	"media-compressor/internal/logging"
	"media-compressor/internal/metrics"
)

// StorageError reports that the ledger document could not be read, parsed
// or persisted.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Ledger is the durable set of absolute paths whose compressed replacement
// has been swapped in. It is safe for concurrent use.
type Ledger struct {
	path string

	mu    sync.RWMutex
	paths map[string]struct{}

	// replaced in tests to simulate storage failures
	readFile  func(path string) ([]byte, error)
	writeFile func(path string, data []byte) error
}

// Open loads the ledger document at path. A missing document is created
// empty, along with its parent directories. A document that exists but is
// not a JSON array of absolute paths returns a *StorageError.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path:      path,
		paths:     make(map[string]struct{}),
		readFile:  os.ReadFile,
		writeFile: writeFileAtomic,
	}

	data, err := l.readFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &StorageError{Op: "create", Path: path, Err: err}
		}
		if err := l.persist(); err != nil {
			return nil, err
		}
		logging.Info("Created empty ledger at %s", path)
		return l, nil
	case err != nil:
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}

	entries, err := decode(data)
	if err != nil {
		return nil, &StorageError{Op: "parse", Path: path, Err: err}
	}

	for _, p := range entries {
		l.paths[p] = struct{}{}
	}
	if len(l.paths) != len(entries) {
		logging.Warn("Ledger %s contained %d duplicate entries", path, len(entries)-len(l.paths))
	}

	metrics.LedgerEntries.Set(float64(len(l.paths)))
	logging.Info("Loaded ledger from %s (%d entries)", path, len(l.paths))
	return l, nil
}

// Path returns the location of the ledger document.
func (l *Ledger) Path() string {
	return l.path
}

// Contains reports whether path has already been compressed.
func (l *Ledger) Contains(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.paths[path]
	return ok
}

// Len returns the number of recorded paths.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.paths)
}

// Paths returns the recorded paths in lexical order.
func (l *Ledger) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedLocked()
}

// Reload merges entries that another writer added to the document since it
// was opened and returns how many were new. Entries are never dropped.
func (l *Ledger) Reload() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mergeLocked()
}

// Record adds path and rewrites the document before returning. Entries
// written to the document by another process are merged first, so they
// survive the rewrite. Recording a path that is already present does
// nothing. If the document cannot be written the in-memory set is left
// without path.
func (l *Ledger) Record(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.mergeLocked(); err != nil {
		logging.Warn("Ledger %s not merged before write: %v", l.path, err)
	}

	if _, ok := l.paths[path]; ok {
		return nil
	}

	l.paths[path] = struct{}{}
	if err := l.persistLocked(); err != nil {
		delete(l.paths, path)
		metrics.LedgerWriteErrors.Inc()
		return err
	}

	metrics.LedgerEntries.Set(float64(len(l.paths)))
	logging.Debug("Ledger recorded %s", path)
	return nil
}

// mergeLocked adds the entries of the on-disk document that are missing
// from memory. A document that has been removed merges nothing.
func (l *Ledger) mergeLocked() (int, error) {
	data, err := l.readFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, &StorageError{Op: "read", Path: l.path, Err: err}
	}
	entries, err := decode(data)
	if err != nil {
		return 0, &StorageError{Op: "parse", Path: l.path, Err: err}
	}

	added := 0
	for _, p := range entries {
		if _, ok := l.paths[p]; !ok {
			l.paths[p] = struct{}{}
			added++
		}
	}
	if added > 0 {
		metrics.LedgerEntries.Set(float64(len(l.paths)))
		logging.Info("Merged %d ledger entries written to %s by another process", added, l.path)
	}
	return added, nil
}

// decode parses a ledger document: a JSON array of absolute paths.
func decode(data []byte) ([]string, error) {
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		return nil, errors.New("document is not a JSON array")
	}
	for i, p := range entries {
		if !filepath.IsAbs(p) {
			return nil, fmt.Errorf("entry %d (%q) is not an absolute path", i, p)
		}
	}
	return entries, nil
}

func (l *Ledger) persist() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked()
}

func (l *Ledger) persistLocked() error {
	data, err := json.MarshalIndent(l.sortedLocked(), "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: l.path, Err: err}
	}
	if err := l.writeFile(l.path, data); err != nil {
		return &StorageError{Op: "write", Path: l.path, Err: err}
	}
	return nil
}

func (l *Ledger) sortedLocked() []string {
	out := make([]string, 0, len(l.paths))
	for p := range l.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// writeFileAtomic writes data to a temporary file in the same directory,
// fsyncs it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := filesystem.RenameWithRetry(tmpName, path, filesystem.DefaultRetryConfig()); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
