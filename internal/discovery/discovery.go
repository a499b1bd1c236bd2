package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"media-compressor/internal/filesystem"
	"media-compressor/internal/logging"
	"media-compressor/internal/mediatypes"
	"media-compressor/internal/metrics"
	"media-compressor/internal/transcoder"
	"media-compressor/internal/workers"
)

// maxProbeWorkers caps the probe pool regardless of CPU count.
const maxProbeWorkers = 16

// Entry is one regular file found under the walk root.
type Entry struct {
	Path      string
	SizeBytes int64
	Video     bool
}

// Error describes a directory or file that was skipped during a walk.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("discovery: skipping %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Walker enumerates media files below a root directory.
type Walker struct {
	// Prober, when set, classifies every file by its streams. The extension
	// allow-list is used when Prober is nil or a probe fails.
	Prober transcoder.Prober
	// Workers bounds concurrent probes. Zero sizes the pool with workers.ForIO.
	Workers int
	// Retry configures NFS stale handle retries for stat and readdir.
	Retry filesystem.RetryConfig
	// OnError is called for every skipped entry, after it is logged.
	OnError func(*Error)
	// RemoveArtifacts deletes a temp artifact when the original it was
	// written for still exists. Only set it while no transcode is running.
	RemoveArtifacts bool
}

// NewWalker returns a Walker using prober (which may be nil).
func NewWalker(prober transcoder.Prober) *Walker {
	return &Walker{
		Prober: prober,
		Retry:  filesystem.DefaultRetryConfig(),
	}
}

// Walk returns every regular file below root sorted by path. Directories
// are visited pre-order in listing order. Hidden entries and transcoder temp
// artifacts are left out. A root that does not exist yields no entries.
func (w *Walker) Walk(ctx context.Context, root string) []Entry {
	start := time.Now()
	defer func() {
		metrics.DiscoveryDuration.Observe(time.Since(start).Seconds())
	}()

	info, err := filesystem.StatWithRetry(root, w.Retry)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.skip(root, err)
		}
		return nil
	}
	if !info.IsDir() {
		w.skip(root, errors.New("not a directory"))
		return nil
	}

	var entries []Entry
	w.walkDir(ctx, root, &entries)

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	w.classify(ctx, entries)

	logging.Debug("Discovered %d files under %s in %v", len(entries), root, time.Since(start))
	return entries
}

func (w *Walker) walkDir(ctx context.Context, dir string, out *[]Entry) {
	if ctx.Err() != nil {
		return
	}

	dirEntries, err := filesystem.ReadDirWithRetry(dir, w.Retry)
	if err != nil {
		w.skip(dir, err)
		return
	}

	for _, de := range dirEntries {
		name := de.Name()
		if mediatypes.IsHidden(name) {
			continue
		}
		path := filepath.Join(dir, name)

		if de.IsDir() {
			w.walkDir(ctx, path, out)
			continue
		}

		if mediatypes.IsTempArtifact(name) {
			w.handleArtifact(path)
			continue
		}

		info, err := filesystem.StatWithRetry(path, w.Retry)
		if err != nil {
			w.skip(path, err)
			continue
		}
		if !info.Mode().IsRegular() {
			// symlinked directories are not followed
			continue
		}

		*out = append(*out, Entry{
			Path:      path,
			SizeBytes: info.Size(),
			Video:     mediatypes.IsVideoExtension(name),
		})
	}
}

func (w *Walker) handleArtifact(path string) {
	if w.RemoveArtifacts {
		for _, orig := range mediatypes.ArtifactOriginals(path) {
			if _, err := filesystem.StatWithRetry(orig, w.Retry); err != nil {
				continue
			}
			if err := filesystem.RemoveWithRetry(path, w.Retry); err != nil {
				logging.Warn("Failed to remove leftover transcoder output %s: %v", path, err)
				return
			}
			logging.Warn("Removed leftover transcoder output %s (original %s)", path, orig)
			return
		}
	}
	logging.Warn("Skipping %s: names matching *%s.* are reserved for transcoder output", path, mediatypes.TempMarker)
}

// classify replaces the extension verdict with the probe verdict when a
// prober is configured. Results are written in place, so order is kept.
func (w *Walker) classify(ctx context.Context, entries []Entry) {
	if w.Prober == nil || len(entries) == 0 {
		return
	}

	n := w.Workers
	if n <= 0 {
		n = workers.ForIO(maxProbeWorkers)
	}
	workers.Each(ctx, n, len(entries), func(i int) {
		res, err := w.Prober.Probe(ctx, entries[i].Path)
		if err != nil {
			logging.Debug("Probe failed for %s, using extension: %v", entries[i].Path, err)
			return
		}
		entries[i].Video = res.HasVideo()
	})
}

func (w *Walker) skip(path string, err error) {
	derr := &Error{Path: path, Err: err}
	metrics.DiscoveryErrors.Inc()
	logging.Warn("%v", derr)
	if w.OnError != nil {
		w.OnError(derr)
	}
}
