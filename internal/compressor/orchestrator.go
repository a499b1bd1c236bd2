package compressor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-compressor/internal/filesystem"
	"media-compressor/internal/history"
	"media-compressor/internal/logging"
	"media-compressor/internal/mediatypes"
	"media-compressor/internal/metrics"
	"media-compressor/internal/queue"
	"media-compressor/internal/transcoder"
)

// DefaultStopTimeout bounds how long Stop waits for the loop to unwind.
const DefaultStopTimeout = 10 * time.Second

// Ledger is the durable record of compressed paths.
type Ledger interface {
	Contains(path string) bool
	Record(path string) error
	Len() int
	// Reload picks up entries written by other processes.
	Reload() (int, error)
}

// HistoryRecorder stores run and item outcomes. A nil *history.Store
// satisfies it and records nothing.
type HistoryRecorder interface {
	BeginRun(ctx context.Context, root string, options []string, totalFiles int) (int64, error)
	RecordItem(ctx context.Context, runID int64, item history.ItemRow) error
	FinishRun(ctx context.Context, runID int64, sum history.Summary) error
}

// Config holds orchestrator settings.
type Config struct {
	// MediaRoot is the top of the browsable tree and the initial CurrentPath.
	MediaRoot   string
	StopTimeout time.Duration
	Retry       filesystem.RetryConfig
}

// Deps are the collaborators of the orchestrator.
type Deps struct {
	Ledger     Ledger
	Walker     queue.Walker
	Transcoder transcoder.Transcoder
	// Prober validates produced output. When nil, any non-empty output is
	// accepted.
	Prober  transcoder.Prober
	History HistoryRecorder
}

// Orchestrator owns the run state, the work queue and the ledger writes.
// All methods are safe for concurrent use.
type Orchestrator struct {
	cfg  Config
	deps Deps
	root string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    RunState
	items    []queue.Item
	active   transcoder.Handle
	loopDone chan struct{}
	closed   bool
}

// New returns an idle orchestrator browsing cfg.MediaRoot.
func New(cfg Config, deps Deps) *Orchestrator {
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialBackoff == 0 {
		cfg.Retry = filesystem.DefaultRetryConfig()
	}

	root := filepath.Clean(cfg.MediaRoot)
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		root:   root,
		ctx:    ctx,
		cancel: cancel,
		state:  RunState{CurrentPath: root},
		items:  []queue.Item{},
	}
}

// Root returns the media root.
func (o *Orchestrator) Root() string {
	return o.root
}

// Start builds a fresh queue from the current path and begins processing
// it in the background. options are passed verbatim to the transcoder.
func (o *Orchestrator) Start(options []string) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.state.IsProcessing {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	o.state.IsProcessing = true
	o.state.ShouldStop = false
	o.state.TotalFiles = 0
	o.state.ProcessedFiles = 0
	o.state.CurrentFile = ""
	o.state.CurrentProgressPercent = 0
	root := o.state.CurrentPath
	done := make(chan struct{})
	o.loopDone = done
	o.mu.Unlock()

	metrics.RunActive.Set(1)
	opts := append([]string(nil), options...)

	if o.deps.Ledger != nil {
		if _, err := o.deps.Ledger.Reload(); err != nil {
			logging.Warn("Ledger reload failed, using the entries already loaded: %v", err)
		}
	}
	res := queue.Build(o.ctx, o.deps.Walker, root, o.deps.Ledger)

	o.mu.Lock()
	o.items = res.Items
	if o.items == nil {
		o.items = []queue.Item{}
	}
	o.state.TotalFiles = res.TotalFiles
	o.mu.Unlock()

	logging.Info("Compression run started: %d files queued under %s (%d already compressed)",
		res.TotalFiles, root, res.Skipped)

	var runID int64
	if o.deps.History != nil {
		id, err := o.deps.History.BeginRun(o.ctx, root, opts, res.TotalFiles)
		if err != nil {
			logging.Warn("Failed to record run start in history: %v", err)
		}
		runID = id
	}

	go o.run(runID, opts, done)
	return nil
}

// Stop requests the current run to end. The in-flight transcode is killed
// before Stop waits for the loop to clean up. Calling Stop with no run
// active is a no-op.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if !o.state.IsProcessing {
		o.state.ShouldStop = false
		o.mu.Unlock()
		return nil
	}
	o.state.ShouldStop = true
	h := o.active
	done := o.loopDone
	o.mu.Unlock()

	logging.Info("Stop requested")

	if h != nil {
		if err := h.Kill(); err != nil {
			logging.Warn("Failed to kill transcoder: %v", err)
		}
	}

	select {
	case <-done:
		return nil
	case <-time.After(o.cfg.StopTimeout):
		logging.Warn("Run did not stop within %v", o.cfg.StopTimeout)
		return ErrStopTimeout
	}
}

// Shutdown stops any run and refuses further starts. It waits for the loop
// until ctx is done.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	done := o.loopDone
	o.mu.Unlock()

	err := o.Stop()
	o.cancel()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if errors.Is(err, ErrStopTimeout) {
		// the cancelled context has since released the loop
		return nil
	}
	return err
}

// Progress returns the aggregate progress.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Progress{
		TotalFiles:             o.state.TotalFiles,
		ProcessedFiles:         o.state.ProcessedFiles,
		CurrentFile:            o.state.CurrentFile,
		CurrentProgressPercent: o.state.CurrentProgressPercent,
		IsProcessing:           o.state.IsProcessing,
	}
}

// State returns a copy of the run state.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Queue returns a copy of the current queue in processing order.
func (o *Orchestrator) Queue() []queue.Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]queue.Item, len(o.items))
	for i, it := range o.items {
		out[i] = it.Clone()
	}
	return out
}

// GetStats implements metrics.StatsProvider.
func (o *Orchestrator) GetStats() metrics.Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	stats := metrics.Stats{
		QueueByStatus:   queue.Counts(o.items),
		IsProcessing:    o.state.IsProcessing,
		CurrentProgress: o.state.CurrentProgressPercent,
	}
	if o.deps.Ledger != nil {
		stats.LedgerEntries = o.deps.Ledger.Len()
	}
	return stats
}

// Browse lists the entries of the current path.
func (o *Orchestrator) Browse() (Listing, error) {
	o.mu.Lock()
	dir := o.state.CurrentPath
	o.mu.Unlock()

	entries, err := filesystem.ReadDirWithRetry(dir, o.cfg.Retry)
	if err != nil {
		return Listing{}, fmt.Errorf("read %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.Name())
	}
	return Listing{Path: dir, Files: files}, nil
}

// Move changes the current path. dir is resolved against the current path
// unless absolute. ".." at the media root stays at the root.
func (o *Orchestrator) Move(dir string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.IsProcessing {
		return "", ErrBusy
	}

	current := o.state.CurrentPath
	var target string
	if filepath.IsAbs(dir) {
		target = filepath.Clean(dir)
	} else {
		target = filepath.Join(current, dir)
	}

	if !o.withinRoot(target) {
		if filepath.Clean(dir) == ".." {
			target = o.root
		} else {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, target)
		}
	}

	info, err := filesystem.StatWithRetry(target, o.cfg.Retry)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotDirectory, target, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, target)
	}

	o.state.CurrentPath = target
	logging.Debug("Browse path moved to %s", target)
	return target, nil
}

func (o *Orchestrator) withinRoot(path string) bool {
	rel, err := filepath.Rel(o.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// run is the compression loop. It is the only writer of items and of the
// ledger while a run is active.
func (o *Orchestrator) run(runID int64, options []string, done chan struct{}) {
	defer close(done)

	started := time.Now()
	outcome := history.OutcomeCompleted
	var tally runTally

	for i := 0; ; i++ {
		o.mu.Lock()
		if i >= len(o.items) {
			o.mu.Unlock()
			break
		}
		if o.state.ShouldStop {
			o.mu.Unlock()
			outcome = history.OutcomeStopped
			break
		}
		item := &o.items[i]
		if err := item.Transition(queue.StatusActive); err != nil {
			o.mu.Unlock()
			logging.Error("Queue item %s: %v", item.Path, err)
			continue
		}
		o.state.CurrentFile = item.Path
		o.state.CurrentProgressPercent = 0
		snapshot := *item
		o.mu.Unlock()

		if stopped := o.processItem(runID, i, snapshot, options, &tally); stopped {
			outcome = history.OutcomeStopped
			break
		}
	}

	o.mu.Lock()
	o.state.IsProcessing = false
	o.state.ShouldStop = false
	o.state.CurrentFile = ""
	o.state.CurrentProgressPercent = 0
	o.active = nil
	total := o.state.TotalFiles
	processed := o.state.ProcessedFiles
	o.mu.Unlock()

	elapsed := time.Since(started)
	metrics.RunActive.Set(0)
	metrics.CurrentProgress.Set(0)
	metrics.RunsTotal.WithLabelValues(string(outcome)).Inc()
	metrics.RunLastDuration.Set(elapsed.Seconds())
	metrics.RunLastTimestamp.Set(float64(time.Now().Unix()))

	logging.Info("Compression run %s in %v: %d/%d processed (%d finished, %d skipped, %d failed, %.1f MB saved)",
		outcome, elapsed.Round(time.Millisecond), processed, total,
		tally.finished, tally.skipped, tally.failed, queue.BytesToMB(tally.bytesSaved))

	if o.deps.History != nil {
		// the run context may already be cancelled by Shutdown
		err := o.deps.History.FinishRun(context.Background(), runID, history.Summary{
			Outcome:        outcome,
			TotalFiles:     total,
			ProcessedFiles: processed,
			Finished:       tally.finished,
			Skipped:        tally.skipped,
			Failed:         tally.failed,
			BytesSaved:     tally.bytesSaved,
		})
		if err != nil {
			logging.Warn("Failed to record run end in history: %v", err)
		}
	}
}

// processItem transcodes one active item and applies the replace policy.
// It reports whether the run was stopped while the item was in flight.
func (o *Orchestrator) processItem(runID int64, idx int, item queue.Item, options []string, tally *runTally) bool {
	started := time.Now()
	input := item.Path
	output := mediatypes.TempOutputPath(input)

	logging.Info("Compressing %s (%.1f MB)", input, item.SizeMB)

	h, err := o.deps.Transcoder.Start(o.ctx, input, output, options)
	if err != nil {
		o.removeOutput(output)
		o.finalize(runID, idx, queue.StatusFailed, 0, err, started, tally)
		return false
	}

	o.mu.Lock()
	o.active = h
	stopNow := o.state.ShouldStop
	o.mu.Unlock()

	if stopNow {
		// Stop ran between Start and registration and found no handle
		if err := h.Kill(); err != nil {
			logging.Warn("Failed to kill transcoder: %v", err)
		}
	}

	for p := range h.Progress() {
		o.applyProgress(idx, p.Percent)
	}
	res := <-h.Done()

	o.mu.Lock()
	o.active = nil
	stopped := o.state.ShouldStop
	o.mu.Unlock()

	if stopped {
		o.removeOutput(output)
		o.mu.Lock()
		if err := o.items[idx].Transition(queue.StatusPending); err != nil {
			logging.Error("Queue item %s: %v", input, err)
		}
		o.state.CurrentProgressPercent = 0
		o.mu.Unlock()
		logging.Info("Stopped while compressing %s; partial output removed", input)
		return true
	}

	if res.Err != nil {
		o.removeOutput(output)
		o.finalize(runID, idx, queue.StatusFailed, 0, res.Err, started, tally)
		return false
	}

	newSize, verr := o.validate(output)
	switch {
	case verr != nil:
		o.removeOutput(output)
		o.finalize(runID, idx, queue.StatusSkipped, 0, verr, started, tally)
	case newSize >= item.SizeBytes:
		o.removeOutput(output)
		o.finalize(runID, idx, queue.StatusSkipped, newSize,
			fmt.Errorf("output not smaller (%.2f MB >= %.2f MB)", queue.BytesToMB(newSize), item.SizeMB),
			started, tally)
	default:
		// rename replaces the original in one step
		if err := filesystem.RenameWithRetry(output, input, o.cfg.Retry); err != nil {
			o.removeOutput(output)
			o.finalize(runID, idx, queue.StatusFailed, 0, fmt.Errorf("replace original: %w", err), started, tally)
			return false
		}
		if err := o.deps.Ledger.Record(input); err != nil {
			logging.Error("Compressed %s but could not record it in the ledger: %v", input, err)
		}
		tally.bytesSaved += item.SizeBytes - newSize
		metrics.BytesSavedTotal.Add(float64(item.SizeBytes - newSize))
		o.finalize(runID, idx, queue.StatusFinished, newSize, nil, started, tally)
	}
	return false
}

// validate checks the produced output and returns its size.
func (o *Orchestrator) validate(output string) (int64, error) {
	info, err := filesystem.StatWithRetry(output, o.cfg.Retry)
	if err != nil {
		return 0, fmt.Errorf("output missing: %w", err)
	}
	if info.Size() == 0 {
		return 0, errors.New("output is empty")
	}
	if o.deps.Prober == nil {
		return info.Size(), nil
	}
	res, err := o.deps.Prober.Probe(o.ctx, output)
	if err != nil {
		return 0, fmt.Errorf("output failed validation: %w", err)
	}
	if len(res.Streams) == 0 {
		return 0, errors.New("output failed validation: no streams")
	}
	return info.Size(), nil
}

func (o *Orchestrator) applyProgress(idx int, percent float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.ShouldStop {
		return
	}
	item := &o.items[idx]
	if item.SetProgress(percent) {
		o.state.CurrentProgressPercent = item.ProgressPercent
		metrics.CurrentProgress.Set(item.ProgressPercent)
	}
}

// finalize moves the active item to a terminal status and records it.
func (o *Orchestrator) finalize(runID int64, idx int, status queue.Status, newSize int64, cause error, started time.Time, tally *runTally) {
	o.mu.Lock()
	item := &o.items[idx]
	var err error
	if status == queue.StatusFinished {
		err = item.Finish(newSize)
	} else {
		err = item.Transition(status)
	}
	if err != nil {
		logging.Error("Queue item %s: %v", item.Path, err)
	}
	if cause != nil {
		item.Error = cause.Error()
	}
	if status == queue.StatusFinished || status == queue.StatusSkipped {
		o.state.ProcessedFiles++
	}
	if o.state.CurrentFile == item.Path {
		o.state.CurrentProgressPercent = item.ProgressPercent
	}
	row := history.ItemRow{
		Path:         item.Path,
		Status:       string(status),
		SizeBytes:    item.SizeBytes,
		NewSizeBytes: newSize,
		DurationMs:   time.Since(started).Milliseconds(),
		Error:        item.Error,
	}
	o.mu.Unlock()

	switch status {
	case queue.StatusFinished:
		tally.finished++
		logging.Info("Compressed %s: %.1f MB -> %.1f MB", row.Path, queue.BytesToMB(row.SizeBytes), queue.BytesToMB(newSize))
	case queue.StatusSkipped:
		tally.skipped++
		logging.Info("Skipped %s: %v", row.Path, cause)
	case queue.StatusFailed:
		tally.failed++
		logging.Warn("Failed to compress %s: %v", row.Path, cause)
	}
	metrics.ItemsTotal.WithLabelValues(string(status)).Inc()

	if o.deps.History != nil {
		if err := o.deps.History.RecordItem(context.Background(), runID, row); err != nil {
			logging.Warn("Failed to record %s in history: %v", row.Path, err)
		}
	}
}

func (o *Orchestrator) removeOutput(path string) {
	if err := filesystem.RemoveWithRetry(path, o.cfg.Retry); err != nil {
		logging.Warn("Failed to remove %s: %v", path, err)
	}
}
