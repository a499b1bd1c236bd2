package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-compressor/internal/logging"
	"media-compressor/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned by GetRun for an unknown id.
var ErrNotFound = errors.New("run not found")

// Store records compression runs in SQLite. A nil *Store is valid and
// discards everything, which is how history is disabled.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (creating if needed) the history database at dbPath.
func New(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("History database path: %s", dbPath)

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	// Writes come from the single run loop; a small pool is enough for readers.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	logging.Info("History database initialized successfully at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		outcome TEXT NOT NULL DEFAULT 'running',
		total_files INTEGER NOT NULL DEFAULT 0,
		processed_files INTEGER NOT NULL DEFAULT 0,
		finished INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		bytes_saved INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS run_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		path TEXT NOT NULL,
		status TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		new_size_bytes INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_run_items_run ON run_items(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_items_path ON run_items(path);
	`

	if _, err = s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	// Runs left open by a crash can never finish
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET outcome = ?, finished_at = started_at WHERE outcome = ?`,
		string(OutcomeStopped), string(OutcomeRunning))
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.dbPath
}

// BeginRun inserts a run row and returns its id.
func (s *Store) BeginRun(ctx context.Context, root string, options []string, totalFiles int) (id int64, err error) {
	if s == nil {
		return 0, nil
	}
	start := time.Now()
	defer func() { recordQuery("begin_run", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if options == nil {
		options = []string{}
	}
	opts, err := json.Marshal(options)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (root, options, started_at, outcome, total_files) VALUES (?, ?, ?, ?, ?)`,
		root, string(opts), time.Now().Unix(), string(OutcomeRunning), totalFiles)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordItem stores the terminal outcome of one item.
func (s *Store) RecordItem(ctx context.Context, runID int64, item ItemRow) (err error) {
	if s == nil || runID == 0 {
		return nil
	}
	start := time.Now()
	defer func() { recordQuery("record_item", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_items (run_id, path, status, size_bytes, new_size_bytes, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, item.Path, item.Status, item.SizeBytes, item.NewSizeBytes,
		item.DurationMs, item.Error, time.Now().Unix())
	return err
}

// FinishRun closes a run with its summary.
func (s *Store) FinishRun(ctx context.Context, runID int64, sum Summary) (err error) {
	if s == nil || runID == 0 {
		return nil
	}
	start := time.Now()
	defer func() { recordQuery("finish_run", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, outcome = ?, total_files = ?, processed_files = ?,
			finished = ?, skipped = ?, failed = ?, bytes_saved = ?
		WHERE id = ?`,
		time.Now().Unix(), string(sum.Outcome), sum.TotalFiles, sum.ProcessedFiles,
		sum.Finished, sum.Skipped, sum.Failed, sum.BytesSaved, runID)
	return err
}

const runColumns = `id, root, options, started_at, finished_at, outcome, total_files,
	processed_files, finished, skipped, failed, bytes_saved`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r          Run
		opts       string
		startedAt  int64
		finishedAt sql.NullInt64
		outcome    string
	)
	if err := row.Scan(&r.ID, &r.Root, &opts, &startedAt, &finishedAt, &outcome,
		&r.TotalFiles, &r.ProcessedFiles, &r.Finished, &r.Skipped, &r.Failed, &r.BytesSaved); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(opts), &r.Options); err != nil {
		logging.Warn("Run %d has unreadable options %q: %v", r.ID, opts, err)
	}
	r.StartedAt = time.Unix(startedAt, 0)
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0)
		r.FinishedAt = &t
	}
	r.Outcome = Outcome(outcome)
	return &r, nil
}

// ListRuns returns the most recent runs first, without items.
func (s *Store) ListRuns(ctx context.Context, limit int) (runs []Run, err error) {
	if s == nil {
		return []Run{}, nil
	}
	start := time.Now()
	defer func() { recordQuery("list_runs", start, err) }()

	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	runs = []Run{}
	for rows.Next() {
		r, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its items in processing order.
func (s *Store) GetRun(ctx context.Context, id int64) (run *Run, err error) {
	if s == nil {
		return nil, ErrNotFound
	}
	start := time.Now()
	defer func() {
		qErr := err
		if errors.Is(err, ErrNotFound) {
			qErr = nil
		}
		recordQuery("get_run", start, qErr)
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	run, err = scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, status, size_bytes, new_size_bytes, duration_ms, error, created_at
		FROM run_items WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	for rows.Next() {
		var (
			it        ItemRow
			createdAt int64
		)
		if err = rows.Scan(&it.Path, &it.Status, &it.SizeBytes, &it.NewSizeBytes, &it.DurationMs, &it.Error, &createdAt); err != nil {
			return nil, err
		}
		it.CreatedAt = time.Unix(createdAt, 0)
		run.Items = append(run.Items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return run, nil
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
