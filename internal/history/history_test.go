package history

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	id, err := s.BeginRun(ctx, "/m", []string{"-c:v", "libx265"}, 2)
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if id == 0 {
		t.Fatal("BeginRun() returned id 0")
	}

	items := []ItemRow{
		{Path: "/m/a.mp4", Status: "finished", SizeBytes: 10, NewSizeBytes: 3, DurationMs: 1500},
		{Path: "/m/b.mp4", Status: "skipped", SizeBytes: 5, Error: "output not smaller"},
	}
	for _, it := range items {
		if err := s.RecordItem(ctx, id, it); err != nil {
			t.Fatalf("RecordItem() error = %v", err)
		}
	}

	running, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if running.Outcome != OutcomeRunning || running.FinishedAt != nil {
		t.Errorf("run before finish = %+v", running)
	}

	sum := Summary{Outcome: OutcomeCompleted, TotalFiles: 2, ProcessedFiles: 2, Finished: 1, Skipped: 1, BytesSaved: 7}
	if err := s.FinishRun(ctx, id, sum); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Root != "/m" {
		t.Errorf("Root = %q", run.Root)
	}
	if !reflect.DeepEqual(run.Options, []string{"-c:v", "libx265"}) {
		t.Errorf("Options = %v", run.Options)
	}
	if run.Outcome != OutcomeCompleted || run.FinishedAt == nil {
		t.Errorf("Outcome = %s, FinishedAt = %v", run.Outcome, run.FinishedAt)
	}
	if run.Finished != 1 || run.Skipped != 1 || run.Failed != 0 || run.BytesSaved != 7 || run.ProcessedFiles != 2 {
		t.Errorf("summary = %+v", run)
	}
	if len(run.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(run.Items))
	}
	if run.Items[0].Path != "/m/a.mp4" || run.Items[0].DurationMs != 1500 || run.Items[0].NewSizeBytes != 3 {
		t.Errorf("item 0 = %+v", run.Items[0])
	}
	if run.Items[1].Error != "output not smaller" {
		t.Errorf("item 1 error = %q", run.Items[1].Error)
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.BeginRun(ctx, "/m", nil, i)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("order = [%d %d], want newest first [%d %d]", runs[0].ID, runs[1].ID, ids[2], ids[1])
	}
	if runs[0].Options == nil || len(runs[0].Options) != 0 {
		t.Errorf("Options = %#v, want empty slice", runs[0].Options)
	}

	all, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("default limit returned %d runs, want 3", len(all))
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetRun(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun() error = %v, want ErrNotFound", err)
	}
}

func TestReopenClosesAbandonedRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := New(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.BeginRun(ctx, "/m", nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	run, err := reopened.GetRun(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Outcome != OutcomeStopped || run.FinishedAt == nil {
		t.Errorf("abandoned run = %s / %v, want stopped with finish time", run.Outcome, run.FinishedAt)
	}
}

func TestNilStore(t *testing.T) {
	ctx := context.Background()
	var s *Store

	id, err := s.BeginRun(ctx, "/m", nil, 1)
	if err != nil || id != 0 {
		t.Errorf("BeginRun() = (%d, %v), want (0, nil)", id, err)
	}
	if err := s.RecordItem(ctx, id, ItemRow{}); err != nil {
		t.Errorf("RecordItem() error = %v", err)
	}
	if err := s.FinishRun(ctx, id, Summary{}); err != nil {
		t.Errorf("FinishRun() error = %v", err)
	}
	runs, err := s.ListRuns(ctx, 10)
	if err != nil || len(runs) != 0 {
		t.Errorf("ListRuns() = (%v, %v)", runs, err)
	}
	if _, err := s.GetRun(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun() error = %v, want ErrNotFound", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if s.Path() != "" {
		t.Errorf("Path() = %q", s.Path())
	}
}

func TestNewInvalidPath(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "history.db"))
	if err == nil {
		t.Error("expected error for a database in a missing directory")
	}
}
