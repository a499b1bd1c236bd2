package queue

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"media-compressor/internal/discovery"
)

type fakeWalker struct {
	entries []discovery.Entry
	root    string
}

func (f *fakeWalker) Walk(_ context.Context, root string) []discovery.Entry {
	f.root = root
	return f.entries
}

type setLedger map[string]bool

func (s setLedger) Contains(p string) bool { return s[p] }

func TestTransition(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		wantErr bool
	}{
		{StatusPending, StatusActive, false},
		{StatusActive, StatusFinished, false},
		{StatusActive, StatusSkipped, false},
		{StatusActive, StatusFailed, false},
		{StatusActive, StatusPending, false},
		{StatusPending, StatusFinished, true},
		{StatusPending, StatusPending, true},
		{StatusActive, StatusActive, true},
		{StatusFinished, StatusActive, true},
		{StatusSkipped, StatusPending, true},
		{StatusFailed, StatusActive, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			it := Item{Path: "/m/a.mp4", Status: tt.from}
			err := it.Transition(tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Transition() error = %v, want ErrInvalidTransition", err)
				}
				if it.Status != tt.from {
					t.Errorf("status changed to %s on invalid transition", it.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition() error = %v", err)
			}
			if it.Status != tt.to {
				t.Errorf("Status = %s, want %s", it.Status, tt.to)
			}
		})
	}
}

func TestTransitionToPendingResetsProgress(t *testing.T) {
	it := NewItem("/m/a.mp4", 100)
	_ = it.Transition(StatusActive)
	it.SetProgress(40)
	if err := it.Transition(StatusPending); err != nil {
		t.Fatal(err)
	}
	if it.ProgressPercent != 0 {
		t.Errorf("ProgressPercent = %v, want 0", it.ProgressPercent)
	}
}

func TestSetProgressIsMonotonic(t *testing.T) {
	it := NewItem("/m/a.mp4", 100)
	if it.SetProgress(10) {
		t.Error("progress must not change while pending")
	}
	_ = it.Transition(StatusActive)

	steps := []struct {
		in      float64
		changed bool
		want    float64
	}{
		{10, true, 10},
		{5, false, 10},
		{10, false, 10},
		{55.5, true, 55.5},
		{150, true, 100},
		{99, false, 100},
	}
	for _, s := range steps {
		if got := it.SetProgress(s.in); got != s.changed {
			t.Errorf("SetProgress(%v) changed = %v, want %v", s.in, got, s.changed)
		}
		if it.ProgressPercent != s.want {
			t.Errorf("after SetProgress(%v) = %v, want %v", s.in, it.ProgressPercent, s.want)
		}
	}
}

func TestFinish(t *testing.T) {
	it := NewItem("/m/a.mp4", 10*bytesPerMB)
	if err := it.Finish(3 * bytesPerMB); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Finish() from pending error = %v, want ErrInvalidTransition", err)
	}

	_ = it.Transition(StatusActive)
	if err := it.Finish(3 * bytesPerMB); err != nil {
		t.Fatal(err)
	}
	if it.NewSizeMB == nil || *it.NewSizeMB != 3 {
		t.Errorf("NewSizeMB = %v, want 3", it.NewSizeMB)
	}
	if it.SizeMB != 10 {
		t.Errorf("SizeMB = %v, want 10", it.SizeMB)
	}
}

func TestCloneIsDeep(t *testing.T) {
	mb := 3.0
	it := Item{Path: "/m/a.mp4", NewSizeMB: &mb}
	c := it.Clone()
	*c.NewSizeMB = 9
	if *it.NewSizeMB != 3 {
		t.Error("Clone shares NewSizeMB with the original")
	}
}

func TestItemJSON(t *testing.T) {
	data, err := json.Marshal(NewItem("/m/a.mp4", bytesPerMB))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"path":"/m/a.mp4","sizeBytes":1048576,"sizeMB":1,"newSizeMB":null,"progressPercent":0,"status":"pending"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestBuild(t *testing.T) {
	walker := &fakeWalker{entries: []discovery.Entry{
		{Path: "/m/a.mp4", SizeBytes: 10, Video: true},
		{Path: "/m/b.mp4", SizeBytes: 5, Video: true},
		{Path: "/m/c.mkv", SizeBytes: 7, Video: true},
		{Path: "/m/notes.txt", SizeBytes: 1, Video: false},
	}}
	ledger := setLedger{"/m/b.mp4": true}

	res := Build(context.Background(), walker, "/m", ledger)

	if walker.root != "/m" {
		t.Errorf("walked %q, want /m", walker.root)
	}
	var got []string
	for _, it := range res.Items {
		got = append(got, it.Path)
		if it.Status != StatusPending || it.ProgressPercent != 0 || it.NewSizeMB != nil {
			t.Errorf("item %s not fresh: %+v", it.Path, it)
		}
	}
	if want := []string{"/m/a.mp4", "/m/c.mkv"}; !reflect.DeepEqual(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
	if res.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", res.TotalFiles)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
}

func TestBuildEmpty(t *testing.T) {
	res := Build(context.Background(), &fakeWalker{}, "/m", setLedger{})
	if len(res.Items) != 0 || res.TotalFiles != 0 {
		t.Errorf("Build() = %+v, want empty", res)
	}
}

func TestCounts(t *testing.T) {
	items := []Item{
		{Status: StatusPending}, {Status: StatusPending}, {Status: StatusFailed},
	}
	got := Counts(items)
	if got["pending"] != 2 || got["failed"] != 1 || got["finished"] != 0 {
		t.Errorf("Counts() = %v", got)
	}
}
