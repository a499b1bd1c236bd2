package metrics

import (
	"testing"
	"time"
)

type mockStatsProvider struct {
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	return m.stats
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		LedgerEntries:   7,
		QueueByStatus:   map[string]int{"pending": 3, "finished": 2},
		IsProcessing:    true,
		CurrentProgress: 42.5,
	}}

	c := NewCollector(provider, time.Minute)
	c.collect()

	if got := gaugeValue(t, LedgerEntries); got != 7 {
		t.Errorf("LedgerEntries = %v, want 7", got)
	}
	if got := gaugeValue(t, QueueItems.WithLabelValues("pending")); got != 3 {
		t.Errorf("pending = %v, want 3", got)
	}
	if got := gaugeValue(t, QueueItems.WithLabelValues("failed")); got != 0 {
		t.Errorf("failed = %v, want 0", got)
	}
	if got := gaugeValue(t, RunActive); got != 1 {
		t.Errorf("RunActive = %v, want 1", got)
	}
	if got := gaugeValue(t, CurrentProgress); got != 42.5 {
		t.Errorf("CurrentProgress = %v, want 42.5", got)
	}

	provider.stats.IsProcessing = false
	c.collect()
	if got := gaugeValue(t, RunActive); got != 0 {
		t.Errorf("RunActive = %v, want 0 after run ends", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Minute)
	c.collect()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{LedgerEntries: 3}}
	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
	c.Stop()

	if got := gaugeValue(t, LedgerEntries); got != 3 {
		t.Errorf("LedgerEntries = %v, want 3 after collecting", got)
	}
}

func TestCollectorStopBeforeStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewCollector(&mockStatsProvider{}, time.Hour).Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop before Start blocked")
	}
}
