package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"media-compressor/internal/logging"
)

// queueStatuses lists the queue item states exported as gauges. Kept here
// instead of importing the queue package, which depends on discovery.
var queueStatuses = []string{"pending", "active", "finished", "skipped", "failed"}

// StatsProvider is implemented by the orchestrator.
type StatsProvider interface {
	GetStats() Stats
}

// Stats is a snapshot of orchestrator state.
type Stats struct {
	LedgerEntries   int
	QueueByStatus   map[string]int
	IsProcessing    bool
	CurrentProgress float64
}

// apply copies the snapshot into the gauges.
func (s Stats) apply() {
	LedgerEntries.Set(float64(s.LedgerEntries))
	for _, status := range queueStatuses {
		QueueItems.WithLabelValues(status).Set(float64(s.QueueByStatus[status]))
	}
	RunActive.Set(boolToFloat(s.IsProcessing))
	CurrentProgress.Set(s.CurrentProgress)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Collector refreshes the gauges from a StatsProvider on a fixed interval.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewCollector returns a stopped collector.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start collects once immediately, then every interval. Only the first call
// has an effect.
func (c *Collector) Start() {
	if c.started.CompareAndSwap(false, true) {
		go c.loop()
	}
}

// Stop ends the loop and waits for it. It is safe to call more than once,
// and before Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
}

func (c *Collector) loop() {
	defer close(c.done)

	c.collect()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	stats := c.provider.GetStats()
	stats.apply()
	logging.Debug("Metrics collected: ledger=%d pending=%d processing=%v",
		stats.LedgerEntries, stats.QueueByStatus["pending"], stats.IsProcessing)
}
