package filesystem

import (
	"sync"
	"time"
)

// EventKind identifies a step of a retried filesystem operation.
type EventKind int

const (
	// EventAttempt is one call of the underlying operation. Duration and Err
	// describe that call.
	EventAttempt EventKind = iota
	// EventStale is an attempt that failed with ESTALE.
	EventStale
	// EventRetry is a scheduled retry after a stale handle.
	EventRetry
	// EventRecovered is a success after at least one retry.
	EventRecovered
	// EventExhausted is a give-up after MaxRetries stale handles.
	EventExhausted
	// EventDone closes every operation. Duration covers all attempts.
	EventDone
)

// Event is reported to the Observer while an operation runs.
type Event struct {
	Kind      EventKind
	Operation string // "stat", "readdir", "rename", "remove"
	Volume    string // resolved volume label, e.g. "media" or "ledger"
	Duration  time.Duration
	Err       error
}

// Observer receives filesystem events. The metrics package provides the
// Prometheus implementation so that this package does not import it.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

var (
	observerMu      sync.RWMutex
	defaultObserver Observer
)

// SetObserver installs the process-wide observer. nil disables reporting.
func SetObserver(o Observer) {
	observerMu.Lock()
	defaultObserver = o
	observerMu.Unlock()
}

func emit(e Event) {
	observerMu.RLock()
	o := defaultObserver
	observerMu.RUnlock()
	if o != nil {
		o.Observe(e)
	}
}
