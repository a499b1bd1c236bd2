package queue

import (
	"context"
	"errors"
	"fmt"

	"media-compressor/internal/discovery"
)

// Status is the lifecycle state of a queue item.
type Status string

const (
	// StatusPending items have not been started in this run.
	StatusPending Status = "pending"
	// StatusActive is the item currently being transcoded.
	StatusActive Status = "active"
	// StatusFinished items were replaced by a smaller, valid output.
	StatusFinished Status = "finished"
	// StatusSkipped items produced output that was invalid or not smaller.
	StatusSkipped Status = "skipped"
	// StatusFailed items could not be transcoded.
	StatusFailed Status = "failed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusActive, StatusFinished, StatusSkipped, StatusFailed}

// Terminal reports whether s ends an item's run.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusSkipped || s == StatusFailed
}

// ErrInvalidTransition is returned for a status change the state machine
// does not allow.
var ErrInvalidTransition = errors.New("invalid queue item transition")

var transitions = map[Status][]Status{
	StatusPending: {StatusActive},
	StatusActive:  {StatusFinished, StatusSkipped, StatusFailed, StatusPending},
}

const bytesPerMB = 1024 * 1024

// Item is one file under consideration in a run.
type Item struct {
	Path            string   `json:"path"`
	SizeBytes       int64    `json:"sizeBytes"`
	SizeMB          float64  `json:"sizeMB"`
	NewSizeMB       *float64 `json:"newSizeMB"`
	ProgressPercent float64  `json:"progressPercent"`
	Status          Status   `json:"status"`
	Error           string   `json:"error,omitempty"`
}

// NewItem returns a pending item for path.
func NewItem(path string, sizeBytes int64) Item {
	return Item{
		Path:      path,
		SizeBytes: sizeBytes,
		SizeMB:    BytesToMB(sizeBytes),
		Status:    StatusPending,
	}
}

// Transition moves the item to status to. Returning to pending resets the
// progress to zero.
func (it *Item) Transition(to Status) error {
	for _, allowed := range transitions[it.Status] {
		if allowed == to {
			it.Status = to
			if to == StatusPending {
				it.ProgressPercent = 0
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, it.Status, to, it.Path)
}

// SetProgress records percent if it is larger than the current value.
// Percent is clamped to [0, 100]. It reports whether the value changed.
func (it *Item) SetProgress(percent float64) bool {
	if percent > 100 {
		percent = 100
	}
	if it.Status != StatusActive || percent <= it.ProgressPercent {
		return false
	}
	it.ProgressPercent = percent
	return true
}

// Finish marks an active item finished with the compressed size.
func (it *Item) Finish(newSizeBytes int64) error {
	if err := it.Transition(StatusFinished); err != nil {
		return err
	}
	mb := BytesToMB(newSizeBytes)
	it.NewSizeMB = &mb
	it.ProgressPercent = 100
	return nil
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	if it.NewSizeMB != nil {
		v := *it.NewSizeMB
		it.NewSizeMB = &v
	}
	return it
}

// BytesToMB converts a byte count to mebibytes.
func BytesToMB(b int64) float64 {
	return float64(b) / bytesPerMB
}

// Ledger is the membership test the builder needs.
type Ledger interface {
	Contains(path string) bool
}

// Walker is the discovery the builder needs.
type Walker interface {
	Walk(ctx context.Context, root string) []discovery.Entry
}

// Result is the outcome of building a queue.
type Result struct {
	Items []Item
	// TotalFiles is the number of video candidates not yet in the ledger.
	TotalFiles int
	// Skipped is the number of video candidates left out because the
	// ledger already lists them.
	Skipped int
}

// Build walks root and returns a pending item for every video candidate not
// already in the ledger, in discovery order.
func Build(ctx context.Context, walker Walker, root string, ledger Ledger) Result {
	var res Result
	for _, e := range walker.Walk(ctx, root) {
		if !e.Video {
			continue
		}
		if ledger != nil && ledger.Contains(e.Path) {
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, NewItem(e.Path, e.SizeBytes))
	}
	res.TotalFiles = len(res.Items)
	return res
}

// Counts tallies items by status.
func Counts(items []Item) map[string]int {
	counts := make(map[string]int, len(Statuses))
	for _, it := range items {
		counts[string(it.Status)]++
	}
	return counts
}
