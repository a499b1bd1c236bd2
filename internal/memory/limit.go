package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-compressor/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap.
// The encoder runs in the same cgroup and needs most of it.
const DefaultRatio = 0.25

// Limit reports what ConfigureFromEnv did.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source string

	// Container is the container limit in bytes, 0 when unknown.
	Container int64

	// Applied is the Go memory limit in bytes, 0 when none was set.
	Applied int64

	Ratio float64
}

// Configured reports whether a Go memory limit is in effect.
func (l Limit) Configured() bool {
	return l.Applied > 0
}

// ConfigureFromEnv sets the Go memory limit from MEMORY_LIMIT (bytes, usually
// from the Kubernetes Downward API) scaled by MEMORY_RATIO. An explicit
// GOMEMLIMIT wins and is only reported. Call it early in main.
func ConfigureFromEnv() Limit {
	return configure(os.Getenv, debug.SetMemoryLimit)
}

func configure(getenv func(string) string, setLimit func(int64) int64) Limit {
	if v := getenv("GOMEMLIMIT"); v != "" {
		l := Limit{Source: "GOMEMLIMIT"}
		if cur := setLimit(-1); cur > 0 && cur < math.MaxInt64 {
			l.Applied = cur
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return l
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving the Go memory limit alone")
		return Limit{Source: "none"}
	}

	container, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || container <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return Limit{Source: "none"}
	}

	ratio := DefaultRatio
	if s := getenv("MEMORY_RATIO"); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err == nil && r > 0 && r <= 1 {
			ratio = r
		} else {
			logging.Warn("Ignoring invalid MEMORY_RATIO %q, using %.2f", s, DefaultRatio)
		}
	}

	applied := int64(float64(container) * ratio)
	setLimit(applied)
	logging.Info("Go memory limit set to %s (%.0f%% of container limit %s)",
		FormatBytes(applied), ratio*100, FormatBytes(container))

	return Limit{Source: "MEMORY_LIMIT", Container: container, Applied: applied, Ratio: ratio}
}

// FormatBytes renders b with binary units.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
