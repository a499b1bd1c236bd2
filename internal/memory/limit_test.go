package memory

import (
	"math"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigure(t *testing.T) {
	const gib = 1024 * 1024 * 1024

	tests := []struct {
		name        string
		env         map[string]string
		current     int64
		wantSource  string
		wantApplied int64
		wantSet     bool
	}{
		{
			name:       "nothing set",
			env:        map[string]string{},
			wantSource: "none",
		},
		{
			name:        "GOMEMLIMIT wins",
			env:         map[string]string{"GOMEMLIMIT": "512MiB", "MEMORY_LIMIT": "4294967296"},
			current:     512 * 1024 * 1024,
			wantSource:  "GOMEMLIMIT",
			wantApplied: 512 * 1024 * 1024,
		},
		{
			name:        "container limit with default ratio",
			env:         map[string]string{"MEMORY_LIMIT": "4294967296"},
			wantSource:  "MEMORY_LIMIT",
			wantApplied: gib,
			wantSet:     true,
		},
		{
			name:        "custom ratio",
			env:         map[string]string{"MEMORY_LIMIT": "4294967296", "MEMORY_RATIO": "0.5"},
			wantSource:  "MEMORY_LIMIT",
			wantApplied: 2 * gib,
			wantSet:     true,
		},
		{
			name:        "invalid ratio falls back",
			env:         map[string]string{"MEMORY_LIMIT": "4294967296", "MEMORY_RATIO": "1.5"},
			wantSource:  "MEMORY_LIMIT",
			wantApplied: gib,
			wantSet:     true,
		},
		{
			name:       "invalid limit",
			env:        map[string]string{"MEMORY_LIMIT": "lots"},
			wantSource: "none",
		},
		{
			name:       "zero limit",
			env:        map[string]string{"MEMORY_LIMIT": "0"},
			wantSource: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var set int64 = -1
			current := tt.current
			if current == 0 {
				current = math.MaxInt64
			}
			setLimit := func(v int64) int64 {
				if v >= 0 {
					set = v
				}
				return current
			}

			got := configure(envMap(tt.env), setLimit)
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.Applied != tt.wantApplied {
				t.Errorf("Applied = %d, want %d", got.Applied, tt.wantApplied)
			}
			if got.Configured() != (tt.wantApplied > 0) {
				t.Errorf("Configured() = %v", got.Configured())
			}
			if tt.wantSet && set != tt.wantApplied {
				t.Errorf("runtime limit set to %d, want %d", set, tt.wantApplied)
			}
			if !tt.wantSet && set != -1 {
				t.Errorf("runtime limit should not change, got %d", set)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.00 KiB"},
		{1536 * 1024, "1.50 MiB"},
		{4 * 1024 * 1024 * 1024, "4.00 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
