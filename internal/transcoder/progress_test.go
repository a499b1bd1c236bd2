package transcoder

import (
	"strings"
	"testing"
	"time"
)

type progressEvent struct {
	outTime time.Duration
	end     bool
}

func collectProgress(input string) []progressEvent {
	var events []progressEvent
	readProgress(strings.NewReader(input), func(d time.Duration, end bool) {
		events = append(events, progressEvent{d, end})
	})
	return events
}

func TestReadProgress(t *testing.T) {
	input := strings.Join([]string{
		"frame=10",
		"fps=25.0",
		"out_time_us=1000000",
		"out_time_ms=1000000",
		"out_time=00:00:01.000000",
		"speed=1.0x",
		"progress=continue",
		"frame=20",
		"out_time_us=2500000",
		"progress=continue",
		"out_time=00:00:04.000000",
		"progress=end",
		"",
	}, "\n")

	got := collectProgress(input)
	want := []progressEvent{
		{time.Second, false},
		{2500 * time.Millisecond, false},
		{4 * time.Second, true},
	}

	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReadProgress_BlockWithoutTimestamp(t *testing.T) {
	got := collectProgress("frame=1\nout_time_us=N/A\nprogress=continue\n")
	if len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestReadProgress_EndAlwaysReported(t *testing.T) {
	got := collectProgress("progress=end\n")
	if len(got) != 1 || !got[0].end {
		t.Errorf("events = %v, want one end event", got)
	}
}

func TestReadProgress_PrefersMicroseconds(t *testing.T) {
	got := collectProgress("out_time=00:00:09.000000\nout_time_us=3000000\nprogress=continue\n")
	if len(got) != 1 || got[0].outTime != 3*time.Second {
		t.Errorf("events = %v, want out_time_us to win", got)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{"00:00:01.500000", 1500 * time.Millisecond, true},
		{"01:02:03.000000", time.Hour + 2*time.Minute + 3*time.Second, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"-00:00:00.023220", 0, false},
		{"12:34", 0, false},
		{"aa:bb:cc", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseClock(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseClock(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name  string
		done  time.Duration
		total time.Duration
		want  float64
	}{
		{"half", 5 * time.Second, 10 * time.Second, 50},
		{"zero total", time.Second, 0, 0},
		{"overshoot clamps", 11 * time.Second, 10 * time.Second, 100},
		{"negative clamps", -time.Second, 10 * time.Second, 0},
		{"start", 0, 10 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentOf(tt.done, tt.total); got != tt.want {
				t.Errorf("percentOf() = %v, want %v", got, tt.want)
			}
		})
	}
}
