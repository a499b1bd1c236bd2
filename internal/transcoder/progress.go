package transcoder

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// Progress reports how far a transcode has got through the source.
type Progress struct {
	// Percent is in [0, 100].
	Percent float64
}

// readProgress consumes ffmpeg "-progress" output from r until EOF. Each
// block of key=value lines is terminated by "progress=continue" or
// "progress=end"; emit is called once per block that carried an output
// timestamp, with the processed duration. end is true for the final block.
func readProgress(r io.Reader, emit func(outTime time.Duration, end bool)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		outTime time.Duration
		source  int // 3 = out_time_us, 2 = out_time_ms, 1 = out_time
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "progress=") {
			end := line == "progress=end"
			if source > 0 || end {
				emit(outTime, end)
			}
			source = 0
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		switch key {
		case "out_time_us":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				outTime, source = time.Duration(us)*time.Microsecond, 3
			}
		case "out_time_ms":
			// ffmpeg writes microseconds under this key as well
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 && source < 2 {
				outTime, source = time.Duration(us)*time.Microsecond, 2
			}
		case "out_time":
			if d, ok := parseClock(value); ok && source < 1 {
				outTime, source = d, 1
			}
		}
	}
}

// parseClock parses ffmpeg's "HH:MM:SS.micro" timestamps.
func parseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" || strings.HasPrefix(s, "-") {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(secs*float64(time.Second))
	return d, true
}

// percentOf returns done/total as a percentage clamped to [0, 100].
func percentOf(done, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(done) / float64(total) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
