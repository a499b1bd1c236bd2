package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"media-compressor/internal/metrics"
)

// Prober inspects media files.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// ProbeResult is the subset of ffprobe output the compressor relies on.
type ProbeResult struct {
	FormatName string
	Duration   time.Duration
	Size       int64
	Streams    []Stream
}

// Stream describes one elementary stream of a container.
type Stream struct {
	Index         int
	CodecType     string
	CodecName     string
	IsAttachedPic bool
}

// stillImageFormats are demuxers that ffprobe reports with a "video" stream
// even though the file is a picture.
var stillImageFormats = map[string]bool{
	"image2":     true,
	"gif":        true,
	"apng":       true,
	"webp_pipe":  true,
	"tiff_pipe":  true,
	"png_pipe":   true,
	"jpeg_pipe":  true,
	"bmp_pipe":   true,
	"svg_pipe":   true,
	"ico":        true,
	"image2pipe": true,
}

// HasVideo reports whether the container holds a real video stream: a
// "video" stream that is not cover art, in a container that is not a still
// image format.
func (r *ProbeResult) HasVideo() bool {
	if r == nil {
		return false
	}
	for _, name := range strings.Split(r.FormatName, ",") {
		name = strings.TrimSpace(name)
		if stillImageFormats[name] || strings.HasSuffix(name, "_pipe") {
			return false
		}
	}
	for _, s := range r.Streams {
		if s.CodecType == "video" && !s.IsAttachedPic {
			return true
		}
	}
	return false
}

// FFprobe runs the ffprobe binary.
type FFprobe struct {
	// Binary is the ffprobe executable; empty means "ffprobe" from PATH.
	Binary string
}

// NewFFprobe returns an FFprobe using binary, or "ffprobe" when binary is empty.
func NewFFprobe(binary string) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{Binary: binary}
}

// Probe runs a single ffprobe JSON call against path.
func (p *FFprobe) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, p.Binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		metrics.ProbesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ffprobe %q: %w - %s", path, err, strings.TrimSpace(stderr.String()))
	}

	res, err := ParseJSON(stdout.Bytes())
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	metrics.ProbesTotal.WithLabelValues("success").Inc()
	return res, nil
}

// ParseJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	res := &ProbeResult{
		FormatName: raw.Format.FormatName,
		Duration:   parseSeconds(raw.Format.Duration),
		Size:       parseInt64(raw.Format.Size),
		Streams:    make([]Stream, 0, len(raw.Streams)),
	}
	for _, s := range raw.Streams {
		res.Streams = append(res.Streams, Stream{
			Index:         s.Index,
			CodecType:     s.CodecType,
			CodecName:     s.CodecName,
			IsAttachedPic: s.Disposition["attached_pic"] == 1,
		})
	}
	return res, nil
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeStream struct {
	Index       int            `json:"index"`
	CodecName   string         `json:"codec_name"`
	CodecType   string         `json:"codec_type"`
	Disposition map[string]int `json:"disposition"`
}

// ffprobe reports numbers as strings
func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}
