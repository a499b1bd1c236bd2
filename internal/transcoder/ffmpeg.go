package transcoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"media-compressor/internal/logging"
	"media-compressor/internal/metrics"
)

// stderrTailSize bounds how much ffmpeg stderr is kept for error reports.
const stderrTailSize = 4096

// ErrKilled is the result error of a transcode terminated by Kill.
var ErrKilled = errors.New("transcode killed")

// TranscodeError reports a transcoder process that could not be started or
// exited unsuccessfully.
type TranscodeError struct {
	Input  string
	Err    error
	Stderr string
}

func (e *TranscodeError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("transcode %s: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("transcode %s: %v: %s", e.Input, e.Err, e.Stderr)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// Result is the terminal event of a transcode.
type Result struct {
	OutputPath string
	Err        error
}

// Handle controls one running transcode.
//
// Progress is closed before the single Result is delivered on Done, so a
// consumer may drain Progress and then receive from Done.
type Handle interface {
	Progress() <-chan Progress
	Done() <-chan Result
	// Kill terminates the process with SIGKILL. It is safe to call more than
	// once and after the process has exited. Progress produced after Kill is
	// dropped.
	Kill() error
}

// Transcoder starts transcodes.
type Transcoder interface {
	Start(ctx context.Context, input, output string, options []string) (Handle, error)
}

// FFmpeg runs transcodes with the ffmpeg binary.
type FFmpeg struct {
	// Binary is the ffmpeg executable; empty means "ffmpeg" from PATH.
	Binary string
	// Prober supplies the source duration for progress. When nil, or when
	// the probe fails, no progress events are emitted.
	Prober Prober

	inFlight sync.Map // input path -> *job
}

// NewFFmpeg returns an FFmpeg using binary and prober.
func NewFFmpeg(binary string, prober Prober) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{Binary: binary, Prober: prober}
}

// Args returns the ffmpeg argument list used for a transcode. options are
// passed through verbatim between the input and the output.
func Args(input, output string, options []string) []string {
	args := make([]string, 0, len(options)+10)
	args = append(args, "-hide_banner", "-nostdin", "-y", "-i", input)
	args = append(args, options...)
	args = append(args, "-progress", "pipe:1", "-nostats", output)
	return args
}

// Start launches ffmpeg to transcode input into output.
func (f *FFmpeg) Start(ctx context.Context, input, output string, options []string) (Handle, error) {
	var duration time.Duration
	if f.Prober != nil {
		info, err := f.Prober.Probe(ctx, input)
		if err != nil {
			logging.Warn("Could not probe duration of %s, progress disabled: %v", input, err)
		} else {
			duration = info.Duration
		}
	}

	binary := f.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary, Args(input, output, options)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &TranscodeError{Input: input, Err: fmt.Errorf("failed to create stdout pipe: %w", err)}
	}
	stderr := &tailBuffer{max: stderrTailSize}
	cmd.Stderr = stderr

	logging.Debug("Starting %s %s", binary, strings.Join(cmd.Args[1:], " "))

	if err := cmd.Start(); err != nil {
		metrics.TranscoderJobsTotal.WithLabelValues("error").Inc()
		return nil, &TranscodeError{Input: input, Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}

	j := &job{
		cmd:      cmd,
		input:    input,
		output:   output,
		duration: duration,
		progress: make(chan Progress, 16),
		done:     make(chan Result, 1),
		started:  time.Now(),
	}

	f.inFlight.Store(input, j)
	metrics.TranscoderJobsInProgress.Inc()

	go j.run(stdout, stderr, func() {
		f.inFlight.Delete(input)
		metrics.TranscoderJobsInProgress.Dec()
	})

	return j, nil
}

// Cleanup kills every transcode still running.
func (f *FFmpeg) Cleanup() {
	f.inFlight.Range(func(key, value any) bool {
		logging.Info("Killing transcoding process for: %s", key)
		if err := value.(*job).Kill(); err != nil {
			logging.Warn("failed to kill transcoding process for %s: %v", key, err)
		}
		return true
	})
}

type job struct {
	cmd      *exec.Cmd
	input    string
	output   string
	duration time.Duration
	started  time.Time

	progress chan Progress
	done     chan Result

	killed   atomic.Bool
	killOnce sync.Once
	killErr  error
}

func (j *job) Progress() <-chan Progress { return j.progress }

func (j *job) Done() <-chan Result { return j.done }

func (j *job) Kill() error {
	j.killOnce.Do(func() {
		j.killed.Store(true)
		if j.cmd.Process == nil {
			return
		}
		if err := j.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			j.killErr = err
		}
	})
	return j.killErr
}

func (j *job) run(stdout io.Reader, stderr *tailBuffer, finished func()) {
	readProgress(stdout, func(outTime time.Duration, end bool) {
		if j.duration <= 0 || j.killed.Load() {
			return
		}
		p := Progress{Percent: percentOf(outTime, j.duration)}
		if end {
			p.Percent = 100
		}
		select {
		case j.progress <- p:
		default:
			// consumer is behind; a later event supersedes this one
		}
	})

	waitErr := j.cmd.Wait()
	finished()
	metrics.TranscoderJobDuration.Observe(time.Since(j.started).Seconds())

	res := Result{OutputPath: j.output}
	switch {
	case j.killed.Load():
		metrics.TranscoderJobsTotal.WithLabelValues("killed").Inc()
		res.Err = ErrKilled
	case waitErr != nil:
		metrics.TranscoderJobsTotal.WithLabelValues("error").Inc()
		res.Err = &TranscodeError{Input: j.input, Err: waitErr, Stderr: stderr.String()}
	default:
		metrics.TranscoderJobsTotal.WithLabelValues("success").Inc()
	}

	close(j.progress)
	j.done <- res
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
