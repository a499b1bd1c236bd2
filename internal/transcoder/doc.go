// Package transcoder wraps the ffmpeg and ffprobe binaries.
//
// FFmpeg.Start launches one transcode and returns a [Handle]. Progress comes
// from ffmpeg's "-progress pipe:1" output divided by the source duration,
// which is probed first. The handle's Progress channel is closed before its
// single [Result] is delivered on Done:
//
//	h, err := ff.Start(ctx, in, out, []string{"-c:v", "libx265", "-crf", "28"})
//	if err != nil {
//	    return err
//	}
//	for p := range h.Progress() {
//	    fmt.Printf("%.1f%%\n", p.Percent)
//	}
//	res := <-h.Done()
//
// Kill sends SIGKILL. A killed transcode resolves with [ErrKilled]; other
// failures are [*TranscodeError] values carrying the tail of ffmpeg's stderr.
//
// FFprobe.Probe is used for duration lookup, video classification during
// discovery and validation of produced output.
package transcoder
