// Package workers sizes and runs the bounded pool used for ffprobe calls
// during discovery.
//
//	n := workers.ForIO(16) // 2 per CPU, at most 16
//	workers.Each(ctx, n, len(files), func(i int) { probe(files[i]) })
//
// Sizes follow GOMAXPROCS, which tracks the container CPU limit. PROBE_WORKERS
// pins the size (still capped by the limit argument). Transcoding itself is
// never parallel.
package workers
