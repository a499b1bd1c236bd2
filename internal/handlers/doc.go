// Package handlers provides the HTTP API of the media compressor.
//
// It includes handlers for:
//   - Browsing and changing the directory the next run starts from
//   - Starting and stopping compression runs, including the legacy
//     /api/ffmpeg routes used by older web UI builds
//   - Polling progress, the queue and the run state
//   - Run history
//   - Health checks, version information and the static web UI
package handlers
