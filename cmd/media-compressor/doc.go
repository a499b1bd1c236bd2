// Package main provides the entry point for the media compressor server.
//
// The server walks a media tree, re-encodes video files one at a time with
// FFmpeg and replaces each original with its output when the output is valid
// and smaller. Paths that were replaced are written to a JSON ledger so they
// are never compressed twice.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables, creates the ledger directory
//  2. Metrics: Registers collectors and the filesystem observer
//  3. Ledger: Loads the compressed-file document; an unreadable ledger is fatal
//  4. Run History: Opens the SQLite history database unless HISTORY_DB is empty
//  5. Transcoder: Checks FFmpeg and FFprobe, selects the discovery mode
//  6. HTTP Server: Configures routes and middleware, starts the API and metrics servers
//  7. Graceful Shutdown: On SIGINT/SIGTERM stops the run, kills FFmpeg and closes history
//
// # HTTP API
//
//	POST /api/browse        {"type":"read"} or {"type":"move","dir":"..."}
//	POST /api/compress      {"type":"start","options":[...]} or {"type":"stop"}
//	GET  /api/progress      aggregate progress of the current run
//	GET  /api/queue         queue items in processing order
//	GET  /api/state         run state including the browse directory
//	GET  /api/history       recent runs, ?limit=N
//	GET  /api/history/{id}  one run with its item outcomes
//	POST /api/ffmpeg/start  {"ffmpegOptions":[...]}
//	POST /api/ffmpeg/stop
//
// Health endpoints are /health, /healthz, /livez and /readyz. Build
// information is served at /version and Prometheus metrics on METRICS_PORT.
//
// See the startup package for the full list of environment variables.
package main
