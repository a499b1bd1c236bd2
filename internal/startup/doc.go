// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - MEDIA_DIR: Root of the browsable media tree (default: /mnt/media)
//   - LEDGER_PATH: JSON ledger of compressed files (default: /mnt/storage/compressedVideos.json)
//   - PORT: HTTP server port (default: 3000)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - FFMPEG_PATH, FFPROBE_PATH: Transcoder binaries (default: looked up in PATH)
//   - DISCOVERY_MODE: probe or extension (default: probe)
//   - STOP_TIMEOUT: How long a stop request waits for the run to unwind (default: 10s)
//   - HISTORY_DB: SQLite run history; empty disables it (default: history.db next to the ledger)
//   - STATIC_DIR: Web UI assets (default: ./web/dist)
//   - LOG_LEVEL, LOG_FORMAT, DEBUG: Logging configuration
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - PROBE_WORKERS: Size of the discovery probe pool (default: derived from GOMAXPROCS)
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO: Go memory limit, see package memory
//
// Invalid durations and discovery modes fall back to their defaults with a
// warning. The ledger directory is created if needed and must be writable.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
package startup
