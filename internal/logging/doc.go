// Package logging provides a simple leveled logging interface for the
// media compressor, backed by a zap sugared logger.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable (or
// DEBUG=true), and LOG_FORMAT=json switches to structured JSON output.
package logging
