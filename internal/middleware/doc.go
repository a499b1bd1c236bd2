// Package middleware provides HTTP middleware for the compressor API.
//
// It includes:
//   - Request logging in W3C Extended Log Format, written through the logging package
//   - Prometheus request metrics labelled by mux route template
//   - gzip response compression for JSON and the web UI assets
package middleware
