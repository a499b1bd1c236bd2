// Package client is a small HTTP client for the compressor API, used by
// compressctl.
package client
