// Package discovery walks a media directory and classifies the files it
// finds as video or not.
//
// Classification uses the extension allow-list from the mediatypes package,
// or ffprobe when a prober is configured. Probes run on a bounded pool; the
// returned slice is always sorted by path so that queue order is stable
// between runs.
//
// Errors on individual entries never abort a walk. They are logged as
// warnings, counted in media_compressor_discovery_errors_total and reported
// through Walker.OnError.
package discovery
