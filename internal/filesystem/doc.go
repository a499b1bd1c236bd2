/*
Package filesystem provides filesystem operations with automatic retry logic
for NFS stale file handle errors.

Media libraries are commonly NFS mounts. A directory walk or a rename can hit
ESTALE when the server side changes underneath the client; these operations
usually succeed when retried a moment later.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

	err := filesystem.RenameWithRetry(tmp, original, filesystem.DefaultRetryConfig())

RemoveWithRetry treats a missing file as success, which makes it safe for
cleaning up partial transcoder output.

# Retry Behavior

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms. Only ESTALE
triggers a retry; every other error is returned immediately.

# Metrics

Call SetObserver at startup with metrics.NewFilesystemObserver() to export
per-volume attempt, retry and stale-handle counters. Volumes are labelled by
the resolver installed with SetDefaultVolumeResolver.
*/
package filesystem
