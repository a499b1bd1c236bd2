// Package ledger persists the set of media files that have already been
// compressed, so that a restarted server never transcodes them again.
//
// The document is a flat JSON array of absolute paths:
//
//	[
//	  "/mnt/media/movies/a.mp4",
//	  "/mnt/media/shows/b.mkv"
//	]
//
// Every Record rewrites the whole document through a temporary file and a
// rename, so a crash leaves either the old or the new document on disk. A
// document that cannot be parsed is a *StorageError and stops the server at
// startup; it is never silently reset.
package ledger
