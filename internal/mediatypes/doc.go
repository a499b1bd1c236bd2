// Package mediatypes holds the dependency-free file classification rules
// shared by discovery, the orchestrator and the control surface.
//
// It exists so that those packages can agree on what a video candidate is,
// and how the transcoder's temporary output is named, without importing
// each other.
//
//	mediatypes.IsVideoExtension("Movie.MKV")            // true
//	mediatypes.TempOutputPath("/m/a.mp4")               // "/m/a.compress.mp4"
//	mediatypes.TempOutputPath("/m/movie")               // "/m/movie.compress.mkv"
//	mediatypes.IsTempArtifact("a.compress.mp4")         // true
//
// Names of the form "<stem>.compress.<ext>" are reserved for transcoder
// output. Discovery never queues them, and removes one when the original it
// was written for still exists.
package mediatypes
