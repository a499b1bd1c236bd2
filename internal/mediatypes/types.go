package mediatypes

import (
	"path/filepath"
	"strings"
)

// TempMarker is inserted between a file's stem and extension to name the
// transcoder output written next to the original (a.mp4 -> a.compress.mp4).
const TempMarker = ".compress"

// VideoExtensions maps lowercase file extensions to whether they are
// treated as video candidates when no prober is available.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mov":  true,
	".flv":  true,
	".wmv":  true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
	".m2v":  true,
	".ts":   true,
}

// MimeTypes maps video extensions to their MIME types.
var MimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".flv":  "video/x-flv",
	".wmv":  "video/x-ms-wmv",
	".m4v":  "video/x-m4v",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".m2v":  "video/mpeg",
	".ts":   "video/mp2t",
}

// IsVideoExtension reports whether name has an extension on the video
// allow-list. The comparison is case-insensitive.
func IsVideoExtension(name string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(name))]
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// FallbackContainer is the temp output extension for inputs whose own
// extension ffmpeg cannot pick a muxer from.
const FallbackContainer = ".mkv"

// TempOutputPath returns the path the transcoder writes to for input. An
// input with no extension, or one off the video allow-list, keeps its full
// name and gets FallbackContainer appended ("movie" → "movie.compress.mkv").
func TempOutputPath(input string) string {
	ext := filepath.Ext(input)
	if !VideoExtensions[strings.ToLower(ext)] {
		return input + TempMarker + FallbackContainer
	}
	return strings.TrimSuffix(input, ext) + TempMarker + ext
}

// ArtifactOriginals returns the inputs TempOutputPath could have produced
// artifact from, most likely first. It returns nil when artifact is not a
// temp artifact name.
func ArtifactOriginals(artifact string) []string {
	if !IsTempArtifact(artifact) {
		return nil
	}
	ext := filepath.Ext(artifact)
	stem := strings.TrimSuffix(artifact, ext)
	if strings.EqualFold(ext, TempMarker) {
		// written before FallbackContainer existed
		return []string{stem}
	}
	stem = stem[:len(stem)-len(TempMarker)]
	if strings.EqualFold(ext, FallbackContainer) {
		return []string{stem + ext, stem}
	}
	return []string{stem + ext}
}

// IsTempArtifact reports whether name looks like transcoder output left
// next to an original (for example "movie.compress.mkv").
func IsTempArtifact(name string) bool {
	base := filepath.Base(name)
	if base == TempMarker {
		return false
	}
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, TempMarker) {
		return true
	}
	stem := strings.TrimSuffix(base, ext)
	return strings.HasSuffix(strings.ToLower(stem), TempMarker) && stem != TempMarker
}

// IsHidden reports whether a directory entry name is hidden (leading dot).
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
