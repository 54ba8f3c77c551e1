package util

import (
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

const (
	// RedactedMarker is inserted before the extension of a redacted file's name.
	RedactedMarker = "_redacted"

	// UnredactedMarker is inserted before the extension of an unredacted file's name.
	UnredactedMarker = "_unredacted"

	// MappingSuffix is appended to an output path to derive the default mapping file path.
	MappingSuffix = ".dict"
)

// RedactedName derives the sibling file name a redacted copy of path is written to, e.g. "notes.txt" becomes
// "notes_redacted.txt". Any marker left over from an earlier redact or unredact is dropped first.
func RedactedName(path string) string {
	dir, stem, ext := splitName(path)
	return filepath.Join(dir, stripMarkers(stem)+RedactedMarker+ext)
}

// UnredactedName derives the sibling file name an unredacted copy of path is written to, e.g. "notes_redacted.txt"
// becomes "notes_unredacted.txt". A path without an extension gets ".txt".
func UnredactedName(path string) string {
	dir, stem, ext := splitName(path)
	if ext == "" {
		ext = ".txt"
	}
	return filepath.Join(dir, stripMarkers(stem)+UnredactedMarker+ext)
}

// MappingName returns the default mapping file path for an output path.
func MappingName(output string) string {
	return output + MappingSuffix
}

// ExpandPath expands a leading "~" to the current user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return homedir.Expand(path)
}

func splitName(path string) (dir, stem, ext string) {
	dir, file := filepath.Split(path)
	ext = filepath.Ext(file)
	stem = strings.TrimSuffix(file, ext)
	// Dotfiles such as ".env" have no extension, only a name.
	if stem == "" {
		stem, ext = ext, ""
	}
	return dir, stem, ext
}

func stripMarkers(stem string) string {
	stem = strings.ReplaceAll(stem, UnredactedMarker, "")
	return strings.ReplaceAll(stem, RedactedMarker, "")
}
