// Package docsets manages named documentation sets, each backed by a single
// search-index artifact. It fetches artifacts from their sources, validates
// and caches them, and answers term lookups and full-text searches over the
// combined fleet.
package docsets

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidSource indicates a source spec is neither an HTTP(S) URL nor a
// usable local path.
var ErrInvalidSource = errors.New("invalid docset source")

// artifactFilename is the conventional name of the search-index artifact.
const artifactFilename = "searchindex.js"

// IsRemoteSource reports whether a source spec is fetched over HTTP(S).
func IsRemoteSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// ParseSource validates a source spec and returns its display name: the
// host+path of a URL, or the path itself for local sources, both without
// the trailing artifact filename.
//
// Examples:
//   - https://ooipy.readthedocs.io/en/latest/searchindex.js -> ooipy.readthedocs.io/en/latest
//   - /var/docs/ooipy/searchindex.js -> /var/docs/ooipy
func ParseSource(source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", ErrInvalidSource
	}

	if IsRemoteSource(source) {
		u, err := url.Parse(source)
		if err != nil || u.Host == "" {
			return "", ErrInvalidSource
		}
		display := u.Host + strings.TrimSuffix(u.Path, "/")
		return trimArtifactName(display), nil
	}

	return trimArtifactName(source), nil
}

// SourceToDocsetID converts a source spec to a filesystem-safe docset ID.
// The ID is used for directory names and index references.
//
// Examples:
//   - https://ooipy.readthedocs.io/en/latest/searchindex.js -> ooipy.readthedocs.io_en_latest
//   - /var/docs/ooipy/searchindex.js -> var_docs_ooipy
func SourceToDocsetID(source string) string {
	display, err := ParseSource(source)
	if err != nil {
		display = source
	}
	return sanitizeForFilesystem(display)
}

// SourceToDisplay converts a source spec to the docset name shown to
// clients and stored on indexed pages. Inverting the filesystem-safe ID
// would mangle sources whose paths contain underscores, so the display is
// always derived from the source itself.
//
// Example: https://ooipy.readthedocs.io/en/latest/searchindex.js -> ooipy.readthedocs.io/en/latest
func SourceToDisplay(source string) string {
	display, err := ParseSource(source)
	if err != nil {
		return strings.TrimSpace(source)
	}
	return display
}

// trimArtifactName strips a trailing /searchindex.js from a display name.
func trimArtifactName(display string) string {
	display = strings.TrimSuffix(display, "/")
	display = strings.TrimSuffix(display, artifactFilename)
	return strings.TrimSuffix(display, "/")
}

// sanitizeForFilesystem converts a string to a filesystem-safe format.
func sanitizeForFilesystem(s string) string {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.Trim(s, "/")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "@", "_")
	return s
}
