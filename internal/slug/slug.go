// Package slug derives URL-safe identifiers from folder display names.
// The same function backs both the server-side store and the client-side
// live preview, so the two can never disagree.
package slug

import (
	"regexp"
	"strings"
)

const (
	// RootName is the reserved display name of the root folder.
	RootName = "/"
	// RootSlug is the reserved slug of the root folder.
	RootSlug = "root"
	// Fallback is returned for empty input.
	Fallback = "untitled-folder"
)

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	disallowed     = regexp.MustCompile(`[^\w\-]+`)
	hyphenRuns     = regexp.MustCompile(`\-\-+`)
)

// Generate converts a display name into a URL-safe slug: lowercase,
// whitespace runs to single hyphens, "&" to "-and-", everything that is not
// a word character or hyphen stripped, hyphen runs collapsed. The reserved
// root name maps to the reserved root slug exactly.
func Generate(name string) string {
	if name == "" {
		return Fallback
	}
	if name == RootName {
		return RootSlug
	}

	s := strings.TrimSpace(strings.ToLower(name))
	s = whitespaceRuns.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, "&", "-and-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return s
}
