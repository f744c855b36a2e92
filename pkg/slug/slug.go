// Package slug turns Figma layer names into file stems and CSS class names.
package slug

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`[\s\p{Z}]+`)
	disallowedRe = regexp.MustCompile(`[^a-z0-9-]`)
)

// Make lower-cases name, replaces whitespace runs (Unicode spaces included)
// with a single hyphen and
// strips every character outside [a-z0-9-]. It is idempotent.
// Distinct names may produce the same slug; callers do not disambiguate.
func Make(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRe.ReplaceAllString(s, "-")
	return disallowedRe.ReplaceAllString(s, "")
}

// OrFallback is Make, except that a name with no usable characters falls
// back to "node-" plus the slugged node ID ("12:34" -> "node-12-34").
func OrFallback(name, id string) string {
	if s := Make(name); s != "" {
		return s
	}
	if s := Make(strings.ReplaceAll(id, ":", "-")); s != "" {
		return "node-" + s
	}
	return "node"
}
