// Package slug derives heading anchor IDs the same way the geopub renderer
// assigns them, so generated links resolve against rendered headings.
package slug

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	invalidChars = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphens      = regexp.MustCompile(`-+`)
	lower        = cases.Lower(language.Und)
)

// Normalize converts heading text to a URL fragment: lowercased, stripped of
// everything but letters, digits, whitespace, underscores and hyphens, with
// whitespace runs turned into single hyphens. Identical labels give
// identical slugs.
func Normalize(label string) string {
	s := lower.String(label)
	s = invalidChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
