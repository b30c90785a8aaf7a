package grading

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims, collapses inner whitespace, composes to NFC and case-folds.
func Normalize(s string) string {
	return cases.Fold().String(squash(s))
}

// Equal compares two learner-facing strings. Without caseSensitive both sides are
// normalized; with it only whitespace is normalized.
func Equal(want, got string, caseSensitive bool) bool {
	if caseSensitive {
		return squash(want) == squash(got)
	}
	return Normalize(want) == Normalize(got)
}

func squash(s string) string {
	s = norm.NFC.String(s)
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && len(out) > 0 {
			out = append(out, ' ')
		}
		space = false
		out = append(out, r)
	}
	return strings.TrimSpace(string(out))
}
