// Package normalize provides text normalization for matching Japanese and
// Latin text regardless of character width or case.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Text returns a matching key for s:
//   - null bytes are dropped
//   - full-width ASCII is narrowed and half-width katakana is widened
//   - the result is NFC composed
//   - case is folded
//
// "ＭＩＳＴＥＲＹ" and "mystery" produce the same key, as do "ﾐｽﾃﾘ" and "ミステリ".
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = sanitizeString(s)
	s = width.Fold.String(s)
	s = norm.NFC.String(s)
	// cases.Caser is stateful, so a new one is taken per call.
	return cases.Fold().String(s)
}

// Join normalizes each part and joins them with a single space.
// Empty parts are skipped.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = Text(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Contains reports whether the normalized haystack contains the normalized needle.
// An empty needle never matches.
func Contains(haystack, needle string) bool {
	needle = Text(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(Text(haystack), needle)
}

// ContainsNormalized is Contains for inputs that are already normalized.
func ContainsNormalized(normalizedHaystack, normalizedNeedle string) bool {
	if normalizedNeedle == "" {
		return false
	}
	return strings.Contains(normalizedHaystack, normalizedNeedle)
}

// sanitizeString removes null bytes, which some catalog exports leave in strings.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
