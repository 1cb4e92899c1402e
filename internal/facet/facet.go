// Package facet narrows a candidate set by free text and structural filters.
// Every filter is a no-op for books that lack the field it inspects.
package facet

import (
	"strings"

	"github.com/kibunbook/kibun-server/internal/domain"
	"github.com/kibunbook/kibun-server/internal/normalize"
)

// Era and length boundaries.
const (
	RecentYears  = 10  // recent: at most this many years old
	ClassicYears = 50  // classic: strictly older than this
	ShortPages   = 200 // short: at most this many pages
	LongPages    = 400 // long: strictly more than this
)

// Filter returns the books matching freeText and filters, in input order.
// currentYear anchors the era filter.
func Filter(books []*domain.Book, freeText string, filters domain.Filters, currentYear int) []*domain.Book {
	needle := normalize.Text(strings.TrimSpace(freeText))

	out := make([]*domain.Book, 0, len(books))
	for _, b := range books {
		if !MatchesText(b, needle) {
			continue
		}
		if !MatchesEra(b, filters.Era, currentYear) {
			continue
		}
		if !MatchesLength(b, filters.Length) {
			continue
		}
		if !MatchesType(b, filters.Type) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// MatchesText reports whether the normalized needle occurs in the title,
// summary, any author or any subject. An empty needle matches everything.
func MatchesText(b *domain.Book, needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range b.TextFields() {
		if normalize.ContainsNormalized(field, needle) {
			return true
		}
	}
	return false
}

// MatchesEra applies the era facet.
func MatchesEra(b *domain.Book, era domain.Era, currentYear int) bool {
	if !b.HasPublishYear() {
		return true
	}
	age := currentYear - b.PublishYear
	switch era {
	case domain.EraRecent:
		return age <= RecentYears
	case domain.EraClassic:
		return age > ClassicYears
	default:
		return true
	}
}

// MatchesLength applies the length facet.
func MatchesLength(b *domain.Book, length domain.Length) bool {
	if !b.HasPageCount() {
		return true
	}
	switch length {
	case domain.LengthShort:
		return b.PageCount <= ShortPages
	case domain.LengthMedium:
		return b.PageCount > ShortPages && b.PageCount <= LongPages
	case domain.LengthLong:
		return b.PageCount > LongPages
	default:
		return true
	}
}

// MatchesType applies the fiction/non-fiction facet.
func MatchesType(b *domain.Book, t domain.BookType) bool {
	code := strings.TrimSpace(b.NDC)
	if code == "" {
		return true
	}
	switch t {
	case domain.TypeFiction:
		return !IsNonFiction(code)
	case domain.TypeNonFiction:
		return IsNonFiction(code)
	default:
		return true
	}
}

// IsNonFiction reports whether a classification code belongs to the
// non-fiction part of the code space: a leading digit from 0 to 7.
// Codes starting with 8 (language) or 9 (literature), or with no digit, are fiction.
func IsNonFiction(code string) bool {
	if code == "" {
		return false
	}
	c := code[0]
	return c >= '0' && c <= '7'
}
