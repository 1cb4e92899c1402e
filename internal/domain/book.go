// Package domain contains the core entities of the kibun book-discovery engine.
package domain

import "github.com/kibunbook/kibun-server/internal/normalize"

// Book is a catalog entry. Books are created once when the catalog loads and
// are shared read-only between concurrent searches; request-scoped data such
// as mood scores lives in ScoredBook, never on the Book itself.
type Book struct {
	ID          string    `json:"id"`
	ISBN        string    `json:"isbn,omitempty"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors"`
	Publisher   string    `json:"publisher,omitempty"`
	PublishYear int       `json:"publish_year,omitempty"` // 0 when unknown
	Summary     string    `json:"summary,omitempty"`
	NDC         string    `json:"ndc,omitempty"` // Nippon Decimal Classification, e.g. "913.6"
	Subjects    []string  `json:"subjects,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	PageCount   int       `json:"page_count,omitempty"` // 0 when unknown
	DetailURL   string    `json:"detail_url,omitempty"`
	Holdings    []Holding `json:"holdings,omitempty"`

	textFields []string // normalized title, summary, authors and subjects
}

// HoldingStatus is the circulation state of a physical copy.
type HoldingStatus string

// Holding statuses.
const (
	HoldingAvailable  HoldingStatus = "available"
	HoldingCheckedOut HoldingStatus = "checked_out"
	HoldingReserved   HoldingStatus = "reserved"
)

// Holding is one physical copy of a book.
type Holding struct {
	ID         string        `json:"id"`
	Location   string        `json:"location"`
	CallNumber string        `json:"call_number"`
	Status     HoldingStatus `json:"status"`
}

// HasPublishYear reports whether the publication year is known.
func (b *Book) HasPublishYear() bool {
	return b.PublishYear > 0
}

// HasPageCount reports whether the page count is known.
func (b *Book) HasPageCount() bool {
	return b.PageCount > 0
}

// Demand counts copies that are currently checked out or reserved.
// It is the popularity signal used when sorting by popularity.
func (b *Book) Demand() int {
	n := 0
	for _, h := range b.Holdings {
		if h.Status == HoldingCheckedOut || h.Status == HoldingReserved {
			n++
		}
	}
	return n
}

// ClassPrefix returns the first n characters of the classification code,
// or the whole code when it is shorter.
func (b *Book) ClassPrefix(n int) string {
	if len(b.NDC) <= n {
		return b.NDC
	}
	return b.NDC[:n]
}

// IndexText normalizes the free-text fields once. It must be called before
// the book is shared.
func (b *Book) IndexText() {
	b.textFields = b.normalizedFields()
}

// TextFields returns the normalized title, summary, authors and subjects,
// computing them when IndexText has not been called.
func (b *Book) TextFields() []string {
	if b.textFields != nil {
		return b.textFields
	}
	return b.normalizedFields()
}

func (b *Book) normalizedFields() []string {
	out := make([]string, 0, 2+len(b.Authors)+len(b.Subjects))
	out = append(out, normalize.Text(b.Title), normalize.Text(b.Summary))
	for _, a := range b.Authors {
		out = append(out, normalize.Text(a))
	}
	for _, s := range b.Subjects {
		out = append(out, normalize.Text(s))
	}
	return out
}
