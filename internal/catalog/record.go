package catalog

import (
	"net/url"
	"strings"

	"github.com/kibunbook/kibun-server/internal/domain"
)

// Record is a raw catalog entry as a source delivers it. Everything except
// id and title is optional; Book fills the gaps.
type Record struct {
	ID          string          `json:"id" validate:"required"`
	ISBN        string          `json:"isbn,omitempty"`
	Title       string          `json:"title" validate:"required"`
	Authors     []string        `json:"authors,omitempty"`
	Publisher   string          `json:"publisher,omitempty"`
	PubYear     *int            `json:"pubYear,omitempty" validate:"omitempty,gte=0"`
	PublishYear *int            `json:"publishYear,omitempty" validate:"omitempty,gte=0"`
	Summary     string          `json:"summary,omitempty"`
	NDC         string          `json:"ndc,omitempty"`
	Subjects    []string        `json:"subjects,omitempty"`
	CoverImage  string          `json:"coverImage,omitempty"`
	PageCount   *int            `json:"pageCount,omitempty" validate:"omitempty,gte=0"`
	DetailURL   string          `json:"detailUrl,omitempty"`
	Holdings    []HoldingRecord `json:"holdings,omitempty" validate:"dive"`
}

// HoldingRecord is a raw physical-copy entry. A missing status means available.
type HoldingRecord struct {
	ID         string `json:"id"`
	Location   string `json:"location,omitempty"`
	CallNumber string `json:"callNumber,omitempty"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=available checked_out reserved"`
}

// Year returns the publication year, preferring publishYear over pubYear.
// Zero means unknown.
func (r *Record) Year() int {
	switch {
	case r.PublishYear != nil:
		return *r.PublishYear
	case r.PubYear != nil:
		return *r.PubYear
	default:
		return 0
	}
}

// Book converts a validated record into the canonical Book shape.
// Slices are never nil so downstream code can range without checks.
func (r *Record) Book() *domain.Book {
	b := &domain.Book{
		ID:          strings.TrimSpace(r.ID),
		ISBN:        strings.TrimSpace(r.ISBN),
		Title:       strings.TrimSpace(r.Title),
		Authors:     compact(r.Authors),
		Publisher:   strings.TrimSpace(r.Publisher),
		PublishYear: r.Year(),
		Summary:     strings.TrimSpace(r.Summary),
		NDC:         strings.TrimSpace(r.NDC),
		Subjects:    compact(r.Subjects),
		CoverImage:  strings.TrimSpace(r.CoverImage),
		DetailURL:   httpURL(r.DetailURL),
		Holdings:    make([]domain.Holding, 0, len(r.Holdings)),
	}
	if r.PageCount != nil {
		b.PageCount = *r.PageCount
	}
	for _, h := range r.Holdings {
		status := domain.HoldingStatus(h.Status)
		if status == "" {
			status = domain.HoldingAvailable
		}
		b.Holdings = append(b.Holdings, domain.Holding{
			ID:         h.ID,
			Location:   h.Location,
			CallNumber: h.CallNumber,
			Status:     status,
		})
	}
	return b
}

// RecordFromBook is the inverse of Book, used when copying a catalog into
// another store.
func RecordFromBook(b *domain.Book) Record {
	r := Record{
		ID:         b.ID,
		ISBN:       b.ISBN,
		Title:      b.Title,
		Authors:    b.Authors,
		Publisher:  b.Publisher,
		Summary:    b.Summary,
		NDC:        b.NDC,
		Subjects:   b.Subjects,
		CoverImage: b.CoverImage,
		DetailURL:  b.DetailURL,
	}
	if b.HasPublishYear() {
		y := b.PublishYear
		r.PublishYear = &y
	}
	if b.HasPageCount() {
		p := b.PageCount
		r.PageCount = &p
	}
	for _, h := range b.Holdings {
		r.Holdings = append(r.Holdings, HoldingRecord{
			ID:         h.ID,
			Location:   h.Location,
			CallNumber: h.CallNumber,
			Status:     string(h.Status),
		})
	}
	return r
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// httpURL returns raw when it is an absolute http(s) URL, otherwise "".
func httpURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}
