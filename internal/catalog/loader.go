// Package catalog loads the book catalog once per process and serves it
// read-only to concurrent searches.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/kibunbook/kibun-server/internal/domain"
	domainerrors "github.com/kibunbook/kibun-server/internal/errors"
	"github.com/kibunbook/kibun-server/internal/logger"
	"github.com/kibunbook/kibun-server/internal/metrics"
	"github.com/kibunbook/kibun-server/internal/validation"
)

// Loader fetches the catalog from a Source on first use and caches it.
// A failed load is not cached; the next call tries the source again.
type Loader struct {
	source    Source
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time

	// loadMu serializes fetches; mu guards the cached state below and is
	// never held while the source is read.
	loadMu   sync.Mutex
	mu       sync.Mutex
	books    []*domain.Book
	byID     map[string]*domain.Book
	loadedAt time.Time
	lastErr  error
}

// Status describes the cache for health checks.
type Status struct {
	Source    string    `json:"source"`
	Loaded    bool      `json:"loaded"`
	Books     int       `json:"books"`
	LoadedAt  time.Time `json:"loaded_at,omitzero"`
	LastError string    `json:"last_error,omitempty"`
}

// NewLoader creates a loader for source.
func NewLoader(source Source, log *slog.Logger) *Loader {
	return &Loader{
		source:    source,
		validator: validation.New(),
		logger:    logger.OrDiscard(log),
		now:       time.Now,
	}
}

// Load returns the catalog, fetching it on the first successful call.
// The returned slice is a copy; the books it points to are shared and must
// not be modified.
func (l *Loader) Load(ctx context.Context) ([]*domain.Book, error) {
	if books := l.cached(); books != nil {
		return books, nil
	}

	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	// Another caller may have finished the load while we waited.
	if books := l.cached(); books != nil {
		return books, nil
	}

	books, err := l.fetch(ctx)
	if err != nil {
		l.mu.Lock()
		l.lastErr = err
		l.mu.Unlock()

		metrics.CatalogLoads.WithLabelValues("error").Inc()
		l.logger.Error("catalog load failed",
			"source", l.source.Name(),
			"error", err,
		)
		return nil, err
	}

	byID := make(map[string]*domain.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	l.mu.Lock()
	l.books = books
	l.byID = byID
	l.loadedAt = l.now()
	l.lastErr = nil
	l.mu.Unlock()

	metrics.CatalogLoads.WithLabelValues("ok").Inc()
	metrics.CatalogBooks.Set(float64(len(books)))
	l.logger.Info("catalog loaded",
		"source", l.source.Name(),
		"books", len(books),
	)

	return slices.Clone(books), nil
}

func (l *Loader) cached() []*domain.Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.books == nil {
		return nil
	}
	return slices.Clone(l.books)
}

// Book returns one book by id, loading the catalog if needed.
func (l *Loader) Book(ctx context.Context, id string) (*domain.Book, error) {
	if _, err := l.Load(ctx); err != nil {
		return nil, err
	}

	l.mu.Lock()
	b, ok := l.byID[id]
	l.mu.Unlock()

	if !ok {
		return nil, domainerrors.NotFoundf("book %q not found", id)
	}
	return b, nil
}

// Status reports the cache state without triggering a load.
func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := Status{
		Source:   l.source.Name(),
		Loaded:   l.books != nil,
		Books:    len(l.books),
		LoadedAt: l.loadedAt,
	}
	if l.lastErr != nil {
		st.LastError = l.lastErr.Error()
	}
	return st
}

// fetch reads, validates and converts all records. Any bad record fails the
// whole load so no partial catalog is ever served.
func (l *Loader) fetch(ctx context.Context) ([]*domain.Book, error) {
	records, err := l.source.Records(ctx)
	if err != nil {
		return nil, domainerrors.CatalogUnavailable("catalog could not be read").WithCause(err)
	}

	problems := make(map[string]any)
	seen := make(map[string]int, len(records))
	books := make([]*domain.Book, 0, len(records))

	for i := range records {
		rec := &records[i]
		key := fmt.Sprintf("records[%d]", i)

		if err := l.validator.Validate(rec); err != nil {
			var vErr *domainerrors.Error
			if domainerrors.As(err, &vErr) {
				problems[key] = vErr.Details
			} else {
				problems[key] = err.Error()
			}
			continue
		}

		b := rec.Book()
		b.IndexText()
		if first, dup := seen[b.ID]; dup {
			problems[key] = fmt.Sprintf("duplicate id %q (first seen at records[%d])", b.ID, first)
			continue
		}
		seen[b.ID] = i
		books = append(books, b)
	}

	if len(problems) > 0 {
		return nil, domainerrors.CatalogUnavailable("catalog could not be parsed").
			WithDetails(problems).
			WithCause(domainerrors.ErrValidation)
	}
	return books, nil
}
