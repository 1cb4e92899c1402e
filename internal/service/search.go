package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/kibunbook/kibun-server/internal/catalog"
	"github.com/kibunbook/kibun-server/internal/domain"
	domainerrors "github.com/kibunbook/kibun-server/internal/errors"
	"github.com/kibunbook/kibun-server/internal/facet"
	"github.com/kibunbook/kibun-server/internal/id"
	"github.com/kibunbook/kibun-server/internal/logger"
	"github.com/kibunbook/kibun-server/internal/metrics"
	"github.com/kibunbook/kibun-server/internal/mood"
	"github.com/kibunbook/kibun-server/internal/ranking"
)

// DefaultSimilarLimit is the number of similar books returned when no limit is given.
const DefaultSimilarLimit = 3

// similarPrefixLen is how many leading characters of the classification code
// two books must share to count as similar.
const similarPrefixLen = 3

// Catalog is the read-only book source the search service works from.
type Catalog interface {
	Load(ctx context.Context) ([]*domain.Book, error)
	Book(ctx context.Context, id string) (*domain.Book, error)
	Status() catalog.Status
}

// SearchConfig is the explicit configuration of a SearchService.
type SearchConfig struct {
	// Delay is an artificial latency added before every search.
	Delay time.Duration
	// Now anchors the era filter. Defaults to time.Now.
	Now func() time.Time
	// NewSearchID mints search identifiers. Defaults to id.NewSearchID.
	NewSearchID func() (string, error)
}

// SearchService runs mood searches over the catalog.
// It holds no per-request state and is safe for concurrent use.
type SearchService struct {
	catalog    Catalog
	classifier mood.Classifier
	fallback   domain.MoodScore
	cfg        SearchConfig
	logger     *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(cat Catalog, classifier mood.Classifier, cfg SearchConfig, log *slog.Logger) *SearchService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewSearchID == nil {
		cfg.NewSearchID = id.NewSearchID
	}

	fallback := domain.MoodScore{Mood: domain.MoodShinmiri, Score: 0.5}
	if d, ok := classifier.(interface{ DefaultScore() domain.MoodScore }); ok {
		fallback = d.DefaultScore()
	}

	return &SearchService{
		catalog:    cat,
		classifier: classifier,
		fallback:   fallback,
		cfg:        cfg,
		logger:     logger.OrDiscard(log),
	}
}

// Search loads the catalog, applies the facets, scores the remaining books
// and ranks them for the selected moods. The result is all-or-nothing.
func (s *SearchService) Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.search(ctx, params)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		return nil, err
	case result.TotalCount == 0:
		metrics.SearchesTotal.WithLabelValues("empty").Inc()
	default:
		metrics.SearchesTotal.WithLabelValues("ok").Inc()
	}

	s.logger.Debug("search complete",
		"search_id", result.SearchID,
		"moods", params.Moods,
		"free_text", params.FreeText,
		"results", result.TotalCount,
		"threshold", result.AppliedThreshold,
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *SearchService) search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error) {
	books, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	filtered := facet.Filter(books, params.FreeText, params.Filters, s.cfg.Now().Year())
	scored := s.classifyAll(ctx, filtered)

	moods := validMoods(params.Moods)
	hasFreeText := strings.TrimSpace(params.FreeText) != ""
	outcome := ranking.RankByMood(scored, moods, hasFreeText)
	if len(moods) > 0 {
		metrics.ThresholdRelaxationSteps.Observe(float64(len(outcome.ThresholdsTried) - 1))
	}

	SortResults(outcome.Books, params.SortBy)

	searchID, err := s.cfg.NewSearchID()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate search id")
	}

	return &domain.SearchResult{
		SearchID:         searchID,
		Books:            outcome.Books,
		TotalCount:       len(outcome.Books),
		AppliedThreshold: outcome.AppliedThreshold,
		ThresholdsTried:  outcome.ThresholdsTried,
	}, nil
}

// GetBook returns one book with its mood scores.
func (s *SearchService) GetBook(ctx context.Context, bookID string) (*domain.ScoredBook, error) {
	book, err := s.catalog.Book(ctx, bookID)
	if err != nil {
		return nil, err
	}
	scored := s.classify(ctx, book)
	return &scored, nil
}

// SimilarBooks returns other books whose classification code shares its first
// three characters with the given book, in catalog order. A limit of zero or
// less means DefaultSimilarLimit.
func (s *SearchService) SimilarBooks(ctx context.Context, bookID string, limit int) ([]domain.ScoredBook, error) {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	book, err := s.catalog.Book(ctx, bookID)
	if err != nil {
		return nil, err
	}
	out := []domain.ScoredBook{}
	if book.NDC == "" {
		return out, nil
	}

	books, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	prefix := book.ClassPrefix(similarPrefixLen)
	for _, b := range books {
		if len(out) == limit {
			break
		}
		if b.ID == book.ID || b.NDC == "" || b.ClassPrefix(similarPrefixLen) != prefix {
			continue
		}
		out = append(out, s.classify(ctx, b))
	}
	return out, nil
}

// Moods returns the selectable moods in display order.
func (s *SearchService) Moods() []domain.Mood {
	return domain.Moods()
}

// CatalogStatus reports the catalog cache state.
func (s *SearchService) CatalogStatus() catalog.Status {
	return s.catalog.Status()
}

func (s *SearchService) classifyAll(ctx context.Context, books []*domain.Book) []domain.ScoredBook {
	out := make([]domain.ScoredBook, len(books))
	for i, b := range books {
		out[i] = s.classify(ctx, b)
	}
	return out
}

// classify never fails: a classifier error yields the safe default score.
func (s *SearchService) classify(ctx context.Context, book *domain.Book) domain.ScoredBook {
	scores, err := s.classifier.Classify(ctx, book)
	if err != nil {
		metrics.ClassificationFallbacks.WithLabelValues("error").Inc()
		s.logger.Warn("classification failed, using default mood",
			"book_id", book.ID,
			"error", err,
		)
		scores = []domain.MoodScore{s.fallback}
	}
	return domain.ScoredBook{Book: book, MoodScores: scores}
}

// wait applies the configured artificial delay.
func (s *SearchService) wait(ctx context.Context) error {
	if s.cfg.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SortResults reorders ranked books for the requested sort. mood_match and
// unknown values keep the ranker's order.
func SortResults(books []domain.ScoredBook, sortBy domain.SortBy) {
	switch sortBy {
	case domain.SortPublicationDate:
		slices.SortStableFunc(books, func(a, b domain.ScoredBook) int {
			ay, by := a.Book.PublishYear, b.Book.PublishYear
			switch {
			case ay == by:
				return 0
			case ay == 0:
				return 1
			case by == 0:
				return -1
			default:
				return cmp.Compare(by, ay)
			}
		})
	case domain.SortPopularity:
		slices.SortStableFunc(books, func(a, b domain.ScoredBook) int {
			return cmp.Compare(b.Book.Demand(), a.Book.Demand())
		})
	}
}

// validMoods resolves keys and labels to keys. Unknown and repeated entries
// are dropped.
func validMoods(moods []domain.MoodKey) []domain.MoodKey {
	in := make([]string, len(moods))
	for i, m := range moods {
		in[i] = string(m)
	}
	return domain.ParseMoods(in)
}
