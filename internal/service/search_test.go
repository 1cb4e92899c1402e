package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kibunbook/kibun-server/internal/catalog"
	"github.com/kibunbook/kibun-server/internal/domain"
	domainerrors "github.com/kibunbook/kibun-server/internal/errors"
	"github.com/kibunbook/kibun-server/internal/mood"
)

type staticSource struct {
	records []catalog.Record
	err     error
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Records(context.Context) ([]catalog.Record, error) {
	return s.records, s.err
}

func year(y int) *int { return &y }

// sixBooks is a catalog in which exactly two summaries mention ミステリ.
func sixBooks() []catalog.Record {
	return []catalog.Record{
		{ID: "1", Title: "夜の推理", Summary: "連続殺人事件の謎を追うミステリー", NDC: "913.6", PublishYear: year(2020)},
		{ID: "2", Title: "霧の館", Summary: "古い館を舞台にしたミステリ", NDC: "913.6", PublishYear: year(1950)},
		{ID: "3", Title: "家族の食卓", Summary: "家族の思い出をたどる", NDC: "914.6"},
		{ID: "4", Title: "宇宙の科学", Summary: "科学の最前線を解説", NDC: "440", PublishYear: year(2015)},
		{ID: "5", Title: "恋の季節", Summary: "初恋の物語", NDC: "913.6", PublishYear: year(1960)},
		{ID: "6", Title: "笑う門", Summary: "コメディ短編集", NDC: "913.6", PublishYear: year(2024)},
	}
}

func newTestService(t *testing.T, src catalog.Source, classifier mood.Classifier) *SearchService {
	t.Helper()
	if classifier == nil {
		rules, err := mood.DefaultRules()
		require.NoError(t, err)
		classifier = mood.NewRuleClassifier(rules, mood.FixedFallback(domain.MoodIyasaretai), nil)
	}

	n := 0
	var mu sync.Mutex
	return NewSearchService(catalog.NewLoader(src, nil), classifier, SearchConfig{
		Now: func() time.Time { return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) },
		NewSearchID: func() (string, error) {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("srch-%d", n), nil
		},
	}, nil)
}

func resultIDs(books []domain.ScoredBook) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Book.ID
	}
	return out
}

func TestSearch_MysteryMood(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)

	res, err := svc.Search(context.Background(), domain.SearchParams{
		Moods: []domain.MoodKey{domain.MoodZokuzoku},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, resultIDs(res.Books))
	assert.Equal(t, 2, res.TotalCount)
	assert.InDelta(t, 0.40, res.AppliedThreshold, 1e-9)
	assert.Equal(t, []float64{0.40}, res.ThresholdsTried)
	assert.Equal(t, "srch-1", res.SearchID)

	for _, b := range res.Books {
		assert.GreaterOrEqual(t, domain.ScoreFor(b.MoodScores, domain.MoodZokuzoku), 0.40)
	}
	assert.InDelta(t, 0.715, res.Books[0].MatchSum, 1e-9)
	assert.InDelta(t, 0.655, res.Books[1].MatchSum, 1e-9)
}

func TestSearch_EmptyParamsReturnsCatalogByTitle(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)

	res, err := svc.Search(context.Background(), domain.SearchParams{})
	require.NoError(t, err)
	require.Equal(t, 6, res.TotalCount)

	titles := make([]string, len(res.Books))
	for i, b := range res.Books {
		titles[i] = b.Book.Title
		assert.NotEmpty(t, b.MoodScores, "book %s should carry mood scores", b.Book.ID)
	}

	want := slices.Clone(titles)
	col := collate.New(language.Japanese)
	slices.SortStableFunc(want, col.CompareString)
	assert.Equal(t, want, titles)
	assert.Zero(t, res.AppliedThreshold)
	assert.Empty(t, res.ThresholdsTried)
}

func TestSearch_FreeTextLowersThreshold(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)

	res, err := svc.Search(context.Background(), domain.SearchParams{
		Moods:    []domain.MoodKey{domain.MoodZokuzoku},
		FreeText: " ﾐｽﾃﾘ ",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, resultIDs(res.Books))
	assert.InDelta(t, 0.25, res.AppliedThreshold, 1e-9)
}

func TestSearch_NoMatchIsEmptyNotError(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)

	res, err := svc.Search(context.Background(), domain.SearchParams{
		Moods: []domain.MoodKey{domain.MoodZokuzoku, domain.MoodKyun},
	})
	require.NoError(t, err)

	assert.Empty(t, res.Books)
	assert.NotNil(t, res.Books)
	assert.Zero(t, res.TotalCount)
	assert.Equal(t, []float64{0.40, 0.35, 0.30, 0.25, 0.20}, res.ThresholdsTried)
}

func TestSearch_MoodLabels(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)

	res, err := svc.Search(context.Background(), domain.SearchParams{
		Moods: []domain.MoodKey{"ゾクゾクしたい", domain.MoodZokuzoku},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, resultIDs(res.Books))
	assert.Equal(t, []float64{0.40}, res.ThresholdsTried)
}

func TestSearch_UnknownMoodsAreIgnored(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)

	res, err := svc.Search(context.Background(), domain.SearchParams{
		Moods: []domain.MoodKey{"ukiuki"},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalCount)
	assert.Empty(t, res.ThresholdsTried)
}

func TestSearch_Filters(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)
	ctx := context.Background()

	res, err := svc.Search(ctx, domain.SearchParams{Filters: domain.Filters{Type: domain.TypeNonFiction}})
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, resultIDs(res.Books))

	res, err = svc.Search(ctx, domain.SearchParams{
		Moods:   []domain.MoodKey{domain.MoodZokuzoku},
		Filters: domain.Filters{Era: domain.EraRecent},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, resultIDs(res.Books))

	// unknown filter values are no-ops
	res, err = svc.Search(ctx, domain.SearchParams{Filters: domain.Filters{Era: "future", Type: "poems"}})
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalCount)
}

func TestSearch_IsIdempotent(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)
	params := domain.SearchParams{
		Moods:  []domain.MoodKey{domain.MoodShinmiri},
		SortBy: domain.SortPublicationDate,
	}

	first, err := svc.Search(context.Background(), params)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), params)
	require.NoError(t, err)

	assert.NotEqual(t, first.SearchID, second.SearchID)
	first.SearchID, second.SearchID = "", ""
	assert.Equal(t, first, second)
}

func TestSearch_ConcurrentSearchesDoNotInterfere(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)
	ctx := context.Background()

	queries := []domain.SearchParams{
		{Moods: []domain.MoodKey{domain.MoodZokuzoku}},
		{Moods: []domain.MoodKey{domain.MoodShiritai, domain.MoodWakuwaku}},
		{Moods: []domain.MoodKey{domain.MoodKyun}, FreeText: "恋"},
		{},
	}

	want := make([][]domain.ScoredBook, len(queries))
	for i, q := range queries {
		res, err := svc.Search(ctx, q)
		require.NoError(t, err)
		want[i] = res.Books
	}

	var wg sync.WaitGroup
	for range 8 {
		for i, q := range queries {
			wg.Go(func() {
				res, err := svc.Search(ctx, q)
				if assert.NoError(t, err) {
					assert.Equal(t, want[i], res.Books)
				}
			})
		}
	}
	wg.Wait()
}

func TestSearch_CatalogUnavailable(t *testing.T) {
	svc := newTestService(t, staticSource{err: errors.New("network down")}, nil)

	res, err := svc.Search(context.Background(), domain.SearchParams{})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrCatalogUnavailable)
}

// brokenClassifier fails for one book and delegates the rest.
type brokenClassifier struct {
	mood.Classifier
	failID string
}

func (c brokenClassifier) Classify(ctx context.Context, b *domain.Book) ([]domain.MoodScore, error) {
	if b.ID == c.failID {
		return nil, domainerrors.ClassificationFailedf("boom")
	}
	return c.Classifier.Classify(ctx, b)
}

func TestSearch_ClassificationFailureUsesDefault(t *testing.T) {
	rules, err := mood.DefaultRules()
	require.NoError(t, err)
	inner := mood.NewRuleClassifier(rules, mood.FixedFallback(domain.MoodIyasaretai), nil)
	svc := newTestService(t, staticSource{records: sixBooks()}, brokenClassifier{Classifier: inner, failID: "4"})

	res, err := svc.Search(context.Background(), domain.SearchParams{
		Moods: []domain.MoodKey{domain.MoodShinmiri},
	})
	require.NoError(t, err)

	// "4" now scores shinmiri 0.5 through the default and "3" keeps its 0.665
	assert.Equal(t, []string{"3", "4"}, resultIDs(res.Books))
	assert.Equal(t, []domain.MoodScore{{Mood: domain.MoodShinmiri, Score: 0.5}}, res.Books[1].MoodScores)
}

func TestSearch_DelayHonorsContext(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)
	svc.cfg.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, domain.SearchParams{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_DelayElapses(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)
	svc.cfg.Delay = 20 * time.Millisecond

	start := time.Now()
	_, err := svc.Search(context.Background(), domain.SearchParams{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSortResults(t *testing.T) {
	book := func(id string, year int, statuses ...domain.HoldingStatus) domain.ScoredBook {
		b := &domain.Book{ID: id, PublishYear: year}
		for _, s := range statuses {
			b.Holdings = append(b.Holdings, domain.Holding{Status: s})
		}
		return domain.ScoredBook{Book: b}
	}
	ranked := func() []domain.ScoredBook {
		return []domain.ScoredBook{
			book("a", 1990, domain.HoldingAvailable),
			book("b", 0, domain.HoldingCheckedOut, domain.HoldingReserved),
			book("c", 2020),
			book("d", 2020, domain.HoldingCheckedOut),
		}
	}

	books := ranked()
	SortResults(books, domain.SortPublicationDate)
	assert.Equal(t, []string{"c", "d", "a", "b"}, resultIDs(books))

	books = ranked()
	SortResults(books, domain.SortPopularity)
	assert.Equal(t, []string{"b", "d", "a", "c"}, resultIDs(books))

	for _, s := range []domain.SortBy{domain.SortMoodMatch, "", "random"} {
		books = ranked()
		SortResults(books, s)
		assert.Equal(t, []string{"a", "b", "c", "d"}, resultIDs(books))
	}
}

func TestGetBook(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)

	b, err := svc.GetBook(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "夜の推理", b.Book.Title)
	require.NotEmpty(t, b.MoodScores)
	assert.Equal(t, domain.MoodZokuzoku, b.MoodScores[0].Mood)

	_, err = svc.GetBook(context.Background(), "missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSimilarBooks(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)
	ctx := context.Background()

	similar, err := svc.SimilarBooks(ctx, "1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "5", "6"}, resultIDs(similar))

	similar, err = svc.SimilarBooks(ctx, "1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, resultIDs(similar))

	similar, err = svc.SimilarBooks(ctx, "3", 5)
	require.NoError(t, err)
	assert.Empty(t, similar)

	_, err = svc.SimilarBooks(ctx, "missing", 3)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSimilarBooks_NoClassificationCode(t *testing.T) {
	records := append(sixBooks(), catalog.Record{ID: "7", Title: "分類なし"})
	svc := newTestService(t, staticSource{records: records}, nil)

	similar, err := svc.SimilarBooks(context.Background(), "7", 3)
	require.NoError(t, err)
	assert.NotNil(t, similar)
	assert.Empty(t, similar)
}

func TestMoodsAndStatus(t *testing.T) {
	svc := newTestService(t, staticSource{records: sixBooks()}, nil)

	assert.Len(t, svc.Moods(), 8)
	assert.False(t, svc.CatalogStatus().Loaded)

	_, err := svc.Search(context.Background(), domain.SearchParams{})
	require.NoError(t, err)
	assert.True(t, svc.CatalogStatus().Loaded)
	assert.Equal(t, 6, svc.CatalogStatus().Books)
}
