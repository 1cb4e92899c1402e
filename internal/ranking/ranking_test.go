package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kibunbook/kibun-server/internal/domain"
)

func scored(id, title string, scores ...domain.MoodScore) domain.ScoredBook {
	return domain.ScoredBook{
		Book:       &domain.Book{ID: id, Title: title},
		MoodScores: scores,
	}
}

func ms(m domain.MoodKey, s float64) domain.MoodScore {
	return domain.MoodScore{Mood: m, Score: s}
}

func bookIDs(books []domain.ScoredBook) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Book.ID
	}
	return out
}

func TestThresholds(t *testing.T) {
	assert.Equal(t, []float64{0.40, 0.35, 0.30, 0.25, 0.20}, Thresholds(false))
	assert.Equal(t, []float64{0.25, 0.20}, Thresholds(true))
}

func TestRankByMood_NoMoodsSortsByTitle(t *testing.T) {
	books := []domain.ScoredBook{
		scored("3", "うし", ms(domain.MoodKyun, 0.9)),
		scored("1", "あり"),
		scored("2", "いぬ", ms(domain.MoodNakitai, 0.1)),
	}

	out := RankByMood(books, nil, false)

	assert.Equal(t, []string{"1", "2", "3"}, bookIDs(out.Books))
	assert.Zero(t, out.AppliedThreshold)
	assert.Empty(t, out.ThresholdsTried)
	for _, b := range out.Books {
		assert.Zero(t, b.MatchSum)
		assert.Zero(t, b.MatchMin)
	}

	// input untouched
	assert.Equal(t, "3", books[0].Book.ID)
}

func TestRankByMood_SingleMoodBaseThreshold(t *testing.T) {
	books := []domain.ScoredBook{
		scored("weak", "a", ms(domain.MoodZokuzoku, 0.39)),
		scored("strong", "b", ms(domain.MoodZokuzoku, 0.715)),
		scored("edge", "c", ms(domain.MoodZokuzoku, 0.40)),
		scored("other", "d", ms(domain.MoodKyun, 0.9)),
	}

	out := RankByMood(books, []domain.MoodKey{domain.MoodZokuzoku}, false)

	assert.Equal(t, []string{"strong", "edge"}, bookIDs(out.Books))
	assert.InDelta(t, 0.40, out.AppliedThreshold, 1e-9)
	assert.Equal(t, []float64{0.40}, out.ThresholdsTried)
	assert.InDelta(t, 0.715, out.Books[0].MatchSum, 1e-9)
	assert.InDelta(t, 0.715, out.Books[0].MatchMin, 1e-9)
}

func TestRankByMood_RelaxesToThirty(t *testing.T) {
	books := []domain.ScoredBook{
		// only one of the two moods
		scored("lopsided", "a", ms(domain.MoodNakitai, 0.9), ms(domain.MoodShinmiri, 0.1)),
		// both moods at 0.30
		scored("balanced", "b", ms(domain.MoodNakitai, 0.3), ms(domain.MoodShinmiri, 0.3)),
		// both moods, one just under 0.30
		scored("close", "c", ms(domain.MoodNakitai, 0.6), ms(domain.MoodShinmiri, 0.29)),
	}

	out := RankByMood(books, []domain.MoodKey{domain.MoodNakitai, domain.MoodShinmiri}, false)

	require.Equal(t, []string{"balanced"}, bookIDs(out.Books))
	assert.InDelta(t, 0.30, out.AppliedThreshold, 1e-9)
	assert.Equal(t, []float64{0.40, 0.35, 0.30}, out.ThresholdsTried)
	assert.InDelta(t, 0.6, out.Books[0].MatchSum, 1e-9)
	assert.InDelta(t, 0.3, out.Books[0].MatchMin, 1e-9)
}

func TestRankByMood_FloatNoiseAtRelaxedThreshold(t *testing.T) {
	// 0.7*0.5-0.05 evaluates to just below 0.30
	books := []domain.ScoredBook{
		scored("x", "x", ms(domain.MoodKyun, 0.7*0.5-0.05)),
	}

	out := RankByMood(books, []domain.MoodKey{domain.MoodKyun}, false)
	require.Len(t, out.Books, 1)
	assert.InDelta(t, 0.30, out.AppliedThreshold, 1e-9)
}

func TestRankByMood_FreeTextStartsLower(t *testing.T) {
	books := []domain.ScoredBook{
		scored("x", "x", ms(domain.MoodWaraitai, 0.26)),
	}

	withText := RankByMood(books, []domain.MoodKey{domain.MoodWaraitai}, true)
	assert.Equal(t, []string{"x"}, bookIDs(withText.Books))
	assert.Equal(t, []float64{0.25}, withText.ThresholdsTried)

	withoutText := RankByMood(books, []domain.MoodKey{domain.MoodWaraitai}, false)
	assert.Equal(t, []string{"x"}, bookIDs(withoutText.Books))
	assert.Equal(t, []float64{0.40, 0.35, 0.30, 0.25}, withoutText.ThresholdsTried)
}

func TestRankByMood_NothingPassesAtFloor(t *testing.T) {
	books := []domain.ScoredBook{
		scored("x", "x", ms(domain.MoodShiritai, 0.19)),
	}

	out := RankByMood(books, []domain.MoodKey{domain.MoodShiritai}, false)

	assert.NotNil(t, out.Books)
	assert.Empty(t, out.Books)
	assert.Zero(t, out.AppliedThreshold)
	assert.Equal(t, Thresholds(false), out.ThresholdsTried)
}

func TestRankByMood_SortOrder(t *testing.T) {
	moods := []domain.MoodKey{domain.MoodWakuwaku, domain.MoodKyun}
	books := []domain.ScoredBook{
		scored("low", "a", ms(domain.MoodWakuwaku, 0.5), ms(domain.MoodKyun, 0.5)),
		// same sum as "even", lower min
		scored("uneven", "b", ms(domain.MoodWakuwaku, 0.8), ms(domain.MoodKyun, 0.4)),
		scored("even", "c", ms(domain.MoodWakuwaku, 0.6), ms(domain.MoodKyun, 0.6)),
		// same sum and min as "even", title sorts first
		scored("even-2", "bb", ms(domain.MoodWakuwaku, 0.6), ms(domain.MoodKyun, 0.6)),
		scored("top", "z", ms(domain.MoodWakuwaku, 0.9), ms(domain.MoodKyun, 0.9)),
	}

	out := RankByMood(books, moods, false)

	assert.Equal(t, []string{"top", "even-2", "even", "uneven", "low"}, bookIDs(out.Books))
}

func TestRankByMood_TitleTieBreak(t *testing.T) {
	books := []domain.ScoredBook{
		scored("2", "うみ", ms(domain.MoodIyasaretai, 0.5)),
		scored("1", "あお", ms(domain.MoodIyasaretai, 0.5)),
		scored("3", "いけ", ms(domain.MoodIyasaretai, 0.5)),
	}

	out := RankByMood(books, []domain.MoodKey{domain.MoodIyasaretai}, false)
	assert.Equal(t, []string{"1", "3", "2"}, bookIDs(out.Books))
}

func TestRankByMood_DuplicateMoodsCountOnce(t *testing.T) {
	books := []domain.ScoredBook{
		scored("x", "x", ms(domain.MoodNakitai, 0.5)),
	}

	out := RankByMood(books, []domain.MoodKey{domain.MoodNakitai, domain.MoodNakitai, ""}, false)
	require.Len(t, out.Books, 1)
	assert.InDelta(t, 0.5, out.Books[0].MatchSum, 1e-9)
}

func TestRankByMood_Properties(t *testing.T) {
	books := []domain.ScoredBook{
		scored("a", "a", ms(domain.MoodNakitai, 0.8), ms(domain.MoodKyun, 0.35)),
		scored("b", "b", ms(domain.MoodNakitai, 0.45), ms(domain.MoodKyun, 0.5)),
		scored("c", "c", ms(domain.MoodNakitai, 0.2)),
		scored("d", "d", ms(domain.MoodKyun, 0.9)),
	}
	moods := []domain.MoodKey{domain.MoodNakitai, domain.MoodKyun}

	first := RankByMood(books, moods, false)
	for range 5 {
		again := RankByMood(books, moods, false)
		assert.Equal(t, first, again)
	}

	assert.GreaterOrEqual(t, first.AppliedThreshold, Floor)
	for _, b := range first.Books {
		for _, m := range moods {
			assert.GreaterOrEqual(t, domain.ScoreFor(b.MoodScores, m)+1e-9, first.AppliedThreshold)
		}
	}

	// request-scoped annotations never leak into the input
	for _, b := range books {
		assert.Zero(t, b.MatchSum)
	}
}
