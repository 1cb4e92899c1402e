// Package ranking filters mood-scored books with an adaptive per-mood
// threshold and orders the survivors.
//
// A book passes only when every selected mood reaches the threshold. When no
// book passes, the threshold is lowered in fixed steps down to a floor; the
// floor itself is tried before giving up.
package ranking

import (
	"math"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kibunbook/kibun-server/internal/domain"
)

// Threshold schedule.
const (
	BaseThreshold     = 0.40
	FreeTextThreshold = 0.25
	Step              = 0.05
	Floor             = 0.20
)

// epsilon absorbs float noise when comparing scores to thresholds.
const epsilon = 1e-9

// Outcome is the result of RankByMood.
type Outcome struct {
	Books []domain.ScoredBook
	// AppliedThreshold is the threshold that produced Books. It is zero when
	// no mood was selected or nothing passed even at the floor.
	AppliedThreshold float64
	ThresholdsTried  []float64
}

// Thresholds returns the schedule tried for a search, strictest first.
func Thresholds(hasFreeText bool) []float64 {
	base := BaseThreshold
	if hasFreeText {
		base = FreeTextThreshold
	}

	var out []float64
	for k := 0; ; k++ {
		t := round2(base - float64(k)*Step)
		if t < Floor-epsilon {
			break
		}
		out = append(out, t)
	}
	return out
}

// RankByMood filters and orders books for the selected moods.
// With no moods selected the input is returned sorted by title.
// The input slice is not modified.
func RankByMood(books []domain.ScoredBook, moods []domain.MoodKey, hasFreeText bool) Outcome {
	selected := dedupe(moods)
	col := newCollator()

	if len(selected) == 0 {
		out := make([]domain.ScoredBook, len(books))
		for i, b := range books {
			b.MatchSum, b.MatchMin = 0, 0
			out[i] = b
		}
		slices.SortStableFunc(out, func(a, b domain.ScoredBook) int {
			return col.CompareString(a.Book.Title, b.Book.Title)
		})
		return Outcome{Books: out}
	}

	outcome := Outcome{Books: []domain.ScoredBook{}}
	for _, threshold := range Thresholds(hasFreeText) {
		outcome.ThresholdsTried = append(outcome.ThresholdsTried, threshold)

		passing := filter(books, selected, threshold)
		if len(passing) == 0 {
			continue
		}

		slices.SortStableFunc(passing, func(a, b domain.ScoredBook) int {
			if c := compareDesc(a.MatchSum, b.MatchSum); c != 0 {
				return c
			}
			if c := compareDesc(a.MatchMin, b.MatchMin); c != 0 {
				return c
			}
			return col.CompareString(a.Book.Title, b.Book.Title)
		})

		outcome.Books = passing
		outcome.AppliedThreshold = threshold
		break
	}
	return outcome
}

// filter returns copies of the books whose score for every selected mood is
// at least threshold, with MatchSum and MatchMin filled in.
func filter(books []domain.ScoredBook, selected []domain.MoodKey, threshold float64) []domain.ScoredBook {
	var out []domain.ScoredBook
	for _, b := range books {
		sum, lowest := 0.0, math.Inf(1)
		pass := true
		for _, m := range selected {
			s := domain.ScoreFor(b.MoodScores, m)
			if s+epsilon < threshold {
				pass = false
				break
			}
			sum += s
			lowest = math.Min(lowest, s)
		}
		if !pass {
			continue
		}
		b.MatchSum = sum
		b.MatchMin = lowest
		out = append(out, b)
	}
	return out
}

// compareDesc orders larger values first, treating values within epsilon as equal.
func compareDesc(a, b float64) int {
	switch {
	case a > b+epsilon:
		return -1
	case b > a+epsilon:
		return 1
	default:
		return 0
	}
}

func dedupe(moods []domain.MoodKey) []domain.MoodKey {
	seen := make(map[domain.MoodKey]bool, len(moods))
	out := make([]domain.MoodKey, 0, len(moods))
	for _, m := range moods {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// newCollator returns a Japanese collator. Collators are not safe for
// concurrent use, so each ranking call builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.Japanese)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
