package mood

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/kibunbook/kibun-server/internal/domain"
	domainerrors "github.com/kibunbook/kibun-server/internal/errors"
	"github.com/kibunbook/kibun-server/internal/logger"
	"github.com/kibunbook/kibun-server/internal/metrics"
	"github.com/kibunbook/kibun-server/internal/normalize"
)

// Classifier produces at most a handful of mood scores for a book, sorted by
// score descending with no duplicate moods.
type Classifier interface {
	Classify(ctx context.Context, book *domain.Book) ([]domain.MoodScore, error)
}

// RuleClassifier is a Classifier driven entirely by a RuleTable.
// Apart from the Fallback, its output is a pure function of the book's
// title, summary, subjects and classification code.
type RuleClassifier struct {
	rules    *RuleTable
	fallback Fallback
	logger   *slog.Logger
	order    map[domain.MoodKey]int
}

// NewRuleClassifier creates a classifier. A nil fallback means HashFallback.
func NewRuleClassifier(rules *RuleTable, fallback Fallback, log *slog.Logger) *RuleClassifier {
	if fallback == nil {
		fallback = HashFallback{}
	}
	order := make(map[domain.MoodKey]int)
	for i, m := range domain.Moods() {
		order[m.Key] = i
	}
	return &RuleClassifier{
		rules:    rules,
		fallback: fallback,
		logger:   logger.OrDiscard(log),
		order:    order,
	}
}

// Rules returns the rule table in use.
func (c *RuleClassifier) Rules() *RuleTable {
	return c.rules
}

// DefaultScore is the score substituted when classification fails.
func (c *RuleClassifier) DefaultScore() domain.MoodScore {
	if c.rules == nil {
		return domain.MoodScore{Mood: domain.MoodShinmiri, Score: 0.5}
	}
	return c.rules.Default
}

// SearchText builds the normalized text the rules are matched against.
func SearchText(book *domain.Book) string {
	parts := make([]string, 0, 2+len(book.Subjects))
	parts = append(parts, book.Title, book.Summary)
	parts = append(parts, book.Subjects...)
	return normalize.Join(parts...)
}

// Classify implements Classifier. A panic inside the rule evaluation is
// returned as a CLASSIFICATION_FAILED error.
func (c *RuleClassifier) Classify(_ context.Context, book *domain.Book) (scores []domain.MoodScore, err error) {
	defer func() {
		if r := recover(); r != nil {
			scores = nil
			err = domainerrors.ClassificationFailedf("classify book: %v", r)
		}
	}()

	if book == nil {
		return nil, domainerrors.ClassificationFailedf("classify book: nil book")
	}
	if c.rules == nil {
		return nil, domainerrors.ClassificationFailedf("classify book %s: no rule table", book.ID)
	}

	text := SearchText(book)

	base := c.basePass(book, text)
	combined := make(map[domain.MoodKey]float64, len(base))
	for mood, score := range base {
		combined[mood] = score * c.rules.BaseWeight
	}

	c.applyAdjustments(text, combined)
	c.applyClassification(book.NDC, combined)

	return c.selectTop(combined), nil
}

// basePass scores the heuristic keyword sets, keeping the maximum per mood.
// When nothing matches, the fallback contributes one mood at the fixed score.
func (c *RuleClassifier) basePass(book *domain.Book, text string) map[domain.MoodKey]float64 {
	base := make(map[domain.MoodKey]float64)
	for _, h := range c.rules.Heuristics {
		if !containsAny(text, h.Keywords) {
			continue
		}
		for _, ms := range h.Moods {
			if ms.Score > base[ms.Mood] {
				base[ms.Mood] = ms.Score
			}
		}
	}

	if len(base) == 0 {
		picked := c.fallback.Pick(book, c.rules.Fallback.Moods)
		if picked.Valid() {
			base[picked] = c.rules.Fallback.Score
			metrics.ClassificationFallbacks.WithLabelValues("no_match").Inc()
			c.logger.Debug("no heuristic matched, using fallback mood",
				"book_id", book.ID,
				"mood", picked,
			)
		}
	}
	return base
}

func (c *RuleClassifier) applyAdjustments(text string, scores map[domain.MoodKey]float64) {
	for _, a := range c.rules.Adjustments {
		if !containsAny(text, a.Keywords) {
			continue
		}
		for _, b := range a.Boosts {
			scores[b.Mood] = clamp(scores[b.Mood] + b.Boost*c.rules.RuleWeight)
		}
	}
}

func (c *RuleClassifier) applyClassification(code string, scores map[domain.MoodKey]float64) {
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}
	boost := c.rules.ClassificationBoost * c.rules.RuleWeight
	for mood, prefixes := range c.rules.Classification {
		for _, p := range prefixes {
			if strings.HasPrefix(code, p) {
				scores[mood] = clamp(scores[mood] + boost)
				break
			}
		}
	}
}

// selectTop drops noise, sorts by score descending and keeps MaxResults.
// Equal scores fall back to the mood display order so output is stable.
func (c *RuleClassifier) selectTop(scores map[domain.MoodKey]float64) []domain.MoodScore {
	out := make([]domain.MoodScore, 0, len(scores))
	for mood, score := range scores {
		if score > c.rules.NoiseFloor {
			out = append(out, domain.MoodScore{Mood: mood, Score: score})
		}
	}

	slices.SortFunc(out, func(a, b domain.MoodScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return c.order[a.Mood] - c.order[b.Mood]
		}
	})

	if len(out) > c.rules.MaxResults {
		out = out[:c.rules.MaxResults]
	}
	return out
}

func clamp(v float64) float64 {
	return math.Min(1.0, math.Max(0, v))
}

// String describes the classifier for logs.
func (c *RuleClassifier) String() string {
	if c.rules == nil {
		return "rule classifier (no rules)"
	}
	return fmt.Sprintf("rule classifier (%d heuristics, %d adjustments)",
		len(c.rules.Heuristics), len(c.rules.Adjustments))
}
