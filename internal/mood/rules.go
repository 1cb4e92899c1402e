// Package mood assigns mood scores to books with a deterministic keyword and
// classification-code rule evaluator. The evaluator is a stand-in for a learned
// classifier and sits behind the Classifier interface so it can be replaced.
package mood

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kibunbook/kibun-server/internal/domain"
	domainerrors "github.com/kibunbook/kibun-server/internal/errors"
	"github.com/kibunbook/kibun-server/internal/normalize"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// RuleTable is the declarative configuration of the classifier.
// Build one with LoadRules or ParseRules; keywords are normalized at load time.
type RuleTable struct {
	BaseWeight          float64                     `yaml:"base_weight"`
	RuleWeight          float64                     `yaml:"rule_weight"`
	ClassificationBoost float64                     `yaml:"classification_boost"`
	NoiseFloor          float64                     `yaml:"noise_floor"`
	MaxResults          int                         `yaml:"max_results"`
	Fallback            FallbackRule                `yaml:"fallback"`
	Default             domain.MoodScore            `yaml:"default"`
	Heuristics          []HeuristicRule             `yaml:"heuristics"`
	Adjustments         []AdjustmentRule            `yaml:"adjustments"`
	Classification      map[domain.MoodKey][]string `yaml:"classification"`
}

// FallbackRule configures the no-match path of the base pass.
type FallbackRule struct {
	Score float64          `yaml:"score"`
	Moods []domain.MoodKey `yaml:"moods"`
}

// HeuristicRule maps a keyword set to fixed base scores.
type HeuristicRule struct {
	Keywords []string           `yaml:"keywords"`
	Moods    []domain.MoodScore `yaml:"moods"`
}

// AdjustmentRule boosts moods when any keyword is present.
type AdjustmentRule struct {
	Keywords []string    `yaml:"keywords"`
	Boosts   []MoodBoost `yaml:"boosts"`
}

// MoodBoost is one boost of an adjustment rule.
type MoodBoost struct {
	Mood  domain.MoodKey `yaml:"mood"`
	Boost float64        `yaml:"boost"`
}

// DefaultRules returns the embedded rule table.
func DefaultRules() (*RuleTable, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads a rule table from path, or the embedded table when path is empty.
func LoadRules(path string) (*RuleTable, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path) //#nosec G304 -- rule file path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) (*RuleTable, error) {
	var rt RuleTable
	if err := yaml.Unmarshal(data, &rt); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "decode mood rules")
	}
	if err := rt.validate(); err != nil {
		return nil, err
	}
	rt.normalizeKeywords()
	return &rt, nil
}

func (rt *RuleTable) validate() error {
	problems := map[string]string{}

	checkUnit := func(field string, v float64) {
		if v < 0 || v > 1 {
			problems[field] = fmt.Sprintf("must be within [0,1], got %v", v)
		}
	}
	checkMood := func(field string, k domain.MoodKey) {
		if !k.Valid() {
			problems[field] = fmt.Sprintf("unknown mood %q", k)
		}
	}

	checkUnit("base_weight", rt.BaseWeight)
	checkUnit("rule_weight", rt.RuleWeight)
	checkUnit("classification_boost", rt.ClassificationBoost)
	checkUnit("noise_floor", rt.NoiseFloor)
	checkUnit("fallback.score", rt.Fallback.Score)
	checkUnit("default.score", rt.Default.Score)
	checkMood("default.mood", rt.Default.Mood)

	if rt.MaxResults <= 0 {
		problems["max_results"] = "must be positive"
	}
	if len(rt.Fallback.Moods) == 0 {
		problems["fallback.moods"] = "must not be empty"
	}
	for i, k := range rt.Fallback.Moods {
		checkMood(fmt.Sprintf("fallback.moods[%d]", i), k)
	}

	for i, h := range rt.Heuristics {
		if len(h.Keywords) == 0 {
			problems[fmt.Sprintf("heuristics[%d].keywords", i)] = "must not be empty"
		}
		for j, ms := range h.Moods {
			checkMood(fmt.Sprintf("heuristics[%d].moods[%d]", i, j), ms.Mood)
			checkUnit(fmt.Sprintf("heuristics[%d].moods[%d].score", i, j), ms.Score)
		}
	}
	for i, a := range rt.Adjustments {
		if len(a.Keywords) == 0 {
			problems[fmt.Sprintf("adjustments[%d].keywords", i)] = "must not be empty"
		}
		for j, b := range a.Boosts {
			checkMood(fmt.Sprintf("adjustments[%d].boosts[%d]", i, j), b.Mood)
			checkUnit(fmt.Sprintf("adjustments[%d].boosts[%d].boost", i, j), b.Boost)
		}
	}
	for k := range rt.Classification {
		checkMood("classification."+string(k), k)
	}

	if len(problems) > 0 {
		return domainerrors.ValidationWithDetails("invalid mood rules", problems)
	}
	return nil
}

func (rt *RuleTable) normalizeKeywords() {
	for i := range rt.Heuristics {
		rt.Heuristics[i].Keywords = normalizeAll(rt.Heuristics[i].Keywords)
	}
	for i := range rt.Adjustments {
		rt.Adjustments[i].Keywords = normalizeAll(rt.Adjustments[i].Keywords)
	}
	for k, prefixes := range rt.Classification {
		trimmed := make([]string, 0, len(prefixes))
		for _, p := range prefixes {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		rt.Classification[k] = trimmed
	}
}

func normalizeAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = normalize.Text(strings.TrimSpace(kw)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// containsAny reports whether text contains any of the normalized keywords.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if normalize.ContainsNormalized(text, kw) {
			return true
		}
	}
	return false
}
