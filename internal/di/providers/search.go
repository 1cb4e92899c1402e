package providers

import (
	"github.com/samber/do/v2"

	"github.com/kibunbook/kibun-server/internal/catalog"
	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/logger"
	"github.com/kibunbook/kibun-server/internal/mood"
	"github.com/kibunbook/kibun-server/internal/service"
)

// ProvideRules provides the mood rule table, built-in unless Rules.Path is set.
func ProvideRules(i do.Injector) (*mood.RuleTable, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	rules, err := mood.LoadRules(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}

	log.Debug("mood rules loaded",
		"path", cfg.Rules.Path,
		"heuristics", len(rules.Heuristics),
		"adjustments", len(rules.Adjustments),
	)
	return rules, nil
}

// ProvideClassifier provides the rule-based mood classifier.
func ProvideClassifier(i do.Injector) (*mood.RuleClassifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	rules := do.MustInvoke[*mood.RuleTable](i)
	log := do.MustInvoke[*logger.Logger](i)

	fallback := mood.NewFallback(cfg.Search.Fallback, cfg.Search.FallbackSeed)
	return mood.NewRuleClassifier(rules, fallback, log.Logger), nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	loader := do.MustInvoke[*catalog.Loader](i)
	classifier := do.MustInvoke[*mood.RuleClassifier](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(loader, classifier, service.SearchConfig{
		Delay: cfg.Search.Delay,
	}, log.Logger), nil
}
