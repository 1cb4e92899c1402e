// Package di provides dependency injection configuration for the kibun server and CLI.
package di

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/kibunbook/kibun-server/internal/catalog"
	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/di/providers"
	"github.com/kibunbook/kibun-server/internal/logger"
	"github.com/kibunbook/kibun-server/internal/mood"
	"github.com/kibunbook/kibun-server/internal/service"
)

// warmupTimeout bounds the initial catalog load during Bootstrap.
const warmupTimeout = 10 * time.Second

// NewContainer creates and configures the DI container with all providers.
// Configuration is parsed by the caller so the server binary and the CLI can
// share the same flags.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)

	// Catalog layer
	do.Provide(injector, providers.ProvideCatalogSource)
	do.Provide(injector, providers.ProvideCatalog)

	// Classification and search
	do.Provide(injector, providers.ProvideRules)
	do.Provide(injector, providers.ProvideClassifier)
	do.Provide(injector, providers.ProvideSearchService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the search stack and loads the catalog once.
// A failed warm-up is logged, not returned: the loader retries on the next search.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	log := do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*mood.RuleTable](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.SearchService](injector); err != nil {
		return err
	}

	loader := do.MustInvoke[*catalog.Loader](injector)
	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()

	books, err := loader.Load(ctx)
	if err != nil {
		log.Warn("catalog warm-up failed, will retry on first search", "error", err)
		return nil
	}
	log.Info("catalog loaded", "books", len(books), "source", loader.Status().Source)

	return nil
}
