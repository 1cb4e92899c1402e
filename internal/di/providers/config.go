// Package providers contains dependency injection providers for the kibun server.
package providers

import (
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/logger"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
const shutdownTimeout = 30 * time.Second

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	// stdout belongs to CLI output
	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"catalog_source", cfg.Catalog.Source,
		"catalog_path", cfg.Catalog.Path,
		"rules_path", cfg.Rules.Path,
		"fallback", cfg.Search.Fallback,
	)

	return log, nil
}
