package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/kibunbook/kibun-server/internal/catalog"
	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/logger"
	"github.com/kibunbook/kibun-server/internal/store/sqlite"
)

// CatalogSourceHandle wraps the configured catalog source with shutdown capability.
type CatalogSourceHandle struct {
	catalog.Source
	store *sqlite.Store // nil unless the source is sqlite
}

// Shutdown implements do.Shutdownable.
func (h *CatalogSourceHandle) Shutdown() error {
	if h.store == nil {
		return nil
	}
	return h.store.Close()
}

// ProvideCatalogSource provides the source selected by Catalog.Source.
func ProvideCatalogSource(i do.Injector) (*CatalogSourceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Catalog.Source {
	case config.SourceEmbedded, "":
		return &CatalogSourceHandle{Source: catalog.EmbeddedSource()}, nil
	case config.SourceJSON:
		return &CatalogSourceHandle{Source: catalog.NewJSONSource(cfg.Catalog.Path)}, nil
	case config.SourceSQLite:
		st, err := sqlite.Open(cfg.Catalog.Path, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("open catalog database: %w", err)
		}
		return &CatalogSourceHandle{Source: st, store: st}, nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// ProvideCatalog provides the caching catalog loader.
func ProvideCatalog(i do.Injector) (*catalog.Loader, error) {
	src := do.MustInvoke[*CatalogSourceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	loader := catalog.NewLoader(src.Source, log.Logger)
	log.Info("catalog configured", "source", src.Name())

	return loader, nil
}
