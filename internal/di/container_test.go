package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kibunbook/kibun-server/internal/catalog"
	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/di/providers"
	"github.com/kibunbook/kibun-server/internal/domain"
	"github.com/kibunbook/kibun-server/internal/service"
	"github.com/kibunbook/kibun-server/internal/store/sqlite"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Environment: "test"},
		Logger:  config.LoggerConfig{Level: "error"},
		Catalog: config.CatalogConfig{Source: config.SourceEmbedded},
		Search:  config.SearchConfig{Fallback: config.FallbackHash},
		Server: config.ServerConfig{
			Port:           "0",
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
	}
}

func TestContainer_EmbeddedCatalog(t *testing.T) {
	injector := NewContainer(testConfig())
	t.Cleanup(func() { _ = injector.Shutdown() })

	require.NoError(t, Bootstrap(injector))

	loader := do.MustInvoke[*catalog.Loader](injector)
	status := loader.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, "embedded", status.Source)

	svc := do.MustInvoke[*service.SearchService](injector)
	res, err := svc.Search(context.Background(), domain.SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, status.Books, res.TotalCount)

	srv := do.MustInvoke[*providers.HTTPServerHandle](injector)
	assert.Equal(t, ":0", srv.Addr)
}

func TestContainer_SQLiteCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	records, err := catalog.EmbeddedSource().Records(context.Background())
	require.NoError(t, err)
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	_, err = st.ReplaceCatalog(context.Background(), records)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	cfg := testConfig()
	cfg.Catalog = config.CatalogConfig{Source: config.SourceSQLite, Path: path}
	injector := NewContainer(cfg)
	t.Cleanup(func() { _ = injector.Shutdown() })

	require.NoError(t, Bootstrap(injector))

	status := do.MustInvoke[*catalog.Loader](injector).Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, len(records), status.Books)
	assert.Equal(t, "sqlite:"+path, status.Source)
}

func TestBootstrap_CatalogFailureIsNotFatal(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog = config.CatalogConfig{Source: config.SourceJSON, Path: filepath.Join(t.TempDir(), "missing.json")}
	injector := NewContainer(cfg)
	t.Cleanup(func() { _ = injector.Shutdown() })

	require.NoError(t, Bootstrap(injector))

	status := do.MustInvoke[*catalog.Loader](injector).Status()
	assert.False(t, status.Loaded)
	assert.NotEmpty(t, status.LastError)
}

func TestBootstrap_BadRulesFail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_weight: 7"), 0o600))

	cfg := testConfig()
	cfg.Rules.Path = path
	injector := NewContainer(cfg)
	t.Cleanup(func() { _ = injector.Shutdown() })

	assert.Error(t, Bootstrap(injector))
}
