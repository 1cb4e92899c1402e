// Package api provides the HTTP API server and handlers for kibun.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kibunbook/kibun-server/internal/catalog"
	"github.com/kibunbook/kibun-server/internal/domain"
	"github.com/kibunbook/kibun-server/internal/logger"
	"github.com/kibunbook/kibun-server/internal/ratelimit"
)

// Searcher is the search engine the handlers call into.
type Searcher interface {
	Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error)
	GetBook(ctx context.Context, bookID string) (*domain.ScoredBook, error)
	SimilarBooks(ctx context.Context, bookID string, limit int) ([]domain.ScoredBook, error)
	Moods() []domain.Mood
	CatalogStatus() catalog.Status
}

// Config holds the HTTP-facing settings of the server.
type Config struct {
	Version        string
	CORSOrigins    []string
	RateLimitRPS   float64 // zero disables rate limiting
	RateLimitBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	search  Searcher
	router  *chi.Mux
	api     huma.API
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(search Searcher, cfg Config, log *slog.Logger) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	router := chi.NewRouter()
	s := &Server{
		search: search,
		router: router,
		logger: logger.OrDiscard(log),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = ratelimit.New(cfg.RateLimitRPS, max(cfg.RateLimitBurst, 1))
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("Kibun API", cfg.Version)
	humaConfig.Info.Description = "Mood-based book discovery"
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerMoodRoutes()
	s.registerSearchRoutes()
	s.registerBookRoutes()

	router.Handle("/metrics", promhttp.Handler())

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}
