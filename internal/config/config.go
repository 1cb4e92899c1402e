// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Catalog sources.
const (
	SourceEmbedded = "embedded"
	SourceJSON     = "json"
	SourceSQLite   = "sqlite"
)

// Classifier fallbacks.
const (
	FallbackHash   = "hash"
	FallbackRandom = "random"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Catalog CatalogConfig
	Rules   RulesConfig
	Search  SearchConfig
	Server  ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// CatalogConfig selects where books come from.
type CatalogConfig struct {
	Source string // embedded, json or sqlite (default: embedded)
	Path   string // file for json and sqlite sources
}

// RulesConfig holds mood rule table configuration.
type RulesConfig struct {
	Path string // optional YAML override; empty uses the built-in table
}

// SearchConfig holds search behaviour configuration.
type SearchConfig struct {
	Delay        time.Duration // artificial latency per search (default: 0)
	Fallback     string        // hash or random (default: hash)
	FallbackSeed uint64        // seed for the random fallback
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins    []string      // Allowed origins (default: *)
	RateLimitRPS   float64       // Requests per second per client (default: 20)
	RateLimitBurst int           // Burst per client (default: 40)
}

// Flags are the raw command-line values. Empty means "not given".
type Flags struct {
	env          string
	logLevel     string
	catalogSrc   string
	catalogPath  string
	rulesPath    string
	searchDelay  string
	fallback     string
	fallbackSeed string
	port         string
	readTimeout  string
	writeTimeout string
	idleTimeout  string
	corsOrigins  string
	rateRPS      string
	rateBurst    string
	envFile      string
}

// RegisterFlags defines the configuration flags on fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.env, "env", "", "Environment (development, staging, production)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.catalogSrc, "catalog-source", "", "Catalog source: embedded, json or sqlite (default: embedded)")
	fs.StringVar(&f.catalogPath, "catalog-path", "", "Path to the catalog file for json and sqlite sources")
	fs.StringVar(&f.rulesPath, "rules-path", "", "Path to a YAML mood rule table (default: built-in)")
	fs.StringVar(&f.searchDelay, "search-delay", "", "Artificial delay added to every search (default: 0s)")
	fs.StringVar(&f.fallback, "fallback", "", "Mood fallback for unmatched books: hash or random (default: hash)")
	fs.StringVar(&f.fallbackSeed, "fallback-seed", "", "Seed for the random fallback (default: 1)")
	fs.StringVar(&f.port, "port", "", "Server port (default: 8080)")
	fs.StringVar(&f.readTimeout, "read-timeout", "", "HTTP read timeout (default: 15s)")
	fs.StringVar(&f.writeTimeout, "write-timeout", "", "HTTP write timeout (default: 15s)")
	fs.StringVar(&f.idleTimeout, "idle-timeout", "", "HTTP idle timeout (default: 60s)")
	fs.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (default: *)")
	fs.StringVar(&f.rateRPS, "rate-limit-rps", "", "Requests per second per client (default: 20)")
	fs.StringVar(&f.rateBurst, "rate-limit-burst", "", "Request burst per client (default: 40)")
	fs.StringVar(&f.envFile, "env-file", ".env", "Path to .env file")
	return f
}

// LoadConfig parses args and loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("kibun", pflag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags.Load()
}

// Load builds and validates the configuration from parsed flags.
func (f *Flags) Load() (*Config, error) {
	// A missing .env file is fine; real environment variables always win.
	_ = godotenv.Load(f.envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(f.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(f.logLevel, "LOG_LEVEL", "info"),
		},
		Catalog: CatalogConfig{
			Source: strings.ToLower(getConfigValue(f.catalogSrc, "CATALOG_SOURCE", SourceEmbedded)),
			Path:   getConfigValue(f.catalogPath, "CATALOG_PATH", ""),
		},
		Rules: RulesConfig{
			Path: getConfigValue(f.rulesPath, "RULES_PATH", ""),
		},
		Search: SearchConfig{
			Fallback: strings.ToLower(getConfigValue(f.fallback, "SEARCH_FALLBACK", FallbackHash)),
		},
		Server: ServerConfig{
			Port:        getConfigValue(f.port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(f.corsOrigins, "CORS_ORIGINS", "*")),
		},
	}

	var err error
	if cfg.Search.Delay, err = getDurationConfigValue(f.searchDelay, "SEARCH_DELAY", "0s"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(f.readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(f.writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(f.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	seed := getConfigValue(f.fallbackSeed, "SEARCH_FALLBACK_SEED", "1")
	if cfg.Search.FallbackSeed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid fallback seed %q: %w", seed, err)
	}

	rps := getConfigValue(f.rateRPS, "RATE_LIMIT_RPS", "20")
	if cfg.Server.RateLimitRPS, err = strconv.ParseFloat(rps, 64); err != nil {
		return nil, fmt.Errorf("invalid rate limit rps %q: %w", rps, err)
	}
	burst := getConfigValue(f.rateBurst, "RATE_LIMIT_BURST", "40")
	if cfg.Server.RateLimitBurst, err = strconv.Atoi(burst); err != nil {
		return nil, fmt.Errorf("invalid rate limit burst %q: %w", burst, err)
	}

	if cfg.Catalog.Path, err = expandPath(cfg.Catalog.Path); err != nil {
		return nil, fmt.Errorf("invalid catalog path: %w", err)
	}
	if cfg.Rules.Path, err = expandPath(cfg.Rules.Path); err != nil {
		return nil, fmt.Errorf("invalid rules path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Catalog.Source {
	case SourceEmbedded:
	case SourceJSON, SourceSQLite:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog source %s requires a catalog path", c.Catalog.Source)
		}
	default:
		return fmt.Errorf("invalid catalog source: %s (must be embedded, json, or sqlite)", c.Catalog.Source)
	}

	if c.Search.Fallback != FallbackHash && c.Search.Fallback != FallbackRandom {
		return fmt.Errorf("invalid fallback: %s (must be hash or random)", c.Search.Fallback)
	}
	if c.Search.Delay < 0 {
		return fmt.Errorf("search delay must not be negative: %s", c.Search.Delay)
	}

	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute. Empty stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), s, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
