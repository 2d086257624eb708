package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	// Env is the environment name (development, staging, production)
	Env  string
	Port string

	// DataDir is the root directory for JSON-file persistence:
	// sessions, user preferences, and per-category knowledge graphs.
	DataDir string

	LLM      LLMConfig
	Search   SearchConfig
	Redis    RedisConfig
	OTel     OTelConfig
	Planner  PlannerConfig
}

// LLMConfig selects and authenticates the structured-output LLM provider
// used for preference weight inference and enrichment extraction.
type LLMConfig struct {
	Provider string // "openai", "anthropic", or "mock"
	APIKey   string
	BaseURL  string
	Model    string
	// MockMode forces the mock client regardless of Provider, used in
	// development and CI where no API key is configured.
	MockMode bool
}

// SearchConfig configures the secondary general-search fallback used by
// the enrichment pipeline when fields remain missing after the primary
// source fetch.
type SearchConfig struct {
	TypesenseURL    string
	TypesenseAPIKey string
	Collection      string
}

// RedisConfig configures the best-effort broadcast mirror. The bus
// itself stays in-process; Redis is never required for correctness.
type RedisConfig struct {
	Addr    string
	Enabled bool
}

// OTelConfig controls whether traces/logs are exported via OTLP.
type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// PlannerConfig tunes the BDI cycle; no field of it reaches the
// simulated-annealing budget solver.
type PlannerConfig struct {
	MaxCycles        int
	MaxRetries       int
	EnrichmentWorkers int
}

// Load loads configuration from environment variables, with sensible
// defaults for local development.
func Load() Config {
	return Config{
		Env:     getEnv("EVENTWEAVE_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		DataDir: getEnv("DATA_DIR", "./data"),
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", "mock"),
			APIKey:   getEnv("LLM_API_KEY", ""),
			BaseURL:  getEnv("LLM_BASE_URL", ""),
			Model:    getEnv("LLM_MODEL", ""),
			MockMode: getEnvBool("LLM_MOCK_MODE", true),
		},
		Search: SearchConfig{
			TypesenseURL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			TypesenseAPIKey: getEnv("TYPESENSE_API_KEY", ""),
			Collection:      getEnv("TYPESENSE_COLLECTION", "vendors"),
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			Enabled: getEnvBool("REDIS_ENABLED", false),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "eventweave"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Planner: PlannerConfig{
			MaxCycles:         getEnvInt("PLANNER_MAX_CYCLES", 8),
			MaxRetries:        getEnvInt("PLANNER_MAX_RETRIES", 2),
			EnrichmentWorkers: getEnvInt("PLANNER_ENRICHMENT_WORKERS", 4),
		},
	}
}

// IsProduction returns true if running in production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if running in development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(value) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return fallback
}
