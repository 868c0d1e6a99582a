package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common errors
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidRate        = errors.New("invalid rate")
)

// DefaultOpenAIModel is the chat model used for narratives.
const DefaultOpenAIModel = "gpt-4o-mini"

// DefaultAllowedOrigins are the dashboard origins allowed by CORS when
// CORS_ALLOWED_ORIGINS is unset.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Config holds service settings, populated from environment variables.
type Config struct {
	Port        string
	DatabaseURL string
	DBLogLevel  string

	// Narrative generation. An empty OpenAIKey runs the generator in
	// fallback-only mode.
	OpenAIKey           string
	OpenAIModel         string
	OpenAIBaseURL       string
	NarrativeTimeout    time.Duration
	NarrativeRatePerMin int

	UrgentCacheTTL  time.Duration
	SummaryCacheTTL time.Duration

	AllowedOrigins []string
}

// Load reads configuration from environment variables, applying defaults where unset.
//
// Environment variables:
//   - PORT: listen port (default: 5050)
//   - DATABASE_URL: postgres:// URL or SQLite file path (required)
//   - DB_LOG_LEVEL: silent, error, warn or info (default: warn)
//   - OPENAI_API_KEY: enables remote narratives when set
//   - OPENAI_MODEL: chat model (default: gpt-4o-mini)
//   - OPENAI_BASE_URL: override for OpenAI-compatible endpoints
//   - NARRATIVE_TIMEOUT: per-call bound on the remote request (default: 20s)
//   - NARRATIVE_RATE_PER_MIN: remote calls allowed per minute, 0 disables the limit (default: 60)
//   - URGENT_CACHE_TTL: urgent action cache lifetime (default: 30m)
//   - SUMMARY_CACHE_TTL: facility summary cache lifetime (default: 1h)
//   - CORS_ALLOWED_ORIGINS: comma-separated origin allow-list
func Load() (*Config, error) {
	narrativeTimeout, err := parseDuration("NARRATIVE_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	urgentTTL, err := parseDuration("URGENT_CACHE_TTL", "30m")
	if err != nil {
		return nil, err
	}
	summaryTTL, err := parseDuration("SUMMARY_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}

	rate, err := strconv.Atoi(envOrDefault("NARRATIVE_RATE_PER_MIN", "60"))
	if err != nil || rate < 0 {
		return nil, fmt.Errorf("%w: NARRATIVE_RATE_PER_MIN", ErrInvalidRate)
	}

	cfg := &Config{
		Port:                envOrDefault("PORT", "5050"),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBLogLevel:          strings.ToLower(envOrDefault("DB_LOG_LEVEL", "warn")),
		OpenAIKey:           strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:         envOrDefault("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIBaseURL:       strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		NarrativeTimeout:    narrativeTimeout,
		NarrativeRatePerMin: rate,
		UrgentCacheTTL:      urgentTTL,
		SummaryCacheTTL:     summaryTTL,
		AllowedOrigins:      parseList(os.Getenv("CORS_ALLOWED_ORIGINS"), DefaultAllowedOrigins),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start the service.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// NarrativeEnabled reports whether remote narrative generation is configured.
func (c Config) NarrativeEnabled() bool {
	return c.OpenAIKey != ""
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, key)
	}
	return d, nil
}

func parseList(raw string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
