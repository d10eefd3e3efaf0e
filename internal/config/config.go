package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string
	PublicURL   string // Advertised in the OpenAPI document when set

	Cache    CacheConfig
	Mutation MutationConfig

	// TotalsSyncInterval is how often stored event totals are reconciled
	TotalsSyncInterval time.Duration
}

// CacheConfig holds read model cache configuration
type CacheConfig struct {
	RedisURL      string // Empty = in-memory store
	TTL           time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

// MutationConfig holds per-user throttling of mutation routes
type MutationConfig struct {
	RateLimit int // requests per minute
	RateBurst int
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var errs []string
	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Env:           getEnv("ENV", "development"),
		PublicURL:     getEnv("PUBLIC_API_URL", ""),
		Cache: CacheConfig{
			RedisURL:      getEnv("REDIS_URL", ""),
			TTL:           getDuration("CACHE_TTL", 10*time.Minute, &errs),
			RetryAttempts: getInt("READ_RETRY_ATTEMPTS", 3, &errs),
			RetryBackoff:  getDuration("READ_RETRY_BACKOFF", 200*time.Millisecond, &errs),
		},
		Mutation: MutationConfig{
			RateLimit: getInt("MUTATION_RATE_LIMIT", 60, &errs),
			RateBurst: getInt("MUTATION_RATE_BURST", 10, &errs),
		},
		TotalsSyncInterval: getDuration("TOTALS_SYNC_INTERVAL", 15*time.Minute, &errs),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.Cache.RetryAttempts < 1 {
		return fmt.Errorf("READ_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Mutation.RateLimit < 1 || c.Mutation.RateBurst < 1 {
		return fmt.Errorf("MUTATION_RATE_LIMIT and MUTATION_RATE_BURST must be positive")
	}
	if c.TotalsSyncInterval <= 0 {
		return fmt.Errorf("TOTALS_SYNC_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int, errs *[]string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be an integer", key))
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be a duration like 30s or 5m", key))
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
