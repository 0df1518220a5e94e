package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all runtime configuration, loaded once at process start and
// passed explicitly into the components that need it.
type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret []byte

	// Click ingestion rate limit (fixed window per ip+link)
	ClickRateLimit  int
	ClickRateWindow time.Duration

	// Reconciliation job cadence for the denormalized click counters
	ReconcileSpec string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8787"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:         getEnvOrDefault("LOG_FILE", "server.log"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisHost:       os.Getenv("REDIS_HOST"),
		RedisPort:       getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       []byte(os.Getenv("JWT_SECRET")),
		ClickRateLimit:  10,
		ClickRateWindow: 60 * time.Second,
		ReconcileSpec:   getEnvOrDefault("RECONCILE_CRON", "@hourly"),
	}

	if cfg.DatabaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "linktree")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// RedisConfigured reports whether a Redis backend was configured at all.
// When false the cache layer runs in disabled (no-op) mode.
func (c *Config) RedisConfigured() bool {
	return c.RedisHost != ""
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
