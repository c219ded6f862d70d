// Package config holds service configuration, populated from the environment.
package config

import (
	"log/slog"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

// Config holds all service configuration, injected from main.
type Config struct {
	Host       string
	Port       string
	APIBaseURL string // absolute base used to derive logo_full_path

	DatabasePath string // sqlite file; empty means data/jobboard.db
	DataDir      string // root for logos and CVs
	LocationFile string // optional location-tree JSON to import at startup

	AuthSecret string
	SaltRounds int

	RedisURL             string
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from the environment. A .env file is applied
// first when present.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("config: .env loaded")
	}

	return Config{
		Host:                 env.Str("HOST", "0.0.0.0"),
		Port:                 env.Str("PORT", "8080"),
		APIBaseURL:           env.Str("API_BASE_URL", "http://localhost:8080"),
		DatabasePath:         env.Str("DATABASE_PATH", "data/jobboard.db"),
		DataDir:              env.Str("DATA_DIR", "data"),
		LocationFile:         env.Str("LOCATION_FILE", ""),
		AuthSecret:           env.Str("AUTH_SECRET", ""),
		SaltRounds:           env.Int("SALT_ROUNDS", 10),
		RedisURL:             env.Str("REDIS_URL", ""),
		CacheTTL:             env.Duration("CACHE_TTL", 5*time.Minute),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
		RateLimitRPS:         env.Float("RATE_LIMIT_RPS", 50),
		RateLimitBurst:       env.Int("RATE_LIMIT_BURST", 100),
	}
}
