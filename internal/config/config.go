package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL string

	// Redis (snapshot cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret string

	// CORS
	AllowedOrigins []string

	// Fetcher
	FetchTimeout time.Duration

	// Snapshot cache freshness window. A product refreshed within this
	// window is served from cache instead of hitting the fetcher.
	SnapshotCacheTTL time.Duration

	// Scheduled refresh
	RefreshEnabled  bool
	RefreshSchedule string        // Cron expression (e.g., "0 */6 * * *")
	RefreshTimeout  time.Duration // Timeout for a complete refresh cycle

	// Batch processing
	BatchConcurrency int

	// Retention: snapshots older than this many days are purged daily.
	SnapshotRetentionDays int
}

func Load() *Config {
	env := getEnv("ENV", "development")

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  env,

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/shelfwatch?sslmode=disable"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// Auth
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		// Fetcher
		FetchTimeout: getDurationEnv("FETCH_TIMEOUT", 30*time.Second),

		// Cache
		SnapshotCacheTTL: getDurationEnv("SNAPSHOT_CACHE_TTL", 24*time.Hour),

		// Scheduled refresh
		RefreshEnabled:  getBoolEnv("REFRESH_ENABLED", true),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */6 * * *"), // Default: every 6 hours
		RefreshTimeout:  getDurationEnv("REFRESH_TIMEOUT", 15*time.Minute),

		// Batch
		BatchConcurrency: getIntEnv("BATCH_CONCURRENCY", 4),

		// Retention
		SnapshotRetentionDays: getIntEnv("SNAPSHOT_RETENTION_DAYS", 180),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
