// Package config loads the daemon configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string

	// DatabaseDSN selects the PostgreSQL ledger when set; empty runs the
	// in-memory ledger.
	DatabaseDSN string

	// RedisAddr selects the Redis notifier and action log when set; empty
	// runs the in-process bus.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	LogLevel  string

	// SessionTTL is how long a session may sit unstarted before the reaper
	// cancels it.
	SessionTTL   time.Duration
	ReapInterval time.Duration
}

// Load reads .env if present, then the environment. Unset values fall back
// to development defaults.
func Load() Config {
	godotenv.Load()
	return Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		SessionTTL:    getduration("SESSION_TTL", 30*time.Minute),
		ReapInterval:  getduration("REAP_INTERVAL", time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
