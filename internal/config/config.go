package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	DatabasePath string

	RedisAddr     string
	RedisPassword string

	SessionTTL    time.Duration
	SecureCookies bool

	LogLevel string

	// Initial admin account, created only when the users table is empty.
	BootstrapUsername string
	BootstrapPassword string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppPort: getenv("APP_PORT", "8080"),

		DatabasePath: getenv("DATABASE_PATH", "userweb.sqlite"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SessionTTL:    getduration("SESSION_TTL", 24*time.Hour),
		SecureCookies: os.Getenv("SECURE_COOKIES") == "true",

		LogLevel: getenv("LOG_LEVEL", "info"),

		BootstrapUsername: os.Getenv("BOOTSTRAP_USERNAME"),
		BootstrapPassword: os.Getenv("BOOTSTRAP_PASSWORD"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// A malformed value means the operator made a mistake; running
		// with a silently substituted default would hide it.
		log.Fatalf("config: invalid %s %q: %v", key, v, err)
	}
	return d
}
