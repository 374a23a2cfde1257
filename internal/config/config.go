package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Persistence
	DatabaseURL string

	// Rendering
	SampleRate int

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	AuthMode string
}

const defaultSampleRate = 44100

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SampleRate:  getEnvInt("SAMPLE_RATE", defaultSampleRate),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AuthMode:    getEnv("AUTH_MODE", "none"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// IsGatewayMode returns true if running behind an auth gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}
