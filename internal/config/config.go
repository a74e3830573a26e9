// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitkit/internal/validation"
)

// Config holds every setting the server reads at startup.
type Config struct {
	// HTTP server
	Port       int    `json:"PORT" validate:"min=1,max=65535"`
	StaticPath string `json:"STATIC_PATH"`

	// Storage
	StorageBackend string `json:"STORAGE_BACKEND" validate:"oneof=sqlite bolt"`
	DBPath         string `json:"DB_PATH" validate:"required"`

	// Auth
	JWTSecret     string        `json:"JWT_SECRET" validate:"required,min=16"`
	TokenDuration time.Duration `json:"TOKEN_DURATION" validate:"gte=1m"`
	AuthRateLimit float64       `json:"AUTH_RATE_LIMIT" validate:"gt=0"`
	AuthRateBurst int           `json:"AUTH_RATE_BURST" validate:"min=1"`

	// Logging
	LogLevel  string `json:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `json:"LOG_FORMAT" validate:"oneof=text json"`

	// Analytics
	AnalyticsMonths int `json:"ANALYTICS_MONTHS" validate:"min=1,max=36"`
}

// devSecret is used when JWT_SECRET is unset. Never rely on it in production.
const devSecret = "splitkit-development-secret-change-me"

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		StaticPath:      getEnv("STATIC_PATH", "./static"),
		StorageBackend:  getEnv("STORAGE_BACKEND", "sqlite"),
		DBPath:          getEnv("DB_PATH", ""),
		JWTSecret:       getEnv("JWT_SECRET", devSecret),
		TokenDuration:   getEnvDuration("TOKEN_DURATION", 24*time.Hour),
		AuthRateLimit:   getEnvFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst:   getEnvInt("AUTH_RATE_BURST", 10),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		AnalyticsMonths: getEnvInt("ANALYTICS_MONTHS", 6),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath(cfg.StorageBackend)
	}

	if err := validation.Default().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// UsingDevSecret reports whether JWT_SECRET was left unset.
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == devSecret
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func defaultDBPath(backend string) string {
	if backend == "bolt" {
		return "./data/splitkit.bolt"
	}
	return "./data/splitkit.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		// Leave a value validation rejects rather than silently defaulting.
		return -1
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		return -1
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		return -1
	}
	return defaultValue
}
