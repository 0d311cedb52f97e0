package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Database
	DatabaseURL string

	// Env
	Env string

	// Unit-of-work retry tuning, consumed by internal/retry.
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	CommandTimeout   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		Env:              getEnv("ENV", "development"),
		RetryMaxAttempts: getEnvInt("STORAGE_RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   time.Duration(getEnvInt("STORAGE_RETRY_BASE_DELAY_MS", 10)) * time.Millisecond,
		CommandTimeout:   time.Duration(getEnvInt("STORAGE_COMMAND_TIMEOUT_SECONDS", 30)) * time.Second,
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
	if c.RetryMaxAttempts < 0 {
		return fmt.Errorf("STORAGE_RETRY_MAX_ATTEMPTS must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
