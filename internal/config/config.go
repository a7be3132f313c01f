package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gocortex/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Store  StoreConfig
	Server ServerConfig
	Export ExportConfig
}

// StoreConfig holds result store settings
type StoreConfig struct {
	// Driver is "sqlite3" or "postgres"
	Driver string
	// DSN is the driver-specific connection string
	DSN string
}

// ServerConfig holds the read API server settings
type ServerConfig struct {
	Port string
}

// ExportConfig holds export output settings
type ExportConfig struct {
	Path string
}

// Load reads configuration from the environment, consulting a local .env
// file when present, and validates it
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly
	_ = godotenv.Load()

	config := &Config{
		Store: StoreConfig{
			Driver: getEnvOrDefault("STORE_DRIVER", "sqlite3"),
			DSN:    getEnvOrDefault("STORE_DSN", "gocortex.db"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Export: ExportConfig{
			Path: getEnvOrDefault("EXPORT_PATH", "inferences.xlsx"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Store.Driver {
	case "sqlite3", "postgres":
	default:
		return errors.ConfigInvalid("STORE_DRIVER must be sqlite3 or postgres")
	}
	if config.Store.DSN == "" {
		return errors.ConfigInvalid("STORE_DSN is required")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT cannot be empty")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
