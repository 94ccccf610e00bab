package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Environment name: "development" or "production".
	Env string

	// Path of the sqlite store file. Created on first use.
	DBPath string

	// Maximum number of OR terms a single store query may carry.
	ClauseBudget int

	// Days a requested start date may precede the recorded trading start
	// before the gap detector clamps it instead of re-fetching.
	GraceDays int
}

var appConfig *Config

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if present; plain environment variables work without it.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:          getEnv("ENV", "development"),
		DBPath:       getEnv("TRADEDB_PATH", "./trader.sqlite"),
		ClauseBudget: getEnvInt("TRADEDB_CLAUSE_BUDGET", 500),
		GraceDays:    getEnvInt("TRADEDB_GRACE_DAYS", 30),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration.
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}
