// Package config provides configuration management functionality.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          int
	FinnhubAPIKey string // API key for Finnhub quote/metric endpoints
	AllowedOrigin string // Deployment-configured origin added to the fixed allow-list
	SECUserAgent  string // Identifying User-Agent required by SEC EDGAR's access policy
	LogLevel      string
	DevMode       bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnvAsInt("PROXY_PORT", 8787),
		FinnhubAPIKey: getEnv("FINNHUB_API_KEY", ""),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", ""),
		SECUserAgent:  getEnv("SEC_USER_AGENT", "edgeproxy/1.0 (ops@quotedesk.io)"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DevMode:       getEnvAsBool("DEV_MODE", false),
	}

	// Note: FINNHUB_API_KEY is optional at startup. Routes that need it
	// respond with a configuration error instead of failing the process.
	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
