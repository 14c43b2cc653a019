// Package config provides configuration management for the wellness tracker
// application. It handles loading configuration from environment variables
// with sensible defaults and validates the configuration to ensure the
// application starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Database Configuration:
//   - DATABASE_PATH: SQLite database file path (default: ./wellness_tracker.db)
//
// Redis Configuration (shared rate-limit counters):
//   - REDIS_ADDRESS: Redis server address. When unset the rate limiter runs
//     permanently in local-only mode; no per-request reconnection is attempted.
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Security Configuration:
//   - JWT_SECRET: JWT signing secret (required, minimum 32 characters)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable rate limiting (default: true)
//   - RATE_LIMIT_API_WINDOW: Window for the generic API policy (default: "1 m")
//   - RATE_LIMIT_API_LIMIT: Request ceiling for the generic API policy (default: 100)
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration values for the wellness tracker application.
// All fields correspond to environment variables that can be set to override
// the default values. Load the configuration with Load() and call Validate()
// before use.
type Config struct {
	// Application settings
	Port         string // Server port number
	LogLevel     string // Logging level (debug, info, warn, error)
	DatabasePath string // Path to SQLite database file

	// Redis configuration for shared rate-limit counters
	RedisAddress  string // Redis server address (host:port); empty disables shared mode
	RedisPassword string // Redis authentication password
	RedisDB       int    // Redis database number (0-15)
	RedisPoolSize int    // Redis connection pool size

	// Rate limiting configuration
	RateLimitEnabled   bool   // Whether rate limiting is enforced
	RateLimitAPIWindow string // Window for the generic API policy (e.g. "1 m")
	RateLimitAPILimit  int    // Request ceiling for the generic API policy

	// JWT authentication configuration
	JWTSecret string // Secret key for JWT token signing (required)
}

// Load creates a new Config instance with values loaded from environment
// variables. Unset variables fall back to defaults. Load does not validate;
// call Validate() on the returned Config.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./wellness_tracker.db"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		RateLimitEnabled:   getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitAPIWindow: getEnv("RATE_LIMIT_API_WINDOW", "1 m"),
		RateLimitAPILimit:  getIntEnv("RATE_LIMIT_API_LIMIT", 100),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

// SharedCountersConfigured reports whether a shared counter backend was
// configured at startup. The rate limiter resolves its backend mode from
// this exactly once; absence means permanently local-only counting.
func (c *Config) SharedCountersConfigured() bool {
	return c.RedisAddress != ""
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values are valid.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long for security")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15")
	}
	if c.RedisPoolSize < 1 {
		return fmt.Errorf("REDIS_POOL_SIZE must be positive")
	}

	if c.RateLimitAPILimit < 1 {
		return fmt.Errorf("RATE_LIMIT_API_LIMIT must be positive")
	}

	return nil
}

// getEnv retrieves an environment variable value or returns a default value
// if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a
// default value when unset or unparseable.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable value or returns a
// default value when unset or unparseable.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
