package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret string
	JWTIssuer string

	// Worker auth. Bcrypt hash of the shared key delivery workers
	// present in X-Worker-Key.
	WorkerKeyHash string

	// Rate limiting
	TransitionRateLimit  int
	TransitionRateWindow time.Duration
	RequestRateLimit     int
	RequestRateWindow    time.Duration

	// Email delivery
	OutboxClaimBatch   int
	OutboxClaimTimeout time.Duration

	// Links embedded in email bodies point here.
	AppBaseURL string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Database defaults (matches podman setup: make postgres-start)
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 25432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "reqflow"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT defaults
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "reqflow"),

		WorkerKeyHash: getEnv("WORKER_KEY_HASH", ""),

		// Rate limit defaults. Transitions are mutation-heavy so they
		// get a tighter budget than plain reads.
		TransitionRateLimit:  getEnvInt("TRANSITION_RATE_LIMIT", 30),
		TransitionRateWindow: getEnvDuration("TRANSITION_RATE_WINDOW", time.Minute),
		RequestRateLimit:     getEnvInt("REQUEST_RATE_LIMIT", 300),
		RequestRateWindow:    getEnvDuration("REQUEST_RATE_WINDOW", time.Minute),

		// Email delivery defaults
		OutboxClaimBatch:   getEnvInt("OUTBOX_CLAIM_BATCH", 20),
		OutboxClaimTimeout: getEnvDuration("OUTBOX_CLAIM_TIMEOUT", 5*time.Minute),

		AppBaseURL: getEnv("APP_BASE_URL", "https://app.reqflow.example.com"),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// HasWorkerAuth returns true if the delivery worker endpoints are enabled.
func (c *Config) HasWorkerAuth() bool {
	return c.WorkerKeyHash != ""
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
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
