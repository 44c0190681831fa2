package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the AI visibility service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Search provider configuration
	SearchProvider string
	OpenAIAPIKey   string
	OpenAIModel    string
	SearchTimeout  time.Duration

	// SendGrid configuration
	SendGridAPIKey    string
	SendGridFromName  string
	SendGridFromEmail string

	// Upload guard configuration
	MaxUploadMB        int
	AllowRetrySameFile bool
	SubmissionCooldown time.Duration

	// Job pool configuration
	JobWorkers   int
	JobQueueSize int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "aivisibility"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Search defaults
		SearchProvider: strings.ToLower(getEnv("SEARCH_PROVIDER", "openai")),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o"),
		SearchTimeout:  getDurationEnv("SEARCH_TIMEOUT", 60*time.Second),

		// SendGrid defaults
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "AI Visibility"),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "reports@boostmygeo.com"),

		// Upload guard defaults
		MaxUploadMB:        getIntEnv("MAX_UPLOAD_MB", 10),
		AllowRetrySameFile: getBoolEnv("ALLOW_RETRY_SAME_FILE", false),
		SubmissionCooldown: getDurationEnv("SUBMISSION_COOLDOWN", 24*time.Hour),

		// Job pool defaults
		JobWorkers:   getIntEnv("JOB_WORKERS", 4),
		JobQueueSize: getIntEnv("JOB_QUEUE_SIZE", 16),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

// MaxUploadBytes returns the upload size ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
