package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// HTTP API
	APIPort int

	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Upstream trade source
	Hashdive HashdiveConfig

	// Email notifications
	Email EmailConfig

	// Poller configuration
	Poller PollerConfig

	// Alert thresholds
	Alerts AlertConfig

	// LLM configuration (insider market classifier)
	LLM LLMConfig
}

// HashdiveConfig holds upstream API configuration
type HashdiveConfig struct {
	APIKey  string
	BaseURL string
}

// EmailConfig holds SMTP transport configuration
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	UseTLS   bool // STARTTLS when true, implicit SSL when false
}

// PollerConfig holds background polling parameters
type PollerConfig struct {
	IntervalSeconds int
	LookbackHours   int
	WalletDelayMS   int // minimum delay between per-wallet upstream calls
	FetchLimit      int
}

// AlertConfig holds alert gating parameters
type AlertConfig struct {
	MinTradeSizeUSD float64
	BatchAlerts     bool
}

// LLMConfig holds LLM service configuration
type LLMConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Model    string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		APIPort: getEnvInt("API_PORT", 8080),

		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "insider_tracker"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "tracker"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "tracker123"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		Hashdive: HashdiveConfig{
			APIKey:  os.Getenv("HASHDIVE_API_KEY"),
			BaseURL: getEnvOrDefault("HASHDIVE_API_URL", "https://api.hashdive.io"),
		},

		Email: EmailConfig{
			Host:     getEnvOrDefault("EMAIL_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("EMAIL_PORT", 587),
			Username: os.Getenv("EMAIL_USERNAME"),
			Password: os.Getenv("EMAIL_PASSWORD"),
			From:     os.Getenv("EMAIL_FROM"),
			To:       splitList(os.Getenv("EMAIL_TO")),
			UseTLS:   getEnvOrDefault("EMAIL_USE_TLS", "true") == "true",
		},

		Poller: PollerConfig{
			IntervalSeconds: getEnvInt("POLL_INTERVAL_SECONDS", 60),
			LookbackHours:   getEnvInt("INITIAL_LOOKBACK_HOURS", 168),
			WalletDelayMS:   getEnvInt("WALLET_DELAY_MS", 1050),
			FetchLimit:      getEnvInt("FETCH_LIMIT", 100),
		},

		Alerts: AlertConfig{
			MinTradeSizeUSD: getEnvFloat("MIN_TRADE_SIZE_USD", 100.0),
			BatchAlerts:     getEnvOrDefault("BATCH_ALERTS", "false") == "true",
		},

		LLM: LLMConfig{
			Enabled:  getEnvOrDefault("LLM_ENABLED", "false") == "true",
			Endpoint: getEnvOrDefault("LLM_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		},
	}
}

// splitList parses a comma-separated env value into a trimmed list
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
