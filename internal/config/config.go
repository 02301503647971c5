package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Dashboard API (the practice website backend this watcher polls)
	DashboardBaseURL string
	DashboardToken   string
	HTTPTimeout      time.Duration

	// Polling cadence
	BusinessHourStart    int
	BusinessHourEnd      int
	BusinessPollInterval time.Duration
	OffHoursPollInterval time.Duration

	// Cursor persistence
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	CursorKey     string

	// Operator alerting
	AlertsEnabled     bool
	AlertSoundEnabled bool

	// SendGrid email alerts for new leads
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AlertRecipients   []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8090"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DashboardBaseURL: getEnv("DASHBOARD_BASE_URL", "http://localhost:3000"),
		DashboardToken:   getEnv("DASHBOARD_API_TOKEN", ""),
		HTTPTimeout:      getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),

		BusinessHourStart:    getEnvAsInt("BUSINESS_HOUR_START", 8),
		BusinessHourEnd:      getEnvAsInt("BUSINESS_HOUR_END", 18),
		BusinessPollInterval: getEnvAsDuration("BUSINESS_POLL_INTERVAL", 30*time.Second),
		OffHoursPollInterval: getEnvAsDuration("OFF_HOURS_POLL_INTERVAL", 60*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		CursorKey:     getEnv("CURSOR_KEY", "dashboard:last_checked"),

		AlertsEnabled:     getEnvAsBool("ALERTS_ENABLED", true),
		AlertSoundEnabled: getEnvAsBool("ALERT_SOUND_ENABLED", true),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Clinic Lead Watch"),
		AlertRecipients:   getEnvAsList("ALERT_RECIPIENTS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList parses a comma-separated environment variable into trimmed, non-empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
