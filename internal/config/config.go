package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	// Embedded zone database so BOOKING_TIMEZONE resolves in minimal images.
	_ "time/tzdata"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Salon backend
	SalonAPIBaseURL string
	SalonAPITimeout time.Duration

	// Booking workflow
	StepTimeout            time.Duration
	MaxAdvanceBookingDays  int
	DefaultDurationMinutes int
	BookingTimezone        string

	// Submission guard (Redis is optional; empty address keeps the guard in-process)
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	SubmitGuardTTL time.Duration

	// Widget HTTP surface
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SalonAPIBaseURL: strings.TrimRight(getEnv("SALON_API_BASE_URL", "http://localhost:8000/api/v1"), "/"),
		SalonAPITimeout: getEnvAsDuration("SALON_API_TIMEOUT", 15*time.Second),

		StepTimeout:            getEnvAsDuration("STEP_TIMEOUT", 10*time.Second),
		MaxAdvanceBookingDays:  getEnvAsInt("MAX_ADVANCE_BOOKING_DAYS", 90),
		DefaultDurationMinutes: getEnvAsInt("DEFAULT_DURATION_MINUTES", 30),
		BookingTimezone:        getEnv("BOOKING_TIMEZONE", "Asia/Tokyo"),

		RedisAddr:      strings.TrimSpace(getEnv("REDIS_ADDR", "")),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		SubmitGuardTTL: getEnvAsDuration("SUBMIT_GUARD_TTL", time.Minute),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// ResolveLocation loads BookingTimezone. An empty zone is UTC.
func (c *Config) ResolveLocation() (*time.Location, error) {
	if c == nil || strings.TrimSpace(c.BookingTimezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.BookingTimezone))
	if err != nil {
		return time.UTC, fmt.Errorf("config: BOOKING_TIMEZONE %q: %w", c.BookingTimezone, err)
	}
	return loc, nil
}

// Location is ResolveLocation with the error dropped; unknown zones are UTC.
// Callers at startup should check ResolveLocation and warn.
func (c *Config) Location() *time.Location {
	loc, _ := c.ResolveLocation()
	return loc
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
