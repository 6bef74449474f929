package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	StateTransitionInterval time.Duration
	StatisticsInterval      time.Duration
	RetentionInterval       time.Duration
	OutboxRelayInterval     time.Duration

	AlarmPageSize        int
	AlarmRetentionWindow time.Duration

	EnablePollPublishedConsumer bool
}

func Load() (Config, error) {
	// Local development reads a .env file; deployed environments set real env.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "newsroom"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		StateTransitionInterval: envDuration("POLL_TRANSITION_INTERVAL", 7*24*time.Hour),
		StatisticsInterval:      envDuration("POLL_STATISTICS_INTERVAL", 5*time.Minute),
		RetentionInterval:       envDuration("ALARM_RETENTION_INTERVAL", 24*time.Hour),
		OutboxRelayInterval:     envDuration("OUTBOX_RELAY_INTERVAL", 2*time.Second),

		AlarmPageSize:        envInt("ALARM_PAGE_SIZE", 20),
		AlarmRetentionWindow: envDuration("ALARM_RETENTION_WINDOW", 14*24*time.Hour),

		EnablePollPublishedConsumer: envBool("ENABLE_POLL_PUBLISHED_CONSUMER", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
