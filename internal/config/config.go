// Package config loads settings for the TUI and the checker daemon from
// environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ngmaloney/weather-alert/internal/database"
	"github.com/ngmaloney/weather-alert/internal/geo"
	"github.com/ngmaloney/weather-alert/internal/tomorrow"
)

// Config holds all application settings, populated from environment variables.
type Config struct {
	APIKey       string
	APIBaseURL   string
	HTTPRetryMax int

	DBPath   string
	RadiusKm float64

	LogLevel  string
	LogFormat string
	LogFile   string

	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional shared alert cache.
	RedisURL string

	// Optional notification sink.
	KafkaBrokers     []string
	KafkaNotifyTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	radius, err := strconv.ParseFloat(EnvOrDefault("ALERT_RADIUS_KM", strconv.FormatFloat(geo.DefaultRadiusKm, 'f', -1, 64)), 64)
	if err != nil || radius <= 0 {
		return nil, errors.New("invalid ALERT_RADIUS_KM")
	}

	retryMax, err := strconv.Atoi(EnvOrDefault("HTTP_RETRY_MAX", "2"))
	if err != nil || retryMax < 0 {
		return nil, errors.New("invalid HTTP_RETRY_MAX")
	}

	shutdownTimeout, err := time.ParseDuration(EnvOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cfg := &Config{
		APIKey:           os.Getenv("TOMORROW_API_KEY"),
		APIBaseURL:       EnvOrDefault("TOMORROW_BASE_URL", tomorrow.DefaultBaseURL),
		HTTPRetryMax:     retryMax,
		DBPath:           EnvOrDefault("WEATHER_ALERT_DB", database.DBPath()),
		RadiusKm:         radius,
		LogLevel:         EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        EnvOrDefault("LOG_FORMAT", "text"),
		LogFile:          os.Getenv("LOG_FILE"),
		HTTPAddr:         EnvOrDefault("HTTP_ADDR", ":9091"),
		ShutdownTimeout:  shutdownTimeout,
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBrokers:     ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaNotifyTopic: EnvOrDefault("KAFKA_NOTIFY_TOPIC", "weather-alert-notifications"),
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

// Validate checks settings required to talk to the weather API
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("TOMORROW_API_KEY is required")
	}
	return nil
}

// KafkaEnabled reports whether notifications should also be published to Kafka
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// EnvOrDefault returns the value of key, or def when unset or empty
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBrokers splits a comma-separated broker list, dropping blanks
func ParseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
