package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/env"
)

const defaultHTTPTimeout = 10 * time.Second

type Config struct {
	// SlackWebhookURL is empty when no webhook is configured; messages are then
	// logged as Block Kit Builder preview links instead of being posted.
	SlackWebhookURL string
	HTTPTimeout     time.Duration
	LogLevel        slog.Level
}

func Load() (*Config, error) {
	cfg := &Config{}

	webhookURL, err := env.GetOptional("SLACK_WEBHOOK_URL", env.ParseHTTPURL)
	if err != nil {
		return nil, err
	}

	cfg.SlackWebhookURL = webhookURL
	cfg.HTTPTimeout = env.Get("HTTP_TIMEOUT", defaultHTTPTimeout, env.ParseDuration)

	level, err := env.GetOptional("LOG_LEVEL", parseLogLevel)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = level

	return cfg, nil
}

// PreviewMode reports whether messages are logged instead of posted.
func (c *Config) PreviewMode() bool {
	return c.SlackWebhookURL == ""
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}
