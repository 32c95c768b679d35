package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the process-wide settings. It is loaded once at startup
// from environment variables and treated as immutable afterwards.
type Config struct {
	// Database
	DatabaseURL string

	// Identity tokens
	TokenSecret string
	TokenTTL    time.Duration

	// HTTP
	Addr    string
	BaseURL string

	// Feeds
	PublicFeedLimit int

	// Logging
	LogLevel string
}

// Load reads the configuration from the environment. Missing required
// variables are reported together in a single error.
func Load() (*Config, error) {
	cfg := &Config{
		TokenTTL:        24 * time.Hour,
		Addr:            ":8080",
		BaseURL:         "http://localhost:8080",
		PublicFeedLimit: 8,
		LogLevel:        "info",
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.TokenSecret = os.Getenv("KEJANI_TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "KEJANI_TOKEN_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if v := os.Getenv("KEJANI_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse KEJANI_TOKEN_TTL: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("config: KEJANI_TOKEN_TTL must be positive, got %s", d)
		}
		cfg.TokenTTL = d
	}

	if v := os.Getenv("KEJANI_ADDR"); v != "" {
		cfg.Addr = v
	}

	if v := os.Getenv("KEJANI_BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	if v := os.Getenv("KEJANI_FEED_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse KEJANI_FEED_LIMIT: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("config: KEJANI_FEED_LIMIT must be at least 1, got %d", n)
		}
		cfg.PublicFeedLimit = n
	}

	if v := os.Getenv("KEJANI_LOG_LEVEL"); v != "" {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(v)
		default:
			return nil, fmt.Errorf("config: unknown KEJANI_LOG_LEVEL %q", v)
		}
	}

	return cfg, nil
}
