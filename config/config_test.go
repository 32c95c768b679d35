package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/kejani")
	t.Setenv("KEJANI_TOKEN_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected default ttl 24h, got %s", cfg.TokenTTL)
	}
	if cfg.PublicFeedLimit != 8 {
		t.Fatalf("expected default feed limit 8, got %d", cfg.PublicFeedLimit)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KEJANI_TOKEN_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required variables")
	}
	for _, name := range []string{"DATABASE_URL", "KEJANI_TOKEN_SECRET"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error should name %s, got: %v", name, err)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("KEJANI_ADDR", ":9999")
	t.Setenv("KEJANI_BASE_URL", "https://kejani.example/")
	t.Setenv("KEJANI_TOKEN_TTL", "30m")
	t.Setenv("KEJANI_FEED_LIMIT", "20")
	t.Setenv("KEJANI_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9999" {
		t.Fatalf("addr override failed: %q", cfg.Addr)
	}
	if cfg.BaseURL != "https://kejani.example" {
		t.Fatalf("base url should be trimmed, got %q", cfg.BaseURL)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("ttl override failed: %s", cfg.TokenTTL)
	}
	if cfg.PublicFeedLimit != 20 {
		t.Fatalf("feed limit override failed: %d", cfg.PublicFeedLimit)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level should normalize, got %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad ttl", "KEJANI_TOKEN_TTL", "soon"},
		{"negative ttl", "KEJANI_TOKEN_TTL", "-1h"},
		{"bad feed limit", "KEJANI_FEED_LIMIT", "many"},
		{"zero feed limit", "KEJANI_FEED_LIMIT", "0"},
		{"unknown log level", "KEJANI_LOG_LEVEL", "loud"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}
