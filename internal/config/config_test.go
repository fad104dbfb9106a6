package config

import (
	"testing"
	"time"
)

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default should not return nil")
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %q", cfg.HTTP.Host)
	}
	if cfg.WebSocket.PingInterval != 30*time.Second {
		t.Errorf("Expected 30s ping interval, got %v", cfg.WebSocket.PingInterval)
	}
	if cfg.Session.FocusSeconds != 1500 {
		t.Errorf("Expected 25-minute focus default, got %d", cfg.Session.FocusSeconds)
	}
	if cfg.Session.BreakSeconds != 300 {
		t.Errorf("Expected 5-minute break default, got %d", cfg.Session.BreakSeconds)
	}
	if cfg.Session.ChatHistoryLimit != 100 {
		t.Errorf("Expected chat history limit 100, got %d", cfg.Session.ChatHistoryLimit)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should pass validation: %v", err)
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("PROMATE_HTTP_PORT", "9090")
	t.Setenv("PROMATE_HTTP_HOST", "127.0.0.1")
	t.Setenv("PROMATE_SESSION_FOCUS_DURATION", "3000")
	t.Setenv("PROMATE_SESSION_CHAT_RATE_LIMIT", "10")
	t.Setenv("PROMATE_WEBSOCKET_PING_INTERVAL", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %q", cfg.HTTP.Host)
	}
	if cfg.Session.FocusSeconds != 3000 {
		t.Errorf("Expected focus duration 3000, got %d", cfg.Session.FocusSeconds)
	}
	if cfg.Session.ChatRateLimit != 10 {
		t.Errorf("Expected chat rate limit 10, got %d", cfg.Session.ChatRateLimit)
	}
	if cfg.WebSocket.PingInterval != 15*time.Second {
		t.Errorf("Expected 15s ping interval, got %v", cfg.WebSocket.PingInterval)
	}

	// Untouched values keep their defaults.
	if cfg.Session.BreakSeconds != 300 {
		t.Errorf("Expected default break duration, got %d", cfg.Session.BreakSeconds)
	}
}

func TestConfig_LoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("PROMATE_HTTP_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Error("Out-of-range port should fail validation")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative port", func(c *Config) { c.HTTP.Port = -1 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"zero read timeout", func(c *Config) { c.HTTP.ReadTimeout = 0 }},
		{"zero ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }},
		{"zero focus duration", func(c *Config) { c.Session.FocusSeconds = 0 }},
		{"negative break duration", func(c *Config) { c.Session.BreakSeconds = -5 }},
		{"unknown background", func(c *Config) { c.Session.DefaultBackground = "Mordor" }},
		{"zero chat history limit", func(c *Config) { c.Session.ChatHistoryLimit = 0 }},
		{"zero chat rate limit", func(c *Config) { c.Session.ChatRateLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation failure")
			}
		})
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := Default()
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %q", cfg.Addr())
	}
}

func TestConfig_SessionDefaults(t *testing.T) {
	cfg := Default()
	defaults := cfg.SessionDefaults()

	if defaults.FocusSeconds != 1500 || defaults.BreakSeconds != 300 {
		t.Errorf("Unexpected session defaults: %+v", defaults)
	}
	if defaults.Background != "BloomingGarden" {
		t.Errorf("Expected BloomingGarden default, got %q", defaults.Background)
	}
}
