// Package config loads runtime settings from the environment with sane
// defaults, so a bare `promate serve` works out of the box and containerized
// deployments override via PROMATE_* variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"promate/pkg/types"
)

type Config struct {
	HTTP      HTTPConfig      `envPrefix:"PROMATE_HTTP_"`
	WebSocket WebSocketConfig `envPrefix:"PROMATE_WEBSOCKET_"`
	Session   SessionConfig   `envPrefix:"PROMATE_SESSION_"`
}

type HTTPConfig struct {
	Host         string        `env:"HOST" envDefault:"0.0.0.0"`
	Port         int           `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `env:"PING_INTERVAL" envDefault:"30s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"60s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

// SessionConfig carries the defaults every new session starts from plus the
// chat bounds.
type SessionConfig struct {
	FocusSeconds      int    `env:"FOCUS_DURATION" envDefault:"1500"`
	BreakSeconds      int    `env:"BREAK_DURATION" envDefault:"300"`
	DefaultBackground string `env:"DEFAULT_BACKGROUND" envDefault:"BloomingGarden"`
	ChatHistoryLimit  int    `env:"CHAT_HISTORY_LIMIT" envDefault:"100"`
	ChatRateLimit     int    `env:"CHAT_RATE_LIMIT" envDefault:"60"`
}

// Load reads configuration from the environment on top of defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in defaults, ignoring the process environment.
func Default() *Config {
	cfg := &Config{}
	// Parsing against an empty environment applies only the envDefault tags.
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return cfg
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// SessionDefaults converts the session section into the settings every new
// session is seeded with.
func (c *Config) SessionDefaults() types.Settings {
	return types.Settings{
		FocusSeconds: c.Session.FocusSeconds,
		BreakSeconds: c.Session.BreakSeconds,
		Background:   c.Session.DefaultBackground,
	}
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}

	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}

	if c.HTTP.ReadTimeout <= 0 {
		return fmt.Errorf("HTTP read timeout must be positive")
	}

	if c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP write timeout must be positive")
	}

	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("WebSocket ping interval must be positive")
	}

	if c.WebSocket.ReadTimeout <= 0 {
		return fmt.Errorf("WebSocket read timeout must be positive")
	}

	if c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket write timeout must be positive")
	}

	if c.Session.FocusSeconds <= 0 {
		return fmt.Errorf("focus duration must be positive")
	}

	if c.Session.BreakSeconds <= 0 {
		return fmt.Errorf("break duration must be positive")
	}

	if !types.IsValidBackground(c.Session.DefaultBackground) {
		return fmt.Errorf("unknown default background %q", c.Session.DefaultBackground)
	}

	if c.Session.ChatHistoryLimit <= 0 {
		return fmt.Errorf("chat history limit must be positive")
	}

	if c.Session.ChatRateLimit <= 0 {
		return fmt.Errorf("chat rate limit must be positive")
	}

	return nil
}
