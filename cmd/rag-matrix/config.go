// ABOUTME: Configuration loading for rag-matrix
// ABOUTME: Loads TOML config with environment variable expansion

package main

import (
	"fmt"
	"net/url"

	"github.com/2389/rag-gateway/internal/botclient"
)

type Config struct {
	Matrix  MatrixConfig            `toml:"matrix"`
	Bridge  BridgeConfig            `toml:"bridge"`
	Gateway botclient.GatewayConfig `toml:"gateway"`
	State   botclient.StateConfig   `toml:"state"`
	Logging botclient.LoggingConfig `toml:"logging"`
}

type MatrixConfig struct {
	Homeserver  string `toml:"homeserver"`
	UserID      string `toml:"user_id"`
	AccessToken string `toml:"access_token"`
}

type BridgeConfig struct {
	AllowedRooms    []string `toml:"allowed_rooms"`
	CommandPrefix   string   `toml:"command_prefix"`
	TypingIndicator bool     `toml:"typing_indicator"`
}

// Load reads config from the given path, expanding environment variables.
func Load(path string) (*Config, error) {
	cfg := Config{
		State: botclient.StateConfig{Path: "rag-matrix.db"},
	}
	if err := botclient.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver is required")
	}
	if _, err := url.Parse(c.Matrix.Homeserver); err != nil {
		return fmt.Errorf("matrix.homeserver is not a valid URL: %w", err)
	}
	if c.Matrix.UserID == "" {
		return fmt.Errorf("matrix.user_id is required")
	}
	if c.Matrix.AccessToken == "" {
		return fmt.Errorf("matrix.access_token is required")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}
	return c.Gateway.Validate()
}
