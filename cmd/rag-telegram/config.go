// ABOUTME: Configuration loading for rag-telegram
// ABOUTME: Loads TOML config with environment variable expansion

package main

import (
	"fmt"

	"github.com/2389/rag-gateway/internal/botclient"
)

type Config struct {
	Telegram TelegramConfig          `toml:"telegram"`
	Gateway  botclient.GatewayConfig `toml:"gateway"`
	State    botclient.StateConfig   `toml:"state"`
	Logging  botclient.LoggingConfig `toml:"logging"`
}

type TelegramConfig struct {
	Token string `toml:"token"`
	// AllowedChats restricts the bot to these chat ids; empty allows all.
	AllowedChats []int64 `toml:"allowed_chats"`
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int `toml:"poll_timeout"`
}

// Load reads config from the given path, expanding environment variables.
func Load(path string) (*Config, error) {
	cfg := Config{
		Telegram: TelegramConfig{PollTimeout: 60},
		State:    botclient.StateConfig{Path: "rag-telegram.db"},
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
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if c.Telegram.PollTimeout <= 0 {
		return fmt.Errorf("telegram.poll_timeout must be positive")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}
	return c.Gateway.Validate()
}
