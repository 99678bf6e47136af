// ABOUTME: TOML configuration sections shared by the bot frontends
// ABOUTME: Decodes with ${VAR} expansion and validates the gateway URL

package botclient

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// GatewayConfig locates the rag-gateway HTTP API.
type GatewayConfig struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"`
}

// TimeoutOrDefault parses Timeout, falling back to two minutes.
func (g GatewayConfig) TimeoutOrDefault() (time.Duration, error) {
	if g.Timeout == "" {
		return 2 * time.Minute, nil
	}
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 0, fmt.Errorf("gateway.timeout %q: %w", g.Timeout, err)
	}
	return d, nil
}

// Validate checks the gateway URL.
func (g GatewayConfig) Validate() error {
	if g.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	u, err := url.Parse(g.URL)
	if err != nil {
		return fmt.Errorf("gateway.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway.url must use http or https scheme")
	}
	if _, err := g.TimeoutOrDefault(); err != nil {
		return err
	}
	return nil
}

// StateConfig holds the bot's local thread database.
type StateConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig selects the bot's log level.
type LoggingConfig struct {
	Level string `toml:"level"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// DecodeFile reads the TOML file at path into v after expanding ${VAR}
// references from the environment.
func DecodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	expanded := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})

	if _, err := toml.Decode(expanded, v); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}
