// ABOUTME: Configuration loading and parsing for rag-gateway
// ABOUTME: YAML files with env var expansion, process env overrides, and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSecretKey is the documented fallback signing key. Deployments must override it.
const DefaultSecretKey = "your_secret_key_here"

// Backend kinds understood by the answer backend factory.
const (
	BackendStub   = "stub"
	BackendHTTP   = "http"
	BackendOpenAI = "openai"
)

// Config represents the complete rag-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Web       WebConfig       `yaml:"web"`
	Backend   BackendConfig   `yaml:"backend"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" env:"RAG_HTTP_ADDR"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" env:"RAG_TAILSCALE"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key" env:"TS_AUTHKEY"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" env:"RAG_DB_PATH"`
}

// AuthConfig holds bearer token configuration.
// The env names match the variables the public API has always honoured.
type AuthConfig struct {
	SecretKey                string `yaml:"secret_key" env:"SECRET_KEY"`
	Algorithm                string `yaml:"algorithm" env:"ALGORITHM"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes" env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
}

// TokenTTL returns the configured access token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}

// WebConfig holds web channel session cookie options
type WebConfig struct {
	CookieSecure  bool          `yaml:"cookie_secure" env:"RAG_COOKIE_SECURE"`
	SessionMaxAge time.Duration `yaml:"-"`

	SessionMaxAgeRaw string `yaml:"session_max_age"`
}

// BackendConfig selects and configures the answer backend
type BackendConfig struct {
	Kind    string        `yaml:"kind" env:"RAG_BACKEND"`
	Timeout time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout" env:"RAG_BACKEND_TIMEOUT"`

	HTTP   HTTPBackendConfig   `yaml:"http"`
	OpenAI OpenAIBackendConfig `yaml:"openai"`
}

// HTTPBackendConfig points at a remote answer service
type HTTPBackendConfig struct {
	URL string `yaml:"url" env:"RAG_BACKEND_URL"`
}

// OpenAIBackendConfig holds settings for an OpenAI-compatible chat completion API
type OpenAIBackendConfig struct {
	APIKey       string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL      string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Model        string `yaml:"model" env:"OPENAI_MODEL"`
	SystemPrompt string `yaml:"system_prompt"`
}

// AuditConfig holds audit sink configuration
type AuditConfig struct {
	// FilePath enables the JSON-lines sink when set
	FilePath    string        `yaml:"file_path" env:"RAG_AUDIT_FILE"`
	SinkTimeout time.Duration `yaml:"-"`

	SinkTimeoutRaw string `yaml:"sink_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"RAG_LOG_LEVEL"`
	Format string `yaml:"format" env:"RAG_LOG_FORMAT"`
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: "127.0.0.1:8000",
		},
		Tailscale: TailscaleConfig{
			Hostname: "rag-gateway",
		},
		Database: DatabaseConfig{
			Path: "./rag-gateway.db",
		},
		Auth: AuthConfig{
			SecretKey:                DefaultSecretKey,
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 60,
		},
		Backend: BackendConfig{
			Kind:       BackendStub,
			TimeoutRaw: "30s",
			OpenAI: OpenAIBackendConfig{
				Model: "gpt-4o-mini",
			},
		},
		Audit: AuditConfig{
			SinkTimeoutRaw: "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Values missing from the file keep their defaults. Environment variables in the
// format ${VAR_NAME} are expanded, then process env overrides are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault behaves like Load but falls back to defaults plus env overrides
// when no file exists at path.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("checking config file: %w", err)
		}
	}
	return finish(Default())
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// UsesDefaultSecret reports whether the signing key was left at its documented default.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.SecretKey == DefaultSecretKey
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key is required")
	}

	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("auth.algorithm %q is not supported (use HS256, HS384 or HS512)", c.Auth.Algorithm)
	}

	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("auth.access_token_expire_minutes must be positive")
	}

	switch c.Backend.Kind {
	case BackendStub:
	case BackendHTTP:
		if c.Backend.HTTP.URL == "" {
			return fmt.Errorf("backend.http.url is required for the http backend")
		}
	case BackendOpenAI:
		if c.Backend.OpenAI.APIKey == "" && c.Backend.OpenAI.BaseURL == "" {
			return fmt.Errorf("backend.openai.api_key or backend.openai.base_url is required for the openai backend")
		}
		if c.Backend.OpenAI.Model == "" {
			return fmt.Errorf("backend.openai.model is required for the openai backend")
		}
	default:
		return fmt.Errorf("backend.kind %q is not supported (use stub, http or openai)", c.Backend.Kind)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Backend.TimeoutRaw != "" {
		cfg.Backend.Timeout, err = time.ParseDuration(cfg.Backend.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing backend.timeout %q: %w", cfg.Backend.TimeoutRaw, err)
		}
	}

	if cfg.Audit.SinkTimeoutRaw != "" {
		cfg.Audit.SinkTimeout, err = time.ParseDuration(cfg.Audit.SinkTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing audit.sink_timeout %q: %w", cfg.Audit.SinkTimeoutRaw, err)
		}
	}

	if cfg.Web.SessionMaxAgeRaw != "" {
		cfg.Web.SessionMaxAge, err = time.ParseDuration(cfg.Web.SessionMaxAgeRaw)
		if err != nil {
			return fmt.Errorf("parsing web.session_max_age %q: %w", cfg.Web.SessionMaxAgeRaw, err)
		}
	}

	return nil
}
