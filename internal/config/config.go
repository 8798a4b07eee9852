// Package config handles loading, parsing, and validating application configuration.
// Settings come from defaults, then an optional YAML file, then environment variables.
// file: internal/config/config.go.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig contains settings specific to the MCP server component.
type ServerConfig struct {
	// Name is the human-readable name reported to MCP clients.
	Name string `yaml:"name" env:"SERVER_NAME"`
	// RequestTimeout bounds the handling of a single request.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SPOTIGNITION_REQUEST_TIMEOUT"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SPOTIGNITION_SHUTDOWN_TIMEOUT"`
}

// SpotifyConfig contains credentials and options for the Spotify Web API.
type SpotifyConfig struct {
	// ClientID of the Spotify application. Required.
	ClientID string `yaml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	// ClientSecret of the Spotify application. Required.
	ClientSecret string `yaml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	// Market is an optional ISO 3166-1 alpha-2 country code used for track relinking.
	Market string `yaml:"market" env:"SPOTIFY_MARKET"`
	// BaseURL overrides the Web API endpoint. Empty means the public API.
	BaseURL string `yaml:"base_url" env:"SPOTIFY_API_BASE_URL"`
	// RequestsPerSecond is the client-side rate limit. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"SPOTIFY_REQUESTS_PER_SECOND"`
}

// AuthConfig contains settings related to access token caching.
type AuthConfig struct {
	// TokenPath is the fallback file for the cached access token when the
	// OS keyring is unavailable. Supports '~' expansion.
	TokenPath string `yaml:"token_path" env:"SPOTIGNITION_TOKEN_PATH"`
	// DisableKeyring forces the file fallback.
	DisableKeyring bool `yaml:"disable_keyring" env:"SPOTIGNITION_DISABLE_KEYRING"`
}

// LoggingConfig controls the log level and optional log file.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	File  string `yaml:"file" env:"LOG_FILE"`
}

// Config is the root configuration structure for spotignition.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Spotify SpotifyConfig `yaml:"spotify"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "spotignition.yaml"
	}
	return filepath.Join(homeDir, ".config", "spotignition", "spotignition.yaml")
}

// DefaultConfig returns a configuration populated with default values and
// environment overrides applied.
func DefaultConfig() *Config {
	cfg := defaults()
	applyEnvironmentOverrides(cfg, logging.GetLogger("config_default"))
	return cfg
}

func defaults() *Config {
	tokenPath := "spotify_token.json" //nolint:gosec // G101: Fallback path, not a secret itself.
	if homeDir, err := os.UserHomeDir(); err == nil {
		tokenPath = filepath.Join(homeDir, ".config", "spotignition", "spotify_token.json")
	}

	return &Config{
		Server: ServerConfig{
			Name:            "Spotignition",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Spotify: SpotifyConfig{
			RequestsPerSecond: 10,
		},
		Auth: AuthConfig{
			TokenPath: tokenPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from the YAML file at path, layered over
// defaults, then applies environment overrides. Supports '~' expansion.
func LoadFromFile(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path comes from command-line flag or default, considered trusted input.
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", expanded)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file YAML: %s", expanded)
	}

	applyEnvironmentOverrides(cfg, logging.GetLogger("config_load"))
	return cfg, nil
}

// Load reads path when it exists and falls back to defaults otherwise.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(expanded); os.IsNotExist(statErr) {
		logging.GetLogger("config_load").Info("Config file not found, using defaults and environment.", "path", expanded)
		return DefaultConfig(), nil
	}
	return LoadFromFile(expanded)
}

// ExpandPath replaces a leading '~' with the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory to expand path")
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// applyEnvironmentOverrides lets environment variables take precedence over
// file values and defaults. Logs where the credentials came from.
func applyEnvironmentOverrides(cfg *Config, logger logging.Logger) {
	clientIDSource := "default"
	if cfg.Spotify.ClientID != "" {
		clientIDSource = "config file"
	}
	secretSource := "default"
	if cfg.Spotify.ClientSecret != "" {
		secretSource = "config file"
	}

	before := *cfg
	if err := cleanenv.ReadEnv(cfg); err != nil {
		logger.Warn("Failed to apply environment overrides.", "error", err)
		*cfg = before
	}

	if cfg.Spotify.ClientID != before.Spotify.ClientID {
		clientIDSource = "environment variable"
	}
	if cfg.Spotify.ClientSecret != before.Spotify.ClientSecret {
		secretSource = "environment variable"
	}

	logger.Debug("Spotify client ID source determined.", "source", clientIDSource)
	if cfg.Spotify.ClientID == "" {
		logger.Warn("Required SPOTIFY_CLIENT_ID is missing (checked environment and config file).")
	}
	logger.Debug("Spotify client secret source determined.", "source", secretSource)
	if cfg.Spotify.ClientSecret == "" {
		logger.Warn("Required SPOTIFY_CLIENT_SECRET is missing (checked environment and config file).")
	}

	if expanded, err := ExpandPath(cfg.Auth.TokenPath); err == nil {
		cfg.Auth.TokenPath = expanded
	} else {
		logger.Warn("Could not expand '~' in token path.", "error", err)
	}
}

// Validate reports configuration problems that prevent serving requests.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Spotify.ClientID) == "" {
		problems = append(problems, "spotify.client_id is required")
	}
	if strings.TrimSpace(c.Spotify.ClientSecret) == "" {
		problems = append(problems, "spotify.client_secret is required")
	}
	if m := c.Spotify.Market; m != "" && len(m) != 2 {
		problems = append(problems, "spotify.market must be a two-letter country code")
	}
	if c.Spotify.RequestsPerSecond < 0 {
		problems = append(problems, "spotify.requests_per_second must not be negative")
	}
	if c.Server.RequestTimeout <= 0 {
		problems = append(problems, "server.request_timeout must be positive")
	}
	if len(problems) > 0 {
		return errors.Newf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o700); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", expanded)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode config as YAML")
	}
	if err := os.WriteFile(expanded, data, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", expanded)
	}
	return nil
}
