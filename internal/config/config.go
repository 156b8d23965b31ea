// Package config loads and saves the on-disk configuration. One yaml file,
// one explicit path, no hidden overrides: the default location is
// os.UserConfigDir()/tempo/config.yaml and TEMPO_CONFIG replaces it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the persisted application configuration.
type Config struct {
	// APIBaseURL is the root of the remote bookkeeping API.
	APIBaseURL string `yaml:"api_base_url"`
	// APIToken is the bearer token for the remote service.
	APIToken string `yaml:"api_token"`
	// AdministrationID scopes all record calls; empty means the session
	// starts in administration selection.
	AdministrationID string `yaml:"administration_id"`
	// AdministrationTZ is the administration's reported time zone,
	// cached at selection time. Wall-clock form input is interpreted in
	// this zone; unknown or empty falls back to UTC.
	AdministrationTZ string `yaml:"administration_time_zone"`
	// UserID is the selected user new entries are registered under.
	UserID string `yaml:"user_id"`
	// PluginsDir is scanned for plugin packages. Empty means
	// <config dir>/plugins.
	PluginsDir string `yaml:"plugins_dir"`
	// Debug records Debug-level session log entries when true.
	// TEMPO_DEBUG=1 forces it on.
	Debug bool `yaml:"debug"`
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	if p := os.Getenv("TEMPO_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine config directory: %w", err)
	}
	return filepath.Join(dir, "tempo", "config.yaml"), nil
}

// Load reads the config at path. A missing file yields defaults, so a
// first run drops straight into the settings form.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyEnv(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv(path)
	return cfg, nil
}

func (c *Config) applyEnv(path string) {
	if os.Getenv("TEMPO_DEBUG") == "1" {
		c.Debug = true
	}
	if c.PluginsDir == "" {
		c.PluginsDir = filepath.Join(filepath.Dir(path), "plugins")
	}
}

// Save writes the config to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
