// Package config holds the persistent dashboard configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration for the dashboard.
type Config struct {
	// ServerURL is the moderation daemon base URL.
	ServerURL string `json:"server_url"`

	// Run defaults
	Run RunConfig `json:"run"`

	// Review preferences
	Review ReviewConfig `json:"review"`
}

// RunConfig holds defaults for starting a moderation run.
type RunConfig struct {
	Subreddit string `json:"subreddit,omitempty"` // last used community
	Limit     int    `json:"limit"`
}

// ReviewConfig holds human-review preferences.
type ReviewConfig struct {
	Enabled bool `json:"enabled"`
	// AutoGenerateReasons requests a drafted removal reason as soon as an
	// item is marked for removal, matching the original dashboard flow.
	// Off, the moderator triggers generation explicitly.
	AutoGenerateReasons bool `json:"auto_generate_reasons"`
	// RememberAPIKey persists the analyst API key in the local store.
	RememberAPIKey bool `json:"remember_api_key"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL: "http://localhost:8080",
		Run: RunConfig{
			Limit: 5,
		},
		Review: ReviewConfig{
			Enabled:             true,
			AutoGenerateReasons: true,
			RememberAPIKey:      false,
		},
	}
}

// DataDir returns the dashboard data directory.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".modqueue")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load reads config from disk, or returns defaults.
func Load() (*Config, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultConfig().ServerURL
	}
	if cfg.Run.Limit <= 0 {
		cfg.Run.Limit = DefaultConfig().Run.Limit
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// AutoPopulateFromEnv fills in settings from environment variables.
func (c *Config) AutoPopulateFromEnv() {
	if url := os.Getenv("MODQUEUE_SERVER"); url != "" {
		c.ServerURL = url
	}
}
