package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration, read from a YAML file with environment
// overrides on top.
type Config struct {
	Addr      string       `yaml:"addr"`
	DryRun    bool         `yaml:"dry_run"`
	OpenAIKey string       `yaml:"openai_api_key"`
	Reddit    RedditConfig `yaml:"reddit"`

	// SubredditRules maps lowercase subreddit names to extra moderation
	// guidance folded into analyst prompts.
	SubredditRules map[string]string `yaml:"subreddit_rules"`
}

// RedditConfig identifies the registered Reddit application.
type RedditConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	UserAgent    string `yaml:"user_agent"`
}

// DefaultConfig returns the daemon defaults.
func DefaultConfig() Config {
	return Config{
		Addr:   ":8080",
		DryRun: true,
		Reddit: RedditConfig{
			RedirectURI: "http://localhost:8080/auth/reddit/callback",
			UserAgent:   "modqueue daemon (by /u/modqueue-bot)",
		},
	}
}

// LoadConfig reads path if it exists, then applies env overrides. A missing
// file is not an error; env vars alone can configure the daemon.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if v := os.Getenv("MODQUEUED_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_REDIRECT_URI"); v != "" {
		cfg.Reddit.RedirectURI = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIKey = v
	}
	if v := os.Getenv("MODQUEUED_DRY_RUN"); v != "" {
		cfg.DryRun = v == "1" || v == "true"
	}

	return cfg, nil
}

// Validate checks the fields the daemon cannot run without.
func (c Config) Validate() error {
	if c.Reddit.ClientID == "" || c.Reddit.ClientSecret == "" {
		return fmt.Errorf("reddit client_id and client_secret are required")
	}
	return nil
}
