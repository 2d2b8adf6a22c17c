package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("server url = %q", cfg.ServerURL)
	}
	if cfg.Run.Limit != 5 {
		t.Errorf("limit = %d", cfg.Run.Limit)
	}
	if !cfg.Review.Enabled || !cfg.Review.AutoGenerateReasons {
		t.Errorf("review defaults = %+v", cfg.Review)
	}
	if cfg.Review.RememberAPIKey {
		t.Error("remembering the API key must be opt-in")
	}
}

func TestAutoPopulateFromEnv(t *testing.T) {
	t.Setenv("MODQUEUE_SERVER", "http://daemon:9090")
	cfg := DefaultConfig()
	cfg.AutoPopulateFromEnv()
	if cfg.ServerURL != "http://daemon:9090" {
		t.Errorf("server url = %q", cfg.ServerURL)
	}
}
