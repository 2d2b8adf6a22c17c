package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Reddit.ClientID = "id"
	cfg.Reddit.ClientSecret = "secret"
	return New(cfg, zap.NewNop())
}

func TestAuthStatusUnauthenticated(t *testing.T) {
	srv := testServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth-status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Authenticated {
		t.Error("fresh server should report unauthenticated")
	}
}

func TestAuthStatusWithSession(t *testing.T) {
	srv := testServer(t)
	srv.sessions["sid-1"] = &session{username: "mod"}

	req := httptest.NewRequest(http.MethodGet, "/api/auth-status", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sid-1"})
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `"username":"mod"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSubredditsRequireAuth(t *testing.T) {
	srv := testServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/moderated-subreddits", nil))

	if !strings.Contains(w.Body.String(), "not authenticated") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestLoginRedirectsToReddit(t *testing.T) {
	srv := testServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/reddit", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://www.reddit.com/api/v1/authorize") {
		t.Errorf("location = %s", loc)
	}
	if !strings.Contains(loc, "client_id=id") {
		t.Errorf("location missing client id: %s", loc)
	}
	if len(srv.states) != 1 {
		t.Errorf("state not recorded: %v", srv.states)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	srv := testServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/auth/reddit/callback?state=bogus&code=x", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestLogoutDropsSession(t *testing.T) {
	srv := testServer(t)
	srv.sessions["sid-1"] = &session{username: "mod"}

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sid-1"})
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if _, ok := srv.sessions["sid-1"]; ok {
		t.Error("session should be gone")
	}
}

func TestWSRequiresAuth(t *testing.T) {
	srv := testServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modqueued.yaml")
	content := `
addr: ":9999"
dry_run: false
reddit:
  client_id: file-id
  client_secret: file-secret
subreddit_rules:
  golang: "No surveys."
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REDDIT_CLIENT_ID", "env-id")
	t.Setenv("MODQUEUED_DRY_RUN", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.DryRun {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Reddit.ClientID != "env-id" {
		t.Errorf("env override lost: %q", cfg.Reddit.ClientID)
	}
	if cfg.SubredditRules["golang"] != "No surveys." {
		t.Errorf("rules = %v", cfg.SubredditRules)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}
