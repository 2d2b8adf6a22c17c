// Package api is the REST client for the moderation daemon's HTTP surface:
// authentication status and the moderated-community listing. The OAuth
// redirect endpoints are opened in the browser, not called from here.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// AuthStatus is the daemon's view of the moderator session.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
}

// Subreddit is one community the moderator can run against.
type Subreddit struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Subscribers int    `json:"subscribers"`
}

// Client talks to the daemon's REST endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given daemon base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthStatus checks whether the moderator is logged in.
func (c *Client) AuthStatus(ctx context.Context) (AuthStatus, error) {
	var status AuthStatus
	if err := c.getJSON(ctx, "/api/auth-status", &status); err != nil {
		return AuthStatus{}, err
	}
	return status, nil
}

// ModeratedSubreddits lists the communities the moderator can act on,
// sorted by the daemon largest-first.
func (c *Client) ModeratedSubreddits(ctx context.Context) ([]Subreddit, error) {
	var resp struct {
		Subreddits []Subreddit `json:"subreddits"`
		Error      string      `json:"error"`
	}
	if err := c.getJSON(ctx, "/api/moderated-subreddits", &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("moderated subreddits: %s", resp.Error)
	}
	return resp.Subreddits, nil
}

// LoginURL is the browser address that begins the OAuth flow.
func (c *Client) LoginURL() string {
	u, _ := url.JoinPath(c.baseURL, "/auth/reddit")
	return u
}

// LogoutURL is the browser address that ends the session.
func (c *Client) LogoutURL() string {
	u, _ := url.JoinPath(c.baseURL, "/auth/logout")
	return u
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}
