// Package reddit is a minimal OAuth2 client for the moderation endpoints:
// modqueue listing, approve/remove, and moderated-subreddit discovery.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	authBase = "https://www.reddit.com"
	apiBase  = "https://oauth.reddit.com"

	// Reddit allows 60 requests per minute for OAuth clients.
	requestsPerMinute = 60
)

// AppConfig identifies the registered Reddit application.
type AppConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	UserAgent    string
}

// Token is an OAuth2 access token.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// Subreddit is one community the user moderates.
type Subreddit struct {
	Name        string
	Title       string
	Subscribers int
}

// Report is a prior user or moderator report on an item.
type Report struct {
	Reason    string
	Count     int
	Moderator string
}

// Item is one modqueue entry.
type Item struct {
	Fullname     string // t1_xxx or t3_xxx
	Kind         string // "submission" or "comment"
	Title        string
	Author       string
	Score        int
	Body         string
	URL          string
	CreatedUTC   int64
	UserReports  []Report
	ModReports   []Report
	RemovalNote  string
	Subreddit    string
}

// AuthURL builds the authorize redirect for the OAuth dance.
func (c AppConfig) AuthURL(state string) string {
	q := url.Values{
		"client_id":     {c.ClientID},
		"response_type": {"code"},
		"state":         {state},
		"redirect_uri":  {c.RedirectURI},
		"duration":      {"permanent"},
		"scope":         {"identity read modposts mysubreddits"},
	}
	return authBase + "/api/v1/authorize?" + q.Encode()
}

// ExchangeCode trades an authorization code for a token.
func (c AppConfig) ExchangeCode(ctx context.Context, code string) (Token, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {c.RedirectURI},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		authBase+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Token{}, fmt.Errorf("token exchange: status %d: %s", resp.StatusCode, body)
	}
	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return Token{}, fmt.Errorf("token exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return Token{}, fmt.Errorf("token exchange: empty access token")
	}
	return tok, nil
}

// Client is an authenticated Reddit API client. Safe for concurrent use; all
// calls share one rate limiter.
type Client struct {
	token     string
	userAgent string
	base      string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient wraps an access token.
func NewClient(token, userAgent string) *Client {
	return &Client{
		token:     token,
		userAgent: userAgent,
		base:      apiBase,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Minute/requestsPerMinute), 5),
	}
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, b)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Me returns the authenticated username.
func (c *Client) Me(ctx context.Context) (string, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &me); err != nil {
		return "", err
	}
	return me.Name, nil
}

// listing is Reddit's generic thing envelope.
type listing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// ModeratedSubreddits lists communities the user moderates.
func (c *Client) ModeratedSubreddits(ctx context.Context) ([]Subreddit, error) {
	var l listing
	if err := c.do(ctx, http.MethodGet, "/subreddits/mine/moderator?limit=100", nil, &l); err != nil {
		return nil, err
	}
	subs := make([]Subreddit, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		var d struct {
			DisplayName string `json:"display_name"`
			Title       string `json:"title"`
			Subscribers int    `json:"subscribers"`
		}
		if err := json.Unmarshal(child.Data, &d); err != nil {
			continue
		}
		subs = append(subs, Subreddit{Name: d.DisplayName, Title: d.Title, Subscribers: d.Subscribers})
	}
	return subs, nil
}

// Modqueue fetches up to limit entries awaiting moderation.
func (c *Client) Modqueue(ctx context.Context, subreddit string, limit int) ([]Item, error) {
	path := fmt.Sprintf("/r/%s/about/modqueue?limit=%d", url.PathEscape(subreddit), limit)
	var l listing
	if err := c.do(ctx, http.MethodGet, path, nil, &l); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		it, err := parseItem(child.Kind, child.Data)
		if err != nil {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// parseItem maps one listing child onto an Item. t3 things are submissions,
// t1 things are comments.
func parseItem(kind string, data json.RawMessage) (Item, error) {
	var d struct {
		Name          string          `json:"name"`
		Title         string          `json:"title"`
		Author        string          `json:"author"`
		Score         int             `json:"score"`
		Selftext      string          `json:"selftext"`
		Body          string          `json:"body"`
		URL           string          `json:"url"`
		Permalink     string          `json:"permalink"`
		CreatedUTC    float64         `json:"created_utc"`
		Subreddit     string          `json:"subreddit"`
		RemovalReason string          `json:"removal_reason"`
		RawUser       json.RawMessage `json:"user_reports"`
		RawMod        json.RawMessage `json:"mod_reports"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return Item{}, err
	}

	it := Item{
		Fullname:    d.Name,
		Author:      d.Author,
		Score:       d.Score,
		CreatedUTC:  int64(d.CreatedUTC),
		Subreddit:   d.Subreddit,
		RemovalNote: d.RemovalReason,
		UserReports: parseUserReports(d.RawUser),
		ModReports:  parseModReports(d.RawMod),
	}
	switch kind {
	case "t3":
		it.Kind = "submission"
		it.Title = d.Title
		it.Body = d.Selftext
		it.URL = d.URL
	case "t1":
		it.Kind = "comment"
		it.Body = d.Body
		it.URL = "https://www.reddit.com" + d.Permalink
	default:
		return Item{}, fmt.Errorf("unhandled thing kind %q", kind)
	}
	return it, nil
}

// parseUserReports decodes Reddit's [["reason", count], ...] pairs.
func parseUserReports(raw json.RawMessage) []Report {
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil
	}
	var out []Report
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		var r Report
		json.Unmarshal(p[0], &r.Reason)
		if err := json.Unmarshal(p[1], &r.Count); err != nil {
			// Some listings report counts as strings.
			var s string
			if json.Unmarshal(p[1], &s) == nil {
				r.Count, _ = strconv.Atoi(s)
			}
		}
		out = append(out, r)
	}
	return out
}

// parseModReports decodes [["reason", "moderator"], ...] pairs.
func parseModReports(raw json.RawMessage) []Report {
	var pairs [][]string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil
	}
	var out []Report
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		out = append(out, Report{Reason: p[0], Moderator: p[1]})
	}
	return out
}

// Approve approves a thing by fullname.
func (c *Client) Approve(ctx context.Context, fullname string) error {
	return c.do(ctx, http.MethodPost, "/api/approve", url.Values{"id": {fullname}}, nil)
}

// Remove removes a thing by fullname.
func (c *Client) Remove(ctx context.Context, fullname string) error {
	return c.do(ctx, http.MethodPost, "/api/remove",
		url.Values{"id": {fullname}, "spam": {"false"}}, nil)
}

// Comment replies to a thing, used to post removal reasons publicly.
func (c *Client) Comment(ctx context.Context, parent, text string) error {
	return c.do(ctx, http.MethodPost, "/api/comment",
		url.Values{"thing_id": {parent}, "text": {text}}, nil)
}
