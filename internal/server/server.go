// Package server is the daemon's HTTP surface: the Reddit OAuth redirect
// flow, the small REST API the dashboard polls, and the websocket upgrade
// into the event channel.
package server

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"modqueue/internal/analyst"
	"modqueue/internal/engine"
	"modqueue/internal/hub"
	"modqueue/internal/reddit"
)

const (
	sessionCookie = "modqueue_session"
	subsCacheTTL  = 5 * time.Minute
)

// session is one authenticated browser/dashboard identity.
type session struct {
	username string
	client   *reddit.Client

	mu      sync.Mutex
	subs    []reddit.Subreddit
	subsAt  time.Time
}

// Server holds the daemon's shared state.
type Server struct {
	cfg Config
	log *zap.Logger
	app reddit.AppConfig

	mu       sync.Mutex
	sessions map[string]*session
	states   map[string]time.Time // outstanding OAuth state tokens
}

// New creates a Server from config.
func New(cfg Config, log *zap.Logger) *Server {
	return &Server{
		cfg: cfg,
		log: log,
		app: reddit.AppConfig{
			ClientID:     cfg.Reddit.ClientID,
			ClientSecret: cfg.Reddit.ClientSecret,
			RedirectURI:  cfg.Reddit.RedirectURI,
			UserAgent:    cfg.Reddit.UserAgent,
		},
		sessions: map[string]*session{},
		states:   map[string]time.Time{},
	}
}

// Router builds the gin handler tree.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.handleIndex)
	r.GET("/api/auth-status", s.handleAuthStatus)
	r.GET("/api/moderated-subreddits", s.handleSubreddits)
	r.GET("/auth/reddit", s.handleLogin)
	r.GET("/auth/reddit/callback", s.handleCallback)
	r.GET("/auth/logout", s.handleLogout)
	r.GET("/ws", s.handleWS)
	return r
}

func (s *Server) currentSession(c *gin.Context) *session {
	sid, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sid]
}

func (s *Server) handleIndex(c *gin.Context) {
	c.String(http.StatusOK, "modqueue daemon. Connect with the modqueue dashboard.\n")
}

func (s *Server) handleAuthStatus(c *gin.Context) {
	if sess := s.currentSession(c); sess != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "username": sess.username})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (s *Server) handleSubreddits(c *gin.Context) {
	sess := s.currentSession(c)
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"error": "not authenticated"})
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if time.Since(sess.subsAt) > subsCacheTTL {
		subs, err := sess.client.ModeratedSubreddits(c.Request.Context())
		if err != nil {
			s.log.Error("subreddit listing failed", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
			return
		}
		sort.Slice(subs, func(i, j int) bool {
			return subs[i].Subscribers > subs[j].Subscribers
		})
		sess.subs = subs
		sess.subsAt = time.Now()
	}

	out := make([]gin.H, 0, len(sess.subs))
	for _, sub := range sess.subs {
		out = append(out, gin.H{
			"name":        sub.Name,
			"title":       sub.Title,
			"subscribers": sub.Subscribers,
		})
	}
	c.JSON(http.StatusOK, gin.H{"subreddits": out})
}

func (s *Server) handleLogin(c *gin.Context) {
	state := uuid.NewString()
	s.mu.Lock()
	s.states[state] = time.Now()
	// Abandoned authorize redirects should not accumulate.
	for st, at := range s.states {
		if time.Since(at) > 10*time.Minute {
			delete(s.states, st)
		}
	}
	s.mu.Unlock()
	c.Redirect(http.StatusFound, s.app.AuthURL(state))
}

func (s *Server) handleCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.String(http.StatusBadRequest, "Reddit authorization failed: %s\n", errParam)
		return
	}
	state := c.Query("state")
	s.mu.Lock()
	_, known := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()
	if !known {
		c.String(http.StatusBadRequest, "Unknown OAuth state. Start over from the dashboard.\n")
		return
	}

	code := c.Query("code")
	tok, err := s.app.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		s.log.Error("token exchange failed", zap.Error(err))
		c.String(http.StatusBadGateway, "Token exchange failed: %v\n", err)
		return
	}

	client := reddit.NewClient(tok.AccessToken, s.app.UserAgent)
	username, err := client.Me(c.Request.Context())
	if err != nil {
		s.log.Error("identity lookup failed", zap.Error(err))
		c.String(http.StatusBadGateway, "Identity lookup failed: %v\n", err)
		return
	}

	sid := uuid.NewString()
	s.mu.Lock()
	s.sessions[sid] = &session{username: username, client: client}
	s.mu.Unlock()
	s.log.Info("moderator authenticated", zap.String("username", username))

	c.SetCookie(sessionCookie, sid, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.String(http.StatusOK, "Authenticated as u/%s. Return to the terminal.\n", username)
}

func (s *Server) handleLogout(c *gin.Context) {
	if sid, err := c.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, sid)
		s.mu.Unlock()
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.String(http.StatusOK, "Logged out.\n")
}

// handleWS upgrades into the event channel and serves it until the dashboard
// disconnects. The connection gets its own engine so concurrent dashboards
// never share run state.
func (s *Server) handleWS(c *gin.Context) {
	sess := s.currentSession(c)
	if sess == nil {
		c.String(http.StatusUnauthorized, "authenticate first\n")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", zap.Error(err))
		return
	}

	log := s.log.With(zap.String("username", sess.username))
	ws := hub.NewSession(conn, log)

	var adviser engine.Adviser
	if s.cfg.OpenAIKey != "" {
		adviser = s.newAdviser(s.cfg.OpenAIKey)
	}
	eng := engine.New(sess.client, adviser, ws, s.cfg.DryRun, log)
	eng.UseAdviserFactory(s.newAdviser)

	log.Info("dashboard connected")
	if err := ws.Serve(c.Request.Context(), eng); err != nil {
		log.Warn("session ended", zap.Error(err))
	}
}

func (s *Server) newAdviser(apiKey string) engine.Adviser {
	a := analyst.New(apiKey)
	a.SetRules(s.cfg.SubredditRules)
	return a
}
