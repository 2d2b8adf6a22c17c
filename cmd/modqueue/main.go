// Command modqueue is the moderator-facing terminal dashboard. It connects
// to a running modqueued daemon, streams per-item AI moderation decisions,
// and in review mode collects keyboard overrides for batch submission.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"modqueue/internal/api"
	"modqueue/internal/channel"
	"modqueue/internal/config"
	"modqueue/internal/logging"
	"modqueue/internal/review"
	"modqueue/internal/store"
	"modqueue/internal/ui"
)

var version = "dev"

func main() {
	serverFlag := flag.String("server", "", "daemon base URL (overrides config)")
	subredditFlag := flag.String("subreddit", "", "default community")
	limitFlag := flag.Int("limit", 0, "default item limit (overrides config)")
	bannerFlag := flag.String("banner", "", "one-shot startup notice")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("modqueue %s\n", version)
		return
	}

	if err := run(*serverFlag, *subredditFlag, *limitFlag, *bannerFlag); err != nil {
		fmt.Fprintf(os.Stderr, "modqueue: %v\n", err)
		os.Exit(1)
	}
}

func run(serverURL, subreddit string, limit int, banner string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.AutoPopulateFromEnv()
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if subreddit != "" {
		cfg.Run.Subreddit = subreddit
	}
	if limit > 0 {
		cfg.Run.Limit = limit
	}

	if err := logging.Init(config.DataDir()); err != nil {
		return err
	}
	defer logging.Close()

	db, err := store.Open(filepath.Join(config.DataDir(), "modqueue.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rest := api.New(cfg.ServerURL)
	ch, err := channel.Dial(ctx, cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w (is modqueued running?)", cfg.ServerURL, err)
	}
	defer ch.Close()

	app := ui.New(ui.AppConfig{
		CheckAuth: func() tea.Cmd {
			return func() tea.Msg {
				status, err := rest.AuthStatus(ctx)
				return ui.AuthCheckedMsg{Status: status, Err: err}
			}
		},
		LoadSubreddits: func() tea.Cmd {
			return func() tea.Msg {
				subs, err := rest.ModeratedSubreddits(ctx)
				return ui.SubredditsLoadedMsg{Subreddits: subs, Err: err}
			}
		},
		LoadAPIKey: func() tea.Cmd {
			return func() tea.Msg {
				key, err := db.APIKey()
				return ui.APIKeyLoadedMsg{Key: key, Err: err}
			}
		},
		LoadHistory: func() tea.Cmd {
			return func() tea.Msg {
				runs, err := db.RecentRuns(5)
				return ui.HistoryLoadedMsg{Runs: runs, Err: err}
			}
		},
		SaveAPIKey: func(key string) tea.Cmd {
			return func() tea.Msg {
				return ui.APIKeySavedMsg{Err: db.SaveAPIKey(key)}
			}
		},
		ClearAPIKey: func() tea.Cmd {
			return func() tea.Msg {
				return ui.APIKeySavedMsg{Err: db.ClearAPIKey()}
			}
		},
		OpenBrowser: func(url string) tea.Cmd {
			return func() tea.Msg {
				return ui.BrowserOpenedMsg{URL: url, Err: openBrowser(url)}
			}
		},
		Emit: func(event string, payload any) tea.Cmd {
			return ch.Emit(ctx, event, payload)
		},
		SaveRun: func(subreddit string, limit int, humanReview bool, started time.Time, stats review.Stats, outcome string) tea.Cmd {
			return func() tea.Msg {
				err := db.SaveRun(store.RunRecord{
					ID:          uuid.NewString(),
					Subreddit:   subreddit,
					Limit:       limit,
					HumanReview: humanReview,
					Processed:   stats.Processed,
					Approved:    stats.Approved,
					Removed:     stats.Removed,
					APICalls:    stats.APICalls,
					Started:     started,
					Finished:    time.Now(),
					Outcome:     outcome,
				})
				if err != nil {
					logging.Error("saving run record", "err", err)
				}
				return nil
			}
		},
		LoginURL:            rest.LoginURL(),
		LogoutURL:           rest.LogoutURL(),
		AutoGenerateReasons: cfg.Review.AutoGenerateReasons,
		DefaultSubreddit:    cfg.Run.Subreddit,
		DefaultLimit:        cfg.Run.Limit,
		HumanReview:         cfg.Review.Enabled,
		Banner:              banner,
	})

	program := tea.NewProgram(app, tea.WithAltScreen())
	ch.Listen(ctx, program)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
