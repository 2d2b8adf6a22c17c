package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modqueue/internal/api"
	"modqueue/internal/logging"
	"modqueue/internal/protocol"
	"modqueue/internal/review"
	"modqueue/internal/store"
)

// viewMode selects the active screen.
type viewMode int

const (
	modeSetup viewMode = iota
	modeReview
)

// focusArea selects where review-mode keys land.
type focusArea int

const (
	focusList focusArea = iota
	focusChat
	focusReason
)

// setupFocus selects where setup-mode keys land.
type setupFocus int

const (
	setupList setupFocus = iota
	setupCustom
	setupKey
)

// AppConfig wires the App to its collaborators. The App never talks to the
// store, the REST API, or the channel directly; it only runs these commands
// and reacts to the messages they produce.
type AppConfig struct {
	CheckAuth      func() tea.Cmd
	LoadSubreddits func() tea.Cmd
	LoadAPIKey     func() tea.Cmd
	LoadHistory    func() tea.Cmd
	SaveAPIKey     func(key string) tea.Cmd
	ClearAPIKey    func() tea.Cmd
	OpenBrowser    func(url string) tea.Cmd
	Emit           func(event string, payload any) tea.Cmd
	SaveRun        func(subreddit string, limit int, humanReview bool, started time.Time, stats review.Stats, outcome string) tea.Cmd

	LoginURL  string
	LogoutURL string

	// AutoGenerateReasons requests a reason draft as soon as an item is
	// marked for removal. See review.State.SetHumanDecision.
	AutoGenerateReasons bool

	DefaultSubreddit string
	DefaultLimit     int
	HumanReview      bool

	// Banner is a one-shot startup notice (e.g. from the OAuth landing).
	Banner string
}

// App is the root Bubble Tea model.
type App struct {
	cfg   AppConfig
	state *review.State

	mode   viewMode
	focus  focusArea
	sfocus setupFocus

	width  int
	height int
	ready  bool

	authed   bool
	username string

	subs      []api.Subreddit
	subCursor int
	custom    bool
	subInput  textinput.Model

	needKey   bool
	keyInput  textinput.Model
	remember  bool
	limit     int
	humanRev  bool

	chatInput  textinput.Model
	reasonArea textarea.Model

	spin spinner.Model

	log        []logLine
	banner     string
	showHelp   bool
	history    []store.RunRecord
	runStarted time.Time
}

// New creates the root model.
func New(cfg AppConfig) App {
	sub := textinput.New()
	sub.Placeholder = "subreddit name"
	sub.CharLimit = 64

	key := textinput.New()
	key.Placeholder = "analyst API key"
	key.EchoMode = textinput.EchoPassword
	key.CharLimit = 128

	chat := textinput.New()
	chat.Placeholder = "ask about this decision..."
	chat.CharLimit = 500

	reason := textarea.New()
	reason.Placeholder = "removal reason..."
	reason.SetHeight(4)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 5
	}
	// A remembered community pre-fills the custom entry.
	custom := cfg.DefaultSubreddit != ""
	if custom {
		sub.SetValue(cfg.DefaultSubreddit)
	}

	return App{
		cfg:        cfg,
		state:      review.NewState(),
		custom:     custom,
		subInput:   sub,
		keyInput:   key,
		chatInput:  chat,
		reasonArea: reason,
		spin:       sp,
		limit:      limit,
		humanRev:   cfg.HumanReview,
		banner:     cfg.Banner,
	}
}

// Init polls auth state and the cached credential.
func (a App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.cfg.CheckAuth != nil {
		cmds = append(cmds, a.cfg.CheckAuth())
	}
	if a.cfg.LoadAPIKey != nil {
		cmds = append(cmds, a.cfg.LoadAPIKey())
	}
	if a.cfg.LoadHistory != nil {
		cmds = append(cmds, a.cfg.LoadHistory())
	}
	cmds = append(cmds, a.spin.Tick)
	return tea.Batch(cmds...)
}

// State exposes the review state for tests.
func (a App) State() *review.State { return a.state }

func (a *App) logf(kind, format string, args ...any) {
	a.log = append(a.log, logLine{text: fmt.Sprintf(format, args...), kind: kind})
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.chatInput.Width = msg.Width - 8
		a.reasonArea.SetWidth(msg.Width - 8)
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case AuthCheckedMsg:
		if msg.Err != nil {
			a.logf("error", "auth check failed: %v", msg.Err)
			return a, nil
		}
		a.authed = msg.Status.Authenticated
		a.username = msg.Status.Username
		if a.authed && a.cfg.LoadSubreddits != nil {
			return a, a.cfg.LoadSubreddits()
		}
		return a, nil

	case SubredditsLoadedMsg:
		if msg.Err != nil {
			a.logf("error", "error loading subreddits: %v", msg.Err)
			return a, nil
		}
		a.subs = msg.Subreddits
		if a.subCursor >= len(a.subs) {
			a.subCursor = 0
		}
		a.logf("success", "loaded %d moderated subreddits", len(a.subs))
		return a, nil

	case APIKeyLoadedMsg:
		if msg.Err != nil {
			a.logf("error", "credential store: %v", msg.Err)
		}
		a.needKey = msg.Key == ""
		if msg.Key != "" {
			a.keyInput.SetValue(msg.Key)
			a.remember = true
		}
		return a, nil

	case APIKeySavedMsg:
		if msg.Err != nil {
			a.logf("error", "saving API key: %v", msg.Err)
		} else {
			a.logf("success", "API key saved")
		}
		return a, nil

	case HistoryLoadedMsg:
		if msg.Err != nil {
			logging.Warn("loading run history", "err", msg.Err)
			return a, nil
		}
		a.history = msg.Runs
		return a, nil

	case BrowserOpenedMsg:
		if msg.Err != nil {
			a.logf("error", "could not open browser: %v (visit %s)", msg.Err, msg.URL)
		} else {
			a.logf("info", "opened %s in browser", msg.URL)
		}
		return a, nil

	case EmitDoneMsg:
		if msg.Err != nil {
			a.logf("error", "sending %s: %v", msg.Event, msg.Err)
		}
		return a, nil

	case ChannelClosedMsg:
		a.state.Fail()
		a.logf("error", "connection to daemon lost: %v", msg.Err)
		return a, nil
	}

	return a.handleProtocol(msg)
}

// handleProtocol applies inbound channel events to the review state. Stale
// references are logged and dropped, never fatal.
func (a App) handleProtocol(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StatusUpdateMsg:
		a.logf(msg.Type, "%s", msg.Message)

	case ItemAnalyzingMsg:
		a.state.RegisterItem(itemFromEvent(protocol.ItemAnalyzing(msg)))
		a.logf("info", "analyzing %s by u/%s...", msg.Kind, msg.Author)

	case AIDecisionMsg:
		err := a.state.ApplyAIDecision(msg.ItemNumber, review.ParseAction(msg.Action), msg.Confidence, msg.Reason)
		if err != nil {
			logging.Warn("dropping ai_decision", "item", msg.ItemNumber, "err", err)
			return a, nil
		}
		kind := "success"
		if review.ParseAction(msg.Action) == review.ActionRemove {
			kind = "error"
		}
		a.logf(kind, "AI decision: %s (%d/10 confidence)", msg.Action, msg.Confidence)

	case ActionResultMsg:
		outcome := review.OutcomeError
		switch {
		case msg.DryRun:
			outcome = review.OutcomeDryRun
		case msg.ActionTaken:
			outcome = review.OutcomeSuccess
		}
		err := a.state.ResolveAutoItem(msg.ItemNumber, review.ParseAction(msg.Action), outcome, msg.Error)
		if err != nil {
			logging.Warn("dropping action_result", "item", msg.ItemNumber, "err", err)
			return a, nil
		}
		switch outcome {
		case review.OutcomeDryRun:
			a.logf("info", "[dry run] would %s item %d", strings.ToLower(msg.Action), msg.ItemNumber)
		case review.OutcomeSuccess:
			a.logf("success", "%s action completed", msg.Action)
		default:
			a.logf("error", "item %d: %s", msg.ItemNumber, msg.Error)
		}

	case ModerationCompleteMsg:
		a.state.Complete()
		a.logf("success", "%s", msg.Message)
		if !a.state.HumanReview() && a.cfg.SaveRun != nil {
			return a, a.cfg.SaveRun(a.state.Subreddit(), a.limit, false, a.runStarted, a.state.Stats(), "complete")
		}

	case RunErrorMsg:
		wasActive := a.state.Active()
		a.state.Fail()
		a.logf("error", "error: %s", msg.Message)
		if wasActive && a.cfg.SaveRun != nil {
			return a, a.cfg.SaveRun(a.state.Subreddit(), a.limit, a.state.HumanReview(), a.runStarted, a.state.Stats(), "error")
		}

	case BatchProgressMsg:
		err := a.state.ResolveBatchItem(msg.ItemNumber, review.ParseAction(msg.Action), msg.Success, msg.Error)
		if err != nil {
			logging.Warn("dropping batch_progress", "item", msg.ItemNumber, "err", err)
			return a, nil
		}
		if msg.Success {
			a.logf("success", "item %d: %s", msg.ItemNumber, msg.Action)
		} else {
			a.logf("error", "item %d: %s", msg.ItemNumber, msg.Error)
		}

	case BatchCompleteMsg:
		a.state.CompleteBatch(msg.ProcessedCount)
		a.logf("success", "%s", msg.Message)
		if a.cfg.SaveRun != nil {
			return a, a.cfg.SaveRun(a.state.Subreddit(), a.limit, true, a.runStarted, a.state.Stats(), "batch")
		}

	case ChatResponseMsg:
		if !a.state.DeliverChatResponse(msg.ItemNumber, msg.Token, msg.Response) {
			logging.Debug("stale chat response dropped", "item", msg.ItemNumber, "token", msg.Token)
		}

	case ChatErrorMsg:
		if !a.state.DeliverChatError(msg.ItemNumber, msg.Token, msg.Error) {
			logging.Debug("stale chat error dropped", "item", msg.ItemNumber)
		}

	case ReasonGeneratedMsg:
		if !a.state.DeliverReason(msg.ItemNumber, msg.Token, msg.Reason) {
			logging.Debug("stale reason dropped", "item", msg.ItemNumber, "token", msg.Token)
		}

	case ReasonErrorMsg:
		if !a.state.DeliverReasonError(msg.ItemNumber, msg.Token, msg.Error) {
			logging.Debug("stale reason error dropped", "item", msg.ItemNumber)
		}
	}

	return a, nil
}

func itemFromEvent(ev protocol.ItemAnalyzing) review.Item {
	var created time.Time
	if ev.CreatedUTC > 0 {
		created = time.Unix(ev.CreatedUTC, 0)
	}
	return review.Item{
		Number:       ev.ItemNumber,
		Kind:         ev.Kind,
		Title:        ev.Title,
		Author:       ev.Author,
		Score:        ev.Score,
		Content:      ev.Content,
		FullContent:  ev.FullContent,
		URL:          ev.URL,
		Created:      created,
		UserReports:  ev.UserReports,
		ModReports:   ev.ModReports,
		PriorRemoval: ev.RemovalReason,
	}
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	a.banner = ""

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.mode {
	case modeSetup:
		return a.handleSetupKey(msg)
	default:
		return a.handleReviewKey(msg)
	}
}

func (a App) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry sub-focuses swallow most keys.
	switch a.sfocus {
	case setupCustom:
		switch msg.String() {
		case "esc":
			a.sfocus = setupList
			a.custom = false
			a.subInput.Blur()
		case "enter":
			a.sfocus = setupList
			a.subInput.Blur()
		default:
			var cmd tea.Cmd
			a.subInput, cmd = a.subInput.Update(msg)
			return a, cmd
		}
		return a, nil

	case setupKey:
		switch msg.String() {
		case "esc":
			a.sfocus = setupList
			a.keyInput.Blur()
		case "enter":
			key := strings.TrimSpace(a.keyInput.Value())
			if key == "" {
				a.banner = "Please enter an API key"
				return a, nil
			}
			a.sfocus = setupList
			a.needKey = false
			a.keyInput.Blur()
			if a.remember && a.cfg.SaveAPIKey != nil {
				return a, a.cfg.SaveAPIKey(key)
			}
		default:
			var cmd tea.Cmd
			a.keyInput, cmd = a.keyInput.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit

	case "o":
		if a.cfg.OpenBrowser != nil {
			return a, a.cfg.OpenBrowser(a.cfg.LoginURL)
		}

	case "L":
		a.authed = false
		a.username = ""
		a.subs = nil
		a.keyInput.SetValue("")
		a.needKey = true
		var cmds []tea.Cmd
		if a.cfg.ClearAPIKey != nil {
			cmds = append(cmds, a.cfg.ClearAPIKey())
		}
		if a.cfg.OpenBrowser != nil {
			cmds = append(cmds, a.cfg.OpenBrowser(a.cfg.LogoutURL))
		}
		return a, tea.Batch(cmds...)

	case "R":
		var cmds []tea.Cmd
		if a.cfg.CheckAuth != nil {
			cmds = append(cmds, a.cfg.CheckAuth())
		}
		return a, tea.Batch(cmds...)

	case "j", "down":
		if a.subCursor < len(a.subs)-1 {
			a.subCursor++
		}

	case "k", "up":
		if a.subCursor > 0 {
			a.subCursor--
		}

	case "x":
		a.custom = !a.custom
		if a.custom {
			a.sfocus = setupCustom
			a.subInput.Focus()
		} else {
			a.subInput.SetValue("")
		}

	case "K":
		a.sfocus = setupKey
		a.keyInput.Focus()

	case "+", "=":
		a.limit++

	case "-":
		if a.limit > 1 {
			a.limit--
		}

	case "h":
		a.humanRev = !a.humanRev

	case "m":
		a.remember = !a.remember

	case "enter", "S":
		return a.startRun()
	}

	return a, nil
}

// startRun validates the form and emits start_moderation. Validation
// failures never reach the channel.
func (a App) startRun() (tea.Model, tea.Cmd) {
	if !a.authed {
		a.banner = "Please log in first"
		return a, nil
	}
	subreddit := ""
	if a.custom {
		subreddit = strings.TrimSpace(a.subInput.Value())
	} else if a.subCursor < len(a.subs) {
		subreddit = a.subs[a.subCursor].Name
	}
	if subreddit == "" {
		a.banner = "Please select or enter a subreddit name"
		return a, nil
	}
	if a.needKey {
		a.banner = "Please enter an API key first (press K)"
		return a, nil
	}

	if err := a.state.StartRun(subreddit, a.limit, a.humanRev); err != nil {
		a.banner = "A run is already active"
		return a, nil
	}
	a.log = nil
	a.runStarted = time.Now()
	a.mode = modeReview
	a.focus = focusList
	a.logf("info", "starting moderation for r/%s (limit %d)", subreddit, a.limit)

	if a.cfg.Emit == nil {
		return a, nil
	}
	return a, a.cfg.Emit(protocol.EventStartModeration, protocol.StartModeration{
		Subreddit:   subreddit,
		Limit:       a.limit,
		HumanReview: a.humanRev,
		APIKey:      strings.TrimSpace(a.keyInput.Value()),
	})
}

func (a App) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.focus {
	case focusChat:
		return a.handleChatKey(msg)
	case focusReason:
		return a.handleReasonKey(msg)
	}

	switch msg.String() {
	case "q", "esc":
		if !a.state.Active() && !a.state.BatchBusy() {
			a.mode = modeSetup
			return a, nil
		}

	case "j", "down":
		a.state.MoveFocus(review.Next)

	case "k", "up":
		a.state.MoveFocus(review.Previous)

	case "a":
		return a.override(review.ActionApprove)

	case "r":
		return a.override(review.ActionRemove)

	case "s":
		return a.override(review.ActionSkip)

	case "c":
		if _, ok := a.state.FocusedItem(); ok {
			a.focus = focusChat
			a.chatInput.SetValue("")
			a.chatInput.Focus()
		}

	case "e":
		if it, ok := a.state.FocusedItem(); ok {
			a.focus = focusReason
			a.reasonArea.SetValue(it.ReasonDraft)
			a.reasonArea.Focus()
		}

	case "g":
		return a.requestReason()

	case "b":
		return a.submitBatch()

	case "?":
		a.showHelp = true
	}

	return a, nil
}

// override applies a human decision to the focused item and advances the
// cursor, app.js-style.
func (a App) override(action review.Action) (tea.Model, tea.Cmd) {
	it, ok := a.state.FocusedItem()
	if !ok {
		return a, nil
	}
	offerReason, err := a.state.SetHumanDecision(it.Number, action)
	if err != nil {
		a.logf("error", "item %d: %v", it.Number, err)
		return a, nil
	}
	a.logf("info", "item %d decision: %s", it.Number, action)
	a.state.MoveFocus(review.Next)

	if offerReason && a.cfg.AutoGenerateReasons {
		return a.requestReasonFor(it.Number)
	}
	return a, nil
}

func (a App) requestReason() (tea.Model, tea.Cmd) {
	it, ok := a.state.FocusedItem()
	if !ok {
		return a, nil
	}
	return a.requestReasonFor(it.Number)
}

func (a App) requestReasonFor(number int) (tea.Model, tea.Cmd) {
	token, ctx, err := a.state.BeginReasonRequest(number)
	if err != nil {
		a.logf("error", "item %d: %v", number, err)
		return a, nil
	}
	if a.cfg.Emit == nil {
		return a, nil
	}
	return a, a.cfg.Emit(protocol.EventGenerateReason, protocol.GenerateReason{
		ItemNumber: number,
		Token:      token,
		Context:    ctx,
	})
}

func (a App) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.focus = focusList
		a.chatInput.Blur()
		return a, nil

	case "enter":
		it, ok := a.state.FocusedItem()
		if !ok {
			a.focus = focusList
			return a, nil
		}
		message := strings.TrimSpace(a.chatInput.Value())
		if message == "" {
			a.banner = "Please enter a message"
			return a, nil
		}
		token, ctx, err := a.state.BeginChat(it.Number, message)
		if err != nil {
			a.logf("error", "item %d: %v", it.Number, err)
			return a, nil
		}
		a.chatInput.SetValue("")
		if a.cfg.Emit == nil {
			return a, nil
		}
		return a, a.cfg.Emit(protocol.EventChat, protocol.Chat{
			ItemNumber: it.Number,
			Token:      token,
			Message:    message,
			Context:    ctx,
		})
	}

	var cmd tea.Cmd
	a.chatInput, cmd = a.chatInput.Update(msg)
	return a, cmd
}

func (a App) handleReasonKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+s":
		it, ok := a.state.FocusedItem()
		if ok {
			text := strings.TrimSpace(a.reasonArea.Value())
			if msg.String() == "ctrl+s" && text == "" {
				a.banner = "Please enter a removal reason"
				return a, nil
			}
			if text != "" {
				if err := a.state.SetReasonDraft(it.Number, text); err != nil {
					a.logf("error", "item %d: %v", it.Number, err)
				}
			}
		}
		a.focus = focusList
		a.reasonArea.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.reasonArea, cmd = a.reasonArea.Update(msg)
	return a, cmd
}

// submitBatch serializes the current item->action map and emits it.
func (a App) submitBatch() (tea.Model, tea.Cmd) {
	if !a.state.BatchOpen() {
		return a, nil
	}
	snapshot := a.state.SnapshotForBatch()
	if len(snapshot) == 0 {
		a.banner = "No actions to process"
		return a, nil
	}

	actions := make(map[int]string, len(snapshot))
	for n, action := range snapshot {
		actions[n] = action.Lower()
	}
	a.state.BeginBatch()
	a.logf("info", "submitting %d actions...", len(actions))

	if a.cfg.Emit == nil {
		return a, nil
	}
	return a, a.cfg.Emit(protocol.EventProcessBatch, protocol.ProcessBatch{
		Actions:        actions,
		RemovalReasons: a.state.RemovalReasons(),
	})
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.showHelp {
		return RenderShortcuts(a.width)
	}

	var sections []string
	sections = append(sections, a.renderHeader())
	if a.banner != "" {
		sections = append(sections, ErrorStyle.Width(a.width).Render(a.banner))
	}

	switch a.mode {
	case modeSetup:
		sections = append(sections, a.renderSetup())
	default:
		sections = append(sections, a.renderReview())
	}

	sections = append(sections, StatusBar.Width(a.width).Render(a.statusHint()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a App) renderHeader() string {
	who := "not logged in"
	if a.authed {
		who = "u/" + a.username
	}
	text := fmt.Sprintf("  MODQUEUE  ·  %s", who)
	if a.state.Active() {
		text += fmt.Sprintf("  ·  %s moderating r/%s", a.spin.View(), a.state.Subreddit())
	}
	return Header.Width(a.width).Render(text)
}

func (a App) renderSetup() string {
	var b strings.Builder

	if !a.authed {
		b.WriteString(HelpStyle.Render("Press o to log in with Reddit in your browser, then R to re-check."))
		b.WriteString("\n")
	} else {
		b.WriteString("\n  Community:\n")
		if a.custom {
			b.WriteString("    r/" + a.subInput.View() + "\n")
		} else if len(a.subs) == 0 {
			b.WriteString(MetaLine.Render("    loading moderated subreddits...") + "\n")
		} else {
			for i, sub := range a.subs {
				cursor := "  "
				if i == a.subCursor {
					cursor = "> "
				}
				fmt.Fprintf(&b, "    %sr/%s (%d subscribers)\n", cursor, sub.Name, sub.Subscribers)
			}
		}

		reviewMode := "off"
		if a.humanRev {
			reviewMode = "on"
		}
		remember := "off"
		if a.remember {
			remember = "on"
		}
		fmt.Fprintf(&b, "\n  Limit: %d   Human review: %s   Remember key: %s\n", a.limit, reviewMode, remember)

		if a.needKey || a.sfocus == setupKey {
			b.WriteString("\n  API key: " + a.keyInput.View() + "\n")
		}

		if len(a.history) > 0 {
			b.WriteString("\n  Recent runs:\n")
			for _, r := range a.history {
				fmt.Fprintf(&b, "    %s  r/%s  %d processed (%d approved, %d removed)  %s\n",
					r.Finished.Format("Jan 02 15:04"), r.Subreddit,
					r.Processed, r.Approved, r.Removed, r.Outcome)
			}
		}
	}

	if len(a.log) > 0 {
		b.WriteString("\n" + RenderLog(a.log, 8) + "\n")
	}
	return b.String()
}

func (a App) renderReview() string {
	var b strings.Builder

	b.WriteString(RenderStatsBar(a.state.Stats(), a.width))
	b.WriteString("\n")
	if a.state.HumanReview() {
		b.WriteString(RenderPendingBar(a.state.Pending(), a.width))
		b.WriteString("\n")
	}

	items := a.state.Items()
	focusIdx := a.state.Focus()
	for i, it := range items {
		expanded := i == focusIdx
		b.WriteString(RenderItemCard(it, i == focusIdx, expanded, a.width))
		b.WriteString("\n")
	}

	if a.focus == focusChat {
		b.WriteString("\n  chat: " + a.chatInput.View() + "\n")
	}
	if a.focus == focusReason {
		b.WriteString("\n  removal reason:\n" + a.reasonArea.View() + "\n")
	}

	b.WriteString("\n" + RenderLog(a.log, 6))
	return b.String()
}

func (a App) statusHint() string {
	switch a.mode {
	case modeSetup:
		if !a.authed {
			return "[o] login  [R] re-check  [q] quit"
		}
		return "[j/k] select  [x] custom  [+/-] limit  [h] review mode  [K] api key  [enter] start  [q] quit"
	default:
		if a.focus == focusChat {
			return "[enter] send  [esc] close chat"
		}
		if a.focus == focusReason {
			return "[ctrl+s] save reason  [esc] close"
		}
		hint := "[j/k] navigate  [a/r/s] decide  [c] chat  [e] reason  [?] help"
		if a.state.BatchOpen() {
			hint = "[b] process all actions  ·  " + hint
		}
		if !a.state.Active() && !a.state.BatchBusy() && !a.state.BatchOpen() {
			hint += "  [esc] back"
		}
		return hint
	}
}
