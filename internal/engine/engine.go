// Package engine runs moderation on the daemon side: fetching the modqueue,
// collecting analyst verdicts, acting on items (immediately or as a reviewed
// batch), and streaming progress events back to the dashboard.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"modqueue/internal/analyst"
	"modqueue/internal/protocol"
	"modqueue/internal/reddit"
)

// previewLimit truncates item bodies in the item_analyzing preview; the full
// text travels in its own field.
const previewLimit = 500

// Emitter sends one event frame to the dashboard.
type Emitter interface {
	Emit(ctx context.Context, event string, payload any) error
}

// Platform is the slice of the Reddit client the engine acts through.
type Platform interface {
	Modqueue(ctx context.Context, subreddit string, limit int) ([]reddit.Item, error)
	Approve(ctx context.Context, fullname string) error
	Remove(ctx context.Context, fullname string) error
	Comment(ctx context.Context, parent, text string) error
}

// Adviser is the slice of the analyst the engine consults.
type Adviser interface {
	Decide(ctx context.Context, it reddit.Item) (analyst.Verdict, error)
	Chat(ctx context.Context, message string, ic protocol.ItemContext) (string, error)
	RemovalReason(ctx context.Context, ic protocol.ItemContext) (string, error)
}

// Engine drives moderation for one dashboard connection. One run at a time;
// the item table from the last run backs later batch submission.
type Engine struct {
	reddit     Platform
	emitter    Emitter
	dryRun     bool
	log        *zap.Logger
	newAdviser func(apiKey string) Adviser

	mu      sync.Mutex
	analyst Adviser
	running bool
	items   map[int]reddit.Item
}

// New creates an engine bound to one connection's emitter. adviser may be
// nil when the daemon has no configured key; a run must then supply one.
func New(platform Platform, adviser Adviser, emitter Emitter, dryRun bool, log *zap.Logger) *Engine {
	return &Engine{
		reddit:  platform,
		analyst: adviser,
		emitter: emitter,
		dryRun:  dryRun,
		log:     log,
		items:   map[int]reddit.Item{},
	}
}

// UseAdviserFactory installs the constructor invoked when a run carries its
// own analyst API key.
func (e *Engine) UseAdviserFactory(f func(apiKey string) Adviser) {
	e.newAdviser = f
}

func (e *Engine) adviser() Adviser {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyst
}

func (e *Engine) emit(ctx context.Context, event string, payload any) {
	if err := e.emitter.Emit(ctx, event, payload); err != nil {
		e.log.Warn("emit failed", zap.String("event", event), zap.Error(err))
	}
}

func (e *Engine) status(ctx context.Context, kind, format string, args ...any) {
	e.emit(ctx, protocol.EventStatusUpdate, protocol.StatusUpdate{
		Message: fmt.Sprintf(format, args...),
		Type:    kind,
	})
}

func (e *Engine) fail(ctx context.Context, format string, args ...any) {
	e.emit(ctx, protocol.EventError, protocol.Error{Message: fmt.Sprintf(format, args...)})
}

// Run moderates one subreddit's modqueue, streaming progress events. In
// human-review mode items are only analyzed; the dashboard submits actions
// later via ProcessBatch.
func (e *Engine) Run(ctx context.Context, req protocol.StartModeration) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.fail(ctx, "a moderation run is already in progress")
		return
	}
	e.running = true
	e.items = map[int]reddit.Item{}
	if req.APIKey != "" && e.newAdviser != nil {
		e.analyst = e.newAdviser(req.APIKey)
	}
	adviser := e.analyst
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	if req.Subreddit == "" {
		e.fail(ctx, "no subreddit specified")
		return
	}
	if adviser == nil {
		e.fail(ctx, "no analyst API key configured")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	e.log.Info("starting run",
		zap.String("subreddit", req.Subreddit),
		zap.Int("limit", limit),
		zap.Bool("human_review", req.HumanReview),
		zap.Bool("dry_run", e.dryRun))
	e.status(ctx, "info", "Fetching modqueue for r/%s...", req.Subreddit)

	items, err := e.reddit.Modqueue(ctx, req.Subreddit, limit)
	if err != nil {
		e.log.Error("modqueue fetch failed", zap.Error(err))
		e.fail(ctx, "failed to fetch modqueue: %v", err)
		return
	}
	if len(items) == 0 {
		e.status(ctx, "success", "Modqueue for r/%s is empty", req.Subreddit)
		e.emit(ctx, protocol.EventModerationComplete, protocol.ModerationComplete{
			Message: "No items to moderate",
		})
		return
	}
	e.status(ctx, "info", "Found %d items", len(items))

	processed := 0
	for i, it := range items {
		if ctx.Err() != nil {
			return
		}
		n := i + 1
		e.mu.Lock()
		e.items[n] = it
		e.mu.Unlock()

		e.emit(ctx, protocol.EventItemAnalyzing, announceItem(n, len(items), it))

		verdict, err := adviser.Decide(ctx, it)
		if err != nil {
			e.log.Warn("analysis failed", zap.Int("item", n), zap.Error(err))
			verdict = analyst.Fallback(err)
		}
		e.emit(ctx, protocol.EventAIDecision, protocol.AIDecision{
			ItemNumber: n,
			Action:     verdict.Action,
			Reason:     verdict.Reason,
			Confidence: verdict.Confidence,
		})

		if req.HumanReview {
			continue
		}
		result := e.act(ctx, it, verdict.Action, "")
		result.ItemNumber = n
		e.emit(ctx, protocol.EventActionResult, result)
		processed++
	}

	message := fmt.Sprintf("Moderation complete: %d items processed", processed)
	if req.HumanReview {
		message = fmt.Sprintf("Analysis complete: %d items ready for review", len(items))
	}
	e.emit(ctx, protocol.EventModerationComplete, protocol.ModerationComplete{
		Message:        message,
		TotalProcessed: processed,
	})
}

func announceItem(n, total int, it reddit.Item) protocol.ItemAnalyzing {
	preview := it.Body
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "..."
	}
	return protocol.ItemAnalyzing{
		ItemNumber:    n,
		TotalItems:    total,
		Kind:          it.Kind,
		Title:         it.Title,
		Author:        it.Author,
		Score:         it.Score,
		Content:       preview,
		FullContent:   it.Body,
		URL:           it.URL,
		CreatedUTC:    it.CreatedUTC,
		UserReports:   toWireReports(it.UserReports),
		ModReports:    toWireReports(it.ModReports),
		RemovalReason: it.RemovalNote,
	}
}

func toWireReports(in []reddit.Report) []protocol.Report {
	out := make([]protocol.Report, 0, len(in))
	for _, r := range in {
		out = append(out, protocol.Report{Reason: r.Reason, Count: r.Count, Moderator: r.Moderator})
	}
	return out
}

// act executes one action against the platform. A removal reason, when
// given, is posted as a public reply after a successful removal.
func (e *Engine) act(ctx context.Context, it reddit.Item, action, reason string) protocol.ActionResult {
	if e.dryRun {
		return protocol.ActionResult{Action: action, DryRun: true}
	}
	var err error
	switch action {
	case "APPROVE", "approve":
		err = e.reddit.Approve(ctx, it.Fullname)
	case "REMOVE", "remove":
		err = e.reddit.Remove(ctx, it.Fullname)
		if err == nil && reason != "" {
			if cerr := e.reddit.Comment(ctx, it.Fullname, reason); cerr != nil {
				e.log.Warn("posting removal reason failed",
					zap.String("item", it.Fullname), zap.Error(cerr))
			}
		}
	default:
		return protocol.ActionResult{Action: action}
	}
	if err != nil {
		return protocol.ActionResult{Action: action, Error: err.Error()}
	}
	return protocol.ActionResult{Action: action, ActionTaken: true}
}

// ProcessBatch executes the reviewed item->action map. Skip entries are
// dropped here, not round-tripped.
func (e *Engine) ProcessBatch(ctx context.Context, req protocol.ProcessBatch) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.fail(ctx, "a moderation run is already in progress")
		return
	}
	e.running = true
	items := e.items
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	numbers := make([]int, 0, len(req.Actions))
	for n, action := range req.Actions {
		if action == "skip" {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	e.status(ctx, "info", "Processing %d actions...", len(numbers))
	e.log.Info("processing batch", zap.Int("actions", len(numbers)), zap.Bool("dry_run", e.dryRun))

	processed := 0
	for _, n := range numbers {
		if ctx.Err() != nil {
			return
		}
		action := req.Actions[n]
		it, ok := items[n]
		if !ok {
			e.emit(ctx, protocol.EventBatchProgress, protocol.BatchProgress{
				ItemNumber: n,
				Action:     action,
				Error:      "unknown item",
			})
			continue
		}
		result := e.act(ctx, it, action, req.RemovalReasons[n])
		progress := protocol.BatchProgress{
			ItemNumber: n,
			Action:     action,
			Success:    result.ActionTaken || result.DryRun,
			Error:      result.Error,
		}
		e.emit(ctx, protocol.EventBatchProgress, progress)
		if progress.Success {
			processed++
		}
	}

	e.emit(ctx, protocol.EventBatchComplete, protocol.BatchComplete{
		Message:        fmt.Sprintf("Batch complete: %d items processed", processed),
		ProcessedCount: processed,
	})
}

// Chat forwards a follow-up question to the analyst, echoing the request
// token so the dashboard can detect stale replies.
func (e *Engine) Chat(ctx context.Context, req protocol.Chat) {
	adviser := e.adviser()
	if adviser == nil {
		e.emit(ctx, protocol.EventChatError, protocol.ChatError{
			ItemNumber: req.ItemNumber,
			Token:      req.Token,
			Error:      "no analyst API key configured",
		})
		return
	}
	resp, err := adviser.Chat(ctx, req.Message, req.Context)
	if err != nil {
		e.log.Warn("chat failed", zap.Int("item", req.ItemNumber), zap.Error(err))
		e.emit(ctx, protocol.EventChatError, protocol.ChatError{
			ItemNumber: req.ItemNumber,
			Token:      req.Token,
			Error:      err.Error(),
		})
		return
	}
	e.emit(ctx, protocol.EventChatResponse, protocol.ChatResponse{
		ItemNumber: req.ItemNumber,
		Token:      req.Token,
		Response:   resp,
	})
}

// GenerateReason asks the analyst for a removal reason draft.
func (e *Engine) GenerateReason(ctx context.Context, req protocol.GenerateReason) {
	adviser := e.adviser()
	if adviser == nil {
		e.emit(ctx, protocol.EventReasonError, protocol.ReasonError{
			ItemNumber: req.ItemNumber,
			Token:      req.Token,
			Error:      "no analyst API key configured",
		})
		return
	}
	reason, err := adviser.RemovalReason(ctx, req.Context)
	if err != nil {
		e.log.Warn("reason generation failed", zap.Int("item", req.ItemNumber), zap.Error(err))
		e.emit(ctx, protocol.EventReasonError, protocol.ReasonError{
			ItemNumber: req.ItemNumber,
			Token:      req.Token,
			Error:      err.Error(),
		})
		return
	}
	e.emit(ctx, protocol.EventReasonGenerated, protocol.ReasonGenerated{
		ItemNumber: req.ItemNumber,
		Token:      req.Token,
		Reason:     reason,
	})
}
