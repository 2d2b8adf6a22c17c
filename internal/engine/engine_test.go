package engine

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"modqueue/internal/analyst"
	"modqueue/internal/protocol"
	"modqueue/internal/reddit"
)

type fakePlatform struct {
	queue     []reddit.Item
	queueErr  error
	approved  []string
	removed   []string
	comments  map[string]string
	actionErr error
}

func (f *fakePlatform) Modqueue(context.Context, string, int) ([]reddit.Item, error) {
	return f.queue, f.queueErr
}

func (f *fakePlatform) Approve(_ context.Context, fullname string) error {
	if f.actionErr != nil {
		return f.actionErr
	}
	f.approved = append(f.approved, fullname)
	return nil
}

func (f *fakePlatform) Remove(_ context.Context, fullname string) error {
	if f.actionErr != nil {
		return f.actionErr
	}
	f.removed = append(f.removed, fullname)
	return nil
}

func (f *fakePlatform) Comment(_ context.Context, parent, text string) error {
	if f.comments == nil {
		f.comments = map[string]string{}
	}
	f.comments[parent] = text
	return nil
}

type fakeAdviser struct {
	verdict analyst.Verdict
	err     error
}

func (f *fakeAdviser) Decide(context.Context, reddit.Item) (analyst.Verdict, error) {
	return f.verdict, f.err
}

func (f *fakeAdviser) Chat(_ context.Context, message string, _ protocol.ItemContext) (string, error) {
	return "re: " + message, f.err
}

func (f *fakeAdviser) RemovalReason(context.Context, protocol.ItemContext) (string, error) {
	return "drafted reason", f.err
}

// captureEmitter records every emitted event in order.
type captureEmitter struct {
	events   []string
	payloads []any
}

func (c *captureEmitter) Emit(_ context.Context, event string, payload any) error {
	c.events = append(c.events, event)
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *captureEmitter) ofType(event string) []any {
	var out []any
	for i, e := range c.events {
		if e == event {
			out = append(out, c.payloads[i])
		}
	}
	return out
}

func newEngine(p *fakePlatform, a *fakeAdviser, emit *captureEmitter, dryRun bool) *Engine {
	var adv Adviser
	if a != nil {
		adv = a
	}
	return New(p, adv, emit, dryRun, zap.NewNop())
}

func queue(n int) []reddit.Item {
	items := make([]reddit.Item, n)
	for i := range items {
		items[i] = reddit.Item{
			Fullname: "t1_" + string(rune('a'+i)),
			Kind:     "comment",
			Author:   "user",
			Body:     "text",
		}
	}
	return items
}

func TestAutoRunActsImmediately(t *testing.T) {
	p := &fakePlatform{queue: queue(2)}
	emit := &captureEmitter{}
	e := newEngine(p, &fakeAdviser{verdict: analyst.Verdict{Action: "REMOVE", Reason: "spam", Confidence: 9}}, emit, false)

	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang", Limit: 5})

	if len(p.removed) != 2 {
		t.Errorf("removed %v", p.removed)
	}
	results := emit.ofType(protocol.EventActionResult)
	if len(results) != 2 {
		t.Fatalf("got %d action results", len(results))
	}
	if r := results[0].(protocol.ActionResult); !r.ActionTaken || r.ItemNumber != 1 {
		t.Errorf("result = %+v", r)
	}
	done := emit.ofType(protocol.EventModerationComplete)
	if len(done) != 1 || done[0].(protocol.ModerationComplete).TotalProcessed != 2 {
		t.Errorf("completion = %v", done)
	}
}

func TestReviewRunOnlyAnalyzes(t *testing.T) {
	p := &fakePlatform{queue: queue(3)}
	emit := &captureEmitter{}
	e := newEngine(p, &fakeAdviser{verdict: analyst.Verdict{Action: "APPROVE", Confidence: 6}}, emit, false)

	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang", Limit: 5, HumanReview: true})

	if len(p.approved) != 0 || len(p.removed) != 0 {
		t.Error("review mode must not act on items")
	}
	if got := len(emit.ofType(protocol.EventAIDecision)); got != 3 {
		t.Errorf("got %d ai decisions", got)
	}
	if got := len(emit.ofType(protocol.EventActionResult)); got != 0 {
		t.Errorf("got %d action results", got)
	}
}

func TestAnalystFailureFallsBack(t *testing.T) {
	p := &fakePlatform{queue: queue(1)}
	emit := &captureEmitter{}
	e := newEngine(p, &fakeAdviser{err: errors.New("model down")}, emit, false)

	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang"})

	decisions := emit.ofType(protocol.EventAIDecision)
	if len(decisions) != 1 {
		t.Fatalf("got %d decisions", len(decisions))
	}
	d := decisions[0].(protocol.AIDecision)
	if d.Action != "APPROVE" || d.Confidence != 1 {
		t.Errorf("fallback decision = %+v", d)
	}
	if len(p.removed) != 0 {
		t.Error("fallback must never remove")
	}
}

func TestDryRunTouchesNothing(t *testing.T) {
	p := &fakePlatform{queue: queue(1)}
	emit := &captureEmitter{}
	e := newEngine(p, &fakeAdviser{verdict: analyst.Verdict{Action: "REMOVE", Confidence: 8}}, emit, true)

	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang"})

	if len(p.removed) != 0 {
		t.Error("dry run removed items")
	}
	r := emit.ofType(protocol.EventActionResult)[0].(protocol.ActionResult)
	if !r.DryRun || r.ActionTaken {
		t.Errorf("result = %+v", r)
	}
}

func TestEmptyQueueCompletesImmediately(t *testing.T) {
	p := &fakePlatform{}
	emit := &captureEmitter{}
	e := newEngine(p, &fakeAdviser{}, emit, false)

	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang"})

	if got := len(emit.ofType(protocol.EventModerationComplete)); got != 1 {
		t.Errorf("got %d completions", got)
	}
}

func TestFetchErrorEmitsError(t *testing.T) {
	p := &fakePlatform{queueErr: errors.New("boom")}
	emit := &captureEmitter{}
	e := newEngine(p, &fakeAdviser{}, emit, false)

	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang"})

	if got := len(emit.ofType(protocol.EventError)); got != 1 {
		t.Errorf("got %d errors", got)
	}
	if got := len(emit.ofType(protocol.EventModerationComplete)); got != 0 {
		t.Error("failed run must not complete")
	}
}

func TestBatchSkipsSkipEntries(t *testing.T) {
	p := &fakePlatform{queue: queue(3)}
	emit := &captureEmitter{}
	e := newEngine(p, &fakeAdviser{verdict: analyst.Verdict{Action: "APPROVE", Confidence: 5}}, emit, false)
	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang", HumanReview: true})
	emit.events, emit.payloads = nil, nil

	e.ProcessBatch(context.Background(), protocol.ProcessBatch{
		Actions:        map[int]string{1: "approve", 2: "skip", 3: "remove"},
		RemovalReasons: map[int]string{3: "rule 2 violation"},
	})

	if len(p.approved) != 1 || len(p.removed) != 1 {
		t.Errorf("approved=%v removed=%v", p.approved, p.removed)
	}
	progress := emit.ofType(protocol.EventBatchProgress)
	if len(progress) != 2 {
		t.Fatalf("got %d progress events, skip must not round-trip", len(progress))
	}
	done := emit.ofType(protocol.EventBatchComplete)
	if len(done) != 1 || done[0].(protocol.BatchComplete).ProcessedCount != 2 {
		t.Errorf("completion = %v", done)
	}
	if p.comments[p.removed[0]] != "rule 2 violation" {
		t.Errorf("removal reason not posted: %v", p.comments)
	}
}

func TestBatchUnknownItemReported(t *testing.T) {
	p := &fakePlatform{queue: queue(1)}
	emit := &captureEmitter{}
	e := newEngine(p, &fakeAdviser{verdict: analyst.Verdict{Action: "APPROVE", Confidence: 5}}, emit, false)
	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang", HumanReview: true})
	emit.events, emit.payloads = nil, nil

	e.ProcessBatch(context.Background(), protocol.ProcessBatch{
		Actions: map[int]string{99: "approve"},
	})

	progress := emit.ofType(protocol.EventBatchProgress)
	if len(progress) != 1 || progress[0].(protocol.BatchProgress).Success {
		t.Errorf("progress = %v", progress)
	}
	if done := emit.ofType(protocol.EventBatchComplete); done[0].(protocol.BatchComplete).ProcessedCount != 0 {
		t.Errorf("completion = %v", done)
	}
}

func TestRunKeyInstallsAdviser(t *testing.T) {
	p := &fakePlatform{queue: queue(1)}
	emit := &captureEmitter{}
	e := newEngine(p, nil, emit, false)
	var gotKey string
	e.UseAdviserFactory(func(key string) Adviser {
		gotKey = key
		return &fakeAdviser{verdict: analyst.Verdict{Action: "APPROVE", Confidence: 5}}
	})

	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang", APIKey: "sk-new"})

	if gotKey != "sk-new" {
		t.Errorf("factory key = %q", gotKey)
	}
	if got := len(emit.ofType(protocol.EventAIDecision)); got != 1 {
		t.Errorf("got %d decisions", got)
	}
}

func TestRunWithoutAdviserFails(t *testing.T) {
	p := &fakePlatform{queue: queue(1)}
	emit := &captureEmitter{}
	e := newEngine(p, nil, emit, false)

	e.Run(context.Background(), protocol.StartModeration{Subreddit: "golang"})

	if got := len(emit.ofType(protocol.EventError)); got != 1 {
		t.Errorf("got %d errors", got)
	}
}

func TestChatEchoesToken(t *testing.T) {
	emit := &captureEmitter{}
	e := newEngine(&fakePlatform{}, &fakeAdviser{}, emit, false)

	e.Chat(context.Background(), protocol.Chat{ItemNumber: 2, Token: 7, Message: "why"})

	resp := emit.ofType(protocol.EventChatResponse)[0].(protocol.ChatResponse)
	if resp.Token != 7 || resp.ItemNumber != 2 || resp.Response != "re: why" {
		t.Errorf("response = %+v", resp)
	}
}

func TestReasonErrorEchoesToken(t *testing.T) {
	emit := &captureEmitter{}
	e := newEngine(&fakePlatform{}, &fakeAdviser{err: errors.New("model down")}, emit, false)

	e.GenerateReason(context.Background(), protocol.GenerateReason{ItemNumber: 3, Token: 9})

	errs := emit.ofType(protocol.EventReasonError)
	if len(errs) != 1 {
		t.Fatalf("got %d reason errors", len(errs))
	}
	if p := errs[0].(protocol.ReasonError); p.Token != 9 || p.ItemNumber != 3 {
		t.Errorf("payload = %+v", p)
	}
}
