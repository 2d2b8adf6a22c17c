package hub

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"modqueue/internal/protocol"
)

type recordingHandler struct {
	mu      sync.Mutex
	runs    []protocol.StartModeration
	batches []protocol.ProcessBatch
	chats   []protocol.Chat
	reasons []protocol.GenerateReason
}

func (h *recordingHandler) Run(_ context.Context, req protocol.StartModeration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, req)
}

func (h *recordingHandler) ProcessBatch(_ context.Context, req protocol.ProcessBatch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, req)
}

func (h *recordingHandler) Chat(_ context.Context, req protocol.Chat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chats = append(h.chats, req)
}

func (h *recordingHandler) GenerateReason(_ context.Context, req protocol.GenerateReason) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reasons = append(h.reasons, req)
}

func frame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	b, err := protocol.Marshal(event, payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestDispatchRoutesCommands(t *testing.T) {
	s := &Session{log: zap.NewNop()}
	h := &recordingHandler{}
	g, ctx := errgroup.WithContext(context.Background())

	frames := [][]byte{
		frame(t, protocol.EventStartModeration, protocol.StartModeration{Subreddit: "golang", Limit: 5, HumanReview: true}),
		frame(t, protocol.EventProcessBatch, protocol.ProcessBatch{Actions: map[int]string{1: "approve"}}),
		frame(t, protocol.EventChat, protocol.Chat{ItemNumber: 1, Token: 3, Message: "why"}),
		frame(t, protocol.EventGenerateReason, protocol.GenerateReason{ItemNumber: 1, Token: 4}),
	}
	for _, f := range frames {
		if err := s.dispatch(ctx, g, h, f); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	g.Wait()

	if len(h.runs) != 1 || h.runs[0].Subreddit != "golang" || !h.runs[0].HumanReview {
		t.Errorf("runs = %+v", h.runs)
	}
	if len(h.batches) != 1 || h.batches[0].Actions[1] != "approve" {
		t.Errorf("batches = %+v", h.batches)
	}
	if len(h.chats) != 1 || h.chats[0].Token != 3 {
		t.Errorf("chats = %+v", h.chats)
	}
	if len(h.reasons) != 1 || h.reasons[0].Token != 4 {
		t.Errorf("reasons = %+v", h.reasons)
	}
}

func TestDispatchRejectsUnknownEvent(t *testing.T) {
	s := &Session{log: zap.NewNop()}
	g, ctx := errgroup.WithContext(context.Background())

	err := s.dispatch(ctx, g, &recordingHandler{}, []byte(`{"event":"nope","data":{}}`))
	if err == nil {
		t.Error("unknown event should error")
	}
}

func TestDispatchRejectsBadPayload(t *testing.T) {
	s := &Session{log: zap.NewNop()}
	g, ctx := errgroup.WithContext(context.Background())

	err := s.dispatch(ctx, g, &recordingHandler{}, []byte(`{"event":"start_moderation","data":[1]}`))
	if err == nil {
		t.Error("mistyped payload should error")
	}
}
