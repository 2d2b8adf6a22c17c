// Package hub owns the daemon side of the event channel: one Session per
// dashboard connection, reading command frames and writing progress events.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"modqueue/internal/protocol"
)

const writeTimeout = 10 * time.Second

// Handler receives the decoded dashboard commands. Each call may block for
// the duration of the work; the session runs them on their own goroutines.
type Handler interface {
	Run(ctx context.Context, req protocol.StartModeration)
	ProcessBatch(ctx context.Context, req protocol.ProcessBatch)
	Chat(ctx context.Context, req protocol.Chat)
	GenerateReason(ctx context.Context, req protocol.GenerateReason)
}

// Session is one connected dashboard.
type Session struct {
	conn *websocket.Conn
	log  *zap.Logger

	writeMu sync.Mutex
}

// NewSession wraps an accepted websocket connection.
func NewSession(conn *websocket.Conn, log *zap.Logger) *Session {
	conn.SetReadLimit(1 << 20)
	return &Session{conn: conn, log: log}
}

// Emit writes one event frame. Safe for concurrent use; the engine's worker
// goroutines all write through here.
func (s *Session) Emit(ctx context.Context, event string, payload any) error {
	frame, err := protocol.Marshal(event, payload)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.Write(wctx, websocket.MessageText, frame)
}

// Serve reads command frames until the connection drops, dispatching each to
// the handler. Returns once the connection is gone and all in-flight work
// has finished.
func (s *Session) Serve(ctx context.Context, handler Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for {
		_, frame, err := s.conn.Read(ctx)
		if err != nil {
			s.log.Info("dashboard disconnected", zap.Error(err))
			waitErr := g.Wait()
			s.conn.Close(websocket.StatusNormalClosure, "")
			return waitErr
		}
		if err := s.dispatch(ctx, g, handler, frame); err != nil {
			s.log.Warn("dropping frame", zap.Error(err))
		}
	}
}

// dispatch decodes one frame and hands it to the handler on a worker
// goroutine. Unknown events are an error; the caller logs and drops them.
func (s *Session) dispatch(ctx context.Context, g *errgroup.Group, handler Handler, frame []byte) error {
	env, err := protocol.Unmarshal(frame)
	if err != nil {
		return err
	}
	decode := func(out any) error {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return nil
	}

	switch env.Event {
	case protocol.EventStartModeration:
		var req protocol.StartModeration
		if err := decode(&req); err != nil {
			return err
		}
		g.Go(func() error {
			handler.Run(ctx, req)
			return nil
		})
	case protocol.EventProcessBatch:
		var req protocol.ProcessBatch
		if err := decode(&req); err != nil {
			return err
		}
		g.Go(func() error {
			handler.ProcessBatch(ctx, req)
			return nil
		})
	case protocol.EventChat:
		var req protocol.Chat
		if err := decode(&req); err != nil {
			return err
		}
		g.Go(func() error {
			handler.Chat(ctx, req)
			return nil
		})
	case protocol.EventGenerateReason:
		var req protocol.GenerateReason
		if err := decode(&req); err != nil {
			return err
		}
		g.Go(func() error {
			handler.GenerateReason(ctx, req)
			return nil
		})
	default:
		return fmt.Errorf("unknown event %q", env.Event)
	}
	return nil
}
