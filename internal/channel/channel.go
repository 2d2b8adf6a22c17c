// Package channel owns the client side of the persistent event channel:
// dialing the daemon's websocket, translating inbound frames into UI
// messages, and writing outbound events.
//
// There is no retry or buffering. A dropped connection surfaces as a single
// ChannelClosedMsg and the moderator reconnects by restarting the client.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/websocket"

	"modqueue/internal/logging"
	"modqueue/internal/protocol"
	"modqueue/internal/ui"
)

// writeTimeout bounds a single outbound frame write.
const writeTimeout = 10 * time.Second

// Client is a connected event channel.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the daemon's websocket endpoint. baseURL is the daemon's
// HTTP base URL; the scheme is switched to ws/wss.
func Dial(ctx context.Context, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	// Item payloads can carry full post bodies.
	conn.SetReadLimit(1 << 20)
	return &Client{conn: conn}, nil
}

// Listen reads frames until the connection drops, feeding each decoded
// event to the program. Runs in its own goroutine; the final
// ChannelClosedMsg is the only signal the UI gets about the disconnect.
func (c *Client) Listen(ctx context.Context, program *tea.Program) {
	go func() {
		for {
			_, frame, err := c.conn.Read(ctx)
			if err != nil {
				program.Send(ui.ChannelClosedMsg{Err: err})
				return
			}
			msg, err := Translate(frame)
			if err != nil {
				logging.Warn("dropping frame", "err", err)
				continue
			}
			program.Send(msg)
		}
	}()
}

// Translate decodes one wire frame into the UI message for its event.
// Unknown event names are an error; the caller logs and drops them.
func Translate(frame []byte) (tea.Msg, error) {
	env, err := protocol.Unmarshal(frame)
	if err != nil {
		return nil, err
	}

	decode := func(out any) (tea.Msg, error) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return nil, nil
	}

	switch env.Event {
	case protocol.EventStatusUpdate:
		var p ui.StatusUpdateMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventItemAnalyzing:
		var p ui.ItemAnalyzingMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventAIDecision:
		var p ui.AIDecisionMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventActionResult:
		var p ui.ActionResultMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventModerationComplete:
		var p ui.ModerationCompleteMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventError:
		var p ui.RunErrorMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventBatchProgress:
		var p ui.BatchProgressMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventBatchComplete:
		var p ui.BatchCompleteMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventChatResponse:
		var p ui.ChatResponseMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventChatError:
		var p ui.ChatErrorMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventReasonGenerated:
		var p ui.ReasonGeneratedMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case protocol.EventReasonError:
		var p ui.ReasonErrorMsg
		if _, err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}

// Emit returns a command that writes one outbound event. The result message
// carries any write error; nothing is buffered across disconnects.
func (c *Client) Emit(ctx context.Context, event string, payload any) tea.Cmd {
	return func() tea.Msg {
		frame, err := protocol.Marshal(event, payload)
		if err != nil {
			return ui.EmitDoneMsg{Event: event, Err: err}
		}
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		if err := c.conn.Write(wctx, websocket.MessageText, frame); err != nil {
			return ui.EmitDoneMsg{Event: event, Err: err}
		}
		return ui.EmitDoneMsg{Event: event}
	}
}

// Close shuts the connection down.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "client closing")
}
