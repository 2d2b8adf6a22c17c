package channel

import (
	"testing"

	"modqueue/internal/protocol"
	"modqueue/internal/ui"
)

func frame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	b, err := protocol.Marshal(event, payload)
	if err != nil {
		t.Fatalf("marshal %s: %v", event, err)
	}
	return b
}

func TestTranslateMapsEveryInboundEvent(t *testing.T) {
	cases := []struct {
		event   string
		payload any
		want    string
	}{
		{protocol.EventStatusUpdate, protocol.StatusUpdate{Message: "hi"}, "ui.StatusUpdateMsg"},
		{protocol.EventItemAnalyzing, protocol.ItemAnalyzing{ItemNumber: 1}, "ui.ItemAnalyzingMsg"},
		{protocol.EventAIDecision, protocol.AIDecision{ItemNumber: 1}, "ui.AIDecisionMsg"},
		{protocol.EventActionResult, protocol.ActionResult{ItemNumber: 1}, "ui.ActionResultMsg"},
		{protocol.EventModerationComplete, protocol.ModerationComplete{}, "ui.ModerationCompleteMsg"},
		{protocol.EventError, protocol.Error{Message: "x"}, "ui.RunErrorMsg"},
		{protocol.EventBatchProgress, protocol.BatchProgress{ItemNumber: 1}, "ui.BatchProgressMsg"},
		{protocol.EventBatchComplete, protocol.BatchComplete{ProcessedCount: 2}, "ui.BatchCompleteMsg"},
		{protocol.EventChatResponse, protocol.ChatResponse{ItemNumber: 1}, "ui.ChatResponseMsg"},
		{protocol.EventChatError, protocol.ChatError{ItemNumber: 1}, "ui.ChatErrorMsg"},
		{protocol.EventReasonGenerated, protocol.ReasonGenerated{ItemNumber: 1}, "ui.ReasonGeneratedMsg"},
		{protocol.EventReasonError, protocol.ReasonError{ItemNumber: 1}, "ui.ReasonErrorMsg"},
	}

	for _, tc := range cases {
		msg, err := Translate(frame(t, tc.event, tc.payload))
		if err != nil {
			t.Errorf("%s: %v", tc.event, err)
			continue
		}
		switch tc.event {
		case protocol.EventAIDecision:
			if _, ok := msg.(ui.AIDecisionMsg); !ok {
				t.Errorf("%s translated to %T", tc.event, msg)
			}
		case protocol.EventBatchComplete:
			bc, ok := msg.(ui.BatchCompleteMsg)
			if !ok || bc.ProcessedCount != 2 {
				t.Errorf("%s translated to %#v", tc.event, msg)
			}
		default:
			if msg == nil {
				t.Errorf("%s translated to nil", tc.event)
			}
		}
	}
}

func TestTranslateUnknownEventDropped(t *testing.T) {
	if _, err := Translate([]byte(`{"event":"nonsense","data":{}}`)); err == nil {
		t.Error("unknown event should error so the read loop can drop it")
	}
}

func TestTranslateBadPayload(t *testing.T) {
	if _, err := Translate([]byte(`{"event":"ai_decision","data":[1,2]}`)); err == nil {
		t.Error("mistyped payload should error")
	}
}
