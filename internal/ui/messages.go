// Package ui provides the Bubble Tea TUI for the moderation dashboard.
package ui

import (
	"modqueue/internal/api"
	"modqueue/internal/protocol"
	"modqueue/internal/store"
)

// Inbound channel events, one message type per named event. The channel
// read loop translates frames into these and feeds them to the program.

// StatusUpdateMsg appends a line to the status log.
type StatusUpdateMsg protocol.StatusUpdate

// ItemAnalyzingMsg registers a new item entering analysis.
type ItemAnalyzingMsg protocol.ItemAnalyzing

// AIDecisionMsg carries the analyst verdict for an item.
type AIDecisionMsg protocol.AIDecision

// ActionResultMsg resolves an item on the automatic path.
type ActionResultMsg protocol.ActionResult

// ModerationCompleteMsg ends the run normally.
type ModerationCompleteMsg protocol.ModerationComplete

// RunErrorMsg ends the run abnormally.
type RunErrorMsg protocol.Error

// BatchProgressMsg resolves an item during batch submission.
type BatchProgressMsg protocol.BatchProgress

// BatchCompleteMsg ends batch submission with the authoritative count.
type BatchCompleteMsg protocol.BatchComplete

// ChatResponseMsg answers an ai_chat request.
type ChatResponseMsg protocol.ChatResponse

// ChatErrorMsg reports a failed ai_chat request.
type ChatErrorMsg protocol.ChatError

// ReasonGeneratedMsg answers a generate_removal_reason request.
type ReasonGeneratedMsg protocol.ReasonGenerated

// ReasonErrorMsg reports a failed generate_removal_reason request.
type ReasonErrorMsg protocol.ReasonError

// ChannelClosedMsg is sent when the event channel drops. There is no retry:
// the active run ends and the start control re-arms.
type ChannelClosedMsg struct {
	Err error
}

// AuthCheckedMsg is sent when the auth-status poll returns.
type AuthCheckedMsg struct {
	Status api.AuthStatus
	Err    error
}

// SubredditsLoadedMsg is sent when the moderated-community listing returns.
type SubredditsLoadedMsg struct {
	Subreddits []api.Subreddit
	Err        error
}

// EmitDoneMsg is sent after an outbound event was written to the channel.
type EmitDoneMsg struct {
	Event string
	Err   error
}

// APIKeySavedMsg is sent after the credential store write finishes.
type APIKeySavedMsg struct {
	Err error
}

// APIKeyLoadedMsg is sent at startup with the cached credential, if any.
type APIKeyLoadedMsg struct {
	Key string
	Err error
}

// BrowserOpenedMsg is sent after launching the system browser for OAuth.
type BrowserOpenedMsg struct {
	URL string
	Err error
}

// HistoryLoadedMsg is sent at startup with recent run summaries.
type HistoryLoadedMsg struct {
	Runs []store.RunRecord
	Err  error
}
