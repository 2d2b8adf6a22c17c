// Package protocol defines the named events exchanged between the modqueue
// dashboard and the moderation daemon, and the JSON envelope that carries
// them over the websocket channel.
//
// One event per text frame. Delivery order is the connection's own FIFO
// order; there are no sequence numbers.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound event names (daemon -> dashboard).
const (
	EventStatusUpdate       = "status_update"
	EventItemAnalyzing      = "item_analyzing"
	EventAIDecision         = "ai_decision"
	EventActionResult       = "action_result"
	EventModerationComplete = "moderation_complete"
	EventError              = "error"
	EventBatchProgress      = "batch_progress"
	EventBatchComplete      = "batch_complete"
	EventChatResponse       = "ai_chat_response"
	EventChatError          = "ai_chat_error"
	EventReasonGenerated    = "removal_reason_generated"
	EventReasonError        = "removal_reason_error"
)

// Outbound event names (dashboard -> daemon).
const (
	EventStartModeration = "start_moderation"
	EventProcessBatch    = "process_batch_actions"
	EventChat            = "ai_chat"
	EventGenerateReason  = "generate_removal_reason"
)

// Envelope wraps a single event on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Marshal encodes an event payload into a wire frame.
func Marshal(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Unmarshal decodes a wire frame into an envelope. The payload stays raw
// until the caller decodes it with the event-specific type.
func Unmarshal(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("frame missing event name")
	}
	return env, nil
}

// StatusUpdate is an append-only log line. Type is one of "info", "success",
// "error".
type StatusUpdate struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Report is one prior report on an item. For user reports Count is set; for
// moderator reports Moderator is set.
type Report struct {
	Reason    string `json:"reason"`
	Count     int    `json:"count,omitempty"`
	Moderator string `json:"moderator,omitempty"`
}

// ItemAnalyzing announces a modqueue item entering analysis. ItemNumber is
// stable for the life of the run.
type ItemAnalyzing struct {
	ItemNumber    int      `json:"item_number"`
	TotalItems    int      `json:"total_items"`
	Kind          string   `json:"type"` // "submission" or "comment"
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Score         int      `json:"score"`
	Content       string   `json:"content"`
	FullContent   string   `json:"full_content"`
	URL           string   `json:"url"`
	CreatedUTC    int64    `json:"created_utc"`
	UserReports   []Report `json:"user_reports"`
	ModReports    []Report `json:"mod_reports"`
	RemovalReason string   `json:"removal_reason,omitempty"`
}

// AIDecision carries the analyst's verdict for one item.
type AIDecision struct {
	ItemNumber int    `json:"item_number"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"` // 1..10
}

// ActionResult reports the automatic (non-review) path acting on an item.
type ActionResult struct {
	ItemNumber  int    `json:"item_number"`
	Action      string `json:"action"`
	ActionTaken bool   `json:"action_taken"`
	DryRun      bool   `json:"dry_run"`
	Error       string `json:"error,omitempty"`
}

// ModerationComplete ends a run normally.
type ModerationComplete struct {
	Message        string `json:"message"`
	TotalProcessed int    `json:"total_processed"`
}

// Error ends a run abnormally, or reports a request the daemon refused.
type Error struct {
	Message string `json:"message"`
}

// BatchProgress reports one item acted on during batch submission.
type BatchProgress struct {
	ItemNumber int    `json:"item_number"`
	Action     string `json:"action"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// BatchComplete ends batch submission. ProcessedCount is authoritative and
// overwrites any locally accumulated count.
type BatchComplete struct {
	Message        string `json:"message"`
	ProcessedCount int    `json:"processed_count"`
}

// ChatResponse answers an ai_chat request. Token echoes the request token;
// a reply whose token no longer matches the item's latest request is stale.
type ChatResponse struct {
	ItemNumber int    `json:"item_number"`
	Token      uint64 `json:"token"`
	Response   string `json:"response"`
}

// ChatError reports a failed ai_chat request.
type ChatError struct {
	ItemNumber int    `json:"item_number"`
	Token      uint64 `json:"token"`
	Error      string `json:"error"`
}

// ReasonGenerated answers a generate_removal_reason request.
type ReasonGenerated struct {
	ItemNumber int    `json:"item_number"`
	Token      uint64 `json:"token"`
	Reason     string `json:"reason"`
}

// ReasonError reports a failed generate_removal_reason request.
type ReasonError struct {
	ItemNumber int    `json:"item_number"`
	Token      uint64 `json:"token"`
	Error      string `json:"error"`
}

// StartModeration launches a run. APIKey is the analyst credential the
// dashboard holds; the daemon uses it for this and later requests on the
// connection, falling back to its own configured key when absent.
type StartModeration struct {
	Subreddit   string `json:"subreddit"`
	Limit       int    `json:"limit"`
	HumanReview bool   `json:"human_review"`
	APIKey      string `json:"api_key,omitempty"`
}

// ProcessBatch submits the reviewed item->action map for execution.
// Actions are lowercase ("approve", "remove", "skip"); skip entries are
// ignored server-side.
type ProcessBatch struct {
	Actions        map[int]string `json:"actions"`
	RemovalReasons map[int]string `json:"removal_reasons,omitempty"`
}

// ItemContext is the semantic snapshot of an item sent with chat and
// reason-generation requests. It is assembled from the review state, never
// scraped from rendered output.
type ItemContext struct {
	Author      string   `json:"author"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Kind        string   `json:"type"`
	Action      string   `json:"action"`
	Reason      string   `json:"reason"`
	Subreddit   string   `json:"subreddit"`
	UserReports []Report `json:"user_reports"`
	ModReports  []Report `json:"mod_reports"`
}

// Chat asks the analyst a follow-up question about one item.
type Chat struct {
	ItemNumber int         `json:"item_number"`
	Token      uint64      `json:"token"`
	Message    string      `json:"message"`
	Context    ItemContext `json:"context"`
}

// GenerateReason asks the analyst to draft a removal reason for one item.
type GenerateReason struct {
	ItemNumber int         `json:"item_number"`
	Token      uint64      `json:"token"`
	Context    ItemContext `json:"context"`
}
