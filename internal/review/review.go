// Package review maintains the authoritative client-side state for one
// moderation run: the ordered item table, per-item decision state, aggregate
// and pending counters, and the focus cursor for keyboard navigation.
//
// State is NOT safe for concurrent use. It is mutated only from the Bubble
// Tea update loop, which processes one message at a time.
package review

import (
	"errors"
	"time"

	"modqueue/internal/protocol"
)

// Action is a moderation verdict.
type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionRemove  Action = "REMOVE"
	ActionSkip    Action = "SKIP"
)

// ParseAction normalizes a wire action string. Unknown strings map to
// ActionSkip so a malformed event can never trigger a removal.
func ParseAction(s string) Action {
	switch s {
	case "APPROVE", "approve":
		return ActionApprove
	case "REMOVE", "remove":
		return ActionRemove
	default:
		return ActionSkip
	}
}

// Lower returns the lowercase wire form used in batch payloads.
func (a Action) Lower() string {
	switch a {
	case ActionApprove:
		return "approve"
	case ActionRemove:
		return "remove"
	default:
		return "skip"
	}
}

// Phase is the lifecycle position of an item's decision.
type Phase int

const (
	// PhaseUnset: item registered, no AI verdict yet.
	PhaseUnset Phase = iota
	// PhaseAIProposed: AI verdict recorded; in review mode it doubles as
	// the pre-filled default the moderator can override.
	PhaseAIProposed
	// PhaseHumanOverride: moderator picked an action. Re-enterable.
	PhaseHumanOverride
	// PhaseResolved: the platform acknowledged the action. Terminal.
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseUnset:
		return "unset"
	case PhaseAIProposed:
		return "ai-proposed"
	case PhaseHumanOverride:
		return "human-override"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Outcome is how a resolved item ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeDryRun  Outcome = "dry_run"
)

// Decision is the tagged decision value for one item. Which fields are
// meaningful depends on Phase.
type Decision struct {
	Phase      Phase
	Action     Action
	Confidence int    // AI verdict, 1..10
	Reason     string // AI verdict explanation
	Manual     bool   // HumanOverride: explicitly picked vs seeded default
	Outcome    Outcome
	Err        string // Resolved with OutcomeError
}

// ChatMessage is one entry in an item's side-channel conversation.
type ChatMessage struct {
	FromUser bool
	Text     string
	At       time.Time
}

// Item is one unit of moderated content. Metadata is immutable after
// registration except for last-write-wins refresh on duplicate delivery;
// decision state moves only through State's transitions.
type Item struct {
	Number        int
	Kind          string // "submission" or "comment"
	Title         string
	Author        string
	Score         int
	Content       string // preview, possibly truncated
	FullContent   string
	URL           string
	Created       time.Time
	UserReports   []protocol.Report
	ModReports    []protocol.Report
	PriorRemoval  string
	Decision      Decision
	Chat          []ChatMessage
	ChatWaiting   bool
	ReasonDraft   string
	ReasonWaiting bool

	chatToken   uint64
	reasonToken uint64
}

// Stats are the aggregate run counters. Monotonic for the life of a run
// except Processed, which the daemon's batch_complete count overwrites.
type Stats struct {
	Processed int
	Approved  int
	Removed   int
	APICalls  int
}

// PendingCounts bucket the current per-item actions awaiting batch
// submission. Invariant: always equal to a live recount over the item table.
type PendingCounts struct {
	Approve int
	Remove  int
	Skip    int
}

// Total is the number of items carrying any pending action.
func (p PendingCounts) Total() int { return p.Approve + p.Remove + p.Skip }

// Direction moves the focus cursor.
type Direction int

const (
	Next Direction = iota
	Previous
)

var (
	// ErrNoRun is returned when an operation needs an active run.
	ErrNoRun = errors.New("no moderation run")
	// ErrRunActive is returned by StartRun while a run is in flight.
	ErrRunActive = errors.New("moderation run already active")
	// ErrItemNotFound is returned when an event references an unknown item.
	ErrItemNotFound = errors.New("item not registered")
	// ErrItemResolved rejects decision mutation after resolution.
	ErrItemResolved = errors.New("item already resolved")
	// ErrNotReviewing rejects overrides outside human-review mode.
	ErrNotReviewing = errors.New("human review not enabled")
	// ErrAwaitingDecision rejects overrides before the AI verdict arrives.
	ErrAwaitingDecision = errors.New("no AI decision yet")
)
