package review

import (
	"fmt"
	"time"

	"modqueue/internal/protocol"
)

// State owns the item table and all derived views for one moderation run.
// The zero value is usable: no run, empty table.
type State struct {
	subreddit   string
	limit       int
	humanReview bool
	active      bool
	batchOpen   bool // batch submission surfaced after a review run completes
	batchBusy   bool

	items map[int]*Item
	order []int // insertion order, drives keyboard navigation
	focus int   // index into order, -1 when empty

	stats   Stats
	pending PendingCounts

	nextToken uint64
}

// NewState returns an empty State with no run.
func NewState() *State {
	return &State{items: make(map[int]*Item), focus: -1}
}

// StartRun begins a new run, clearing all prior state. A run that is still
// active is not silently discarded: the caller gets ErrRunActive and must
// wait for moderation_complete or error.
func (s *State) StartRun(subreddit string, limit int, humanReview bool) error {
	if s.active {
		return ErrRunActive
	}
	s.subreddit = subreddit
	s.limit = limit
	s.humanReview = humanReview
	s.active = true
	s.batchOpen = false
	s.batchBusy = false
	s.items = make(map[int]*Item)
	s.order = nil
	s.focus = -1
	s.stats = Stats{}
	s.pending = PendingCounts{}
	return nil
}

// Complete ends the run normally. In review mode this opens the batch
// submission surface.
func (s *State) Complete() {
	if !s.active {
		return
	}
	s.active = false
	if s.humanReview {
		s.batchOpen = true
	}
}

// Fail ends the run abnormally. Already-resolved items keep their state.
func (s *State) Fail() {
	s.active = false
	s.batchBusy = false
}

// Active reports whether a run is in flight.
func (s *State) Active() bool { return s.active }

// HumanReview reports whether the current run collects overrides.
func (s *State) HumanReview() bool { return s.humanReview }

// Subreddit returns the community of the current run.
func (s *State) Subreddit() string { return s.subreddit }

// BatchOpen reports whether batch submission is available.
func (s *State) BatchOpen() bool { return s.batchOpen && !s.batchBusy }

// BatchBusy reports whether a batch submission is in flight.
func (s *State) BatchBusy() bool { return s.batchBusy }

// Stats returns the aggregate run counters.
func (s *State) Stats() Stats { return s.stats }

// Pending returns the per-action pending counters.
func (s *State) Pending() PendingCounts { return s.pending }

// Len returns the number of registered items.
func (s *State) Len() int { return len(s.order) }

// Items returns the items in arrival order.
func (s *State) Items() []*Item {
	out := make([]*Item, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.items[n])
	}
	return out
}

// Item looks up one item by number.
func (s *State) Item(number int) (*Item, bool) {
	it, ok := s.items[number]
	return it, ok
}

// RegisterItem inserts a new item in Unset decision state. Duplicate
// delivery is tolerated: metadata is refreshed last-write-wins, decision
// state and position are untouched.
func (s *State) RegisterItem(meta Item) {
	if existing, ok := s.items[meta.Number]; ok {
		dec := existing.Decision
		chat := existing.Chat
		draft := existing.ReasonDraft
		ct, rt := existing.chatToken, existing.reasonToken
		*existing = meta
		existing.Decision = dec
		existing.Chat = chat
		existing.ReasonDraft = draft
		existing.chatToken, existing.reasonToken = ct, rt
		return
	}
	it := meta
	it.Decision = Decision{Phase: PhaseUnset}
	s.items[it.Number] = &it
	s.order = append(s.order, it.Number)
	if s.focus < 0 {
		s.focus = 0
	}
}

// ApplyAIDecision records the analyst's verdict. The API-call counter ticks
// for every ai_decision event, even one referencing an unknown item. In
// review mode the verdict also seeds the pending action as the pre-filled
// default the moderator will confirm or override.
func (s *State) ApplyAIDecision(number int, action Action, confidence int, reason string) error {
	s.stats.APICalls++
	it, ok := s.items[number]
	if !ok {
		return fmt.Errorf("ai decision for item %d: %w", number, ErrItemNotFound)
	}
	if it.Decision.Phase == PhaseResolved {
		return fmt.Errorf("ai decision for item %d: %w", number, ErrItemResolved)
	}
	old := s.currentPendingAction(it)
	it.Decision = Decision{
		Phase:      PhaseAIProposed,
		Action:     action,
		Confidence: confidence,
		Reason:     reason,
	}
	if s.humanReview {
		s.shiftPending(old, action)
	}
	return nil
}

// SetHumanDecision overwrites the item's pending action with an explicit
// moderator choice. The returned offerReason flag tells the caller the item
// is now marked for removal and a drafted removal reason would be useful;
// whether to auto-request one is the caller's policy, not a state concern.
func (s *State) SetHumanDecision(number int, action Action) (offerReason bool, err error) {
	if !s.humanReview {
		return false, ErrNotReviewing
	}
	it, ok := s.items[number]
	if !ok {
		return false, fmt.Errorf("override for item %d: %w", number, ErrItemNotFound)
	}
	switch it.Decision.Phase {
	case PhaseResolved:
		return false, fmt.Errorf("override for item %d: %w", number, ErrItemResolved)
	case PhaseUnset:
		return false, fmt.Errorf("override for item %d: %w", number, ErrAwaitingDecision)
	}
	old := s.currentPendingAction(it)
	it.Decision.Phase = PhaseHumanOverride
	it.Decision.Action = action
	it.Decision.Manual = true
	s.shiftPending(old, action)
	return action == ActionRemove, nil
}

// SnapshotForBatch returns the item->action map for batch submission:
// every item whose decision is past Unset and not yet Resolved, with the
// human override where present and the AI default otherwise.
func (s *State) SnapshotForBatch() map[int]Action {
	out := make(map[int]Action)
	for _, n := range s.order {
		it := s.items[n]
		switch it.Decision.Phase {
		case PhaseAIProposed, PhaseHumanOverride:
			out[n] = it.Decision.Action
		}
	}
	return out
}

// RemovalReasons returns the drafted reasons for items pending removal.
func (s *State) RemovalReasons() map[int]string {
	out := make(map[int]string)
	for _, n := range s.order {
		it := s.items[n]
		if it.Decision.Phase == PhaseResolved || it.Decision.Phase == PhaseUnset {
			continue
		}
		if it.Decision.Action == ActionRemove && it.ReasonDraft != "" {
			out[n] = it.ReasonDraft
		}
	}
	return out
}

// BeginBatch marks batch submission in flight.
func (s *State) BeginBatch() { s.batchBusy = true }

// ResolveBatchItem is the terminal transition for one item during batch
// submission. The item's pending bucket is released whether or not the
// platform call succeeded.
func (s *State) ResolveBatchItem(number int, action Action, success bool, errMsg string) error {
	it, err := s.resolve(number, action)
	if err != nil {
		return err
	}
	if success {
		it.Decision.Outcome = OutcomeSuccess
		s.stats.Processed++
		s.countAction(action)
	} else {
		it.Decision.Outcome = OutcomeError
		it.Decision.Err = errMsg
	}
	return nil
}

// ResolveAutoItem is the terminal transition on the fully automatic path
// (action_result events). Counters follow the reported action even when the
// platform call failed, matching the run summary the daemon reports.
func (s *State) ResolveAutoItem(number int, action Action, outcome Outcome, errMsg string) error {
	it, err := s.resolve(number, action)
	if err != nil {
		return err
	}
	it.Decision.Outcome = outcome
	it.Decision.Err = errMsg
	s.stats.Processed++
	s.countAction(action)
	return nil
}

// CompleteBatch closes batch submission. The daemon's processed count is
// authoritative and replaces whatever accumulated locally.
func (s *State) CompleteBatch(processedCount int) {
	s.stats.Processed = processedCount
	s.batchBusy = false
	s.batchOpen = false
}

func (s *State) resolve(number int, action Action) (*Item, error) {
	it, ok := s.items[number]
	if !ok {
		return nil, fmt.Errorf("resolve item %d: %w", number, ErrItemNotFound)
	}
	if it.Decision.Phase == PhaseResolved {
		return nil, fmt.Errorf("resolve item %d: %w", number, ErrItemResolved)
	}
	old := s.currentPendingAction(it)
	if s.humanReview {
		s.shiftPending(old, "")
	}
	it.Decision.Phase = PhaseResolved
	it.Decision.Action = action
	return it, nil
}

func (s *State) countAction(action Action) {
	switch action {
	case ActionApprove:
		s.stats.Approved++
	case ActionRemove:
		s.stats.Removed++
	}
}

// currentPendingAction returns the action occupying a pending bucket for
// this item, or "" if none.
func (s *State) currentPendingAction(it *Item) Action {
	switch it.Decision.Phase {
	case PhaseAIProposed, PhaseHumanOverride:
		return it.Decision.Action
	}
	return ""
}

// shiftPending moves one item between pending buckets. Either side may be
// "" for enter/leave.
func (s *State) shiftPending(from, to Action) {
	s.bucket(from, -1)
	s.bucket(to, +1)
}

func (s *State) bucket(a Action, delta int) {
	switch a {
	case ActionApprove:
		s.pending.Approve += delta
	case ActionRemove:
		s.pending.Remove += delta
	case ActionSkip:
		s.pending.Skip += delta
	}
}

// RecountPending re-derives the pending counters from the item table. The
// maintained counters must always equal this.
func (s *State) RecountPending() PendingCounts {
	var p PendingCounts
	if !s.humanReview {
		return p
	}
	for _, it := range s.items {
		switch s.currentPendingAction(it) {
		case ActionApprove:
			p.Approve++
		case ActionRemove:
			p.Remove++
		case ActionSkip:
			p.Skip++
		}
	}
	return p
}

// MoveFocus advances or retreats the focus cursor along arrival order.
// No wrap: at either boundary the call is a no-op.
func (s *State) MoveFocus(d Direction) {
	if len(s.order) == 0 {
		return
	}
	switch d {
	case Next:
		if s.focus < len(s.order)-1 {
			s.focus++
		}
	case Previous:
		if s.focus > 0 {
			s.focus--
		}
	}
}

// Focus returns the index of the focused item, -1 when the table is empty.
func (s *State) Focus() int { return s.focus }

// FocusedItem returns the item under the cursor.
func (s *State) FocusedItem() (*Item, bool) {
	if s.focus < 0 || s.focus >= len(s.order) {
		return nil, false
	}
	return s.items[s.order[s.focus]], true
}

// ContextFor assembles the semantic snapshot sent with chat and
// reason-generation requests, from the item table rather than anything
// rendered.
func (s *State) ContextFor(number int) (protocol.ItemContext, error) {
	it, ok := s.items[number]
	if !ok {
		return protocol.ItemContext{}, fmt.Errorf("context for item %d: %w", number, ErrItemNotFound)
	}
	ctx := protocol.ItemContext{
		Author:      it.Author,
		Title:       it.Title,
		Content:     it.FullContent,
		Kind:        it.Kind,
		Subreddit:   s.subreddit,
		UserReports: it.UserReports,
		ModReports:  it.ModReports,
	}
	if ctx.Content == "" {
		ctx.Content = it.Content
	}
	if it.Decision.Phase != PhaseUnset {
		ctx.Action = string(it.Decision.Action)
		ctx.Reason = it.Decision.Reason
	}
	return ctx, nil
}

// BeginChat records the moderator's question, marks the chat surface
// waiting, and issues the correlation token the reply must echo.
func (s *State) BeginChat(number int, message string) (uint64, protocol.ItemContext, error) {
	ctx, err := s.ContextFor(number)
	if err != nil {
		return 0, protocol.ItemContext{}, err
	}
	it := s.items[number]
	it.Chat = append(it.Chat, ChatMessage{FromUser: true, Text: message, At: time.Now()})
	it.ChatWaiting = true
	s.nextToken++
	it.chatToken = s.nextToken
	return it.chatToken, ctx, nil
}

// DeliverChatResponse appends the analyst's reply. A reply whose token does
// not match the item's latest request is stale and dropped; the return value
// reports whether it was applied.
func (s *State) DeliverChatResponse(number int, token uint64, text string) bool {
	it, ok := s.items[number]
	if !ok || token != it.chatToken {
		return false
	}
	it.ChatWaiting = false
	it.Chat = append(it.Chat, ChatMessage{Text: text, At: time.Now()})
	return true
}

// DeliverChatError surfaces a failed chat request in the conversation.
func (s *State) DeliverChatError(number int, token uint64, errMsg string) bool {
	return s.DeliverChatResponse(number, token, "Error: "+errMsg)
}

// BeginReasonRequest marks the removal-reason surface waiting and issues
// its correlation token.
func (s *State) BeginReasonRequest(number int) (uint64, protocol.ItemContext, error) {
	ctx, err := s.ContextFor(number)
	if err != nil {
		return 0, protocol.ItemContext{}, err
	}
	it := s.items[number]
	it.ReasonWaiting = true
	s.nextToken++
	it.reasonToken = s.nextToken
	return it.reasonToken, ctx, nil
}

// DeliverReason fills the removal-reason draft. Stale tokens are dropped.
func (s *State) DeliverReason(number int, token uint64, reason string) bool {
	it, ok := s.items[number]
	if !ok || token != it.reasonToken {
		return false
	}
	it.ReasonWaiting = false
	it.ReasonDraft = reason
	return true
}

// DeliverReasonError surfaces a failed generation in the draft field.
func (s *State) DeliverReasonError(number int, token uint64, errMsg string) bool {
	return s.DeliverReason(number, token, "Error generating reason: "+errMsg)
}

// SetReasonDraft records a hand-edited removal reason.
func (s *State) SetReasonDraft(number int, text string) error {
	it, ok := s.items[number]
	if !ok {
		return fmt.Errorf("reason draft for item %d: %w", number, ErrItemNotFound)
	}
	it.ReasonDraft = text
	return nil
}
