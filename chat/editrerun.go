package chat

import (
	"errors"
	"time"
)

// Coordinator phases. Only one edit may be active at a time; the phase
// machine serializes the whole edit-and-rerun cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEditing
	PhaseSubmitting
	PhaseStreaming
	PhaseCommitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseStreaming:
		return "streaming"
	case PhaseCommitting:
		return "committing"
	}
	return "unknown"
}

// Errors surfaced to the user by the edit workflow. None of them mutate
// state.
var (
	ErrEditInProgress   = errors.New("another edit is already in progress")
	ErrNoActiveEdit     = errors.New("no edit in progress")
	ErrEditUnresolvable = errors.New("could not locate the edited message in history")
	ErrStreamInFlight   = errors.New("a reply is already streaming for this conversation")
)

// EditRequest is the outbound edit-and-rerun request: regenerate from the
// given exchange index with the edited prompt.
type EditRequest struct {
	MessageIndex int    `json:"message_index"`
	Content      string `json:"content"`
	Stream       bool   `json:"stream"`
	Rerun        bool   `json:"rerun"`
}

// Coordinator orchestrates editing a previously sent prompt and
// regenerating its reply: resolve the exchange in history, truncate
// everything from it onward, cancel any in-flight stream, and open a fresh
// session tagged as an edit rerun. It also owns ordinary send sessions so
// that a second stream can never race the active one for the same turn -
// the ambiguous case is rejected, not resolved by guesswork.
type Coordinator struct {
	phase   Phase
	history *History
	active  *StreamSession
	now     func() time.Time

	editID      int64  // persisted user-message id of the turn being edited
	editContent string // original prompt, for content-match fallback
}

// NewCoordinator creates a coordinator over the given history. The clock is
// injectable for tests.
func NewCoordinator(history *History, now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{history: history, now: now}
}

// Phase returns the current workflow phase.
func (c *Coordinator) Phase() Phase { return c.phase }

// Active returns the session currently receiving events, or nil.
func (c *Coordinator) Active() *StreamSession { return c.active }

// History returns the conversation history the coordinator truncates.
func (c *Coordinator) History() *History { return c.history }

// SessionFor returns the active session when the given id belongs to it.
// Events from cancelled or superseded sessions resolve to nil and are
// dropped by the caller.
func (c *Coordinator) SessionFor(sessionID string) *StreamSession {
	if c.active.Accepts(sessionID) {
		return c.active
	}
	return nil
}

// StartSend opens a session for an ordinary new prompt. Rejected while a
// stream is in flight or an edit is underway.
func (c *Coordinator) StartSend() (*StreamSession, error) {
	if c.phase != PhaseIdle {
		return nil, ErrEditInProgress
	}
	if c.active != nil && !c.active.Done() {
		return nil, ErrStreamInFlight
	}
	c.active = NewStreamSession(c.now(), false)
	return c.active, nil
}

// BeginEdit enters the editing phase for the exchange identified by the
// persisted user-message id (zero when unknown) and original prompt text.
// Starting a second edit while one is active is rejected; nothing mutates.
func (c *Coordinator) BeginEdit(userMessageID int64, originalContent string) error {
	if c.phase != PhaseIdle {
		return ErrEditInProgress
	}
	c.phase = PhaseEditing
	c.editID = userMessageID
	c.editContent = originalContent
	return nil
}

// CancelEdit abandons an edit before submission.
func (c *Coordinator) CancelEdit() {
	if c.phase == PhaseEditing {
		c.phase = PhaseIdle
		c.editID = 0
		c.editContent = ""
	}
}

// Submit resolves the edited exchange's position, truncates history to it,
// cancels any in-flight stream, and opens a fresh edit-rerun session. The
// returned request is what the caller sends to the transport. When the
// position cannot be resolved the edit stays open and nothing is truncated.
func (c *Coordinator) Submit(edited string) (EditRequest, *StreamSession, error) {
	if c.phase != PhaseEditing {
		return EditRequest{}, nil, ErrNoActiveEdit
	}
	index, ok := c.history.ResolveIndex(c.editID, c.editContent)
	if !ok {
		return EditRequest{}, nil, ErrEditUnresolvable
	}
	c.phase = PhaseSubmitting
	c.history.TruncateTo(index)
	if c.active != nil && !c.active.Done() {
		c.active.Cancel()
		c.active.Finish()
	}
	c.active = NewStreamSession(c.now(), true)
	return EditRequest{
		MessageIndex: index,
		Content:      edited,
		Stream:       true,
		Rerun:        true,
	}, c.active, nil
}

// StreamStarted records that the transport attached and events are flowing.
func (c *Coordinator) StreamStarted() {
	if c.phase == PhaseSubmitting {
		c.phase = PhaseStreaming
	}
}

// Commit closes the cycle after the reply was finalized and returns the
// coordinator to idle.
func (c *Coordinator) Commit() {
	if c.active != nil {
		c.active.Finish()
	}
	c.active = nil
	c.phase = PhaseIdle
	c.editID = 0
	c.editContent = ""
}

// Stop aborts the active stream on user request. It reports whether any
// text accumulated: if so the caller finalizes the partial reply instead of
// discarding it and requests a best-effort save before going idle.
func (c *Coordinator) Stop() (partial bool) {
	if c.active == nil || c.active.Done() {
		return false
	}
	c.active.Cancel()
	partial = c.active.Merger.Raw() != "" || !c.active.Merger.Timeline().Empty()
	return partial
}
