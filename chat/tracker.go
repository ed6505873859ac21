package chat

import (
	"encoding/json"
	"time"
)

// ToolCall is the tracked state of one tool invocation, keyed by the call id
// the transport assigns. Repeated status pushes update status and payloads
// but never the creation timestamp, so ordering stays stable.
type ToolCall struct {
	ID        string
	Name      string
	Status    string
	Result    json.RawMessage
	Error     json.RawMessage
	StartedAt time.Time
}

// terminal reports whether the call reached a final state. Terminal calls
// ignore all further updates.
func (c *ToolCall) terminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusError
}

// Tracker maintains the set of known tool calls for one in-flight reply.
// It tracks the same events as the timeline's tool_status chunks but serves
// a different consumer: live status badges rather than transcript position.
//
// Per-call state is monotonic: preparing -> executing -> completed/error.
// The aggregate tools_completed event carries no per-call information and is
// recognized but never creates or mutates a call.
type Tracker struct {
	calls map[string]*ToolCall
	order []string
	now   func() time.Time
}

// NewTracker creates an empty tracker. The clock is injectable for tests.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		calls: make(map[string]*ToolCall),
		now:   now,
	}
}

// Update applies one tool status event. Both event shapes are accepted:
// explicit lifecycle events (tool_call_start etc.) and generic status pushes
// from the streaming path; both map onto the same per-call state machine.
// Events without a call id, unknown statuses, and updates to calls already
// in a terminal state are ignored.
func (t *Tracker) Update(ts *ToolStatus) {
	if ts == nil || ts.Type == EventToolsCompleted {
		return
	}
	status, ok := lifecycleStatus(ts.Type)
	if !ok {
		status = ts.Status
	}
	if !validStatus(status) || ts.ToolCallID == "" {
		return
	}

	call, exists := t.calls[ts.ToolCallID]
	if !exists {
		call = &ToolCall{
			ID:        ts.ToolCallID,
			Name:      ts.ToolName,
			StartedAt: t.now(),
		}
		t.calls[ts.ToolCallID] = call
		t.order = append(t.order, ts.ToolCallID)
	} else if call.terminal() {
		return
	}

	call.Status = status
	if call.Name == "" {
		call.Name = ts.ToolName
	}
	if ts.Result != nil {
		call.Result = ts.Result
	}
	if ts.Error != nil {
		call.Error = ts.Error
	}
}

// Calls returns the tracked calls in first-seen order.
func (t *Tracker) Calls() []ToolCall {
	out := make([]ToolCall, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.calls[id])
	}
	return out
}

// Get returns the tracked call for the given id, if any.
func (t *Tracker) Get(callID string) (ToolCall, bool) {
	call, ok := t.calls[callID]
	if !ok {
		return ToolCall{}, false
	}
	return *call, true
}

// CompletedCount returns how many calls finished successfully. Derived by a
// fresh scan, never cached.
func (t *Tracker) CompletedCount() int {
	n := 0
	for _, id := range t.order {
		if t.calls[id].Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Active reports whether any call is still preparing or executing.
func (t *Tracker) Active() bool {
	for _, id := range t.order {
		switch t.calls[id].Status {
		case StatusPreparing, StatusExecuting:
			return true
		}
	}
	return false
}

// Errored reports whether any call failed.
func (t *Tracker) Errored() bool {
	for _, id := range t.order {
		if t.calls[id].Status == StatusError {
			return true
		}
	}
	return false
}

// Reset drops all tracked calls, ready for the next reply.
func (t *Tracker) Reset() {
	t.calls = make(map[string]*ToolCall)
	t.order = nil
}
