// Package chat implements the streaming reply engine for the Plan-A assistant.
//
// While an agent reply is in flight the transport pushes a sequence of
// StreamEvents: cumulative text, tool-call lifecycle updates, and reasoning
// fragments. The types in this package turn that stream into a stable,
// chronologically ordered transcript:
//
//   - Timeline holds the typed content chunks of one reply and keeps them
//     ordered even when the transport delivers events slightly out of sequence.
//   - Tracker follows each tool call's lifecycle for live status display.
//   - Merger is the single entry point the transport feeds; it classifies
//     events and routes them to the timeline and tracker.
//   - Reconciler finalizes a reply into an immutable committed turn and
//     deduplicates it against persisted history.
//   - Coordinator runs the edit-and-rerun workflow: truncate history, cancel
//     any in-flight stream, and attach a fresh one.
//
// Everything here is pure data transformation: no I/O, no goroutines, no
// locks. All mutation happens on the UI event loop (bubbletea's Update), so
// the only hazard is interleaving of distinct flows, which the Coordinator's
// phase machine serializes.
package chat

import "encoding/json"

// Tool status event types delivered inside StreamEvent.ToolStatus.
const (
	EventToolCallStart     = "tool_call_start"
	EventToolCallExecuting = "tool_call_executing"
	EventToolCallCompleted = "tool_call_completed"
	EventToolCallError     = "tool_call_error"
	EventToolsCompleted    = "tools_completed"
	EventReasoning         = "reasoning_content"
)

// Tool call statuses. Generic status pushes use these directly; the explicit
// lifecycle events above map onto the same four states.
const (
	StatusPreparing = "preparing"
	StatusExecuting = "executing"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// StreamEvent is one update pushed by the transport while a reply streams.
// Text arrives as the cumulative content so far (FullContent); Message.Content
// is an incremental fallback used by transports that only send deltas.
type StreamEvent struct {
	FullContent    string        `json:"full_content,omitempty"`
	Message        *EventMessage `json:"message,omitempty"`
	Done           bool          `json:"done"`
	ConversationID int64         `json:"conversation_id,omitempty"`
	ToolStatus     *ToolStatus   `json:"tool_status,omitempty"`
}

// EventMessage carries incremental content for transports without
// cumulative-text support.
type EventMessage struct {
	Content string `json:"content"`
}

// ToolStatus describes a tool-call lifecycle update or a reasoning fragment.
type ToolStatus struct {
	Type             string          `json:"type"`
	ToolCallID       string          `json:"tool_call_id,omitempty"`
	ToolName         string          `json:"tool_name,omitempty"`
	Status           string          `json:"status,omitempty"`
	Result           json.RawMessage `json:"result,omitempty"`
	Error            json.RawMessage `json:"error,omitempty"`
	ReasoningContent string          `json:"reasoning_content,omitempty"`
}

// lifecycleStatus maps an explicit lifecycle event type to the per-call
// status it implies. Generic status pushes pass through unchanged.
func lifecycleStatus(eventType string) (string, bool) {
	switch eventType {
	case EventToolCallStart:
		return StatusPreparing, true
	case EventToolCallExecuting:
		return StatusExecuting, true
	case EventToolCallCompleted:
		return StatusCompleted, true
	case EventToolCallError:
		return StatusError, true
	}
	return "", false
}

// validStatus reports whether s is one of the four recognized call states.
func validStatus(s string) bool {
	switch s {
	case StatusPreparing, StatusExecuting, StatusCompleted, StatusError:
		return true
	}
	return false
}
