package chat

import (
	"testing"
)

func newAgentTurn() *Turn {
	return &Turn{ID: "t1", Role: RoleAgent, CreatedAt: testBase, Typing: true}
}

// The scenario from the wire protocol: text, a tool call completing, then
// text resuming after it, with the final cumulative delivery carrying done.
func TestMergerFullScenario(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()

	events := []StreamEvent{
		{FullContent: "Let "},
		{FullContent: "Let me check."},
		{ToolStatus: &ToolStatus{Type: EventToolCallStart, ToolCallID: "c1", ToolName: "search"}},
		{ToolStatus: &ToolStatus{Type: EventToolCallCompleted, ToolCallID: "c1", Result: []byte(`"ok"`)}},
		{FullContent: "Let me check.Done.", Done: true},
	}
	for _, ev := range events {
		m.Apply(ev, turn)
	}

	sorted := m.Timeline().Sorted()
	if len(sorted) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(sorted), sorted)
	}
	if sorted[0].Kind != ChunkText || sorted[0].Content != "Let me check." {
		t.Errorf("chunk 0: %s %q", sorted[0].Kind, sorted[0].Content)
	}
	if sorted[1].Kind != ChunkToolStatus || sorted[1].Status != StatusCompleted {
		t.Errorf("chunk 1: %s %s", sorted[1].Kind, sorted[1].Status)
	}
	if sorted[2].Kind != ChunkText || sorted[2].Content != "Done." {
		t.Errorf("chunk 2: %s %q", sorted[2].Kind, sorted[2].Content)
	}

	if turn.Content != "Let me check.Done." {
		t.Errorf("turn content: %q", turn.Content)
	}
	if turn.Typing {
		t.Error("typing should be false after done")
	}

	// Tracker saw the same lifecycle.
	if got := m.Tracker().CompletedCount(); got != 1 {
		t.Errorf("tracker completed: %d", got)
	}
}

func TestMergerTextAppliedBeforeToolStatusInSameEvent(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()

	// One event carries both the text and the tool status: the tool chunk
	// must still be synthesized after the text it follows.
	m.Apply(StreamEvent{
		FullContent: "Let me check.",
		ToolStatus:  &ToolStatus{Type: EventToolCallStart, ToolCallID: "c1", ToolName: "search"},
	}, turn)

	sorted := m.Timeline().Sorted()
	if len(sorted) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(sorted))
	}
	if sorted[0].Kind != ChunkText || sorted[1].Kind != ChunkToolStatus {
		t.Errorf("order: [%s, %s], want [text, tool_status]", sorted[0].Kind, sorted[1].Kind)
	}
}

func TestMergerReasoningEvents(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()

	m.Apply(StreamEvent{ToolStatus: &ToolStatus{Type: EventReasoning, ReasoningContent: "considering "}}, turn)
	m.Apply(StreamEvent{ToolStatus: &ToolStatus{Type: EventReasoning, ReasoningContent: "options"}}, turn)
	m.Apply(StreamEvent{FullContent: "Answer."}, turn)

	sorted := m.Timeline().Sorted()
	if len(sorted) != 2 {
		t.Fatalf("expected merged reasoning + text, got %d chunks", len(sorted))
	}
	if sorted[0].Kind != ChunkReasoning || sorted[0].Content != "considering options" {
		t.Errorf("reasoning chunk: %s %q", sorted[0].Kind, sorted[0].Content)
	}
	if turn.Content != "Answer." {
		t.Errorf("reasoning leaked into displayed content: %q", turn.Content)
	}
}

func TestMergerToolsCompletedIsIgnored(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()

	m.Apply(StreamEvent{ToolStatus: &ToolStatus{Type: EventToolsCompleted}}, turn)
	m.Apply(StreamEvent{ToolStatus: &ToolStatus{Type: EventToolsCompleted, ToolCallID: "phantom", ToolName: "x"}}, turn)

	if m.Timeline().Len() != 0 {
		t.Errorf("tools_completed created timeline chunks: %d", m.Timeline().Len())
	}
	if len(m.Tracker().Calls()) != 0 {
		t.Errorf("tools_completed created tracked calls: %d", len(m.Tracker().Calls()))
	}
}

func TestMergerDeltaFallbackAccumulates(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()

	// No full_content: message.content carries increments.
	m.Apply(StreamEvent{Message: &EventMessage{Content: "Hel"}}, turn)
	m.Apply(StreamEvent{Message: &EventMessage{Content: "lo"}}, turn)

	if turn.Content != "Hello" {
		t.Errorf("accumulated content: %q", turn.Content)
	}
}

func TestMergerStaleFullContentDoesNotRegress(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()

	m.Apply(StreamEvent{FullContent: "Hello world"}, turn)
	m.Apply(StreamEvent{FullContent: "Hello"}, turn) // duplicate of an older frame

	if turn.Content != "Hello world" {
		t.Errorf("content regressed: %q", turn.Content)
	}
}

func TestMergerStructuredPayloadReplacesIncrementalState(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()

	m.Apply(StreamEvent{FullContent: "Hello"}, turn)
	m.Apply(StreamEvent{FullContent: "Hello world"}, turn)
	m.Apply(StreamEvent{
		FullContent: `{"type":"agent_response","interaction_flow":[{"type":"text","content":"Final answer"}]}`,
		Done:        true,
	}, turn)

	if turn.Content != "Final answer" {
		t.Errorf("content: got %q, want %q", turn.Content, "Final answer")
	}
	sorted := m.Timeline().Sorted()
	if len(sorted) != 1 || sorted[0].Kind != ChunkText {
		t.Errorf("timeline after replace: %+v", sorted)
	}
}

func TestMergerDropsEventsForCompletedTurn(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()
	m.Apply(StreamEvent{FullContent: "Answer.", Done: true}, turn)
	turn.Complete = true

	m.Apply(StreamEvent{FullContent: "Answer. More that must not land."}, turn)
	if turn.Content != "Answer." {
		t.Errorf("completed turn mutated: %q", turn.Content)
	}
}
