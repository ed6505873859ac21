package chat

import (
	"testing"
	"time"
)

func TestFinalizeOptimizesExistingTimeline(t *testing.T) {
	m := NewMerger(testBase)
	turn := newAgentTurn()
	m.Apply(StreamEvent{FullContent: "Let me check."}, turn)
	m.Apply(StreamEvent{ToolStatus: &ToolStatus{Type: EventToolCallCompleted, ToolCallID: "c1", ToolName: "search"}}, turn)
	m.Apply(StreamEvent{FullContent: "Let me check.Done.", Done: true}, turn)

	h := NewHistory()
	r := NewReconciler(h)
	res := r.Finalize(m, turn, "Summarize X")

	if !turn.Complete {
		t.Error("turn not marked complete")
	}
	if turn.Typing {
		t.Error("typing flag still set")
	}
	if turn.Content != "Let me check.Done." {
		t.Errorf("content: %q", turn.Content)
	}
	if len(turn.Chunks) != 3 {
		t.Errorf("frozen chunks: got %d, want 3", len(turn.Chunks))
	}
	if !res.NeedsRefresh {
		t.Error("a newly committed exchange needs an authoritative refresh for ids")
	}
	if h.Len() != 1 {
		t.Fatalf("history: %d entries", h.Len())
	}
	entry := h.Entries()[0]
	if entry.User != "Summarize X" || entry.Agent != "Let me check.Done." {
		t.Errorf("entry: %+v", entry)
	}
	if entry.UserMessageID != 0 || entry.AgentMessageID != 0 {
		t.Error("finalize must never assign ids")
	}
}

func TestFinalizeParsesRawWhenTimelineEmpty(t *testing.T) {
	t.Run("structured raw", func(t *testing.T) {
		m := NewMerger(testBase)
		turn := newAgentTurn()
		// Simulate a transport that only delivered the final payload.
		m.raw = `{"type":"agent_response","interaction_flow":[{"type":"text","content":"Final"}]}`

		r := NewReconciler(NewHistory())
		r.Finalize(m, turn, "q")
		if turn.Content != "Final" {
			t.Errorf("content: %q", turn.Content)
		}
	})

	t.Run("plain raw", func(t *testing.T) {
		m := NewMerger(testBase)
		turn := newAgentTurn()
		m.raw = "plain tail"

		r := NewReconciler(NewHistory())
		r.Finalize(m, turn, "q")
		if turn.Content != "plain tail" {
			t.Errorf("content: %q", turn.Content)
		}
		if len(turn.Chunks) != 1 || turn.Chunks[0].Kind != ChunkText {
			t.Errorf("chunks: %+v", turn.Chunks)
		}
	})

	t.Run("empty raw", func(t *testing.T) {
		m := NewMerger(testBase)
		turn := newAgentTurn()
		r := NewReconciler(NewHistory())
		r.Finalize(m, turn, "q")
		if turn.Content != "" || !turn.Complete {
			t.Errorf("turn: %+v", turn)
		}
	})
}

func TestHistoryAppendDeduplicates(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	h := NewHistory()
	e := HistoryEntry{User: "hi", Agent: "hello"}
	if !h.Append(e, ts) {
		t.Error("first append should add")
	}
	if h.Append(e, ts.Add(300*time.Millisecond)) {
		t.Error("identical pair within the same second appended twice")
	}
	if h.Len() != 1 {
		t.Errorf("history: %d entries, want 1", h.Len())
	}

	// A different exchange still appends.
	if !h.Append(HistoryEntry{User: "hi", Agent: "different"}, ts) {
		t.Error("distinct pair rejected")
	}
}

func TestHistoryAppendKeepsResentExchange(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	h := NewHistory()
	e := HistoryEntry{User: "add milk", Agent: "Added milk."}
	if !h.Append(e, ts) {
		t.Fatal("first append should add")
	}
	// Resending the same prompt a minute later is a real second exchange,
	// not a transport echo.
	if !h.Append(e, ts.Add(time.Minute)) {
		t.Error("identical exchange in a later second was dropped")
	}
	if h.Len() != 2 {
		t.Fatalf("history: %d entries, want 2", h.Len())
	}

	// Truncation forgets the dedup key along with the entries.
	h.TruncateTo(0)
	if !h.Append(e, ts.Add(time.Minute)) {
		t.Error("append after truncate deduped against discarded entry")
	}
}

func TestHistoryResolveIndexPriority(t *testing.T) {
	h := NewHistory()
	h.ReplaceAll([]HistoryEntry{
		{User: "first", Agent: "a", UserMessageID: 11},
		{User: "same prompt", Agent: "b", UserMessageID: 12},
		{User: "same prompt", Agent: "c", UserMessageID: 13},
	})

	tests := []struct {
		name    string
		id      int64
		content string
		want    int
		ok      bool
	}{
		{"by persisted id", 12, "same prompt", 1, true},
		{"by content, newest wins", 0, "same prompt", 2, true},
		{"positional fallback", 99, "unseen", 2, true},
		{"nothing to match", 0, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.ResolveIndex(tt.id, tt.content)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("ResolveIndex(%d, %q) = %d,%v want %d,%v", tt.id, tt.content, got, ok, tt.want, tt.ok)
			}
		})
	}

	empty := NewHistory()
	if _, ok := empty.ResolveIndex(1, "x"); ok {
		t.Error("empty history must not resolve")
	}
}

func TestHistoryTruncateTo(t *testing.T) {
	h := NewHistory()
	h.ReplaceAll([]HistoryEntry{
		{User: "turn0", Agent: "a"},
		{User: "turn1", Agent: "b"},
		{User: "turn2", Agent: "c"},
	})
	h.TruncateTo(1)
	if h.Len() != 1 {
		t.Fatalf("after truncate: %d entries", h.Len())
	}
	if h.Entries()[0].User != "turn0" {
		t.Errorf("kept wrong entry: %+v", h.Entries()[0])
	}

	h.TruncateTo(-1)
	if h.Len() != 0 {
		t.Errorf("negative index should clear: %d", h.Len())
	}
}

func TestDedupKeyBucketsTimestampToSecond(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 100, time.UTC)
	sameBucket := ts.Add(500 * time.Millisecond)
	nextBucket := ts.Add(time.Second)

	if DedupKey(RoleAgent, "x", ts) != DedupKey(RoleAgent, "x", sameBucket) {
		t.Error("keys within the same second should match")
	}
	if DedupKey(RoleAgent, "x", ts) == DedupKey(RoleAgent, "x", nextBucket) {
		t.Error("keys across seconds should differ")
	}
	if DedupKey(RoleUser, "x", ts) == DedupKey(RoleAgent, "x", ts) {
		t.Error("role must be part of the key")
	}
}
