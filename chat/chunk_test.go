package chat

import (
	"reflect"
	"testing"
	"time"
)

var testBase = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func timelineText(tl *Timeline) string {
	return tl.Text()
}

func TestAppendOrMergeTextConcatenationInvariant(t *testing.T) {
	tests := []struct {
		name       string
		cumulative []string
		want       string
	}{
		{
			name:       "single delivery",
			cumulative: []string{"Hello"},
			want:       "Hello",
		},
		{
			name:       "growing cumulative text",
			cumulative: []string{"Hel", "Hello", "Hello wor", "Hello world"},
			want:       "Hello world",
		},
		{
			name:       "repeated identical delivery",
			cumulative: []string{"Hello", "Hello", "Hello"},
			want:       "Hello",
		},
		{
			name:       "empty then content",
			cumulative: []string{"", "Hi"},
			want:       "Hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := NewTimeline(testBase)
			for _, c := range tt.cumulative {
				tl.AppendOrMergeText(c)
			}
			if got := timelineText(tl); got != tt.want {
				t.Errorf("text: got %q, want %q", got, tt.want)
			}
			// While only text exists, everything stays in one chunk.
			if tl.Len() > 1 {
				t.Errorf("expected a single leading text chunk, got %d chunks", tl.Len())
			}
		})
	}
}

func TestAppendOrMergeTextStaleDeliveryIsNoOp(t *testing.T) {
	tl := NewTimeline(testBase)
	tl.AppendOrMergeText("Let me check.")
	before := tl.Sorted()

	tl.AppendOrMergeText("Let me")  // shorter: stale
	tl.AppendOrMergeText("")        // empty: stale
	tl.AppendOrMergeText("Let me c") // still shorter

	after := tl.Sorted()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("stale delivery mutated the timeline:\nbefore %+v\nafter  %+v", before, after)
	}
	if got := tl.Text(); got != "Let me check." {
		t.Errorf("text regressed to %q", got)
	}
}

func TestTextSplitsAroundToolCall(t *testing.T) {
	tl := NewTimeline(testBase)
	tl.AppendOrMergeText("Let me check.")
	tl.UpsertToolStatus("c1", "search", StatusPreparing, nil, nil)
	tl.UpsertToolStatus("c1", "search", StatusCompleted, []byte(`"ok"`), nil)
	tl.AppendOrMergeText("Let me check.Done.")

	sorted := tl.Sorted()
	if len(sorted) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(sorted), sorted)
	}
	if sorted[0].Kind != ChunkText || sorted[0].Content != "Let me check." {
		t.Errorf("chunk 0: got %s %q", sorted[0].Kind, sorted[0].Content)
	}
	if sorted[1].Kind != ChunkToolStatus || sorted[1].CallID != "c1" || sorted[1].Status != StatusCompleted {
		t.Errorf("chunk 1: got %s call=%s status=%s", sorted[1].Kind, sorted[1].CallID, sorted[1].Status)
	}
	if sorted[2].Kind != ChunkText || sorted[2].Content != "Done." {
		t.Errorf("chunk 2: got %s %q", sorted[2].Kind, sorted[2].Content)
	}
	if got := tl.Text(); got != "Let me check.Done." {
		t.Errorf("concatenated text: got %q", got)
	}
}

func TestUpsertToolStatusPreservesCreationTimestamp(t *testing.T) {
	tl := NewTimeline(testBase)
	tl.AppendOrMergeText("Looking...")
	tl.UpsertToolStatus("c1", "search", StatusPreparing, nil, nil)

	var created time.Time
	for _, c := range tl.Sorted() {
		if c.Kind == ChunkToolStatus {
			created = c.Timestamp
		}
	}

	// More text arrives, then a late status update for the same call.
	tl.AppendOrMergeText("Looking... still")
	tl.UpsertToolStatus("c1", "search", StatusCompleted, []byte(`42`), nil)

	for _, c := range tl.Sorted() {
		if c.Kind != ChunkToolStatus {
			continue
		}
		if !c.Timestamp.Equal(created) {
			t.Errorf("timestamp changed on update: %v -> %v", created, c.Timestamp)
		}
		if c.Status != StatusCompleted {
			t.Errorf("status not updated: %s", c.Status)
		}
		if string(c.Result) != "42" {
			t.Errorf("result not updated: %s", c.Result)
		}
	}
	if tl.Len() != 3 {
		t.Errorf("expected one tool chunk per call id, got %d chunks", tl.Len())
	}
}

func TestSortedIsIdempotent(t *testing.T) {
	tl := NewTimeline(testBase)
	tl.AppendReasoning("thinking about it")
	tl.AppendOrMergeText("Answer part one.")
	tl.UpsertToolStatus("c1", "lookup", StatusExecuting, nil, nil)
	tl.AppendOrMergeText("Answer part one.And two.")

	first := tl.Sorted()
	second := tl.Sorted()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Sorted not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestSortedTieBreakByKindPriority(t *testing.T) {
	tl := NewTimeline(testBase)
	// Reasoning and the leading text chunk are both stamped at base;
	// reasoning must sort first.
	tl.AppendReasoning("hmm")
	tl.AppendOrMergeText("hi")

	sorted := tl.Sorted()
	if sorted[0].Kind != ChunkReasoning || sorted[1].Kind != ChunkText {
		t.Errorf("tie break order wrong: got [%s, %s]", sorted[0].Kind, sorted[1].Kind)
	}
}

func TestAppendReasoningMergesConsecutiveFragments(t *testing.T) {
	tl := NewTimeline(testBase)
	tl.AppendReasoning("first ")
	tl.AppendReasoning("second")
	if tl.Len() != 1 {
		t.Fatalf("expected merged reasoning chunk, got %d chunks", tl.Len())
	}
	if got := tl.Sorted()[0].Content; got != "first second" {
		t.Errorf("merged content: got %q", got)
	}

	// A text chunk in between starts a new reasoning chunk.
	tl.AppendOrMergeText("answer")
	tl.AppendReasoning("third")
	if tl.Len() != 3 {
		t.Errorf("expected 3 chunks after interleaved text, got %d", tl.Len())
	}
}

func TestOptimizeCoalescesAdjacentTextChunks(t *testing.T) {
	tl := NewTimeline(testBase)
	tl.AppendOrMergeText("a")
	tl.UpsertToolStatus("c1", "t", StatusCompleted, nil, nil)
	tl.AppendOrMergeText("ab")
	tl.UpsertToolStatus("c2", "t", StatusCompleted, nil, nil)
	tl.AppendOrMergeText("abc")

	before := tl.Text()
	tl.Optimize()
	if got := tl.Text(); got != before {
		t.Errorf("Optimize changed text: %q -> %q", before, got)
	}

	// Three text segments separated by tool chunks cannot merge further.
	if tl.Len() != 5 {
		t.Errorf("expected 5 chunks, got %d", tl.Len())
	}

	// Without intervening non-text chunks, segments collapse.
	tl2 := NewTimeline(testBase)
	tl2.Replace([]Chunk{
		{Kind: ChunkText, Content: "one ", Timestamp: testBase, Seq: 0},
		{Kind: ChunkText, Content: "two ", Timestamp: testBase.Add(time.Millisecond), Seq: 1},
		{Kind: ChunkText, Content: "three", Timestamp: testBase.Add(2 * time.Millisecond), Seq: 2},
	})
	tl2.Optimize()
	if tl2.Len() != 1 {
		t.Errorf("expected 1 coalesced chunk, got %d", tl2.Len())
	}
	if got := tl2.Text(); got != "one two three" {
		t.Errorf("coalesced text: got %q", got)
	}
}

func TestReplaceSupersedesIncrementalState(t *testing.T) {
	tl := NewTimeline(testBase)
	tl.AppendOrMergeText("Hello")
	tl.AppendOrMergeText("Hello world")

	tl.Replace([]Chunk{
		{Kind: ChunkText, Content: "Final answer", Timestamp: testBase, Seq: 0},
	})

	if got := tl.Text(); got != "Final answer" {
		t.Errorf("text after replace: got %q, want %q", got, "Final answer")
	}
	if tl.Len() != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", tl.Len())
	}
}
