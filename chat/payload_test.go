package chat

import (
	"testing"
	"time"
)

func TestParseContentPlainText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "Just a normal answer."},
		{"json-ish but not a payload", `{"foo": "bar"}`},
		{"wrong type tag", `{"type":"other","interaction_flow":[]}`},
		{"partially streamed payload", `{"type":"agent_response","interaction_flow":[{"type":"te`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseContent(tt.raw, testBase)
			if got.Kind != ContentPlain {
				t.Errorf("kind: got %s, want plain", got.Kind)
			}
			if got.Text != tt.raw {
				t.Errorf("text mangled: got %q, want %q", got.Text, tt.raw)
			}
		})
	}
}

func TestParseContentStructuredPayload(t *testing.T) {
	raw := `{
		"type": "agent_response",
		"interaction_flow": [
			{"type": "reasoning", "content": "let me think", "timestamp": "2026-03-14T09:26:53Z"},
			{"type": "text", "content": "Checking now.", "timestamp": "2026-03-14T09:26:54Z"},
			{"type": "tool_call", "id": "c1", "name": "search", "status": "completed", "started_at": "2026-03-14T09:26:55Z", "result": "ok"},
			{"type": "text", "content": "Found it.", "timestamp": "2026-03-14T09:26:56Z"}
		]
	}`

	got := ParseContent(raw, testBase)
	if got.Kind != ContentStructured {
		t.Fatalf("kind: got %s, want structured", got.Kind)
	}
	if len(got.Chunks) != 4 {
		t.Fatalf("chunks: got %d, want 4", len(got.Chunks))
	}

	kinds := []string{ChunkReasoning, ChunkText, ChunkToolStatus, ChunkText}
	for i, want := range kinds {
		if got.Chunks[i].Kind != want {
			t.Errorf("chunk %d kind: got %s, want %s", i, got.Chunks[i].Kind, want)
		}
	}
	if got.Chunks[2].CallID != "c1" || got.Chunks[2].ToolName != "search" || got.Chunks[2].Status != StatusCompleted {
		t.Errorf("tool chunk: %+v", got.Chunks[2])
	}
	wantTS := time.Date(2026, 3, 14, 9, 26, 54, 0, time.UTC)
	if !got.Chunks[1].Timestamp.Equal(wantTS) {
		t.Errorf("provided timestamp not preserved: %v", got.Chunks[1].Timestamp)
	}
	// Text segment indexes follow payload order.
	if got.Chunks[1].Seq >= got.Chunks[3].Seq {
		t.Errorf("text seq order: %d then %d", got.Chunks[1].Seq, got.Chunks[3].Seq)
	}
}

func TestParseContentMissingTimestampsKeepSegmentOrder(t *testing.T) {
	raw := `{"type":"agent_response","interaction_flow":[` +
		`{"type":"text","content":"first"},` +
		`{"type":"tool_call","id":"c1","name":"t","status":"completed"},` +
		`{"type":"text","content":"second"}]}`

	got := ParseContent(raw, testBase)
	if got.Kind != ContentStructured {
		t.Fatalf("kind: got %s", got.Kind)
	}
	for i := 1; i < len(got.Chunks); i++ {
		if !got.Chunks[i].Timestamp.After(got.Chunks[i-1].Timestamp) {
			t.Errorf("synthesized timestamps not increasing at %d", i)
		}
	}
}
