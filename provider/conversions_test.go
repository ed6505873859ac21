package provider

import (
	"testing"

	"plana/model"

	"github.com/ollama/ollama/api"
)

func TestConvertToOllamaMessages(t *testing.T) {
	input := []model.Message{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
	}

	result := ConvertToOllamaMessages(input)
	if len(result) != 2 {
		t.Fatalf("length mismatch: got %d, want 2", len(result))
	}
	for i, msg := range result {
		if msg.Role != input[i].Role || msg.Content != input[i].Content {
			t.Errorf("message %d: got {%q, %q}, want {%q, %q}",
				i, msg.Role, msg.Content, input[i].Role, input[i].Content)
		}
	}
}

func TestConvertToProviderToolCalls(t *testing.T) {
	tests := []struct {
		name      string
		input     []api.ToolCall
		wantNames []string
	}{
		{
			name:  "nil slice",
			input: nil,
		},
		{
			name:  "empty slice",
			input: []api.ToolCall{},
		},
		{
			name: "tool calls get generated ids",
			input: []api.ToolCall{
				{Function: api.ToolCallFunction{
					Name:      "search_notes",
					Arguments: map[string]any{"query": "roadmap"},
				}},
				{Function: api.ToolCallFunction{
					Name:      "read_note",
					Arguments: map[string]any{"id": "n1"},
				}},
			},
			wantNames: []string{"search_notes", "read_note"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertToProviderToolCalls(tt.input)

			if len(result) != len(tt.wantNames) {
				t.Fatalf("length mismatch: got %d, want %d", len(result), len(tt.wantNames))
			}
			seen := map[string]bool{}
			for i, call := range result {
				if call.Name != tt.wantNames[i] {
					t.Errorf("tool call %d name: got %q, want %q", i, call.Name, tt.wantNames[i])
				}
				if call.ID == "" {
					t.Errorf("tool call %d: missing generated id", i)
				}
				if seen[call.ID] {
					t.Errorf("tool call %d: duplicate id %q", i, call.ID)
				}
				seen[call.ID] = true
			}
		})
	}
}

func TestConvertFromProviderToolCalls(t *testing.T) {
	input := []model.ToolCall{
		{ID: "c1", Name: "read_file", Arguments: map[string]any{"path": "/tmp/test.txt"}},
	}

	result := ConvertFromProviderToolCalls(input)
	if len(result) != 1 {
		t.Fatalf("length mismatch: got %d, want 1", len(result))
	}
	if result[0].Function.Name != "read_file" {
		t.Errorf("name: got %q, want read_file", result[0].Function.Name)
	}
	if len(result[0].Function.Arguments) != 1 {
		t.Errorf("arguments length: got %d, want 1", len(result[0].Function.Arguments))
	}

	if got := ConvertFromProviderToolCalls(nil); got != nil {
		t.Errorf("nil input: got %v, want nil", got)
	}
}

func TestParseToolArguments(t *testing.T) {
	args := ParseToolArguments(`{"query":"meeting notes","limit":5}`)
	if args["query"] != "meeting notes" {
		t.Errorf("query = %v", args["query"])
	}

	// Malformed JSON yields an empty map, not nil
	bad := ParseToolArguments(`{broken`)
	if bad == nil || len(bad) != 0 {
		t.Errorf("malformed input: got %v, want empty map", bad)
	}
}
