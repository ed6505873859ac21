package provider

import (
	"testing"

	"plana/model"
)

// Compile-time check that all providers satisfy model.Provider.
func TestProvidersImplementInterface(t *testing.T) {
	var _ model.Provider = (*OllamaProvider)(nil)
	var _ model.Provider = (*OpenAIProvider)(nil)
	var _ model.Provider = (*AnthropicProvider)(nil)
	var _ model.Provider = (*OpenRouterProvider)(nil)
}

func TestModelSupportsToolCalling(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"llama3.1:8b", true},
		{"llama3.2:3b", true},
		{"qwen2.5-coder:7b", true},
		{"mistral:latest", true},
		{"llama3:latest", false}, // original llama3 has no tool support
		{"gemma:2b", false},
		{"totally-unknown-model", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := ModelSupportsToolCalling(tt.model); got != tt.want {
				t.Errorf("ModelSupportsToolCalling(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestStripProviderPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"meta-llama/llama-3.2-90b-instruct", "llama-3.2-90b-instruct"},
		{"anthropic/claude-sonnet-4", "claude-sonnet-4"},
		{"no-prefix-model", "no-prefix-model"},
	}

	for _, tt := range tests {
		if got := stripProviderPrefix(tt.in); got != tt.want {
			t.Errorf("stripProviderPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertToolNamesForOpenRouter(t *testing.T) {
	tools := convertToolNamesForOpenRouter(nil)
	if len(tools) != 0 {
		t.Errorf("nil input: got %d tools", len(tools))
	}

	if got := convertToolNameFromOpenRouter("notes__search_notes"); got != "notes.search_notes" {
		t.Errorf("convertToolNameFromOpenRouter = %q", got)
	}
}
