package ui

import (
	"testing"

	appmodel "plana/model"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{"zero renders empty", 0, ""},
		{"bytes", 512, "512 B"},
		{"kilobytes", 2048, "2.0 KB"},
		{"gigabytes", 4 * 1024 * 1024 * 1024, "4.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSize(tt.bytes); got != tt.expected {
				t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.expected)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	p := &ProviderSettingsState{}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"empty", "", "(not set)"},
		{"short keys fully hidden", "abc123", "***"},
		{"long keys show edges", "sk-abcdefghijkl", "sk-********ijkl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.maskAPIKey(tt.key); got != tt.expected {
				t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestBoolStringConversions(t *testing.T) {
	if boolToString(true) != "true" || boolToString(false) != "false" {
		t.Error("boolToString mismatch")
	}
	if !stringToBool("true") {
		t.Error("stringToBool(true) should be true")
	}
	if stringToBool("false") || stringToBool("") || stringToBool("yes") {
		t.Error("only the literal string true maps to true")
	}
}

func TestIsCurrentModel(t *testing.T) {
	m := appmodel.ModelInfo{Name: "Llama 3.2 90B", InternalName: "meta-llama/llama-3.2-90b"}

	if !IsCurrentModel(m, "meta-llama/llama-3.2-90b") {
		t.Error("internal name should match")
	}
	if !IsCurrentModel(m, "Llama 3.2 90B") {
		t.Error("display name should match")
	}
	if IsCurrentModel(m, "gpt-4o") {
		t.Error("unrelated model should not match")
	}
}

func TestFindModelByName(t *testing.T) {
	models := []appmodel.ModelInfo{
		{Name: "llama3.1:latest", Provider: "ollama"},
		{Name: "Claude Sonnet", InternalName: "claude-sonnet-4", Provider: "anthropic"},
	}

	idx, m := FindModelByName(models, "claude-sonnet-4")
	if idx != 1 || m == nil || m.Provider != "anthropic" {
		t.Errorf("FindModelByName(internal) = %d, %+v", idx, m)
	}

	idx, m = FindModelByName(models, "llama3.1:latest")
	if idx != 0 || m == nil {
		t.Errorf("FindModelByName(display) = %d, %+v", idx, m)
	}

	idx, m = FindModelByName(models, "missing")
	if idx != -1 || m != nil {
		t.Errorf("missing model should return -1, nil; got %d, %+v", idx, m)
	}
}

func TestModelSupportsTools(t *testing.T) {
	tests := []struct {
		name     string
		model    appmodel.ModelInfo
		expected bool
	}{
		{"anthropic always", appmodel.ModelInfo{Name: "claude-sonnet-4", Provider: "anthropic"}, true},
		{"openai gpt-4", appmodel.ModelInfo{Name: "gpt-4o-mini", InternalName: "gpt-4o-mini", Provider: "openai"}, true},
		{"openai legacy", appmodel.ModelInfo{Name: "davinci-002", InternalName: "davinci-002", Provider: "openai"}, false},
		{"openrouter default", appmodel.ModelInfo{Name: "Qwen 2.5 72B", InternalName: "qwen/qwen-2.5-72b", Provider: "openrouter"}, true},
		{"openrouter tiny llama", appmodel.ModelInfo{Name: "Llama 3.2 1B", InternalName: "meta-llama/llama-3.2-1b-instruct", Provider: "openrouter"}, false},
		{"unknown provider", appmodel.ModelInfo{Name: "x", Provider: "other"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ModelSupportsTools(tt.model); got != tt.expected {
				t.Errorf("ModelSupportsTools(%s) = %v, want %v", tt.model.Name, got, tt.expected)
			}
		})
	}
}

func TestTruncateOneLine(t *testing.T) {
	if got := truncateOneLine("short", 10); got != "short" {
		t.Errorf("short string changed: %q", got)
	}
	got := truncateOneLine("a much longer line of text", 10)
	if len([]rune(got)) > 10 {
		t.Errorf("truncated string too long: %q", got)
	}
}

func TestWordWrap(t *testing.T) {
	wrapped := wordWrap("the quick brown fox jumps over the lazy dog", 10)
	for i, line := range splitLines(wrapped) {
		if len(line) > 10 {
			t.Errorf("line %d exceeds width: %q", i, line)
		}
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
