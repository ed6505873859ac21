package model

import (
	"context"

	"plana/config"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts direct LLM access (Ollama, OpenAI, Anthropic, OpenRouter)
// using provider-agnostic types from the model layer.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations can import model, and model can use the
// Provider interface without importing the provider package.
type Provider interface {
	// Chat sends messages and streams response deltas back via callback.
	Chat(ctx context.Context, messages []Message, callback StreamCallback) error

	// ChatWithTools sends messages with available tools and streams responses.
	ChatWithTools(ctx context.Context, messages []Message, tools []mcptypes.Tool, callback StreamCallback) error

	// ListModels returns available models for this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the currently selected model name (InternalName for API calls).
	GetModel() string

	// GetDisplayName returns the model name formatted for UI display.
	// For OpenRouter, this strips the vendor prefix.
	GetDisplayName() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// StreamDelta is one increment of a streamed provider response. Content and
// Reasoning are deltas, not cumulative text. ToolCalls is set on the delta
// that completes a tool call request.
type StreamDelta struct {
	Content   string
	Reasoning string
	ToolCalls []ToolCall
}

// StreamCallback is called for each delta of a streamed response.
type StreamCallback func(delta StreamDelta) error

// ToolCall is a provider-agnostic tool invocation request. ID is the
// provider-assigned call id, or a generated one when the API has none.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ModelInfo describes one model offered by a provider.
type ModelInfo struct {
	Name         string // Display name (vendor prefix stripped for OpenRouter)
	Size         int64
	Provider     string // Provider ID: "ollama", "openrouter", "openai", "anthropic"
	InternalName string // Full API name (e.g. "meta-llama/llama-3.2-90b" for OpenRouter)
}

// ShouldBlockOnOllamaValidation returns true if Ollama validation errors should
// prevent saving settings. Ollama must be reachable only when it is the default
// provider and enabled; cloud-only users can save settings while it is down.
func ShouldBlockOnOllamaValidation(cfg *config.Config) bool {
	if cfg.DefaultProvider != "ollama" && cfg.DefaultProvider != "" {
		return false
	}
	for _, p := range cfg.Providers {
		if p.ID == "ollama" && !p.Enabled {
			return false
		}
	}
	return true
}
