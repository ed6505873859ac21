// Package provider implements direct LLM access for the assistant.
//
// Plan-A normally talks to its own agent service, but the client can also
// drive a model directly (local Ollama, or cloud APIs via OpenAI, Anthropic
// and OpenRouter). Each implementation satisfies model.Provider and streams
// provider-agnostic deltas; the model layer normalizes those deltas into the
// stream events the chat package consumes.
//
// # Type Conversions
//
// The provider layer handles all conversions between the model layer's
// provider-agnostic types and provider-specific SDK types. See conversions.go
// for the Ollama message and tool call conversions; OpenAI and Anthropic
// conversions live next to their providers.
//
// # Usage
//
//	cfg := provider.Config{
//	    Type:    provider.ProviderTypeOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model:   "llama3.1",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    // handle error
//	}
//	err = p.Chat(ctx, messages, callback)
package provider

// Note: The Provider interface, StreamCallback and ModelInfo are defined in
// the model package (model/provider.go) to avoid import cycles. This package
// implements model.Provider.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // For cloud providers (unused for Ollama)
}
