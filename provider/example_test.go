package provider_test

import (
	"context"
	"fmt"
	"log"

	"plana/model"
	"plana/provider"
)

// ExampleNewProvider demonstrates creating an Ollama provider using the factory.
func ExampleNewProvider() {
	cfg := provider.Config{
		Type:    provider.ProviderTypeOllama,
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	}

	p, err := provider.NewProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Provider created: %T\n", p)
	// Output: Provider created: *provider.OllamaProvider
}

// ExampleNewOllamaProvider demonstrates creating an Ollama provider directly.
func ExampleNewOllamaProvider() {
	p, err := provider.NewOllamaProvider("http://localhost:11434", "llama3.1")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Current model: %s\n", p.GetModel())

	p.SetModel("llama3.2:latest")
	fmt.Printf("New model: %s\n", p.GetModel())

	// Output:
	// Current model: llama3.1
	// New model: llama3.2:latest
}

// ExampleOllamaProvider_Chat demonstrates basic chat without tools.
//
// Note: This example doesn't actually run because it requires a live Ollama
// server. It's provided for documentation purposes.
func ExampleOllamaProvider_Chat() {
	p, err := provider.NewOllamaProvider("http://localhost:11434", "llama3.1")
	if err != nil {
		log.Fatal(err)
	}

	messages := []model.Message{
		{Role: "user", Content: "Hello! How are you?"},
	}

	err = p.Chat(context.Background(), messages, func(delta model.StreamDelta) error {
		if len(delta.ToolCalls) > 0 {
			for _, call := range delta.ToolCalls {
				fmt.Printf("\nTool called: %s (%s)\n", call.Name, call.ID)
			}
			return nil
		}
		fmt.Print(delta.Content)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}

// ExampleConfig demonstrates different provider configurations.
func ExampleConfig() {
	ollamaCfg := provider.Config{
		Type:    provider.ProviderTypeOllama,
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	}

	anthropicCfg := provider.Config{
		Type:    provider.ProviderTypeAnthropic,
		BaseURL: "https://api.anthropic.com",
		Model:   "claude-sonnet-4-5-20250929",
		APIKey:  "sk-ant-...",
	}

	fmt.Printf("Ollama: %s\n", ollamaCfg.Type)
	fmt.Printf("Anthropic: %s\n", anthropicCfg.Type)

	// Output:
	// Ollama: ollama
	// Anthropic: anthropic
}
