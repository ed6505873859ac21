package provider_test

import (
	"context"
	"testing"
	"time"

	"plana/model"
	"plana/provider/testutil"
)

// TestProviderContract exercises the contract all providers must satisfy,
// using the mock as the reference implementation. Real providers need a live
// endpoint and are covered by their own constructor tests.
func TestProviderContract(t *testing.T) {
	tests := []struct {
		name     string
		provider model.Provider
	}{
		{"Mock", testutil.NewMockProvider("test-model")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Run("BasicChat", func(t *testing.T) {
				testProviderBasicChat(t, tt.provider)
			})
			t.Run("ChatWithTools", func(t *testing.T) {
				testProviderChatWithTools(t, tt.provider)
			})
			t.Run("ModelManagement", func(t *testing.T) {
				testProviderModelManagement(t, tt.provider)
			})
			t.Run("HealthCheck", func(t *testing.T) {
				testProviderHealthCheck(t, tt.provider)
			})
		})
	}
}

func testProviderBasicChat(t *testing.T, p model.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages := testutil.SingleUserMessage("Hello")
	var received string

	err := p.Chat(ctx, messages, func(delta model.StreamDelta) error {
		received += delta.Content
		return nil
	})
	if err != nil {
		t.Errorf("Chat() error = %v", err)
	}
	if received == "" {
		t.Error("Chat() did not receive any content")
	}
}

func testProviderChatWithTools(t *testing.T, p model.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages := testutil.SingleUserMessage("Find my launch notes")
	tools := testutil.TestMCPTools()
	var received string

	err := p.ChatWithTools(ctx, messages, tools, func(delta model.StreamDelta) error {
		received += delta.Content
		return nil
	})
	if err != nil {
		t.Errorf("ChatWithTools() error = %v", err)
	}
	if received == "" {
		t.Error("ChatWithTools() did not receive any content")
	}
}

func testProviderModelManagement(t *testing.T, p model.Provider) {
	if p.GetModel() == "" {
		t.Error("GetModel() returned empty string")
	}

	newModel := "new-test-model"
	p.SetModel(newModel)
	if got := p.GetModel(); got != newModel {
		t.Errorf("After SetModel(%s), GetModel() = %s", newModel, got)
	}
}

func testProviderHealthCheck(t *testing.T, p model.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestMockProviderImplementsInterface(t *testing.T) {
	var _ model.Provider = (*testutil.MockProvider)(nil)
}
