package provider

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"plana/config"
	"plana/model"
)

// PingProviderMsg is sent when a provider ping completes.
type PingProviderMsg struct {
	ProviderID string
	Valid      bool
	Err        error
}

// SingleProviderModelsMsg is sent when models are fetched from one provider.
type SingleProviderModelsMsg struct {
	ProviderID string
	Models     []model.ModelInfo
	Err        error
}

// PingProvider validates a provider's credentials by calling Ping().
// Used by settings to validate API keys before fetching models.
func PingProvider(providerID, baseURL, apiKey string) tea.Cmd {
	return func() tea.Msg {
		p, err := NewProvider(Config{
			Type:    MapProviderIDToType(providerID),
			BaseURL: baseURL,
			APIKey:  apiKey,
			Model:   "",
		})
		if err != nil {
			return PingProviderMsg{
				ProviderID: providerID,
				Valid:      false,
				Err:        fmt.Errorf("failed to create provider: %w", err),
			}
		}

		if err := p.Ping(context.Background()); err != nil {
			return PingProviderMsg{
				ProviderID: providerID,
				Valid:      false,
				Err:        fmt.Errorf("connection failed: %w", err),
			}
		}

		if config.Debug {
			config.DebugLog.Printf("[Provider] Provider %s ping successful", providerID)
		}

		return PingProviderMsg{ProviderID: providerID, Valid: true}
	}
}

// FetchSingleProviderModels fetches the model list from one provider.
func FetchSingleProviderModels(providerID, baseURL, apiKey, ollamaURL string) tea.Cmd {
	return func() tea.Msg {
		url := baseURL
		if providerID == "ollama" {
			url = ollamaURL
		}

		p, err := NewProvider(Config{
			Type:    MapProviderIDToType(providerID),
			BaseURL: url,
			APIKey:  apiKey,
			Model:   "",
		})
		if err != nil {
			return SingleProviderModelsMsg{ProviderID: providerID, Err: err}
		}

		models, err := p.ListModels(context.Background())
		if err != nil {
			return SingleProviderModelsMsg{ProviderID: providerID, Err: err}
		}

		if config.Debug {
			config.DebugLog.Printf("[Provider] Fetched %d models from provider %s", len(models), providerID)
		}

		return SingleProviderModelsMsg{ProviderID: providerID, Models: models}
	}
}
