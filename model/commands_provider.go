package model

import (
	"context"
	"fmt"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"plana/config"
)

// getModelsFromProvider fetches models with caching for cloud providers
func (m *Model) getModelsFromProvider(providerID string, providerClient Provider) ([]ModelInfo, error) {
	ctx := context.Background()

	switch providerID {
	case "ollama":
		// Ollama: always fetch fresh (local, fast, free)
		models, err := providerClient.ListModels(ctx)
		if err != nil {
			return nil, err
		}

		for i := range models {
			models[i].Provider = "ollama"
			if models[i].InternalName == "" {
				models[i].InternalName = models[i].Name
			}
		}

		return models, nil

	default:
		// Cloud providers: use cache if valid
		if cached, ok := m.ModelCache[providerID]; ok {
			if time.Now().Before(m.CacheExpiry[providerID]) {
				if config.Debug {
					config.DebugLog.Printf("[Model] Using cached models for provider %s", providerID)
				}
				return cached, nil
			}
		}

		models, err := providerClient.ListModels(ctx)
		if err != nil {
			return nil, err
		}

		// Cache for 1 hour
		m.ModelCache[providerID] = models
		m.CacheExpiry[providerID] = time.Now().Add(1 * time.Hour)

		if config.Debug {
			config.DebugLog.Printf("[Model] Fetched and cached %d models for provider %s", len(models), providerID)
		}

		return models, nil
	}
}

// AggregateAllModels fetches and aggregates models from all enabled providers
func (m *Model) AggregateAllModels() ([]ModelInfo, error) {
	var allModels []ModelInfo

	for providerID, providerClient := range m.Providers {
		models, err := m.getModelsFromProvider(providerID, providerClient)
		if err != nil {
			// Log but don't fail - allow showing models from other providers
			if config.Debug {
				config.DebugLog.Printf("Warning: failed to fetch models from %s: %v", providerID, err)
			}
			continue
		}
		allModels = append(allModels, models...)
	}

	sort.Slice(allModels, func(i, j int) bool {
		return allModels[i].Name < allModels[j].Name
	})

	return allModels, nil
}

// FetchAllModels retrieves models from all enabled providers
// showSelector: whether to auto-show model selector after fetch (user-initiated vs background)
func (m *Model) FetchAllModels(showSelector bool) tea.Cmd {
	return func() tea.Msg {
		models, err := m.AggregateAllModels()
		return ModelsListMsg{
			Models:       models,
			Err:          err,
			ShowSelector: showSelector,
		}
	}
}

// ClearModelCache clears the model cache for a specific provider or all providers
func (m *Model) ClearModelCache(providerID string) {
	if providerID == "" {
		m.ModelCache = make(map[string][]ModelInfo)
		m.CacheExpiry = make(map[string]time.Time)
		if config.Debug {
			config.DebugLog.Printf("[Model] Cleared all model caches")
		}
		return
	}

	delete(m.ModelCache, providerID)
	delete(m.CacheExpiry, providerID)
	if config.Debug {
		config.DebugLog.Printf("[Model] Cleared model cache for provider %s", providerID)
	}
}

// CanSendMessage checks if the current session's provider is enabled
func (m *Model) CanSendMessage() (bool, string) {
	if m.CurrentSession == nil {
		return false, "No session loaded"
	}

	sessionProvider := m.CurrentSession.Provider
	if sessionProvider == "" {
		sessionProvider = "ollama" // Default for migrated sessions
	}

	if _, ok := m.Providers[sessionProvider]; !ok {
		return false, fmt.Sprintf(
			"⚠️ This provider (%s) is disabled. You cannot send messages. "+
				"You can view your session or switch to a model with an active provider.",
			sessionProvider,
		)
	}

	return true, ""
}

// SwitchModel switches the current session to use a different model and provider.
// Updates session.Model with the InternalName (full API name like
// "qwen/qwen3-coder:free"), session.Provider, and the active provider
// instance, and marks the session dirty for auto-save.
func (m *Model) SwitchModel(modelInfo ModelInfo) tea.Cmd {
	if m.CurrentSession != nil {
		m.CurrentSession.Model = modelInfo.InternalName
		m.CurrentSession.Provider = modelInfo.Provider
		m.SessionDirty = true
	}

	if m.Config.LastUsedProvider != modelInfo.Provider {
		m.Config.LastUsedProvider = modelInfo.Provider

		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] Updated last_used_provider: %s", modelInfo.Provider)
		}

		// Config auto-save happens on app exit; saving here would block the
		// UI on every model switch.
	}

	provider, ok := m.Providers[modelInfo.Provider]
	if !ok {
		// Fallback: use current provider (should not happen in normal operation)
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] WARNING: Provider '%s' not found for model '%s', using fallback",
				modelInfo.Provider, modelInfo.Name)
		}
		m.Provider.SetModel(modelInfo.InternalName)
		return nil
	}

	m.Provider = provider
	provider.SetModel(modelInfo.InternalName)

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Model] Switched to model '%s' (provider: %s, internal: %s)",
			modelInfo.Name, modelInfo.Provider, modelInfo.InternalName)
	}

	return nil
}

// SwitchToDefaultProvider switches the active provider to the configured
// default. Called when creating new sessions so m.Provider matches the
// session's provider from the start.
func (m *Model) SwitchToDefaultProvider() {
	provider, ok := m.Providers[m.Config.DefaultProvider]
	if !ok {
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] WARNING: Default provider '%s' not found, using fallback",
				m.Config.DefaultProvider)
		}
		m.Provider.SetModel(m.Config.DefaultModel)
		return
	}

	m.Provider = provider
	m.Provider.SetModel(m.Config.DefaultModel)

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Model] Switched to default provider '%s' with model '%s'",
			m.Config.DefaultProvider, m.Config.DefaultModel)
	}
}
