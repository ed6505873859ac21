package provider

import (
	"plana/config"
	"plana/model"
)

// InitializeProviders creates all provider instances for the application.
//
// It creates the Ollama provider (always attempted, nil entry skipped for
// offline mode) plus every enabled cloud provider, loading API keys from the
// credential store. Failures are logged but never fatal; the app starts with
// whatever providers came up.
func InitializeProviders(cfg *config.Config) map[string]model.Provider {
	providers := make(map[string]model.Provider)

	ollamaProvider := initializeOllama(cfg)
	if ollamaProvider != nil {
		providers["ollama"] = ollamaProvider
		if config.Debug {
			config.DebugLog.Printf("[Provider] Initialized Ollama provider")
		}
	} else if config.Debug {
		config.DebugLog.Printf("[Provider] Ollama provider initialization failed (offline mode)")
	}

	for _, providerCfg := range cfg.Providers {
		if !providerCfg.Enabled {
			continue
		}

		apiKey := ""
		if cfg.CredentialStore != nil {
			apiKey = cfg.CredentialStore.Get(providerCfg.ID)
		}

		providerType := MapProviderIDToType(providerCfg.ID)

		p, err := NewProvider(Config{
			Type:    providerType,
			BaseURL: providerCfg.BaseURL,
			APIKey:  apiKey,
			Model:   "", // Set when the session loads
		})
		if err != nil {
			if config.Debug {
				config.DebugLog.Printf("[Provider] Warning: failed to initialize provider %s: %v", providerCfg.ID, err)
			}
			continue
		}

		providers[providerCfg.ID] = p
		if config.Debug {
			config.DebugLog.Printf("[Provider] Initialized provider: %s (type: %s)", providerCfg.ID, providerType)
		}
	}

	return providers
}

// initializeOllama creates the Ollama provider instance.
// Returns nil if initialization fails (allows offline mode).
func initializeOllama(cfg *config.Config) model.Provider {
	p, err := NewProvider(Config{
		Type:    ProviderTypeOllama,
		BaseURL: cfg.OllamaURL(),
		Model:   cfg.Model(),
	})
	if err != nil {
		if config.Debug {
			config.DebugLog.Printf("[Provider] Ollama provider creation failed: %v", err)
		}
		return nil
	}
	return p
}
