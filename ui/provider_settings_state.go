package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"plana/config"
)

// ProviderSettingsState backs the provider configuration sub-screen: one tab
// per LLM provider plus a tab for the notes backend, each with its own
// host/API-key/enabled fields.
type ProviderSettingsState struct {
	visible bool

	selectedProviderID string

	selectedFieldIdx int
	editMode         bool
	editInput        textinput.Model

	// Edited values for ALL tabs, keyed by provider ID. Nothing touches disk
	// until Alt+Enter saves the whole map.
	currentFieldsMap map[string][]ProviderField

	hasChanges  bool
	confirmExit bool
	saveError   string
}

// Tab order for h/l navigation.
var providerTabs = []string{"ollama", "openrouter", "openai", "anthropic", "server"}

var providerNames = map[string]string{
	"ollama":     "Ollama",
	"openrouter": "OpenRouter",
	"openai":     "OpenAI",
	"anthropic":  "Anthropic",
	"server":     "Backend",
}

type ProviderFieldType int

const (
	ProviderFieldTypeHost ProviderFieldType = iota
	ProviderFieldTypeURL
	ProviderFieldTypeAPIKey
	ProviderFieldTypeEnabled
)

type ProviderField struct {
	Label string
	Value string
	Type  ProviderFieldType
}

func (p *ProviderSettingsState) getProviderFields(providerID string, cfg *config.Config) []ProviderField {
	switch providerID {
	case "ollama":
		return []ProviderField{
			{Label: "Ollama Host", Value: cfg.OllamaHost, Type: ProviderFieldTypeHost},
			{Label: "Enabled", Value: p.getProviderEnabled(cfg, "ollama"), Type: ProviderFieldTypeEnabled},
		}
	case "openrouter", "anthropic", "openai":
		apiKey := ""
		if cfg.CredentialStore != nil {
			apiKey = cfg.CredentialStore.Get(providerID)
		}
		return []ProviderField{
			{Label: "API Key", Value: p.maskAPIKey(apiKey), Type: ProviderFieldTypeAPIKey},
			{Label: "Enabled", Value: p.getProviderEnabled(cfg, providerID), Type: ProviderFieldTypeEnabled},
		}
	case "server":
		token := cfg.ServerAPIKey
		if token == "" && cfg.CredentialStore != nil {
			token = cfg.CredentialStore.Get("server")
		}
		return []ProviderField{
			{Label: "Server URL", Value: cfg.ServerURL, Type: ProviderFieldTypeURL},
			{Label: "API Token", Value: p.maskAPIKey(token), Type: ProviderFieldTypeAPIKey},
		}
	default:
		return []ProviderField{}
	}
}

func (p *ProviderSettingsState) getProviderEnabled(cfg *config.Config, providerID string) string {
	for _, prov := range cfg.Providers {
		if prov.ID == providerID {
			if prov.Enabled {
				return "true"
			}
			return "false"
		}
	}

	// Old configs have no [[providers]] entries; Ollama defaults on.
	if len(cfg.Providers) == 0 && providerID == "ollama" {
		return "true"
	}

	return "false"
}

func (p *ProviderSettingsState) maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) < 8 {
		return "***"
	}
	return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
}
