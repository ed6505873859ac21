package ui

import (
	"strings"

	appmodel "plana/model"
	"plana/provider"
)

// IsCurrentModel reports whether a model entry matches the active model name.
// Display names and internal names diverge for hosted providers, so both are
// checked: Ollama uses Name == InternalName, OpenRouter strips the org path
// from Name but keeps it in InternalName.
func IsCurrentModel(model appmodel.ModelInfo, currentModel string) bool {
	if model.InternalName == currentModel {
		return true
	}
	return model.Name == currentModel
}

// FindModelByName locates a model in the list using the same matching rules
// as IsCurrentModel. Returns -1 and nil when absent.
func FindModelByName(models []appmodel.ModelInfo, modelName string) (int, *appmodel.ModelInfo) {
	for i, model := range models {
		if IsCurrentModel(model, modelName) {
			return i, &model
		}
	}
	return -1, nil
}

// ModelSupportsTools reports whether a model can drive tool calls. Ollama
// has a curated list; Anthropic models all support tools; for OpenAI and
// OpenRouter we go by model family.
func ModelSupportsTools(model appmodel.ModelInfo) bool {
	switch model.Provider {
	case "ollama":
		return provider.ModelSupportsToolCalling(model.Name)

	case "anthropic":
		return true

	case "openai":
		name := strings.ToLower(model.InternalName)
		for _, prefix := range []string{"gpt-4", "gpt-3.5-turbo", "o1", "o3"} {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
		return false

	case "openrouter":
		name := strings.ToLower(model.InternalName)
		// Small models that do not handle tool schemas reliably.
		for _, fragment := range []string{"meta-llama/llama-3.2-1b", "meta-llama/llama-3.2-3b"} {
			if strings.Contains(name, fragment) {
				return false
			}
		}
		return true

	default:
		return false
	}
}
