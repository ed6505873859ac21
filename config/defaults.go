package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/plana",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Ollama: OllamaConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
		DefaultProvider: "ollama",
		ToolsEnabled:    false,
		Security: SecurityConfig{
			CredentialStorage: string(SecurityPlainText),
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Plan-A System Configuration
# Location: ~/.config/plana/settings.toml
# This file uses TOML format: https://toml.io

# Directory where sessions and user config are stored
data_directory = "~/.local/share/plana"
`
}

func GenerateUserConfigTemplate() string {
	return `# Plan-A User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Provider used for new sessions: "ollama", "openrouter", "anthropic", "openai"
default_provider = "ollama"

# Default system prompt for new sessions (optional)
# Example: "You are a helpful note-taking assistant."
default_system_prompt = ""

# Tool servers (disabled by default)
# Enable to let the assistant call MCP tool servers declared below
tools_enabled = false

[server]
# Notes backend URL. Leave empty to run in direct mode where the app
# talks to model providers itself and keeps conversations local.
url = ""

# API key for the backend. Prefer storing it in the credential store
# (under the "server" id) over writing it here.
# api_key = ""

[ollama]
# Ollama server URL
host = "http://localhost:11434"

# Default model to use when starting a new session
default_model = "llama3.1:latest"

[security]
# How API keys and OAuth tokens are stored: "plaintext" or "ssh_key"
credential_storage = "plaintext"
# ssh_key_path = "~/.ssh/plana_ed25519"

# Cloud providers (optional). API keys live in the credential store.
# [[providers]]
# id = "anthropic"
# name = "Anthropic"
# enabled = false
# base_url = "https://api.anthropic.com"

# Tool servers (optional). Local servers run as stdio subprocesses,
# remote servers connect over SSE or streamable HTTP.
# [[tool_servers]]
# id = "notes"
# name = "Notes"
# command = "~/.local/bin/notes-mcp"
# args = ["--stdio"]
# enabled = false
#
# [[tool_servers]]
# id = "search"
# name = "Web Search"
# url = "https://mcp.example.com/sse"
# transport = "sse"
# auth = "oauth"
# enabled = false
`
}
