package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUserConfigRoundTrip(t *testing.T) {
	dataDir := t.TempDir()

	cfg := &UserConfig{
		Server: ServerConfig{
			URL:    "https://notes.example.com",
			APIKey: "",
		},
		Ollama: OllamaConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
		DefaultProvider:     "ollama",
		DefaultSystemPrompt: "Be brief.",
		ToolsEnabled:        true,
		ToolServers: []ToolServerConfig{
			{ID: "filesystem", Name: "Filesystem", Command: "mcp-fs", Enabled: true},
		},
	}

	if err := SaveUserConfig(cfg, dataDir); err != nil {
		t.Fatalf("SaveUserConfig failed: %v", err)
	}

	loaded, err := LoadUserConfig(dataDir)
	if err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}

	if loaded.Server.URL != cfg.Server.URL {
		t.Errorf("Server.URL = %q, want %q", loaded.Server.URL, cfg.Server.URL)
	}
	if loaded.Ollama.DefaultModel != cfg.Ollama.DefaultModel {
		t.Errorf("DefaultModel = %q, want %q", loaded.Ollama.DefaultModel, cfg.Ollama.DefaultModel)
	}
	if loaded.DefaultSystemPrompt != "Be brief." {
		t.Errorf("DefaultSystemPrompt = %q", loaded.DefaultSystemPrompt)
	}
	if !loaded.ToolsEnabled {
		t.Error("ToolsEnabled lost on round trip")
	}
	if len(loaded.ToolServers) != 1 || loaded.ToolServers[0].ID != "filesystem" {
		t.Errorf("ToolServers = %+v", loaded.ToolServers)
	}
}

func TestLoadUserConfigCreatesDefault(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadUserConfig returned nil config")
	}
	if !FileExists(filepath.Join(dataDir, "config.toml")) {
		t.Error("LoadUserConfig should write the default template")
	}
}

func TestLoadUserConfigFromPath(t *testing.T) {
	dataDir := t.TempDir()

	// Missing file is not an error
	cfg, err := LoadUserConfigFromPath(filepath.Join(dataDir, "config.toml"))
	if err != nil {
		t.Fatalf("LoadUserConfigFromPath failed: %v", err)
	}
	if cfg != nil {
		t.Error("missing config should return nil, nil")
	}

	content := `
default_provider = "anthropic"

[ollama]
host = "http://remote:11434"
`
	path := filepath.Join(dataDir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err = LoadUserConfigFromPath(path)
	if err != nil {
		t.Fatalf("LoadUserConfigFromPath failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("config should load")
	}
	if cfg.DefaultProvider != "anthropic" {
		t.Errorf("DefaultProvider = %q, want anthropic", cfg.DefaultProvider)
	}
	if cfg.Ollama.Host != "http://remote:11434" {
		t.Errorf("Ollama.Host = %q", cfg.Ollama.Host)
	}
}

func TestUserConfigNormalizesURLs(t *testing.T) {
	dataDir := t.TempDir()
	content := `
[server]
url = "https://notes.example.com/ "

[ollama]
host = "http://localhost:11434/"
`
	path := filepath.Join(dataDir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}
	if cfg.Server.URL != "https://notes.example.com" {
		t.Errorf("Server.URL = %q, want trailing slash and whitespace trimmed", cfg.Server.URL)
	}
	if cfg.Ollama.Host != "http://localhost:11434" {
		t.Errorf("Ollama.Host = %q, want trailing slash trimmed", cfg.Ollama.Host)
	}
}

func TestUserConfigFilePermissions(t *testing.T) {
	dataDir := t.TempDir()

	if err := SaveUserConfig(DefaultUserConfig(), dataDir); err != nil {
		t.Fatalf("SaveUserConfig failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dataDir, "config.toml"))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}
}
