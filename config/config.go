package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type OllamaConfig struct {
	Host         string `toml:"host"`
	DefaultModel string `toml:"default_model"`
}

// ServerConfig points the app at a notes backend. When URL is empty the app
// runs in direct mode and talks to providers itself.
type ServerConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key,omitempty"`
}

type ProviderConfig struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url,omitempty"`
}

// ToolServerConfig declares an MCP tool server in config.toml. Local servers
// set Command/Args, remote servers set URL plus Transport and AuthType.
type ToolServerConfig struct {
	ID        string            `toml:"id"`
	Name      string            `toml:"name,omitempty"`
	Command   string            `toml:"command,omitempty"`
	Args      []string          `toml:"args,omitempty"`
	URL       string            `toml:"url,omitempty"`
	Transport string            `toml:"transport,omitempty"`
	AuthType  string            `toml:"auth,omitempty"`
	Enabled   bool              `toml:"enabled"`
	Env       map[string]string `toml:"env,omitempty"`
}

type SecurityConfig struct {
	CredentialStorage string `toml:"credential_storage"`
	SSHKeyPath        string `toml:"ssh_key_path,omitempty"`
}

type UserConfig struct {
	Server              ServerConfig       `toml:"server"`
	Ollama              OllamaConfig       `toml:"ollama"`
	DefaultProvider     string             `toml:"default_provider,omitempty"`
	LastUsedProvider    string             `toml:"last_used_provider,omitempty"`
	DefaultSystemPrompt string             `toml:"default_system_prompt,omitempty"`
	ToolsEnabled        bool               `toml:"tools_enabled"`
	Providers           []ProviderConfig   `toml:"providers"`
	ToolServers         []ToolServerConfig `toml:"tool_servers"`
	Security            SecurityConfig     `toml:"security"`
}

type Config struct {
	DataDirectory       string
	ServerURL           string
	ServerAPIKey        string
	OllamaHost          string
	DefaultModel        string
	DefaultProvider     string
	LastUsedProvider    string
	DefaultSystemPrompt string
	ToolsEnabled        bool
	Providers           []ProviderConfig
	ToolServers         []ToolServerConfig
	Security            SecurityConfig
	CredentialStore     *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) OllamaURL() string {
	return c.OllamaHost
}

func (c *Config) Model() string {
	return c.DefaultModel
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// BackendConfigured reports whether a notes backend URL is set.
func (c *Config) BackendConfigured() bool {
	return c.ServerURL != ""
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("PLANA_OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
	if model := os.Getenv("PLANA_OLLAMA_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if dataDir := os.Getenv("PLANA_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if url := os.Getenv("PLANA_SERVER_URL"); url != "" {
		c.ServerURL = url
	}
	if token := os.Getenv("PLANA_SERVER_TOKEN"); token != "" {
		c.ServerAPIKey = token
	}
}

func CheckDebug() bool {
	debug := os.Getenv("PLANA_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: debug output can include prompt text
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (PLANA_DEBUG=%s) ===", os.Getenv("PLANA_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

func HasAllEnvVars() bool {
	return os.Getenv("PLANA_OLLAMA_HOST") != "" &&
		os.Getenv("PLANA_OLLAMA_MODEL") != "" &&
		os.Getenv("PLANA_DATA_DIR") != ""
}

func HasAnyEnvVar() bool {
	return os.Getenv("PLANA_OLLAMA_HOST") != "" ||
		os.Getenv("PLANA_OLLAMA_MODEL") != "" ||
		os.Getenv("PLANA_DATA_DIR") != ""
}

func GetMissingEnvVar() string {
	if os.Getenv("PLANA_OLLAMA_HOST") == "" {
		return "PLANA_OLLAMA_HOST"
	}
	if os.Getenv("PLANA_OLLAMA_MODEL") == "" {
		return "PLANA_OLLAMA_MODEL"
	}
	if os.Getenv("PLANA_DATA_DIR") == "" {
		return "PLANA_DATA_DIR"
	}
	return ""
}

// applyUserConfig copies user config fields onto the runtime Config.
func (c *Config) applyUserConfig(userCfg *UserConfig) {
	c.ServerURL = userCfg.Server.URL
	c.ServerAPIKey = userCfg.Server.APIKey
	c.OllamaHost = userCfg.Ollama.Host
	c.DefaultModel = userCfg.Ollama.DefaultModel
	c.DefaultProvider = userCfg.DefaultProvider
	c.LastUsedProvider = userCfg.LastUsedProvider
	c.DefaultSystemPrompt = userCfg.DefaultSystemPrompt
	c.ToolsEnabled = userCfg.ToolsEnabled
	c.Providers = userCfg.Providers
	c.ToolServers = userCfg.ToolServers
	c.Security = userCfg.Security
	if c.DefaultProvider == "" {
		c.DefaultProvider = "ollama"
	}
	if c.Security.CredentialStorage == "" {
		c.Security.CredentialStorage = string(SecurityPlainText)
	}
}

// Load reads settings.toml and config.toml, falling back to env vars when no
// settings file exists. A "passphrase required" error still returns the
// populated Config so callers can set the passphrase and retry the
// credential load.
func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:   "~/.local/share/plana",
		OllamaHost:      "http://localhost:11434",
		DefaultModel:    "llama3.1:latest",
		DefaultProvider: "ollama",
		Security:        SecurityConfig{CredentialStorage: string(SecurityPlainText)},
	}

	settingsPath := GetSettingsFilePath()

	if !FileExists(settingsPath) && HasAllEnvVars() {
		cfg.applyEnvOverrides()
	} else {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory

		userCfg, err := LoadUserConfig(cfg.DataDir())
		if err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
		cfg.applyUserConfig(userCfg)
		cfg.applyEnvOverrides()
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	if err := cfg.loadCredentials(dataDir); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// loadCredentials builds the credential store for the configured security
// method and loads API keys. Encrypted stores behind a passphrase-protected
// SSH key surface a "passphrase required" error for the caller to handle.
func (c *Config) loadCredentials(dataDir string) error {
	method := SecurityMethod(c.Security.CredentialStorage)
	sshKeyPath := ExpandPath(c.Security.SSHKeyPath)
	if method == SecuritySSHKey && sshKeyPath == "" {
		sshKeyPath = GetAppKeyPath()
	}

	c.CredentialStore = NewCredentialStore(method, sshKeyPath)
	if err := c.CredentialStore.Load(dataDir); err != nil {
		if strings.Contains(err.Error(), "passphrase") {
			return fmt.Errorf("passphrase required: %w", err)
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	// The backend token can live in the credential store instead of
	// config.toml
	if c.ServerAPIKey == "" {
		c.ServerAPIKey = c.CredentialStore.Get("server")
	}

	return nil
}
