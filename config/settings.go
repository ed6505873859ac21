package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Two files make up the configuration: settings.toml in the XDG config
// directory only points at the data directory, and config.toml inside the
// data directory holds everything else. Both are written 0600.

// LoadSystemConfig reads settings.toml, creating the commented default file
// on first run.
func LoadSystemConfig() (*SystemConfig, error) {
	cfg := DefaultSystemConfig()
	path := GetSettingsFilePath()
	if !FileExists(path) {
		if err := CreateDefaultSystemConfig(); err != nil {
			return nil, fmt.Errorf("failed to create system config: %w", err)
		}
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}
	return cfg, nil
}

// SystemConfigExists reports whether settings.toml is present, without the
// create-on-missing behavior of LoadSystemConfig. Used by the first-run
// check.
func SystemConfigExists() bool {
	return FileExists(GetSettingsFilePath())
}

// LoadUserConfig reads config.toml from the data directory, creating the
// commented default file when missing.
func LoadUserConfig(dataDir string) (*UserConfig, error) {
	cfg := DefaultUserConfig()
	path := filepath.Join(dataDir, "config.toml")
	if !FileExists(path) {
		if err := CreateDefaultUserConfig(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create user config: %w", err)
		}
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	normalizeUserConfig(cfg)
	return cfg, nil
}

// LoadUserConfigFromPath reads a user config from an explicit file path.
// A missing file returns nil without error; the settings screen uses this
// to probe a candidate data directory before switching to it.
func LoadUserConfigFromPath(configPath string) (*UserConfig, error) {
	if !FileExists(configPath) {
		return nil, nil
	}
	cfg := &UserConfig{}
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	normalizeUserConfig(cfg)
	return cfg, nil
}

// normalizeUserConfig tidies URL-shaped fields so the rest of the app can
// append paths without double slashes and compare values without trailing
// slash mismatches.
func normalizeUserConfig(cfg *UserConfig) {
	cfg.Server.URL = strings.TrimRight(strings.TrimSpace(cfg.Server.URL), "/")
	cfg.Ollama.Host = strings.TrimRight(strings.TrimSpace(cfg.Ollama.Host), "/")
}

// SaveSystemConfig writes settings.toml, creating the config directory when
// needed.
func SaveSystemConfig(cfg *SystemConfig) error {
	if err := EnsureDir(GetConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := encodeTOMLFile(GetSettingsFilePath(), cfg); err != nil {
		return fmt.Errorf("failed to write system config: %w", err)
	}
	return nil
}

// SaveUserConfig writes config.toml into the data directory. The server API
// token normally lives in the credential store, not here, but a token set in
// the config survives a round trip.
func SaveUserConfig(cfg *UserConfig, dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	normalizeUserConfig(cfg)
	if err := encodeTOMLFile(filepath.Join(dataDir, "config.toml"), cfg); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}

// encodeTOMLFile marshals v into path with owner-only permissions. Config
// files can carry a server token, so 0600 always.
func encodeTOMLFile(path string, v any) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(v)
}

// CreateDefaultSystemConfig writes the commented settings.toml template.
// Existing files are left alone.
func CreateDefaultSystemConfig() error {
	if err := EnsureDir(GetConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeTemplateOnce(GetSettingsFilePath(), GenerateSystemConfigTemplate())
}

// CreateDefaultUserConfig writes the commented config.toml template into the
// data directory. Existing files are left alone.
func CreateDefaultUserConfig(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return writeTemplateOnce(filepath.Join(dataDir, "config.toml"), GenerateUserConfigTemplate())
}

func writeTemplateOnce(path, content string) error {
	if FileExists(path) {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config template: %w", err)
	}
	return nil
}
