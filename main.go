package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"plana/backend"
	"plana/config"
	"plana/mcp"
	appmodel "plana/model"
	"plana/provider"
	"plana/storage"
	"plana/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	// Validate environment variables first
	if config.HasAnyEnvVar() && !config.HasAllEnvVars() {
		missingVar := config.GetMissingEnvVar()
		errorMsg := fmt.Sprintf("Missing environment variable: %s\n\n"+
			"When using environment variables, all 3 must be set:\n"+
			"  • PLANA_OLLAMA_HOST\n"+
			"  • PLANA_OLLAMA_MODEL\n"+
			"  • PLANA_DATA_DIR\n\n"+
			"Set the missing variable(s) before launching Plan-A.",
			missingVar)

		showErrorModal("Configuration Error", errorMsg)
		os.Exit(0)
	}

	settingsPath := config.GetSettingsFilePath()
	isFirstRun := !config.FileExists(settingsPath)

	// Skip welcome wizard if all env vars are set
	if config.HasAllEnvVars() {
		isFirstRun = false
	}

	if isFirstRun {
		welcomeModel := ui.NewWelcomeModel()
		p := tea.NewProgram(
			welcomeModel,
			tea.WithAltScreen(),
		)

		finalModel, err := p.Run()
		if err != nil {
			fmt.Printf("Error running welcome wizard: %v\n", err)
			os.Exit(1)
		}

		if wm, ok := finalModel.(ui.WelcomeModel); ok && !wm.IsComplete() {
			os.Exit(0)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		// An encrypted credential store needs the passphrase before the
		// main UI starts.
		if cfg != nil && strings.Contains(err.Error(), "passphrase required") {
			if !promptForPassphrase(cfg) {
				os.Exit(0)
			}
		} else {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	// Clean up old tmp dir in cache directory (crash recovery)
	if err := config.CleanupTempDir(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("Warning: failed to cleanup old temp directory: %v", err)
	}

	// Create secure temp directory in cache (never synced to cloud)
	if err := config.CreateTempDir(); err != nil {
		fmt.Printf("Failed to create secure temp directory: %v\n", err)
		os.Exit(1)
	}

	// Ensure cleanup on exit
	defer func() {
		if err := config.CleanupTempDir(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to cleanup temp directory on exit: %v", err)
		}
	}()

	sessionStorage, err := storage.NewSessionStorage(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to initialize session storage: %v\n", err)
		os.Exit(1)
	}

	// Single-instance enforcement per data directory
	isLocked, runningPID, err := sessionStorage.CheckInstanceLock()
	if err != nil {
		fmt.Printf("Failed to check instance lock: %v\n", err)
		os.Exit(1)
	}
	if isLocked {
		lockedModal := ui.NewInstanceLockedModal(runningPID)
		p := tea.NewProgram(
			lockedModal,
			tea.WithAltScreen(),
		)

		finalModel, err := p.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		m, ok := finalModel.(ui.InstanceLockedModal)
		if !ok || !m.ForceDelete() {
			os.Exit(0)
		}

		// Stale lock confirmed dead by the user
		if err := sessionStorage.UnlockInstance(); err != nil {
			fmt.Printf("Failed to remove stale instance lock: %v\n", err)
			os.Exit(1)
		}
	}

	if err := sessionStorage.LockInstance(); err != nil {
		fmt.Printf("Failed to lock Plan-A instance: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := sessionStorage.UnlockInstance(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to unlock Plan-A instance: %v", err)
		}
	}()

	historyStore, err := storage.NewHistoryStore(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to initialize history store: %v\n", err)
		os.Exit(1)
	}
	defer historyStore.Close()

	searchIndex := storage.NewSearchIndex(sessionStorage)

	var backendClient *backend.Client
	if cfg.BackendConfigured() {
		backendClient, err = backend.NewClient(cfg.ServerURL, cfg.ServerAPIKey)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Warning: notes backend unavailable: %v", err)
			}
			backendClient = nil
		}
	}

	var mcpManager *mcp.MCPManager
	if cfg.ToolsEnabled {
		mcpManager = mcp.NewMCPManager(cfg, cfg.DataDir())
	}

	// Load last session with lock check
	var lastSession *storage.Session
	if lastSessionID, err := sessionStorage.LoadCurrentSessionID(); err == nil {
		isLocked, lockErr := sessionStorage.CheckSessionLock(lastSessionID)
		if lockErr == nil && !isLocked {
			lastSession, _ = sessionStorage.Load(lastSessionID)
			// Lock is acquired when setCurrentSession runs in the UI
		}
		// If locked: lastSession remains nil and a new session is created
	}

	dataModel := appmodel.NewModel(cfg, backendClient, sessionStorage, historyStore,
		lastSession, mcpManager, searchIndex, Version, License)
	dataModel.Providers = provider.InitializeProviders(cfg)
	activeID := cfg.LastUsedProvider
	if activeID == "" {
		activeID = cfg.DefaultProvider
	}
	if p, ok := dataModel.Providers[activeID]; ok {
		dataModel.Provider = p
	} else if p, ok := dataModel.Providers[cfg.DefaultProvider]; ok {
		dataModel.Provider = p
	}

	p := tea.NewProgram(
		ui.NewAppView(dataModel),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running Plan-A: %v\n", err)
		os.Exit(1)
	}
}

// promptForPassphrase runs the standalone passphrase program until the
// credentials decrypt or the user cancels. Returns false on cancel.
func promptForPassphrase(cfg *config.Config) bool {
	keyPath := config.ExpandPath(cfg.Security.SSHKeyPath)
	if keyPath == "" {
		keyPath = config.GetAppKeyPath()
	}

	for {
		modal := ui.NewPassphraseModal(keyPath)
		p := tea.NewProgram(modal, tea.WithAltScreen())

		finalModel, err := p.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}

		m, ok := finalModel.(ui.PassphraseModal)
		if !ok || m.IsCancelled() {
			return false
		}

		if err := ui.LoadCredentialsWithPassphrase(cfg, m.GetPassphrase()); err == nil {
			return true
		}
	}
}
