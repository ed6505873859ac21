package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"plana/chat"
	"plana/config"
	"plana/storage"
)

// FetchSessionList retrieves the list of saved sessions
func (m *Model) FetchSessionList() tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}
	store := m.SessionStorage
	return func() tea.Msg {
		sessions, err := store.List()
		return SessionsListMsg{
			Sessions: sessions,
			Err:      err,
		}
	}
}

// LoadSession loads a session by ID
func (m *Model) LoadSession(sessionID string) tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}

	// Reloading the current session needs no lock check of our own lock
	if m.CurrentSession != nil && m.CurrentSession.ID == sessionID {
		return func() tea.Msg {
			return SessionLoadedMsg{
				Session: m.CurrentSession,
				Err:     nil,
			}
		}
	}

	store := m.SessionStorage
	return func() tea.Msg {
		// Check if session is locked by another Plan-A instance
		isLocked, err := store.CheckSessionLock(sessionID)
		if err != nil {
			return SessionLoadedMsg{Session: nil, Err: err}
		}
		if isLocked {
			return SessionLoadedMsg{Session: nil, Err: fmt.Errorf("session_locked")}
		}

		session, err := store.Load(sessionID)
		if err != nil {
			return SessionLoadedMsg{Session: nil, Err: err}
		}

		_ = store.LockSession(sessionID)

		return SessionLoadedMsg{
			Session: session,
			Err:     err,
		}
	}
}

// ApplyLoadedSession swaps the model state over to a freshly loaded session:
// transcript, committed history, backend conversation binding, and MCP tool
// context.
func (m *Model) ApplyLoadedSession(session *storage.Session) {
	if m.CurrentSession != nil && m.SessionStorage != nil && m.CurrentSession.ID != session.ID {
		_ = m.SessionStorage.UnlockSession(m.CurrentSession.ID)
	}

	m.CurrentSession = session
	m.Turns = storage.TurnsFromSession(session)
	m.History().ReplaceAll(session.History)
	m.ConversationID = session.ConversationID
	m.SessionDirty = false
	m.NeedsInitialRender = len(m.Turns) > 0

	if m.MCPManager != nil {
		_ = m.MCPManager.SetSession(session)
	}
}

// SaveCurrentSession saves the current session to storage
func (m *Model) SaveCurrentSession() tea.Cmd {
	if m.SessionStorage == nil || m.CurrentSession == nil {
		return nil
	}

	m.CurrentSession.Turns = storage.TurnsForSession(m.Turns)
	m.CurrentSession.History = m.History().Entries()
	m.CurrentSession.ConversationID = m.ConversationID
	m.CurrentSession.UpdatedAt = time.Now()
	if m.Provider != nil {
		m.CurrentSession.Model = m.Provider.GetModel()
	}

	session := m.CurrentSession
	store := m.SessionStorage

	return func() tea.Msg {
		err := store.Save(session)
		if err == nil {
			store.SaveCurrentSessionID(session.ID)
		}
		return SessionSavedMsg{Err: err}
	}
}

// AutoSaveSession automatically saves the current session with an auto-generated name if needed
func (m *Model) AutoSaveSession() tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}

	if m.CurrentSession == nil {
		// Fallback - should rarely happen now
		firstUserMsg := m.firstUserTurnContent()

		m.CurrentSession = &storage.Session{
			ID:           "", // Let Save() generate UUID
			Name:         storage.GenerateSessionName(firstUserMsg),
			Model:        m.Config.DefaultModel,
			Provider:     m.Config.DefaultProvider,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
			EnabledTools: []string{},
			SystemPrompt: "",
		}

		m.SwitchToDefaultProvider()

		if m.MCPManager != nil {
			m.MCPManager.SetSession(m.CurrentSession)
		}
	} else if m.CurrentSession.Name == "New Session" && len(m.Turns) > 0 {
		// Auto-rename if still "New Session" and the conversation started
		if firstUserMsg := m.firstUserTurnContent(); firstUserMsg != "" {
			m.CurrentSession.Name = storage.GenerateSessionName(firstUserMsg)
		}
	}

	return m.SaveCurrentSession()
}

func (m *Model) firstUserTurnContent() string {
	for _, t := range m.Turns {
		if t.Role == chat.RoleUser {
			return t.Content
		}
	}
	return ""
}

// RenameSessionCmd renames a session and refreshes the session list
func (m *Model) RenameSessionCmd(sessionID, newName string) tea.Cmd {
	return func() tea.Msg {
		if m.SessionStorage == nil {
			return SessionRenamedMsg{Err: fmt.Errorf("session storage not initialized")}
		}

		if err := m.SessionStorage.RenameSession(sessionID, newName); err != nil {
			return SessionRenamedMsg{Err: err}
		}

		sessions, err := m.SessionStorage.List()
		if err != nil {
			return SessionRenamedMsg{Err: err}
		}

		return SessionsListMsg{Sessions: sessions, Err: nil}
	}
}

// ExportSessionCmd exports a session to a JSON file
func (m *Model) ExportSessionCmd(ctx context.Context, sessionID, exportPath string) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return SessionExportedMsg{Cancelled: true}
		default:
		}

		if m.SessionStorage == nil {
			return SessionExportedMsg{Err: fmt.Errorf("session storage not initialized")}
		}

		session, err := m.SessionStorage.Load(sessionID)
		if err != nil {
			return SessionExportedMsg{Err: err}
		}

		select {
		case <-ctx.Done():
			return SessionExportedMsg{Cancelled: true}
		default:
		}

		// Marshaling can be slow for large sessions
		data, err := json.MarshalIndent(session, "", "  ")
		if err != nil {
			return SessionExportedMsg{Err: err}
		}

		select {
		case <-ctx.Done():
			return SessionExportedMsg{Cancelled: true}
		default:
		}

		// 0700 - user-only access
		dir := filepath.Dir(exportPath)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return SessionExportedMsg{Err: err}
		}

		select {
		case <-ctx.Done():
			return SessionExportedMsg{Cancelled: true}
		default:
		}

		// 0600 - session exports contain sensitive conversation data
		if err := os.WriteFile(exportPath, data, 0600); err != nil {
			return SessionExportedMsg{Err: err}
		}

		return SessionExportedMsg{Path: exportPath}
	}
}

// ImportSessionCmd imports a session from a JSON file
func (m *Model) ImportSessionCmd(ctx context.Context, filePath string) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return SessionImportedMsg{Cancelled: true}
		default:
		}

		if m.SessionStorage == nil {
			return SessionImportedMsg{Err: fmt.Errorf("session storage not initialized")}
		}

		expandedPath := config.ExpandPath(filePath)

		data, err := os.ReadFile(expandedPath)
		if err != nil {
			return SessionImportedMsg{Err: fmt.Errorf("failed to read file: %w", err)}
		}

		select {
		case <-ctx.Done():
			return SessionImportedMsg{Cancelled: true}
		default:
		}

		var session storage.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return SessionImportedMsg{Err: fmt.Errorf("invalid session file: %w", err)}
		}

		if session.Name == "" {
			return SessionImportedMsg{Err: fmt.Errorf("invalid Session: missing name")}
		}
		if len(session.Turns) == 0 {
			return SessionImportedMsg{Err: fmt.Errorf("invalid Session: no messages")}
		}

		// Imported sessions get fresh identity; the backend conversation id
		// belongs to the exporting installation.
		session.ID = uuid.New().String()
		session.ConversationID = 0
		session.CreatedAt = time.Now()
		session.UpdatedAt = time.Now()

		select {
		case <-ctx.Done():
			return SessionImportedMsg{Cancelled: true}
		default:
		}

		if err := m.SessionStorage.Save(&session); err != nil {
			return SessionImportedMsg{Err: fmt.Errorf("failed to save Session: %w", err)}
		}

		return SessionImportedMsg{Session: &session}
	}
}

// CleanupPartialFileCmd removes a partial export file
func (m *Model) CleanupPartialFileCmd(filePath string) tea.Cmd {
	return func() tea.Msg {
		if err := os.Remove(filePath); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Failed to cleanup partial file: %v", err)
			}
		}
		return ExportCleanupDoneMsg{}
	}
}

// UpdateSessionPropertiesCmd updates session properties and refreshes the session list
func (m *Model) UpdateSessionPropertiesCmd(sessionID, newName, newSystemPrompt string, enabledTools []string) tea.Cmd {
	return func() tea.Msg {
		if m.SessionStorage == nil {
			return SessionsListMsg{Err: fmt.Errorf("session storage not initialized")}
		}

		session, err := m.SessionStorage.Load(sessionID)
		if err != nil {
			return SessionsListMsg{Err: err}
		}

		session.Name = newName
		session.SystemPrompt = newSystemPrompt
		session.EnabledTools = enabledTools

		if err := m.SessionStorage.Save(session); err != nil {
			return SessionsListMsg{Err: err}
		}

		if m.CurrentSession != nil && m.CurrentSession.ID == sessionID {
			m.CurrentSession.Name = newName
			m.CurrentSession.SystemPrompt = newSystemPrompt
			m.CurrentSession.EnabledTools = enabledTools
		}

		sessions, err := m.SessionStorage.List()
		if err != nil {
			return SessionsListMsg{Err: err}
		}

		return SessionsListMsg{Sessions: sessions, Err: nil}
	}
}

// CreateAndSaveNewSession creates a new session with the given properties and
// saves it to storage. Shared by the main-screen and session-manager flows.
func (m *Model) CreateAndSaveNewSession(name, systemPrompt string, enabledTools []string) (*storage.Session, error) {
	if name == "" {
		name = "New Session"
	}

	newSession := &storage.Session{
		ID:           "", // Let Save() generate UUID automatically
		Name:         name,
		Model:        m.Config.DefaultModel,
		Provider:     m.Config.DefaultProvider,
		Turns:        []chat.Turn{},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		EnabledTools: enabledTools,
		SystemPrompt: systemPrompt,
	}

	m.SwitchToDefaultProvider()

	if m.SessionStorage != nil {
		if err := m.SessionStorage.Save(newSession); err != nil {
			return nil, fmt.Errorf("failed to save new Session: %w", err)
		}
		if err := m.SessionStorage.SaveCurrentSessionID(newSession.ID); err != nil {
			return nil, fmt.Errorf("failed to save current session ID: %w", err)
		}
	}

	return newSession, nil
}

// ApplyDataDirSwitch applies a validated data directory switch. Pure
// business logic: destroys the MCP manager, swaps storage, clears the
// session. Provider re-initialization stays in the UI layer because of the
// provider→model import direction.
func (m *Model) ApplyDataDirSwitch(newDataDir string, passphrase string) error {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Model] Applying data dir switch to %s", newDataDir)
	}

	newStorage, err := storage.NewSessionStorage(newDataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize session storage: %w", err)
	}

	// The manager is tied to the old data dir
	if m.MCPManager != nil {
		m.MCPManager = nil
	}

	// Unlock current session and instance in the OLD data directory before
	// switching
	if m.CurrentSession != nil && m.SessionStorage != nil {
		_ = m.SessionStorage.UnlockSession(m.CurrentSession.ID)
	}
	if m.SessionStorage != nil {
		_ = m.SessionStorage.UnlockInstance()
	}

	m.SessionStorage = newStorage
	m.SearchIndex = storage.NewSearchIndex(newStorage)

	if err := newStorage.LockInstance(); err != nil {
		return fmt.Errorf("failed to lock new data directory: %w", err)
	}

	// Switching dirs clears the loaded session
	m.CurrentSession = nil
	m.Turns = nil
	m.History().ReplaceAll(nil)
	m.ConversationID = 0
	m.SessionDirty = false
	m.NeedsInitialRender = false

	m.ModelCache = make(map[string][]ModelInfo)
	m.CacheExpiry = make(map[string]time.Time)

	if config.Debug {
		config.InitDebugLog(m.Config.DataDir())
	}

	// Config owns model state, so reload it from the NEW data directory
	cfg, err := config.Load()
	if err != nil {
		if strings.Contains(err.Error(), "passphrase required") {
			if passphrase == "" {
				return fmt.Errorf("passphrase required: %w", err)
			}
			if cfg.CredentialStore != nil {
				cfg.CredentialStore.SetPassphrase(passphrase)
				if err := cfg.CredentialStore.Load(cfg.DataDir()); err != nil {
					return fmt.Errorf("failed to load credentials with passphrase: %w", err)
				}
			}
		} else {
			return fmt.Errorf("failed to reload config: %w", err)
		}
	}
	m.Config = cfg

	return nil
}
