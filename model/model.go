// Package model holds the application state and business logic of the Plan-A
// terminal client: the conversation turns, the streaming coordinator, and the
// commands that drive the backend agent or a direct LLM provider.
package model

import (
	"time"

	"plana/backend"
	"plana/chat"
	"plana/config"
	"plana/mcp"
	"plana/storage"
)

// Model holds the core application data and business logic state.
type Model struct {
	// Core dependencies
	Config         *config.Config
	Backend        *backend.Client
	Providers      map[string]Provider
	Provider       Provider
	MCPManager     *mcp.MCPManager
	SessionStorage *storage.SessionStorage
	SearchIndex    *storage.SearchIndex
	HistoryStore   *storage.HistoryStore

	// Conversation state
	Turns          []chat.Turn
	Coordinator    *chat.Coordinator
	Reconciler     *chat.Reconciler
	CurrentSession *storage.Session
	ConversationID int64

	// In-flight stream plumbing
	ActiveStream  *StreamHandle
	PendingPrompt string
	EditingTurn   int

	// Cloud model list cache
	ModelCache  map[string][]ModelInfo
	CacheExpiry map[string]time.Time

	// Runtime state (not UI)
	Streaming          bool
	SessionDirty       bool
	NeedsInitialRender bool
	Quitting           bool

	// Application metadata
	Version string
	License string
}

// NewModel creates a new Model with the given configuration.
func NewModel(cfg *config.Config, backendClient *backend.Client, sessionStorage *storage.SessionStorage, historyStore *storage.HistoryStore, lastSession *storage.Session, mcpManager *mcp.MCPManager, searchIndex *storage.SearchIndex, version, license string) *Model {
	history := chat.NewHistory()

	// Restore turns and committed history from the last session if available.
	var turns []chat.Turn
	needsRender := false
	conversationID := int64(0)
	if lastSession != nil {
		turns = storage.TurnsFromSession(lastSession)
		history.ReplaceAll(lastSession.History)
		conversationID = lastSession.ConversationID
		needsRender = len(turns) > 0

		// Sessions saved before history snapshots fall back to the local
		// exchange cache.
		if len(lastSession.History) == 0 && conversationID != 0 && historyStore != nil {
			if cached, err := historyStore.LoadConversation(conversationID); err == nil && len(cached) > 0 {
				history.ReplaceAll(cached)
			}
		}
	}

	m := &Model{
		Config:         cfg,
		Backend:        backendClient,
		SessionStorage: sessionStorage,
		HistoryStore:   historyStore,
		MCPManager:     mcpManager,
		Turns:          turns,
		Coordinator:    chat.NewCoordinator(history, time.Now),
		Reconciler:     chat.NewReconciler(history),
		CurrentSession: lastSession,
		ConversationID: conversationID,
		SearchIndex:    searchIndex,
		EditingTurn:    -1,

		ModelCache:  make(map[string][]ModelInfo),
		CacheExpiry: make(map[string]time.Time),

		NeedsInitialRender: needsRender,
		Version:            version,
		License:            license,
	}

	// Sync session with the MCP manager if both exist, so auto-loaded
	// sessions have tool context from the start.
	if mcpManager != nil && lastSession != nil {
		_ = mcpManager.SetSession(lastSession)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Model] NewModel: synced session '%s' with MCP manager (EnabledTools: %v)",
				lastSession.Name, lastSession.EnabledTools)
		}
	}

	return m
}

// History returns the committed conversation history.
func (m *Model) History() *chat.History {
	return m.Coordinator.History()
}

// DirectMode reports whether chat goes straight to an LLM provider instead of
// the Plan-A agent service.
func (m *Model) DirectMode() bool {
	return m.Backend == nil
}

// ActiveAgentTurn returns the in-flight agent turn for the given stream
// session, or nil when none matches. Events for finished or superseded
// sessions resolve to nil and are dropped.
func (m *Model) ActiveAgentTurn(sessionID string) *chat.Turn {
	for i := len(m.Turns) - 1; i >= 0; i-- {
		t := &m.Turns[i]
		if t.Role == chat.RoleAgent && t.AgentID == sessionID {
			return t
		}
	}
	return nil
}
