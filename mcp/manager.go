// Package mcp connects Plan-A to MCP tool servers: the bundled notes tools
// plus any user-declared servers from config.toml. Servers run as stdio
// subprocesses or remote SSE/HTTP endpoints; their tools are namespaced as
// "serverID.toolName" and handed to the model layer.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"plana/config"
	"plana/storage"
)

type MCPManager struct {
	mu             sync.RWMutex
	config         *config.Config
	client         *Client
	currentSession *storage.Session
	activeServers  map[string]bool
	failedServers  map[string]error // Servers that failed to start (zombies, errors)
	dataDir        string
}

func NewMCPManager(cfg *config.Config, dataDir string) *MCPManager {
	return &MCPManager{
		config:        cfg,
		client:        NewClient(dataDir, cfg),
		activeServers: make(map[string]bool),
		failedServers: make(map[string]error),
		dataDir:       dataDir,
	}
}

func (m *MCPManager) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ToolsEnabled
}

func (m *MCPManager) SetSession(session *storage.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Servers keep running; GetTools() filters by session.EnabledTools
	m.currentSession = session

	return nil
}

// serverConfig materializes the launch configuration for one declared server,
// with session template variables substituted into the environment.
func (m *MCPManager) serverConfig(decl config.ToolServerConfig) ServerConfig {
	env := make(map[string]string, len(decl.Env))
	for k, v := range decl.Env {
		env[k] = v
	}
	if m.currentSession != nil {
		for k, v := range env {
			v = strings.ReplaceAll(v, "${SESSION_ID}", m.currentSession.ID)
			v = strings.ReplaceAll(v, "${SESSION_NAME}", m.currentSession.Name)
			v = strings.ReplaceAll(v, "${DATA_DIR}", m.dataDir)
			env[k] = v
		}
	}

	return ServerConfig{
		ID:        decl.ID,
		Command:   config.ExpandPath(decl.Command),
		Args:      decl.Args,
		Env:       env,
		ServerURL: decl.URL,
		AuthType:  decl.AuthType,
		Transport: decl.Transport,
	}
}

func (m *MCPManager) GetTools(ctx context.Context) ([]mcptypes.Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.config.ToolsEnabled {
		return nil, nil
	}

	if m.currentSession == nil {
		return nil, nil
	}

	serverIDs := m.enabledRunningServersLocked()
	if len(serverIDs) == 0 {
		return nil, nil
	}

	return m.client.GetTools(ctx, serverIDs)
}

func (m *MCPManager) enabledRunningServersLocked() []string {
	if m.currentSession == nil {
		return nil
	}

	var ids []string
	for _, serverID := range m.currentSession.EnabledTools {
		if m.activeServers[serverID] && m.failedServers[serverID] == nil {
			ids = append(ids, serverID)
		}
	}
	return ids
}

func (m *MCPManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		if err := m.client.Shutdown(ctx); err != nil {
			return err
		}
	}

	m.activeServers = make(map[string]bool)
	m.failedServers = make(map[string]error)
	m.currentSession = nil

	return nil
}

// ShutdownWithTracking attempts to shut down tool servers and returns the
// names of servers that did not respond before the deadline.
func (m *MCPManager) ShutdownWithTracking(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	activeNames := make([]string, 0, len(m.activeServers))
	for serverID := range m.activeServers {
		activeNames = append(activeNames, m.serverDisplayName(serverID))
	}
	m.mu.Unlock()

	if config.DebugLog != nil {
		if deadline, ok := ctx.Deadline(); ok {
			config.DebugLog.Printf("[MCP] ShutdownWithTracking: %d active servers, timeout in %v", len(activeNames), time.Until(deadline))
		}
	}

	// Run shutdown in a goroutine so a zombie process cannot block forever
	resultChan := make(chan error, 1)
	go func() {
		resultChan <- m.Shutdown(ctx)
	}()

	select {
	case err := <-resultChan:
		return []string{}, err
	case <-ctx.Done():
		// Shutdown goroutine still running; it is abandoned and all active
		// servers are reported as unresponsive
		return activeNames, ctx.Err()
	}
}

func (m *MCPManager) Restart(ctx context.Context) error {
	if err := m.Shutdown(ctx); err != nil {
		return err
	}

	return m.StartAllEnabledServers(ctx)
}

// GetActiveServerNames returns the display names of currently running servers
func (m *MCPManager) GetActiveServerNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.config.ToolsEnabled {
		return nil
	}

	var names []string
	for serverID, running := range m.activeServers {
		if running {
			names = append(names, m.serverDisplayName(serverID))
		}
	}

	return names
}

// serverDisplayName resolves a server id to its configured display name.
// Caller holds the lock.
func (m *MCPManager) serverDisplayName(serverID string) string {
	for _, decl := range m.config.ToolServers {
		if decl.ID == serverID && decl.Name != "" {
			return decl.Name
		}
	}
	return serverID
}

// StartAllEnabledServers starts every server enabled in config.toml. Called
// once on startup.
func (m *MCPManager) StartAllEnabledServers(ctx context.Context) error {
	if !m.config.ToolsEnabled {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] StartAllEnabledServers: Tools disabled in config, skipping")
		}
		return nil
	}

	// Collect servers to start with the mutex held briefly
	var toStart []config.ToolServerConfig
	m.mu.Lock()
	for _, decl := range m.config.ToolServers {
		if !decl.Enabled {
			continue
		}
		if m.activeServers[decl.ID] {
			continue
		}
		toStart = append(toStart, decl)
	}
	m.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] StartAllEnabledServers: Starting %d tool servers", len(toStart))
	}

	// Start servers WITHOUT holding the mutex (slow operation)
	for _, decl := range toStart {
		m.mu.RLock()
		serverCfg := m.serverConfig(decl)
		m.mu.RUnlock()

		if err := m.client.Start(ctx, serverCfg); err != nil {
			fmt.Printf("Warning: Failed to start tool server %s: %v\n", decl.ID, err)
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] StartAllEnabledServers: ERROR starting '%s': %v", decl.ID, err)
			}

			// Mark as both active AND failed so it shows up in shutdown as
			// unresponsive
			m.mu.Lock()
			m.activeServers[decl.ID] = true
			m.failedServers[decl.ID] = err
			m.mu.Unlock()
			continue
		}

		m.mu.Lock()
		m.activeServers[decl.ID] = true
		m.mu.Unlock()
	}

	return nil
}

// GetShortServerName extracts the short display name from a fully qualified
// server name.
// Examples:
//
//	"plana/notes" -> "notes"
//	"ihor-sokoliuk/mcp-searxng" -> "mcp-searxng"
//	"web-search" -> "web-search"
func GetShortServerName(fullName string) string {
	if idx := strings.LastIndex(fullName, "/"); idx != -1 {
		return fullName[idx+1:]
	}
	return fullName
}

// GetSessionEnabledToolNames returns short display names of the servers
// enabled for a session, for the title bar.
func (m *MCPManager) GetSessionEnabledToolNames(session *storage.Session) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.config.ToolsEnabled || session == nil {
		return nil
	}

	var names []string
	for _, serverID := range session.EnabledTools {
		names = append(names, GetShortServerName(m.serverDisplayName(serverID)))
	}

	return names
}

// HasUnavailableSessionServers reports whether any server enabled in the
// session is not actually running. Drives the warning indicator in the title
// bar.
func (m *MCPManager) HasUnavailableSessionServers(session *storage.Session) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session == nil || len(session.EnabledTools) == 0 {
		return false
	}

	if !m.config.ToolsEnabled {
		return true
	}

	for _, serverID := range session.EnabledTools {
		if !m.activeServers[serverID] || m.failedServers[serverID] != nil {
			return true
		}
	}

	return false
}

// StartServer starts a specific server (when the user enables it)
func (m *MCPManager) StartServer(ctx context.Context, serverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.config.ToolsEnabled {
		return nil
	}

	// A previously failed server may be retried. This can leave a zombie
	// process until exit, but zombies only occupy a PID table entry and are
	// reaped when the parent exits.
	if m.failedServers[serverID] != nil {
		delete(m.activeServers, serverID)
		delete(m.failedServers, serverID)
	}

	if m.activeServers[serverID] {
		return nil
	}

	var decl *config.ToolServerConfig
	for i := range m.config.ToolServers {
		if m.config.ToolServers[i].ID == serverID {
			decl = &m.config.ToolServers[i]
			break
		}
	}
	if decl == nil {
		return fmt.Errorf("tool server not configured: %s", serverID)
	}

	if err := m.client.Start(ctx, m.serverConfig(*decl)); err != nil {
		m.activeServers[serverID] = true
		m.failedServers[serverID] = err
		return fmt.Errorf("failed to start tool server: %w", err)
	}

	m.activeServers[serverID] = true

	return nil
}

// StopServer stops a specific server (when the user disables it)
func (m *MCPManager) StopServer(ctx context.Context, serverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeServers[serverID] {
		return nil
	}

	if err := m.client.Stop(ctx, serverID); err != nil {
		return fmt.Errorf("failed to stop tool server: %w", err)
	}

	delete(m.activeServers, serverID)
	delete(m.failedServers, serverID)

	return nil
}

// ExecuteTool executes a tool by namespaced name ("serverID.toolName")
func (m *MCPManager) ExecuteTool(ctx context.Context, toolName string, args map[string]any) (*mcptypes.CallToolResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.config.ToolsEnabled {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] SECURITY: ExecuteTool(%s) rejected - tools disabled", toolName)
		}
		return nil, fmt.Errorf("tools are disabled")
	}

	return m.client.CallTool(ctx, toolName, args)
}

// GetFailedServers returns a copy of the failed servers map
func (m *MCPManager) GetFailedServers() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failures := make(map[string]error, len(m.failedServers))
	for k, v := range m.failedServers {
		failures[k] = v
	}
	return failures
}
