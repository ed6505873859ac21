package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"plana/chat"
)

// Session represents a chat session. Turns keep the full chunk timelines so
// reloading a session restores tool badges and reasoning sections, not just
// flat text. History mirrors the committed exchanges the Plan-A service
// knows about, including server-assigned message ids.
type Session struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Model          string              `json:"model"`
	Provider       string              `json:"provider,omitempty"`
	ConversationID int64               `json:"conversation_id,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Turns          []chat.Turn         `json:"turns"`
	History        []chat.HistoryEntry `json:"history,omitempty"`
	SystemPrompt   string              `json:"system_prompt,omitempty"`
	EnabledTools   []string            `json:"enabled_tools,omitempty"`
}

// SessionMetadata is a lightweight version of Session for listing
type SessionMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Model        string    `json:"model"`
	Provider     string    `json:"provider,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	TurnCount    int       `json:"turn_count"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	EnabledTools []string  `json:"enabled_tools,omitempty"`
}

// TurnsFromSession returns a copy of a session's transcript for the live
// model, so mutations during streaming never alias the persisted slice.
func TurnsFromSession(session *Session) []chat.Turn {
	if session == nil || len(session.Turns) == 0 {
		return nil
	}
	turns := make([]chat.Turn, len(session.Turns))
	copy(turns, session.Turns)
	return turns
}

// TurnsForSession returns a copy of the live transcript for persisting.
// In-flight typing placeholders are dropped.
func TurnsForSession(turns []chat.Turn) []chat.Turn {
	out := make([]chat.Turn, 0, len(turns))
	for _, t := range turns {
		if t.Typing {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SessionStorage handles session persistence
type SessionStorage struct {
	sessionsDir string
}

// NewSessionStorage creates a new session storage
func NewSessionStorage(dataDir string) (*SessionStorage, error) {
	sessionsDir := filepath.Join(dataDir, "sessions")

	// 0700 - user-only access
	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &SessionStorage{
		sessionsDir: sessionsDir,
	}, nil
}

// Save saves a session to disk
func (s *SessionStorage) Save(session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	session.UpdatedAt = time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	filename := fmt.Sprintf("%s.json", session.ID)
	filepath := filepath.Join(s.sessionsDir, filename)

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// 0600 - session files contain sensitive conversation history
	if err := os.WriteFile(filepath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load loads a session from disk
func (s *SessionStorage) Load(id string) (*Session, error) {
	filename := fmt.Sprintf("%s.json", id)
	filepath := filepath.Join(s.sessionsDir, filename)

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// List returns metadata for all sessions, sorted by update time (newest first)
func (s *SessionStorage) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []SessionMetadata

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		filepath := filepath.Join(s.sessionsDir, entry.Name())
		data, err := os.ReadFile(filepath)
		if err != nil {
			continue // Skip corrupted files
		}

		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue // Skip corrupted files
		}

		sessions = append(sessions, SessionMetadata{
			ID:           session.ID,
			Name:         session.Name,
			Model:        session.Model,
			Provider:     session.Provider,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
			TurnCount:    len(session.Turns),
			SystemPrompt: session.SystemPrompt,
			EnabledTools: session.EnabledTools,
		})
	}

	// Sort by UpdatedAt (newest first)
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// Delete deletes a session from disk
func (s *SessionStorage) Delete(id string) error {
	filename := fmt.Sprintf("%s.json", id)
	filepath := filepath.Join(s.sessionsDir, filename)

	if err := os.Remove(filepath); err != nil {
		return fmt.Errorf("failed to delete session file: %w", err)
	}

	return nil
}

// SaveCurrentSessionID saves the ID of the current session
func (s *SessionStorage) SaveCurrentSessionID(id string) error {
	filepath := filepath.Join(filepath.Dir(s.sessionsDir), "current_session.id")
	return os.WriteFile(filepath, []byte(id), 0600)
}

// LoadCurrentSessionID loads the ID of the last active session
func (s *SessionStorage) LoadCurrentSessionID() (string, error) {
	filepath := filepath.Join(filepath.Dir(s.sessionsDir), "current_session.id")
	data, err := os.ReadFile(filepath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// RenameSession updates the name of a session
func (s *SessionStorage) RenameSession(id string, newName string) error {
	session, err := s.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	session.Name = newName

	if err := s.Save(session); err != nil {
		return fmt.Errorf("failed to save renamed session: %w", err)
	}

	return nil
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, ":", "-")
	name = strings.ReplaceAll(name, "*", "-")
	name = strings.ReplaceAll(name, "?", "-")
	name = strings.ReplaceAll(name, "\"", "-")
	name = strings.ReplaceAll(name, "<", "-")
	name = strings.ReplaceAll(name, ">", "-")
	name = strings.ReplaceAll(name, "|", "-")
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "\n", "-")
	name = strings.ReplaceAll(name, "\r", "-")

	name = strings.Trim(name, "-.")

	if len(name) > 50 {
		name = name[:50]
	}

	if name == "" {
		name = "session"
	}

	return name
}

// GenerateExportPath generates a default export path for a session
func GenerateExportPath(sessionName string) string {
	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir = os.Getenv("USERPROFILE") // Windows fallback
	}

	downloadsDir := filepath.Join(homeDir, "Downloads")

	sanitized := SanitizeFilename(sessionName)
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("plana-session-%s-%s.json", sanitized, timestamp)

	return filepath.Join(downloadsDir, filename)
}

// ExportToJSON exports a session to a JSON file at the specified path
func (s *SessionStorage) ExportToJSON(id string, exportPath string) error {
	session, err := s.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// 0700 - user-only access
	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// 0600 - session exports contain sensitive data
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// GenerateSessionName generates a session name from the first user message
func GenerateSessionName(firstMessage string) string {
	if firstMessage == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	name := firstMessage
	if len(name) > 30 {
		name = name[:30] + "..."
	}

	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	return name
}

// TurnMatch represents a search result within a session transcript
type TurnMatch struct {
	TurnIndex int
	Role      string
	Content   string
	Preview   string
	Timestamp time.Time
	Score     int
}

// SearchTurns searches the transcript of the current session
func SearchTurns(turns []chat.Turn, query string) []TurnMatch {
	if query == "" {
		return []TurnMatch{}
	}

	queryLower := strings.ToLower(query)
	var matches []TurnMatch

	for i, t := range turns {
		if strings.Contains(strings.ToLower(t.Content), queryLower) {
			preview := t.Content
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}

			matches = append(matches, TurnMatch{
				TurnIndex: i,
				Role:      t.Role,
				Content:   t.Content,
				Preview:   preview,
				Timestamp: t.CreatedAt,
				Score:     0,
			})
		}
	}

	return matches
}

func (s *Session) EnableTool(serverID string) {
	if s.EnabledTools == nil {
		s.EnabledTools = []string{}
	}

	for _, id := range s.EnabledTools {
		if id == serverID {
			return
		}
	}

	s.EnabledTools = append(s.EnabledTools, serverID)
}

func (s *Session) DisableTool(serverID string) {
	if s.EnabledTools == nil {
		return
	}

	filtered := []string{}
	for _, id := range s.EnabledTools {
		if id != serverID {
			filtered = append(filtered, id)
		}
	}
	s.EnabledTools = filtered
}

func (s *Session) IsToolEnabled(serverID string) bool {
	for _, id := range s.EnabledTools {
		if id == serverID {
			return true
		}
	}
	return false
}

func (s *Session) GetEnabledTools() []string {
	if s.EnabledTools == nil {
		return []string{}
	}
	return s.EnabledTools
}

// LockSession creates a lock file for a session to indicate it's in use.
// Lock file format: <data_dir>/sessions/{session-id}.lock, containing the
// PID of the Plan-A instance using this session.
func (ss *SessionStorage) LockSession(sessionID string) error {
	lockPath := filepath.Join(ss.sessionsDir, sessionID+".lock")
	pid := os.Getpid()

	return os.WriteFile(lockPath, []byte(fmt.Sprintf("%d", pid)), 0600)
}

// UnlockSession removes the lock file for a session
func (ss *SessionStorage) UnlockSession(sessionID string) error {
	lockPath := filepath.Join(ss.sessionsDir, sessionID+".lock")

	err := os.Remove(lockPath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// CheckSessionLock checks if a session is locked by another Plan-A instance.
// If isLocked is true, the session is actively being used elsewhere.
func (ss *SessionStorage) CheckSessionLock(sessionID string) (bool, error) {
	lockPath := filepath.Join(ss.sessionsDir, sessionID+".lock")

	data, err := os.ReadFile(lockPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read lock file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		// Invalid lock file, clean it up
		_ = os.Remove(lockPath)
		return false, nil
	}

	// os.FindProcess() always succeeds on Unix, but it is a cross-platform
	// basic check and good enough here
	_, err = os.FindProcess(pid)
	if err != nil {
		// Process not found (Windows), clean up stale lock
		_ = os.Remove(lockPath)
		return false, nil
	}

	return true, nil
}

// LockInstance creates a global lock to ensure single-instance operation.
// Lock file: <data_dir>/plana.lock, containing the PID of the running
// instance. Prevents two instances from fighting over tool server ports.
func (ss *SessionStorage) LockInstance() error {
	dataDir := filepath.Dir(ss.sessionsDir)
	lockPath := filepath.Join(dataDir, "plana.lock")
	pid := os.Getpid()

	return os.WriteFile(lockPath, []byte(fmt.Sprintf("%d", pid)), 0600)
}

// UnlockInstance removes the global instance lock
func (ss *SessionStorage) UnlockInstance() error {
	dataDir := filepath.Dir(ss.sessionsDir)
	lockPath := filepath.Join(dataDir, "plana.lock")

	err := os.Remove(lockPath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// CheckInstanceLock checks if another Plan-A instance is currently running.
// Returns (isLocked, runningPID, err).
func (ss *SessionStorage) CheckInstanceLock() (bool, int, error) {
	dataDir := filepath.Dir(ss.sessionsDir)
	lockPath := filepath.Join(dataDir, "plana.lock")

	data, err := os.ReadFile(lockPath)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		_ = os.Remove(lockPath)
		return false, 0, nil
	}

	_, err = os.FindProcess(pid)
	if err != nil {
		_ = os.Remove(lockPath)
		return false, 0, nil
	}

	return true, pid, nil
}
