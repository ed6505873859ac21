package storage

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"plana/chat"
)

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	session := &Session{
		Name:           "Grocery notes",
		Model:          "llama3.1:latest",
		Provider:       "ollama",
		ConversationID: 42,
		SystemPrompt:   "You are a helpful note-taking assistant.",
		EnabledTools:   []string{"filesystem"},
		Turns: []chat.Turn{
			{ID: "t1", Role: chat.RoleUser, Content: "add milk to the list"},
			{
				ID:       "t2",
				Role:     chat.RoleAgent,
				Content:  "Added milk.",
				Complete: true,
				Chunks: []chat.Chunk{
					{Kind: chat.ChunkReasoning, Content: "user wants milk"},
					{Kind: chat.ChunkText, Content: "Added milk.", Seq: 0},
					{
						Kind:     chat.ChunkToolStatus,
						CallID:   "call-1",
						ToolName: "update_note",
						Status:   "completed",
						Result:   json.RawMessage(`{"ok":true}`),
					},
				},
			},
		},
		History: []chat.HistoryEntry{
			{User: "add milk to the list", Agent: "Added milk.", UserMessageID: 7, AgentMessageID: 8},
		},
	}

	if err := storage.Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if session.ID == "" {
		t.Fatal("Save should assign an ID")
	}
	if session.CreatedAt.IsZero() || session.UpdatedAt.IsZero() {
		t.Error("Save should stamp CreatedAt and UpdatedAt")
	}

	loaded, err := storage.Load(session.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Name != session.Name {
		t.Errorf("Name = %q, want %q", loaded.Name, session.Name)
	}
	if loaded.ConversationID != 42 {
		t.Errorf("ConversationID = %d, want 42", loaded.ConversationID)
	}
	if len(loaded.Turns) != 2 {
		t.Fatalf("loaded %d turns, want 2", len(loaded.Turns))
	}
	if len(loaded.Turns[1].Chunks) != 3 {
		t.Fatalf("agent turn has %d chunks, want 3", len(loaded.Turns[1].Chunks))
	}

	toolChunk := loaded.Turns[1].Chunks[2]
	if toolChunk.Kind != chat.ChunkToolStatus {
		t.Errorf("chunk kind = %q, want %q", toolChunk.Kind, chat.ChunkToolStatus)
	}
	if toolChunk.ToolName != "update_note" || toolChunk.Status != "completed" {
		t.Errorf("tool chunk lost fields: %+v", toolChunk)
	}
	if string(toolChunk.Result) != `{"ok":true}` {
		t.Errorf("tool result = %s, want {\"ok\":true}", toolChunk.Result)
	}

	if len(loaded.History) != 1 {
		t.Fatalf("loaded %d history entries, want 1", len(loaded.History))
	}
	if loaded.History[0].AgentMessageID != 8 {
		t.Errorf("agent message id = %d, want 8", loaded.History[0].AgentMessageID)
	}
}

func TestSessionFilePermissions(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	session := &Session{Name: "private"}
	if err := storage.Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(storage.sessionsDir + "/" + session.ID + ".json")
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %o, want 0600", perm)
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	older := &Session{Name: "older"}
	if err := storage.Save(older); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	newer := &Session{Name: "newer"}
	if err := storage.Save(newer); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	list, err := storage.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("listed %d sessions, want 2", len(list))
	}
	if list[0].Name != "newer" {
		t.Errorf("first listed session = %q, want newer", list[0].Name)
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	session := &Session{Name: "doomed"}
	if err := storage.Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := storage.Delete(session.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := storage.Load(session.ID); err == nil {
		t.Error("Load should fail after Delete")
	}
}

func TestCurrentSessionIDRoundTrip(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	if err := storage.SaveCurrentSessionID("abc-123"); err != nil {
		t.Fatalf("SaveCurrentSessionID failed: %v", err)
	}
	id, err := storage.LoadCurrentSessionID()
	if err != nil {
		t.Fatalf("LoadCurrentSessionID failed: %v", err)
	}
	if id != "abc-123" {
		t.Errorf("current session id = %q, want abc-123", id)
	}
}

func TestTurnsForSessionDropsTypingPlaceholders(t *testing.T) {
	turns := []chat.Turn{
		{ID: "t1", Role: chat.RoleUser, Content: "hi"},
		{ID: "t2", Role: chat.RoleAgent, Typing: true},
	}

	persisted := TurnsForSession(turns)
	if len(persisted) != 1 {
		t.Fatalf("persisted %d turns, want 1", len(persisted))
	}
	if persisted[0].ID != "t1" {
		t.Errorf("kept turn %q, want t1", persisted[0].ID)
	}
}

func TestTurnsFromSessionCopies(t *testing.T) {
	session := &Session{
		Turns: []chat.Turn{{ID: "t1", Content: "original"}},
	}

	turns := TurnsFromSession(session)
	turns[0].Content = "mutated"

	if session.Turns[0].Content != "original" {
		t.Error("TurnsFromSession should not alias the session slice")
	}

	if got := TurnsFromSession(nil); got != nil {
		t.Errorf("TurnsFromSession(nil) = %v, want nil", got)
	}
}

func TestSearchTurns(t *testing.T) {
	turns := []chat.Turn{
		{Role: chat.RoleUser, Content: "Remind me about the dentist appointment"},
		{Role: chat.RoleAgent, Content: "I've added a reminder for your dentist visit."},
		{Role: chat.RoleUser, Content: "thanks"},
	}

	matches := SearchTurns(turns, "DENTIST")
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].TurnIndex != 0 || matches[1].TurnIndex != 1 {
		t.Errorf("match indices = %d, %d, want 0, 1", matches[0].TurnIndex, matches[1].TurnIndex)
	}

	if got := SearchTurns(turns, ""); len(got) != 0 {
		t.Errorf("empty query returned %d matches, want 0", len(got))
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"replaces slashes", "notes/today", "notes-today"},
		{"replaces spaces", "my session", "my-session"},
		{"trims dashes and dots", "--name--", "name"},
		{"empty falls back", "", "session"},
		{"only invalid chars falls back", "///", "session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSessionToolToggles(t *testing.T) {
	session := &Session{}

	session.EnableTool("filesystem")
	session.EnableTool("filesystem")
	if len(session.EnabledTools) != 1 {
		t.Errorf("EnableTool should be idempotent, got %v", session.EnabledTools)
	}
	if !session.IsToolEnabled("filesystem") {
		t.Error("filesystem should be enabled")
	}

	session.DisableTool("filesystem")
	if session.IsToolEnabled("filesystem") {
		t.Error("filesystem should be disabled")
	}

	if got := session.GetEnabledTools(); got == nil {
		t.Error("GetEnabledTools should never return nil")
	}
}

func TestInstanceLockLifecycle(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	locked, _, err := storage.CheckInstanceLock()
	if err != nil {
		t.Fatalf("CheckInstanceLock failed: %v", err)
	}
	if locked {
		t.Fatal("fresh data dir should not be locked")
	}

	if err := storage.LockInstance(); err != nil {
		t.Fatalf("LockInstance failed: %v", err)
	}

	locked, pid, err := storage.CheckInstanceLock()
	if err != nil {
		t.Fatalf("CheckInstanceLock failed: %v", err)
	}
	if !locked {
		t.Fatal("data dir should be locked")
	}
	if pid != os.Getpid() {
		t.Errorf("lock pid = %d, want %d", pid, os.Getpid())
	}

	if err := storage.UnlockInstance(); err != nil {
		t.Fatalf("UnlockInstance failed: %v", err)
	}
	locked, _, err = storage.CheckInstanceLock()
	if err != nil {
		t.Fatalf("CheckInstanceLock failed: %v", err)
	}
	if locked {
		t.Error("data dir should be unlocked after UnlockInstance")
	}

	// Unlocking twice is a no-op
	if err := storage.UnlockInstance(); err != nil {
		t.Errorf("second UnlockInstance failed: %v", err)
	}
}

func TestSessionLockLifecycle(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	if err := storage.LockSession("s1"); err != nil {
		t.Fatalf("LockSession failed: %v", err)
	}
	locked, err := storage.CheckSessionLock("s1")
	if err != nil {
		t.Fatalf("CheckSessionLock failed: %v", err)
	}
	if !locked {
		t.Error("session should be locked")
	}

	if err := storage.UnlockSession("s1"); err != nil {
		t.Fatalf("UnlockSession failed: %v", err)
	}
	locked, err = storage.CheckSessionLock("s1")
	if err != nil {
		t.Fatalf("CheckSessionLock failed: %v", err)
	}
	if locked {
		t.Error("session should be unlocked")
	}
}
