package storage

import (
	"testing"

	"plana/chat"
)

func newTestHistoryStore(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHistoryStoreAppendAndLoad(t *testing.T) {
	store := newTestHistoryStore(t)

	entries := []chat.HistoryEntry{
		{User: "what's on my list?", Agent: "Milk and eggs.", UserMessageID: 1, AgentMessageID: 2},
		{User: "add bread", Agent: "Done.", UserMessageID: 3, AgentMessageID: 4},
	}
	for _, e := range entries {
		if err := store.AppendExchange(100, e); err != nil {
			t.Fatalf("AppendExchange failed: %v", err)
		}
	}

	loaded, err := store.LoadConversation(100)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d exchanges, want 2", len(loaded))
	}
	if loaded[0].User != "what's on my list?" || loaded[1].AgentMessageID != 4 {
		t.Errorf("exchanges out of order or lossy: %+v", loaded)
	}
}

func TestHistoryStoreReplaceConversation(t *testing.T) {
	store := newTestHistoryStore(t)

	if err := store.AppendExchange(7, chat.HistoryEntry{User: "old", Agent: "old"}); err != nil {
		t.Fatalf("AppendExchange failed: %v", err)
	}

	authoritative := []chat.HistoryEntry{
		{User: "a", Agent: "b", UserMessageID: 10, AgentMessageID: 11},
		{User: "c", Agent: "d", UserMessageID: 12, AgentMessageID: 13},
		{User: "e", Agent: "f", UserMessageID: 14, AgentMessageID: 15},
	}
	if err := store.ReplaceConversation(7, authoritative); err != nil {
		t.Fatalf("ReplaceConversation failed: %v", err)
	}

	loaded, err := store.LoadConversation(7)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded %d exchanges, want 3", len(loaded))
	}
	if loaded[0].User != "a" || loaded[2].AgentMessageID != 15 {
		t.Errorf("replacement not authoritative: %+v", loaded)
	}
}

func TestHistoryStoreTruncateConversation(t *testing.T) {
	store := newTestHistoryStore(t)

	for i := 0; i < 4; i++ {
		if err := store.AppendExchange(5, chat.HistoryEntry{User: "u", Agent: "a"}); err != nil {
			t.Fatalf("AppendExchange failed: %v", err)
		}
	}

	if err := store.TruncateConversation(5, 2); err != nil {
		t.Fatalf("TruncateConversation failed: %v", err)
	}

	loaded, err := store.LoadConversation(5)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("after truncate got %d exchanges, want 2", len(loaded))
	}

	// Appends after a truncate continue from the new end
	if err := store.AppendExchange(5, chat.HistoryEntry{User: "new", Agent: "reply"}); err != nil {
		t.Fatalf("AppendExchange after truncate failed: %v", err)
	}
	loaded, err = store.LoadConversation(5)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(loaded) != 3 || loaded[2].User != "new" {
		t.Errorf("append after truncate misplaced: %+v", loaded)
	}
}

func TestHistoryStoreDeleteConversation(t *testing.T) {
	store := newTestHistoryStore(t)

	if err := store.AppendExchange(1, chat.HistoryEntry{User: "u", Agent: "a"}); err != nil {
		t.Fatalf("AppendExchange failed: %v", err)
	}
	if err := store.AppendExchange(2, chat.HistoryEntry{User: "u", Agent: "a"}); err != nil {
		t.Fatalf("AppendExchange failed: %v", err)
	}

	if err := store.DeleteConversation(1); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	loaded, err := store.LoadConversation(1)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("deleted conversation still has %d exchanges", len(loaded))
	}

	kept, err := store.LoadConversation(2)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("unrelated conversation lost entries, got %d", len(kept))
	}
}

func TestHistoryStoreConversationsAreIsolated(t *testing.T) {
	store := newTestHistoryStore(t)

	if err := store.AppendExchange(1, chat.HistoryEntry{User: "one", Agent: "a"}); err != nil {
		t.Fatalf("AppendExchange failed: %v", err)
	}
	if err := store.AppendExchange(2, chat.HistoryEntry{User: "two", Agent: "b"}); err != nil {
		t.Fatalf("AppendExchange failed: %v", err)
	}

	loaded, err := store.LoadConversation(1)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].User != "one" {
		t.Errorf("conversation 1 = %+v, want single exchange 'one'", loaded)
	}
}
