package storage

import (
	"strings"
	"testing"

	"plana/chat"
)

func TestSearchAllSessions(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	groceries := &Session{
		Name: "Groceries",
		Turns: []chat.Turn{
			{Role: chat.RoleUser, Content: "add oat milk to the shopping list"},
			{Role: chat.RoleAgent, Content: "Added oat milk."},
		},
	}
	travel := &Session{
		Name: "Travel",
		Turns: []chat.Turn{
			{Role: chat.RoleUser, Content: "when is my flight?"},
		},
	}
	if err := storage.Save(groceries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := storage.Save(travel); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	index := NewSearchIndex(storage)

	matches, err := index.SearchAllSessions("oat milk")
	if err != nil {
		t.Fatalf("SearchAllSessions failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	for _, m := range matches {
		if m.SessionName != "Groceries" {
			t.Errorf("match from session %q, want Groceries", m.SessionName)
		}
	}

	// Case-insensitive
	matches, err = index.SearchAllSessions("FLIGHT")
	if err != nil {
		t.Fatalf("SearchAllSessions failed: %v", err)
	}
	if len(matches) != 1 || matches[0].SessionID != travel.ID {
		t.Errorf("case-insensitive search failed: %+v", matches)
	}

	// Empty query returns no matches, not an error
	matches, err = index.SearchAllSessions("")
	if err != nil {
		t.Fatalf("SearchAllSessions failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("empty query returned %d matches", len(matches))
	}
}

func TestSearchAllSessionsPreviewTruncation(t *testing.T) {
	storage, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStorage failed: %v", err)
	}

	long := strings.Repeat("meeting notes ", 20)
	session := &Session{
		Name:  "Work",
		Turns: []chat.Turn{{Role: chat.RoleUser, Content: long}},
	}
	if err := storage.Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	matches, err := NewSearchIndex(storage).SearchAllSessions("meeting")
	if err != nil {
		t.Fatalf("SearchAllSessions failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if len(matches[0].Preview) != 103 {
		t.Errorf("preview length = %d, want 103 (100 chars plus ellipsis)", len(matches[0].Preview))
	}
	if !strings.HasSuffix(matches[0].Preview, "...") {
		t.Error("long preview should end with ellipsis")
	}
}
