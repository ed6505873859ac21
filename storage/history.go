package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"plana/chat"
)

// HistoryStore is a local sqlite cache of committed exchanges keyed by the
// backend conversation id. It lets a reopened session show server-assigned
// message ids without a round trip, and keeps edit resolution working
// offline.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(dataDir string) (*HistoryStore, error) {
	dbPath := filepath.Join(dataDir, "history.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &HistoryStore{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (hs *HistoryStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		conversation_id INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		user_content TEXT NOT NULL,
		agent_content TEXT NOT NULL,
		user_message_id INTEGER NOT NULL DEFAULT 0,
		agent_message_id INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (conversation_id, idx)
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_conversation ON exchanges(conversation_id);
	`

	_, err := hs.db.Exec(schema)
	if err != nil {
		return err
	}

	if err := hs.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// migrateSchema adds missing columns to databases created before server
// message ids were cached
func (hs *HistoryStore) migrateSchema() error {
	hasAgentID, err := hs.columnExists("exchanges", "agent_message_id")
	if err != nil {
		return fmt.Errorf("failed to check for agent_message_id column: %w", err)
	}

	if !hasAgentID {
		_, err := hs.db.Exec(`ALTER TABLE exchanges ADD COLUMN agent_message_id INTEGER NOT NULL DEFAULT 0`)
		if err != nil {
			return fmt.Errorf("failed to add agent_message_id column: %w", err)
		}
	}

	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info
func (hs *HistoryStore) columnExists(tableName, columnName string) (bool, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", tableName)
	rows, err := hs.db.Query(query)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var dataType string
		var notNull int
		var defaultValue interface{}
		var pk int

		err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk)
		if err != nil {
			return false, err
		}

		if name == columnName {
			return true, nil
		}
	}

	return false, rows.Err()
}

// ReplaceConversation overwrites the cached exchanges of one conversation
// with the authoritative list from the backend.
func (hs *HistoryStore) ReplaceConversation(conversationID int64, entries []chat.HistoryEntry) error {
	tx, err := hs.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM exchanges WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}

	now := time.Now()
	insert := `
	INSERT INTO exchanges (conversation_id, idx, user_content, agent_content, user_message_id, agent_message_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, e := range entries {
		if _, err := tx.Exec(insert,
			conversationID,
			i,
			e.User,
			e.Agent,
			e.UserMessageID,
			e.AgentMessageID,
			now,
		); err != nil {
			return fmt.Errorf("failed to insert exchange %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// AppendExchange adds one committed exchange at the end of a conversation's
// cache.
func (hs *HistoryStore) AppendExchange(conversationID int64, entry chat.HistoryEntry) error {
	var next int
	err := hs.db.QueryRow(
		`SELECT COALESCE(MAX(idx) + 1, 0) FROM exchanges WHERE conversation_id = ?`,
		conversationID,
	).Scan(&next)
	if err != nil {
		return err
	}

	_, err = hs.db.Exec(`
	INSERT OR REPLACE INTO exchanges (conversation_id, idx, user_content, agent_content, user_message_id, agent_message_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conversationID,
		next,
		entry.User,
		entry.Agent,
		entry.UserMessageID,
		entry.AgentMessageID,
		time.Now(),
	)
	return err
}

// LoadConversation returns the cached exchanges of a conversation in order.
func (hs *HistoryStore) LoadConversation(conversationID int64) ([]chat.HistoryEntry, error) {
	rows, err := hs.db.Query(`
	SELECT user_content, agent_content, user_message_id, agent_message_id
	FROM exchanges
	WHERE conversation_id = ?
	ORDER BY idx ASC`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []chat.HistoryEntry
	for rows.Next() {
		var e chat.HistoryEntry
		if err := rows.Scan(&e.User, &e.Agent, &e.UserMessageID, &e.AgentMessageID); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// TruncateConversation drops cached exchanges from the given index onward,
// mirroring an edit-and-rerun truncation.
func (hs *HistoryStore) TruncateConversation(conversationID int64, fromIndex int) error {
	_, err := hs.db.Exec(
		`DELETE FROM exchanges WHERE conversation_id = ? AND idx >= ?`,
		conversationID, fromIndex,
	)
	return err
}

// DeleteConversation removes a conversation's cache entirely.
func (hs *HistoryStore) DeleteConversation(conversationID int64) error {
	_, err := hs.db.Exec(`DELETE FROM exchanges WHERE conversation_id = ?`, conversationID)
	return err
}

func (hs *HistoryStore) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}
