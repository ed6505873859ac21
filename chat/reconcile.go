package chat

import (
	"fmt"
	"time"
)

// HistoryEntry is one committed user+agent exchange as the persistence layer
// round-trips it. Message ids are server-assigned and used later to address
// the exchange for edit-and-rerun; entries appended locally carry zero ids
// until a history refresh supplies them.
type HistoryEntry struct {
	User           string `json:"user"`
	Agent          string `json:"agent"`
	UserMessageID  int64  `json:"userMessageId,omitempty"`
	AgentMessageID int64  `json:"agentMessageId,omitempty"`
}

// History is the ordered collection of committed exchanges for one
// conversation. It is mutated only by Reconciler.Finalize (append) and the
// Coordinator's truncate step, both on the UI event loop.
type History struct {
	entries []HistoryEntry
	lastKey string
}

// NewHistory creates an empty history.
func NewHistory() *History { return &History{} }

// Entries returns a copy of the committed exchanges in order.
func (h *History) Entries() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}

// Len returns the number of committed exchanges.
func (h *History) Len() int { return len(h.entries) }

// Append adds an exchange committed at ts unless it carries the same dedup
// key as the previous append - the transport can deliver a final event plus
// a late history refresh for the same turn within the same second. A user
// who resends the same prompt later and gets the same reply still commits a
// new exchange. Reports whether the entry was added.
func (h *History) Append(e HistoryEntry, ts time.Time) bool {
	key := DedupKey(RoleUser, e.User, ts) + "\x1e" + DedupKey(RoleAgent, e.Agent, ts)
	if len(h.entries) > 0 && key == h.lastKey {
		return false
	}
	h.entries = append(h.entries, e)
	h.lastKey = key
	return true
}

// ReplaceAll installs the authoritative entries fetched from persistence,
// including their server-assigned ids.
func (h *History) ReplaceAll(entries []HistoryEntry) {
	h.entries = append([]HistoryEntry(nil), entries...)
	h.lastKey = ""
}

// TruncateTo keeps entries[:index], discarding the exchange at index and
// everything after it. Used when a past user prompt is edited: the rerun
// regenerates that exchange and all later ones are invalidated.
func (h *History) TruncateTo(index int) {
	if index < 0 {
		index = 0
	}
	if index > len(h.entries) {
		index = len(h.entries)
	}
	h.entries = h.entries[:index]
	h.lastKey = ""
}

// ResolveIndex locates the exchange an edit addresses, in priority order:
// by persisted user-message id, then by exact prompt-content match (scanning
// from the newest), then - as a positional heuristic - the most recent
// exchange. Returns false when history is empty or no rule matches.
func (h *History) ResolveIndex(userMessageID int64, content string) (int, bool) {
	if len(h.entries) == 0 {
		return 0, false
	}
	if userMessageID != 0 {
		for i := range h.entries {
			if h.entries[i].UserMessageID == userMessageID {
				return i, true
			}
		}
	}
	if content != "" {
		for i := len(h.entries) - 1; i >= 0; i-- {
			if h.entries[i].User == content {
				return i, true
			}
		}
	}
	if userMessageID == 0 && content == "" {
		return 0, false
	}
	// Positional fallback: assume the most recent exchange was edited.
	return len(h.entries) - 1, true
}

// DedupKey computes the duplicate-suppression key for a transcript entry:
// role, content, and the timestamp bucketed to the second. Append uses it to
// drop the same committed turn arriving twice (final stream event plus a
// late history refresh).
func DedupKey(role, content string, ts time.Time) string {
	return fmt.Sprintf("%s\x00%s\x00%d", role, content, ts.Unix())
}

// FinalizeResult is what Finalize hands back to the caller.
type FinalizeResult struct {
	// NeedsRefresh is set when a new exchange was committed without
	// server-assigned ids; the caller should re-fetch authoritative
	// history from persistence to obtain them. Finalize never assigns
	// ids itself.
	NeedsRefresh bool
}

// Reconciler finalizes an in-flight agent turn into its committed form.
type Reconciler struct {
	history *History
	now     func() time.Time
}

// NewReconciler creates a reconciler committing into history.
func NewReconciler(history *History) *Reconciler {
	return &Reconciler{history: history, now: time.Now}
}

// History returns the history this reconciler commits into.
func (r *Reconciler) History() *History { return r.history }

// Finalize freezes the turn when the transport reports completion (or a
// structured payload superseded the stream).
//
// If the timeline already holds chunks, they are authoritative: coalesce
// adjacent text and take the concatenation as final content - no re-parse,
// structured payloads already replaced the timeline when they arrived.
// Otherwise the raw accumulated text is interpreted once: a structured
// payload converts to chunks, anything else becomes a single text chunk.
func (r *Reconciler) Finalize(m *Merger, turn *Turn, userPrompt string) FinalizeResult {
	tl := m.Timeline()
	if tl.Empty() {
		if raw := m.Raw(); raw != "" {
			parsed := ParseContent(raw, tl.base)
			if parsed.Kind == ContentStructured {
				tl.Replace(parsed.Chunks)
			} else {
				tl.AppendOrMergeText(raw)
			}
		}
	}
	tl.Optimize()

	turn.Original = m.Raw()
	turn.Content = tl.Text()
	turn.Chunks = tl.Sorted()
	turn.Typing = false
	turn.Complete = true

	added := r.history.Append(HistoryEntry{User: userPrompt, Agent: turn.Content}, r.now())
	return FinalizeResult{NeedsRefresh: added}
}
