package model

import (
	"plana/chat"
	"plana/storage"
)

// StreamEventMsg carries one structured event from an in-flight response
// stream. SessionID identifies the stream it belongs to; events from stale
// sessions are dropped by the update loop.
type StreamEventMsg struct {
	SessionID string
	Event     chat.StreamEvent
}

// StreamFinishedMsg signals that the stream goroutine has exited, either
// cleanly or with an error. The event channel is closed by then. TimedOut
// marks the safety-timeout expiry: treated as a forced stop, not a clean
// finish and not a transport failure.
type StreamFinishedMsg struct {
	SessionID string
	Err       error
	TimedOut  bool
}

type StreamErrorMsg struct {
	Err error
}

// HistoryRefreshedMsg carries the authoritative committed history fetched
// from the backend after a finalize reported a mismatch.
type HistoryRefreshedMsg struct {
	Entries []chat.HistoryEntry
	Err     error
}

// PartialSavedMsg reports the outcome of persisting a stopped stream's
// partial response to the backend.
type PartialSavedMsg struct {
	Err error
}

type ConversationCreatedMsg struct {
	ConversationID int64
	Err            error
}

type MarkdownRenderedMsg struct {
	TurnIndex int
	Rendered  string
}

type ModelsListMsg struct {
	Models       []ModelInfo
	Err          error
	ShowSelector bool
}

type SessionsListMsg struct {
	Sessions []storage.SessionMetadata
	Err      error
}

type SessionLoadedMsg struct {
	Session *storage.Session
	Err     error
}

type SessionSavedMsg struct {
	Err error
}

type SessionRenamedMsg struct {
	Err error
}

type SessionExportedMsg struct {
	Path      string
	Err       error
	Cancelled bool
}

type SessionImportedMsg struct {
	Session   *storage.Session
	Err       error
	Cancelled bool
}

type ExportCleanupDoneMsg struct{}

type FlashTickMsg struct{}

type ShutdownProgressMsg struct {
	Phase             string // "complete" or "unresponsive"
	UnresponsiveNames []string
	Err               error
}

type EditorContentMsg struct {
	Content string
}

type EditorErrorMsg struct {
	Err error
}
