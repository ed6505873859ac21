package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"plana/chat"
	"plana/config"
)

// StreamHandle connects the goroutine pumping a response stream to the
// bubbletea update loop. The producer writes events to Events and closes it
// when done; WaitForStreamEvent reads one event per command and is re-armed
// by the update loop until the channel drains.
type StreamHandle struct {
	Session *chat.StreamSession
	Events  chan chat.StreamEvent
}

func newStreamHandle(sess *chat.StreamSession) *StreamHandle {
	return &StreamHandle{
		Session: sess,
		Events:  make(chan chat.StreamEvent, 64),
	}
}

// WaitForStreamEvent returns a command that blocks until the next stream
// event arrives. A closed channel yields nil, which bubbletea discards; the
// end of the stream is signalled separately by StreamFinishedMsg.
func WaitForStreamEvent(h *StreamHandle) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-h.Events
		if !ok {
			return nil
		}
		return StreamEventMsg{SessionID: h.Session.ID, Event: ev}
	}
}

// SendPrompt opens a stream session for a new user prompt, appends the user
// turn plus a typing placeholder, and returns the commands that run the
// stream and pump its events.
func (m *Model) SendPrompt(content string) (tea.Cmd, error) {
	sess, err := m.Coordinator.StartSend()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	m.Turns = append(m.Turns,
		chat.Turn{ID: uuid.NewString(), Role: chat.RoleUser, Content: content, CreatedAt: now, Complete: true},
		chat.Turn{ID: uuid.NewString(), Role: chat.RoleAgent, CreatedAt: now, Typing: true, AgentID: sess.ID},
	)
	m.PendingPrompt = content
	m.Streaming = true
	m.SessionDirty = true

	handle := newStreamHandle(sess)
	m.ActiveStream = handle
	m.Coordinator.StreamStarted()

	var run tea.Cmd
	if m.DirectMode() {
		run = m.runAgentCmd(handle, content)
	} else {
		run = m.runBackendChatCmd(handle, content)
	}
	return tea.Batch(run, WaitForStreamEvent(handle)), nil
}

// BeginEditTurn enters the edit workflow for the user turn at the given
// index. The persisted message id is looked up from committed history; when
// the exchange was never committed the id stays zero and submission falls
// back to content matching.
func (m *Model) BeginEditTurn(turnIndex int) error {
	if turnIndex < 0 || turnIndex >= len(m.Turns) {
		return fmt.Errorf("no message at index %d", turnIndex)
	}
	turn := m.Turns[turnIndex]
	if turn.Role != chat.RoleUser {
		return fmt.Errorf("only your own messages can be edited")
	}
	var userMessageID int64
	if ord := m.userTurnOrdinal(turnIndex); ord >= 0 {
		entries := m.History().Entries()
		if ord < len(entries) {
			userMessageID = entries[ord].UserMessageID
		}
	}
	if err := m.Coordinator.BeginEdit(userMessageID, turn.Content); err != nil {
		return err
	}
	m.EditingTurn = turnIndex
	return nil
}

// CancelEdit abandons the edit workflow without touching the transcript.
func (m *Model) CancelEdit() {
	m.Coordinator.CancelEdit()
	m.EditingTurn = -1
}

// SubmitEdit submits the edited prompt: committed history is truncated by
// the coordinator, the transcript is rewound to the edited turn, and a rerun
// stream starts in its place.
func (m *Model) SubmitEdit(edited string) (tea.Cmd, error) {
	req, sess, err := m.Coordinator.Submit(edited)
	if err != nil {
		return nil, err
	}
	turnIdx := m.EditingTurn
	if turnIdx < 0 || turnIdx >= len(m.Turns) {
		turnIdx = len(m.Turns) - 1
	}
	t := &m.Turns[turnIdx]
	if t.Original == "" {
		t.Original = t.Content
	}
	t.Content = edited
	m.Turns = m.Turns[:turnIdx+1]
	m.Turns = append(m.Turns, chat.Turn{
		ID:        uuid.NewString(),
		Role:      chat.RoleAgent,
		CreatedAt: time.Now(),
		Typing:    true,
		AgentID:   sess.ID,
	})
	m.EditingTurn = -1
	m.PendingPrompt = edited
	m.Streaming = true
	m.SessionDirty = true

	handle := newStreamHandle(sess)
	m.ActiveStream = handle
	m.Coordinator.StreamStarted()

	var run tea.Cmd
	if m.DirectMode() {
		run = m.runAgentCmd(handle, edited)
	} else {
		run = m.runBackendEditCmd(handle, req)
	}
	return tea.Batch(run, WaitForStreamEvent(handle)), nil
}

// runBackendChatCmd streams a chat exchange from the Plan-A service into the
// handle's event channel. The stream is bound to the session so Stop cancels
// the HTTP request, and capped so a wedged connection cannot pin the UI in
// the streaming state forever.
func (m *Model) runBackendChatCmd(h *StreamHandle, content string) tea.Cmd {
	client := m.Backend
	convID := m.ConversationID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chat.SafetyTimeout)
		h.Session.Bind(cancel)
		defer cancel()

		err := client.StreamChat(ctx, convID, content, func(ev chat.StreamEvent) error {
			select {
			case h.Events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(h.Events)
		return streamFinished(h.Session.ID, ctx, err)
	}
}

// runBackendEditCmd is runBackendChatCmd for the edit-and-rerun endpoint.
func (m *Model) runBackendEditCmd(h *StreamHandle, req chat.EditRequest) tea.Cmd {
	client := m.Backend
	convID := m.ConversationID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chat.SafetyTimeout)
		h.Session.Bind(cancel)
		defer cancel()

		err := client.EditRerun(ctx, convID, req, func(ev chat.StreamEvent) error {
			select {
			case h.Events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(h.Events)
		return streamFinished(h.Session.ID, ctx, err)
	}
}

// streamFinished classifies how a stream command exited. A cancelled context
// is a user stop, already handled; an expired deadline is the safety timeout
// and is flagged so the update loop finalizes the partial reply like a
// forced stop. Neither is a transport failure.
func streamFinished(sessionID string, ctx context.Context, err error) StreamFinishedMsg {
	if ctx.Err() != nil {
		return StreamFinishedMsg{
			SessionID: sessionID,
			TimedOut:  errors.Is(ctx.Err(), context.DeadlineExceeded),
		}
	}
	return StreamFinishedMsg{SessionID: sessionID, Err: err}
}

// ApplyStreamEvent routes one event to the merger of the session it belongs
// to. Events for finished or superseded sessions are dropped.
func (m *Model) ApplyStreamEvent(msg StreamEventMsg) {
	sess := m.Coordinator.SessionFor(msg.SessionID)
	if sess == nil {
		if config.Debug {
			config.DebugLog.Printf("[Stream] dropping event for stale session %s", msg.SessionID)
		}
		return
	}
	turn := m.ActiveAgentTurn(msg.SessionID)
	if turn == nil {
		return
	}
	sess.Merger.Apply(msg.Event, turn)
}

// FinalizeStream reconciles the finished stream into committed history and
// returns a history refresh command when the backend holds server-assigned
// ids we have not seen.
func (m *Model) FinalizeStream(sessionID string) tea.Cmd {
	sess := m.Coordinator.SessionFor(sessionID)
	if sess == nil {
		return nil
	}
	turn := m.ActiveAgentTurn(sessionID)
	if turn == nil {
		m.Coordinator.Commit()
		m.Streaming = false
		m.ActiveStream = nil
		return nil
	}
	res := m.Reconciler.Finalize(sess.Merger, turn, m.PendingPrompt)
	m.Coordinator.Commit()
	m.Streaming = false
	m.ActiveStream = nil
	m.PendingPrompt = ""
	m.SessionDirty = true

	if res.NeedsRefresh && !m.DirectMode() {
		return m.RefreshHistoryCmd()
	}
	return nil
}

// StopStream aborts the active stream on user request. When partial text
// already arrived the turn is finalized as an incomplete reply and, in
// backend mode, saved so the server transcript matches what the user saw.
func (m *Model) StopStream() tea.Cmd {
	sess := m.Coordinator.Active()
	if sess == nil || sess.Done() {
		return nil
	}
	partial := m.Coordinator.Stop()
	return m.closeInterruptedStream(sess, partial)
}

// AbortTimedOutStream finalizes a stream cut off by the safety timeout. The
// context is already dead so there is nothing left to cancel; the partial
// reply is kept and saved exactly as a user-initiated stop keeps it.
func (m *Model) AbortTimedOutStream(sessionID string) tea.Cmd {
	sess := m.Coordinator.SessionFor(sessionID)
	if sess == nil || sess.Done() {
		return nil
	}
	partial := sess.Merger.Raw() != "" || !sess.Merger.Timeline().Empty()
	return m.closeInterruptedStream(sess, partial)
}

// closeInterruptedStream commits a stream that ended without a done signal.
// With partial content the turn is finalized but left marked incomplete;
// with nothing at all the typing placeholder is dropped entirely.
func (m *Model) closeInterruptedStream(sess *chat.StreamSession, partial bool) tea.Cmd {
	sessionID := sess.ID
	if !partial {
		for i := len(m.Turns) - 1; i >= 0; i-- {
			if m.Turns[i].AgentID == sessionID {
				m.Turns = append(m.Turns[:i], m.Turns[i+1:]...)
				break
			}
		}
		m.Coordinator.Commit()
		m.Streaming = false
		m.ActiveStream = nil
		m.PendingPrompt = ""
		return nil
	}

	var content string
	if turn := m.ActiveAgentTurn(sessionID); turn != nil {
		m.Reconciler.Finalize(sess.Merger, turn, m.PendingPrompt)
		turn.Complete = false
		content = turn.Content
	}
	m.Coordinator.Commit()
	m.Streaming = false
	m.ActiveStream = nil
	m.PendingPrompt = ""
	m.SessionDirty = true

	if m.DirectMode() || content == "" {
		return nil
	}
	client := m.Backend
	convID := m.ConversationID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return PartialSavedMsg{Err: client.SavePartial(ctx, convID, content)}
	}
}

// AppendSystemNotice adds an app status line to the transcript so failures
// and forced stops stay visible in scrollback instead of flashing past in a
// modal. System turns never reach the provider conversation.
func (m *Model) AppendSystemNotice(text string) {
	m.Turns = append(m.Turns, chat.Turn{
		ID:        uuid.NewString(),
		Role:      chat.RoleSystem,
		Content:   text,
		CreatedAt: time.Now(),
		Complete:  true,
	})
	m.SessionDirty = true
}

// RefreshHistoryCmd fetches the committed history from the backend so local
// entries pick up server-assigned message ids. The result is also written to
// the local exchange cache.
func (m *Model) RefreshHistoryCmd() tea.Cmd {
	client := m.Backend
	convID := m.ConversationID
	store := m.HistoryStore
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		entries, err := client.History(ctx, convID)
		if err == nil && store != nil {
			if cacheErr := store.ReplaceConversation(convID, entries); cacheErr != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[Stream] failed to cache history for conversation %d: %v", convID, cacheErr)
			}
		}
		return HistoryRefreshedMsg{Entries: entries, Err: err}
	}
}

// EnsureConversationCmd creates a backend conversation when none is bound
// yet. No-op in direct mode.
func (m *Model) EnsureConversationCmd() tea.Cmd {
	if m.DirectMode() || m.ConversationID != 0 {
		return nil
	}
	client := m.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		id, err := client.CreateConversation(ctx)
		return ConversationCreatedMsg{ConversationID: id, Err: err}
	}
}

// userTurnOrdinal maps a transcript index to the exchange ordinal used by
// committed history: the number of user turns strictly before it.
func (m *Model) userTurnOrdinal(turnIndex int) int {
	ord := -1
	for i := 0; i <= turnIndex && i < len(m.Turns); i++ {
		if m.Turns[i].Role == chat.RoleUser {
			ord++
		}
	}
	return ord
}
