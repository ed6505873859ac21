package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"plana/chat"
	"plana/config"
)

func TestShouldBlockOnOllamaValidation(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.Config
		expected bool
	}{
		{
			name:     "ollama default provider",
			cfg:      &config.Config{DefaultProvider: "ollama"},
			expected: true,
		},
		{
			name:     "empty default falls back to ollama",
			cfg:      &config.Config{},
			expected: true,
		},
		{
			name:     "cloud default provider",
			cfg:      &config.Config{DefaultProvider: "anthropic"},
			expected: false,
		},
		{
			name: "ollama explicitly disabled",
			cfg: &config.Config{
				DefaultProvider: "ollama",
				Providers: []config.ProviderConfig{
					{ID: "ollama", Enabled: false},
				},
			},
			expected: false,
		},
		{
			name: "ollama enabled in provider list",
			cfg: &config.Config{
				DefaultProvider: "ollama",
				Providers: []config.ProviderConfig{
					{ID: "ollama", Enabled: true},
					{ID: "openai", Enabled: false},
				},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldBlockOnOllamaValidation(tt.cfg); got != tt.expected {
				t.Errorf("ShouldBlockOnOllamaValidation() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestActiveAgentTurn(t *testing.T) {
	m := &Model{
		Turns: []chat.Turn{
			{ID: "t1", Role: chat.RoleUser, Content: "hi"},
			{ID: "t2", Role: chat.RoleAgent, AgentID: "stream-1", Complete: true},
			{ID: "t3", Role: chat.RoleUser, Content: "again"},
			{ID: "t4", Role: chat.RoleAgent, AgentID: "stream-2"},
		},
	}

	turn := m.ActiveAgentTurn("stream-2")
	if turn == nil || turn.ID != "t4" {
		t.Fatalf("ActiveAgentTurn(stream-2) = %+v, want t4", turn)
	}

	// Mutating through the pointer reaches the slice element
	turn.Content = "streaming..."
	if m.Turns[3].Content != "streaming..." {
		t.Error("ActiveAgentTurn should return a pointer into Turns")
	}

	if got := m.ActiveAgentTurn("stream-gone"); got != nil {
		t.Errorf("unknown stream id should resolve to nil, got %+v", got)
	}
}

func TestDirectMode(t *testing.T) {
	m := &Model{}
	if !m.DirectMode() {
		t.Error("nil backend should mean direct mode")
	}
}

// newStreamingModel builds a direct-mode model with one user prompt and an
// in-flight agent placeholder bound to a fresh stream session.
func newStreamingModel(t *testing.T) (*Model, *chat.StreamSession) {
	t.Helper()
	history := chat.NewHistory()
	coord := chat.NewCoordinator(history, nil)
	sess, err := coord.StartSend()
	if err != nil {
		t.Fatalf("StartSend: %v", err)
	}
	m := &Model{
		Coordinator:   coord,
		Reconciler:    chat.NewReconciler(history),
		Streaming:     true,
		PendingPrompt: "add milk",
		Turns: []chat.Turn{
			{ID: "u1", Role: chat.RoleUser, Content: "add milk", Complete: true},
			{ID: "a1", Role: chat.RoleAgent, Typing: true, AgentID: sess.ID},
		},
	}
	return m, sess
}

func TestAbortTimedOutStreamKeepsPartial(t *testing.T) {
	m, sess := newStreamingModel(t)
	sess.Merger.Apply(chat.StreamEvent{FullContent: "Adding milk to"}, m.ActiveAgentTurn(sess.ID))

	cmd := m.AbortTimedOutStream(sess.ID)
	if cmd != nil {
		t.Error("direct mode has no partial-save command")
	}
	turn := m.Turns[1]
	if turn.Content != "Adding milk to" {
		t.Errorf("partial content: %q", turn.Content)
	}
	if turn.Complete {
		t.Error("a timed-out reply must stay marked incomplete")
	}
	if turn.Typing {
		t.Error("typing flag still set")
	}
	if m.Streaming || m.ActiveStream != nil {
		t.Error("stream state not cleared")
	}
	if m.Coordinator.History().Len() != 1 {
		t.Errorf("history: %d entries, want 1", m.Coordinator.History().Len())
	}
}

func TestAbortTimedOutStreamDropsEmptyPlaceholder(t *testing.T) {
	m, sess := newStreamingModel(t)

	m.AbortTimedOutStream(sess.ID)
	if len(m.Turns) != 1 {
		t.Fatalf("turns: %d, want the placeholder dropped", len(m.Turns))
	}
	if m.Coordinator.History().Len() != 0 {
		t.Error("nothing should be committed when no content arrived")
	}
	if m.Streaming {
		t.Error("stream state not cleared")
	}
}

func TestStreamFinishedClassification(t *testing.T) {
	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	<-expired.Done()
	if msg := streamFinished("s1", expired, expired.Err()); !msg.TimedOut || msg.Err != nil {
		t.Errorf("deadline expiry: %+v, want TimedOut with nil Err", msg)
	}

	stopped, cancel := context.WithCancel(context.Background())
	cancel()
	if msg := streamFinished("s1", stopped, stopped.Err()); msg.TimedOut || msg.Err != nil {
		t.Errorf("user stop: %+v, want neither TimedOut nor Err", msg)
	}

	boom := errors.New("connection reset")
	if msg := streamFinished("s1", context.Background(), boom); msg.TimedOut || !errors.Is(msg.Err, boom) {
		t.Errorf("transport failure: %+v, want Err passed through", msg)
	}
}

func TestAppendSystemNotice(t *testing.T) {
	m := &Model{}
	m.AppendSystemNotice("Response failed: connection reset")
	if len(m.Turns) != 1 {
		t.Fatalf("turns: %d", len(m.Turns))
	}
	turn := m.Turns[0]
	if turn.Role != chat.RoleSystem || !turn.Complete {
		t.Errorf("notice turn: %+v", turn)
	}
	if !m.SessionDirty {
		t.Error("a notice changes the session")
	}
}
