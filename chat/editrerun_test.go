package chat

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seededCoordinator() *Coordinator {
	h := NewHistory()
	h.ReplaceAll([]HistoryEntry{
		{User: "turn0", Agent: "a", UserMessageID: 10},
		{User: "turn1", Agent: "b", UserMessageID: 11},
		{User: "turn2", Agent: "c", UserMessageID: 12},
	})
	clock := testBase
	return NewCoordinator(h, func() time.Time { return clock })
}

func TestCoordinatorEditTruncatesHistory(t *testing.T) {
	c := seededCoordinator()
	if err := c.BeginEdit(11, "turn1"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	req, sess, err := c.Submit("turn1 edited")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.MessageIndex != 1 || !req.Stream || !req.Rerun || req.Content != "turn1 edited" {
		t.Errorf("request: %+v", req)
	}
	if c.History().Len() != 1 {
		t.Errorf("history after truncate: %d entries, want 1 (turn2 discarded)", c.History().Len())
	}
	if c.History().Entries()[0].User != "turn0" {
		t.Errorf("kept wrong entry: %+v", c.History().Entries()[0])
	}
	if !sess.EditRerun {
		t.Error("session not tagged as edit rerun")
	}
	if c.Phase() != PhaseSubmitting {
		t.Errorf("phase: %s", c.Phase())
	}

	c.StreamStarted()
	if c.Phase() != PhaseStreaming {
		t.Errorf("phase after stream start: %s", c.Phase())
	}
	c.Commit()
	if c.Phase() != PhaseIdle || c.Active() != nil {
		t.Errorf("not back to idle: phase=%s active=%v", c.Phase(), c.Active())
	}
}

func TestCoordinatorRejectsConcurrentEdit(t *testing.T) {
	c := seededCoordinator()
	if err := c.BeginEdit(11, "turn1"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := c.BeginEdit(12, "turn2"); !errors.Is(err, ErrEditInProgress) {
		t.Errorf("second edit: got %v, want ErrEditInProgress", err)
	}
	// The first edit is untouched.
	if _, _, err := c.Submit("still works"); err != nil {
		t.Errorf("original edit broken by rejected second edit: %v", err)
	}
}

func TestCoordinatorUnresolvableEditIsNotSubmitted(t *testing.T) {
	c := NewCoordinator(NewHistory(), func() time.Time { return testBase })
	if err := c.BeginEdit(0, ""); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	_, _, err := c.Submit("edited")
	if !errors.Is(err, ErrEditUnresolvable) {
		t.Fatalf("got %v, want ErrEditUnresolvable", err)
	}
	// Still editing, nothing truncated, no session opened.
	if c.Phase() != PhaseEditing {
		t.Errorf("phase: %s", c.Phase())
	}
	if c.Active() != nil {
		t.Error("session opened for failed submit")
	}
	c.CancelEdit()
	if c.Phase() != PhaseIdle {
		t.Errorf("phase after cancel: %s", c.Phase())
	}
}

func TestCoordinatorSubmitCancelsInFlightStream(t *testing.T) {
	c := seededCoordinator()
	sess, err := c.StartSend()
	if err != nil {
		t.Fatalf("StartSend: %v", err)
	}
	cancelled := false
	sess.Bind(func() { cancelled = true })

	if err := c.BeginEdit(11, "turn1"); err != nil {
		t.Fatalf("BeginEdit during stream: %v", err)
	}
	_, fresh, err := c.Submit("edited")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !cancelled {
		t.Error("in-flight stream not cancelled")
	}
	if fresh == sess {
		t.Error("expected a fresh session")
	}
	if c.SessionFor(sess.ID) != nil {
		t.Error("events for the cancelled session must no longer route")
	}
	if c.SessionFor(fresh.ID) != fresh {
		t.Error("events for the fresh session must route")
	}
}

func TestCoordinatorRejectsSecondConcurrentStream(t *testing.T) {
	c := seededCoordinator()
	if _, err := c.StartSend(); err != nil {
		t.Fatalf("StartSend: %v", err)
	}
	if _, err := c.StartSend(); !errors.Is(err, ErrStreamInFlight) {
		t.Errorf("second send: got %v, want ErrStreamInFlight", err)
	}
}

func TestCoordinatorStopReportsPartialContent(t *testing.T) {
	c := seededCoordinator()
	sess, _ := c.StartSend()
	ctx, cancel := context.WithCancel(context.Background())
	sess.Bind(cancel)

	turn := newAgentTurn()
	sess.Merger.Apply(StreamEvent{FullContent: "partial ans"}, turn)

	if !c.Stop() {
		t.Error("accumulated text should report partial=true")
	}
	if ctx.Err() == nil {
		t.Error("transport context not cancelled")
	}

	// Nothing accumulated: nothing to preserve.
	c.Commit()
	sess2, _ := c.StartSend()
	sess2.Bind(func() {})
	if c.Stop() {
		t.Error("empty stream should report partial=false")
	}
}
