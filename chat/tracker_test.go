package chat

import (
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	t := testBase
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func TestTrackerLifecycleEventsAndStatusPushesMapToSameState(t *testing.T) {
	tests := []struct {
		name   string
		events []*ToolStatus
		want   string
	}{
		{
			name: "explicit lifecycle",
			events: []*ToolStatus{
				{Type: EventToolCallStart, ToolCallID: "c1", ToolName: "search"},
				{Type: EventToolCallExecuting, ToolCallID: "c1"},
				{Type: EventToolCallCompleted, ToolCallID: "c1"},
			},
			want: StatusCompleted,
		},
		{
			name: "generic status pushes",
			events: []*ToolStatus{
				{Type: "status", ToolCallID: "c1", ToolName: "search", Status: StatusPreparing},
				{Type: "status", ToolCallID: "c1", Status: StatusExecuting},
				{Type: "status", ToolCallID: "c1", Status: StatusCompleted},
			},
			want: StatusCompleted,
		},
		{
			name: "mixed shapes",
			events: []*ToolStatus{
				{Type: EventToolCallStart, ToolCallID: "c1", ToolName: "search"},
				{Type: "status", ToolCallID: "c1", Status: StatusExecuting},
				{Type: EventToolCallError, ToolCallID: "c1", Error: []byte(`"boom"`)},
			},
			want: StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(fixedClock())
			for _, ev := range tt.events {
				tr.Update(ev)
			}
			call, ok := tr.Get("c1")
			if !ok {
				t.Fatal("call c1 not tracked")
			}
			if call.Status != tt.want {
				t.Errorf("status: got %s, want %s", call.Status, tt.want)
			}
			if call.Name != "search" {
				t.Errorf("name: got %q", call.Name)
			}
		})
	}
}

func TestTrackerTerminalStatesAreMonotonic(t *testing.T) {
	tr := NewTracker(fixedClock())
	tr.Update(&ToolStatus{Type: EventToolCallStart, ToolCallID: "c1", ToolName: "search"})
	tr.Update(&ToolStatus{Type: EventToolCallCompleted, ToolCallID: "c1", Result: []byte(`"ok"`)})

	// Late updates after the terminal state must be ignored.
	tr.Update(&ToolStatus{Type: EventToolCallExecuting, ToolCallID: "c1"})
	tr.Update(&ToolStatus{Type: "status", ToolCallID: "c1", Status: StatusError})

	call, _ := tr.Get("c1")
	if call.Status != StatusCompleted {
		t.Errorf("terminal state changed: got %s", call.Status)
	}
	if string(call.Result) != `"ok"` {
		t.Errorf("result changed after terminal state: %s", call.Result)
	}
}

func TestTrackerIgnoresAggregateAndMalformedEvents(t *testing.T) {
	tr := NewTracker(fixedClock())
	tr.Update(nil)
	tr.Update(&ToolStatus{Type: EventToolsCompleted})
	tr.Update(&ToolStatus{Type: EventToolsCompleted, ToolCallID: "phantom"})
	tr.Update(&ToolStatus{Type: "status", ToolCallID: "c1", Status: "sideways"})
	tr.Update(&ToolStatus{Type: EventToolCallStart}) // no call id

	if got := len(tr.Calls()); got != 0 {
		t.Errorf("expected no tracked calls, got %d: %+v", got, tr.Calls())
	}
}

func TestTrackerDerivedQueries(t *testing.T) {
	tr := NewTracker(fixedClock())
	tr.Update(&ToolStatus{Type: EventToolCallStart, ToolCallID: "c1", ToolName: "a"})
	tr.Update(&ToolStatus{Type: EventToolCallStart, ToolCallID: "c2", ToolName: "b"})
	tr.Update(&ToolStatus{Type: EventToolCallStart, ToolCallID: "c3", ToolName: "c"})

	if !tr.Active() {
		t.Error("expected active calls")
	}
	if got := tr.CompletedCount(); got != 0 {
		t.Errorf("completed: got %d", got)
	}

	tr.Update(&ToolStatus{Type: EventToolCallCompleted, ToolCallID: "c1"})
	tr.Update(&ToolStatus{Type: EventToolCallError, ToolCallID: "c2"})

	if got := tr.CompletedCount(); got != 1 {
		t.Errorf("completed: got %d, want 1", got)
	}
	if !tr.Errored() {
		t.Error("expected an errored call")
	}
	if !tr.Active() {
		t.Error("c3 still preparing, expected active")
	}

	tr.Update(&ToolStatus{Type: EventToolCallCompleted, ToolCallID: "c3"})
	if tr.Active() {
		t.Error("no call should remain active")
	}

	// Order is first-seen.
	calls := tr.Calls()
	if calls[0].ID != "c1" || calls[1].ID != "c2" || calls[2].ID != "c3" {
		t.Errorf("order: got %s,%s,%s", calls[0].ID, calls[1].ID, calls[2].ID)
	}
}
