package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"plana/chat"
)

func TestStreamChatDeliversEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations/7/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"full_content":"Let me check.","done":false}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"full_content":"Let me check.","tool_status":{"type":"tool_call_start","tool_call_id":"c1","tool_name":"search_notes","status":"preparing"},"done":false}`)
		fmt.Fprintln(w, `{"full_content":"Let me check. Done.","done":true}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "key-1")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var events []chat.StreamEvent
	err = client.StreamChat(context.Background(), 7, "find my notes", func(ev chat.StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[1].ToolStatus == nil || events[1].ToolStatus.ToolCallID != "c1" {
		t.Errorf("second event missing tool status: %+v", events[1])
	}
	if !events[2].Done {
		t.Errorf("final event not marked done")
	}
}

func TestStreamChatSkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `not json`)
		fmt.Fprintln(w, `{"full_content":"hi","done":true}`)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "")
	var got []chat.StreamEvent
	err := client.StreamChat(context.Background(), 1, "x", func(ev chat.StreamEvent) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if len(got) != 1 || got[0].FullContent != "hi" {
		t.Fatalf("got %+v, want single hi event", got)
	}
}

func TestStreamChatCallbackErrorAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"full_content":"a","done":false}`)
		fmt.Fprintln(w, `{"full_content":"ab","done":false}`)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "")
	calls := 0
	err := client.StreamChat(context.Background(), 1, "x", func(ev chat.StreamEvent) error {
		calls++
		return fmt.Errorf("stop")
	})
	if err == nil {
		t.Fatal("expected callback error to propagate")
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestStreamChatHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conversation not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "")
	err := client.StreamChat(context.Background(), 99, "x", nil)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations/3/history" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprintln(w, `[{"user":"hi","agent":"hello","userMessageId":10,"agentMessageId":11}]`)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "")
	entries, err := client.History(context.Background(), 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].UserMessageID != 10 {
		t.Fatalf("got %+v", entries)
	}
}

func TestEditRerunSendsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations/5/edit" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprintln(w, `{"full_content":"regenerated","done":true}`)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "")
	var final string
	err := client.EditRerun(context.Background(), 5,
		chat.EditRequest{MessageIndex: 2, Content: "edited", Stream: true, Rerun: true},
		func(ev chat.StreamEvent) error {
			final = ev.FullContent
			return nil
		})
	if err != nil {
		t.Fatalf("EditRerun: %v", err)
	}
	if final != "regenerated" {
		t.Errorf("final content = %q", final)
	}
}

func TestCreateConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"conversation_id":42}`)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "")
	id, err := client.CreateConversation(context.Background())
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
}
