// Package backend is the raw HTTP client for the Plan-A service: note
// conversations, committed chat history, and the streaming chat endpoint.
// Responses stream as NDJSON - one chat.StreamEvent per line - which keeps
// the wire shape identical to what the merger consumes.
package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plana/chat"
)

// EventCallback is invoked for every streamed event. Returning an error
// aborts the read.
type EventCallback func(ev chat.StreamEvent) error

// Client talks to one Plan-A server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client for the given server. baseURL defaults to the
// local development server when empty.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8400"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid Plan-A server URL: %w", err)
	}
	return &Client{
		// Streaming requests are long-lived; the per-request context
		// carries the timeout, not the http client.
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Plan-A server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Plan-A server returned %s", resp.Status)
	}
	return nil
}

// CreateConversation opens a new conversation and returns its id.
func (c *Client) CreateConversation(ctx context.Context) (int64, error) {
	var out struct {
		ConversationID int64 `json:"conversation_id"`
	}
	if err := c.postJSON(ctx, "/api/conversations", struct{}{}, &out); err != nil {
		return 0, fmt.Errorf("failed to create conversation: %w", err)
	}
	return out.ConversationID, nil
}

// History fetches the committed exchanges for a conversation, including the
// server-assigned message ids used for edit addressing.
func (c *Client) History(ctx context.Context, conversationID int64) ([]chat.HistoryEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/conversations/%d/history", c.baseURL, conversationID), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch returned %s", resp.Status)
	}
	var entries []chat.HistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return entries, nil
}

// StreamChat sends a user prompt and streams the agent's reply events until
// the server reports done, the stream ends, or ctx is cancelled.
func (c *Client) StreamChat(ctx context.Context, conversationID int64, content string, callback EventCallback) error {
	body := struct {
		Content string `json:"content"`
		Stream  bool   `json:"stream"`
	}{Content: content, Stream: true}
	return c.stream(ctx, fmt.Sprintf("/api/conversations/%d/chat", conversationID), body, callback)
}

// EditRerun submits an edit-and-rerun request and streams the regenerated
// reply. The server truncates its own history from req.MessageIndex onward
// before regenerating, mirroring what the coordinator did locally.
func (c *Client) EditRerun(ctx context.Context, conversationID int64, req chat.EditRequest, callback EventCallback) error {
	return c.stream(ctx, fmt.Sprintf("/api/conversations/%d/edit", conversationID), req, callback)
}

// SavePartial persists a partial agent reply after a user-initiated stop.
// Best effort: the caller logs failures but does not surface them.
func (c *Client) SavePartial(ctx context.Context, conversationID int64, content string) error {
	body := struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Partial bool   `json:"partial"`
	}{Role: chat.RoleAgent, Content: content, Partial: true}
	return c.postJSON(ctx, fmt.Sprintf("/api/conversations/%d/messages", conversationID), body, nil)
}

// stream POSTs the payload and decodes the NDJSON response line by line.
func (c *Client) stream(ctx context.Context, path string, payload any, callback EventCallback) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("stream request returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	scanner := bufio.NewScanner(resp.Body)
	// Cumulative full_content frames can be large.
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev chat.StreamEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			// A malformed frame is the server's problem, not a reason to
			// drop the rest of the reply.
			continue
		}
		if callback != nil {
			if err := callback(ev); err != nil {
				return err
			}
		}
		if ev.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s returned %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
