package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"plana/chat"
	"plana/config"
	"plana/mcp"
)

// maxToolIterations caps the tool-call loop in direct mode so a model that
// keeps requesting tools cannot spin forever. On the last iteration tools are
// withheld, forcing a final answer.
const maxToolIterations = 5

// agentEmitter translates provider deltas and tool lifecycle transitions
// into the same event stream the Plan-A service would send, so the merger
// and timeline code cannot tell the two transports apart. Text is emitted
// cumulatively.
type agentEmitter struct {
	ctx    context.Context
	events chan<- chat.StreamEvent
	full   strings.Builder
}

func (e *agentEmitter) push(ev chat.StreamEvent) error {
	select {
	case e.events <- ev:
		return nil
	case <-e.ctx.Done():
		return e.ctx.Err()
	}
}

func (e *agentEmitter) content(delta string) error {
	if delta == "" {
		return nil
	}
	e.full.WriteString(delta)
	return e.push(chat.StreamEvent{FullContent: e.full.String()})
}

func (e *agentEmitter) reasoning(fragment string) error {
	if fragment == "" {
		return nil
	}
	return e.push(chat.StreamEvent{ToolStatus: &chat.ToolStatus{
		Type:             chat.EventReasoning,
		ReasoningContent: fragment,
	}})
}

func (e *agentEmitter) toolEvent(eventType, callID, toolName string, result, errPayload json.RawMessage) error {
	return e.push(chat.StreamEvent{ToolStatus: &chat.ToolStatus{
		Type:       eventType,
		ToolCallID: callID,
		ToolName:   toolName,
		Result:     result,
		Error:      errPayload,
	}})
}

func (e *agentEmitter) done() error {
	return e.push(chat.StreamEvent{FullContent: e.full.String(), Done: true})
}

// sessionProvider picks the LLM client for the current session, falling back
// to the default provider when the session's one is not initialized.
func (m *Model) sessionProvider() Provider {
	providerID := "ollama"
	if m.CurrentSession != nil && m.CurrentSession.Provider != "" {
		providerID = m.CurrentSession.Provider
	}
	client, ok := m.Providers[providerID]
	if !ok {
		client = m.Provider
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] session provider '%s' not found, using fallback", providerID)
		}
	}
	if client != nil && m.CurrentSession != nil && m.CurrentSession.Model != "" {
		client.SetModel(m.CurrentSession.Model)
	}
	return client
}

// runAgentCmd drives one exchange against the LLM provider directly,
// executing tool calls through the MCP manager and emitting the synthesized
// event stream into the handle's channel.
func (m *Model) runAgentCmd(h *StreamHandle, prompt string) tea.Cmd {
	client := m.sessionProvider()
	mcpManager := m.MCPManager
	systemPrompt := m.BuildSystemPrompt()
	historyEntries := m.History().Entries()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chat.SafetyTimeout)
		h.Session.Bind(cancel)
		defer cancel()
		defer close(h.Events)

		if client == nil {
			return StreamFinishedMsg{SessionID: h.Session.ID, Err: fmt.Errorf("no LLM provider available")}
		}
		err := runAgentLoop(ctx, client, mcpManager, systemPrompt, historyEntries, prompt, h.Events)
		return streamFinished(h.Session.ID, ctx, err)
	}
}

func runAgentLoop(ctx context.Context, client Provider, mcpManager *mcp.MCPManager, systemPrompt string, history []chat.HistoryEntry, prompt string, events chan<- chat.StreamEvent) error {
	em := &agentEmitter{ctx: ctx, events: events}

	var tools []mcptypes.Tool
	if mcpManager != nil {
		var err error
		tools, err = mcpManager.GetTools(ctx)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Agent] tool discovery failed, continuing without tools: %v", err)
			}
			tools = nil
		}
	}

	convo := historyMessages(history)
	convo = append(convo, Message{Role: "user", Content: prompt})
	messages := buildAPIMessages(convo, systemPrompt, tools)

	for iteration := 0; ; iteration++ {
		var segment strings.Builder
		var calls []ToolCall
		err := client.ChatWithTools(ctx, messages, tools, func(delta StreamDelta) error {
			if delta.Reasoning != "" {
				if err := em.reasoning(delta.Reasoning); err != nil {
					return err
				}
			}
			if delta.Content != "" {
				segment.WriteString(delta.Content)
				if err := em.content(delta.Content); err != nil {
					return err
				}
			}
			calls = append(calls, delta.ToolCalls...)
			return nil
		})
		if err != nil {
			return err
		}

		if len(calls) == 0 {
			return em.done()
		}

		if segment.Len() > 0 {
			messages = append(messages, Message{Role: "assistant", Content: segment.String()})
		}

		for _, call := range calls {
			if err := runToolCall(ctx, em, mcpManager, call, &messages); err != nil {
				return err
			}
		}

		// Force a final answer on the last pass.
		if iteration+1 >= maxToolIterations {
			tools = nil
		}
	}
}

// runToolCall executes one tool call, emitting its full lifecycle and
// appending the result to the provider conversation. Execution failures are
// reported to the model as tool output rather than aborting the exchange.
func runToolCall(ctx context.Context, em *agentEmitter, mcpManager *mcp.MCPManager, call ToolCall, messages *[]Message) error {
	callID := call.ID
	if callID == "" {
		callID = uuid.NewString()
	}
	if err := em.toolEvent(chat.EventToolCallStart, callID, call.Name, nil, nil); err != nil {
		return err
	}
	if err := em.toolEvent(chat.EventToolCallExecuting, callID, call.Name, nil, nil); err != nil {
		return err
	}

	if mcpManager == nil {
		errPayload, _ := json.Marshal("no tool runtime available")
		if err := em.toolEvent(chat.EventToolCallError, callID, call.Name, nil, errPayload); err != nil {
			return err
		}
		*messages = append(*messages, Message{Role: "tool", Content: fmt.Sprintf("Error executing %s: no tool runtime available", call.Name)})
		return nil
	}

	result, execErr := mcpManager.ExecuteTool(ctx, call.Name, call.Arguments)
	if execErr != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Agent] tool %s failed: %v", call.Name, execErr)
		}
		errPayload, _ := json.Marshal(execErr.Error())
		if err := em.toolEvent(chat.EventToolCallError, callID, call.Name, nil, errPayload); err != nil {
			return err
		}
		*messages = append(*messages, Message{Role: "tool", Content: fmt.Sprintf("Error executing %s: %v", call.Name, execErr)})
		return nil
	}

	resultText := toolResultText(result)
	resultPayload, _ := json.Marshal(resultText)
	if err := em.toolEvent(chat.EventToolCallCompleted, callID, call.Name, resultPayload, nil); err != nil {
		return err
	}
	*messages = append(*messages, Message{Role: "tool", Content: resultText})
	return nil
}

// toolResultText flattens an MCP call result into text for the provider
// conversation.
func toolResultText(result *mcptypes.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return "Tool executed successfully (no output)"
	}
	resultBytes, err := json.Marshal(result.Content)
	if err != nil {
		return fmt.Sprintf("Tool result (marshal error): %v", err)
	}
	return string(resultBytes)
}

// historyMessages converts committed exchanges into provider messages.
func historyMessages(entries []chat.HistoryEntry) []Message {
	var messages []Message
	for _, e := range entries {
		messages = append(messages, Message{Role: "user", Content: e.User})
		if e.Agent != "" {
			messages = append(messages, Message{Role: "assistant", Content: e.Agent})
		}
	}
	return messages
}
