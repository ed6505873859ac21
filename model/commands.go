package model

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"plana/config"
)

// BuildSystemPrompt returns the system prompt for the current session or default
func (m *Model) BuildSystemPrompt() string {
	if m.CurrentSession != nil && m.CurrentSession.SystemPrompt != "" {
		return m.CurrentSession.SystemPrompt
	}
	if m.Config.DefaultSystemPrompt != "" {
		return m.Config.DefaultSystemPrompt
	}
	return ""
}

// escapeQuotesForOllama escapes quotes in system prompts to prevent Ollama server bugs
// when tools are present. Ollama has a known issue where unescaped quotes in system prompts
// can break tool calling, causing models to output malformed tool calls or use wrong formats.
// Reference: https://github.com/ollama/ollama/issues/12751
func escapeQuotesForOllama(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// buildMinimalToolPrompt creates ultra-minimal tool instructions (~25 tokens)
// that work universally across all model sizes. Only essential guidance: what
// tools exist, when to use them, and to execute silently.
func buildMinimalToolPrompt(tools []mcptypes.Tool) string {
	toolNames := []string{}
	for _, tool := range tools {
		toolNames = append(toolNames, tool.Name)
	}

	return fmt.Sprintf(
		"TOOLS: %s\n\n"+
			"If you don't know something → use a tool.\n"+
			"Otherwise → answer directly.\n\n"+
			"Don't tell the user how you will use a tool. Just execute the tool call.\n\n"+
			"If the task is too big, split them into multiple sub-tasks\n\n"+
			"Summarize what you did in a short and concise way after you are done",
		strings.Join(toolNames, ", "),
	)
}

// buildAPIMessages assembles the provider conversation:
//
// Layer 1: Minimal tool instructions (only if tools present)
// Layer 2: User's system prompt (behavioral context)
// Layer 3: Conversation messages (task)
func buildAPIMessages(convo []Message, systemPrompt string, tools []mcptypes.Tool) []Message {
	var messages []Message
	hasTools := len(tools) > 0

	if hasTools {
		messages = append(messages, Message{
			Role:    "system",
			Content: buildMinimalToolPrompt(tools),
		})
	}

	if systemPrompt != "" {
		content := systemPrompt
		// Quotes in system prompts break Ollama's tool calling; see
		// escapeQuotesForOllama.
		if hasTools {
			content = escapeQuotesForOllama(content)
		}
		messages = append(messages, Message{
			Role:    "system",
			Content: content,
		})
	}

	for _, msg := range convo {
		if msg.Role == "user" || msg.Role == "assistant" || msg.Role == "tool" {
			messages = append(messages, Message{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	return messages
}

// FetchModelList retrieves the list of available models from the current provider.
// showSelector: whether to auto-show the model selector after fetch.
func (m *Model) FetchModelList(showSelector bool) tea.Cmd {
	client := m.Provider
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := client.ListModels(ctx)
		return ModelsListMsg{
			Models:       models,
			Err:          err,
			ShowSelector: showSelector,
		}
	}
}

// getDefaultEditor returns the user's preferred editor from environment variables
func getDefaultEditor() string {
	editor := os.Getenv("PLANA_EDITOR")
	if editor != "" {
		return editor
	}

	editor = os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor != "" {
		return editor
	}

	if runtime.GOOS == "windows" {
		return "notepad"
	}

	preferredEditors := []string{"nano", "nvim", "vim", "vi", "emacs"}
	for _, ed := range preferredEditors {
		if _, err := exec.LookPath(ed); err == nil {
			return ed
		}
	}

	// vi is POSIX standard
	return "vi"
}

// OpenExternalEditor opens the user's preferred text editor to compose a message
func (m *Model) OpenExternalEditor(currentContent string) tea.Cmd {
	// Secure temp file in the cache directory, never synced to cloud
	tmpPath := config.GetEditorTempFile()

	tmpFile, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return func() tea.Msg {
			return EditorErrorMsg{Err: err}
		}
	}

	if currentContent != "" {
		if _, err := tmpFile.WriteString(currentContent); err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return func() tea.Msg {
				return EditorErrorMsg{Err: err}
			}
		}
	}
	tmpFile.Close()

	editor := getDefaultEditor()

	cmd := exec.Command(editor, tmpPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		content, readErr := os.ReadFile(tmpPath)

		// The file is reused; it is cleared once the message is sent.

		if err != nil {
			return EditorErrorMsg{Err: err}
		}
		if readErr != nil {
			return EditorErrorMsg{Err: readErr}
		}

		return EditorContentMsg{Content: string(content)}
	})
}
