package testutil

import (
	"time"

	"plana/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// TestMessages returns a sample conversation for testing.
func TestMessages() []model.Message {
	return []model.Message{
		{
			Role:      "user",
			Content:   "Find my notes about the launch",
			Timestamp: time.Now(),
		},
		{
			Role:      "assistant",
			Content:   "I found three notes mentioning the launch.",
			Timestamp: time.Now(),
		},
		{
			Role:      "user",
			Content:   "Summarize the first one",
			Timestamp: time.Now(),
		},
	}
}

// SingleUserMessage returns a single user message for simple tests.
func SingleUserMessage(content string) []model.Message {
	return []model.Message{
		{
			Role:      "user",
			Content:   content,
			Timestamp: time.Now(),
		},
	}
}

// TestMCPTools returns sample MCP tools for testing.
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "search_notes",
			Description: "Search notes by keyword",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search keywords",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "read_note",
			Description: "Read a note's full content by id",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "The note id",
					},
				},
				Required: []string{"id"},
			},
		},
	}
}

// EmptyMessages returns an empty message slice for edge case testing.
func EmptyMessages() []model.Message {
	return []model.Message{}
}

// SystemMessage returns a system message for testing.
func SystemMessage(content string) model.Message {
	return model.Message{
		Role:      "system",
		Content:   content,
		Timestamp: time.Now(),
	}
}
