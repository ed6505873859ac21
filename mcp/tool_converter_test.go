package mcp

import (
	"testing"

	"github.com/ollama/ollama/api"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func listTool() mcptypes.Tool {
	return mcptypes.Tool{
		Name:        "update_list",
		Description: "Add or remove an item on a named list",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"list": map[string]any{
					"type":        "string",
					"description": "List name",
				},
				"action": map[string]any{
					"type": "string",
					"enum": []any{"add", "remove"},
				},
				"item": map[string]any{
					"type":        "string",
					"description": "Item text",
				},
			},
			Required: []string{"list", "action", "item"},
		},
	}
}

func TestToolsForOllama(t *testing.T) {
	out := ToolsForOllama([]mcptypes.Tool{listTool(), {Name: "search_notes", Description: "Full-text search"}})
	if len(out) != 2 {
		t.Fatalf("tools: got %d, want 2", len(out))
	}
	tool := out[0]
	if tool.Type != "function" || tool.Function.Name != "update_list" {
		t.Errorf("tool header: %+v", tool)
	}
	params := tool.Function.Parameters
	if params.Type != "object" || len(params.Required) != 3 || len(params.Properties) != 3 {
		t.Errorf("parameters: %+v", params)
	}
	action, ok := params.Properties["action"]
	if !ok {
		t.Fatal("action property missing")
	}
	if len(action.Enum) != 2 {
		t.Errorf("action enum: %v", action.Enum)
	}
	if item := params.Properties["item"]; item.Description != "Item text" {
		t.Errorf("item description: %q", item.Description)
	}
	if out[1].Function.Name != "search_notes" {
		t.Errorf("second tool: %+v", out[1].Function)
	}

	if got := ToolsForOllama(nil); len(got) != 0 {
		t.Errorf("nil input: %v", got)
	}
}

func TestOllamaProperty(t *testing.T) {
	tests := []struct {
		name  string
		input any
		check func(t *testing.T, p api.ToolProperty)
	}{
		{
			name:  "single type with description",
			input: map[string]any{"type": "string", "description": "List name"},
			check: func(t *testing.T, p api.ToolProperty) {
				if len(p.Type) != 1 || p.Type[0] != "string" || p.Description != "List name" {
					t.Errorf("got %+v", p)
				}
			},
		},
		{
			name:  "type union",
			input: map[string]any{"type": []any{"string", "null"}},
			check: func(t *testing.T, p api.ToolProperty) {
				if len(p.Type) != 2 {
					t.Errorf("types: %v", p.Type)
				}
			},
		},
		{
			name:  "array with items",
			input: map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			check: func(t *testing.T, p api.ToolProperty) {
				if p.Items == nil {
					t.Error("items dropped")
				}
			},
		},
		{
			name: "anyOf recurses",
			input: map[string]any{"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "number"},
			}},
			check: func(t *testing.T, p api.ToolProperty) {
				if len(p.AnyOf) != 2 || len(p.AnyOf[0].Type) != 1 {
					t.Errorf("anyOf: %+v", p.AnyOf)
				}
			},
		},
		{
			name: "non-map coerces through json",
			input: struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			}{Type: "boolean", Description: "flag"},
			check: func(t *testing.T, p api.ToolProperty) {
				if len(p.Type) != 1 || p.Type[0] != "boolean" || p.Description != "flag" {
					t.Errorf("got %+v", p)
				}
			},
		},
		{
			name:  "unconvertible degrades to empty",
			input: make(chan int),
			check: func(t *testing.T, p api.ToolProperty) {
				if len(p.Type) != 0 || p.Description != "" {
					t.Errorf("got %+v", p)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ollamaProperty(tt.input))
		})
	}
}

func TestToolsForOpenAI(t *testing.T) {
	out := ToolsForOpenAI([]mcptypes.Tool{listTool()})
	if len(out) != 1 {
		t.Fatalf("tools: got %d, want 1", len(out))
	}
	fn := out[0].OfFunction
	if fn == nil {
		t.Fatal("not a function tool")
	}
	if fn.Function.Name != "update_list" {
		t.Errorf("name: %q", fn.Function.Name)
	}
	params := fn.Function.Parameters
	if params["type"] != "object" {
		t.Errorf("schema type: %v", params["type"])
	}
	required, ok := params["required"].([]string)
	if !ok || len(required) != 3 {
		t.Errorf("required: %v", params["required"])
	}

	if got := ToolsForOpenAI(nil); got != nil {
		t.Errorf("nil input should return nil, got %v", got)
	}
}

func TestToolsForAnthropic(t *testing.T) {
	out := ToolsForAnthropic([]mcptypes.Tool{listTool()})
	if len(out) != 1 {
		t.Fatalf("tools: got %d, want 1", len(out))
	}
	tool := out[0].OfTool
	if tool == nil {
		t.Fatal("not a plain tool param")
	}
	if tool.Name != "update_list" {
		t.Errorf("name: %q", tool.Name)
	}
	if len(tool.InputSchema.Required) != 3 {
		t.Errorf("required: %v", tool.InputSchema.Required)
	}
	if tool.Description.Value != "Add or remove an item on a named list" {
		t.Errorf("description: %+v", tool.Description)
	}

	if got := ToolsForAnthropic(nil); got != nil {
		t.Errorf("nil input should return nil, got %v", got)
	}
}
