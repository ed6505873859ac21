package provider

import (
	"strings"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func TestToolCallInstructionsListTools(t *testing.T) {
	out := toolCallInstructions([]mcptypes.Tool{
		{Name: "update_list"},
		{Name: "search_notes"},
	})
	if !strings.Contains(out, "update_list, search_notes") {
		t.Errorf("tool names missing:\n%s", out)
	}
	if !strings.HasPrefix(out, "Tools available to you: ") {
		t.Errorf("unexpected preamble:\n%s", out)
	}
}
