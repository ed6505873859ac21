package provider

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// toolCallInstructions builds the system-prompt block that pushes a model to
// call tools instead of describing them. Injected ahead of the user's system
// prompt for the cloud providers; Ollama models take tool declarations
// natively and skip it. Shared verbatim across vendors - the failure mode it
// prevents (narrating the tool instead of calling it) is the same everywhere.
func toolCallInstructions(tools []mcptypes.Tool) string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}

	var b strings.Builder
	b.WriteString("Tools available to you: ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString("\n\n")
	b.WriteString("When a request needs a tool, call it. Ask only for a missing required\n")
	b.WriteString("parameter; otherwise call immediately, without announcing the call,\n")
	b.WriteString("listing your tools, or asking what to do next.\n\n")
	b.WriteString("Example:\n")
	b.WriteString("User: 'add milk to the shopping list'\n")
	b.WriteString("You: [call update_list(list='shopping', action='add', item='milk')]\n")
	b.WriteString("NOT: 'I can manage lists for you. Which list should I use?'\n")
	return b.String()
}
