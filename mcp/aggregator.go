package mcp

import (
	"context"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ToolAggregator namespaces and routes tools across the running servers.
// Tool names are exposed to the model as "serverID.toolName" so calls can be
// routed back to the right server.
type ToolAggregator struct {
	pool *ServerPool
}

func NewToolAggregator(pool *ServerPool) *ToolAggregator {
	return &ToolAggregator{
		pool: pool,
	}
}

func (ta *ToolAggregator) GetToolsForServers(ctx context.Context, serverIDs []string) ([]mcptypes.Tool, error) {
	var allTools []mcptypes.Tool

	for _, serverID := range serverIDs {
		tools, err := ta.pool.GetTools(serverID)
		if err != nil {
			continue
		}

		for _, tool := range tools {
			namespacedTool := tool
			namespacedTool.Name = serverID + "." + tool.Name
			allTools = append(allTools, namespacedTool)
		}
	}

	return allTools, nil
}

func (ta *ToolAggregator) ExecuteTool(ctx context.Context, toolName string, args map[string]any) (*mcptypes.CallToolResult, error) {
	serverID, actualToolName := parseToolName(toolName)

	client, err := ta.pool.GetClient(serverID)
	if err != nil {
		return nil, err
	}

	return client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      actualToolName,
			Arguments: args,
		},
	})
}

func parseToolName(namespacedName string) (string, string) {
	idx := strings.Index(namespacedName, ".")
	if idx == -1 {
		return "", namespacedName
	}
	return namespacedName[:idx], namespacedName[idx+1:]
}
