package mcp

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"plana/config"
)

type Client struct {
	pool       *ServerPool
	aggregator *ToolAggregator
}

func NewClient(dataDir string, cfg *config.Config) *Client {
	pool := NewServerPool(dataDir, cfg)
	return &Client{
		pool:       pool,
		aggregator: NewToolAggregator(pool),
	}
}

func (c *Client) Start(ctx context.Context, config ServerConfig) error {
	return c.pool.StartServer(ctx, config)
}

func (c *Client) Stop(ctx context.Context, serverID string) error {
	return c.pool.StopServer(ctx, serverID)
}

func (c *Client) GetTools(ctx context.Context, serverIDs []string) ([]mcptypes.Tool, error) {
	return c.aggregator.GetToolsForServers(ctx, serverIDs)
}

func (c *Client) CallTool(ctx context.Context, toolName string, args map[string]any) (*mcptypes.CallToolResult, error) {
	return c.aggregator.ExecuteTool(ctx, toolName, args)
}

func (c *Client) Shutdown(ctx context.Context) error {
	return c.pool.Shutdown(ctx)
}
