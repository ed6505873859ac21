package mcp

import (
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ServerProcess tracks one running tool server and the MCP client attached
// to it. Process is nil for remote servers.
type ServerProcess struct {
	ID      string
	Name    string
	Command string
	Args    []string
	Process *exec.Cmd
	Client  *client.Client
	Tools   []mcptypes.Tool
	Running bool
	Remote  bool
	URL     string
	Error   error
}

// ServerConfig is the launch configuration for one tool server, built from
// the [[tool_servers]] entries in config.toml.
type ServerConfig struct {
	ID        string
	Command   string
	Args      []string
	Env       map[string]string
	ServerURL string
	AuthType  string
	Transport string
}
