package ui

import (
	"fmt"
	"os"

	"plana/mcp"
)

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func stringToBool(s string) bool {
	return s == "true"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ensureMCPManager recreates the MCP manager after it was destroyed by a
// data directory change, and re-binds the current session.
func (a *AppView) ensureMCPManager() error {
	if a.dataModel.MCPManager != nil {
		return nil
	}
	cfg := a.dataModel.Config
	if !cfg.ToolsEnabled {
		return fmt.Errorf("tool servers are disabled in settings")
	}
	a.dataModel.MCPManager = mcp.NewMCPManager(cfg, cfg.DataDir())
	if a.dataModel.CurrentSession != nil {
		return a.dataModel.MCPManager.SetSession(a.dataModel.CurrentSession)
	}
	return nil
}
