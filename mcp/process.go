package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	globalconfig "plana/config"
)

// ServerPool owns the running tool server processes and their MCP clients.
type ServerPool struct {
	servers map[string]*ServerProcess
	dataDir string               // For FileTokenStore
	config  *globalconfig.Config // For security settings
	mu      sync.RWMutex
}

func NewServerPool(dataDir string, cfg *globalconfig.Config) *ServerPool {
	return &ServerPool{
		servers: make(map[string]*ServerProcess),
		dataDir: dataDir,
		config:  cfg,
	}
}

func (sp *ServerPool) StartServer(ctx context.Context, config ServerConfig) error {
	isRemote := config.ServerURL != ""

	sp.mu.Lock()
	if sp.servers[config.ID] != nil && sp.servers[config.ID].Running {
		sp.mu.Unlock()
		return fmt.Errorf("tool server %s already running", config.ID)
	}
	sp.mu.Unlock()

	var mcpClient *client.Client
	var err error
	var capturedCmd *exec.Cmd

	if isRemote {
		mcpClient, err = sp.createRemoteClient(ctx, config)
		if err != nil {
			return fmt.Errorf("failed to connect to tool server %s: %w", config.ID, err)
		}

		if globalconfig.DebugLog != nil {
			globalconfig.DebugLog.Printf("[MCP] Connected to remote tool server '%s' at %s (auth: %s)",
				config.ID, config.ServerURL, config.AuthType)
		}
	} else {
		mcpClient, capturedCmd, err = sp.createLocalClient(ctx, config)
		if err != nil {
			return fmt.Errorf("failed to start tool server %s: %w", config.ID, err)
		}
	}

	// Initialize is the same for remote and local
	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "Plan-A",
				Version: "1.0.0",
			},
		},
	}

	_, err = mcpClient.Initialize(ctx, initReq)
	if err != nil {
		return fmt.Errorf("failed to initialize tool server %s: %w", config.ID, err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools for %s: %w", config.ID, err)
	}

	sp.mu.Lock()
	sp.servers[config.ID] = &ServerProcess{
		ID:      config.ID,
		Name:    config.ID,
		Process: capturedCmd, // nil for remote
		Client:  mcpClient,
		Tools:   toolsResult.Tools,
		Running: true,
		Remote:  isRemote,
		URL:     config.ServerURL,
	}
	sp.mu.Unlock()

	return nil
}

func (sp *ServerPool) StopServer(ctx context.Context, serverID string) error {
	sp.mu.Lock()

	proc, exists := sp.servers[serverID]
	if !exists {
		sp.mu.Unlock()
		return fmt.Errorf("tool server %s not found", serverID)
	}

	// Remove from map immediately so it can't be used
	proc.Running = false
	delete(sp.servers, serverID)
	sp.mu.Unlock()

	if proc.Client != nil {
		closeCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()

		if globalconfig.DebugLog != nil {
			globalconfig.DebugLog.Printf("[MCP] StopServer: Attempting to close client for '%s' (1s timeout)", serverID)
		}

		closeDone := make(chan error, 1)
		go func() {
			closeDone <- proc.Client.Close()
		}()

		select {
		case <-closeDone:
			// Closed
		case <-closeCtx.Done():
			// Timeout
		}
	}

	// Kill local process ONLY (skip for remote)
	if !proc.Remote && proc.Process != nil && proc.Process.Process != nil {
		if globalconfig.DebugLog != nil {
			globalconfig.DebugLog.Printf("[MCP] StopServer: Forcefully killing process for '%s' (PID: %d)", serverID, proc.Process.Process.Pid)
		}

		if err := proc.Process.Process.Kill(); err != nil {
			if globalconfig.DebugLog != nil {
				globalconfig.DebugLog.Printf("[MCP] StopServer: Error killing process for '%s': %v", serverID, err)
			}
		}
	}

	if globalconfig.DebugLog != nil {
		globalconfig.DebugLog.Printf("[MCP] StopServer: Tool server '%s' stopped and removed from map", serverID)
	}

	return nil
}

func (sp *ServerPool) GetClient(serverID string) (*client.Client, error) {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	proc, exists := sp.servers[serverID]
	if !exists || !proc.Running {
		return nil, fmt.Errorf("tool server %s not running", serverID)
	}

	return proc.Client, nil
}

func (sp *ServerPool) GetTools(serverID string) ([]mcptypes.Tool, error) {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	proc, exists := sp.servers[serverID]
	if !exists || !proc.Running {
		return nil, fmt.Errorf("tool server %s not running", serverID)
	}

	return proc.Tools, nil
}

func (sp *ServerPool) RefreshTools(ctx context.Context, serverID string) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	proc, exists := sp.servers[serverID]
	if !exists || !proc.Running {
		return fmt.Errorf("tool server %s not running", serverID)
	}

	toolsResult, err := proc.Client.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to refresh tools: %w", err)
	}

	proc.Tools = toolsResult.Tools
	return nil
}

func (sp *ServerPool) Shutdown(ctx context.Context) error {
	sp.mu.Lock()
	serverIDs := make([]string, 0, len(sp.servers))
	for id := range sp.servers {
		serverIDs = append(serverIDs, id)
	}
	sp.mu.Unlock()

	if globalconfig.DebugLog != nil {
		globalconfig.DebugLog.Printf("[MCP] Shutdown: Starting parallel shutdown of %d tool servers", len(serverIDs))
	}

	// Stop all servers in PARALLEL for faster shutdown
	var wg sync.WaitGroup
	errChan := make(chan error, len(serverIDs))

	for _, serverID := range serverIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := sp.StopServer(ctx, id); err != nil {
				if globalconfig.DebugLog != nil {
					globalconfig.DebugLog.Printf("[MCP] Shutdown: Error stopping tool server '%s': %v", id, err)
				}
				errChan <- err
			}
		}(serverID)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	return nil
}

// createRemoteClient creates an MCP client for remote tool servers
func (sp *ServerPool) createRemoteClient(ctx context.Context, config ServerConfig) (*client.Client, error) {
	// Default to SSE if transport not specified
	transportType := config.Transport
	if transportType == "" {
		transportType = "sse"
	}

	switch transportType {
	case "streamable-http":
		return sp.createStreamableHttpClient(ctx, config)
	case "sse":
		switch config.AuthType {
		case "oauth":
			return sp.createOAuthClient(ctx, config)
		case "headers", "none", "":
			return sp.createHeadersClient(ctx, config)
		default:
			return nil, fmt.Errorf("unknown auth type: %s", config.AuthType)
		}
	default:
		return nil, fmt.Errorf("unknown transport type: %s", transportType)
	}
}

// createHeadersClient creates a client with header-based auth (or no auth)
func (sp *ServerPool) createHeadersClient(ctx context.Context, config ServerConfig) (*client.Client, error) {
	headers := make(map[string]string)
	for key, value := range config.Env {
		headers[key] = value
	}

	var opts []transport.ClientOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHeaders(headers))
	}

	mcpClient, err := client.NewSSEMCPClient(config.ServerURL, opts...)
	if err != nil {
		return nil, err
	}

	// SSE transport must be started before Initialize/ListTools
	transportObj := mcpClient.GetTransport()
	if err := transportObj.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start SSE transport: %w", err)
	}

	return mcpClient, nil
}

// createOAuthClient creates a client with OAuth
func (sp *ServerPool) createOAuthClient(ctx context.Context, config ServerConfig) (*client.Client, error) {
	clientID := config.Env["OAUTH_CLIENT_ID"]
	clientSecret := config.Env["OAUTH_CLIENT_SECRET"]
	redirectURI := config.Env["OAUTH_REDIRECT_URI"]
	scopesStr := config.Env["OAUTH_SCOPES"]

	switch {
	case clientID == "":
		return nil, fmt.Errorf("OAUTH_CLIENT_ID required for OAuth auth")
	case redirectURI == "":
		return nil, fmt.Errorf("OAUTH_REDIRECT_URI required for OAuth auth")
	}

	var scopes []string
	if scopesStr != "" {
		scopes = strings.Split(scopesStr, ",")
	}

	// Persistent token store, reusing the credential encryption infrastructure
	var tokenStore transport.TokenStore
	switch sp.config.Security.CredentialStorage {
	case string(globalconfig.SecuritySSHKey):
		tokenStore = globalconfig.NewFileTokenStore(
			config.ID,
			sp.dataDir,
			globalconfig.SecuritySSHKey,
			sp.config.CredentialStore.GetEncryptionManager(),
		)
	case string(globalconfig.SecurityPlainText):
		tokenStore = globalconfig.NewFileTokenStore(
			config.ID,
			sp.dataDir,
			globalconfig.SecurityPlainText,
			nil,
		)
	default:
		// Fallback to memory (tokens lost on restart)
		tokenStore = transport.NewMemoryTokenStore()
	}

	oauthConfig := client.OAuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		Scopes:       scopes,
		TokenStore:   tokenStore,
		PKCEEnabled:  true,
	}

	mcpClient, err := client.NewOAuthSSEClient(config.ServerURL, oauthConfig)
	if err != nil {
		return nil, err
	}

	transportObj := mcpClient.GetTransport()
	if err := transportObj.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start SSE transport: %w", err)
	}

	if globalconfig.DebugLog != nil {
		globalconfig.DebugLog.Printf("[MCP] Created OAuth client for %s (ClientID: %s, Scopes: %v)",
			config.ID, clientID, scopes)
	}

	return mcpClient, nil
}

// createStreamableHttpClient creates a client with streamable HTTP transport
func (sp *ServerPool) createStreamableHttpClient(ctx context.Context, config ServerConfig) (*client.Client, error) {
	headers := make(map[string]string)
	for key, value := range config.Env {
		headers[key] = value
	}

	var opts []transport.StreamableHTTPCOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(headers))
	}

	mcpClient, err := client.NewStreamableHttpClient(config.ServerURL, opts...)
	if err != nil {
		return nil, err
	}

	transportObj := mcpClient.GetTransport()
	if err := transportObj.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start HTTP transport: %w", err)
	}

	return mcpClient, nil
}

// createLocalClient creates a client for local stdio tool servers
func (sp *ServerPool) createLocalClient(ctx context.Context, config ServerConfig) (*client.Client, *exec.Cmd, error) {
	env := configToEnv(config.Env)
	var capturedCmd *exec.Cmd

	if globalconfig.DebugLog != nil {
		globalconfig.DebugLog.Printf("[MCP] StartServer: Tool server '%s' - Command='%s', Args=%v",
			config.ID, config.Command, config.Args)
	}

	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		capturedCmd = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		config.Command,
		env,
		config.Args,
		transport.WithCommandFunc(cmdFunc),
	)

	if err != nil {
		return nil, nil, err
	}

	if capturedCmd != nil && capturedCmd.Process != nil && globalconfig.DebugLog != nil {
		globalconfig.DebugLog.Printf("[MCP] Started local tool server with PID %d", capturedCmd.Process.Pid)
	}

	return mcpClient, capturedCmd, nil
}

func configToEnv(envMap map[string]string) []string {
	// Start with the current process environment to preserve PATH and other
	// system vars
	env := os.Environ()

	for k, v := range envMap {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	return env
}
