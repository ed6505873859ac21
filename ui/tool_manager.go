package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plana/config"
	"plana/mcp"
)

// toolServerRow is one entry in the tool manager list: the config
// declaration joined with the server's runtime state.
type toolServerRow struct {
	Decl           config.ToolServerConfig
	Running        bool
	FailedErr      error
	SessionEnabled bool
}

// ToolManagerState holds the tool server manager modal state. Servers are
// declared in config.toml; this modal toggles them per session and shows
// their runtime status.
type ToolManagerState struct {
	rows        []toolServerRow
	selectedIdx int
	busy        bool
	busyServer  string
	busyOp      string // "starting", "stopping", "restarting"
	errorMsg    string
}

// toolServerOpMsg reports completion of an async start/stop/restart.
type toolServerOpMsg struct {
	ServerID string
	Op       string
	Err      error
}

// toolSystemStartedMsg reports completion of a whole-system startup.
type toolSystemStartedMsg struct {
	Err error
}

// ToolSystemState drives the startup/shutdown progress modal shown while
// tool servers come up or drain.
type ToolSystemState struct {
	Active              bool
	Operation           string // "starting" or "stopping"
	Phase               string // "waiting", "error", "unresponsive"
	Spinner             spinner.Model
	UnresponsiveServers []string
	ErrorMsg            string
	StartTime           time.Time
}

func NewToolSystemState(operation string) ToolSystemState {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(successColor)
	return ToolSystemState{
		Active:    true,
		Operation: operation,
		Phase:     "waiting",
		Spinner:   sp,
		StartTime: time.Now(),
	}
}

func startToolSystemCmd(mgr *mcp.MCPManager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return toolSystemStartedMsg{Err: mgr.StartAllEnabledServers(ctx)}
	}
}

// openToolManager rebuilds the row list from config and runtime state.
func (a *AppView) openToolManager() {
	a.toolManager = ToolManagerState{}
	a.refreshToolManagerRows()
	a.showToolManager = true
}

func (a *AppView) refreshToolManagerRows() {
	cfg := a.dataModel.Config
	mgr := a.dataModel.MCPManager

	var active map[string]bool
	var failed map[string]error
	if mgr != nil {
		active = make(map[string]bool)
		for _, name := range mgr.GetActiveServerNames() {
			active[name] = true
		}
		failed = mgr.GetFailedServers()
	}

	rows := make([]toolServerRow, 0, len(cfg.ToolServers))
	for _, decl := range cfg.ToolServers {
		row := toolServerRow{Decl: decl}
		if active != nil {
			row.Running = active[decl.Name] || active[decl.ID]
		}
		if failed != nil {
			row.FailedErr = failed[decl.ID]
		}
		if s := a.dataModel.CurrentSession; s != nil {
			row.SessionEnabled = s.IsToolEnabled(decl.ID)
		}
		rows = append(rows, row)
	}
	sel := a.toolManager.selectedIdx
	if sel >= len(rows) {
		sel = max(0, len(rows)-1)
	}
	a.toolManager.rows = rows
	a.toolManager.selectedIdx = sel
}

func (a AppView) handleToolManagerKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	kb := a.keyBindings
	tm := &a.toolManager
	key := msg.String()

	if tm.busy {
		// Operations are short; only allow bailing out entirely.
		if key == "esc" {
			a.showToolManager = false
		}
		return a, nil
	}
	if tm.errorMsg != "" {
		if key == "enter" || key == "esc" {
			tm.errorMsg = ""
		}
		return a, nil
	}

	switch key {
	case "esc", kb.GetActionKey("tool_manager"):
		a.showToolManager = false
		return a, nil

	case kb.GetActionKey("tool_down"), kb.GetActionKey("tool_down_arrow"):
		if tm.selectedIdx < len(tm.rows)-1 {
			tm.selectedIdx++
		}
		return a, nil

	case kb.GetActionKey("tool_up"), kb.GetActionKey("tool_up_arrow"):
		if tm.selectedIdx > 0 {
			tm.selectedIdx--
		}
		return a, nil

	case kb.GetActionKey("tool_toggle"):
		return a.toggleSelectedToolServer()

	case kb.GetActionKey("tool_restart"):
		mgr := a.dataModel.MCPManager
		if mgr == nil {
			tm.errorMsg = "Tool servers are disabled. Enable them in Settings first."
			return a, nil
		}
		tm.busy = true
		tm.busyOp = "restarting"
		tm.busyServer = ""
		return a, tea.Batch(a.loadingSpinner.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return toolServerOpMsg{Op: "restart", Err: mgr.Restart(ctx)}
		})
	}

	return a, nil
}

// toggleSelectedToolServer flips the selected server's per-session enable
// flag, starting or stopping the process to match.
func (a AppView) toggleSelectedToolServer() (AppView, tea.Cmd) {
	tm := &a.toolManager
	if tm.selectedIdx >= len(tm.rows) {
		return a, nil
	}
	row := tm.rows[tm.selectedIdx]
	session := a.dataModel.CurrentSession
	if session == nil {
		tm.errorMsg = "No session loaded. Create a session before enabling tools."
		return a, nil
	}
	mgr := a.dataModel.MCPManager
	if mgr == nil || !mgr.IsEnabled() {
		tm.errorMsg = "Tool servers are disabled. Enable them in Settings first."
		return a, nil
	}

	serverID := row.Decl.ID
	enabling := !row.SessionEnabled
	if enabling {
		session.EnableTool(serverID)
	} else {
		session.DisableTool(serverID)
	}
	_ = mgr.SetSession(session)
	a.dataModel.SessionDirty = true

	tm.busy = true
	tm.busyServer = row.Decl.Name
	if enabling {
		tm.busyOp = "starting"
	} else {
		tm.busyOp = "stopping"
	}

	op := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var err error
		if enabling {
			err = mgr.StartServer(ctx, serverID)
		} else {
			err = mgr.StopServer(ctx, serverID)
		}
		op := "stop"
		if enabling {
			op = "start"
		}
		return toolServerOpMsg{ServerID: serverID, Op: op, Err: err}
	}
	return a, tea.Batch(a.loadingSpinner.Tick, op, a.dataModel.SaveCurrentSession())
}

func (a AppView) handleToolManagerMessage(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case toolServerOpMsg:
		a.toolManager.busy = false
		a.toolManager.busyServer = ""
		if msg.Err != nil {
			a.toolManager.errorMsg = msg.Err.Error()
			// A failed start leaves the session flag set but no process;
			// roll the flag back so the UI matches reality.
			if msg.Op == "start" && a.dataModel.CurrentSession != nil {
				a.dataModel.CurrentSession.DisableTool(msg.ServerID)
				if a.dataModel.MCPManager != nil {
					_ = a.dataModel.MCPManager.SetSession(a.dataModel.CurrentSession)
				}
			}
		}
		a.refreshToolManagerRows()
		return a, nil

	case toolSystemStartedMsg:
		if a.toolSystem.Operation == "starting" {
			if msg.Err != nil {
				a.toolSystem.Phase = "error"
				a.toolSystem.ErrorMsg = msg.Err.Error()
			} else {
				a.toolSystem.Active = false
			}
		}
		if a.showToolManager {
			a.refreshToolManagerRows()
		}
		return a, nil
	}
	return a, nil
}

func (a AppView) renderToolManager() string {
	tm := a.toolManager
	modalWidth := a.width - 10
	if modalWidth > 100 {
		modalWidth = 100
	}

	if tm.errorMsg != "" {
		return RenderAcknowledgeModal("Tool Server Error", tm.errorMsg, ModalTypeError, a.width, a.height)
	}

	var messageLines []string
	line := func(s string) {
		messageLines = append(messageLines, lipgloss.NewStyle().Width(modalWidth).Align(lipgloss.Left).Render(s))
	}

	if tm.busy {
		target := tm.busyServer
		if target == "" {
			target = "all servers"
		}
		line(fmt.Sprintf("  %s %s %s...", a.loadingSpinner.View(), tm.busyOp, target))
		return RenderThreeSectionModal("Tool Servers", messageLines, "Esc Close",
			ModalTypeInfo, modalWidth, a.width, a.height)
	}

	if len(tm.rows) == 0 {
		line("  No tool servers declared.")
		line("")
		line("  Add [[tool_servers]] entries to config.toml to make MCP")
		line("  tools available to the assistant.")
		return RenderThreeSectionModal("Tool Servers", messageLines, "Esc Close",
			ModalTypeInfo, modalWidth, a.width, a.height)
	}

	sessionName := "no session"
	if s := a.dataModel.CurrentSession; s != nil {
		sessionName = s.Name
	}
	line(DimStyle.Render(fmt.Sprintf("  Session: %s", sessionName)))
	line("")

	for i, row := range tm.rows {
		indicator := "  "
		if i == tm.selectedIdx {
			indicator = "▶ "
		}

		var status string
		switch {
		case row.FailedErr != nil:
			status = ToolErrorStyle.Render("● failed")
		case row.Running:
			status = ToolDoneStyle.Render("● running")
		default:
			status = DimStyle.Render("○ stopped")
		}

		enabled := " "
		if row.SessionEnabled {
			enabled = SelectedStyle.Render("✓")
		}

		transport := row.Decl.Transport
		if transport == "" {
			transport = "stdio"
		}

		name := row.Decl.Name
		if i == tm.selectedIdx {
			name = SelectedStyle.Render(name)
		}

		line(fmt.Sprintf("%s%s %s  %s  %s", indicator, enabled, name, status, DimStyle.Render(transport)))
		if row.FailedErr != nil && i == tm.selectedIdx {
			line(ToolErrorStyle.Render("      " + truncateOneLine(row.FailedErr.Error(), modalWidth-8)))
		}
	}

	line("")
	line(DimStyle.Render("  ✓ = enabled for this session"))

	footer := FormatFooter("j/k", "Navigate", "t", "Toggle",
		a.keyBindings.DisplayActionKey("tool_restart"), "Restart All", "Esc", "Close")
	return RenderThreeSectionModal("Tool Servers", messageLines, footer,
		ModalTypeInfo, modalWidth, a.width, a.height)
}

// RenderToolSystemModal renders tool system startup/shutdown progress.
func RenderToolSystemModal(state ToolSystemState, width, height int) string {
	if state.Operation == "starting" {
		switch state.Phase {
		case "waiting":
			return renderSpinnerModal("Starting tool servers...", state.Spinner.View(), width, height)
		case "error":
			return RenderAcknowledgeModal("Tool Server Startup Failed", state.ErrorMsg,
				ModalTypeError, width, height)
		}
	}

	if state.Operation == "stopping" {
		switch state.Phase {
		case "waiting":
			return renderSpinnerModal("Shutting down tool servers...", state.Spinner.View(), width, height)
		case "unresponsive":
			return renderUnresponsiveWarning(state.UnresponsiveServers, state.ErrorMsg, width, height)
		}
	}

	return ""
}

// renderUnresponsiveWarning lists servers ignoring shutdown and offers to
// wait or quit anyway.
func renderUnresponsiveWarning(servers []string, errorMsg string, width, height int) string {
	modalWidth := 55
	if width < modalWidth+10 {
		modalWidth = width - 10
	}

	var messageLines []string
	left := lipgloss.NewStyle().Width(modalWidth).Align(lipgloss.Left)

	messageLines = append(messageLines, left.Render("These tool servers are not responding to shutdown:"))
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))
	for _, name := range servers {
		messageLines = append(messageLines, left.Render("  • "+name))
	}
	if errorMsg != "" {
		messageLines = append(messageLines, strings.Repeat(" ", modalWidth))
		wrapped := wordWrap("Reason: "+errorMsg, modalWidth-4)
		for _, line := range strings.Split(wrapped, "\n") {
			messageLines = append(messageLines, left.Foreground(dimColor).Render(line))
		}
	}

	footer := FormatFooter("y", "Wait", "n", "Quit Now")
	return RenderThreeSectionModal("⚠  Tool Server Shutdown", messageLines, footer,
		ModalTypeWarning, modalWidth, width, height)
}
