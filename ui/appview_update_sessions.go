package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"plana/config"
	appmodel "plana/model"
)

// handleSessionMessage handles session-related messages
func (a AppView) handleSessionMessage(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionLoadedMsg:
		if msg.Err != nil {
			if msg.Err.Error() == "session_locked" {
				a.showAcknowledgeModal = true
				a.acknowledgeModalTitle = "Session In Use"
				a.acknowledgeModalMsg = "This session is currently being used in another Plan-A instance.\n\n" +
					"Only one instance can use a session at a time.\n\n" +
					"Options:\n" +
					"• Close the other Plan-A instance\n" +
					"• Use a different session\n" +
					"• Run Plan-A in a container for isolated instances"
				a.acknowledgeModalType = ModalTypeWarning
				return a, nil
			}
			if config.DebugLog != nil {
				config.DebugLog.Printf("Error loading session: %v", msg.Err)
			}
			return a, nil
		}

		// Unlock old session before switching
		if a.dataModel.CurrentSession != nil && a.dataModel.SessionStorage != nil {
			_ = a.dataModel.SessionStorage.UnlockSession(a.dataModel.CurrentSession.ID)
		}

		a.setCurrentSession(msg.Session)
		a.showSessionManager = false
		a.editingMessage = false
		a.renderedTurns = make(map[string]string)

		if a.dataModel.SessionStorage != nil && msg.Session != nil {
			a.dataModel.SessionStorage.SaveCurrentSessionID(msg.Session.ID)
		}

		if config.DebugLog != nil && msg.Session != nil {
			config.DebugLog.Printf("Loaded session %s with %d turns", msg.Session.ID, len(msg.Session.Turns))
		}

		cmds := []tea.Cmd{a.renderPendingMarkdown()}

		// Jump to a turn when the load came from global search
		if a.pendingScrollToTurnIdx >= 0 && a.pendingScrollToTurnIdx < len(a.dataModel.Turns) {
			a.highlightedTurnIdx = a.pendingScrollToTurnIdx
			a.highlightFlashCount = 4
			a.pendingScrollToTurnIdx = -1
			a.updateViewportContent(false)
			a.scrollToTurn(a.highlightedTurnIdx)
			cmds = append(cmds, tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
				return appmodel.FlashTickMsg{}
			}))
		} else {
			a.updateViewportContent(true)
		}

		// Start this session's tool servers when the manager was rebuilt
		// after a data directory change.
		if msg.Session != nil && a.dataModel.Config.ToolsEnabled &&
			len(msg.Session.EnabledTools) > 0 && a.dataModel.MCPManager == nil {
			if err := a.ensureMCPManager(); err == nil {
				a.toolSystem = NewToolSystemState("starting")
				cmds = append(cmds, a.toolSystem.Spinner.Tick, startToolSystemCmd(a.dataModel.MCPManager))
			} else if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Failed to recreate MCP manager: %v", err)
			}
		}

		return a, tea.Batch(cmds...)

	case sessionSavedMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Error saving session: %v", msg.Err)
			}
			return a, nil
		}
		a.dataModel.SessionDirty = false
		return a, nil

	case sessionRenamedMsg:
		if msg.Err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Error renaming session: %v", msg.Err)
		}
		return a, a.dataModel.FetchSessionList()

	case sessionExportedMsg:
		if msg.Cancelled {
			a.exportingSession = false
			a.exportCancelCtx = nil
			a.exportCancelFunc = nil
			if fileExists(a.exportTargetPath) {
				a.exportCleaningUp = true
				return a, tea.Batch(
					a.exportSpinner.Tick,
					a.dataModel.CleanupPartialFileCmd(a.exportTargetPath),
				)
			}
			a.sessionExportMode = false
			a.exportTargetPath = ""
			return a, nil
		}
		if msg.Err != nil {
			a.exportingSession = false
			a.exportCancelCtx = nil
			a.exportCancelFunc = nil
			a.sessionExportMode = false
			a.exportTargetPath = ""
			if config.DebugLog != nil {
				config.DebugLog.Printf("Export error: %v", msg.Err)
			}
			return a, nil
		}
		a.exportingSession = false
		a.exportCancelCtx = nil
		a.exportCancelFunc = nil
		a.sessionExportSuccess = msg.Path
		a.exportTargetPath = ""
		return a, nil

	case sessionImportedMsg:
		a.sessionImportPicker.Processing = false
		a.sessionImportPicker.CleaningUp = false
		a.sessionImportCancelCtx = nil
		a.sessionImportCancelFunc = nil

		if msg.Cancelled {
			a.sessionImportPicker.Reset()
			return a, nil
		}
		if msg.Err != nil {
			a.sessionImportPicker.Reset()
			if config.DebugLog != nil {
				config.DebugLog.Printf("Import error: %v", msg.Err)
			}
			return a, nil
		}

		successMsg := fmt.Sprintf("Imported: %s\nTurns: %d\nModel: %s",
			msg.Session.Name, len(msg.Session.Turns), msg.Session.Model)
		a.sessionImportPicker.Success = &successMsg
		a.sessionImportSuccess = msg.Session
		return a, a.dataModel.FetchSessionList()

	case exportCleanupDoneMsg:
		a.exportCleaningUp = false
		a.sessionExportMode = false
		a.exportTargetPath = ""
		return a, nil
	}

	return a, nil
}

// scrollToTurn centers the viewport on the given turn index.
func (a *AppView) scrollToTurn(turnIdx int) {
	if turnIdx <= 0 {
		a.viewport.GotoTop()
		return
	}
	// Estimate the line offset by re-rendering the turns above the target.
	var offset int
	for i := 0; i < turnIdx && i < len(a.dataModel.Turns); i++ {
		turn := a.dataModel.Turns[i]
		var rendered string
		switch turn.Role {
		default:
			rendered = a.formatUserTurn(turn, false)
		case "agent":
			rendered = a.formatAgentTurn(turn, false)
		}
		offset += countLines(rendered) + 1
	}

	centerOffset := offset - a.viewport.Height/2
	centerOffset = max(centerOffset, 0)
	if total := a.viewport.TotalLineCount(); centerOffset > total-a.viewport.Height {
		centerOffset = total - a.viewport.Height
	}
	a.viewport.SetYOffset(centerOffset)
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
