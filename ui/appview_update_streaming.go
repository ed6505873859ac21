package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"plana/chat"
	"plana/config"
	appmodel "plana/model"
)

// handleStreamEvent applies one stream event to the data model and re-arms
// the event pump. One event per Update cycle keeps the UI responsive while
// the goroutine buffers bursts.
func (a AppView) handleStreamEvent(msg streamEventMsg, spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	handle := a.dataModel.ActiveStream
	if handle == nil || !handle.Session.Accepts(msg.SessionID) {
		// Stale stream; drop without re-arming.
		return a, spCmd
	}

	a.dataModel.ApplyStreamEvent(msg)

	if msg.Event.ConversationID != 0 && a.dataModel.ConversationID == 0 {
		a.dataModel.ConversationID = msg.Event.ConversationID
	}

	// Follow output only while the user is at the bottom; respect manual
	// scrollback during a long reply.
	a.updateViewportContent(a.viewport.AtBottom())

	return a, tea.Batch(spCmd, appmodel.WaitForStreamEvent(handle))
}

// handleStreamFinished finalizes the reply: the merger's timeline freezes
// into the turn, history is reconciled, and markdown rendering kicks off.
// Failures and timeouts are reported as transcript status lines so they
// survive in scrollback.
func (a AppView) handleStreamFinished(msg streamFinishedMsg, spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if msg.TimedOut {
		save := a.dataModel.AbortTimedOutStream(msg.SessionID)
		a.dataModel.AppendSystemNotice(fmt.Sprintf(
			"Response stopped after %s without completing. Anything received so far was kept.",
			chat.SafetyTimeout))
		a.updateViewportContent(true)
		return a, tea.Batch(spCmd, save, a.dataModel.AutoSaveSession())
	}
	if msg.Err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Stream error: %v", msg.Err)
		}
		a.dataModel.AppendSystemNotice("Response failed: " + msg.Err.Error())
	}

	turnIdx := -1
	for i := len(a.dataModel.Turns) - 1; i >= 0; i-- {
		if a.dataModel.Turns[i].AgentID == msg.SessionID {
			turnIdx = i
			break
		}
	}

	refresh := a.dataModel.FinalizeStream(msg.SessionID)
	a.updateViewportContent(true)

	cmds := []tea.Cmd{spCmd, refresh, a.dataModel.AutoSaveSession()}
	if turnIdx >= 0 && turnIdx < len(a.dataModel.Turns) {
		if t := a.dataModel.Turns[turnIdx]; t.Role == chat.RoleAgent && t.Content != "" {
			cmds = append(cmds, a.renderMarkdownAsync(turnIdx, t.Content))
		}
	}
	return a, tea.Batch(cmds...)
}

// handleMarkdownRendered swaps a turn's plain text for its rendered form.
// Stale indexes can arrive after an edit rewinds the transcript; those are
// dropped.
func (a AppView) handleMarkdownRendered(msg markdownRenderedMsg, spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if msg.TurnIndex < 0 || msg.TurnIndex >= len(a.dataModel.Turns) {
		return a, spCmd
	}
	a.renderedTurns[a.dataModel.Turns[msg.TurnIndex].ID] = msg.Rendered
	a.updateViewportContent(a.viewport.AtBottom())
	return a, spCmd
}

// renderPendingMarkdown queues markdown rendering for restored turns,
// newest first since the viewport opens at the bottom.
func (a AppView) renderPendingMarkdown() tea.Cmd {
	var cmds []tea.Cmd
	for i := len(a.dataModel.Turns) - 1; i >= 0; i-- {
		t := a.dataModel.Turns[i]
		if t.Content == "" {
			continue
		}
		if _, ok := a.renderedTurns[t.ID]; ok {
			continue
		}
		cmds = append(cmds, a.renderMarkdownAsync(i, t.Content))
	}
	return tea.Batch(cmds...)
}
