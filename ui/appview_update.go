package ui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"plana/chat"
	"plana/config"
	appmodel "plana/model"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	// The loading spinner must tick before anything else or it freezes while
	// a stream is active.
	if a.dataModel.Streaming {
		a.loadingSpinner, spCmd = a.loadingSpinner.Update(msg)
	}
	if a.exportingSession || a.exportCleaningUp || a.sessionImportPicker.Processing {
		var cmd tea.Cmd
		a.exportSpinner, cmd = a.exportSpinner.Update(msg)
		spCmd = tea.Batch(spCmd, cmd)
	}
	if a.toolSystem.Active {
		var cmd tea.Cmd
		a.toolSystem.Spinner, cmd = a.toolSystem.Spinner.Update(msg)
		spCmd = tea.Batch(spCmd, cmd)
	}

	// The import file picker needs every message type except keys; keys go
	// through handleSessionManagerKey so file selection is checked first.
	if a.sessionImportPicker.Active && !a.sessionImportPicker.Processing && !a.sessionImportPicker.CleaningUp {
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			var cmd tea.Cmd
			a.sessionImportPicker.Picker, cmd = a.sessionImportPicker.Picker.Update(msg)
			spCmd = tea.Batch(spCmd, cmd)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return a.handleWindowSize(msg, spCmd)

	case tea.KeyMsg:
		return a.handleKey(msg, spCmd)

	case spinner.TickMsg:
		return a, spCmd

	case streamEventMsg:
		return a.handleStreamEvent(msg, spCmd)

	case streamFinishedMsg:
		return a.handleStreamFinished(msg, spCmd)

	case historyRefreshedMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] History refresh failed: %v", msg.Err)
			}
			return a, spCmd
		}
		a.dataModel.History().ReplaceAll(msg.Entries)
		return a, spCmd

	case partialSavedMsg:
		if msg.Err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Failed to save partial response: %v", msg.Err)
		}
		return a, spCmd

	case conversationCreatedMsg:
		if msg.Err != nil {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "Backend Unreachable"
			a.acknowledgeModalMsg = "Could not create a conversation on the Plan-A service:\n\n" +
				msg.Err.Error() + "\n\nCheck the server URL in Settings."
			a.acknowledgeModalType = ModalTypeError
			return a, spCmd
		}
		a.dataModel.ConversationID = msg.ConversationID
		return a, spCmd

	case markdownRenderedMsg:
		return a.handleMarkdownRendered(msg, spCmd)

	case modelsListMsg:
		return a.handleModelsList(msg, spCmd)

	case sessionsListMsg:
		if msg.Err == nil {
			a.sessionList = msg.Sessions
			if a.selectedSessionIdx >= len(a.sessionList) {
				a.selectedSessionIdx = max(0, len(a.sessionList)-1)
			}
		}
		return a, spCmd

	case sessionLoadedMsg, sessionSavedMsg, sessionRenamedMsg,
		sessionExportedMsg, sessionImportedMsg, exportCleanupDoneMsg:
		var cmd tea.Cmd
		a, cmd = a.handleSessionMessage(msg)
		return a, tea.Batch(spCmd, cmd)

	case flashTickMsg:
		return a.handleFlashTick(spCmd)

	case shutdownProgressMsg:
		return a.handleShutdownProgress(msg, spCmd)

	case toolServerOpMsg, toolSystemStartedMsg:
		var cmd tea.Cmd
		a, cmd = a.handleToolManagerMessage(msg)
		return a, tea.Batch(spCmd, cmd)

	case settingsSaveMsg, ollamaValidationMsg, dataDirectoryLoadedMsg,
		dataDirectoryNotFoundMsg, providerFieldsSavedMsg:
		var cmd tea.Cmd
		a, cmd = a.handleSettingsMessage(msg)
		return a, tea.Batch(spCmd, cmd)

	case editorContentMsg:
		a.textarea.SetValue(msg.Content)
		a.textarea.Focus()
		return a, spCmd

	case editorErrorMsg:
		a.flash("editor: " + msg.Err.Error())
		return a, spCmd
	}

	// Widget passthrough for anything unhandled (cursor blink etc.)
	if !a.anyModalOpen() {
		a.textarea, tiCmd = a.textarea.Update(msg)
		a.viewport, vpCmd = a.viewport.Update(msg)
	}
	return a, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (a AppView) handleWindowSize(msg tea.WindowSizeMsg, spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	a.width = msg.Width
	a.height = msg.Height

	headerHeight := 2
	footerHeight := a.textarea.Height() + 2

	if !a.ready {
		a.viewport = newChatViewport(msg.Width, msg.Height-headerHeight-footerHeight)
		a.ready = true
		if a.dataModel.NeedsInitialRender {
			a.dataModel.NeedsInitialRender = false
			a.updateViewportContent(true)
			return a, tea.Batch(spCmd, a.renderPendingMarkdown())
		}
	} else {
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - headerHeight - footerHeight
	}
	a.textarea.SetWidth(msg.Width - 2)
	a.updateViewportContent(false)
	return a, spCmd
}

// handleKey routes key presses. Priority order matters: the global quit
// check runs first, then open modals consume keys, then main-view toggles
// and chat actions.
func (a AppView) handleKey(msg tea.KeyMsg, spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	key := msg.String()
	kb := a.keyBindings

	// PRIORITY 0: quit, from anywhere
	if key == "ctrl+c" || (key == kb.GetActionKey("quit") && !a.inTextEntry()) {
		return a.beginShutdown(spCmd)
	}

	// PRIORITY 1: active modals consume all keys
	if a.passphraseForDataDir {
		return a.handlePassphraseForDataDir(msg)
	}
	if a.toolSystem.Active {
		var cmd tea.Cmd
		a, cmd = a.handleToolSystemKey(msg)
		return a, tea.Batch(spCmd, cmd)
	}
	if a.showAcknowledgeModal {
		if key == "enter" || key == "esc" {
			a.showAcknowledgeModal = false
		}
		return a, spCmd
	}
	if a.pendingModelSwitch != nil {
		return a.handleToolWarningKey(msg, spCmd)
	}
	if a.showHelp {
		if key == "esc" || key == kb.GetActionKey("help") {
			a.showHelp = false
		}
		return a, spCmd
	}
	if a.showAbout {
		if key == "esc" || key == kb.GetActionKey("close_about") {
			a.showAbout = false
		}
		return a, spCmd
	}
	if a.providerSettings.visible {
		return a.handleProviderSettingsInput(msg)
	}
	if a.showSettings {
		return a.handleSettingsInput(msg)
	}
	if a.showToolManager {
		var cmd tea.Cmd
		a, cmd = a.handleToolManagerKey(msg)
		return a, tea.Batch(spCmd, cmd)
	}
	if a.showNewSession || a.showEditSession {
		var cmd tea.Cmd
		a, cmd = a.handleSessionFormKey(msg)
		return a, tea.Batch(spCmd, cmd)
	}
	if a.showSessionManager {
		var cmd tea.Cmd
		a, cmd = a.handleSessionManagerKey(msg)
		return a, tea.Batch(spCmd, cmd)
	}
	if a.showModelSelector {
		var cmd tea.Cmd
		a, cmd = a.handleModelSelectorKey(msg)
		return a, tea.Batch(spCmd, cmd)
	}
	if a.showMessageSearch {
		var cmd tea.Cmd
		a, cmd = a.handleMessageSearchKey(msg)
		return a, tea.Batch(spCmd, cmd)
	}
	if a.showGlobalSearch {
		var cmd tea.Cmd
		a, cmd = a.handleGlobalSearchKey(msg)
		return a, tea.Batch(spCmd, cmd)
	}

	// PRIORITY 2: main view modal toggles
	switch key {
	case kb.GetActionKey("help"):
		a.closeAllModals()
		a.showHelp = true
		return a, spCmd
	case kb.GetActionKey("about"):
		a.closeAllModals()
		a.showAbout = true
		return a, spCmd
	case kb.GetActionKey("settings"):
		a.closeAllModals()
		a.openSettings()
		return a, spCmd
	case kb.GetActionKey("session_manager"):
		a.closeAllModals()
		a.showSessionManager = true
		a.selectedSessionIdx = 0
		return a, tea.Batch(spCmd, a.dataModel.FetchSessionList())
	case kb.GetActionKey("new_session"):
		a.closeAllModals()
		a.openSessionForm(nil)
		return a, spCmd
	case kb.GetActionKey("edit_session"):
		if a.dataModel.CurrentSession != nil {
			a.closeAllModals()
			a.openSessionFormForCurrent()
		}
		return a, spCmd
	case kb.GetActionKey("model_selector"):
		a.closeAllModals()
		a.showModelSelector = true
		return a, tea.Batch(spCmd, a.dataModel.FetchAllModels(true))
	case kb.GetActionKey("tool_manager"):
		a.closeAllModals()
		a.openToolManager()
		return a, spCmd
	case kb.GetActionKey("search_messages"):
		a.closeAllModals()
		a.showMessageSearch = true
		a.searchInput.SetValue("")
		a.searchInput.Focus()
		a.searchResults = nil
		a.searchSelectedIdx = 0
		a.searchScrollIdx = 0
		return a, spCmd
	case kb.GetActionKey("search_all_sessions"):
		a.closeAllModals()
		a.showGlobalSearch = true
		a.globalSearchInput.SetValue("")
		a.globalSearchInput.Focus()
		a.globalSearchResults = nil
		a.globalSelectedIdx = 0
		a.globalScrollIdx = 0
		return a, spCmd
	}

	// PRIORITY 3: main view actions
	switch key {
	case kb.GetActionKey("scroll_down"), kb.GetActionKey("scroll_down_arrow"):
		a.viewport.ScrollDown(1)
		return a, spCmd
	case kb.GetActionKey("scroll_up"), kb.GetActionKey("scroll_up_arrow"):
		a.viewport.ScrollUp(1)
		return a, spCmd
	case kb.GetActionKey("half_page_down"), kb.GetActionKey("half_page_down_arrow"):
		a.viewport.HalfPageDown()
		return a, spCmd
	case kb.GetActionKey("half_page_up"), kb.GetActionKey("half_page_up_arrow"):
		a.viewport.HalfPageUp()
		return a, spCmd
	case kb.GetActionKey("page_down"):
		a.viewport.PageDown()
		return a, spCmd
	case kb.GetActionKey("page_up"):
		a.viewport.PageUp()
		return a, spCmd
	case kb.GetActionKey("scroll_to_top"):
		a.viewport.GotoTop()
		return a, spCmd
	case kb.GetActionKey("scroll_to_bottom"):
		a.viewport.GotoBottom()
		return a, spCmd
	case kb.GetActionKey("yank_last_response"):
		a.yankLastResponse()
		return a, spCmd
	case kb.GetActionKey("yank_conversation"):
		a.yankConversation()
		return a, spCmd
	case kb.GetActionKey("clear_input"):
		a.textarea.SetValue("")
		return a, spCmd
	case kb.GetActionKey("external_editor"):
		return a, tea.Batch(spCmd, a.dataModel.OpenExternalEditor(a.textarea.Value()))
	case kb.GetActionKey("edit_message"):
		return a.beginEditLastPrompt(spCmd)
	}

	switch key {
	case "esc":
		if a.dataModel.Streaming {
			return a, tea.Batch(spCmd, a.stopActiveStream())
		}
		if a.editingMessage {
			a.dataModel.CancelEdit()
			a.editingMessage = false
			a.textarea.SetValue("")
			a.updateViewportContent(false)
		}
		return a, spCmd

	case "enter":
		return a.handleSubmit(spCmd)
	}

	var tiCmd tea.Cmd
	a.textarea, tiCmd = a.textarea.Update(msg)
	return a, tea.Batch(tiCmd, spCmd)
}

// inTextEntry reports whether a text input currently has focus, in which
// case bare letter keys must not trigger actions.
func (a *AppView) inTextEntry() bool {
	return !a.anyModalOpen() || a.sessionRenameMode || a.sessionFilterMode ||
		a.sessionExportMode || a.modelFilterMode || a.showMessageSearch ||
		a.showGlobalSearch || a.showNewSession || a.showEditSession
}

// handleSubmit sends a new prompt or resubmits an edited one.
func (a AppView) handleSubmit(spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(a.textarea.Value())
	if content == "" || a.dataModel.Streaming {
		return a, spCmd
	}

	if ok, reason := a.dataModel.CanSendMessage(); !ok && a.dataModel.DirectMode() {
		a.flash(reason)
		return a, spCmd
	}

	var (
		cmd tea.Cmd
		err error
	)
	if a.editingMessage {
		cmd, err = a.dataModel.SubmitEdit(content)
		a.editingMessage = false
	} else {
		cmd, err = a.dataModel.SendPrompt(content)
	}
	if err != nil {
		a.flash(err.Error())
		return a, spCmd
	}

	a.textarea.SetValue("")
	a.updateViewportContent(true)
	return a, tea.Batch(spCmd, cmd, a.loadingSpinner.Tick, a.dataModel.EnsureConversationCmd())
}

// beginEditLastPrompt loads the most recent user turn into the textarea for
// the edit-and-rerun workflow.
func (a AppView) beginEditLastPrompt(spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if a.dataModel.Streaming {
		return a, spCmd
	}
	idx := -1
	for i := len(a.dataModel.Turns) - 1; i >= 0; i-- {
		if a.dataModel.Turns[i].Role == chat.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		a.flash("nothing to edit yet")
		return a, spCmd
	}
	if err := a.dataModel.BeginEditTurn(idx); err != nil {
		a.flash(err.Error())
		return a, spCmd
	}
	a.editingMessage = true
	a.textarea.SetValue(a.dataModel.Turns[idx].Content)
	a.textarea.Focus()
	a.textarea.CursorEnd()
	a.updateViewportContent(false)
	return a, spCmd
}

func (a *AppView) stopActiveStream() tea.Cmd {
	cmd := a.dataModel.StopStream()
	a.updateViewportContent(true)
	return cmd
}

func (a *AppView) yankLastResponse() {
	for i := len(a.dataModel.Turns) - 1; i >= 0; i-- {
		t := a.dataModel.Turns[i]
		if t.Role == chat.RoleAgent && t.Content != "" {
			if err := clipboard.WriteAll(t.Content); err != nil {
				a.flash("clipboard: " + err.Error())
			} else {
				a.flash("copied last response")
			}
			return
		}
	}
	a.flash("no response to copy")
}

func (a *AppView) yankConversation() {
	var b strings.Builder
	for _, t := range a.dataModel.Turns {
		switch t.Role {
		case chat.RoleUser:
			b.WriteString("You: ")
		case chat.RoleAgent:
			b.WriteString("Assistant: ")
		}
		b.WriteString(t.Content)
		b.WriteString("\n\n")
	}
	if err := clipboard.WriteAll(b.String()); err != nil {
		a.flash("clipboard: " + err.Error())
	} else {
		a.flash("copied conversation")
	}
}

// beginShutdown saves state and stops tool servers before quitting. Running
// servers get a tracked shutdown so the user sees which ones hang.
func (a AppView) beginShutdown(spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if a.shuttingDown {
		return a, spCmd
	}
	a.shuttingDown = true
	a.dataModel.Quitting = true

	var cmds []tea.Cmd
	if a.dataModel.SessionDirty {
		cmds = append(cmds, a.dataModel.AutoSaveSession())
	}
	if err := config.SaveLastUsedProvider(a.dataModel.Config); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[UI] Failed to persist config on exit: %v", err)
	}

	mgr := a.dataModel.MCPManager
	if mgr != nil && len(mgr.GetActiveServerNames()) > 0 {
		a.toolSystem = NewToolSystemState("stopping")
		cmds = append(cmds, a.toolSystem.Spinner.Tick, shutdownToolServersCmd(mgr))
		return a, tea.Batch(append(cmds, spCmd)...)
	}
	cmds = append(cmds, tea.Quit)
	return a, tea.Batch(append(cmds, spCmd)...)
}

func shutdownToolServersCmd(mgr interface {
	ShutdownWithTracking(ctx context.Context) ([]string, error)
}) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		unresponsive, err := mgr.ShutdownWithTracking(ctx)
		if len(unresponsive) > 0 {
			return appmodel.ShutdownProgressMsg{Phase: "unresponsive", UnresponsiveNames: unresponsive, Err: err}
		}
		return appmodel.ShutdownProgressMsg{Phase: "complete", Err: err}
	}
}

func (a AppView) handleShutdownProgress(msg shutdownProgressMsg, spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.Phase {
	case "unresponsive":
		a.toolSystem.Phase = "unresponsive"
		a.toolSystem.UnresponsiveServers = msg.UnresponsiveNames
		if msg.Err != nil {
			a.toolSystem.ErrorMsg = msg.Err.Error()
		}
		return a, spCmd
	default:
		a.toolSystem.Active = false
		if a.shuttingDown {
			return a, tea.Quit
		}
		return a, spCmd
	}
}

// handleToolSystemKey handles input while the startup/shutdown modal is up.
// Only the unresponsive-servers warning accepts input.
func (a AppView) handleToolSystemKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if a.toolSystem.Phase == "unresponsive" {
		switch msg.String() {
		case "y":
			// Wait longer for the stragglers
			a.toolSystem.Phase = "waiting"
			return a, tea.Batch(a.toolSystem.Spinner.Tick, shutdownToolServersCmd(a.dataModel.MCPManager))
		case "n":
			a.toolSystem.Active = false
			return a, tea.Quit
		}
	}
	if a.toolSystem.Phase == "error" && msg.String() == "enter" {
		a.toolSystem.Active = false
	}
	return a, nil
}

func (a AppView) handleToolWarningKey(msg tea.KeyMsg, spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		info := *a.pendingModelSwitch
		a.pendingModelSwitch = nil
		a.showModelSelector = false
		return a, tea.Batch(spCmd, a.dataModel.SwitchModel(info))
	case "esc":
		a.pendingModelSwitch = nil
	}
	return a, spCmd
}

func (a AppView) handleFlashTick(spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if a.highlightFlashCount > 0 {
		a.highlightFlashCount--
		if a.highlightFlashCount == 0 {
			a.highlightedTurnIdx = -1
		}
		a.updateViewportContent(false)
		if a.highlightFlashCount > 0 {
			return a, tea.Batch(spCmd, tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
				return appmodel.FlashTickMsg{}
			}))
		}
	}
	return a, spCmd
}

func (a AppView) handleModelsList(msg modelsListMsg, spCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if msg.ShowSelector {
			a.showModelSelector = false
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "Model List Unavailable"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeWarning
		}
		return a, spCmd
	}
	a.modelList = msg.Models
	a.filteredModels = nil
	currentModel := ""
	if a.dataModel.Provider != nil {
		currentModel = a.dataModel.Provider.GetModel()
	}
	if idx, _ := FindModelByName(a.modelList, currentModel); idx >= 0 {
		a.selectedModelIdx = idx
	} else {
		a.selectedModelIdx = 0
	}
	return a, spCmd
}
