package ui

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"plana/config"
	appmodel "plana/model"
	"plana/storage"
)

// getSessionList returns the filtered list when a filter is active.
func (a *AppView) getSessionList() []storage.SessionMetadata {
	if a.sessionFilterMode && len(a.filteredSessions) > 0 {
		return a.filteredSessions
	}
	return a.sessionList
}

func (a *AppView) getModelList() []appmodel.ModelInfo {
	if a.modelFilterMode && len(a.filteredModels) > 0 {
		return a.filteredModels
	}
	return a.modelList
}

func (a AppView) handleSessionManagerKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if a.confirmDeleteSession != nil {
		return a.handleDeleteConfirmKey(msg)
	}
	if a.sessionRenameMode {
		return a.handleSessionRenameKey(msg)
	}
	if a.sessionImportPicker.Active {
		return a.handleSessionImportKey(msg)
	}
	if a.sessionExportMode {
		return a.handleSessionExportKey(msg)
	}
	if a.sessionFilterMode {
		return a.handleSessionFilterKey(msg)
	}

	switch msg.String() {
	case "/":
		a.sessionFilterMode = true
		a.sessionFilterInput.Focus()
		a.sessionFilterInput.SetValue("")
		a.filteredSessions = a.sessionList
		return a, textinput.Blink

	case "esc":
		a.showSessionManager = false
		return a, nil

	case "j", "down":
		if a.selectedSessionIdx < len(a.getSessionList())-1 {
			a.selectedSessionIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedSessionIdx > 0 {
			a.selectedSessionIdx--
		}
		return a, nil

	case "enter":
		list := a.getSessionList()
		if a.selectedSessionIdx >= 0 && a.selectedSessionIdx < len(list) {
			return a, a.dataModel.LoadSession(list[a.selectedSessionIdx].ID)
		}
		return a, nil

	case "n":
		a.openSessionForm(nil)
		return a, textinput.Blink

	case "e":
		list := a.getSessionList()
		if a.selectedSessionIdx >= 0 && a.selectedSessionIdx < len(list) {
			meta := list[a.selectedSessionIdx]
			a.openSessionForm(&meta)
			return a, textinput.Blink
		}
		return a, nil

	case "i":
		a.sessionImportPicker.Activate()
		return a, a.sessionImportPicker.Picker.Init()

	case "r":
		list := a.getSessionList()
		if a.selectedSessionIdx >= 0 && a.selectedSessionIdx < len(list) {
			a.sessionRenameMode = true
			a.sessionRenameInput.SetValue(list[a.selectedSessionIdx].Name)
			a.sessionRenameInput.Focus()
			return a, textinput.Blink
		}
		return a, nil

	case "x":
		list := a.getSessionList()
		if a.selectedSessionIdx >= 0 && a.selectedSessionIdx < len(list) {
			a.sessionExportMode = true
			a.sessionExportSuccess = ""
			a.sessionExportInput.SetValue(storage.GenerateExportPath(list[a.selectedSessionIdx].Name))
			a.sessionExportInput.Focus()
			return a, textinput.Blink
		}
		return a, nil

	case "d":
		list := a.getSessionList()
		if a.selectedSessionIdx >= 0 && a.selectedSessionIdx < len(list) {
			meta := list[a.selectedSessionIdx]
			a.confirmDeleteSession = &meta
		}
		return a, nil
	}

	return a, nil
}

func (a AppView) handleDeleteConfirmKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "y":
		sessionID := a.confirmDeleteSession.ID
		deletingCurrent := a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.ID == sessionID
		a.confirmDeleteSession = nil

		if deletingCurrent && a.dataModel.Streaming {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "Cannot Delete Session"
			a.acknowledgeModalMsg = "Session has an active response.\nCancel the response before deleting."
			a.acknowledgeModalType = ModalTypeWarning
			return a, nil
		}

		store := a.dataModel.SessionStorage
		if deletingCurrent {
			_ = store.UnlockSession(sessionID)
			a.dataModel.Turns = nil
			a.setCurrentSession(nil)
			a.dataModel.SessionDirty = false
			a.editingMessage = false
			a.textarea.Reset()
			a.updateViewportContent(true)
		}

		return a, func() tea.Msg {
			if err := store.Delete(sessionID); err != nil {
				return sessionsListMsg{Err: err}
			}
			sessions, err := store.List()
			return sessionsListMsg{Sessions: sessions, Err: err}
		}

	case "n", "esc":
		a.confirmDeleteSession = nil
	}
	return a, nil
}

func (a AppView) handleSessionRenameKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.sessionRenameMode = false
		a.sessionRenameInput.Blur()
		return a, nil

	case "alt+u":
		a.sessionRenameInput.SetValue("")
		return a, nil

	case "enter":
		list := a.getSessionList()
		if a.selectedSessionIdx < 0 || a.selectedSessionIdx >= len(list) {
			a.sessionRenameMode = false
			return a, nil
		}
		newName := a.sessionRenameInput.Value()
		sessionID := list[a.selectedSessionIdx].ID
		a.sessionRenameMode = false
		a.sessionRenameInput.Blur()
		if newName == "" || newName == list[a.selectedSessionIdx].Name {
			return a, nil
		}
		if a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.ID == sessionID {
			a.dataModel.CurrentSession.Name = newName
		}
		return a, a.dataModel.RenameSessionCmd(sessionID, newName)
	}

	var cmd tea.Cmd
	a.sessionRenameInput, cmd = a.sessionRenameInput.Update(msg)
	return a, cmd
}

func (a AppView) handleSessionImportKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if a.sessionImportPicker.Success != nil {
		if msg.String() == "enter" || msg.String() == "esc" {
			a.sessionImportSuccess = nil
			a.sessionImportPicker.Reset()
		}
		return a, nil
	}

	if a.sessionImportPicker.Processing || a.sessionImportPicker.CleaningUp {
		if msg.String() == "esc" && a.sessionImportCancelFunc != nil {
			a.sessionImportCancelFunc()
		}
		return a, nil
	}

	if msg.String() == "esc" {
		a.sessionImportPicker.Reset()
		return a, nil
	}

	var cmd tea.Cmd
	a.sessionImportPicker.Picker, cmd = a.sessionImportPicker.Picker.Update(msg)

	// The picker sets Path once something is chosen; only files start an
	// import, directories just clear it so selection can continue.
	if path := a.sessionImportPicker.Picker.Path; path != "" {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			ctx, cancel := context.WithCancel(context.Background())
			a.sessionImportCancelCtx = ctx
			a.sessionImportCancelFunc = cancel
			a.sessionImportPicker.Processing = true

			return a, tea.Batch(
				a.dataModel.ImportSessionCmd(ctx, path),
				a.sessionImportPicker.Spinner.Tick,
			)
		}
		a.sessionImportPicker.Picker.Path = ""
	}

	return a, cmd
}

func (a AppView) handleSessionExportKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if a.sessionExportSuccess != "" {
		if msg.String() == "enter" || msg.String() == "esc" {
			a.sessionExportSuccess = ""
			a.sessionExportMode = false
			a.sessionExportInput.Blur()
		}
		return a, nil
	}

	if a.exportingSession || a.exportCleaningUp {
		if msg.String() == "esc" && !a.exportCleaningUp && a.exportCancelFunc != nil {
			a.exportCancelFunc()
		}
		return a, nil
	}

	switch msg.String() {
	case "esc":
		a.sessionExportMode = false
		a.sessionExportInput.Blur()
		return a, nil

	case "alt+u":
		a.sessionExportInput.SetValue("")
		return a, nil

	case "enter":
		exportPath := a.sessionExportInput.Value()
		list := a.getSessionList()
		if exportPath == "" || a.selectedSessionIdx < 0 || a.selectedSessionIdx >= len(list) {
			return a, nil
		}
		sessionID := list[a.selectedSessionIdx].ID
		a.exportTargetPath = config.ExpandPath(exportPath)

		ctx, cancel := context.WithCancel(context.Background())
		a.exportCancelCtx = ctx
		a.exportCancelFunc = cancel

		a.exportSpinner = spinner.New()
		a.exportSpinner.Spinner = spinner.Dot
		a.exportSpinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

		a.exportingSession = true
		a.sessionExportInput.Blur()

		return a, tea.Batch(
			a.dataModel.ExportSessionCmd(ctx, sessionID, a.exportTargetPath),
			a.exportSpinner.Tick,
		)
	}

	var cmd tea.Cmd
	a.sessionExportInput, cmd = a.sessionExportInput.Update(msg)
	return a, cmd
}

func (a AppView) handleSessionFilterKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.sessionFilterMode = false
		a.sessionFilterInput.Blur()
		a.sessionFilterInput.SetValue("")
		a.filteredSessions = nil
		a.selectedSessionIdx = 0
		return a, nil

	case "enter":
		list := a.getSessionList()
		if a.selectedSessionIdx >= 0 && a.selectedSessionIdx < len(list) {
			selected := list[a.selectedSessionIdx]
			a.showSessionManager = false
			a.sessionFilterMode = false
			return a, a.dataModel.LoadSession(selected.ID)
		}
		return a, nil

	case "alt+j", "alt+down", "down":
		if a.selectedSessionIdx < len(a.getSessionList())-1 {
			a.selectedSessionIdx++
		}
		return a, nil

	case "alt+k", "alt+up", "up":
		if a.selectedSessionIdx > 0 {
			a.selectedSessionIdx--
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.sessionFilterInput, cmd = a.sessionFilterInput.Update(msg)

	filterValue := a.sessionFilterInput.Value()
	if filterValue == "" {
		a.filteredSessions = a.sessionList
	} else {
		targets := make([]string, len(a.sessionList))
		for i, s := range a.sessionList {
			targets[i] = s.Name
		}
		matches := fuzzy.Find(filterValue, targets)
		a.filteredSessions = make([]storage.SessionMetadata, len(matches))
		for i, match := range matches {
			a.filteredSessions[i] = a.sessionList[match.Index]
		}
	}

	if list := a.getSessionList(); a.selectedSessionIdx >= len(list) && len(list) > 0 {
		a.selectedSessionIdx = len(list) - 1
	}

	return a, cmd
}

func (a AppView) handleModelSelectorKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	kb := a.keyBindings

	if a.modelFilterMode {
		switch msg.String() {
		case "esc":
			a.modelFilterMode = false
			a.modelFilterInput.Blur()
			a.modelFilterInput.SetValue("")
			a.filteredModels = nil
			a.selectedModelIdx = 0
			return a, nil

		case "enter":
			return a.selectModel()

		case "alt+j", "alt+down", "down":
			if a.selectedModelIdx < len(a.getModelList())-1 {
				a.selectedModelIdx++
			}
			return a, nil

		case "alt+k", "alt+up", "up":
			if a.selectedModelIdx > 0 {
				a.selectedModelIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.modelFilterInput, cmd = a.modelFilterInput.Update(msg)

		filterValue := a.modelFilterInput.Value()
		if filterValue == "" {
			a.filteredModels = a.modelList
		} else {
			targets := make([]string, len(a.modelList))
			for i, mdl := range a.modelList {
				targets[i] = mdl.Name
			}
			matches := fuzzy.Find(filterValue, targets)
			a.filteredModels = make([]appmodel.ModelInfo, len(matches))
			for i, match := range matches {
				a.filteredModels[i] = a.modelList[match.Index]
			}
		}

		if list := a.getModelList(); a.selectedModelIdx >= len(list) && len(list) > 0 {
			a.selectedModelIdx = len(list) - 1
		}

		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.modelFilterMode = true
		a.modelFilterInput.Focus()
		a.modelFilterInput.SetValue("")
		a.filteredModels = a.modelList
		return a, textinput.Blink

	case "esc", kb.GetActionKey("model_selector"):
		a.showModelSelector = false
		return a, nil

	case kb.GetActionKey("model_selector_refresh"):
		a.dataModel.ClearModelCache("")
		return a, a.dataModel.FetchAllModels(true)

	case "j", "down":
		if a.selectedModelIdx < len(a.getModelList())-1 {
			a.selectedModelIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedModelIdx > 0 {
			a.selectedModelIdx--
		}
		return a, nil

	case "enter":
		return a.selectModel()
	}

	return a, nil
}

// selectModel applies the highlighted model, detouring through the tool
// warning modal when the session has tools enabled but the model does not
// advertise tool calling.
func (a AppView) selectModel() (AppView, tea.Cmd) {
	list := a.getModelList()
	if a.selectedModelIdx < 0 || a.selectedModelIdx >= len(list) {
		return a, nil
	}
	selected := list[a.selectedModelIdx]

	hasEnabledTools := len(a.enabledToolNames()) > 0
	if hasEnabledTools && !ModelSupportsTools(selected) {
		a.pendingModelSwitch = &selected
		a.showModelSelector = false
		a.modelFilterMode = false
		return a, nil
	}

	a.showModelSelector = false
	a.modelFilterMode = false
	return a, a.dataModel.SwitchModel(selected)
}

func (a AppView) handleMessageSearchKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showMessageSearch = false
		return a, nil

	case "up", "alt+k":
		if a.searchSelectedIdx > 0 {
			a.searchSelectedIdx--
		}
		return a, nil

	case "down", "alt+j":
		if a.searchSelectedIdx < len(a.searchResults)-1 {
			a.searchSelectedIdx++
		}
		return a, nil

	case "enter":
		if a.searchSelectedIdx >= 0 && a.searchSelectedIdx < len(a.searchResults) {
			match := a.searchResults[a.searchSelectedIdx]
			a.highlightedTurnIdx = match.TurnIndex
			a.highlightFlashCount = 1
			a.showMessageSearch = false
			a.updateViewportContent(false)
			a.scrollToTurn(match.TurnIndex)

			return a, tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
				return flashTickMsg{}
			})
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	query := a.searchInput.Value()
	if query != "" {
		a.searchResults = storage.SearchTurns(a.dataModel.Turns, query)
		a.searchSelectedIdx = 0
	} else {
		a.searchResults = nil
	}
	a.searchScrollIdx = 0
	return a, cmd
}

func (a AppView) handleGlobalSearchKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showGlobalSearch = false
		return a, nil

	case "up", "alt+k":
		if a.globalSelectedIdx > 0 {
			a.globalSelectedIdx--
		}
		return a, nil

	case "down", "alt+j":
		if a.globalSelectedIdx < len(a.globalSearchResults)-1 {
			a.globalSelectedIdx++
		}
		return a, nil

	case "enter":
		if a.globalSelectedIdx >= 0 && a.globalSelectedIdx < len(a.globalSearchResults) {
			match := a.globalSearchResults[a.globalSelectedIdx]
			a.showGlobalSearch = false
			a.pendingScrollToTurnIdx = match.TurnIndex
			return a, a.dataModel.LoadSession(match.SessionID)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.globalSearchInput, cmd = a.globalSearchInput.Update(msg)
	query := a.globalSearchInput.Value()
	if query != "" && a.dataModel.SearchIndex != nil {
		if results, err := a.dataModel.SearchIndex.SearchAllSessions(query); err == nil {
			a.globalSearchResults = results
			a.globalSelectedIdx = 0
		}
	} else {
		a.globalSearchResults = nil
	}
	a.globalScrollIdx = 0
	return a, cmd
}
