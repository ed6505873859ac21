package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plana/config"
	"plana/storage"
)

// Form field focus order: name, system prompt, tool servers.
const (
	formFieldName = iota
	formFieldPrompt
	formFieldTools
)

// SessionFormState backs the new-session and edit-session modals. The same
// form serves both; editSessionID distinguishes them.
type SessionFormState struct {
	NameInput     textinput.Model
	PromptInput   textarea.Model
	FocusedField  int
	ToolIdx       int
	EnabledTools  []string
	editSessionID string
}

func NewSessionFormState() SessionFormState {
	name := textinput.New()
	name.Width = 60
	name.CharLimit = 100
	name.Placeholder = "Enter session name (optional)"

	prompt := textarea.New()
	prompt.SetWidth(60)
	prompt.SetHeight(5)
	prompt.CharLimit = 0
	prompt.Placeholder = "Enter system prompt (optional)"

	return SessionFormState{
		NameInput:   name,
		PromptInput: prompt,
	}
}

// openSessionForm resets the form. With nil meta it opens in create mode,
// otherwise it loads the session's stored values for editing.
func (a *AppView) openSessionForm(meta *storage.SessionMetadata) {
	form := &a.sessionForm
	form.FocusedField = formFieldName
	form.ToolIdx = 0
	form.EnabledTools = nil
	form.editSessionID = ""
	form.NameInput.SetValue("")
	form.PromptInput.SetValue("")

	if meta != nil {
		form.editSessionID = meta.ID
		form.NameInput.SetValue(meta.Name)
		form.PromptInput.SetValue(meta.SystemPrompt)
		if full, err := a.dataModel.SessionStorage.Load(meta.ID); err == nil && full != nil {
			form.EnabledTools = append([]string(nil), full.GetEnabledTools()...)
		}
		a.showEditSession = true
	} else {
		a.showNewSession = true
	}

	form.NameInput.Focus()
	form.PromptInput.Blur()
}

// openSessionFormForCurrent opens the edit form for the loaded session.
func (a *AppView) openSessionFormForCurrent() bool {
	s := a.dataModel.CurrentSession
	if s == nil {
		return false
	}
	meta := storage.SessionMetadata{
		ID:           s.ID,
		Name:         s.Name,
		SystemPrompt: s.SystemPrompt,
	}
	a.openSessionForm(&meta)
	return true
}

func (a *AppView) closeSessionForm() {
	a.showNewSession = false
	a.showEditSession = false
	a.sessionForm.NameInput.Blur()
	a.sessionForm.PromptInput.Blur()
	a.sessionForm.editSessionID = ""
	a.sessionForm.EnabledTools = nil
	a.sessionForm.ToolIdx = 0
}

func (a AppView) handleSessionFormKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	form := &a.sessionForm
	editing := a.showEditSession
	servers := a.dataModel.Config.ToolServers

	switch msg.String() {
	case "esc":
		a.closeSessionForm()
		return a, nil

	case "tab":
		switch form.FocusedField {
		case formFieldName:
			form.FocusedField = formFieldPrompt
			form.NameInput.Blur()
			form.PromptInput.Focus()
		case formFieldPrompt:
			form.FocusedField = formFieldTools
			form.PromptInput.Blur()
		default:
			form.FocusedField = formFieldName
			form.NameInput.Focus()
		}
		return a, textarea.Blink

	case "shift+tab":
		switch form.FocusedField {
		case formFieldName:
			form.FocusedField = formFieldTools
			form.NameInput.Blur()
		case formFieldPrompt:
			form.FocusedField = formFieldName
			form.PromptInput.Blur()
			form.NameInput.Focus()
		default:
			form.FocusedField = formFieldPrompt
			form.PromptInput.Focus()
		}
		return a, textarea.Blink

	case "j", "down":
		if form.FocusedField == formFieldTools {
			if form.ToolIdx < len(servers)-1 {
				form.ToolIdx++
			}
			return a, nil
		}

	case "k", "up":
		if form.FocusedField == formFieldTools {
			if form.ToolIdx > 0 {
				form.ToolIdx--
			}
			return a, nil
		}

	case "t", " ":
		if form.FocusedField == formFieldTools {
			if form.ToolIdx >= 0 && form.ToolIdx < len(servers) {
				form.toggleTool(servers[form.ToolIdx].ID)
			}
			return a, nil
		}

	case "alt+u":
		switch form.FocusedField {
		case formFieldName:
			form.NameInput.SetValue("")
		case formFieldPrompt:
			form.PromptInput.SetValue("")
		}
		return a, nil

	case "enter":
		if form.FocusedField == formFieldPrompt {
			var cmd tea.Cmd
			form.PromptInput, cmd = form.PromptInput.Update(msg)
			return a, cmd
		}
		if form.FocusedField != formFieldTools && !editing {
			return a.submitSessionForm()
		}
		return a, nil

	case "alt+enter":
		return a.submitSessionForm()
	}

	var cmd tea.Cmd
	switch form.FocusedField {
	case formFieldName:
		form.NameInput, cmd = form.NameInput.Update(msg)
	case formFieldPrompt:
		form.PromptInput, cmd = form.PromptInput.Update(msg)
	}
	return a, cmd
}

func (f *SessionFormState) toggleTool(serverID string) {
	for i, id := range f.EnabledTools {
		if id == serverID {
			f.EnabledTools = append(f.EnabledTools[:i], f.EnabledTools[i+1:]...)
			return
		}
	}
	f.EnabledTools = append(f.EnabledTools, serverID)
}

func (f *SessionFormState) toolEnabled(serverID string) bool {
	for _, id := range f.EnabledTools {
		if id == serverID {
			return true
		}
	}
	return false
}

func (a AppView) submitSessionForm() (AppView, tea.Cmd) {
	form := &a.sessionForm
	name := strings.TrimSpace(form.NameInput.Value())
	systemPrompt := strings.TrimSpace(form.PromptInput.Value())
	enabledTools := append([]string(nil), form.EnabledTools...)

	if sessionID := form.editSessionID; sessionID != "" {
		a.closeSessionForm()
		return a, a.dataModel.UpdateSessionPropertiesCmd(sessionID, name, systemPrompt, enabledTools)
	}

	newSession, err := a.dataModel.CreateAndSaveNewSession(name, systemPrompt, enabledTools)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Failed to create session: %v", err)
		}
		a.closeSessionForm()
		a.flash("could not create session")
		return a, nil
	}

	a.dataModel.Turns = nil
	a.setCurrentSession(newSession)
	a.dataModel.SessionDirty = false
	a.renderedTurns = make(map[string]string)
	a.editingMessage = false

	a.closeSessionForm()
	a.showSessionManager = false
	a.textarea.Reset()
	a.updateViewportContent(true)
	return a, nil
}

func (a AppView) renderSessionForm() string {
	form := a.sessionForm
	editing := a.showEditSession
	servers := a.dataModel.Config.ToolServers

	modalWidth := a.width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}

	title := "New session"
	if editing {
		title = "Edit session"
	}

	var messageLines []string

	nameLabelStyle := lipgloss.NewStyle().Width(modalWidth)
	if form.FocusedField == formFieldName {
		nameLabelStyle = nameLabelStyle.Foreground(successColor).Bold(true)
	}
	messageLines = append(messageLines, nameLabelStyle.Render("  Session Name:"))

	nameStyle := lipgloss.NewStyle().Width(modalWidth)
	if form.FocusedField == formFieldName {
		nameStyle = nameStyle.Foreground(accentColor).Bold(true)
	}
	messageLines = append(messageLines, nameStyle.Render("  "+form.NameInput.View()))
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))

	promptLabelStyle := lipgloss.NewStyle().Width(modalWidth)
	if form.FocusedField == formFieldPrompt {
		promptLabelStyle = promptLabelStyle.Foreground(successColor).Bold(true)
	}
	messageLines = append(messageLines, promptLabelStyle.Render("  System Prompt:"))

	promptStyle := lipgloss.NewStyle().Width(modalWidth)
	if form.FocusedField == formFieldPrompt {
		promptStyle = promptStyle.Foreground(accentColor).Bold(true)
	}
	for _, line := range strings.Split(promptStyle.Render(form.PromptInput.View()), "\n") {
		messageLines = append(messageLines, lipgloss.NewStyle().Width(modalWidth).Render("  "+line))
	}

	if len(servers) > 0 {
		messageLines = append(messageLines, strings.Repeat(" ", modalWidth))

		toolsLabelStyle := lipgloss.NewStyle().Width(modalWidth)
		if form.FocusedField == formFieldTools {
			toolsLabelStyle = toolsLabelStyle.Foreground(successColor).Bold(true)
		}
		messageLines = append(messageLines, toolsLabelStyle.Render("  Session Tool Servers:"))
		messageLines = append(messageLines, strings.Repeat(" ", modalWidth))

		for i, srv := range servers {
			enabled := form.toolEnabled(srv.ID)
			selected := i == form.ToolIdx && form.FocusedField == formFieldTools

			indicator := "  "
			if i == form.ToolIdx {
				indicator = "▶ "
			}

			var checkbox, status, name string
			switch {
			case selected && enabled:
				checkbox = lipgloss.NewStyle().Foreground(successColor).Render("✓")
				status = lipgloss.NewStyle().Foreground(successColor).Render("[Enabled]")
				name = lipgloss.NewStyle().Foreground(successColor).Render(srv.Name)
			case selected:
				checkbox = lipgloss.NewStyle().Foreground(successColor).Render("✗")
				status = lipgloss.NewStyle().Foreground(successColor).Render("[Disabled]")
				name = lipgloss.NewStyle().Foreground(successColor).Render(srv.Name)
			case enabled:
				checkbox = lipgloss.NewStyle().Foreground(successColor).Render("✓")
				status = lipgloss.NewStyle().Foreground(successColor).Render("[Enabled]")
				name = srv.Name
			default:
				checkbox = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("✗")
				status = DimStyle.Render("[Disabled]")
				name = srv.Name
			}

			line := fmt.Sprintf("    %s%s %s %s", indicator, checkbox, name, status)
			lineStyle := lipgloss.NewStyle().Width(modalWidth)
			if selected {
				lineStyle = lineStyle.Bold(true)
			}
			messageLines = append(messageLines, lineStyle.Render(line))
		}

		if !a.dataModel.Config.ToolsEnabled {
			messageLines = append(messageLines, strings.Repeat(" ", modalWidth))
			messageLines = append(messageLines, lipgloss.NewStyle().
				Foreground(dangerColor).
				Width(modalWidth).
				Render("    Tool servers are disabled globally (see Settings)."))
		}
	}

	var footer string
	if form.FocusedField == formFieldTools {
		footer = FormatFooter("j/k", "Navigate", "t", "Toggle", "Tab", "Next Field", "Alt+Enter", "Save", "Esc", "Cancel")
	} else if editing {
		footer = FormatFooter("Tab/Shift+Tab", "Switch Fields", "Alt+U", "Clear", "Alt+Enter", "Save", "Esc", "Cancel")
	} else {
		footer = FormatFooter("Tab/Shift+Tab", "Switch Fields", "Enter", "Create", "Esc", "Cancel")
	}

	return RenderThreeSectionModal(title, messageLines, footer, ModalTypeInfo, modalWidth, a.width, a.height)
}
