package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plana/config"
)

// providerFieldsSavedMsg reports the result of saving every tab's fields.
type providerFieldsSavedMsg struct {
	success bool
	err     error
	cfg     *config.Config
}

// openProviderSettings initializes the sub-screen and caches every tab's
// current field values so edits across tabs survive tab switching.
func (a *AppView) openProviderSettings() {
	ps := &a.providerSettings
	ps.visible = true
	ps.selectedProviderID = "ollama"
	ps.selectedFieldIdx = 0
	ps.editMode = false
	ps.hasChanges = false
	ps.confirmExit = false
	ps.saveError = ""

	ps.editInput = textinput.New()
	ps.editInput.Width = 50
	ps.editInput.CharLimit = 500

	ps.currentFieldsMap = make(map[string][]ProviderField)
	for _, providerID := range providerTabs {
		ps.currentFieldsMap[providerID] = ps.getProviderFields(providerID, a.dataModel.Config)
	}
}

func (a AppView) handleProviderSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ps := &a.providerSettings

	if ps.saveError != "" {
		if msg.String() == "enter" || msg.String() == "esc" {
			ps.saveError = ""
		}
		return a, nil
	}

	if ps.confirmExit {
		switch msg.String() {
		case "y", "Y":
			ps.confirmExit = false
			ps.visible = false
			ps.hasChanges = false
			return a, nil
		case "n", "N", "esc":
			ps.confirmExit = false
			return a, nil
		}
		return a, nil
	}

	if ps.editMode {
		switch msg.String() {
		case "enter":
			return a.saveProviderFieldToCache()
		case "esc":
			ps.editMode = false
			ps.editInput.Blur()
			return a, nil
		default:
			var cmd tea.Cmd
			ps.editInput, cmd = ps.editInput.Update(msg)
			return a, cmd
		}
	}

	switch msg.String() {
	case "h", "left", "shift+tab":
		// Tab switch keeps the cache so unsaved edits survive
		for i, id := range providerTabs {
			if id == ps.selectedProviderID {
				ps.selectedProviderID = providerTabs[(i-1+len(providerTabs))%len(providerTabs)]
				ps.selectedFieldIdx = 0
				break
			}
		}
		return a, nil

	case "l", "right", "tab":
		for i, id := range providerTabs {
			if id == ps.selectedProviderID {
				ps.selectedProviderID = providerTabs[(i+1)%len(providerTabs)]
				ps.selectedFieldIdx = 0
				break
			}
		}
		return a, nil

	case "j", "down":
		fields := ps.currentFieldsMap[ps.selectedProviderID]
		if len(fields) > 0 {
			ps.selectedFieldIdx = (ps.selectedFieldIdx + 1) % len(fields)
		}
		return a, nil

	case "k", "up":
		fields := ps.currentFieldsMap[ps.selectedProviderID]
		if len(fields) > 0 {
			ps.selectedFieldIdx = (ps.selectedFieldIdx - 1 + len(fields)) % len(fields)
		}
		return a, nil

	case "enter", " ":
		providerID := ps.selectedProviderID
		fields := ps.currentFieldsMap[providerID]
		if ps.selectedFieldIdx >= len(fields) {
			return a, nil
		}
		field := fields[ps.selectedFieldIdx]

		// Enabled toggles in the cache; everything else opens the editor
		if field.Type == ProviderFieldTypeEnabled {
			newValue := "true"
			if field.Value == "true" {
				newValue = "false"
			}
			ps.currentFieldsMap[providerID][ps.selectedFieldIdx].Value = newValue
			ps.hasChanges = true
			return a, nil
		}

		ps.editInput.SetValue(a.getProviderFieldActualValue(field))
		ps.editInput.Focus()
		ps.editMode = true
		return a, textinput.Blink

	case "alt+enter":
		ps.visible = false
		ps.hasChanges = false
		return a, a.saveAllProviderFieldsCmd()

	case "esc":
		if ps.hasChanges {
			ps.confirmExit = true
			return a, nil
		}
		ps.visible = false
		return a, nil
	}

	return a, nil
}

// saveProviderFieldToCache commits the edit input into the cache. Disk writes
// wait for Alt+Enter.
func (a AppView) saveProviderFieldToCache() (tea.Model, tea.Cmd) {
	ps := &a.providerSettings
	fields := ps.currentFieldsMap[ps.selectedProviderID]

	if ps.selectedFieldIdx >= len(fields) {
		ps.editMode = false
		return a, nil
	}

	ps.currentFieldsMap[ps.selectedProviderID][ps.selectedFieldIdx].Value = ps.editInput.Value()
	ps.editMode = false
	ps.editInput.Blur()
	ps.hasChanges = true
	return a, nil
}

// getProviderFieldActualValue returns the unmasked value for editing.
func (a AppView) getProviderFieldActualValue(field ProviderField) string {
	switch field.Type {
	case ProviderFieldTypeHost:
		return a.dataModel.Config.OllamaHost
	case ProviderFieldTypeURL:
		return a.dataModel.Config.ServerURL
	case ProviderFieldTypeAPIKey:
		if a.providerSettings.selectedProviderID == "server" && a.dataModel.Config.ServerAPIKey != "" {
			return a.dataModel.Config.ServerAPIKey
		}
		if a.dataModel.Config.CredentialStore != nil {
			return a.dataModel.Config.CredentialStore.Get(a.providerSettings.selectedProviderID)
		}
		return ""
	default:
		return field.Value
	}
}

// saveAllProviderFieldsCmd writes every tab's fields through
// config.UpdateProviderField and reloads the config.
func (a AppView) saveAllProviderFieldsCmd() tea.Cmd {
	fieldsMap := a.providerSettings.currentFieldsMap
	dataDir := a.dataModel.Config.DataDir()
	credStore := a.dataModel.Config.CredentialStore

	return func() tea.Msg {
		for providerID, fields := range fieldsMap {
			for _, field := range fields {
				var fieldName string
				switch field.Type {
				case ProviderFieldTypeHost:
					fieldName = "host"
				case ProviderFieldTypeURL:
					fieldName = "url"
				case ProviderFieldTypeAPIKey:
					fieldName = "apikey"
				case ProviderFieldTypeEnabled:
					fieldName = "enabled"
				}

				// Masked API keys were never edited; write the stored value
				// back rather than the mask.
				actualValue := field.Value
				if field.Type == ProviderFieldTypeAPIKey {
					if field.Value == "(not set)" || strings.Contains(field.Value, "***") {
						if credStore != nil {
							actualValue = credStore.Get(providerID)
						} else {
							actualValue = ""
						}
					}
				}

				if err := config.UpdateProviderField(dataDir, providerID, fieldName, actualValue); err != nil {
					return providerFieldsSavedMsg{success: false, err: err}
				}
			}
		}

		newCfg, err := config.Load()
		if err != nil {
			return providerFieldsSavedMsg{success: false, err: err}
		}

		return providerFieldsSavedMsg{success: true, cfg: newCfg}
	}
}

func (a *AppView) renderProviderSettings(width, height int) string {
	ps := a.providerSettings

	if ps.saveError != "" {
		return RenderAcknowledgeModal("Error Saving Providers", ps.saveError, ModalTypeError, width, height)
	}
	if ps.confirmExit {
		return RenderUnsavedChangesModal(width, height)
	}

	modalWidth := 70
	if width < modalWidth+10 {
		modalWidth = width - 10
	}
	if modalWidth < 40 {
		modalWidth = 40
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Provider Settings")

	tabBar := a.renderProviderTabs(modalWidth)

	separator := lipgloss.NewStyle().
		Foreground(dimColor).
		Render(strings.Repeat("─", modalWidth))

	fields := ps.currentFieldsMap[ps.selectedProviderID]
	fieldList := a.renderProviderFields(fields, modalWidth)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("h/l Tabs  j/k Navigate  Enter Edit/Toggle  Alt+Enter Save  Esc Close")

	var content strings.Builder
	content.WriteString(title + "\n")
	content.WriteString(separator + "\n")
	content.WriteString(tabBar + "\n")
	content.WriteString(separator + "\n")
	content.WriteString(strings.Repeat(" ", modalWidth) + "\n")
	content.WriteString(fieldList + "\n")
	content.WriteString(strings.Repeat(" ", modalWidth) + "\n")
	content.WriteString(separator + "\n")
	content.WriteString(footer)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		content.String(),
	)
}

func (a *AppView) renderProviderTabs(width int) string {
	var tabStrs []string

	for _, providerID := range providerTabs {
		style := lipgloss.NewStyle().Padding(0, 2)
		if providerID == a.providerSettings.selectedProviderID {
			style = style.Foreground(accentColor).Bold(true).Underline(true)
		} else {
			style = style.Foreground(dimColor)
		}
		tabStrs = append(tabStrs, style.Render(providerNames[providerID]))
	}

	tabs := lipgloss.JoinHorizontal(lipgloss.Top, tabStrs...)

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Left).
		Render("  " + tabs)
}

func (a *AppView) renderProviderFields(fields []ProviderField, width int) string {
	if len(fields) == 0 {
		return lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Render("No fields for this provider")
	}

	maxLabelWidth := 20

	var lines []string
	for i, field := range fields {
		lines = append(lines, a.renderProviderField(field, i == a.providerSettings.selectedFieldIdx, width, maxLabelWidth))
	}

	return strings.Join(lines, "\n")
}

func (a *AppView) renderProviderField(field ProviderField, selected bool, width int, maxLabelWidth int) string {
	indicator := "  "
	if selected {
		indicator = "▶ "
	}

	if selected && a.providerSettings.editMode {
		labelPadding := strings.Repeat(" ", maxLabelWidth-len(field.Label))
		inputBox := lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Width(width - maxLabelWidth - 4).
			Render(a.providerSettings.editInput.View())
		return fmt.Sprintf("  %s%s%s", field.Label, labelPadding, inputBox)
	}

	label := fmt.Sprintf("%s%s", indicator, field.Label)
	if len(label) < maxLabelWidth {
		label = label + strings.Repeat(" ", maxLabelWidth-len(label))
	}

	value := field.Value
	maxValueWidth := width - maxLabelWidth - 4
	if len(value) > maxValueWidth {
		value = value[:maxValueWidth-3] + "..."
	}

	line := label + value

	if !selected && field.Type == ProviderFieldTypeEnabled {
		switch value {
		case "true":
			value = lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(value)
		case "false":
			value = lipgloss.NewStyle().Foreground(dimColor).Render(value)
		}
		line = label + value
	}

	if selected {
		line = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true).
			Render(line)
	}

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Left).
		Render(line)
}
