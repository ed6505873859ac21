package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type ConfirmationState struct {
	Active  bool
	Title   string
	Message string
}

func RenderConfirmationModal(state ConfirmationState, width, height int) string {
	modalWidth := 60
	if width < modalWidth+10 {
		modalWidth = width - 10
	}

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center)

	var messageLines []string
	for _, line := range strings.Split(state.Message, "\n") {
		messageLines = append(messageLines, messageStyle.Render(line))
	}

	footer := FormatFooter("y", "Yes", "n", "No")
	return RenderThreeSectionModal(state.Title, messageLines, footer,
		ModalTypeWarning, modalWidth, width, height)
}

// RenderUnsavedChangesModal asks whether to discard unsaved edits when
// closing a settings screen with Esc.
func RenderUnsavedChangesModal(width, height int) string {
	modalWidth := 50
	if width < modalWidth+10 {
		modalWidth = width - 10
	}

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center)

	messageLines := []string{
		messageStyle.Render("You have unsaved changes."),
		strings.Repeat(" ", modalWidth),
		messageStyle.Render("Discard them and close?"),
	}

	footer := FormatFooter("y", "Discard", "n", "Keep Editing")
	return RenderThreeSectionModal("⚠  Unsaved Changes", messageLines, footer,
		ModalTypeWarning, modalWidth, width, height)
}

// RenderToolWarningModal shows a warning when switching to a model that does
// not advertise tool calling while the session has tool servers enabled.
func RenderToolWarningModal(modelName string, enabledTools []string, width, height int) string {
	modalWidth := 70
	if width < modalWidth+10 {
		modalWidth = width - 10
	}

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Left)

	var contentLines []string
	contentLines = append(contentLines, messageStyle.Render(
		lipgloss.NewStyle().Bold(true).Render(modelName)+" may not support tool calling."))
	contentLines = append(contentLines, messageStyle.Render(""))

	if len(enabledTools) > 0 {
		contentLines = append(contentLines, messageStyle.Render("Tool servers enabled in this session:"))
		for _, name := range enabledTools {
			contentLines = append(contentLines, messageStyle.Render("  • "+name))
		}
		contentLines = append(contentLines, messageStyle.Render(""))
		contentLines = append(contentLines, messageStyle.Render("may not work with this model."))
		contentLines = append(contentLines, messageStyle.Render(""))
	}

	contentLines = append(contentLines, messageStyle.Render(
		lipgloss.NewStyle().Foreground(accentColor).Render("Recommended:")+" qwen3-coder, llama3.1, mistral"))

	footer := FormatFooter("Enter", "Continue Anyway", "Esc", "Cancel")
	return RenderThreeSectionModal("⚠  Warning: Limited Tool Support", contentLines, footer,
		ModalTypeWarning, modalWidth, width, height)
}
