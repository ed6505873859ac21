package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"plana/storage"
)

func renderSessionManager(sessions []storage.SessionMetadata, selectedIdx int, currentSessionID string, renameMode bool, renameInput textinput.Model, exportMode bool, exportInput textinput.Model, exporting bool, exportCleaningUp bool, exportSpinner spinner.Model, exportSuccess string, importPicker FilePickerState, confirmDelete *storage.SessionMetadata, filterMode bool, filterInput textinput.Model, filteredSessions []storage.SessionMetadata, width, height int) string {
	modalWidth := width - 10
	if modalWidth > 110 {
		modalWidth = 110
	}
	modalHeight := height - 6

	if confirmDelete != nil {
		warningText := lipgloss.NewStyle().Foreground(dangerColor).Render("This action cannot be undone.")
		return RenderConfirmationModal(ConfirmationState{
			Active:  true,
			Title:   "⚠ Delete Session",
			Message: fmt.Sprintf("Are you sure you want to delete:\n\n\"%s\"\n\n%s", confirmDelete.Name, warningText),
		}, width, height)
	}

	if importPicker.Active {
		return RenderFilePickerModal(importPicker, width, height)
	}

	if exportMode {
		return renderExportModal(exportInput, exporting, exportCleaningUp, exportSpinner, exportSuccess, width, height)
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Session Manager")

	displayList := sessions
	if filterMode && len(filteredSessions) > 0 {
		displayList = filteredSessions
	}

	var header string
	if filterMode {
		header = filterInput.View()
	} else if len(sessions) == len(displayList) {
		header = fmt.Sprintf("%d sessions", len(sessions))
	} else {
		header = fmt.Sprintf("%d of %d sessions", len(displayList), len(sessions))
	}

	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	var sessionLines []string
	maxLines := modalHeight - 8 // title, borders, header, footer

	if len(displayList) == 0 {
		emptyMsg := "No sessions yet. Start chatting to create one!"
		if filterMode {
			emptyMsg = "No matches found"
		}
		sessionLines = append(sessionLines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(emptyMsg))
	} else {
		startIdx := 0
		endIdx := len(displayList)

		if len(displayList) > maxLines {
			if selectedIdx < maxLines/2 {
				endIdx = maxLines
			} else if selectedIdx >= len(displayList)-maxLines/2 {
				startIdx = len(displayList) - maxLines
			} else {
				startIdx = selectedIdx - maxLines/2
				endIdx = startIdx + maxLines
			}
		}

		for i := startIdx; i < endIdx && i < len(displayList); i++ {
			session := displayList[i]

			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}

			name := session.Name
			maxNameWidth := modalWidth - 40

			var nameDisplay string
			var hasBullet bool
			if renameMode && i == selectedIdx {
				nameDisplay = lipgloss.NewStyle().
					Foreground(accentColor).
					Bold(true).
					Render(renameInput.View())
			} else {
				if len(name) > maxNameWidth {
					name = name[:maxNameWidth-3] + "..."
				}
				nameDisplay = name
				hasBullet = session.SystemPrompt != ""
			}

			hasCurrentMarker := session.ID == currentSessionID && !renameMode

			turnCount := fmt.Sprintf("%d turns", session.TurnCount)
			if session.TurnCount == 1 {
				turnCount = "1 turn"
			}

			model := session.Model
			if idx := strings.Index(model, ":"); idx >= 0 {
				model = model[:idx]
			}
			if len(model) > 10 {
				model = model[:10]
			}

			timeAgo := formatTimeAgo(session.UpdatedAt)

			nameStyled := nameDisplay
			if i == selectedIdx {
				nameStyled = lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(nameDisplay)
			} else if session.ID == currentSessionID {
				nameStyled = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render(nameDisplay)
			}

			leftSide := fmt.Sprintf("%s%s", indicator, nameStyled)
			rightSide := fmt.Sprintf("%s  %10s  %8s", turnCount, model, timeAgo)

			// Spacing must use visual widths; the styled strings carry ANSI
			// codes that would otherwise wrap the line.
			leftVisualWidth := len(indicator) + len(nameDisplay)
			spacing := modalWidth - 4 - leftVisualWidth - len(rightSide)
			if hasCurrentMarker {
				spacing -= 10 // " (current)"
			}
			if hasBullet {
				spacing -= 2 // " •"
			}
			if spacing < 2 {
				spacing = 2
			}

			if hasCurrentMarker {
				markerColor := accentColor
				if i == selectedIdx {
					markerColor = successColor
				}
				leftSide += " " + lipgloss.NewStyle().Foreground(markerColor).Render("(current)")
			}
			if hasBullet {
				leftSide += " " + lipgloss.NewStyle().Foreground(accentColor).Render("•")
			}

			rightSideStyled := rightSide
			if i == selectedIdx {
				rightSideStyled = lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(rightSide)
			} else if session.ID == currentSessionID {
				rightSideStyled = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render(rightSide)
			}

			styledLine := fmt.Sprintf("  %s%s%s  ", leftSide, strings.Repeat(" ", spacing), rightSideStyled)
			sessionLines = append(sessionLines, lipgloss.NewStyle().Width(modalWidth).Render(styledLine))
		}
	}

	emptyLine := strings.Repeat(" ", modalWidth)
	sessionLines = append([]string{emptyLine}, sessionLines...)
	sessionLines = append(sessionLines, emptyLine)

	var footerText string
	if renameMode {
		footerText = FormatFooter("Alt+U", "Clear", "Enter", "Save", "Esc", "Cancel")
	} else if filterMode {
		footerText = FormatFooter("Type", "to filter", "Alt+J/K", "Navigate", "Enter", "Load", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("/", "Filter", "j/k", "Navigate", "Enter", "Load", "e", "Edit", "i", "Import", "n", "New", "r", "Rename", "x", "Export", "d", "Delete", "Esc", "Exit")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	sections := []string{titleSection, headerSection}
	sections = append(sections, sessionLines...)
	sections = append(sections, footerSection)

	content := strings.Join(sections, "\n")

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// formatTimeAgo formats a time as a relative string (e.g., "2h ago", "3d ago")
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	case duration < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	case duration < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(duration.Hours()/24/7))
	default:
		return fmt.Sprintf("%dmo ago", int(duration.Hours()/24/30))
	}
}

func renderExportModal(exportInput textinput.Model, exporting bool, cleaningUp bool, exportSpinner spinner.Model, successPath string, width, height int) string {
	if successPath != "" {
		return renderExportSuccess(successPath, "Export", width, height)
	}

	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}

	if cleaningUp {
		var contentLines []string
		contentLines = append(contentLines, strings.Repeat(" ", modalWidth))
		contentLines = append(contentLines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(fmt.Sprintf("%s Cleaning up...", exportSpinner.View())))
		contentLines = append(contentLines, strings.Repeat(" ", modalWidth))

		content := lipgloss.NewStyle().
			BorderTop(true).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(dimColor).
			Width(modalWidth).
			Render(strings.Join(contentLines, "\n"))

		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}

	if exporting {
		exportLine := lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(fmt.Sprintf("%s Exporting session...", exportSpinner.View()))

		return RenderThreeSectionModal("Processing Export", []string{exportLine},
			"Press Esc to cancel", ModalTypeInfo, modalWidth, width, height)
	}

	promptStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Left)

	var messageLines []string
	messageLines = append(messageLines, promptStyle.Render("  Export to:"))
	messageLines = append(messageLines, lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Width(modalWidth).
		Align(lipgloss.Left).
		Render("  "+exportInput.View()))

	return RenderThreeSectionModal("Export Session to JSON", messageLines,
		"Esc Cancel  Enter Export  Alt+U Clear", ModalTypeInfo, modalWidth, width, height)
}

func renderExportSuccess(exportPath string, operationType string, width, height int) string {
	return renderFilePickerSuccess(fmt.Sprintf("Exported to:\n%s", exportPath), operationType, width, height)
}
