package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"plana/config"
)

type FilePickerMode int

const (
	FilePickerModeOpen FilePickerMode = iota
	FilePickerModeSave
)

type FilePickerConfig struct {
	Title          string
	Mode           FilePickerMode
	AllowedTypes   []string
	StartDirectory string
	ShowHidden     bool
	OperationType  string // "Import" or "Export" for processing titles
}

type FilePickerState struct {
	Active     bool
	Picker     filepicker.Model
	Config     FilePickerConfig
	Processing bool
	CleaningUp bool
	Spinner    spinner.Model
	Success    *string
}

func NewFilePickerState(cfg FilePickerConfig) FilePickerState {
	fp := filepicker.New()
	fp.AllowedTypes = cfg.AllowedTypes
	fp.Height = 10
	fp.DirAllowed = true
	fp.FileAllowed = true
	fp.ShowPermissions = false
	fp.ShowSize = false
	fp.ShowHidden = cfg.ShowHidden

	startDir := cfg.StartDirectory
	if startDir == "" {
		startDir = config.GetHomeDir()
	}
	fp.CurrentDirectory = startDir

	fp.Styles.Directory = lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true)
	fp.Styles.File = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15"))
	fp.Styles.Selected = lipgloss.NewStyle().
		Foreground(successColor).
		Bold(true)
	fp.Styles.Cursor = lipgloss.NewStyle().
		Foreground(successColor)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return FilePickerState{
		Picker:  fp,
		Config:  cfg,
		Spinner: sp,
	}
}

func (fps *FilePickerState) Activate() {
	fps.Active = true
	fps.Processing = false
	fps.CleaningUp = false
	fps.Success = nil
}

func (fps *FilePickerState) Reset() {
	fps.Active = false
	fps.Processing = false
	fps.CleaningUp = false
	fps.Success = nil
}

func RenderFilePickerModal(state FilePickerState, width, height int) string {
	if state.Success != nil {
		return renderFilePickerSuccess(*state.Success, state.Config.Title, width, height)
	}
	if state.CleaningUp {
		return renderFilePickerCleanup(state.Spinner, width, height)
	}
	if state.Processing {
		return renderFilePickerProcessing(state.Spinner, state.Config, width, height)
	}
	return renderFilePickerInput(state.Picker, state.Config.Title, width, height)
}

func filePickerModalWidth(width int) int {
	modalWidth := width - 10
	if modalWidth < 10 {
		modalWidth = 10
	}
	if modalWidth > 80 {
		modalWidth = 80
	}
	return modalWidth
}

func renderFilePickerInput(picker filepicker.Model, title string, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}
	modalWidth := filePickerModalWidth(width)

	contentStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Left)

	var messageLines []string
	for _, line := range strings.Split(picker.View(), "\n") {
		messageLines = append(messageLines, contentStyle.Render("  "+strings.TrimRight(line, " ")))
	}

	footer := "j/k Navigate  h/l Back/Forward  Esc Cancel"
	return RenderThreeSectionModal(title, messageLines, footer, ModalTypeInfo, modalWidth, width, height)
}

func renderFilePickerProcessing(sp spinner.Model, cfg FilePickerConfig, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}
	modalWidth := filePickerModalWidth(width)

	processing := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(fmt.Sprintf("%s Processing...", sp.View()))

	return RenderThreeSectionModal("Processing "+cfg.OperationType, []string{processing},
		"Press Esc to cancel", ModalTypeInfo, modalWidth, width, height)
}

func renderFilePickerCleanup(sp spinner.Model, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}
	modalWidth := filePickerModalWidth(width)

	var contentLines []string
	contentLines = append(contentLines, strings.Repeat(" ", modalWidth))
	contentLines = append(contentLines, lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(fmt.Sprintf("%s Cleaning up...", sp.View())))
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

func renderFilePickerSuccess(path string, title string, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}

	modalWidth := 70
	if width < modalWidth+10 {
		modalWidth = width - 10
		if modalWidth < 10 {
			modalWidth = 10
		}
	}

	successTitle := "✓ " + title + " Successful"

	var messageLines []string
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Foreground(accentColor).
		Align(lipgloss.Left)

	for _, line := range strings.Split(wordWrap(path, modalWidth-4), "\n") {
		messageLines = append(messageLines, messageStyle.Render("  "+line))
	}

	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))

	// Success titles use successColor, which the shared modal helper does not
	// offer, so the three sections are assembled here directly.
	titleVisualWidth := lipgloss.Width(successTitle)
	leftPad := (modalWidth - titleVisualWidth) / 2
	if leftPad < 0 {
		leftPad = 0
	}
	rightPad := modalWidth - titleVisualWidth - leftPad
	centeredTitle := strings.Repeat(" ", leftPad) + successTitle + strings.Repeat(" ", rightPad)

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor).
		Render(centeredTitle)

	messageSection := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Width(modalWidth).
		Render(strings.Join(messageLines, "\n"))

	footerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render("Press Enter to acknowledge")

	content := strings.Join([]string{titleSection, messageSection, footerSection}, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
