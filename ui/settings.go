package ui

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plana/config"
	appmodel "plana/model"
	"plana/provider"
)

type ollamaValidationMsg struct {
	success bool
	err     error
}

type dataDirectoryLoadedMsg struct {
	normalizedPath string
	configLoaded   bool
	ollamaHost     string
	defaultModel   string
	systemPrompt   string
	toolsEnabled   bool
	err            error
}

type settingsSaveMsg struct {
	success bool
	err     error
}

type dataDirectoryNotFoundMsg struct {
	path string
}

// SettingsState backs the settings modal. Field values are staged here and
// only written to disk on Alt+Enter.
type SettingsState struct {
	Fields      []SettingField
	SelectedIdx int
	EditMode    bool
	EditInput   textinput.Model

	HasChanges  bool
	ConfirmExit bool
	LoadedInfo  string
	SaveError   string

	// Confirmation for creating a brand new data directory
	DataDirNotFound bool
	NewDataDirPath  string
}

const (
	settingsFieldDataDir = iota
	settingsFieldProviders
	settingsFieldModel
	settingsFieldPrompt
	settingsFieldTools
)

func (a *AppView) openSettings() {
	cfg := a.dataModel.Config

	edit := textinput.New()
	edit.Width = 50
	edit.CharLimit = 500

	a.settings = SettingsState{
		Fields: []SettingField{
			{Label: "Data Directory", Value: cfg.DataDirectory, DefaultValue: "~/.local/share/plana", Type: SettingTypeDataDir},
			{Label: "Provider(s)", Value: "Press Enter to configure", Type: SettingTypeProviderLink},
			{Label: "Default Model", Value: cfg.DefaultModel, DefaultValue: "llama3.1:latest", Type: SettingTypeModel},
			{Label: "System Prompt", Value: cfg.DefaultSystemPrompt, Type: SettingTypeSystemPrompt},
			{Label: "Tool Servers", Value: boolToString(cfg.ToolsEnabled), DefaultValue: "false", Type: SettingTypeToolsEnabled},
		},
		EditInput: edit,
	}
	a.showSettings = true
}

func (a AppView) handleSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &a.settings

	// New data directory confirmation
	if s.DataDirNotFound {
		switch msg.String() {
		case "y", "Y":
			s.DataDirNotFound = false
			a.showSettings = false
			return a.createAndSwitchDataDir(s.NewDataDirPath)
		case "n", "N", "esc":
			s.DataDirNotFound = false
		}
		return a, nil
	}

	if s.ConfirmExit {
		switch msg.String() {
		case "y", "Y":
			s.ConfirmExit = false
			s.HasChanges = false
			a.showSettings = false
		case "n", "N", "esc":
			s.ConfirmExit = false
		}
		return a, nil
	}

	if s.SaveError != "" {
		if msg.String() == "enter" || msg.String() == "esc" {
			s.SaveError = ""
		}
		return a, nil
	}

	if s.EditMode {
		return a.handleSettingsEditMode(msg)
	}

	return a.handleSettingsNavigationMode(msg)
}

func (a AppView) handleSettingsNavigationMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &a.settings

	switch msg.String() {
	case "q":
		a.showSettings = false
		return a, nil

	case "esc":
		if s.HasChanges {
			s.ConfirmExit = true
			return a, nil
		}
		a.showSettings = false
		return a, nil

	case "j", "down":
		if s.SelectedIdx < len(s.Fields)-1 {
			s.SelectedIdx++
		}
		return a, nil

	case "k", "up":
		if s.SelectedIdx > 0 {
			s.SelectedIdx--
		}
		return a, nil

	case "enter":
		field := &s.Fields[s.SelectedIdx]

		if field.Type == SettingTypeProviderLink {
			a.openProviderSettings()
			return a, nil
		}

		if field.Type == SettingTypeToolsEnabled {
			switch field.Value {
			case "true":
				field.Value = "false"
			case "false":
				field.Value = "true"
			}
			s.HasChanges = true
			return a, nil
		}

		s.EditMode = true
		s.EditInput.SetValue(field.Value)
		s.EditInput.Focus()
		return a, textinput.Blink

	case "r":
		s.Fields[s.SelectedIdx].Value = s.Fields[s.SelectedIdx].DefaultValue
		s.Fields[s.SelectedIdx].Validation = FieldValidationNone
		s.Fields[s.SelectedIdx].ErrorMsg = ""
		s.HasChanges = true
		return a, nil

	case "alt+enter":
		return a, a.saveSettingsCmd()
	}

	return a, nil
}

func (a AppView) handleSettingsEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &a.settings
	kb := a.keyBindings

	switch msg.String() {
	case "esc":
		s.EditMode = false
		s.EditInput.Blur()
		return a, nil

	case "enter":
		newValue := s.EditInput.Value()
		s.EditMode = false
		s.EditInput.Blur()

		if newValue == s.Fields[s.SelectedIdx].Value {
			return a, nil
		}
		s.Fields[s.SelectedIdx].Value = newValue
		s.HasChanges = true

		// A data dir edit immediately probes the target so dependent fields
		// can be pre-filled from the config living there.
		if s.Fields[s.SelectedIdx].Type == SettingTypeDataDir {
			return a, probeDataDirectoryCmd(newValue)
		}
		return a, nil

	case kb.GetActionKey("clear_input"):
		s.EditInput.SetValue("")
		return a, nil
	}

	var cmd tea.Cmd
	s.EditInput, cmd = s.EditInput.Update(msg)
	return a, cmd
}

// handleSettingsMessage processes async results for the settings screen and
// the provider sub-screen. Save results are handled even after the screen
// closes so a quick Esc cannot drop them.
func (a AppView) handleSettingsMessage(msg tea.Msg) (AppView, tea.Cmd) {
	s := &a.settings

	switch msg := msg.(type) {
	case providerFieldsSavedMsg:
		if !msg.success {
			a.providerSettings.saveError = msg.err.Error()
			a.providerSettings.visible = true
			return a, nil
		}
		a.dataModel.Config = msg.cfg
		if a.providerSettings.currentFieldsMap != nil {
			for _, providerID := range providerTabs {
				a.providerSettings.currentFieldsMap[providerID] = a.providerSettings.getProviderFields(providerID, msg.cfg)
			}
		}
		return a, a.refreshProvidersAndModels()

	case dataDirectoryNotFoundMsg:
		s.DataDirNotFound = true
		s.NewDataDirPath = msg.path
		return a, nil

	case dataDirectoryLoadedMsg:
		if msg.err != nil {
			s.Fields[settingsFieldDataDir].Validation = FieldValidationError
			s.Fields[settingsFieldDataDir].ErrorMsg = msg.err.Error()
			s.LoadedInfo = ""
			return a, nil
		}

		s.Fields[settingsFieldDataDir].Value = msg.normalizedPath
		s.Fields[settingsFieldDataDir].Validation = FieldValidationNone

		if msg.configLoaded {
			s.Fields[settingsFieldModel].Value = msg.defaultModel
			s.Fields[settingsFieldPrompt].Value = msg.systemPrompt
			s.Fields[settingsFieldTools].Value = boolToString(msg.toolsEnabled)
			s.LoadedInfo = "ℹ Loaded config from data directory"
			s.HasChanges = true
			return a, validateOllamaHostCmd(msg.ollamaHost)
		}

		s.LoadedInfo = ""
		return a, nil

	case ollamaValidationMsg:
		if !msg.success && appmodel.ShouldBlockOnOllamaValidation(a.dataModel.Config) {
			s.LoadedInfo = "⚠ Ollama unreachable: " + msg.err.Error()
		}
		return a, nil

	case settingsSaveMsg:
		if !msg.success {
			s.SaveError = msg.err.Error()
			return a, nil
		}
		return a.applySavedSettings()
	}

	return a, nil
}

// applySavedSettings reloads config after a successful save and orchestrates
// the follow-on work: tool system start/stop, data directory switches, and
// provider refreshes.
func (a AppView) applySavedSettings() (AppView, tea.Cmd) {
	oldDataDir := a.dataModel.Config.DataDir()
	oldToolsEnabled := a.dataModel.Config.ToolsEnabled
	oldHost := a.dataModel.Config.OllamaURL()

	cfg, err := config.Load()
	if err != nil && !strings.Contains(err.Error(), "passphrase required") {
		a.showAcknowledgeModal = true
		a.acknowledgeModalTitle = "⚠  Settings Save Error"
		a.acknowledgeModalMsg = fmt.Sprintf("Settings were saved to disk but failed to reload:\n\n%v\n\nRestart Plan-A to make sure the changes take effect.", err)
		a.acknowledgeModalType = ModalTypeError
		return a, nil
	}
	a.dataModel.Config = cfg

	systemCfg, err := config.LoadSystemConfig()
	if err != nil {
		a.settings.SaveError = fmt.Sprintf("Failed to load system config: %v", err)
		return a, nil
	}
	newDataDir := config.ExpandPath(systemCfg.DataDirectory)

	// Data directory change swaps storage, search index and session state
	if newDataDir != oldDataDir {
		a.showSettings = false
		a.settings.HasChanges = false
		return a.switchDataDirectory(newDataDir)
	}

	// Tool system disable: drain servers with the progress modal up
	if oldToolsEnabled && !cfg.ToolsEnabled {
		if mgr := a.dataModel.MCPManager; mgr != nil {
			a.showSettings = false
			a.settings.HasChanges = false
			a.toolSystem = NewToolSystemState("stopping")
			a.dataModel.MCPManager = nil
			return a, tea.Batch(a.toolSystem.Spinner.Tick, shutdownToolServersCmd(mgr))
		}
	}

	// Tool system enable: recreate the manager and start enabled servers
	if !oldToolsEnabled && cfg.ToolsEnabled {
		a.dataModel.MCPManager = nil
		if err := a.ensureMCPManager(); err != nil {
			a.showSettings = false
			a.settings.HasChanges = false
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠  Tool System Error"
			a.acknowledgeModalMsg = fmt.Sprintf("Failed to enable tool servers:\n\n%v", err)
			a.acknowledgeModalType = ModalTypeError
			return a, nil
		}
		a.showSettings = false
		a.settings.HasChanges = false
		a.toolSystem = NewToolSystemState("starting")
		return a, tea.Batch(a.toolSystem.Spinner.Tick, startToolSystemCmd(a.dataModel.MCPManager))
	}

	a.showSettings = false
	a.settings.HasChanges = false
	a.settings.SaveError = ""

	var cmds []tea.Cmd
	if cfg.OllamaURL() != oldHost {
		cmds = append(cmds, a.refreshProvidersAndModels())
	}
	cmds = append(cmds, a.dataModel.FetchSessionList())
	return a, tea.Batch(cmds...)
}

// switchDataDirectory applies the switch in place. A passphrase-protected
// target opens the passphrase prompt and the switch resumes from there.
func (a AppView) switchDataDirectory(newDataDir string) (AppView, tea.Cmd) {
	err := a.dataModel.ApplyDataDirSwitch(newDataDir, "")
	if err != nil {
		if strings.Contains(err.Error(), "passphrase required") {
			a.passphraseForDataDir = true
			a.pendingDataDir = newDataDir
			a.passphraseError = ""
			a.passphraseInput.SetValue("")
			a.passphraseInput.Focus()
			return a, textinput.Blink
		}
		a.showAcknowledgeModal = true
		a.acknowledgeModalTitle = "⚠  Data Directory Switch Failed"
		a.acknowledgeModalMsg = err.Error()
		a.acknowledgeModalType = ModalTypeError
		return a, nil
	}
	return a.finishDataDirSwitch()
}

// finishDataDirSwitch resets UI state for the fresh data directory.
func (a AppView) finishDataDirSwitch() (AppView, tea.Cmd) {
	a.passphraseForDataDir = false
	a.pendingDataDir = ""

	a.dataModel.Providers = provider.InitializeProviders(a.dataModel.Config)
	activeID := a.dataModel.Config.LastUsedProvider
	if activeID == "" {
		activeID = a.dataModel.Config.DefaultProvider
	}
	if p, ok := a.dataModel.Providers[activeID]; ok {
		a.dataModel.Provider = p
	} else if p, ok := a.dataModel.Providers[a.dataModel.Config.DefaultProvider]; ok {
		a.dataModel.Provider = p
	}

	a.renderedTurns = make(map[string]string)
	a.editingMessage = false
	a.textarea.Reset()
	a.updateViewportContent(true)

	return a, tea.Batch(
		a.dataModel.FetchSessionList(),
		a.dataModel.FetchAllModels(false),
	)
}

// handlePassphraseForDataDir collects the SSH key passphrase needed to read
// credentials in the new data directory.
func (a AppView) handlePassphraseForDataDir(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		passphrase := a.passphraseInput.Value()
		if err := ValidatePassphraseNotEmpty(passphrase); err != nil {
			a.passphraseError = GetEmptyPassphraseError()
			return a, nil
		}
		if err := a.dataModel.ApplyDataDirSwitch(a.pendingDataDir, passphrase); err != nil {
			a.passphraseError = GetIncorrectPassphraseError()
			a.passphraseInput.SetValue("")
			return a, nil
		}
		var cmd tea.Cmd
		a, cmd = a.finishDataDirSwitch()
		return a, cmd

	case "esc":
		// Continue without credentials; cloud providers stay locked until
		// the next launch.
		a.passphraseForDataDir = false
		a.showAcknowledgeModal = true
		a.acknowledgeModalTitle = "Credentials Locked"
		a.acknowledgeModalMsg = "The data directory was switched but its API keys were not decrypted. Cloud providers will be unavailable until Plan-A is restarted with the passphrase."
		a.acknowledgeModalType = ModalTypeWarning
		var cmd tea.Cmd
		a, cmd = a.finishDataDirSwitch()
		return a, cmd
	}

	var cmd tea.Cmd
	a.passphraseInput, cmd = a.passphraseInput.Update(msg)
	return a, cmd
}

// createAndSwitchDataDir creates a brand new data directory with default
// config and switches to it.
func (a AppView) createAndSwitchDataDir(path string) (tea.Model, tea.Cmd) {
	if err := os.MkdirAll(path, 0700); err != nil {
		a.showAcknowledgeModal = true
		a.acknowledgeModalTitle = "⚠  Error"
		a.acknowledgeModalMsg = fmt.Sprintf("Failed to create data directory:\n\n%v", err)
		a.acknowledgeModalType = ModalTypeError
		return a, nil
	}
	if err := config.SaveSystemConfig(&config.SystemConfig{DataDirectory: path}); err != nil {
		a.showAcknowledgeModal = true
		a.acknowledgeModalTitle = "⚠  Error"
		a.acknowledgeModalMsg = fmt.Sprintf("Failed to save config:\n\n%v", err)
		a.acknowledgeModalType = ModalTypeError
		return a, nil
	}
	if err := config.CreateDefaultUserConfig(path); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Settings] Could not write default config: %v", err)
	}

	cfg, err := config.Load()
	if err == nil {
		a.dataModel.Config = cfg
	}
	return a.switchDataDirectory(path)
}

// probeDataDirectoryCmd normalizes an edited data dir path and loads the
// config living there, if any.
func probeDataDirectoryCmd(newPath string) tea.Cmd {
	return func() tea.Msg {
		normalized, err := config.NormalizeDataDirectory(newPath)
		if err != nil {
			return dataDirectoryLoadedMsg{err: err}
		}

		configPath := filepath.Join(normalized, "config.toml")
		userCfg, err := config.LoadUserConfigFromPath(configPath)
		if err != nil {
			return dataDirectoryLoadedMsg{
				normalizedPath: normalized,
				err:            fmt.Errorf("failed to load config: %w", err),
			}
		}

		if userCfg != nil {
			return dataDirectoryLoadedMsg{
				normalizedPath: normalized,
				configLoaded:   true,
				ollamaHost:     userCfg.Ollama.Host,
				defaultModel:   userCfg.Ollama.DefaultModel,
				systemPrompt:   userCfg.DefaultSystemPrompt,
				toolsEnabled:   userCfg.ToolsEnabled,
			}
		}

		return dataDirectoryLoadedMsg{
			normalizedPath: normalized,
			configLoaded:   false,
		}
	}
}

func validateOllamaHostCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if url == "" {
			return ollamaValidationMsg{success: false, err: fmt.Errorf("URL cannot be empty")}
		}

		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(url + "/api/version")
		if err != nil {
			return ollamaValidationMsg{success: false, err: fmt.Errorf("failed to connect: %w", err)}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return ollamaValidationMsg{success: false, err: fmt.Errorf("server returned status %d", resp.StatusCode)}
		}

		return ollamaValidationMsg{success: true}
	}
}

func (a AppView) saveSettingsCmd() tea.Cmd {
	fields := a.settings.Fields
	return func() tea.Msg {
		dataDir, err := config.NormalizeDataDirectory(fields[settingsFieldDataDir].Value)
		if err != nil {
			return settingsSaveMsg{success: false, err: fmt.Errorf("failed to normalize data directory: %w", err)}
		}

		if !dirExists(dataDir) {
			return dataDirectoryNotFoundMsg{path: dataDir}
		}

		systemCfg := &config.SystemConfig{DataDirectory: fields[settingsFieldDataDir].Value}
		if err := config.SaveSystemConfig(systemCfg); err != nil {
			return settingsSaveMsg{success: false, err: fmt.Errorf("failed to save system config: %w", err)}
		}

		// Preserve provider and security sections owned by other screens
		existingCfg, err := config.LoadUserConfig(dataDir)
		if err != nil {
			return settingsSaveMsg{success: false, err: fmt.Errorf("failed to load existing config: %w", err)}
		}

		existingCfg.Ollama.DefaultModel = fields[settingsFieldModel].Value
		existingCfg.DefaultSystemPrompt = fields[settingsFieldPrompt].Value
		existingCfg.ToolsEnabled = stringToBool(fields[settingsFieldTools].Value)

		if err := config.SaveUserConfig(existingCfg, dataDir); err != nil {
			return settingsSaveMsg{success: false, err: fmt.Errorf("failed to save user config: %w", err)}
		}

		return settingsSaveMsg{success: true}
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// refreshProvidersAndModels rebuilds provider instances from the current
// config, keeping the active provider and model selection when possible.
func (a *AppView) refreshProvidersAndModels() tea.Cmd {
	cfg := a.dataModel.Config

	currentModel := ""
	if a.dataModel.Provider != nil {
		currentModel = a.dataModel.Provider.GetModel()
	}

	a.dataModel.Providers = provider.InitializeProviders(cfg)

	activeID := cfg.LastUsedProvider
	if activeID == "" {
		activeID = cfg.DefaultProvider
	}
	if p, ok := a.dataModel.Providers[activeID]; ok {
		a.dataModel.Provider = p
		if currentModel != "" {
			p.SetModel(currentModel)
		}
	} else if p, ok := a.dataModel.Providers[cfg.DefaultProvider]; ok {
		a.dataModel.Provider = p
	}

	a.dataModel.ClearModelCache("")
	return a.dataModel.FetchAllModels(false)
}

func (a AppView) renderSettings(width, height int) string {
	s := a.settings

	if s.DataDirNotFound {
		return renderDataDirNotFoundModal(s.NewDataDirPath, width, height)
	}
	if s.ConfirmExit {
		return RenderUnsavedChangesModal(width, height)
	}
	if s.SaveError != "" {
		return RenderAcknowledgeModal("Error Saving Settings", s.SaveError, ModalTypeError, width, height)
	}

	if width < 20 || height < 10 {
		return "Terminal too small"
	}

	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}
	if modalWidth < 40 {
		modalWidth = 40
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Settings")

	separator := lipgloss.NewStyle().
		Foreground(dimColor).
		Render(strings.Repeat("─", modalWidth))

	var settingsLines []string
	for i, field := range s.Fields {
		var line string

		if s.EditMode && i == s.SelectedIdx {
			labelPadding := strings.Repeat(" ", 20-len(field.Label))
			inputBox := lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true).
				Width(modalWidth - 24).
				Render(s.EditInput.View())
			line = fmt.Sprintf("  %s%s%s", field.Label, labelPadding, inputBox)
		} else {
			indicator := "  "
			if i == s.SelectedIdx {
				indicator = "▶ "
			}

			value := field.Value
			validationIndicator := ""
			switch field.Validation {
			case FieldValidationPending:
				validationIndicator = "  ⏳"
			case FieldValidationSuccess:
				validationIndicator = "  ✓"
			case FieldValidationError:
				validationIndicator = "  ✗"
			}

			label := fmt.Sprintf("%s%s", indicator, field.Label)
			maxLabelWidth := 20
			if len(label) < maxLabelWidth {
				label = label + strings.Repeat(" ", maxLabelWidth-len(label))
			}

			valueWithIndicator := value + validationIndicator
			maxValueWidth := modalWidth - maxLabelWidth - 4
			if len(valueWithIndicator) > maxValueWidth {
				valueWithIndicator = valueWithIndicator[:maxValueWidth-3] + "..."
			}

			line = label + valueWithIndicator

			lineStyle := lipgloss.NewStyle()
			if i == s.SelectedIdx {
				lineStyle = lineStyle.Foreground(successColor).Bold(true)
			}
			line = lineStyle.Render(line)
		}

		settingsLines = append(settingsLines, lipgloss.NewStyle().
			Width(modalWidth).
			Render(line))
	}

	var footerText string
	if s.EditMode {
		footerText = FormatFooter("Enter", "Save", a.keyBindings.DisplayActionKey("clear_input"), "Clear", "Esc", "Cancel")
	} else if s.HasChanges {
		footerText = FormatFooter("Alt+Enter", "Save", "r", "Reset", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("j/k", "Navigate", "Enter", "Edit", "r", "Reset", "Esc", "Close")
	}
	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(footerText)

	var infoLine string
	if s.LoadedInfo != "" {
		infoLine = lipgloss.NewStyle().
			Width(modalWidth).
			Foreground(accentColor).
			Render("  "+s.LoadedInfo) + "\n"
	}

	var content strings.Builder
	content.WriteString(title + "\n")
	content.WriteString(separator + "\n")
	content.WriteString(strings.Repeat(" ", modalWidth) + "\n")
	for _, line := range settingsLines {
		content.WriteString(line + "\n")
	}
	content.WriteString(strings.Repeat(" ", modalWidth) + "\n")
	if infoLine != "" {
		content.WriteString(infoLine)
	}
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

func renderDataDirNotFoundModal(path string, width, height int) string {
	modalWidth := 60
	if width < modalWidth+10 {
		modalWidth = width - 10
	}

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center)

	messageLines := []string{
		strings.Repeat(" ", modalWidth),
		messageStyle.Render("The directory does not exist:"),
		strings.Repeat(" ", modalWidth),
		messageStyle.Render(path),
		strings.Repeat(" ", modalWidth),
		messageStyle.Render("Create a new data directory here?"),
		strings.Repeat(" ", modalWidth),
		messageStyle.Render("(a fresh config will be created there)"),
	}

	footer := FormatFooter("y", "Yes, create it", "n", "No, return to Settings")
	return RenderThreeSectionModal(
		"⚠  Data Directory Not Found",
		messageLines,
		footer,
		ModalTypeWarning,
		modalWidth,
		width,
		height,
	)
}
