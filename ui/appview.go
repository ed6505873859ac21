package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plana/config"
	appmodel "plana/model"
	"plana/storage"
)

// AppView is the bubbletea model for the main chat screen. It owns the UI
// widgets and modal state; all conversation and streaming state lives in the
// data model so the two never drift apart.
type AppView struct {
	dataModel *appmodel.Model

	// Core widgets
	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model
	width          int
	height         int
	ready          bool

	keyBindings *config.KeyBindingsConfig

	// Modal visibility flags. At most one modal renders at a time; View picks
	// the topmost in a fixed order.
	showHelp           bool
	showAbout          bool
	showSettings       bool
	showSessionManager bool
	showModelSelector  bool
	showToolManager    bool
	showMessageSearch  bool
	showGlobalSearch   bool
	showNewSession     bool
	showEditSession    bool

	// Acknowledge modal (errors, warnings, info)
	showAcknowledgeModal  bool
	acknowledgeModalTitle string
	acknowledgeModalMsg   string
	acknowledgeModalType  ModalType

	// Model selector state
	modelList          []appmodel.ModelInfo
	selectedModelIdx   int
	modelFilterMode    bool
	modelFilterInput   textinput.Model
	filteredModels     []appmodel.ModelInfo
	pendingModelSwitch *appmodel.ModelInfo // set while the tool warning modal is up

	// Session manager state
	sessionList          []storage.SessionMetadata
	selectedSessionIdx   int
	sessionRenameMode    bool
	sessionRenameInput   textinput.Model
	sessionFilterMode    bool
	sessionFilterInput   textinput.Model
	filteredSessions     []storage.SessionMetadata
	confirmDeleteSession *storage.SessionMetadata

	// Session export/import state
	sessionExportMode       bool
	sessionExportInput      textinput.Model
	exportingSession        bool
	exportCleaningUp        bool
	exportSpinner           spinner.Model
	sessionExportSuccess    string
	exportTargetPath        string
	exportCancelCtx         context.Context
	exportCancelFunc        context.CancelFunc
	sessionImportPicker     FilePickerState
	sessionImportCancelCtx  context.Context
	sessionImportCancelFunc context.CancelFunc
	sessionImportSuccess    *storage.Session

	// New/edit session modal state
	sessionForm SessionFormState

	// Search state (current session and global)
	searchInput            textinput.Model
	searchResults          []storage.TurnMatch
	searchSelectedIdx      int
	searchScrollIdx        int
	globalSearchInput      textinput.Model
	globalSearchResults    []storage.SessionTurnMatch
	globalSelectedIdx      int
	globalScrollIdx        int
	pendingScrollToTurnIdx int
	highlightedTurnIdx     int
	highlightFlashCount    int

	// Edit-and-rerun: the textarea holds a prior prompt being revised
	editingMessage bool

	// Rendered markdown cache, keyed by turn ID so entries survive the
	// transcript rewind an edit-and-rerun performs.
	renderedTurns map[string]string

	// Tool server manager modal
	toolManager ToolManagerState

	// Tool system startup/shutdown progress modal
	toolSystem ToolSystemState

	// Settings modal
	settings SettingsState

	// Provider settings modal
	providerSettings ProviderSettingsState

	// Data directory switch passphrase prompt
	passphraseForDataDir bool
	passphraseInput      textinput.Model
	passphraseError      string
	pendingDataDir       string

	// Transient status line text, cleared after statusExpiry
	statusMessage string
	statusExpiry  time.Time

	shuttingDown bool
}

// NewAppView builds the UI around an already-initialized data model.
func NewAppView(dataModel *appmodel.Model) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	exportSp := spinner.New()
	exportSp.Spinner = spinner.Dot

	kb, err := config.LoadKeybindings(dataModel.Config.DataDir())
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Failed to load keybindings, using defaults: %v", err)
		}
		kb = config.DefaultKeybindings()
	}
	if ok, problem := kb.Validate(); !ok {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Invalid keybindings (%s), using defaults", problem)
		}
		kb = config.DefaultKeybindings()
	}

	a := AppView{
		dataModel:              dataModel,
		textarea:               ta,
		loadingSpinner:         sp,
		exportSpinner:          exportSp,
		keyBindings:            kb,
		modelFilterInput:       newFilterInput("Filter models..."),
		sessionFilterInput:     newFilterInput("Filter sessions..."),
		sessionRenameInput:     newFilterInput("New name"),
		sessionExportInput:     newFilterInput("Export path"),
		searchInput:            newFilterInput("Search this session..."),
		globalSearchInput:      newFilterInput("Search all sessions..."),
		passphraseInput:        NewPassphraseInput("Enter passphrase"),
		pendingScrollToTurnIdx: -1,
		highlightedTurnIdx:     -1,
		renderedTurns:          make(map[string]string),
		sessionImportPicker: NewFilePickerState(FilePickerConfig{
			Title:         "Import Session",
			Mode:          FilePickerModeOpen,
			AllowedTypes:  []string{".json"},
			OperationType: "Import",
		}),
		sessionForm: NewSessionFormState(),
	}

	// Lock the restored session so a second instance cannot load it too.
	if dataModel.CurrentSession != nil && dataModel.SessionStorage != nil {
		_ = dataModel.SessionStorage.LockSession(dataModel.CurrentSession.ID)
	}

	return a
}

func newFilterInput(placeholder string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = 200
	input.Width = 50
	return input
}

func (a AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		a.dataModel.FetchAllModels(false),
		a.dataModel.EnsureConversationCmd(),
	}
	if mgr := a.dataModel.MCPManager; mgr != nil && mgr.IsEnabled() {
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := mgr.StartAllEnabledServers(ctx); err != nil && config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Tool server startup: %v", err)
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// setCurrentSession swaps the loaded session and syncs dependent subsystems
// (session lock, MCP manager, provider selection).
func (a *AppView) setCurrentSession(session *storage.Session) {
	a.dataModel.ApplyLoadedSession(session)

	if session != nil && a.dataModel.SessionStorage != nil {
		_ = a.dataModel.SessionStorage.LockSession(session.ID)
	}

	if session != nil && session.Model != "" {
		providerID := session.Provider
		if providerID == "" {
			providerID = a.dataModel.Config.DefaultProvider
		}
		if p, ok := a.dataModel.Providers[providerID]; ok {
			a.dataModel.Provider = p
			p.SetModel(session.Model)
		} else if a.dataModel.Provider != nil {
			a.dataModel.Provider.SetModel(session.Model)
		}
	}
}

// closeAllModals resets every modal flag. Used by global shortcuts so a
// toggle always lands on a clean main view.
func (a *AppView) closeAllModals() {
	a.showHelp = false
	a.showAbout = false
	a.showSettings = false
	a.showSessionManager = false
	a.showModelSelector = false
	a.showToolManager = false
	a.showMessageSearch = false
	a.showGlobalSearch = false
	a.showNewSession = false
	a.showEditSession = false
	a.showAcknowledgeModal = false
	a.sessionRenameMode = false
	a.sessionFilterMode = false
	a.sessionExportMode = false
	a.sessionImportPicker.Reset()
	a.confirmDeleteSession = nil
	a.modelFilterMode = false
	a.pendingModelSwitch = nil
	a.providerSettings.visible = false
}

// anyModalOpen reports whether something is layered over the chat view.
func (a *AppView) anyModalOpen() bool {
	return a.showHelp || a.showAbout || a.showSettings || a.showSessionManager ||
		a.showModelSelector || a.showToolManager || a.showMessageSearch ||
		a.showGlobalSearch || a.showNewSession || a.showEditSession ||
		a.showAcknowledgeModal || a.passphraseForDataDir || a.toolSystem.Active ||
		a.providerSettings.visible
}

func (a AppView) View() string {
	if !a.ready {
		return "Initializing..."
	}

	// Modal layering: the topmost active modal takes the whole screen.
	if a.passphraseForDataDir {
		return RenderPassphraseModal("SSH Key Passphrase Required", a.pendingDataDir,
			a.passphraseInput, a.passphraseError, a.width, a.height)
	}
	if a.toolSystem.Active {
		return RenderToolSystemModal(a.toolSystem, a.width, a.height)
	}
	if a.showAcknowledgeModal {
		return RenderAcknowledgeModal(a.acknowledgeModalTitle, a.acknowledgeModalMsg,
			a.acknowledgeModalType, a.width, a.height)
	}
	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}
	if a.showAbout {
		return renderAboutModal(a.width, a.height, a.dataModel.Version, a.dataModel.License)
	}
	if a.providerSettings.visible {
		return a.renderProviderSettings(a.width, a.height)
	}
	if a.showSettings {
		return a.renderSettings(a.width, a.height)
	}
	if a.showToolManager {
		return a.renderToolManager()
	}
	if a.showNewSession || a.showEditSession {
		return a.renderSessionForm()
	}
	if a.showSessionManager {
		currentID := ""
		if a.dataModel.CurrentSession != nil {
			currentID = a.dataModel.CurrentSession.ID
		}
		return renderSessionManager(a.sessionList, a.selectedSessionIdx, currentID,
			a.sessionRenameMode, a.sessionRenameInput,
			a.sessionExportMode, a.sessionExportInput, a.exportingSession, a.exportCleaningUp,
			a.exportSpinner, a.sessionExportSuccess,
			a.sessionImportPicker,
			a.confirmDeleteSession,
			a.sessionFilterMode, a.sessionFilterInput, a.filteredSessions,
			a.width, a.height)
	}
	if a.pendingModelSwitch != nil {
		return RenderToolWarningModal(a.pendingModelSwitch.Name, a.enabledToolNames(), a.width, a.height)
	}
	if a.showModelSelector {
		currentModel := ""
		if a.dataModel.Provider != nil {
			currentModel = a.dataModel.Provider.GetModel()
		}
		return renderModelSelector(a.modelList, a.selectedModelIdx, currentModel,
			a.modelFilterMode, a.modelFilterInput, a.filteredModels,
			len(a.dataModel.Providers) > 1, a.width, a.height)
	}
	if a.showMessageSearch {
		return renderMessageSearch(a.searchInput, a.searchResults,
			a.searchSelectedIdx, a.searchScrollIdx, a.width, a.height)
	}
	if a.showGlobalSearch {
		return renderGlobalSearch(a.globalSearchInput, a.globalSearchResults,
			a.globalSelectedIdx, a.globalScrollIdx, a.width, a.height)
	}

	return a.renderMainView()
}

func (a AppView) renderMainView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderTitleBar(),
		a.viewport.View(),
		a.textarea.View(),
		a.renderStatusBar(),
	)
}

func (a AppView) renderTitleBar() string {
	parts := []string{"Plan-A"}

	if a.dataModel.Provider != nil {
		parts = append(parts, a.dataModel.Provider.GetDisplayName())
	}
	if s := a.dataModel.CurrentSession; s != nil && s.Name != "" {
		parts = append(parts, s.Name)
	}
	if !a.dataModel.DirectMode() {
		parts = append(parts, "agent")
	}

	line := TitleStyle.Render(strings.Join(parts, " - "))

	if mgr := a.dataModel.MCPManager; mgr != nil && mgr.IsEnabled() {
		if names := mgr.GetActiveServerNames(); len(names) > 0 {
			line += DimStyle.Render(fmt.Sprintf(" | tools: %s", strings.Join(names, ", ")))
		}
		if failed := mgr.GetFailedServers(); len(failed) > 0 {
			line += ToolErrorStyle.Render(fmt.Sprintf(" | %d failed", len(failed)))
		}
	}

	return lipgloss.NewStyle().
		Width(a.width).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(line)
}

func (a AppView) renderStatusBar() string {
	var left string
	switch {
	case a.dataModel.Streaming:
		left = a.loadingSpinner.View() + " thinking... (Esc to stop)"
	case a.editingMessage:
		left = SelectedStyle.Render("editing message") +
			StatusStyle.Render("  Enter resend · Esc cancel")
	case a.statusMessage != "" && time.Now().Before(a.statusExpiry):
		left = StatusStyle.Render(a.statusMessage)
	default:
		left = StatusStyle.Render(fmt.Sprintf("%s+H help · Enter send", a.keyBindings.PrimaryDisplay()))
	}

	right := ""
	if a.dataModel.SessionDirty {
		right = StatusStyle.Render("● unsaved")
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + left + strings.Repeat(" ", gap) + right
}

// flash sets a transient status line message.
func (a *AppView) flash(msg string) {
	a.statusMessage = msg
	a.statusExpiry = time.Now().Add(3 * time.Second)
}

// enabledToolNames lists the tool servers enabled for the current session.
func (a *AppView) enabledToolNames() []string {
	if a.dataModel.CurrentSession == nil {
		return nil
	}
	return a.dataModel.CurrentSession.GetEnabledTools()
}
