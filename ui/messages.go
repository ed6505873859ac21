package ui

import (
	appmodel "plana/model"
)

// Message type aliases - the underlying types live in the model package so
// commands can be built without importing ui.
type streamEventMsg = appmodel.StreamEventMsg
type streamFinishedMsg = appmodel.StreamFinishedMsg
type historyRefreshedMsg = appmodel.HistoryRefreshedMsg
type partialSavedMsg = appmodel.PartialSavedMsg
type conversationCreatedMsg = appmodel.ConversationCreatedMsg
type markdownRenderedMsg = appmodel.MarkdownRenderedMsg
type modelsListMsg = appmodel.ModelsListMsg
type sessionsListMsg = appmodel.SessionsListMsg
type sessionLoadedMsg = appmodel.SessionLoadedMsg
type sessionSavedMsg = appmodel.SessionSavedMsg
type sessionRenamedMsg = appmodel.SessionRenamedMsg
type sessionExportedMsg = appmodel.SessionExportedMsg
type sessionImportedMsg = appmodel.SessionImportedMsg
type exportCleanupDoneMsg = appmodel.ExportCleanupDoneMsg
type flashTickMsg = appmodel.FlashTickMsg
type shutdownProgressMsg = appmodel.ShutdownProgressMsg
type editorContentMsg = appmodel.EditorContentMsg
type editorErrorMsg = appmodel.EditorErrorMsg

type SettingFieldType int

const (
	SettingTypeDataDir SettingFieldType = iota
	SettingTypeProviderLink
	SettingTypeModel
	SettingTypeSystemPrompt
	SettingTypeToolsEnabled
)

type SettingFieldValidation int

const (
	FieldValidationNone SettingFieldValidation = iota
	FieldValidationPending
	FieldValidationSuccess
	FieldValidationError
)

type SettingField struct {
	Label        string
	Value        string
	DefaultValue string
	Type         SettingFieldType
	Validation   SettingFieldValidation
	ErrorMsg     string
}
