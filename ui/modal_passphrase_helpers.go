package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"plana/config"
)

// NewPassphraseInput creates a configured textinput for SSH passphrase entry.
// Reused across launch, the welcome wizard, and data directory switches.
func NewPassphraseInput(placeholder string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Width = 50
	input.CharLimit = 200
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	return input
}

// RenderPassphraseModal renders a modal prompting for the SSH key passphrase.
func RenderPassphraseModal(title, keyPath string, passphraseInput textinput.Model, errorMsg string, width, height int) string {
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

	var messageLines []string
	messageLines = append(messageLines, centerTextLine("The SSH key is encrypted with a passphrase.", modalWidth))
	messageLines = append(messageLines, centerTextLine(fmt.Sprintf("Key: %s", keyPath), modalWidth))
	messageLines = append(messageLines, centerTextLine("Please enter the passphrase:", modalWidth))
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))
	messageLines = append(messageLines, centerTextLine(passphraseInput.View(), modalWidth))

	if errorMsg != "" {
		messageLines = append(messageLines, strings.Repeat(" ", modalWidth))
		styledErr := lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true).
			Render("⚠ " + errorMsg)
		messageLines = append(messageLines, centerTextLine(styledErr, modalWidth))
	}

	footer := "Enter Continue  |  Esc Cancel"
	return RenderThreeSectionModal(title, messageLines, footer, ModalTypeInfo, modalWidth, width, height)
}

// centerTextLine centers a line of text within a given width.
func centerTextLine(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}

	leftPad := (width - textWidth) / 2
	rightPad := width - textWidth - leftPad
	return strings.Repeat(" ", leftPad) + text + strings.Repeat(" ", rightPad)
}

func ValidatePassphraseNotEmpty(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}
	return nil
}

func GetEmptyPassphraseError() string {
	return "Passphrase cannot be empty"
}

func GetIncorrectPassphraseError() string {
	return "Incorrect passphrase. Please try again."
}

// LoadCredentialsWithPassphrase sets the passphrase on the credential store
// and attempts to decrypt the stored credentials with it. Returns an error
// when the passphrase is wrong or the store cannot be read.
func LoadCredentialsWithPassphrase(cfg *config.Config, passphrase string) error {
	if cfg == nil || cfg.CredentialStore == nil {
		return fmt.Errorf("invalid config - cannot set passphrase")
	}

	cfg.CredentialStore.SetPassphrase(passphrase)

	if err := cfg.CredentialStore.Load(cfg.DataDir()); err != nil {
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[passphrase] credential load failed: %v", err)
		}
		return err
	}

	return nil
}
