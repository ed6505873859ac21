package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestWelcomeServerStepOptional(t *testing.T) {
	m := NewWelcomeModel()
	m.step = stepServer
	// A token without a URL is meaningless; direct mode drops it.
	m.tokenInput.SetValue("stray-token")

	res, _ := m.updateServerScreen(tea.KeyMsg{Type: tea.KeyEnter})
	next := res.(WelcomeModel)
	if next.step != stepDataDirectory {
		t.Fatalf("step = %v, want data directory", next.step)
	}
	if next.serverURL != "" || next.serverToken != "" {
		t.Errorf("empty URL should configure direct mode, got %q / %q", next.serverURL, next.serverToken)
	}
}

func TestWelcomeServerStepStoresBackend(t *testing.T) {
	m := NewWelcomeModel()
	m.step = stepServer
	m.serverInput.SetValue("https://notes.example.com/ ")
	m.tokenInput.SetValue(" tok123 ")

	res, _ := m.updateServerScreen(tea.KeyMsg{Type: tea.KeyEnter})
	next := res.(WelcomeModel)
	if next.serverURL != "https://notes.example.com" {
		t.Errorf("serverURL = %q, want trimmed", next.serverURL)
	}
	if next.serverToken != "tok123" {
		t.Errorf("serverToken = %q, want trimmed", next.serverToken)
	}
}

func TestWelcomeServerStepFocusToggle(t *testing.T) {
	m := NewWelcomeModel()
	m.step = stepServer

	res, _ := m.updateServerScreen(tea.KeyMsg{Type: tea.KeyTab})
	next := res.(WelcomeModel)
	if next.serverFocus != 1 {
		t.Fatalf("first tab should focus the token field, got %d", next.serverFocus)
	}
	res, _ = next.updateServerScreen(tea.KeyMsg{Type: tea.KeyTab})
	if res.(WelcomeModel).serverFocus != 0 {
		t.Error("second tab should return to the URL field")
	}
}
