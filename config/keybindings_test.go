package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetActionKeyDefaults(t *testing.T) {
	kb := DefaultKeybindings()

	tests := []struct {
		action   string
		expected string
	}{
		{"help", "alt+h"},
		{"new_session", "alt+n"},
		{"settings", "alt+S"},
		{"search_all_sessions", "alt+F"},
		{"tool_toggle", "t"},
		{"model_selector_down", "j"},
		{"scroll_down", "alt+j"},
		{"page_down", "alt+pgdown"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			if got := kb.GetActionKey(tt.action); got != tt.expected {
				t.Errorf("GetActionKey(%q) = %q, want %q", tt.action, got, tt.expected)
			}
		})
	}
}

func TestGetActionKeyUserOverride(t *testing.T) {
	kb := DefaultKeybindings()
	kb.Actions = map[string]string{"scroll_down": "ctrl+d"}

	if got := kb.GetActionKey("scroll_down"); got != "ctrl+d" {
		t.Errorf("override ignored: got %q, want ctrl+d", got)
	}
	if got := kb.GetActionKey("scroll_up"); got != "alt+k" {
		t.Errorf("unrelated action changed: got %q, want alt+k", got)
	}
}

func TestGetActionKeyUnknownAction(t *testing.T) {
	kb := DefaultKeybindings()
	if got := kb.GetActionKey("does_not_exist"); got != "" {
		t.Errorf("unknown action returned %q, want empty", got)
	}
}

func TestSecondaryKeyShiftCollapsing(t *testing.T) {
	kb := DefaultKeybindings()

	// Single letters collapse shift into an uppercase letter
	if got := kb.SecondaryKey("s"); got != "alt+S" {
		t.Errorf("SecondaryKey(s) = %q, want alt+S", got)
	}
	// Special keys keep explicit shift
	if got := kb.SecondaryKey("f1"); got != "alt+shift+f1" {
		t.Errorf("SecondaryKey(f1) = %q, want alt+shift+f1", got)
	}
}

func TestDisplayActionKey(t *testing.T) {
	kb := DefaultKeybindings()

	if got := kb.DisplayActionKey("scroll_down"); got != "Alt+J" {
		t.Errorf("DisplayActionKey(scroll_down) = %q, want Alt+J", got)
	}
	// Uppercase letter renders as explicit Shift
	if got := kb.DisplayActionKey("settings"); got != "Alt+Shift+S" {
		t.Errorf("DisplayActionKey(settings) = %q, want Alt+Shift+S", got)
	}
}

func TestCustomModifiers(t *testing.T) {
	kb := &KeyBindingsConfig{
		Modifiers: ModifierConfig{Primary: "ctrl", Secondary: "ctrl+shift"},
	}

	if got := kb.GetActionKey("help"); got != "ctrl+h" {
		t.Errorf("GetActionKey(help) = %q, want ctrl+h", got)
	}
	if got := kb.GetActionKey("settings"); got != "ctrl+S" {
		t.Errorf("GetActionKey(settings) = %q, want ctrl+S", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		primary   string
		secondary string
		valid     bool
	}{
		{"defaults", "alt", "alt+shift", true},
		{"shift alone", "shift", "alt+shift", false},
		{"ctrl warns but valid", "ctrl", "ctrl+shift", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := &KeyBindingsConfig{
				Modifiers: ModifierConfig{Primary: tt.primary, Secondary: tt.secondary},
			}
			valid, _ := kb.Validate()
			if valid != tt.valid {
				t.Errorf("Validate() = %v, want %v", valid, tt.valid)
			}
		})
	}
}

func TestLoadKeybindingsCreatesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	kb, err := LoadKeybindings(dataDir)
	if err != nil {
		t.Fatalf("LoadKeybindings failed: %v", err)
	}
	if kb.Primary() != "alt" {
		t.Errorf("Primary() = %q, want alt", kb.Primary())
	}
	if !FileExists(filepath.Join(dataDir, "keybindings.toml")) {
		t.Error("LoadKeybindings should write the default template")
	}
}

func TestLoadKeybindingsParsesOverrides(t *testing.T) {
	dataDir := t.TempDir()
	content := `
[modifiers]
primary = "super"

[actions]
quit = "ctrl+shift+q"
`
	if err := os.WriteFile(filepath.Join(dataDir, "keybindings.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	kb, err := LoadKeybindings(dataDir)
	if err != nil {
		t.Fatalf("LoadKeybindings failed: %v", err)
	}
	if kb.Primary() != "super" {
		t.Errorf("Primary() = %q, want super", kb.Primary())
	}
	// Missing secondary falls back to the default
	if kb.Secondary() != "alt+shift" {
		t.Errorf("Secondary() = %q, want alt+shift", kb.Secondary())
	}
	if got := kb.GetActionKey("quit"); got != "ctrl+shift+q" {
		t.Errorf("GetActionKey(quit) = %q, want ctrl+shift+q", got)
	}
}
