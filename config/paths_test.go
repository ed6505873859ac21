package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde prefix", "~/notes", "/home/tester/notes"},
		{"absolute unchanged", "/var/data", "/var/data"},
		{"cleans dots", "/var/data/../data", "/var/data"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.input); got != tt.expected {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExpandPathEnvVars(t *testing.T) {
	t.Setenv("PLANA_TEST_BASE", "/srv/plana")

	if got := ExpandPath("$PLANA_TEST_BASE/data"); got != "/srv/plana/data" {
		t.Errorf("ExpandPath = %q, want /srv/plana/data", got)
	}
}

func TestNormalizeDataDirectory(t *testing.T) {
	if _, err := NormalizeDataDirectory(""); err == nil {
		t.Error("empty path should error")
	}

	// Path already ending in plana is used directly
	got, err := NormalizeDataDirectory("/data/plana")
	if err != nil {
		t.Fatalf("NormalizeDataDirectory failed: %v", err)
	}
	if got != "/data/plana" {
		t.Errorf("got %q, want /data/plana", got)
	}

	// Existing plana/ subfolder is picked up
	base := t.TempDir()
	sub := filepath.Join(base, "plana")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	got, err = NormalizeDataDirectory(base)
	if err != nil {
		t.Fatalf("NormalizeDataDirectory failed: %v", err)
	}
	if got != sub {
		t.Errorf("got %q, want %q", got, sub)
	}

	// Otherwise plana/ is appended for later creation
	fresh := t.TempDir()
	got, err = NormalizeDataDirectory(fresh)
	if err != nil {
		t.Fatalf("NormalizeDataDirectory failed: %v", err)
	}
	if got != filepath.Join(fresh, "plana") {
		t.Errorf("got %q, want %q", got, filepath.Join(fresh, "plana"))
	}
}

func TestEnvVarHelpers(t *testing.T) {
	t.Setenv("PLANA_OLLAMA_HOST", "")
	t.Setenv("PLANA_OLLAMA_MODEL", "")
	t.Setenv("PLANA_DATA_DIR", "")

	if HasAnyEnvVar() {
		t.Error("HasAnyEnvVar should be false with nothing set")
	}
	if HasAllEnvVars() {
		t.Error("HasAllEnvVars should be false with nothing set")
	}

	t.Setenv("PLANA_OLLAMA_HOST", "http://localhost:11434")
	if !HasAnyEnvVar() {
		t.Error("HasAnyEnvVar should be true with one var set")
	}
	if HasAllEnvVars() {
		t.Error("HasAllEnvVars should be false with a partial set")
	}
	if missing := GetMissingEnvVar(); missing != "PLANA_OLLAMA_MODEL" {
		t.Errorf("GetMissingEnvVar = %q, want PLANA_OLLAMA_MODEL", missing)
	}

	t.Setenv("PLANA_OLLAMA_MODEL", "llama3.1:latest")
	t.Setenv("PLANA_DATA_DIR", t.TempDir())
	if !HasAllEnvVars() {
		t.Error("HasAllEnvVars should be true with all vars set")
	}
}
