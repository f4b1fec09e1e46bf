package pitch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptBuilder_Render(t *testing.T) {
	b := NewPromptBuilder()

	system, user := b.Render("Tinder", "dog walking")
	if !strings.Contains(system, "JSON object") {
		t.Fatalf("system prompt does not pin the output contract: %q", system)
	}
	if !strings.Contains(system, `"summary"`) || !strings.Contains(system, `"quip"`) {
		t.Fatal("system prompt does not name both fields")
	}
	if !strings.Contains(user, "Tinder") || !strings.Contains(user, "dog walking") {
		t.Fatalf("user prompt missing inputs: %q", user)
	}
	if strings.Contains(user, "{{") {
		t.Fatalf("unsubstituted placeholder left in user prompt: %q", user)
	}
}

func TestPromptBuilder_SetTemplate(t *testing.T) {
	b := NewPromptBuilder()
	b.SetTemplate("pitch {{app}} into {{niche}}, twice: {{app}}")

	_, user := b.Render("X", "Y")
	if user != "pitch X into Y, twice: X" {
		t.Fatalf("Render() = %q", user)
	}

	// Empty restores the built-in default.
	b.SetTemplate("  ")
	if b.Template() != defaultUserTemplate {
		t.Fatal("empty SetTemplate did not restore the default template")
	}
}

func TestPromptBuilder_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(path, []byte("custom {{app}}/{{niche}}\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	b := NewPromptBuilder()
	if err := b.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	_, user := b.Render("A", "B")
	if user != "custom A/B" {
		t.Fatalf("Render() = %q, want loaded template applied", user)
	}

	if err := b.LoadFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("LoadFile on a missing path should error")
	}
	// A failed load keeps the previous template.
	if _, user := b.Render("A", "B"); user != "custom A/B" {
		t.Fatalf("failed LoadFile replaced the template: %q", user)
	}
}
