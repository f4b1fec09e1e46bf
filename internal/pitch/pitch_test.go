package pitch

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitize_Passthrough(t *testing.T) {
	app, niche, err := sanitize("Tinder", "dog walking")
	if err != nil {
		t.Fatalf("sanitize() error = %v", err)
	}
	if app != "Tinder" || niche != "dog walking" {
		t.Fatalf("sanitize() = (%q, %q)", app, niche)
	}
}

func TestSanitize_Trims(t *testing.T) {
	app, niche, err := sanitize("  Uber \n", "\tlawn care  ")
	if err != nil {
		t.Fatalf("sanitize() error = %v", err)
	}
	if app != "Uber" || niche != "lawn care" {
		t.Fatalf("sanitize() = (%q, %q), want trimmed", app, niche)
	}
}

func TestSanitize_EmptyApp(t *testing.T) {
	_, _, err := sanitize("", "dog walking")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("sanitize() error = %v, want *ValidationError", err)
	}
	if verr.Field != "app" {
		t.Fatalf("Field = %q, want app", verr.Field)
	}
}

func TestSanitize_WhitespaceNiche(t *testing.T) {
	_, _, err := sanitize("Tinder", " \t\n ")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("sanitize() error = %v, want *ValidationError", err)
	}
	if verr.Field != "niche" {
		t.Fatalf("Field = %q, want niche", verr.Field)
	}
}

func TestSanitize_CapsLengths(t *testing.T) {
	longApp := strings.Repeat("a", MaxAppLen+20)
	longNiche := strings.Repeat("n", MaxNicheLen+5)

	app, niche, err := sanitize(longApp, longNiche)
	if err != nil {
		t.Fatalf("sanitize() error = %v", err)
	}
	if len(app) != MaxAppLen {
		t.Fatalf("len(app) = %d, want %d", len(app), MaxAppLen)
	}
	if len(niche) != MaxNicheLen {
		t.Fatalf("len(niche) = %d, want %d", len(niche), MaxNicheLen)
	}
}

func TestSanitize_CapsRunesNotBytes(t *testing.T) {
	// 70 two-byte runes; the cap must count runes, not bytes.
	app, _, err := sanitize(strings.Repeat("é", 70), "niche")
	if err != nil {
		t.Fatalf("sanitize() error = %v", err)
	}
	if got := len([]rune(app)); got != MaxAppLen {
		t.Fatalf("rune count = %d, want %d", got, MaxAppLen)
	}
}

func TestSanitize_RetrimsAfterCap(t *testing.T) {
	// Cap lands on a space; the result must not carry it.
	input := strings.Repeat("x", MaxAppLen-1) + " tail"
	app, _, err := sanitize(input, "niche")
	if err != nil {
		t.Fatalf("sanitize() error = %v", err)
	}
	if strings.HasSuffix(app, " ") {
		t.Fatalf("app = %q, trailing whitespace survived the cap", app)
	}
}
