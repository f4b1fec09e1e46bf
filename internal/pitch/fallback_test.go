package pitch

import (
	"strings"
	"testing"
)

func TestFallbackSummary_Deterministic(t *testing.T) {
	a := FallbackSummary("Tinder", "dog walking")
	b := FallbackSummary("Tinder", "dog walking")
	if a != b {
		t.Fatal("FallbackSummary is not deterministic for a fixed pair")
	}
	if a == FallbackSummary("Uber", "dog walking") {
		t.Fatal("FallbackSummary ignores the app input")
	}
}

func TestFallbackSummary_Shape(t *testing.T) {
	s := FallbackSummary("Tinder", "dog walking")

	// Same shape the backend is asked for: a paragraph, then a
	// numbered business-model list.
	if !strings.Contains(s, "Tinder") || !strings.Contains(s, "dog walking") {
		t.Fatalf("summary does not mention both inputs: %q", s)
	}
	if !strings.Contains(s, "Business model:") {
		t.Fatalf("summary missing business-model section: %q", s)
	}
	for _, marker := range []string{"1.", "2.", "3."} {
		if !strings.Contains(s, marker) {
			t.Fatalf("summary missing list entry %q", marker)
		}
	}
	if !strings.Contains(s, "\n\n") {
		t.Fatal("summary should separate the paragraph from the list")
	}
}

func TestFallbackQuip(t *testing.T) {
	q := FallbackQuip("Tinder", "dog walking")
	if q != FallbackQuip("Tinder", "dog walking") {
		t.Fatal("FallbackQuip is not deterministic")
	}
	if !strings.Contains(q, "Tinder") || !strings.Contains(q, "dog walking") {
		t.Fatalf("quip does not mention both inputs: %q", q)
	}
	if strings.Contains(q, "\n") {
		t.Fatalf("quip must be a one-liner: %q", q)
	}
}
