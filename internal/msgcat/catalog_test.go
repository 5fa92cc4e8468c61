package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedOutcomes(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{
		"outcome.white_checkmates",
		"outcome.black_timeout",
		"outcome.draw_accepted",
	} {
		s, err := c.Render(key, nil)
		if err != nil {
			t.Fatalf("Render(%s): %v", key, err)
		}
		if strings.TrimSpace(s) == "" {
			t.Fatalf("Render(%s) is empty", key)
		}
	}
}

func TestRenderTemplateData(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := c.Render("status.ongoing", map[string]any{"GameID": 7, "TurnColor": "white"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(s, "7") || !strings.Contains(s, "white") {
		t.Fatalf("rendered = %q", s)
	}
}

func TestRenderMissingKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("outcome.nope", nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if got := c.RenderOr("outcome.nope", nil, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "local.yaml"), []byte("outcome:\n  stalemate: \"Dead drawn.\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := c.Render("outcome.stalemate", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s != "Dead drawn." {
		t.Fatalf("override not applied: %q", s)
	}
	// Defaults survive alongside the override.
	if _, err := c.Render("outcome.draw_accepted", nil); err != nil {
		t.Fatalf("default lost: %v", err)
	}
}
