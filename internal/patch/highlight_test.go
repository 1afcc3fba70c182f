package patch

import (
	"testing"
)

func TestHighlight(t *testing.T) {
	lines := []string{
		"import os",
		"",
		"def main():",
		`    print("hello")`,
	}

	highlighted := Highlight("python", "", lines)

	if len(highlighted) != len(lines) {
		t.Fatalf("expected %d highlighted lines, got %d", len(lines), len(highlighted))
	}
	if len(highlighted[0].Tokens) == 0 {
		t.Error("expected tokens in first line")
	}
	for i := range lines {
		if highlighted[i].Plain() != lines[i] {
			t.Errorf("line %d plain text = %q, want %q", i, highlighted[i].Plain(), lines[i])
		}
	}
}

func TestHighlightFilenameFallback(t *testing.T) {
	lines := []string{"package main"}
	highlighted := Highlight("", "main.go", lines)

	if len(highlighted) != 1 {
		t.Fatalf("expected 1 line, got %d", len(highlighted))
	}
	if highlighted[0].Plain() != "package main" {
		t.Errorf("plain text mismatch: %q", highlighted[0].Plain())
	}
	if len(highlighted[0].Tokens) == 0 {
		t.Error("expected tokens from filename lexer")
	}
}

func TestHighlightUnknownLanguage(t *testing.T) {
	lines := []string{"some content", "more content"}
	highlighted := Highlight("klingon", "unknown.xyz123", lines)

	if len(highlighted) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(highlighted))
	}
	if highlighted[0].Plain() != "some content" {
		t.Errorf("expected plain passthrough, got %q", highlighted[0].Plain())
	}
}
