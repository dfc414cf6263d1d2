package lsp

import (
	"testing"

	"ergols/internal/source"
)

func TestApplyChangesIncremental(t *testing.T) {
	text := "val a = 1\nval b = 2\n"
	got := applyChanges(text, []textDocumentContentChangeEvent{
		{Range: &lspRange{Start: position{Line: 1, Character: 8}, End: position{Line: 1, Character: 9}}, Text: "42"},
		{Range: &lspRange{Start: position{Line: 0, Character: 4}, End: position{Line: 0, Character: 5}}, Text: "alpha"},
	})
	want := "val alpha = 1\nval b = 42\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyChangesFullReplace(t *testing.T) {
	got := applyChanges("old", []textDocumentContentChangeEvent{
		{Text: "{ sigmaProp(true) }"},
		{Range: &lspRange{Start: position{Line: 0, Character: 0}, End: position{Line: 0, Character: 1}}, Text: "("},
	})
	if got != "( sigmaProp(true) }" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestApplyChangesUTF16(t *testing.T) {
	// "é" is one UTF-16 unit and two UTF-8 bytes; the emoji is two units.
	text := "é😀x"
	got := applyChanges(text, []textDocumentContentChangeEvent{
		{Range: &lspRange{Start: position{Line: 0, Character: 3}, End: position{Line: 0, Character: 4}}, Text: "y"},
	})
	if got != "é😀y" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyChangesClampsRange(t *testing.T) {
	got := applyChanges("abc", []textDocumentContentChangeEvent{
		{Range: &lspRange{Start: position{Line: 0, Character: 2}, End: position{Line: 9, Character: 0}}, Text: "Z"},
	})
	if got != "abZ" {
		t.Fatalf("got %q", got)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	lines := source.NewLines("ab\nc😀d\n")
	off := offsetForPosition(lines, position{Line: 1, Character: 3})
	if off != 8 {
		t.Fatalf("offset = %d, want 8", off)
	}
	if pos := positionForOffset(lines, off); pos != (position{Line: 1, Character: 3}) {
		t.Fatalf("position = %+v", pos)
	}
}
