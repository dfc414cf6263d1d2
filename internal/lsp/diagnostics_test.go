package lsp

import (
	"testing"

	"ergols/internal/diag"
	"ergols/internal/source"
)

func TestToDiagnosticsRanges(t *testing.T) {
	lines := source.NewLines("{\n  val x =\n}")
	out := diag.FromDescriptors(diag.StatusAuthoritative, "", []diag.Descriptor{
		diag.At(diag.OriginAnalyzer, 4, 3, "incomplete val declaration"),
		diag.At(diag.OriginHeuristic, 13, 0, "unclosed brace"),
		diag.AtLineCol(diag.OriginAnalyzer, 2, 0, "bad close"),
		diag.Message(diag.OriginAnalyzer, "somewhere"),
		diag.Message(diag.OriginBridge, "analyzer timed out after 5s"),
	})
	got := toDiagnostics(lines, out, 0)
	if len(got) != 5 {
		t.Fatalf("expected 5 diagnostics, got %d", len(got))
	}

	want := []lspRange{
		{Start: position{Line: 1, Character: 2}, End: position{Line: 1, Character: 5}},
		{Start: position{Line: 2, Character: 1}, End: position{Line: 2, Character: 1}},
		{Start: position{Line: 2, Character: 0}, End: position{Line: 2, Character: 1}},
		fallbackRange,
		fallbackRange,
	}
	for i, w := range want {
		if got[i].Range != w {
			t.Fatalf("diagnostic %d range = %+v, want %+v", i, got[i].Range, w)
		}
		if got[i].Source != "ergoscript" {
			t.Fatalf("diagnostic %d source = %q", i, got[i].Source)
		}
	}
	if got[0].Severity != severityError || got[4].Severity != severityWarning {
		t.Fatalf("unexpected severities %d / %d", got[0].Severity, got[4].Severity)
	}
}

func TestToDiagnosticsLineBeyondText(t *testing.T) {
	lines := source.NewLines("x")
	out := diag.FromDescriptors(diag.StatusAuthoritative, "", []diag.Descriptor{
		diag.AtLineCol(diag.OriginAnalyzer, 40, 2, "far away"),
	})
	got := toDiagnostics(lines, out, 0)
	if len(got) != 1 || got[0].Range != fallbackRange {
		t.Fatalf("expected fallback range, got %+v", got)
	}
}

func TestToDiagnosticsLimit(t *testing.T) {
	var errs []diag.Descriptor
	for i := range 5 {
		errs = append(errs, diag.At(diag.OriginAnalyzer, i, 1, "e"))
	}
	got := toDiagnostics(source.NewLines("abcdef"), diag.FromDescriptors(diag.StatusAuthoritative, "", errs), 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(got))
	}
	if got[1].Range.Start.Character != 1 {
		t.Fatalf("limit must keep discovery order, got %+v", got[1].Range)
	}
}

func TestToDiagnosticsEmptyOutcome(t *testing.T) {
	got := toDiagnostics(source.NewLines(""), diag.Succeeded(diag.StatusAuthoritative, ""), 0)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}
