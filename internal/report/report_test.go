package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"ergols/internal/analysis"
	"ergols/internal/diag"
	"ergols/internal/observ"
	"ergols/internal/source"
)

func sampleEntries() []Entry {
	fs := source.NewFileSet()
	bad := fs.Get(fs.AddVirtual("contract.es", []byte("{\n  val x =\n}")))
	good := fs.Get(fs.AddVirtual("ok.es", []byte("{ sigmaProp(true) }")))

	badReq := analysis.NewRequest("", string(bad.Content), 0)
	goodReq := analysis.NewRequest("", string(good.Content), 0)
	return []Entry{
		{File: bad, Result: analysis.Result{
			Request: badReq,
			Outcome: diag.FromDescriptors(diag.StatusAuthoritative, "", []diag.Descriptor{
				diag.At(diag.OriginAnalyzer, 4, 3, "incomplete val declaration"),
			}),
			Timings: observ.Report{TotalMS: 2, Phases: []observ.PhaseReport{{Name: "heuristic", DurationMS: 2}}},
		}},
		{File: good, Result: analysis.Result{
			Request: goodReq,
			Outcome: diag.Succeeded(diag.StatusAuthoritative, ""),
		}},
	}
}

func TestBuildResolvesPositions(t *testing.T) {
	out := Build(sampleEntries(), Options{})
	if out.Summary != (Summary{Files: 2, Failed: 1, Errors: 1}) {
		t.Fatalf("unexpected summary %+v", out.Summary)
	}
	fr := out.Files[0]
	if fr.Path != "contract.es" || fr.Success || fr.Status != "authoritative" {
		t.Fatalf("unexpected file report %+v", fr)
	}
	er := fr.Errors[0]
	if er.Line == nil || *er.Line != 2 || er.Column == nil || *er.Column != 3 {
		t.Fatalf("expected 2:3, got %v:%v", er.Line, er.Column)
	}
	if er.Origin != "analyzer" || er.Severity != "error" {
		t.Fatalf("unexpected origin/severity %q/%q", er.Origin, er.Severity)
	}
	if fr.Timings != nil {
		t.Fatalf("timings must be omitted unless requested")
	}
	if out.Files[1].Errors == nil || len(out.Files[1].Errors) != 0 {
		t.Fatalf("success should carry an empty error list")
	}
}

func TestBuildLineColumnDescriptor(t *testing.T) {
	entries := []Entry{{Result: analysis.Result{
		Request: analysis.Request{Document: "stdin"},
		Outcome: diag.FromDescriptors(diag.StatusDegraded, "analyzer timed out after 5s", []diag.Descriptor{
			diag.AtLineCol(diag.OriginAnalyzer, 0, 4, "unexpected token"),
			diag.Message(diag.OriginBridge, "analyzer timed out after 5s"),
		}),
	}}}
	fr := Build(entries, Options{}).Files[0]
	if fr.Path != "stdin" {
		t.Fatalf("path should fall back to the document, got %q", fr.Path)
	}
	if *fr.Errors[0].Line != 1 || *fr.Errors[0].Column != 5 {
		t.Fatalf("unexpected position %d:%d", *fr.Errors[0].Line, *fr.Errors[0].Column)
	}
	if fr.Errors[1].Line != nil || fr.Errors[1].Severity != "warning" {
		t.Fatalf("bridge note should be an unpositioned warning: %+v", fr.Errors[1])
	}
}

func TestJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, Build(sampleEntries(), Options{Timings: true})); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	files := decoded["files"].([]any)
	first := files[0].(map[string]any)
	if first["status"] != "authoritative" || first["success"] != false {
		t.Fatalf("unexpected first file %v", first)
	}
	if _, ok := first["timings"]; !ok {
		t.Fatalf("timings requested but missing")
	}
	if len(first["request_id"].(string)) != 26 {
		t.Fatalf("request id should be a ULID, got %v", first["request_id"])
	}
}

func TestMsgpackDecodes(t *testing.T) {
	want := Build(sampleEntries(), Options{})
	var buf bytes.Buffer
	if err := Msgpack(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeMsgpack(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Summary != want.Summary || got.Files[0].Errors[0].Message != "incomplete val declaration" {
		t.Fatalf("unexpected decoded output %+v", got)
	}
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleEntries(), PrettyOptions{}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	want := strings.Join([]string{
		"contract.es:2:3: error: incomplete val declaration",
		"   2 |   val x =",
		"     |   ^~~",
		"failed: 2 files checked, 1 failed, 1 problem",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyAllClean(t *testing.T) {
	var buf bytes.Buffer
	entries := sampleEntries()[1:]
	if err := Pretty(&buf, entries, PrettyOptions{}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if buf.String() != "ok: 1 file checked, no errors\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPretty, "JSON": FormatJSON, "msgpack": FormatMsgpack} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
