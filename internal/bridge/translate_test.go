package bridge

import (
	"errors"
	"strings"
	"testing"
	"time"

	"ergols/internal/diag"
)

func exitWith(code int) *int { return &code }

func TestTranslateStderrPositionsAreZeroBased(t *testing.T) {
	raw := RawOutput{ExitCode: exitWith(1), Stderr: []byte("3:5: unexpected token\n")}
	out, err := Translate(raw, TranslateOptions{})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out.Success || len(out.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", out)
	}
	d := out.Errors[0]
	if d.Line == nil || *d.Line != 2 || d.Column == nil || *d.Column != 4 {
		t.Fatalf("expected line 2 col 4, got %v", d)
	}
	if d.Message != "unexpected token" || d.Origin != diag.OriginAnalyzer {
		t.Fatalf("unexpected descriptor %+v", d)
	}
	if out.Status != diag.StatusAuthoritative {
		t.Fatalf("expected authoritative, got %s", out.Status)
	}
}

func TestTranslateStderrMixedLinesKeepOrder(t *testing.T) {
	stderr := "Exception in thread main\r\nMain.es:0:0: bad start\r\n\r\n  at sigma.Parser\r\n"
	out, _ := Translate(RawOutput{ExitCode: exitWith(2), Stderr: []byte(stderr)}, TranslateOptions{})
	want := []string{"Exception in thread main", "bad start", "at sigma.Parser"}
	if len(out.Errors) != len(want) {
		t.Fatalf("expected %d errors, got %+v", len(want), out.Errors)
	}
	for i, w := range want {
		if out.Errors[i].Message != w {
			t.Fatalf("error %d = %q, want %q", i, out.Errors[i].Message, w)
		}
	}
	if d := out.Errors[1]; d.Line == nil || *d.Line != 0 || *d.Column != 0 {
		t.Fatalf("0:0 must clamp to 0:0, got %v", d)
	}
	if out.Errors[0].HasLineCol() {
		t.Fatalf("unpositioned line must not carry a position")
	}
}

func TestTranslateEmptyStderrNamesExitStatus(t *testing.T) {
	out, _ := Translate(RawOutput{ExitCode: exitWith(7)}, TranslateOptions{})
	if len(out.Errors) != 1 || out.Errors[0].Message != "analyzer exited with status 7" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	out, _ = Translate(RawOutput{}, TranslateOptions{})
	if len(out.Errors) != 1 || !strings.Contains(out.Errors[0].Message, "signal") {
		t.Fatalf("unexpected outcome for killed process %+v", out)
	}
}

func TestTranslatePayload(t *testing.T) {
	stdout := `{"success": false, "errors": [{"message": "type mismatch", "line": 4, "column": 2, "offset": 40, "length": 3}, {"message": "second"}]}`
	out, err := Translate(RawOutput{ExitCode: exitWith(0), Stdout: []byte(stdout)}, TranslateOptions{})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out.Success || len(out.Errors) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	first := out.Errors[0]
	if *first.Line != 4 || *first.Column != 2 || *first.Offset != 40 || *first.Length != 3 {
		t.Fatalf("payload positions must be kept as-is: %+v", first)
	}
	if second := out.Errors[1]; second.HasOffset() || second.HasLineCol() {
		t.Fatalf("missing positions must stay absent: %+v", second)
	}
}

func TestTranslatePayloadSuccess(t *testing.T) {
	out, err := Translate(RawOutput{ExitCode: exitWith(0), Stdout: []byte("{\"success\": true, \"errors\": []}\n")}, TranslateOptions{})
	if err != nil || !out.Success || len(out.Errors) != 0 || out.Errors == nil {
		t.Fatalf("expected clean success, got %+v err=%v", out, err)
	}
	if out.Status != diag.StatusAuthoritative {
		t.Fatalf("expected authoritative, got %s", out.Status)
	}
}

func TestTranslatePayloadFailureWithoutErrors(t *testing.T) {
	out, _ := Translate(RawOutput{ExitCode: exitWith(0), Stdout: []byte(`{"success": false}`)}, TranslateOptions{})
	if out.Success || len(out.Errors) != 1 || out.Errors[0].Message == "" {
		t.Fatalf("expected one generic error, got %+v", out)
	}
}

func TestTranslateUndecodableExitZero(t *testing.T) {
	raw := RawOutput{ExitCode: exitWith(0), Stdout: []byte("parsed OK\n")}

	out, err := Translate(raw, TranslateOptions{})
	if err != nil || !out.Success || out.Status != diag.StatusCaveat {
		t.Fatalf("permissive mode should accept with caveat, got %+v err=%v", out, err)
	}

	out, err = Translate(raw, TranslateOptions{Strict: true})
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("strict mode should fail with ErrMalformedOutput, got %v", err)
	}
	if out.Success || len(out.Errors) == 0 {
		t.Fatalf("strict failure must carry a descriptor: %+v", out)
	}
}

func TestTranslateMissingSuccessFieldIsMalformed(t *testing.T) {
	_, err := Translate(RawOutput{ExitCode: exitWith(0), Stdout: []byte(`{"errors": []}`)}, TranslateOptions{Strict: true})
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestTranslateTimeout(t *testing.T) {
	out, err := Translate(RawOutput{TimedOut: true, Stderr: []byte("1:1: partial")}, TranslateOptions{Deadline: 5 * time.Second})
	var terr *TimeoutError
	if !errors.As(err, &terr) || terr.After != 5*time.Second || !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if out.Success || out.Status != diag.StatusDegraded || len(out.Errors) != 1 {
		t.Fatalf("timeout must never be success: %+v", out)
	}
	if out.Errors[0].Message != "analyzer timed out after 5s" || out.Errors[0].Origin != diag.OriginBridge {
		t.Fatalf("unexpected timeout descriptor %+v", out.Errors[0])
	}
}

func TestTranslateBOMAndInvalidUTF8(t *testing.T) {
	stderr := append([]byte{0xEF, 0xBB, 0xBF}, []byte("2:3: bad \xff byte\n")...)
	out, _ := Translate(RawOutput{ExitCode: exitWith(1), Stderr: stderr}, TranslateOptions{})
	if len(out.Errors) != 1 || *out.Errors[0].Line != 1 || *out.Errors[0].Column != 2 {
		t.Fatalf("BOM should not hide the position: %+v", out.Errors)
	}
	if !strings.Contains(out.Errors[0].Message, "�") {
		t.Fatalf("invalid byte should be replaced: %q", out.Errors[0].Message)
	}

	utf16 := []byte{0xFF, 0xFE, '{', 0, '"', 0, 's', 0, 'u', 0, 'c', 0, 'c', 0, 'e', 0, 's', 0, 's', 0, '"', 0, ':', 0, 't', 0, 'r', 0, 'u', 0, 'e', 0, '}', 0}
	out, err := Translate(RawOutput{ExitCode: exitWith(0), Stdout: utf16}, TranslateOptions{Strict: true})
	if err != nil || !out.Success || out.Status != diag.StatusAuthoritative {
		t.Fatalf("UTF-16 payload should decode, got %+v err=%v", out, err)
	}
}

func TestTranslateGarbageNeverPanics(t *testing.T) {
	inputs := [][]byte{nil, {0x00}, {0xFE, 0xFF, 0x00}, []byte("::::\n99999999999999999999:1: overflow"), []byte("{\"success\":")}
	for _, in := range inputs {
		for _, code := range []int{0, 1} {
			out, _ := Translate(RawOutput{ExitCode: exitWith(code), Stdout: in, Stderr: in}, TranslateOptions{})
			if !out.Success && len(out.Errors) == 0 {
				t.Fatalf("failure without descriptors for %q exit %d", in, code)
			}
		}
	}
}
