package bridge

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ergols/internal/diag"
)

// TranslateOptions tunes how raw output is read.
type TranslateOptions struct {
	// Strict rejects exit-0 output that is not a valid payload instead of
	// treating it as success.
	Strict bool
	// Deadline is reported in the timeout message; Elapsed is used when zero.
	Deadline time.Duration
}

// stderrPosition matches "line:column: message" anywhere in a line, so
// "Main.es:3:5: msg" is understood too.
var stderrPosition = regexp.MustCompile(`(\d+):(\d+):\s*(.+)`)

// Translate turns one RawOutput into an Outcome. The outcome is always
// usable. The error is *TimeoutError when the run timed out, and
// ErrMalformedOutput for an undecodable exit-0 payload in strict mode.
func Translate(raw RawOutput, opts TranslateOptions) (diag.Outcome, error) {
	if raw.TimedOut {
		after := opts.Deadline
		if after <= 0 {
			after = raw.Elapsed.Round(time.Millisecond)
		}
		terr := &TimeoutError{After: after}
		return diag.FromDescriptors(diag.StatusDegraded, terr.Error(), []diag.Descriptor{
			diag.Message(diag.OriginBridge, terr.Error()),
		}), terr
	}

	if raw.ExitCode != nil && *raw.ExitCode == 0 {
		p, err := decodePayload(normalize(raw.Stdout))
		if err == nil {
			return p.outcome(), nil
		}
		if opts.Strict {
			return diag.FromDescriptors(diag.StatusDegraded, "malformed analyzer output", []diag.Descriptor{
				diag.Message(diag.OriginBridge, "analyzer returned malformed output: "+err.Error()),
			}), fmt.Errorf("%w: %w", ErrMalformedOutput, err)
		}
		return diag.Succeeded(diag.StatusCaveat, "analyzer exited 0 with undecodable output"), nil
	}

	errs := scanStderr(normalize(raw.Stderr))
	if len(errs) == 0 {
		errs = []diag.Descriptor{diag.Message(diag.OriginAnalyzer, exitMessage(raw.ExitCode))}
	}
	return diag.FromDescriptors(diag.StatusAuthoritative, "", errs), nil
}

// scanStderr keeps stream order. Positioned lines are 1-based; non-matching
// non-blank lines become message-only descriptors.
func scanStderr(stderr string) []diag.Descriptor {
	var out []diag.Descriptor
	sc := bufio.NewScanner(strings.NewReader(stderr))
	sc.Buffer(make([]byte, 0, 64*1024), len(stderr)+1)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if d, ok := positioned(line); ok {
			out = append(out, d)
			continue
		}
		out = append(out, diag.Message(diag.OriginAnalyzer, cleanMessage(line)))
	}
	if sc.Err() != nil || len(out) == 0 {
		if blob := cleanMessage(stderr); blob != "" {
			return []diag.Descriptor{diag.Message(diag.OriginAnalyzer, blob)}
		}
		return nil
	}
	return out
}

func positioned(line string) (diag.Descriptor, bool) {
	m := stderrPosition.FindStringSubmatch(line)
	if m == nil {
		return diag.Descriptor{}, false
	}
	ln, err1 := oneBased(m[1])
	col, err2 := oneBased(m[2])
	msg := cleanMessage(m[3])
	if err1 != nil || err2 != nil || msg == "" {
		return diag.Descriptor{}, false
	}
	return diag.AtLineCol(diag.OriginAnalyzer, ln, col, msg), true
}

// oneBased converts a 1-based decimal to 0-based, clamping at 0.
func oneBased(s string) (int, error) {
	u, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	v, err := safecast.Conv[int](u)
	if err != nil {
		return 0, err
	}
	return max(v-1, 0), nil
}

func exitMessage(code *int) string {
	if code == nil {
		return "analyzer terminated by signal"
	}
	return fmt.Sprintf("analyzer exited with status %d", *code)
}

// normalize decodes a captured stream: a UTF-8 or UTF-16 BOM is honored,
// invalid UTF-8 becomes U+FFFD and CRLF is folded to LF.
func normalize(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		out = b
	}
	s := strings.ToValidUTF8(string(out), "�")
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func cleanMessage(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
