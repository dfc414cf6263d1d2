// Package report renders check results for the command line.
package report

import (
	"fmt"
	"strings"

	"ergols/internal/analysis"
	"ergols/internal/diag"
	"ergols/internal/observ"
	"ergols/internal/source"
)

// Format selects an output encoding.
type Format string

const (
	FormatPretty  Format = "pretty"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat converts a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPretty:
		return FormatPretty, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected pretty|json|msgpack)", s)
	}
}

// Entry is the result of checking one file.
type Entry struct {
	File   *source.File
	Result analysis.Result
}

// Options controls what Build includes.
type Options struct {
	// BaseDir shortens paths; empty keeps them as loaded.
	BaseDir string
	// Max caps descriptors per file; 0 means all.
	Max     int
	Timings bool
}

// Output is the serialized form of a check run.
type Output struct {
	Files   []FileReport `json:"files" msgpack:"files"`
	Summary Summary      `json:"summary" msgpack:"summary"`
}

// Summary counts what a run found.
type Summary struct {
	Files  int `json:"files" msgpack:"files"`
	Failed int `json:"failed" msgpack:"failed"`
	Errors int `json:"errors" msgpack:"errors"`
}

// FileReport is one file's outcome.
type FileReport struct {
	Path      string         `json:"path" msgpack:"path"`
	RequestID string         `json:"request_id" msgpack:"request_id"`
	Success   bool           `json:"success" msgpack:"success"`
	Status    string         `json:"status" msgpack:"status"`
	Note      string         `json:"note,omitempty" msgpack:"note,omitempty"`
	Errors    []ErrorReport  `json:"errors" msgpack:"errors"`
	Timings   *observ.Report `json:"timings,omitempty" msgpack:"timings,omitempty"`
}

// ErrorReport is one descriptor. Line and Column are 1-based and derived
// from Offset when the analyzer gave only an offset.
type ErrorReport struct {
	Message  string `json:"message" msgpack:"message"`
	Origin   string `json:"origin" msgpack:"origin"`
	Severity string `json:"severity" msgpack:"severity"`
	Offset   *int   `json:"offset,omitempty" msgpack:"offset,omitempty"`
	Length   *int   `json:"length,omitempty" msgpack:"length,omitempty"`
	Line     *int   `json:"line,omitempty" msgpack:"line,omitempty"`
	Column   *int   `json:"column,omitempty" msgpack:"column,omitempty"`
}

// Build converts entries into Output.
func Build(entries []Entry, opts Options) Output {
	out := Output{Files: make([]FileReport, 0, len(entries))}
	for _, e := range entries {
		fr := buildFile(e, opts)
		out.Summary.Files++
		if !fr.Success {
			out.Summary.Failed++
		}
		out.Summary.Errors += len(fr.Errors)
		out.Files = append(out.Files, fr)
	}
	return out
}

func buildFile(e Entry, opts Options) FileReport {
	outcome := e.Result.Outcome.Limit(opts.Max)
	fr := FileReport{
		Path:      displayPath(e, opts.BaseDir),
		RequestID: e.Result.Request.ID.String(),
		Success:   outcome.Success,
		Status:    outcome.Status.String(),
		Note:      outcome.Note,
		Errors:    make([]ErrorReport, 0, len(outcome.Errors)),
	}
	if opts.Timings {
		timings := e.Result.Timings
		fr.Timings = &timings
	}
	var lines *source.Lines
	if e.File != nil {
		lines = e.File.Lines
	}
	for _, d := range outcome.Errors {
		er := ErrorReport{
			Message:  d.Message,
			Origin:   d.Origin.String(),
			Severity: severity(d),
			Offset:   d.Offset,
			Length:   d.Length,
		}
		if lc, ok := position(lines, d); ok {
			er.Line = diag.Int(lc.Line + 1)
			er.Column = diag.Int(lc.Col + 1)
		}
		fr.Errors = append(fr.Errors, er)
	}
	return fr
}

// position resolves d to a 0-based line and byte column.
func position(lines *source.Lines, d diag.Descriptor) (source.LineCol, bool) {
	switch {
	case d.HasLineCol():
		col := 0
		if d.Column != nil {
			col = *d.Column
		}
		return source.LineCol{Line: *d.Line, Col: col}, true
	case d.HasOffset() && lines != nil:
		return lines.LineCol(*d.Offset), true
	}
	return source.LineCol{}, false
}

func severity(d diag.Descriptor) string {
	if d.Origin == diag.OriginBridge {
		return "warning"
	}
	return "error"
}

func displayPath(e Entry, baseDir string) string {
	if e.File != nil {
		return source.DisplayPath(e.File.Path, baseDir)
	}
	return e.Result.Request.Document
}
