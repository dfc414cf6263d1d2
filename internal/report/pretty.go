package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ergols/internal/diag"
	"ergols/internal/source"
)

// PrettyOptions configures Pretty.
type PrettyOptions struct {
	Options
	Color bool
}

type palette struct {
	path, err, warn, caret, dim, ok *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:  color.New(color.Bold),
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		caret: color.New(color.FgGreen, color.Bold),
		dim:   color.New(color.Faint),
		ok:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.path, p.err, p.warn, p.caret, p.dim, p.ok} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty writes a human-readable report:
//
//	path:line:col: error: message
//	   3 | val x =
//	     |     ^~~
//
// followed by one summary line.
func Pretty(w io.Writer, entries []Entry, opts PrettyOptions) error {
	p := newPalette(opts.Color)
	out := Build(entries, opts.Options)
	for i, fr := range out.Files {
		var lines *source.Lines
		if f := entries[i].File; f != nil {
			lines = f.Lines
		}
		for _, er := range fr.Errors {
			if err := writeError(w, p, fr.Path, er, lines); err != nil {
				return err
			}
		}
		if fr.Note != "" && fr.Status != diag.StatusHeuristicOnly.String() {
			if _, err := fmt.Fprintf(w, "%s: %s %s\n", p.path.Sprint(fr.Path), p.dim.Sprint("note:"), fr.Note); err != nil {
				return err
			}
		}
		if fr.Timings != nil && len(fr.Timings.Phases) > 0 {
			if _, err := fmt.Fprintf(w, "%s %s", p.dim.Sprint(fr.Path), fr.Timings.String()); err != nil {
				return err
			}
		}
	}
	return writeSummary(w, p, out.Summary)
}

func writeError(w io.Writer, p palette, path string, er ErrorReport, lines *source.Lines) error {
	label := p.err.Sprint("error:")
	if er.Severity == "warning" {
		label = p.warn.Sprint("warning:")
	}
	loc := p.path.Sprint(path)
	if er.Line != nil {
		loc = p.path.Sprintf("%s:%d:%d", path, *er.Line, *er.Column)
	}
	if _, err := fmt.Fprintf(w, "%s: %s %s\n", loc, label, er.Message); err != nil {
		return err
	}
	if er.Line == nil || lines == nil || *er.Line > lines.Count() {
		return nil
	}
	text := lines.Line(*er.Line - 1)
	col := min(*er.Column-1, len(text))
	width := 1
	if er.Length != nil && *er.Length > 1 {
		width = min(*er.Length, max(len(text)-col, 1))
	}
	gutter := fmt.Sprintf("%4d | ", *er.Line)
	pad := strings.Repeat(" ", len(gutter)-2)
	marker := "^" + strings.Repeat("~", width-1)
	_, err := fmt.Fprintf(w, "%s%s\n%s| %s%s\n",
		p.dim.Sprint(gutter), text,
		pad, leadingSpace(text[:col]), p.caret.Sprint(marker))
	return err
}

// leadingSpace keeps tabs so the caret lines up under tabbed source.
func leadingSpace(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func writeSummary(w io.Writer, p palette, s Summary) error {
	files := plural(s.Files, "file")
	if s.Failed == 0 {
		_, err := fmt.Fprintf(w, "%s %s checked, no errors\n", p.ok.Sprint("ok:"), files)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s checked, %d failed, %s\n",
		p.err.Sprint("failed:"), files, s.Failed, plural(s.Errors, "problem"))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
