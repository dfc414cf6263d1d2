package source

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// Lines indexes the line starts of a text. Offsets and columns are bytes
// unless a method says otherwise; out-of-range input is clamped.
type Lines struct {
	text   string
	starts []int // starts[i] is the byte offset of line i
}

// NewLines indexes text. A trailing newline opens an empty last line.
func NewLines(text string) *Lines {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Lines{text: text, starts: starts}
}

// Text returns the indexed text.
func (l *Lines) Text() string { return l.text }

// Count returns the number of lines, at least 1.
func (l *Lines) Count() int { return len(l.starts) }

// Line returns line i without its terminator.
func (l *Lines) Line(i int) string {
	if i < 0 || i >= len(l.starts) {
		return ""
	}
	end := len(l.text)
	if i+1 < len(l.starts) {
		end = l.starts[i+1] - 1
	}
	return strings.TrimSuffix(l.text[l.starts[i]:end], "\r")
}

// LineCol converts a byte offset.
func (l *Lines) LineCol(off int) LineCol {
	off = clamp(off, 0, len(l.text))
	// largest i with starts[i] <= off
	line := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > off }) - 1
	return LineCol{Line: line, Col: off - l.starts[line]}
}

// Offset converts a line and byte column. Columns past the end of the line
// stop at the line terminator.
func (l *Lines) Offset(line, col int) int {
	if line < 0 {
		return 0
	}
	if line >= len(l.starts) {
		return len(l.text)
	}
	start := l.starts[line]
	return start + clamp(col, 0, len(l.Line(line)))
}

// UTF16Col converts a byte column on line to UTF-16 code units.
func (l *Lines) UTF16Col(line, byteCol int) int {
	text := l.Line(line)
	byteCol = clamp(byteCol, 0, len(text))
	units := 0
	for _, r := range text[:byteCol] {
		units += utf16.RuneLen(r)
	}
	return units
}

// ByteCol converts a UTF-16 column on line to a byte column. A column that
// lands inside a surrogate pair rounds down to the rune start.
func (l *Lines) ByteCol(line, utf16Col int) int {
	text := l.Line(line)
	units := 0
	for i, r := range text {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > utf16Col {
			return i
		}
		units += n
	}
	return len(text)
}

// OffsetUTF16 converts an editor position to a byte offset.
func (l *Lines) OffsetUTF16(line, utf16Col int) int {
	if line < 0 {
		return 0
	}
	if line >= len(l.starts) {
		return len(l.text)
	}
	return l.starts[line] + l.ByteCol(line, utf16Col)
}

// PositionUTF16 converts a byte offset to an editor position.
func (l *Lines) PositionUTF16(off int) LineCol {
	lc := l.LineCol(off)
	return LineCol{Line: lc.Line, Col: l.UTF16Col(lc.Line, lc.Col)}
}

// WordAt returns the identifier around off and its byte span.
func (l *Lines) WordAt(off int) (word string, start, end int) {
	off = clamp(off, 0, len(l.text))
	start, end = off, off
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(l.text[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}
	for end < len(l.text) {
		r, size := utf8.DecodeRuneInString(l.text[end:])
		if !isWordRune(r) {
			break
		}
		end += size
	}
	return l.text[start:end], start, end
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
