// Package heuristic is a cheap, always-available syntax check for ErgoScript
// source. It knows nothing about the grammar: it balances brackets with three
// independent counters and flags two conservative line patterns. It runs on
// every edit, so false positives cost more than missed errors.
package heuristic

import (
	"bytes"
	"fmt"
	"regexp"

	"ergols/internal/diag"
)

type bracket struct {
	open  byte
	close byte
	name  string
}

// Report order for unclosed brackets follows this table.
var brackets = [...]bracket{
	{open: '{', close: '}', name: "brace"},
	{open: '(', close: ')', name: "parenthesis"},
	{open: '[', close: ']', name: "bracket"},
}

// A declaration keyword with nothing after it on the line.
var trailingDecl = regexp.MustCompile(`(?m)\b(val|def)[ \t\r]*$`)

var arrow = []byte("=>")

// Validate scans src and returns the problems it recognizes, in discovery order.
// It accepts arbitrary bytes and never fails; input it cannot characterize
// yields no descriptors.
func Validate(src []byte) []diag.Descriptor {
	var out []diag.Descriptor
	out = scanBrackets(src, out)
	out = checkDeclarations(src, out)
	out = checkArrows(src, out)
	return out
}

func scanBrackets(src []byte, out []diag.Descriptor) []diag.Descriptor {
	var depth [len(brackets)]int
	for i, ch := range src {
		for k := range brackets {
			switch ch {
			case brackets[k].open:
				depth[k]++
			case brackets[k].close:
				depth[k]--
				if depth[k] < 0 {
					// a stray closer must not cascade into the rest of the scan
					out = append(out, diag.At(diag.OriginHeuristic, i, 1,
						fmt.Sprintf("unexpected closing %s %c", brackets[k].name, brackets[k].close)))
					depth[k] = 0
				}
			}
		}
	}
	end := max(len(src)-1, 0)
	for k := range brackets {
		if depth[k] > 0 {
			out = append(out, diag.At(diag.OriginHeuristic, end, 0,
				fmt.Sprintf("unclosed %s %c (%d unclosed)", brackets[k].name, brackets[k].open, depth[k])))
		}
	}
	return out
}

func checkDeclarations(src []byte, out []diag.Descriptor) []diag.Descriptor {
	for _, m := range trailingDecl.FindAllSubmatchIndex(src, -1) {
		kw := string(src[m[2]:m[3]])
		out = append(out, diag.At(diag.OriginHeuristic, m[2], m[3]-m[2],
			fmt.Sprintf("incomplete %s declaration", kw)))
	}
	return out
}

func checkArrows(src []byte, out []diag.Descriptor) []diag.Descriptor {
	lineStart := 0
	for lineStart <= len(src) {
		lineEnd := bytes.IndexByte(src[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(src)
		} else {
			lineEnd += lineStart
		}
		line := src[lineStart:lineEnd]
		if bytes.HasPrefix(bytes.TrimSpace(line), arrow) {
			col := bytes.Index(line, arrow)
			out = append(out, diag.At(diag.OriginHeuristic, lineStart+col, len(arrow),
				"unexpected => at start of line"))
		}
		lineStart = lineEnd + 1
	}
	return out
}
