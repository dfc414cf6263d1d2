package lsp

import (
	"ergols/internal/diag"
	"ergols/internal/source"
)

const diagnosticSource = "ergoscript"

// fallbackRange marks a problem with no usable position.
var fallbackRange = lspRange{
	Start: position{Line: 0, Character: 0},
	End:   position{Line: 0, Character: 100},
}

// toDiagnostics maps an outcome onto text. Byte offsets and byte columns are
// converted to UTF-16 positions; at most limit entries are returned when
// limit > 0.
func toDiagnostics(lines *source.Lines, out diag.Outcome, limit int) []lspDiagnostic {
	out = out.Limit(limit)
	list := make([]lspDiagnostic, 0, len(out.Errors))
	for _, d := range out.Errors {
		list = append(list, lspDiagnostic{
			Range:    descriptorRange(lines, d),
			Severity: severityFor(d),
			Source:   diagnosticSource,
			Message:  d.Message,
		})
	}
	return list
}

func descriptorRange(lines *source.Lines, d diag.Descriptor) lspRange {
	switch {
	case d.HasOffset():
		start := *d.Offset
		end := start + d.LengthOr(1)
		return lspRange{Start: positionForOffset(lines, start), End: positionForOffset(lines, end)}
	case d.HasLineCol():
		col := 0
		if d.Column != nil {
			col = *d.Column
		}
		if *d.Line >= lines.Count() {
			return fallbackRange
		}
		start := lines.Offset(*d.Line, col)
		return lspRange{Start: positionForOffset(lines, start), End: positionForOffset(lines, start+1)}
	}
	return fallbackRange
}

// Bridge descriptors describe the tooling, not the code.
func severityFor(d diag.Descriptor) int {
	if d.Origin == diag.OriginBridge {
		return severityWarning
	}
	return severityError
}
