package lsp

import "ergols/internal/source"

// applyChanges replays content changes in order. A change without a range
// replaces the whole text.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		lines := source.NewLines(text)
		start := offsetForPosition(lines, change.Range.Start)
		end := max(offsetForPosition(lines, change.Range.End), start)
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

func offsetForPosition(lines *source.Lines, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	return lines.OffsetUTF16(pos.Line, pos.Character)
}

func positionForOffset(lines *source.Lines, off int) position {
	lc := lines.PositionUTF16(off)
	return position{Line: lc.Line, Character: lc.Col}
}
