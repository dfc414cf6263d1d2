package source

import "testing"

func TestLineColRoundTrip(t *testing.T) {
	l := NewLines("val a = 1\r\ndef f = {\n}\n")
	cases := []struct {
		off  int
		want LineCol
	}{
		{0, LineCol{0, 0}},
		{4, LineCol{0, 4}},
		{11, LineCol{1, 0}},
		{20, LineCol{1, 9}},
		{22, LineCol{2, 1}},
		{23, LineCol{3, 0}},
		{999, LineCol{3, 0}},
		{-5, LineCol{0, 0}},
	}
	for _, tc := range cases {
		got := l.LineCol(tc.off)
		if got != tc.want {
			t.Fatalf("LineCol(%d) = %+v, want %+v", tc.off, got, tc.want)
		}
		if tc.off >= 0 && tc.off <= len(l.Text()) {
			if back := l.Offset(got.Line, got.Col); back != tc.off {
				t.Fatalf("Offset(%+v) = %d, want %d", got, back, tc.off)
			}
		}
	}
	if l.Count() != 4 {
		t.Fatalf("expected 4 lines, got %d", l.Count())
	}
	if l.Line(0) != "val a = 1" {
		t.Fatalf("CR must be stripped, got %q", l.Line(0))
	}
}

func TestOffsetClampsColumn(t *testing.T) {
	l := NewLines("ab\ncd")
	if got := l.Offset(0, 50); got != 2 {
		t.Fatalf("expected clamp to end of line, got %d", got)
	}
	if got := l.Offset(9, 0); got != 5 {
		t.Fatalf("expected clamp to end of text, got %d", got)
	}
}

func TestUTF16Columns(t *testing.T) {
	// "é" is 2 bytes/1 unit, "𝔾" is 4 bytes/2 units
	l := NewLines("é𝔾x")
	if got := l.UTF16Col(0, 6); got != 3 {
		t.Fatalf("UTF16Col = %d, want 3", got)
	}
	if got := l.ByteCol(0, 3); got != 6 {
		t.Fatalf("ByteCol = %d, want 6", got)
	}
	if got := l.ByteCol(0, 2); got != 2 {
		t.Fatalf("column inside surrogate pair should round down, got %d", got)
	}
	pos := l.PositionUTF16(7)
	if pos.Line != 0 || pos.Col != 4 {
		t.Fatalf("PositionUTF16 = %+v", pos)
	}
	if got := l.OffsetUTF16(0, 4); got != 7 {
		t.Fatalf("OffsetUTF16 = %d", got)
	}
}

func TestWordAt(t *testing.T) {
	l := NewLines("sigmaProp(HEIGHT > 100)")
	word, start, end := l.WordAt(12)
	if word != "HEIGHT" || start != 10 || end != 16 {
		t.Fatalf("WordAt = %q %d %d", word, start, end)
	}
	if word, _, _ := l.WordAt(9); word != "sigmaProp" {
		t.Fatalf("cursor right after a word should select it, got %q", word)
	}
}
