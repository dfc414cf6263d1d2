package diag

import "fmt"

// Origin identifies the producer of a Descriptor.
type Origin uint8

const (
	// OriginUnknown is the zero value.
	OriginUnknown Origin = iota
	// OriginHeuristic marks descriptors from the in-process bracket/pattern scan.
	OriginHeuristic
	// OriginAnalyzer marks descriptors decoded from the external analyzer.
	OriginAnalyzer
	// OriginBridge marks descriptors synthesized by the bridge itself (timeouts, spawn failures).
	OriginBridge
)

func (o Origin) String() string {
	switch o {
	case OriginHeuristic:
		return "heuristic"
	case OriginAnalyzer:
		return "analyzer"
	case OriginBridge:
		return "bridge"
	}
	return "unknown"
}

// Descriptor is a normalized, position-annotated error record.
type Descriptor struct {
	Message string
	Offset  *int
	Length  *int
	Line    *int // 0-based
	Column  *int // 0-based
	Origin  Origin
}

// Int returns a pointer to v; handy for optional position fields.
func Int(v int) *int {
	return &v
}

// Message builds a descriptor without any position.
func Message(origin Origin, msg string) Descriptor {
	return Descriptor{Message: msg, Origin: origin}
}

// At builds a descriptor anchored at a byte span.
func At(origin Origin, offset, length int, msg string) Descriptor {
	return Descriptor{Message: msg, Offset: Int(offset), Length: Int(length), Origin: origin}
}

// AtLineCol builds a descriptor anchored at a 0-based line and column.
func AtLineCol(origin Origin, line, col int, msg string) Descriptor {
	return Descriptor{Message: msg, Line: Int(line), Column: Int(col), Origin: origin}
}

// HasOffset reports whether the byte offset is known.
func (d Descriptor) HasOffset() bool {
	return d.Offset != nil
}

// HasLineCol reports whether the line is known. A missing column means column 0.
func (d Descriptor) HasLineCol() bool {
	return d.Line != nil
}

// LengthOr returns the span length or def when it is absent or not positive.
func (d Descriptor) LengthOr(def int) int {
	if d.Length == nil || *d.Length <= 0 {
		return def
	}
	return *d.Length
}

// String renders the descriptor as "line:col: message" using 1-based numbers,
// "@offset: message", or just the message.
func (d Descriptor) String() string {
	switch {
	case d.Line != nil:
		col := 0
		if d.Column != nil {
			col = *d.Column
		}
		return fmt.Sprintf("%d:%d: %s", *d.Line+1, col+1, d.Message)
	case d.Offset != nil:
		return fmt.Sprintf("@%d: %s", *d.Offset, d.Message)
	}
	return d.Message
}
