package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeSession covers a whole CLI run or editor session.
	ScopeSession Scope = iota + 1
	// ScopeRequest covers one analysis request.
	ScopeRequest
	// ScopeProcess covers one analyzer process.
	ScopeProcess
	// ScopeStep covers sub-steps such as heuristic or translate.
	ScopeStep
)

func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeRequest:
		return "request"
	case ScopeProcess:
		return "process"
	case ScopeStep:
		return "step"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // e.g. "analyze", "process", "file:contract.es"
	Detail   string
	Extra    map[string]string
}
