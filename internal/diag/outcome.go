package diag

// Status annotates where an Outcome came from and how much to trust it.
type Status uint8

const (
	// StatusAuthoritative means the external analyzer answered within the deadline.
	StatusAuthoritative Status = iota
	// StatusCaveat means the analyzer exited 0 but its payload could not be decoded;
	// the outcome is accepted as success.
	StatusCaveat
	// StatusDegraded means the analyzer did not complete (spawn error, timeout,
	// open breaker, strict-mode malformed output) and the heuristic result stands in.
	StatusDegraded
	// StatusHeuristicOnly means no analyzer is configured.
	StatusHeuristicOnly
	// StatusCanceled means a newer request superseded this one.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusAuthoritative:
		return "authoritative"
	case StatusCaveat:
		return "caveat"
	case StatusDegraded:
		return "degraded"
	case StatusHeuristicOnly:
		return "heuristic-only"
	case StatusCanceled:
		return "canceled"
	}
	return "unknown"
}

// Outcome is the final result of one analysis request.
// Errors is empty iff Success.
type Outcome struct {
	Success bool
	Errors  []Descriptor
	Status  Status
	Note    string
}

// FromDescriptors builds an outcome whose success is derived from errs.
func FromDescriptors(status Status, note string, errs []Descriptor) Outcome {
	if len(errs) == 0 {
		return Outcome{Success: true, Errors: []Descriptor{}, Status: status, Note: note}
	}
	out := make([]Descriptor, len(errs))
	copy(out, errs)
	return Outcome{Success: false, Errors: out, Status: status, Note: note}
}

// Succeeded builds a successful outcome.
func Succeeded(status Status, note string) Outcome {
	return Outcome{Success: true, Errors: []Descriptor{}, Status: status, Note: note}
}

// Degraded reports whether the external analyzer did not produce this outcome.
func (o Outcome) Degraded() bool {
	return o.Status == StatusDegraded || o.Status == StatusHeuristicOnly
}

// Limit returns a copy with at most max descriptors, keeping discovery order.
// max <= 0 means no limit.
func (o Outcome) Limit(max int) Outcome {
	if max <= 0 || len(o.Errors) <= max {
		return o
	}
	trimmed := make([]Descriptor, max)
	copy(trimmed, o.Errors[:max])
	o.Errors = trimmed
	return o
}

// Append returns a copy with extra descriptors added after the existing ones.
func (o Outcome) Append(extra ...Descriptor) Outcome {
	if len(extra) == 0 {
		return o
	}
	errs := make([]Descriptor, 0, len(o.Errors)+len(extra))
	errs = append(errs, o.Errors...)
	errs = append(errs, extra...)
	o.Errors = errs
	o.Success = false
	return o
}
