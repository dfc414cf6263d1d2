// Package analysis runs the heuristic check and the external analyzer for a
// piece of source text and decides which answer the caller sees.
package analysis

import (
	"time"

	"github.com/oklog/ulid/v2"

	"ergols/internal/diag"
	"ergols/internal/observ"
)

// Request is one analysis of one text snapshot. It is immutable.
type Request struct {
	ID       ulid.ULID
	Document string // empty for standalone checks
	Source   string
	Deadline time.Duration
}

// NewRequest stamps a fresh ID.
func NewRequest(document, src string, deadline time.Duration) Request {
	return Request{
		ID:       ulid.Make(),
		Document: document,
		Source:   src,
		Deadline: deadline,
	}
}

// Result is an outcome with the data that produced it.
type Result struct {
	Request Request
	Outcome diag.Outcome
	Timings observ.Report
}
