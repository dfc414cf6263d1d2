package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ergols/internal/diag"
)

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// Session tracks the in-flight request of each document. A newer Submit for
// the same document cancels the older one; only the newest may publish.
type Session struct {
	coord    *Coordinator
	deadline atomic.Int64
	early    atomic.Pointer[func(Request, diag.Outcome)]

	mu     sync.Mutex
	seq    uint64
	docs   map[string]*inflight
	closed bool
}

// NewSession returns an empty session whose requests use deadline.
func NewSession(coord *Coordinator, deadline time.Duration) *Session {
	s := &Session{coord: coord, docs: make(map[string]*inflight)}
	s.SetDeadline(deadline)
	return s
}

// Coordinator returns the coordinator behind s.
func (s *Session) Coordinator() *Coordinator { return s.coord }

// OnEarly routes early heuristic outcomes of this session to fn instead of
// the coordinator's own callback.
func (s *Session) OnEarly(fn func(Request, diag.Outcome)) {
	if fn == nil {
		s.early.Store(nil)
		return
	}
	s.early.Store(&fn)
}

// SetDeadline changes the deadline for future requests.
func (s *Session) SetDeadline(d time.Duration) { s.deadline.Store(int64(d)) }

// Deadline returns the current per-request deadline.
func (s *Session) Deadline() time.Duration { return time.Duration(s.deadline.Load()) }

// Submit analyzes text for doc. ok is false when the result is stale: a
// newer Submit, Forget or Close overtook it.
func (s *Session) Submit(ctx context.Context, doc, text string) (res Result, ok bool) {
	req := NewRequest(doc, text, s.Deadline())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{Request: req, Outcome: canceled(nil)}, false
	}
	s.seq++
	seq := s.seq
	if prev := s.docs[doc]; prev != nil {
		prev.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.docs[doc] = &inflight{seq: seq, cancel: cancel}
	s.mu.Unlock()
	defer cancel()

	early := s.coord.early
	if fn := s.early.Load(); fn != nil {
		early = *fn
	}
	res = s.coord.analyze(reqCtx, req, early)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.docs[doc]
	if cur == nil || cur.seq != seq {
		return res, false
	}
	delete(s.docs, doc)
	return res, res.Outcome.Status != diag.StatusCanceled
}

// Forget cancels any request for doc.
func (s *Session) Forget(doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.docs[doc]; cur != nil {
		cur.cancel()
		delete(s.docs, doc)
	}
}

// InFlight returns the number of documents with a running request.
func (s *Session) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Close cancels everything and rejects later submissions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for doc, cur := range s.docs {
		cur.cancel()
		delete(s.docs, doc)
	}
}
