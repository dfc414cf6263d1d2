package bridge

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ergols/internal/trace"
)

const (
	// DefaultDeadline bounds one analyzer run when the caller gives none.
	DefaultDeadline = 5 * time.Second
	// DefaultMaxOutputBytes caps each captured stream.
	DefaultMaxOutputBytes = 4 << 20

	defaultKillGrace = 500 * time.Millisecond
)

// RawOutput is everything one analyzer run produced.
type RawOutput struct {
	Stdout    []byte
	Stderr    []byte
	ExitCode  *int // nil when the process was killed
	TimedOut  bool
	Truncated bool
	Elapsed   time.Duration
}

// Options configures an Invoker.
type Options struct {
	MaxOutputBytes int
	KillGrace      time.Duration
}

// Invoker starts analyzer processes. It holds no per-call state and is safe
// for concurrent use; each Invoke owns its own process.
type Invoker struct {
	maxOutput int
	killGrace time.Duration
}

// NewInvoker constructs an Invoker.
func NewInvoker(opts Options) *Invoker {
	maxOutput := opts.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	grace := opts.KillGrace
	if grace <= 0 {
		grace = defaultKillGrace
	}
	return &Invoker{maxOutput: maxOutput, killGrace: grace}
}

// Invoke runs c once. The deadline starts at spawn; on expiry the process is
// killed and the result has TimedOut set. A canceled ctx kills the process too
// and returns the context error. Spawn failures return *SpawnError.
func (inv *Invoker) Invoke(ctx context.Context, c Command, deadline time.Duration) (RawOutput, error) {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	if err := ctx.Err(); err != nil {
		return RawOutput{}, fmt.Errorf("analyzer canceled: %w", err)
	}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeProcess, "process", trace.CurrentSpan(ctx).SpanID)
	h, err := spawn(c)
	if err != nil {
		span.WithExtra("error", err.Error()).End("spawn failed")
		return RawOutput{}, &SpawnError{Command: c.Path, Err: err}
	}
	span.WithExtra("pid", strconv.Itoa(h.pid))

	stdout := newAccumulator(inv.maxOutput)
	stderr := newAccumulator(inv.maxOutput)
	exited := h.run(c.Input, stdout, stderr, inv.killGrace)
	reaped := false
	defer func() {
		if !reaped {
			_ = h.terminate(exited, inv.killGrace)
		}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	var (
		raw    RawOutput
		result error
	)
	select {
	case <-exited:
	case <-timer.C:
		select {
		case <-exited:
			// finished right at the deadline
		default:
			_ = h.terminate(exited, inv.killGrace)
			raw.TimedOut = true
		}
	case <-ctx.Done():
		_ = h.terminate(exited, inv.killGrace)
		result = fmt.Errorf("analyzer canceled: %w", ctx.Err())
	}
	reaped = true

	raw.Stdout = stdout.Bytes()
	raw.Stderr = stderr.Bytes()
	raw.Truncated = stdout.Dropped() > 0 || stderr.Dropped() > 0
	raw.Elapsed = time.Since(h.startedAt)
	if !raw.TimedOut && result == nil {
		raw.ExitCode = h.exitCode()
	}

	status := "exit"
	switch {
	case raw.TimedOut:
		status = "timeout"
	case result != nil:
		status = "canceled"
	case raw.ExitCode != nil:
		status = "exit " + strconv.Itoa(*raw.ExitCode)
	}
	span.WithExtra("stdout_bytes", strconv.Itoa(len(raw.Stdout))).
		WithExtra("stderr_bytes", strconv.Itoa(len(raw.Stderr))).
		End(status)
	return raw, result
}

// accumulator keeps the first limit bytes written to it and counts the rest.
// It never returns an error so the producer keeps draining.
type accumulator struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	limit   int
	dropped int64
}

func newAccumulator(limit int) *accumulator {
	return &accumulator{limit: limit}
}

func (a *accumulator) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	room := a.limit - a.buf.Len()
	if room >= len(p) {
		a.buf.Write(p)
		return len(p), nil
	}
	if room > 0 {
		a.buf.Write(p[:room])
	}
	a.dropped += int64(len(p) - max(room, 0))
	return len(p), nil
}

func (a *accumulator) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return bytes.Clone(a.buf.Bytes())
}

func (a *accumulator) Dropped() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}
