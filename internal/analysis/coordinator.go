package analysis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"ergols/internal/bridge"
	"ergols/internal/diag"
	"ergols/internal/heuristic"
	"ergols/internal/observ"
	"ergols/internal/trace"
)

// Options configures a Coordinator.
type Options struct {
	// Launcher builds analyzer commands; nil runs the heuristic only.
	Launcher *bridge.Launcher
	Invoker  *bridge.Invoker
	// Breaker may be nil.
	Breaker *bridge.Breaker
	Strict  bool
	// Early receives the heuristic outcome before the analyzer runs, only
	// when the heuristic found something.
	Early func(Request, diag.Outcome)
}

// Coordinator is safe for concurrent use; every Analyze call owns its
// process and timer.
type Coordinator struct {
	launcher *bridge.Launcher
	invoker  *bridge.Invoker
	breaker  *bridge.Breaker
	early    func(Request, diag.Outcome)
	strict   atomic.Bool
}

// NewCoordinator builds a Coordinator. A nil Invoker gets the defaults.
func NewCoordinator(opts Options) *Coordinator {
	inv := opts.Invoker
	if inv == nil {
		inv = bridge.NewInvoker(bridge.Options{})
	}
	c := &Coordinator{
		launcher: opts.Launcher,
		invoker:  inv,
		breaker:  opts.Breaker,
		early:    opts.Early,
	}
	c.strict.Store(opts.Strict)
	return c
}

// SetStrict switches malformed exit-0 output between caveat success and
// degraded fallback.
func (c *Coordinator) SetStrict(v bool) { c.strict.Store(v) }

// HasAnalyzer reports whether an external analyzer is configured.
func (c *Coordinator) HasAnalyzer() bool { return c.launcher != nil }

// Analyze returns the outcome for req.
func (c *Coordinator) Analyze(ctx context.Context, req Request) diag.Outcome {
	return c.AnalyzeDetailed(ctx, req).Outcome
}

// AnalyzeDetailed is Analyze plus phase timings.
func (c *Coordinator) AnalyzeDetailed(ctx context.Context, req Request) Result {
	return c.analyze(ctx, req, c.early)
}

func (c *Coordinator) analyze(ctx context.Context, req Request, early func(Request, diag.Outcome)) Result {
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeRequest, "analyze", trace.CurrentSpan(ctx).SpanID).
		WithExtra("request", req.ID.String())
	if req.Document != "" {
		span.WithExtra("document", req.Document)
	}
	ctx = trace.WithSpan(ctx, span)

	timer := observ.NewTimer()
	out := c.run(ctx, req, timer, early)

	report := timer.Report()
	for _, p := range report.Phases {
		span.WithExtra(p.Name+"_ms", strconv.FormatFloat(p.DurationMS, 'f', 2, 64))
	}
	span.WithExtra("errors", strconv.Itoa(len(out.Errors))).End(out.Status.String())
	return Result{Request: req, Outcome: out, Timings: report}
}

func (c *Coordinator) run(ctx context.Context, req Request, timer *observ.Timer, early func(Request, diag.Outcome)) diag.Outcome {
	idx := timer.Begin("heuristic")
	found := heuristic.Validate([]byte(req.Source))
	timer.End(idx, fmt.Sprintf("%d findings", len(found)))

	if ctx.Err() != nil {
		return canceled(found)
	}
	if c.launcher == nil {
		return diag.FromDescriptors(diag.StatusHeuristicOnly, "no analyzer configured", found)
	}
	if len(found) > 0 && early != nil {
		early(req, diag.FromDescriptors(diag.StatusHeuristicOnly, "", found))
	}

	deadline := req.Deadline
	if deadline <= 0 {
		deadline = bridge.DefaultDeadline
	}
	cmd := c.launcher.Command(req.Source)

	idx = timer.Begin("invoke")
	raw, err := c.breaker.Do(func() (bridge.RawOutput, error) {
		return c.invoker.Invoke(ctx, cmd, deadline)
	})
	timer.End(idx, invokeNote(raw, err))
	if err != nil {
		if ctx.Err() != nil {
			return canceled(found)
		}
		trace.Error(trace.FromContext(ctx), trace.ScopeProcess, "invoke", err, trace.CurrentSpan(ctx).SpanID)
		return degraded(found, failureReason(err))
	}

	idx = timer.Begin("translate")
	out, err := bridge.Translate(raw, bridge.TranslateOptions{Strict: c.strict.Load(), Deadline: deadline})
	timer.End(idx, out.Status.String())
	switch {
	case errors.Is(err, bridge.ErrTimeout):
		// the heuristic findings plus the timeout itself, never success
		return diag.FromDescriptors(diag.StatusDegraded, out.Note, found).Append(out.Errors...)
	case errors.Is(err, bridge.ErrMalformedOutput):
		return degraded(found, "analyzer returned malformed output")
	}
	return out
}

// degraded falls back to the heuristic findings. When there are none the
// failure itself is reported so the caller never sees a silent pass.
func degraded(found []diag.Descriptor, reason string) diag.Outcome {
	if len(found) == 0 {
		found = []diag.Descriptor{diag.Message(diag.OriginBridge, reason)}
	}
	return diag.FromDescriptors(diag.StatusDegraded, reason, found)
}

func canceled(found []diag.Descriptor) diag.Outcome {
	return diag.FromDescriptors(diag.StatusCanceled, "request superseded", found)
}

func failureReason(err error) string {
	var spawnErr *bridge.SpawnError
	switch {
	case errors.As(err, &spawnErr):
		return fmt.Sprintf("analyzer unavailable: %v", spawnErr.Err)
	case errors.Is(err, bridge.ErrBreakerOpen):
		return "analyzer disabled after repeated failures"
	}
	return "analyzer failed: " + err.Error()
}

func invokeNote(raw bridge.RawOutput, err error) string {
	switch {
	case err != nil:
		return "error"
	case raw.TimedOut:
		return "timeout"
	case raw.ExitCode != nil:
		return "exit " + strconv.Itoa(*raw.ExitCode)
	}
	return "killed"
}
