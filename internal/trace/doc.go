// Package trace records what the analysis pipeline is doing: sessions,
// per-document requests and the analyzer processes they start.
//
// Enable it from the command line:
//
//	ergols check --trace=- --trace-level=detail contract.es
//
// Tracers are attached to a context and picked up by every stage:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeRequest, "analyze", 0)
//	defer span.End("")
//
// Levels gate scopes: phase shows sessions and requests, detail adds
// processes, debug shows everything including point events.
package trace
