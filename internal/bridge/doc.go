// Package bridge runs the external ErgoScript analyzer and turns whatever it
// prints into diag descriptors.
//
// # Invocation
//
// Invoker.Invoke starts exactly one process per call. Standard output and
// standard error are drained by two concurrent tasks into capped accumulators
// so a child blocked on a full pipe never stalls the caller. A deadline timer
// starts at spawn; when it fires the whole process group is killed and the
// RawOutput is marked TimedOut with no exit code. Every exit path (normal
// exit, timeout, caller cancellation, spawn failure) reaps the child and
// closes its pipes.
//
// # Translation
//
// Translate applies a fixed policy to a RawOutput:
//
//  1. TimedOut short-circuits into a timeout outcome.
//  2. Exit 0 with a decodable JSON payload is used directly.
//  3. Exit 0 with anything else is success (or ErrMalformedOutput in strict mode).
//  4. Non-zero exit scans stderr for "line:column: message" lines.
//
// # Breaker
//
// Breaker wraps invocations in a circuit breaker so an analyzer that keeps
// failing to start or keeps timing out is skipped until it recovers.
package bridge
