// Package diag defines the diagnostic model shared by the heuristic validator,
// the analyzer bridge and every front end.
//
// # Data model
//
// Descriptor is the central record. It contains:
//
//   - Message – human oriented text, always present.
//   - Offset / Length – byte span in the analyzed text, when known.
//   - Line / Column – 0-based position, when known.
//   - Origin – which producer discovered the problem.
//
// Position fields are independently optional: the external analyzer may report
// only a line and column, the heuristic validator only byte offsets, and a
// freeform stderr line nothing at all.
//
// Outcome is the terminal value of one analysis request. Errors keep the order
// in which producers discovered them (stream order), never a positional sort,
// so duplicate or overlapping reports surface exactly as the analyzer emitted
// them.
//
// # Consumers
//
//   - internal/analysis: builds outcomes and merges the heuristic fallback.
//   - internal/lsp: maps descriptors to editor ranges and publishes them.
//   - internal/report: renders outcomes for the command line.
//
// Package diag performs no IO and holds no state; keep it that way so outcomes
// can be compared and serialised freely.
package diag
