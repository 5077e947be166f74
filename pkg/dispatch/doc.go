// Package dispatch runs one or many model calls for a session and reduces
// their heterogeneous results to a uniform Outcome.
//
// Invariants:
// - A multi-model dispatch waits for every call to settle; no failure cancels
//   the others.
// - Provider failures are captured per model and never returned as the
//   dispatch error. Only an empty model list fails the dispatch itself.
// - Outcomes, fulfilled and rejected lists are in input order.
// - Per-model output is buffered and written to the transcript in input order
//   once every call has settled, so answers never interleave.
package dispatch
