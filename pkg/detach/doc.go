// Package detach starts session execution in an independent OS process.
//
// Invariants:
// - The child re-derives every input from the persisted session record; the
//   launcher passes only the session id and the home directory.
// - A launch failure is recorded on the session as an error and returned to
//   the caller. There is no fallback to inline execution.
// - Policy.ShouldDetach is the single decision point for detach vs inline.
package detach
