// Package poller attaches to a session and streams its transcript until the
// record reaches a terminal status.
//
// Each iteration tails the log from the last consumed offset, writes the
// delta to the caller, then reads the record. On a terminal status one final
// tail flushes bytes written between the last poll and completion. A record
// that disappears mid-attach ends the loop without error.
//
// The wait between iterations is a Waker: a plain timer by default, or an
// EventWaker that also wakes on filesystem events in the session directory.
// Both honor context cancellation.
package poller
