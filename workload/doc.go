// Package workload runs a population of writer and reader tasks against an event repository
// and reports their throughput.
//
// Writers pick a random event id, try to take the stripe lock for it and, if they get it,
// replace the event's start time and attendee set. A busy stripe is skipped, never waited for.
// Readers pick a random time window and attendee set and query for matching events.
//
// All tasks block on a start barrier that is released once every task is ready, so measured
// throughput does not include goroutine start-up skew. The run ends when the context passed to
// Run is cancelled. In-flight store calls are not interrupted; they finish on a detached context
// bounded by the operation timeout.
package workload
