// Package tracker polls the processing service for a job's status until the
// job reaches a terminal state.
//
// A Poller issues its first query immediately and then one per interval.
// Queries are not deduplicated: each runs in its own goroutine, and responses
// are applied in arrival order under a single mutex so the held status is
// always the most recently applied one. A terminal status (completed or
// failed) is absorbing. Once the poller is closed, or its context is
// cancelled, late responses are discarded without touching the snapshot or
// invoking the update callback.
//
// A Sequencer chains two tasks: it runs a Poller until the job is terminal and
// then asks a ResultFetcher for the result exactly once, whichever terminal
// status was reached.
package tracker
