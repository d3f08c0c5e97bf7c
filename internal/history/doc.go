// Package history keeps a local SQLite ledger of submitted jobs.
//
// The ledger records what was submitted and how each job ended so the
// `history` command can list past work. It is never consulted for live
// status; the processing service remains the source of truth while a job
// runs.
package history
