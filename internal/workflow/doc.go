// Package workflow drives one document through the verification lifecycle:
// submit, track status until terminal, then fetch the result once.
//
// The Manager layers the local side effects on top of the tracker's
// sequencer. It records submissions, stage progress and terminal outcomes in
// the history ledger, and publishes notices for submission, completion,
// failure and errors. The ledger is write-only from here; live status always
// comes from the service.
package workflow
