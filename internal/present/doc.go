// Package present turns job status and analysis results into terminal views.
//
// Every renderer is a pure function of its input: no network, no globals.
// Results carry several optional sections; a view whose section is absent
// still renders, with placeholder text, and is flagged Degraded so callers
// and tests can tell a full rendering from a partial one.
package present
