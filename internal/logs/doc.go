// Package logs reads back the docverify log file for the `logs` command.
//
// Last returns the trailing lines of the file, optionally restricted to
// records mentioning a job. Follow keeps reading appended lines until its
// context ends, surviving truncation by log rotation.
package logs
