// Command docverify submits identity documents to the verification service,
// follows their progress and renders, downloads and exports the results.
//
// Every subcommand talks to the service directly over HTTP; there is no
// daemon. Submissions and their outcomes are also kept in a local history
// ledger under the configured state directory.
package main
