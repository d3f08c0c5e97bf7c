// Package reports saves a job's server-generated artifacts to disk and exports
// results to a local workbook.
//
// Files are written to a temporary sibling and renamed into place while an
// advisory lock is held, so concurrent downloads of the same artifact never
// leave a partial file behind. PDF reports are opened after download to make
// sure they are readable.
package reports
