// Package preflight provides readiness checks that run before docverify talks
// to the verification service.
//
// These checks run in two contexts:
//   - Submission calls CheckUpload so an oversized or non-image file is
//     rejected locally and no network call is made.
//   - The CLI "docverify health" command uses RunAll to report service health
//     and whether the state and download directories are usable.
package preflight
