package reports

import (
	"errors"
	"fmt"

	"docverify/internal/api"
	"docverify/internal/client"
)

// ErrDownload marks failures saving a report artifact.
var ErrDownload = errors.New("report download error")

// DownloadError reports a failed artifact download.
type DownloadError struct {
	JobID string
	Kind  api.ReportKind
	Op    string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: job %s %s: %s: %v", ErrDownload, e.JobID, e.Kind, e.Op, e.Err)
}

func (e *DownloadError) Is(target error) bool { return target == ErrDownload }

func (e *DownloadError) Unwrap() error { return e.Err }

// NotFound reports whether the service has no such artifact.
func (e *DownloadError) NotFound() bool {
	return client.IsNotFound(e.Err)
}
