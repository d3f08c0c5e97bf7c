package results

import (
	"context"
	"errors"
	"fmt"
)

// ErrFetch marks failures retrieving or decoding a job's results.
var ErrFetch = errors.New("result fetch error")

// FetchError reports a failed result retrieval. Callers offer a retry.
type FetchError struct {
	JobID string
	Op    string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: job %s: %s: %v", ErrFetch, e.JobID, e.Op, e.Err)
}

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether calling Fetch again may succeed. Only a
// cancelled caller context makes a retry pointless.
func (e *FetchError) Retryable() bool {
	return !errors.Is(e.Err, context.Canceled)
}
