package history

import (
	"fmt"
	"strings"
	"time"

	"docverify/internal/api"
)

// Filter selects ledger entries by job status.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterProcessing Filter = "processing"
	FilterCompleted  Filter = "completed"
	FilterFailed     Filter = "failed"
)

// ParseFilter normalizes a user-supplied filter.
func ParseFilter(raw string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterProcessing:
		return FilterProcessing, nil
	case FilterCompleted:
		return FilterCompleted, nil
	case FilterFailed:
		return FilterFailed, nil
	}
	return "", fmt.Errorf("unknown history filter %q (use all, processing, completed or failed)", raw)
}

// Entry is one recorded job.
type Entry struct {
	JobID        string
	FileName     string
	FilePath     string
	FileSize     int64
	MediaType    string
	Status       api.JobStatus
	Stage        string
	Progress     int
	Verdict      api.OverallStatus
	Confidence   *float64
	ResultState  string
	ErrorMessage string
	RequestID    string
	SubmittedAt  time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// Terminal reports whether the recorded status is final.
func (e Entry) Terminal() bool { return e.Status.IsTerminal() }

// Submission describes a freshly accepted upload.
type Submission struct {
	JobID     string
	FileName  string
	FilePath  string
	FileSize  int64
	MediaType string
	RequestID string
}

// Outcome is the terminal record of a job.
type Outcome struct {
	Status       api.JobStatus
	Verdict      api.OverallStatus
	Confidence   *float64
	ResultState  string
	ErrorMessage string
}
