package tracker

import (
	"time"

	"docverify/internal/api"
	"docverify/internal/stages"
)

// Snapshot is a point-in-time view of a tracked job.
type Snapshot struct {
	JobID    string
	Status   *api.StatusResponse
	Err      error
	Stages   []stages.StageState
	Terminal bool
	Polls    int
	Updated  time.Time
}

// JobStatus returns the held status value, or the empty status before the
// first successful poll.
func (s Snapshot) JobStatus() api.JobStatus {
	if s.Status == nil {
		return ""
	}
	return s.Status.Status
}

// CurrentStage returns the held stage token.
func (s Snapshot) CurrentStage() string {
	if s.Status == nil {
		return ""
	}
	return s.Status.CurrentStage
}

// Progress returns the server-reported percentage, or -1 when unknown.
func (s Snapshot) Progress() int {
	if s.Status == nil {
		return -1
	}
	return s.Status.ProgressPercentage
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Status != nil {
		status := *s.Status
		if s.Status.StageDetails != nil {
			details := *s.Status.StageDetails
			status.StageDetails = &details
		}
		out.Status = &status
	}
	if s.Stages != nil {
		out.Stages = make([]stages.StageState, len(s.Stages))
		copy(out.Stages, s.Stages)
	}
	return out
}
