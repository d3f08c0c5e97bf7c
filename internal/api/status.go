package api

import "strings"

// JobStatus is the lifecycle state of a verification job.
type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// ParseJobStatus normalizes a raw status string.
func ParseJobStatus(raw string) JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(raw)))
}

// IsTerminal reports whether the status ends the job's lifecycle.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StageDetails describes the work inside the current stage.
type StageDetails struct {
	StageName        string `json:"stage_name"`
	StageDescription string `json:"stage_description"`
	CurrentAttempt   *int   `json:"current_attempt,omitempty"`
	TotalAttempts    *int   `json:"total_attempts,omitempty"`
}

// StatusResponse is the payload of GET /status/{job_id}.
type StatusResponse struct {
	JobID                  string        `json:"job_id"`
	Status                 JobStatus     `json:"status"`
	CurrentStage           string        `json:"current_stage,omitempty"`
	ProgressPercentage     int           `json:"progress_percentage"`
	StageDetails           *StageDetails `json:"stage_details,omitempty"`
	EstimatedTimeRemaining *int          `json:"estimated_time_remaining,omitempty"`
}

// Terminal reports whether this status ends polling.
func (s StatusResponse) Terminal() bool {
	return s.Status.IsTerminal()
}

// UploadResponse is the payload of POST /upload.
type UploadResponse struct {
	JobID   string    `json:"job_id"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status             string `json:"status"`
	ModelsLoaded       bool   `json:"models_loaded"`
	DiskSpaceAvailable bool   `json:"disk_space_available"`
	Version            string `json:"version"`
}

// Healthy reports whether the service is ready to accept work.
func (h HealthResponse) Healthy() bool {
	return strings.EqualFold(h.Status, "healthy") && h.ModelsLoaded && h.DiskSpaceAvailable
}

// ErrorResponse is the error body returned for non-2xx responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
