package api

import (
	"fmt"
	"strings"
)

// ReviewDecision is a manual reviewer's verdict.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "APPROVED"
	DecisionRejected ReviewDecision = "REJECTED"
)

// ParseReviewDecision normalizes and validates a decision string.
func ParseReviewDecision(raw string) (ReviewDecision, error) {
	switch d := ReviewDecision(strings.ToUpper(strings.TrimSpace(raw))); d {
	case DecisionApproved, DecisionRejected:
		return d, nil
	default:
		return "", fmt.Errorf("invalid decision %q (use APPROVED or REJECTED)", raw)
	}
}

// ManualReviewItem is one job waiting for a human decision.
type ManualReviewItem struct {
	JobID           string `json:"job_id"`
	UploadTimestamp string `json:"upload_timestamp"`
	Reason          string `json:"reason"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
}

// ManualReviewResponse is the payload of GET /manual-review.
type ManualReviewResponse struct {
	PendingReviews []ManualReviewItem `json:"pending_reviews"`
	TotalCount     int                `json:"total_count"`
}

// ManualReviewDecision is the request body of POST /manual-review/{job_id}.
type ManualReviewDecision struct {
	Decision      ReviewDecision `json:"decision"`
	ReviewerNotes string         `json:"reviewer_notes,omitempty"`
	ReviewerID    string         `json:"reviewer_id,omitempty"`
}

// ManualReviewAck is the response to a submitted decision.
type ManualReviewAck struct {
	JobID    string         `json:"job_id"`
	Decision ReviewDecision `json:"decision"`
	Message  string         `json:"message"`
}
