package logging

import "strings"

// FormatSubject builds the component/job prefix used in console output,
// e.g. "tracker · Job 3f2a91c0".
func FormatSubject(component, jobID string) string {
	component = strings.TrimSpace(component)
	jobID = strings.TrimSpace(jobID)
	parts := make([]string, 0, 2)
	if component != "" {
		parts = append(parts, component)
	}
	if jobID != "" {
		parts = append(parts, "Job "+ShortJobID(jobID))
	}
	return strings.Join(parts, " · ")
}

// ShortJobID trims UUID-style job identifiers to their first segment for display.
func ShortJobID(jobID string) string {
	jobID = strings.TrimSpace(jobID)
	if idx := strings.IndexByte(jobID, '-'); idx > 0 {
		return jobID[:idx]
	}
	return jobID
}
