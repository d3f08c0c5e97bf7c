package present

import (
	"fmt"
	"strings"

	"docverify/internal/api"
	"docverify/internal/stages"
)

const progressBarWidth = 30

// RenderStepper draws the stage list for a job in progress followed by the
// overall progress and, when the service provides them, stage details.
func RenderStepper(states []stages.StageState, status *api.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, len(states)+5)
	for i, st := range states {
		var marker string
		kind := KindInfo
		switch st.State {
		case stages.Completed:
			marker = "✓"
			kind = KindOK
		case stages.Active:
			marker = "▶"
			kind = KindWarn
		default:
			marker = fmt.Sprintf("%d", i+1)
		}
		line := fmt.Sprintf("%s[%s] %s", statusIndent, marker, st.Label)
		if st.State != stages.Pending {
			line = Colorize(line, kind, colorize)
		}
		lines = append(lines, line)
	}
	if status == nil {
		return lines
	}

	lines = append(lines, "", fmt.Sprintf("Overall Progress: %s %d%%", ProgressBar(status.ProgressPercentage), clampPercent(status.ProgressPercentage)))
	if d := status.StageDetails; d != nil {
		if name := strings.TrimSpace(d.StageName); name != "" {
			lines = append(lines, name)
		}
		if desc := strings.TrimSpace(d.StageDescription); desc != "" {
			lines = append(lines, statusIndent+desc)
		}
		if d.CurrentAttempt != nil && d.TotalAttempts != nil {
			lines = append(lines, fmt.Sprintf("%sAttempt %d of %d", statusIndent, *d.CurrentAttempt, *d.TotalAttempts))
		}
	}
	if status.EstimatedTimeRemaining != nil && *status.EstimatedTimeRemaining > 0 {
		lines = append(lines, fmt.Sprintf("Estimated time remaining: ~%d seconds", *status.EstimatedTimeRemaining))
	}
	return lines
}

// ProgressBar renders a fixed-width bar for percent.
func ProgressBar(percent int) string {
	percent = clampPercent(percent)
	filled := percent * progressBarWidth / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled) + "]"
}

func clampPercent(percent int) int {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	}
	return percent
}
