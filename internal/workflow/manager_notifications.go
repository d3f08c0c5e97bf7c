package workflow

import (
	"context"
	"errors"

	"docverify/internal/api"
	"docverify/internal/logging"
	"docverify/internal/notifications"
	"docverify/internal/tracker"
)

func (m *Manager) notifyOutcome(ctx context.Context, jobID string, out tracker.Outcome) {
	switch out.Final.JobStatus() {
	case api.StatusCompleted:
		payload := notifications.Payload{"jobID": jobID}
		if res := out.Result.Result(); res != nil {
			payload["verdict"] = string(res.OverallStatus)
		}
		m.publish(ctx, notifications.EventJobCompleted, payload)
	case api.StatusFailed:
		m.publish(ctx, notifications.EventJobFailed, notifications.Payload{"jobID": jobID})
	}
	if out.ResultErr != nil {
		m.notifyError(ctx, "results for job "+jobID, out.ResultErr)
	}
}

func (m *Manager) notifyError(ctx context.Context, label string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	m.publish(ctx, notifications.EventError, notifications.Payload{
		"error":   err,
		"context": label,
	})
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("shutting down, notification skipped", logging.String("event", string(event)))
			return
		}
		m.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}
