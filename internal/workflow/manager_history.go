package workflow

import (
	"context"
	"errors"
	"strings"

	"docverify/internal/api"
	"docverify/internal/history"
	"docverify/internal/logging"
	"docverify/internal/preflight"
	"docverify/internal/tracker"
)

func (m *Manager) recordSubmission(ctx context.Context, upload preflight.Upload, resp api.UploadResponse) {
	if m.store == nil {
		return
	}
	requestID, _ := logging.RequestIDFromContext(ctx)
	_, err := m.store.RecordSubmission(ctx, history.Submission{
		JobID:     resp.JobID,
		FileName:  upload.Name,
		FilePath:  upload.Path,
		FileSize:  upload.Size,
		MediaType: upload.MediaType,
		RequestID: requestID,
	})
	m.warnHistory(ctx, "record submission", resp.JobID, err)
}

// ensureTracked adds a placeholder entry for jobs submitted elsewhere so the
// outcome has a row to land in.
func (m *Manager) ensureTracked(ctx context.Context, jobID string) {
	if m.store == nil {
		return
	}
	_, err := m.store.Get(ctx, jobID)
	if err == nil {
		return
	}
	if !errors.Is(err, history.ErrNotFound) {
		m.warnHistory(ctx, "lookup job", jobID, err)
		return
	}
	_, err = m.store.RecordSubmission(ctx, history.Submission{JobID: jobID})
	m.warnHistory(ctx, "record watched job", jobID, err)
}

func (m *Manager) recordOutcome(ctx context.Context, jobID string, out tracker.Outcome) {
	if m.store == nil {
		return
	}
	m.warnHistory(ctx, "record outcome", jobID, m.store.RecordOutcome(ctx, jobID, outcomeFor(out)))
}

func outcomeFor(out tracker.Outcome) history.Outcome {
	record := history.Outcome{
		Status:      out.Final.JobStatus(),
		ResultState: string(out.Result.State),
	}
	if res := out.Result.Result(); res != nil {
		confidence := res.OverallConfidence
		record.Verdict = res.OverallStatus
		record.Confidence = &confidence
	}
	switch {
	case out.ResultErr != nil:
		record.ErrorMessage = out.ResultErr.Error()
	case record.Status == api.StatusFailed:
		record.ErrorMessage = "processing failed on the service"
	}
	return record
}

func (m *Manager) warnHistory(ctx context.Context, op, jobID string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	logging.WarnWithContext(m.logger.With(logging.JobID(jobID)), "history update failed", "history_write_failed",
		logging.String("op", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the state directory is writable"),
		logging.String(logging.FieldImpact, "`docverify history` may be incomplete"),
	)
}

// progressRecorder writes stage progress to the ledger when it changes.
type progressRecorder struct {
	m        *Manager
	jobID    string
	stage    string
	progress int
}

func newProgressRecorder(m *Manager, jobID string) *progressRecorder {
	return &progressRecorder{m: m, jobID: jobID, progress: -1}
}

// observe is called from the poller's serialized update callback.
func (p *progressRecorder) observe(ctx context.Context, snap tracker.Snapshot) {
	if p.m.store == nil || snap.Status == nil || snap.Terminal {
		return
	}
	stage := strings.TrimSpace(snap.CurrentStage())
	progress := snap.Progress()
	if stage == p.stage && progress == p.progress {
		return
	}
	p.stage, p.progress = stage, progress
	p.m.warnHistory(ctx, "update progress", p.jobID, p.m.store.UpdateProgress(ctx, p.jobID, stage, progress))
}
