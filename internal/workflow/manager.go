package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"docverify/internal/api"
	"docverify/internal/config"
	"docverify/internal/history"
	"docverify/internal/logging"
	"docverify/internal/notifications"
	"docverify/internal/preflight"
	"docverify/internal/results"
	"docverify/internal/stages"
	"docverify/internal/tracker"
)

// Service is the subset of the processing-service client the manager needs.
type Service interface {
	tracker.StatusSource
	results.Source
	Validate(path string) (preflight.Upload, error)
	Submit(ctx context.Context, path string) (api.UploadResponse, error)
}

// Manager coordinates submission, tracking and result retrieval for jobs.
type Manager struct {
	svc      Service
	store    *history.Store
	notifier notifications.Service
	logger   *slog.Logger
	interval time.Duration
	defs     []stages.Definition
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithHistory records jobs in store.
func WithHistory(store *history.Store) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithNotifier overrides the notifier built from configuration.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) { m.notifier = notifier }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithInterval overrides the configured polling interval.
func WithInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) { m.interval = interval }
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, svc Service, opts ...ManagerOption) *Manager {
	m := &Manager{
		svc:      svc,
		interval: cfg.PollInterval(),
		defs:     stages.FromConfig(cfg),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = notifications.NewService(cfg)
	}
	m.logger = logging.NewComponentLogger(m.logger, "workflow")
	return m
}

// Submitted describes an accepted upload.
type Submitted struct {
	Upload   preflight.Upload
	Response api.UploadResponse
}

// JobID returns the identifier assigned by the service.
func (s Submitted) JobID() string { return s.Response.JobID }

// Submit validates and uploads path. A rejected file returns the client's
// validation error without contacting the service.
func (m *Manager) Submit(ctx context.Context, path string) (Submitted, error) {
	upload, err := m.svc.Validate(path)
	if err != nil {
		return Submitted{}, err
	}
	resp, err := m.svc.Submit(ctx, path)
	if err != nil {
		logging.ErrorWithContext(m.logger, "upload rejected by service", "submit_failed",
			logging.String("file", upload.Name),
			logging.Int64("size", upload.Size),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the service with `docverify health`, then submit again"),
		)
		m.notifyError(ctx, "upload "+upload.Name, err)
		return Submitted{}, err
	}

	logger := m.logger.With(logging.JobID(resp.JobID))
	logger.Info("document submitted",
		logging.String("file", upload.Name),
		logging.Int64("size", upload.Size),
		logging.String("media_type", upload.MediaType),
		logging.EventType("job_submitted"),
	)
	m.recordSubmission(ctx, upload, resp)
	m.publish(ctx, notifications.EventJobSubmitted, notifications.Payload{
		"jobID": resp.JobID,
		"file":  filepath.Base(upload.Path),
	})
	return Submitted{Upload: upload, Response: resp}, nil
}

// Watch tracks jobID until it is terminal and fetches its result once.
// onUpdate, when set, receives every applied snapshot.
func (m *Manager) Watch(ctx context.Context, jobID string, onUpdate tracker.UpdateFunc) (tracker.Outcome, error) {
	assembler, err := results.NewAssembler(m.svc, m.logger)
	if err != nil {
		return tracker.Outcome{}, err
	}
	m.ensureTracked(ctx, jobID)

	progress := newProgressRecorder(m, jobID)
	seq := tracker.NewSequencer(m.svc, assembler, jobID, tracker.Options{
		Interval: m.interval,
		Stages:   m.defs,
		Logger:   m.logger,
		OnUpdate: func(snap tracker.Snapshot) {
			progress.observe(ctx, snap)
			if onUpdate != nil {
				onUpdate(snap)
			}
		},
	})

	out, err := seq.Run(ctx)
	if err != nil {
		return out, err
	}
	m.recordOutcome(ctx, jobID, out)
	m.notifyOutcome(ctx, jobID, out)
	return out, nil
}

// SubmitAndWatch submits path and then watches the resulting job.
func (m *Manager) SubmitAndWatch(ctx context.Context, path string, onUpdate tracker.UpdateFunc) (Submitted, tracker.Outcome, error) {
	submitted, err := m.Submit(ctx, path)
	if err != nil {
		return Submitted{}, tracker.Outcome{}, err
	}
	out, err := m.Watch(ctx, submitted.JobID(), onUpdate)
	return submitted, out, err
}
