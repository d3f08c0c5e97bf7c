package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"docverify/internal/api"
	"docverify/internal/client"
	"docverify/internal/fileutil"
	"docverify/internal/logging"
	"docverify/internal/notifications"
)

const (
	lockRetryDelay    = 100 * time.Millisecond
	maxParallelFetch  = 3
	downloadFilePerms = 0o644
)

// ArtifactSource streams report artifacts.
type ArtifactSource interface {
	Download(ctx context.Context, jobID string, kind api.ReportKind) (client.Artifact, error)
}

// Saved describes an artifact written to disk.
type Saved struct {
	Kind   api.ReportKind `json:"kind" yaml:"kind"`
	Path   string         `json:"path" yaml:"path"`
	Size   int64          `json:"size" yaml:"size"`
	Pages  int            `json:"pages,omitempty" yaml:"pages,omitempty"`
	SHA256 string         `json:"sha256" yaml:"sha256"`
}

// Exporter downloads artifacts into a directory.
type Exporter struct {
	source   ArtifactSource
	dir      string
	logger   *slog.Logger
	notifier notifications.Service
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithLogger sets the exporter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) { e.logger = logger }
}

// WithNotifier sets where download notices go.
func WithNotifier(notifier notifications.Service) Option {
	return func(e *Exporter) { e.notifier = notifier }
}

// NewExporter constructs an exporter saving to dir by default.
func NewExporter(source ArtifactSource, dir string, opts ...Option) *Exporter {
	e := &Exporter{source: source, dir: dir}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "reports")
	if e.notifier == nil {
		e.notifier = notifications.NewNoop()
	}
	return e
}

// FileName returns the local file name for a job's artifact.
func FileName(jobID string, kind api.ReportKind) string {
	return fileutil.SafeName(jobID) + "_" + kind.FileType()
}

// Download saves one artifact into dir (the exporter default when empty) and
// returns where it was written.
func (e *Exporter) Download(ctx context.Context, jobID string, kind api.ReportKind, dir string) (Saved, error) {
	saved, err := e.download(ctx, jobID, kind, dir)
	logger := logging.WithContext(logging.WithJobID(ctx, jobID), e.logger)
	if err != nil {
		logging.WarnWithContext(logger, "report download failed", "report_download_failed",
			logging.String("kind", string(kind)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retry with `docverify download <job-id> "+string(kind)+"`"),
			logging.String(logging.FieldImpact, "report not saved locally"),
		)
		e.publish(ctx, notifications.EventDownloadFailed, notifications.Payload{
			"jobID": jobID,
			"kind":  string(kind),
			"error": err,
		})
		return Saved{}, err
	}
	logger.Info("report saved",
		logging.String("kind", string(kind)),
		logging.String("path", saved.Path),
		logging.String("size", humanize.IBytes(uint64(saved.Size))),
		logging.EventType("report_saved"),
	)
	e.publish(ctx, notifications.EventDownloadCompleted, notifications.Payload{
		"jobID": jobID,
		"kind":  string(kind),
		"path":  saved.Path,
	})
	return saved, nil
}

func (e *Exporter) download(ctx context.Context, jobID string, kind api.ReportKind, dir string) (Saved, error) {
	fail := func(op string, err error) (Saved, error) {
		return Saved{}, &DownloadError{JobID: jobID, Kind: kind, Op: op, Err: err}
	}
	if kind.FileType() == "" {
		return fail("resolve", fmt.Errorf("unknown report kind %q", kind))
	}
	if dir == "" {
		dir = e.dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail("prepare", err)
	}
	target := filepath.Join(dir, FileName(jobID, kind))

	unlock, err := lockFile(ctx, target)
	if err != nil {
		return fail("lock", err)
	}
	defer unlock()

	artifact, err := e.source.Download(ctx, jobID, kind)
	if err != nil {
		return fail("fetch", err)
	}
	defer artifact.Body.Close()

	written, err := fileutil.WriteAtomic(target, artifact.Body, downloadFilePerms, func(tmp string) error {
		if kind != api.ReportPDF {
			return nil
		}
		if _, err := pdfapi.PageCountFile(tmp); err != nil {
			return fmt.Errorf("unreadable pdf: %w", err)
		}
		return nil
	})
	if err != nil {
		return fail("write", err)
	}

	saved := Saved{Kind: kind, Path: target, Size: written.Size, SHA256: written.SHA256}
	if kind == api.ReportPDF {
		if pages, err := pdfapi.PageCountFile(target); err == nil {
			saved.Pages = pages
		}
	}
	return saved, nil
}

// DownloadAll fetches kinds concurrently. Every kind is attempted; the
// returned slice holds the successes in input order and the error joins
// every failure.
func (e *Exporter) DownloadAll(ctx context.Context, jobID string, kinds []api.ReportKind, dir string) ([]Saved, error) {
	if len(kinds) == 0 {
		kinds = api.DefaultReportKinds
	}
	results := make([]Saved, len(kinds))
	errs := make([]error, len(kinds))

	var g errgroup.Group
	g.SetLimit(maxParallelFetch)
	for i, kind := range kinds {
		g.Go(func() error {
			results[i], errs[i] = e.Download(ctx, jobID, kind, dir)
			return nil
		})
	}
	_ = g.Wait()

	saved := make([]Saved, 0, len(kinds))
	for i := range kinds {
		if errs[i] == nil {
			saved = append(saved, results[i])
		}
	}
	return saved, errors.Join(errs...)
}

func (e *Exporter) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := e.notifier.Publish(ctx, event, payload); err != nil {
		e.logger.Debug("notice delivery failed", logging.Error(err))
	}
}

func lockFile(ctx context.Context, target string) (func(), error) {
	lockPath := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire %s: lock held elsewhere", lockPath)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}
