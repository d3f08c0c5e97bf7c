package tracker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"docverify/internal/api"
	"docverify/internal/logging"
	"docverify/internal/stages"
)

// DefaultInterval is the polling cadence when none is configured.
const DefaultInterval = 2 * time.Second

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("tracker already started")

// StatusSource answers status queries for a job.
type StatusSource interface {
	Status(ctx context.Context, jobID string) (api.StatusResponse, error)
}

// UpdateFunc receives a snapshot after every applied response. Calls are
// serialized in application order and never overlap Close.
type UpdateFunc func(Snapshot)

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	Stages   []stages.Definition
	OnUpdate UpdateFunc
	Logger   *slog.Logger
	Now      func() time.Time
}

// Poller tracks one job.
type Poller struct {
	source   StatusSource
	jobID    string
	interval time.Duration
	defs     []stages.Definition
	onUpdate UpdateFunc
	logger   *slog.Logger
	sampler  *logging.ProgressSampler
	now      func() time.Time

	// cbMu orders apply+callback pairs and is held by Close; mu guards the
	// fields below it. Lock order is cbMu then mu.
	cbMu     sync.Mutex
	mu       sync.Mutex
	snap     Snapshot
	started  bool
	disposed bool
	cancel   context.CancelFunc

	wg       sync.WaitGroup
	done     chan struct{}
	terminal chan struct{}
}

// New constructs a Poller for jobID.
func New(source StatusSource, jobID string, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	defs := opts.Stages
	if len(defs) == 0 {
		defs = stages.Defaults()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := logging.NewComponentLogger(opts.Logger, "tracker").With(logging.JobID(jobID))
	return &Poller{
		source:   source,
		jobID:    jobID,
		interval: interval,
		defs:     defs,
		onUpdate: opts.OnUpdate,
		logger:   logger,
		sampler:  logging.NewProgressSampler(5),
		now:      now,
		snap:     Snapshot{JobID: jobID, Stages: stages.Map("", defs)},
		done:     make(chan struct{}),
		terminal: make(chan struct{}),
	}
}

// JobID returns the tracked job identifier.
func (p *Poller) JobID() string { return p.jobID }

// Start issues the first query immediately and keeps polling in the
// background until the job is terminal, ctx is cancelled or Close is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return context.Canceled
	}
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.started = true
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	p.logger.Info("tracking job",
		logging.Duration("interval", p.interval),
		logging.EventType("tracking_started"),
	)
	go p.loop(runCtx)
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
	return nil
}

// Close disposes the poller. It waits for a running OnUpdate call to return,
// so no callback fires once Close has returned; OnUpdate must therefore not
// call Close. Use Done to wait for in-flight queries to drain.
func (p *Poller) Close() {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	cancel := p.cancel
	started := p.started
	p.started = true
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		close(p.done)
	}
}

// Done is closed once the polling loop and every in-flight query have
// returned.
func (p *Poller) Done() <-chan struct{} { return p.done }

// Terminal is closed when a terminal status has been applied.
func (p *Poller) Terminal() <-chan struct{} { return p.terminal }

// Snapshot returns a copy of the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap.clone()
}

// Wait blocks until the job is terminal or ctx ends, and returns the final
// snapshot.
func (p *Poller) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-p.terminal:
		return p.Snapshot(), nil
	case <-ctx.Done():
		return p.Snapshot(), ctx.Err()
	case <-p.done:
		snap := p.Snapshot()
		if snap.Terminal {
			return snap, nil
		}
		if err := ctx.Err(); err != nil {
			return snap, err
		}
		return snap, context.Canceled
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.spawnQuery(ctx)
	for {
		select {
		case <-ctx.Done():
			p.markDisposed()
			return
		case <-ticker.C:
			if p.stopped() {
				return
			}
			p.spawnQuery(ctx)
		}
	}
}

func (p *Poller) spawnQuery(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		resp, err := p.source.Status(ctx, p.jobID)
		p.apply(ctx, resp, err)
	}()
}

func (p *Poller) apply(ctx context.Context, resp api.StatusResponse, err error) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()

	p.mu.Lock()
	if p.disposed || p.snap.Terminal || ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	p.snap.Polls++
	p.snap.Updated = p.now()
	if err != nil {
		p.snap.Err = err
	} else {
		status := resp
		p.snap.Status = &status
		p.snap.Err = nil
		p.snap.Stages = stages.Map(resp.CurrentStage, p.defs)
		p.snap.Terminal = resp.Terminal()
	}
	snap := p.snap.clone()
	cancel := p.cancel
	p.mu.Unlock()

	p.logApplied(snap)
	if snap.Terminal {
		close(p.terminal)
		if cancel != nil {
			cancel()
		}
	}
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
}

func (p *Poller) logApplied(snap Snapshot) {
	if snap.Err != nil {
		if errors.Is(snap.Err, context.Canceled) {
			return
		}
		logging.WarnWithContext(p.logger, "status query failed; keeping last known status", "status_poll_failed",
			logging.Error(snap.Err),
			logging.Int("polls", snap.Polls),
			logging.String(logging.FieldErrorHint, "check service reachability with `docverify health`"),
			logging.String(logging.FieldImpact, "progress display may be stale until the next successful poll"),
		)
		return
	}
	if snap.Terminal {
		p.logger.Info("job reached terminal status",
			logging.String(logging.FieldStatus, string(snap.JobStatus())),
			logging.Int("polls", snap.Polls),
			logging.EventType("job_terminal"),
		)
		return
	}
	stage := strings.TrimSpace(snap.CurrentStage())
	if p.sampler.ShouldLog(float64(snap.Progress()), stage) {
		p.logger.Info("job progress",
			logging.String(logging.FieldStage, stage),
			logging.Int("progress", snap.Progress()),
			logging.EventType("job_progress"),
		)
	}
}

func (p *Poller) markDisposed() {
	p.mu.Lock()
	p.disposed = true
	p.mu.Unlock()
}

func (p *Poller) stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed || p.snap.Terminal
}
