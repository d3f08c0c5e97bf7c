package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"docverify/internal/logging"
	"docverify/internal/results"
)

// Phase is the sequencer's position in a job's lifecycle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePolling  Phase = "polling"
	PhaseFetching Phase = "fetching"
	PhaseDone     Phase = "done"
)

// ResultFetcher retrieves a terminal job's result.
type ResultFetcher interface {
	Fetch(ctx context.Context, jobID string) (results.Outcome, error)
}

// Outcome is what a sequencer run produced. ResultErr is set when the single
// result fetch failed; the job itself still reached Final.
type Outcome struct {
	Final     Snapshot
	Result    results.Outcome
	ResultErr error
}

// Sequencer polls a job until it is terminal and then fetches its result
// exactly once.
type Sequencer struct {
	poller  *Poller
	fetcher ResultFetcher
	logger  *slog.Logger

	mu    sync.Mutex
	phase Phase
	ran   bool
}

// NewSequencer wires a poller for jobID to a result fetcher.
func NewSequencer(status StatusSource, fetcher ResultFetcher, jobID string, opts Options) *Sequencer {
	return &Sequencer{
		poller:  New(status, jobID, opts),
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(opts.Logger, "sequencer").With(logging.JobID(jobID)),
		phase:   PhaseIdle,
	}
}

// Poller exposes the underlying poller for observers.
func (s *Sequencer) Poller() *Poller { return s.poller }

// Phase reports the current phase.
func (s *Sequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Run blocks until the job is terminal and its result has been requested.
// It returns an error only when ctx ends first or Run was already called.
func (s *Sequencer) Run(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return Outcome{}, ErrAlreadyStarted
	}
	s.ran = true
	s.phase = PhasePolling
	s.mu.Unlock()

	if err := s.poller.Start(ctx); err != nil {
		s.setPhase(PhaseDone)
		return Outcome{Final: s.poller.Snapshot()}, err
	}
	final, err := s.poller.Wait(ctx)
	s.poller.Close()
	if err != nil {
		s.setPhase(PhaseDone)
		return Outcome{Final: final}, err
	}

	s.setPhase(PhaseFetching)
	result, fetchErr := s.fetcher.Fetch(ctx, s.poller.JobID())
	s.setPhase(PhaseDone)

	if fetchErr != nil && !errors.Is(fetchErr, context.Canceled) {
		s.logger.Debug("result fetch failed after terminal status", logging.Error(fetchErr))
	}
	return Outcome{Final: final, Result: result, ResultErr: fetchErr}, nil
}

func (s *Sequencer) setPhase(phase Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}
