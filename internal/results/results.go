// Package results fetches the final analysis of a terminal job and exposes it
// in one of three states: loading, loaded, or not found.
//
// "Not found" is a normal outcome (the job ended without an analysis, or the
// service no longer knows it) and is never reported as an error. Transport,
// decode and schema failures are *FetchError so callers can offer a retry.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docverify/internal/api"
	"docverify/internal/client"
	"docverify/internal/logging"
)

// State is the lifecycle state of a result fetch.
type State string

const (
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
	StateNotFound State = "not_found"
)

// NotFoundHint is shown alongside a not-found outcome.
const NotFoundHint = "No results found. Submit the document again with `docverify submit <file>`."

// Source is the subset of the service client used by the assembler.
type Source interface {
	ResultsRaw(ctx context.Context, jobID string) ([]byte, error)
}

// Outcome is a completed fetch. Response is set for StateLoaded and, when the
// service answered, for StateNotFound.
type Outcome struct {
	JobID      string
	State      State
	Response   *api.ResultsResponse
	Violations []string
}

// Result returns the analysis, or nil when none is present.
func (o Outcome) Result() *api.ValidationResult {
	if o.State != StateLoaded || o.Response == nil {
		return nil
	}
	return o.Response.ValidationResult
}

// Assembler fetches results exactly once per Fetch call and records the
// state of the most recent call for observers.
type Assembler struct {
	source Source
	schema *schemaValidator
	logger *slog.Logger

	mu    sync.Mutex
	state State
	last  Outcome
	err   error
}

// NewAssembler constructs an assembler reading from source.
func NewAssembler(source Source, logger *slog.Logger) (*Assembler, error) {
	schema, err := newSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &Assembler{
		source: source,
		schema: schema,
		logger: logging.NewComponentLogger(logger, "results"),
		state:  StateLoading,
	}, nil
}

// State returns the state of the most recent fetch.
func (a *Assembler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Last returns the outcome and error of the most recent fetch.
func (a *Assembler) Last() (Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.err
}

// Fetch retrieves the job's results once.
func (a *Assembler) Fetch(ctx context.Context, jobID string) (Outcome, error) {
	a.setState(StateLoading, Outcome{JobID: jobID, State: StateLoading}, nil)
	logger := logging.WithContext(logging.WithJobID(ctx, jobID), a.logger)

	outcome, err := a.fetch(ctx, jobID)
	if err != nil {
		logging.WarnWithContext(logger, "result fetch failed", "result_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retry with `docverify result <job-id> --retry`"),
			logging.String(logging.FieldImpact, "result views unavailable until fetched"),
		)
		a.setState(StateLoading, Outcome{JobID: jobID, State: StateLoading}, err)
		return Outcome{JobID: jobID, State: StateLoading}, err
	}

	if len(outcome.Violations) > 0 {
		logging.WarnWithContext(logger, "result payload violates expected invariants; rendering anyway", "result_invariant_violation",
			logging.Any("violations", outcome.Violations),
			logging.String(logging.FieldErrorHint, "report the payload to the service maintainers"),
			logging.String(logging.FieldImpact, "views may show contradictory verdicts"),
		)
	}
	logger.Info("result fetched",
		logging.String("state", string(outcome.State)),
		logging.EventType("result_fetched"),
	)
	a.setState(outcome.State, outcome, nil)
	return outcome, nil
}

func (a *Assembler) fetch(ctx context.Context, jobID string) (Outcome, error) {
	raw, err := a.source.ResultsRaw(ctx, jobID)
	if err != nil {
		if client.IsNotFound(err) {
			return Outcome{JobID: jobID, State: StateNotFound}, nil
		}
		return Outcome{}, &FetchError{JobID: jobID, Op: "fetch", Err: err}
	}

	if err := a.schema.validate(raw); err != nil {
		return Outcome{}, &FetchError{JobID: jobID, Op: "validate", Err: err}
	}

	var resp api.ResultsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Outcome{}, &FetchError{JobID: jobID, Op: "decode", Err: err}
	}
	resp.Status = api.ParseJobStatus(string(resp.Status))

	if !resp.HasResult() {
		return Outcome{JobID: jobID, State: StateNotFound, Response: &resp}, nil
	}
	return Outcome{
		JobID:      jobID,
		State:      StateLoaded,
		Response:   &resp,
		Violations: resp.ValidationResult.CheckInvariants(),
	}, nil
}

func (a *Assembler) setState(state State, outcome Outcome, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state
	a.last = outcome
	a.err = err
}

// FetchWithRetry calls Fetch up to retries+1 times, waiting delay between
// attempts, and stops early on success or a non-retryable error.
func (a *Assembler) FetchWithRetry(ctx context.Context, jobID string, retries int, delay time.Duration) (Outcome, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Outcome{JobID: jobID, State: StateLoading}, &FetchError{JobID: jobID, Op: "fetch", Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
		outcome, err := a.Fetch(ctx, jobID)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) && !fetchErr.Retryable() {
			break
		}
	}
	if retries <= 0 {
		return Outcome{JobID: jobID, State: StateLoading}, lastErr
	}
	return Outcome{JobID: jobID, State: StateLoading}, fmt.Errorf("after %d attempt(s): %w", retries+1, lastErr)
}
