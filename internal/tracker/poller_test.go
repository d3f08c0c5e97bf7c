package tracker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docverify/internal/api"
	"docverify/internal/stages"
	"docverify/internal/testsupport"
	"docverify/internal/tracker"
)

type reply struct {
	resp api.StatusResponse
	err  error
}

type pendingCall struct {
	reply chan reply
}

func (c *pendingCall) respond(resp api.StatusResponse) { c.reply <- reply{resp: resp} }

func (c *pendingCall) fail(err error) { c.reply <- reply{err: err} }

// blockingSource hands every query to the test, which answers it explicitly.
type blockingSource struct {
	calls chan *pendingCall
	count atomic.Int32
}

func newBlockingSource() *blockingSource {
	return &blockingSource{calls: make(chan *pendingCall)}
}

func (s *blockingSource) Status(ctx context.Context, _ string) (api.StatusResponse, error) {
	s.count.Add(1)
	call := &pendingCall{reply: make(chan reply, 1)}
	select {
	case s.calls <- call:
	case <-ctx.Done():
		return api.StatusResponse{}, ctx.Err()
	}
	select {
	case r := <-call.reply:
		return r.resp, r.err
	case <-ctx.Done():
		return api.StatusResponse{}, ctx.Err()
	}
}

func (s *blockingSource) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-s.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status query")
		return nil
	}
}

// scriptedSource answers immediately from a fixed sequence; the last entry repeats.
type scriptedSource struct {
	mu    sync.Mutex
	seq   []reply
	calls int
}

func (s *scriptedSource) Status(context.Context, string) (api.StatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.seq) {
		idx = len(s.seq) - 1
	}
	s.calls++
	return s.seq[idx].resp, s.seq[idx].err
}

func (s *scriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recorder struct {
	updates chan tracker.Snapshot
}

func newRecorder() *recorder {
	return &recorder{updates: make(chan tracker.Snapshot, 64)}
}

func (r *recorder) OnUpdate(s tracker.Snapshot) { r.updates <- s }

func (r *recorder) next(t *testing.T) tracker.Snapshot {
	t.Helper()
	select {
	case s := <-r.updates:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return tracker.Snapshot{}
	}
}

func waitDone(t *testing.T, p *tracker.Poller) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not drain")
	}
}

func TestFirstQueryIsImmediate(t *testing.T) {
	src := newBlockingSource()
	p := tracker.New(src, "job-1", tracker.Options{Interval: time.Hour})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Close()

	call := src.next(t)
	call.respond(testsupport.Processing("job-1", "upload", 5))
}

func TestStartTwiceFails(t *testing.T) {
	p := tracker.New(&scriptedSource{seq: []reply{{resp: testsupport.Processing("j", "upload", 0)}}}, "j", tracker.Options{Interval: time.Hour})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Close()
	if err := p.Start(context.Background()); !errors.Is(err, tracker.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestResponsesApplyInArrivalOrder(t *testing.T) {
	src := newBlockingSource()
	rec := newRecorder()
	p := tracker.New(src, "job-1", tracker.Options{Interval: 5 * time.Millisecond, OnUpdate: rec.OnUpdate})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Close()

	first := src.next(t)
	second := src.next(t)

	second.respond(testsupport.Processing("job-1", "qr_scanning", 60))
	if got := rec.next(t).CurrentStage(); got != "qr_scanning" {
		t.Fatalf("expected qr_scanning applied first, got %q", got)
	}

	// The older query answers last and wins.
	first.respond(testsupport.Processing("job-1", "forgery_detection", 20))
	snap := rec.next(t)
	if snap.CurrentStage() != "forgery_detection" || snap.Progress() != 20 {
		t.Fatalf("expected last arrival to win, got %+v", snap.Status)
	}
	if snap.Polls != 2 {
		t.Fatalf("expected 2 applied polls, got %d", snap.Polls)
	}
	if got := p.Snapshot().CurrentStage(); got != "forgery_detection" {
		t.Fatalf("snapshot disagrees with last update: %q", got)
	}
}

func TestTerminalStopsPolling(t *testing.T) {
	src := &scriptedSource{seq: []reply{
		{resp: testsupport.Processing("job-1", "upload", 10)},
		{resp: testsupport.Processing("job-1", "ocr_extraction", 70)},
		{resp: testsupport.Terminal("job-1", api.StatusCompleted)},
	}}
	p := tracker.New(src, "job-1", tracker.Options{Interval: 2 * time.Millisecond})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap, err := p.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !snap.Terminal || snap.JobStatus() != api.StatusCompleted {
		t.Fatalf("expected completed terminal snapshot, got %+v", snap)
	}
	waitDone(t, p)

	calls := src.Calls()
	time.Sleep(20 * time.Millisecond)
	if src.Calls() != calls {
		t.Fatalf("queries continued after terminal: %d -> %d", calls, src.Calls())
	}
	if got := p.Snapshot(); !got.Terminal || got.Polls != snap.Polls {
		t.Fatalf("snapshot changed after terminal: %+v", got)
	}
}

func TestTerminalIsAbsorbing(t *testing.T) {
	src := newBlockingSource()
	rec := newRecorder()
	p := tracker.New(src, "job-1", tracker.Options{Interval: 5 * time.Millisecond, OnUpdate: rec.OnUpdate})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	first := src.next(t)
	second := src.next(t)
	first.respond(testsupport.Terminal("job-1", api.StatusFailed))
	if snap := rec.next(t); !snap.Terminal || snap.JobStatus() != api.StatusFailed {
		t.Fatalf("expected failed terminal, got %+v", snap)
	}

	second.respond(testsupport.Processing("job-1", "upload", 5))
	waitDone(t, p)

	snap := p.Snapshot()
	if snap.JobStatus() != api.StatusFailed || snap.Polls != 1 {
		t.Fatalf("late response mutated terminal state: %+v", snap)
	}
	select {
	case extra := <-rec.updates:
		t.Fatalf("unexpected update after terminal: %+v", extra)
	default:
	}
}

func TestCloseDiscardsLateResponses(t *testing.T) {
	src := newBlockingSource()
	var updates atomic.Int32
	p := tracker.New(src, "job-1", tracker.Options{
		Interval: time.Hour,
		OnUpdate: func(tracker.Snapshot) { updates.Add(1) },
	})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	call := src.next(t)
	p.Close()
	call.respond(testsupport.Processing("job-1", "validation", 95))
	waitDone(t, p)

	snap := p.Snapshot()
	if snap.Status != nil || snap.Polls != 0 || snap.Err != nil {
		t.Fatalf("state mutated after close: %+v", snap)
	}
	if updates.Load() != 0 {
		t.Fatalf("callback fired after close: %d", updates.Load())
	}
	p.Close()
}

func TestCloseWaitsForRunningCallback(t *testing.T) {
	src := newBlockingSource()
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var finished atomic.Int32
	p := tracker.New(src, "job-1", tracker.Options{
		Interval: time.Hour,
		OnUpdate: func(tracker.Snapshot) {
			entered <- struct{}{}
			<-release
			finished.Add(1)
		},
	})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	src.next(t).respond(testsupport.Processing("job-1", "upload", 5))
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close returned while a callback was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the callback finished")
	}
	if finished.Load() != 1 {
		t.Fatalf("callback did not finish before Close returned: %d", finished.Load())
	}
	waitDone(t, p)
	if finished.Load() != 1 {
		t.Fatalf("callback fired after Close returned: %d", finished.Load())
	}
}

func TestContextCancelDisposes(t *testing.T) {
	src := newBlockingSource()
	var updates atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	p := tracker.New(src, "job-1", tracker.Options{
		Interval: time.Hour,
		OnUpdate: func(tracker.Snapshot) { updates.Add(1) },
	})
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = src.next(t)
	cancel()
	waitDone(t, p)

	if snap := p.Snapshot(); snap.Polls != 0 || snap.Err != nil {
		t.Fatalf("cancellation leaked into snapshot: %+v", snap)
	}
	if updates.Load() != 0 {
		t.Fatal("callback fired for cancelled query")
	}
	if _, err := p.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Wait to report cancellation, got %v", err)
	}
}

func TestCloseBeforeStart(t *testing.T) {
	p := tracker.New(newBlockingSource(), "job-1", tracker.Options{})
	p.Close()
	waitDone(t, p)
	if err := p.Start(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Start after Close to fail, got %v", err)
	}
}

func TestErrorKeepsLastKnownStatus(t *testing.T) {
	src := newBlockingSource()
	rec := newRecorder()
	p := tracker.New(src, "job-1", tracker.Options{Interval: time.Millisecond, OnUpdate: rec.OnUpdate})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Close()

	src.next(t).respond(testsupport.Processing("job-1", "qr_scanning", 55))
	rec.next(t)

	boom := errors.New("connection reset")
	src.next(t).fail(boom)
	snap := rec.next(t)
	if !errors.Is(snap.Err, boom) {
		t.Fatalf("expected stored error, got %v", snap.Err)
	}
	if snap.CurrentStage() != "qr_scanning" || snap.Terminal {
		t.Fatalf("last good status lost: %+v", snap.Status)
	}

	src.next(t).respond(testsupport.Processing("job-1", "ocr_extraction", 70))
	snap = rec.next(t)
	if snap.Err != nil {
		t.Fatalf("expected error cleared by success, got %v", snap.Err)
	}
	if snap.Polls != 3 {
		t.Fatalf("expected 3 polls, got %d", snap.Polls)
	}
}

func TestSnapshotStagesFollowToken(t *testing.T) {
	src := newBlockingSource()
	rec := newRecorder()
	p := tracker.New(src, "abc123", tracker.Options{Interval: time.Hour, OnUpdate: rec.OnUpdate})

	initial := p.Snapshot()
	if stages.ActiveIndex(initial.Stages) != -1 || len(initial.Stages) != len(stages.Defaults()) {
		t.Fatalf("expected all pending before first poll, got %+v", initial.Stages)
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Close()

	src.next(t).respond(testsupport.Processing("abc123", "forgery_detection", 40))
	snap := rec.next(t)
	if snap.Stages[0].State != stages.Completed || snap.Stages[1].State != stages.Active {
		t.Fatalf("unexpected stage states %+v", snap.Stages)
	}
	for _, st := range snap.Stages[2:] {
		if st.State != stages.Pending {
			t.Fatalf("expected later stages pending, got %+v", st)
		}
	}

	// Mutating the delivered snapshot must not leak into the poller.
	snap.Stages[0].State = stages.Pending
	if p.Snapshot().Stages[0].State != stages.Completed {
		t.Fatal("snapshot shares memory with poller state")
	}
}
