package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"docverify/internal/api"
	"docverify/internal/client"
	"docverify/internal/config"
	"docverify/internal/history"
	"docverify/internal/logging"
	"docverify/internal/notifications"
	"docverify/internal/results"
	"docverify/internal/stages"
	"docverify/internal/testsupport"
	"docverify/internal/tracker"
	"docverify/internal/workflow"
)

type stubNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	loads  []notifications.Payload
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.loads = append(s.loads, payload)
	return nil
}

func (s *stubNotifier) Events() []notifications.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifications.Event(nil), s.events...)
}

type harness struct {
	svc      *testsupport.FakeService
	cfg      *config.Config
	store    *history.Store
	notifier *stubNotifier
	manager  *workflow.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := testsupport.NewFakeService(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(svc.URL()))
	store := testsupport.MustOpenHistory(t, cfg)
	notifier := &stubNotifier{}
	manager := workflow.NewManager(cfg, client.New(client.ConfigFromApp(cfg)),
		workflow.WithHistory(store),
		workflow.WithNotifier(notifier),
		workflow.WithLogger(logging.NewNop()),
		workflow.WithInterval(25*time.Millisecond),
	)
	return &harness{svc: svc, cfg: cfg, store: store, notifier: notifier, manager: manager}
}

func TestSubmitAndWatchCompletedJob(t *testing.T) {
	h := newHarness(t)
	h.svc.SetNextJobID("abc123")
	h.svc.ScriptStatus("abc123",
		testsupport.Processing("abc123", "forgery_detection", 40),
		testsupport.Terminal("abc123", api.StatusCompleted),
	)
	h.svc.SetResult("abc123", testsupport.FullResult("abc123"))
	path := testsupport.WriteJPEG(t, t.TempDir(), "aadhaar.jpg", 5<<20)

	var (
		mu        sync.Mutex
		snapshots []tracker.Snapshot
	)
	submitted, out, err := h.manager.SubmitAndWatch(context.Background(), path, func(s tracker.Snapshot) {
		mu.Lock()
		snapshots = append(snapshots, s)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("SubmitAndWatch: %v", err)
	}
	if submitted.JobID() != "abc123" || submitted.Response.Status != api.StatusProcessing {
		t.Fatalf("unexpected submission %+v", submitted.Response)
	}
	if submitted.Upload.MediaType != "image/jpeg" || submitted.Upload.Size != 5<<20 {
		t.Fatalf("unexpected upload %+v", submitted.Upload)
	}

	mu.Lock()
	first := snapshots[0]
	mu.Unlock()
	if first.Progress() != 40 || first.CurrentStage() != "forgery_detection" {
		t.Fatalf("unexpected first snapshot %+v", first.Status)
	}
	if first.Stages[0].State != stages.Completed || first.Stages[1].State != stages.Active || first.Stages[2].State != stages.Pending {
		t.Fatalf("unexpected stage states %+v", first.Stages)
	}

	if out.Final.JobStatus() != api.StatusCompleted {
		t.Fatalf("expected completed, got %s", out.Final.JobStatus())
	}
	if out.Result.State != results.StateLoaded || out.ResultErr != nil {
		t.Fatalf("unexpected result %+v (%v)", out.Result, out.ResultErr)
	}
	if calls := h.svc.ResultCalls("abc123"); calls != 1 {
		t.Fatalf("expected one result fetch, got %d", calls)
	}

	entry, err := h.store.Get(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if entry.FileName != "aadhaar.jpg" || entry.Status != api.StatusCompleted || entry.Verdict != api.OverallValid {
		t.Fatalf("unexpected history entry %+v", entry)
	}
	if entry.Progress != 100 || entry.ResultState != string(results.StateLoaded) {
		t.Fatalf("unexpected history progress/result state %+v", entry)
	}

	events := h.notifier.Events()
	if len(events) != 2 || events[0] != notifications.EventJobSubmitted || events[1] != notifications.EventJobCompleted {
		t.Fatalf("unexpected notices %v", events)
	}
	if verdict := h.notifier.loads[1]["verdict"]; verdict != "VALID" {
		t.Fatalf("expected verdict in completion notice, got %v", verdict)
	}
}

func TestSubmitRejectsOversizedFileWithoutNetwork(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "scan.png")
	testsupport.WriteFile(t, path, 30<<20)

	_, err := h.manager.Submit(context.Background(), path)
	if !errors.Is(err, client.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := len(h.svc.Requests()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
	entries, err := h.store.List(context.Background(), history.FilterAll, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected upload should not be recorded: %+v", entries)
	}
	if len(h.notifier.Events()) != 0 {
		t.Fatalf("rejected upload should not notify: %v", h.notifier.Events())
	}
}

func TestWatchCompletedWithoutResult(t *testing.T) {
	h := newHarness(t)
	h.svc.ScriptStatus("job-c", testsupport.Terminal("job-c", api.StatusCompleted))
	h.svc.SetResult("job-c", map[string]any{"job_id": "job-c", "status": "completed", "timestamp": "2024-01-01T00:00:00Z"})

	out, err := h.manager.Watch(context.Background(), "job-c", nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if out.Result.State != results.StateNotFound || out.ResultErr != nil {
		t.Fatalf("expected not found without error, got %+v (%v)", out.Result, out.ResultErr)
	}
	entry, err := h.store.Get(context.Background(), "job-c")
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if entry.Status != api.StatusCompleted || entry.ResultState != string(results.StateNotFound) || entry.Verdict != "" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestWatchFailedJob(t *testing.T) {
	h := newHarness(t)
	h.svc.ScriptStatus("job-f",
		testsupport.Processing("job-f", "ocr_extraction", 70),
		testsupport.Terminal("job-f", api.StatusFailed),
	)
	h.svc.SetResultCode("job-f", 404)

	out, err := h.manager.Watch(context.Background(), "job-f", nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if out.Final.JobStatus() != api.StatusFailed || out.Result.State != results.StateNotFound {
		t.Fatalf("unexpected outcome %+v", out)
	}
	entry, err := h.store.Get(context.Background(), "job-f")
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if entry.Status != api.StatusFailed || entry.ErrorMessage == "" || entry.Stage != "ocr_extraction" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	events := h.notifier.Events()
	if len(events) != 1 || events[0] != notifications.EventJobFailed {
		t.Fatalf("unexpected notices %v", events)
	}
}

func TestWatchResultErrorIsReported(t *testing.T) {
	h := newHarness(t)
	h.svc.ScriptStatus("job-e", testsupport.Terminal("job-e", api.StatusCompleted))
	h.svc.SetResultCode("job-e", 500)

	out, err := h.manager.Watch(context.Background(), "job-e", nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if !errors.Is(out.ResultErr, results.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", out.ResultErr)
	}
	events := h.notifier.Events()
	if len(events) != 2 || events[0] != notifications.EventJobCompleted || events[1] != notifications.EventError {
		t.Fatalf("unexpected notices %v", events)
	}
	entry, err := h.store.Get(context.Background(), "job-e")
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if entry.ErrorMessage == "" {
		t.Fatal("expected fetch error recorded in history")
	}
}

func TestWatchCancelled(t *testing.T) {
	h := newHarness(t)
	h.svc.ScriptStatus("job-x", testsupport.Processing("job-x", "upload", 5))

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	out, err := h.manager.Watch(ctx, "job-x", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if out.Final.Terminal {
		t.Fatal("cancelled watch should not be terminal")
	}
	if h.svc.ResultCalls("job-x") != 0 {
		t.Fatal("result must not be fetched for a non-terminal job")
	}
	entry, err := h.store.Get(context.Background(), "job-x")
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if entry.Status != api.StatusProcessing {
		t.Fatalf("expected processing entry, got %+v", entry)
	}
}
