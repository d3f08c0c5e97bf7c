package history_test

import (
	"context"
	"errors"
	"testing"

	"docverify/internal/api"
	"docverify/internal/history"
	"docverify/internal/testsupport"
)

func TestRecordLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	entry, err := store.RecordSubmission(ctx, history.Submission{
		JobID:     "abc123",
		FileName:  "aadhaar.jpg",
		FilePath:  "/tmp/aadhaar.jpg",
		FileSize:  5 << 20,
		MediaType: "image/jpeg",
		RequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}
	if entry.Status != api.StatusProcessing || entry.FileSize != 5<<20 || entry.SubmittedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if err := store.UpdateProgress(ctx, "abc123", "forgery_detection", 40); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	confidence := 0.94
	if err := store.RecordOutcome(ctx, "abc123", history.Outcome{
		Status:      api.StatusCompleted,
		Verdict:     api.OverallValid,
		Confidence:  &confidence,
		ResultState: "loaded",
	}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	got, err := store.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Terminal() || got.Verdict != api.OverallValid || got.Progress != 100 {
		t.Fatalf("unexpected final entry %+v", got)
	}
	if got.Confidence == nil || *got.Confidence != 0.94 {
		t.Fatalf("unexpected confidence %v", got.Confidence)
	}
	if got.CompletedAt == nil || got.Stage != "forgery_detection" {
		t.Fatalf("expected completion time and last stage, got %+v", got)
	}

	// Progress after the terminal record is ignored.
	if err := store.UpdateProgress(ctx, "abc123", "upload", 5); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, _ = store.Get(ctx, "abc123")
	if got.Stage != "forgery_detection" {
		t.Fatalf("terminal entry changed by late progress: %q", got.Stage)
	}
}

func TestRecordOutcomeValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if err := store.RecordOutcome(ctx, "missing", history.Outcome{Status: api.StatusFailed}); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.RecordOutcome(ctx, "missing", history.Outcome{Status: api.StatusProcessing}); err == nil {
		t.Fatal("expected non-terminal outcome to be rejected")
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
	if _, err := store.RecordSubmission(ctx, history.Submission{FileName: "x.png"}); err == nil {
		t.Fatal("expected missing job id to be rejected")
	}
}

func TestListFiltersAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"job-a", "job-b", "job-c"} {
		if _, err := store.RecordSubmission(ctx, history.Submission{JobID: id, FileName: id + ".png"}); err != nil {
			t.Fatalf("RecordSubmission %s: %v", id, err)
		}
	}
	if err := store.RecordOutcome(ctx, "job-a", history.Outcome{Status: api.StatusCompleted, ResultState: "loaded"}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.RecordOutcome(ctx, "job-b", history.Outcome{Status: api.StatusFailed, ResultState: "not_found"}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	tests := []struct {
		filter history.Filter
		want   int
	}{
		{history.FilterAll, 3},
		{history.FilterCompleted, 1},
		{history.FilterFailed, 1},
		{history.FilterProcessing, 1},
	}
	for _, tc := range tests {
		entries, err := store.List(ctx, tc.filter, 0)
		if err != nil {
			t.Fatalf("List(%s): %v", tc.filter, err)
		}
		if len(entries) != tc.want {
			t.Fatalf("List(%s) returned %d entries, want %d", tc.filter, len(entries), tc.want)
		}
	}

	latest, err := store.List(ctx, history.FilterAll, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(latest) != 1 || latest[0].JobID != "job-c" {
		t.Fatalf("expected newest entry first, got %+v", latest)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[api.StatusCompleted] != 1 || stats[api.StatusFailed] != 1 || stats[api.StatusProcessing] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}

	removed, err := store.Clear(ctx)
	if err != nil || removed != 3 {
		t.Fatalf("Clear removed %d (%v), want 3", removed, err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.RecordSubmission(context.Background(), history.Submission{JobID: "persist", FileName: "a.png"}); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenHistory(t, cfg)
	if _, err := reopened.Get(context.Background(), "persist"); err != nil {
		t.Fatalf("entry lost across reopen: %v", err)
	}
}

func TestParseFilter(t *testing.T) {
	for raw, want := range map[string]history.Filter{
		"":           history.FilterAll,
		"ALL":        history.FilterAll,
		" completed": history.FilterCompleted,
		"failed":     history.FilterFailed,
		"processing": history.FilterProcessing,
	} {
		got, err := history.ParseFilter(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFilter(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := history.ParseFilter("pending"); err == nil {
		t.Fatal("expected unknown filter error")
	}
}
