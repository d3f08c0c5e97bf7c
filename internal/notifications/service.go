package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"docverify/internal/config"
)

const userAgent = "docverify/0.1.0"

// Event identifies a notice kind.
type Event string

const (
	EventJobSubmitted      Event = "job_submitted"
	EventJobCompleted      Event = "job_completed"
	EventJobFailed         Event = "job_failed"
	EventDownloadCompleted Event = "download_completed"
	EventDownloadFailed    Event = "download_failed"
	EventReviewSubmitted   Event = "review_submitted"
	EventError             Event = "error"
	EventTest              Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes notices.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// Notice is the rendered form of an event.
type Notice struct {
	Title    string
	Message  string
	Tags     []string
	Priority string
	Failure  bool
}

// Render formats event into a notice. ok is false for unknown events.
func Render(event Event, payload Payload) (Notice, bool) {
	job := shortJob(payload.str("jobID"))
	switch event {
	case EventJobSubmitted:
		return Notice{
			Title:   "DocVerify - Submitted",
			Message: fmt.Sprintf("Document %s submitted as job %s", payload.str("file"), job),
			Tags:    []string{"docverify", "job", "submitted"},
		}, true
	case EventJobCompleted:
		message := fmt.Sprintf("Job %s completed", job)
		if verdict := payload.str("verdict"); verdict != "" {
			message = fmt.Sprintf("Job %s completed: %s", job, verdict)
		}
		return Notice{
			Title:    "DocVerify - Complete",
			Message:  message,
			Tags:     []string{"docverify", "job", "completed"},
			Priority: "high",
		}, true
	case EventJobFailed:
		return Notice{
			Title:    "DocVerify - Job Failed",
			Message:  fmt.Sprintf("Job %s failed during processing", job),
			Tags:     []string{"docverify", "job", "failed"},
			Priority: "high",
			Failure:  true,
		}, true
	case EventDownloadCompleted:
		return Notice{
			Title:   "DocVerify - Report Saved",
			Message: fmt.Sprintf("Report %s saved to %s", payload.str("kind"), payload.str("path")),
			Tags:    []string{"docverify", "download", "completed"},
		}, true
	case EventDownloadFailed:
		return Notice{
			Title:   "DocVerify - Download Failed",
			Message: fmt.Sprintf("Could not download %s for job %s: %s", payload.str("kind"), job, payload.str("error")),
			Tags:    []string{"docverify", "download", "failed"},
			Failure: true,
		}, true
	case EventReviewSubmitted:
		return Notice{
			Title:   "DocVerify - Review Recorded",
			Message: fmt.Sprintf("Job %s marked %s", job, payload.str("decision")),
			Tags:    []string{"docverify", "review"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := payload.str("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if msg := payload.str("error"); msg != "" {
			builder.WriteString(msg)
		} else {
			builder.WriteString("unknown")
		}
		return Notice{
			Title:    "DocVerify - Error",
			Message:  builder.String(),
			Tags:     []string{"docverify", "error", "alert"},
			Priority: "high",
			Failure:  true,
		}, true
	case EventTest:
		return Notice{
			Title:    "DocVerify - Test",
			Message:  "Notification system test",
			Tags:     []string{"docverify", "test"},
			Priority: "low",
		}, true
	}
	return Notice{}, false
}

// Enabled reports whether the configuration allows event.
func Enabled(cfg config.Notifications, event Event) bool {
	switch event {
	case EventJobCompleted, EventJobFailed:
		return cfg.JobCompleted
	case EventDownloadCompleted, EventDownloadFailed:
		return cfg.Downloads
	case EventError:
		return cfg.Errors
	}
	return true
}

// NewService builds the push notifier. When no ntfy topic is configured, a
// noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		settings: cfg.Notifications,
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	settings config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || n.client == nil || !Enabled(n.settings, event) {
		return nil
	}
	// Submissions are visible in the terminal already.
	if event == EventJobSubmitted {
		return nil
	}
	notice, ok := Render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, notice)
}

func (n *ntfyService) send(ctx context.Context, data Notice) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.Message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.Title != "" {
		req.Header.Set("Title", data.Title)
	}
	if len(data.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.Tags, ","))
	}
	if data.Priority != "" && data.Priority != "default" {
		req.Header.Set("Priority", data.Priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

// NewNoop returns a Service that drops every notice.
func NewNoop() Service { return noopService{} }

// Console prints notices as single terminal lines.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole writes notices to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Publish(_ context.Context, event Event, payload Payload) error {
	if c == nil || c.out == nil {
		return nil
	}
	notice, ok := Render(event, payload)
	if !ok {
		return nil
	}
	marker := "✓"
	if notice.Failure {
		marker = "✗"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "%s %s\n", marker, notice.Message)
	return err
}

// Multi fans a notice out to every service and joins their errors.
type Multi []Service

func (m Multi) Publish(ctx context.Context, event Event, payload Payload) error {
	var errs []error
	for _, svc := range m {
		if svc == nil {
			continue
		}
		if err := svc.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func shortJob(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
