package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"docverify/internal/api"
	"docverify/internal/config"
	"docverify/internal/logging"
	"docverify/internal/preflight"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultUserAgent   = "docverify"
	maxErrorBodyBytes  = 64 << 10
	maxJSONBodyBytes   = 16 << 20
)

// HTTPDoer describes the HTTP client used to reach the service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means no Authorization header is sent.
type TokenSource interface {
	Token() string
}

// Config captures the runtime settings required to talk to the service.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Limits    preflight.Limits
}

// ConfigFromApp maps application configuration onto client settings.
func ConfigFromApp(cfg *config.Config) Config {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return Config{
		BaseURL:   cfg.Service.BaseURL,
		UserAgent: cfg.Service.UserAgent,
		Timeout:   cfg.RequestTimeout(),
		Limits:    preflight.LimitsFromConfig(cfg),
	}
}

// Client is a thin typed wrapper over the service's REST endpoints.
type Client struct {
	cfg        Config
	httpClient HTTPDoer
	tokens     TokenSource
	logger     *slog.Logger
	newID      func() string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource attaches the identity used for bearer authentication.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDGenerator overrides how X-Request-ID values are produced (useful for tests).
func WithRequestIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New constructs a client using the supplied configuration.
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.UserAgent = strings.TrimSpace(cfg.UserAgent)
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "client")
	return c
}

// BaseURL returns the normalized service base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Validate runs the pre-flight upload checks without contacting the service.
func (c *Client) Validate(path string) (preflight.Upload, error) {
	upload, err := preflight.CheckUpload(path, c.cfg.Limits)
	if err != nil {
		var violation *preflight.Violation
		if errors.As(err, &violation) {
			return preflight.Upload{}, &ValidationError{Violation: violation}
		}
		return preflight.Upload{}, err
	}
	return upload, nil
}

// Status fetches the current status of a job.
func (c *Client) Status(ctx context.Context, jobID string) (api.StatusResponse, error) {
	if err := requireJobID(jobID); err != nil {
		return api.StatusResponse{}, err
	}
	var out api.StatusResponse
	if err := c.getJSON(ctx, "status", "/status/"+url.PathEscape(jobID), jobID, &out); err != nil {
		return api.StatusResponse{}, err
	}
	out.Status = api.ParseJobStatus(string(out.Status))
	return out, nil
}

// ResultsRaw fetches the undecoded results payload of a job.
func (c *Client) ResultsRaw(ctx context.Context, jobID string) ([]byte, error) {
	if err := requireJobID(jobID); err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, "results", http.MethodGet, "/results/"+url.PathEscape(jobID), jobID, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: "results", StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, nil
}

// Results fetches and decodes the results of a job.
func (c *Client) Results(ctx context.Context, jobID string) (api.ResultsResponse, error) {
	data, err := c.ResultsRaw(ctx, jobID)
	if err != nil {
		return api.ResultsResponse{}, err
	}
	var out api.ResultsResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return api.ResultsResponse{}, &TransportError{Op: "results", Err: fmt.Errorf("decode body: %w", err)}
	}
	return out, nil
}

// Artifact is a streamed download. Callers must close Body.
type Artifact struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Download streams one report artifact of a job.
func (c *Client) Download(ctx context.Context, jobID string, kind api.ReportKind) (Artifact, error) {
	if err := requireJobID(jobID); err != nil {
		return Artifact{}, err
	}
	fileType := kind.FileType()
	if fileType == "" {
		return Artifact{}, fmt.Errorf("download: unknown report kind %q", kind)
	}
	path := "/download/" + url.PathEscape(jobID) + "/" + fileType
	resp, err := c.do(ctx, "download "+string(kind), http.MethodGet, path, jobID, nil, "")
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

// Health queries the service health endpoint.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.getJSON(ctx, "health", "/health", "", &out); err != nil {
		return api.HealthResponse{}, err
	}
	return out, nil
}

// ManualReviewQueue lists jobs waiting for a human decision.
func (c *Client) ManualReviewQueue(ctx context.Context) (api.ManualReviewResponse, error) {
	var out api.ManualReviewResponse
	if err := c.getJSON(ctx, "manual review queue", "/manual-review", "", &out); err != nil {
		return api.ManualReviewResponse{}, err
	}
	return out, nil
}

// SubmitReviewDecision records a reviewer's decision for a job.
func (c *Client) SubmitReviewDecision(ctx context.Context, jobID string, decision api.ManualReviewDecision) (api.ManualReviewAck, error) {
	if err := requireJobID(jobID); err != nil {
		return api.ManualReviewAck{}, err
	}
	body, err := json.Marshal(decision)
	if err != nil {
		return api.ManualReviewAck{}, fmt.Errorf("encode review decision: %w", err)
	}
	resp, err := c.do(ctx, "manual review decision", http.MethodPost, "/manual-review/"+url.PathEscape(jobID), jobID, bytes.NewReader(body), "application/json")
	if err != nil {
		return api.ManualReviewAck{}, err
	}
	defer resp.Body.Close()
	var out api.ManualReviewAck
	if err := decodeJSON(resp, "manual review decision", &out); err != nil {
		return api.ManualReviewAck{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path, jobID string, out any) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, jobID, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, op, out)
}

// do sends a request and converts transport failures and non-2xx responses
// into *TransportError. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, op, method, path, jobID string, body io.Reader, contentType string) (*http.Response, error) {
	requestID := c.newID()
	ctx = logging.WithRequestID(ctx, requestID)
	ctx = logging.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, c.logger)

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.Token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("request failed",
			logging.String("op", op),
			logging.String("method", method),
			logging.String("path", path),
			logging.Error(err),
		)
		return nil, &TransportError{Op: op, Err: err}
	}
	logger.Debug("request completed",
		logging.String("op", op),
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("http_status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}
	return resp, nil
}

func decodeJSON(resp *http.Response, op string, out any) error {
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxJSONBodyBytes))
	if err := dec.Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// errorDetail extracts the service's "detail" message, falling back to the raw body.
func errorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload api.ErrorResponse
	if json.Unmarshal(data, &payload) == nil && strings.TrimSpace(payload.Detail) != "" {
		return strings.TrimSpace(payload.Detail)
	}
	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

func requireJobID(jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return errors.New("job id required")
	}
	return nil
}
