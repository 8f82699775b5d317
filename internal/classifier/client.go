package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/phishsentry/internal/model"
)

// ErrUnavailable is returned when the classifier cannot be reached or
// answers with a non-success status. Callers abort the current scan
// attempt; the debounce reservation stands and no retry is performed here.
var ErrUnavailable = errors.New("classifier unavailable")

// Default client settings.
const (
	// DefaultTimeout bounds one classifier round trip. The classifier
	// runs an ML model over page text and a screenshot, so this is more
	// generous than a typical API timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond limits outbound /analyze calls. Rapid
	// navigation across many tabs should not pile requests onto a local
	// model that scores one page at a time.
	DefaultRequestsPerSecond = 4

	// DefaultBurst is the short-term burst allowance for the limiter.
	DefaultBurst = 8

	// maxResponseSize caps how much of a classifier response is read.
	maxResponseSize = 1 * 1024 * 1024 // 1MB
)

// Client talks to the classifier service.
//
// Design decision: We keep the rate limiter inside the client rather than
// in the orchestrator because the limit protects the classifier endpoint,
// and every caller (pipeline, serve mode, CLI report command) must share it.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client

	// baseURL is the classifier root, e.g. "http://127.0.0.1:8000".
	baseURL string

	// userAgent identifies the sentinel in classifier logs.
	userAgent string

	// limiter paces outbound requests.
	limiter *rate.Limiter

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
// Useful for tests and for sharing a transport with other components.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit overrides the outbound request pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithUserAgent sets the User-Agent header for classifier requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a classifier client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "phishsentry/1.0 (+https://github.com/nao1215/phishsentry)",
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Analyze submits a scan request and returns the normalized verdict.
//
// Network errors and non-2xx statuses return an error wrapping
// ErrUnavailable. A 2xx response with a malformed body is NOT an error:
// it degrades to a safe zero-score verdict so the pipeline never fails on
// classifier vocabulary drift.
func (c *Client) Analyze(ctx context.Context, req *model.ScanRequest) (*model.ScanVerdict, error) {
	body, err := c.post(ctx, "/analyze", req)
	if err != nil {
		return nil, err
	}

	verdict := model.DecodeScanVerdict(body)
	c.logger.Debug("classifier verdict",
		"requestID", req.RequestID,
		"verdict", verdict.Verdict.String(),
		"score", verdict.Score,
	)
	return verdict, nil
}

// Report forwards a user-submitted phishing report.
func (c *Client) Report(ctx context.Context, report model.ReportRequest) error {
	_, err := c.post(ctx, "/report", report)
	return err
}

// Health probes the classifier's /health endpoint.
// A nil return means the classifier is reachable and answering.
func (c *Client) Health(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize)) //nolint:errcheck // drain for connection reuse

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: health returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// post sends a JSON payload and returns the response body on success.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, path, resp.StatusCode)
	}

	return body, nil
}
