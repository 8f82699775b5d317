package evidence

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Evidence is the material gathered for one scan.
// Either field may be empty; the classifier scores whatever it gets.
type Evidence struct {
	// Text is the extracted, whitespace-collapsed page text.
	Text string

	// Screenshot is a base64-encoded PNG of the visible tab.
	// Only browser-side callers can supply one; the HTTP collector
	// leaves it empty.
	Screenshot string
}

// Collector produces evidence for a page URL.
//
// Implementations must never return an error: any internal fault degrades
// to empty values so the pipeline can still proceed with partial evidence.
type Collector interface {
	// Collect gathers evidence for the page at pageURL.
	Collect(ctx context.Context, pageURL string) Evidence
}

// Default limits for the HTTP collector.
const (
	// DefaultMaxBodySize caps how much of a page is read for text
	// extraction. 5MB covers any realistic HTML document while keeping a
	// hostile page from exhausting memory.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultTimeout bounds a single evidence fetch. Evidence is
	// best-effort; a slow page should degrade, not stall the scan.
	DefaultTimeout = 10 * time.Second
)

// HTTPCollector fetches a page over HTTP and extracts its text.
// It is used for CLI-initiated scans, where no browser tab exists to read
// from. Screenshots are out of its reach and always empty.
//
// Design decision: We take an external *http.Client rather than building
// one internally so tests can point it at an httptest server and the CLI
// can share one client across a batch.
type HTTPCollector struct {
	// client performs the page fetch.
	client *http.Client

	// userAgent is sent with the fetch so site operators can identify
	// sentinel traffic.
	userAgent string

	// maxBodySize caps the bytes read from the response body.
	maxBodySize int64

	// logger records degraded collections at debug level.
	logger *slog.Logger
}

// HTTPCollectorOption configures an HTTPCollector.
type HTTPCollectorOption func(*HTTPCollector)

// WithUserAgent sets the User-Agent header for page fetches.
func WithUserAgent(ua string) HTTPCollectorOption {
	return func(c *HTTPCollector) {
		c.userAgent = ua
	}
}

// WithMaxBodySize caps the response bytes read for text extraction.
func WithMaxBodySize(size int64) HTTPCollectorOption {
	return func(c *HTTPCollector) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) HTTPCollectorOption {
	return func(c *HTTPCollector) {
		c.logger = logger
	}
}

// NewHTTPCollector creates an HTTPCollector using the given client.
// If client is nil, a default client with DefaultTimeout is used.
func NewHTTPCollector(client *http.Client, opts ...HTTPCollectorOption) *HTTPCollector {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	c := &HTTPCollector{
		client:      client,
		userAgent:   "phishsentry/1.0 (+https://github.com/nao1215/phishsentry)",
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collect fetches pageURL and extracts its visible text.
// Every failure (bad URL, network error, non-HTML body) yields empty
// evidence; errors are logged, never returned.
func (c *HTTPCollector) Collect(ctx context.Context, pageURL string) Evidence {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		c.logger.Debug("evidence request build failed", "url", pageURL, "error", err)
		return Evidence{}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("evidence fetch failed", "url", pageURL, "error", err)
		return Evidence{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("evidence fetch non-success", "url", pageURL, "status", resp.StatusCode)
		return Evidence{}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		c.logger.Debug("evidence fetch skipped non-text body", "url", pageURL, "contentType", contentType)
		return Evidence{}
	}

	limited := io.LimitReader(resp.Body, c.maxBodySize)
	if strings.Contains(contentType, "text/plain") {
		raw, err := io.ReadAll(limited)
		if err != nil {
			c.logger.Debug("evidence body read failed", "url", pageURL, "error", err)
			return Evidence{}
		}
		return Evidence{Text: strings.Join(strings.Fields(string(raw)), " ")}
	}

	return Evidence{Text: PageText(limited)}
}
