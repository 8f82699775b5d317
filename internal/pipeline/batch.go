package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/phishsentry/internal/model"
)

// BatchProcessor scans multiple URLs concurrently through one Orchestrator.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Orchestrator because:
// 1. It keeps the Orchestrator focused on single-scan execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// orchestrator runs the individual scans. It is shared deliberately so
	// the whole batch goes through one debounce cache and one store.
	orchestrator *Orchestrator

	// concurrency is the maximum number of concurrent scans.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed scan outcomes.
	// Access is synchronized via mutex.
	results []*model.ScanOutcome
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor around an Orchestrator.
func NewBatchProcessor(orchestrator *Orchestrator, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		orchestrator: orchestrator,
		concurrency:  4,
		results:      make([]*model.ScanOutcome, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch scans multiple URLs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each URL gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns outcomes in input order, even for URLs whose scan aborted.
// The error return indicates cancellation, not individual scan failures.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.ScanOutcome, error) {
	bp.logger.Info("starting batch scan",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.ScanOutcome, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, pageURL := range urls {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("scanning url",
				"url", pageURL,
				"index", i+1,
				"total", len(urls),
			)

			// User-initiated: a CLI batch is an explicit request, but we
			// still swallow the per-URL error so one unreachable
			// classifier moment doesn't sink the batch.
			outcome, err := bp.orchestrator.Scan(ctx, Trigger{URL: pageURL, Kind: TriggerUser})
			if err != nil {
				bp.logger.Warn("scan failed",
					"url", pageURL,
					"error", err,
				)
			}

			bp.mu.Lock()
			bp.results[i] = outcome
			bp.mu.Unlock()

			return nil
		})
	}

	// Wait for all scans to complete
	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch scan complete",
		"total_urls", len(urls),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback scans multiple URLs and calls a callback
// for each completed scan. This is useful for streaming results.
//
// The callback receives the outcome and the index of the URL in the
// original slice. The callback is called from the goroutine that completed
// the scan, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(outcome *model.ScanOutcome, index int),
) error {
	bp.logger.Info("starting batch scan with callback",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, pageURL := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			outcome, _ := bp.orchestrator.Scan(ctx, Trigger{URL: pageURL, Kind: TriggerUser}) //nolint:errcheck // Aborted scans still yield an outcome

			// Call the callback with the result
			callback(outcome, i)

			return nil
		})
	}

	return g.Wait()
}
