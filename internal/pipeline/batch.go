package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/filesph/sitemapgen/internal/crawler"
	"github.com/filesph/sitemapgen/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor handles concurrent generation for multiple seed URLs.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-run execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each seed.
	// We use a factory to ensure each run gets a fresh pipeline
	// instance; per-site output paths differ between runs.
	pipelineFactory func(seed string) *Pipeline

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed run reports.
	// Access is synchronized via mutex.
	results []*model.RunReport
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

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 2: batch mode is for a handful of sites, and each site's
// own crawl already carries the intra-site politeness settings.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each seed to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak
// between runs and allows per-site customization of output paths.
func NewBatchProcessor(pipelineFactory func(seed string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
		results:         make([]*model.RunReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch generates sitemaps for multiple seeds concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each seed gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all reports collected, even for seeds whose run failed.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.RunReport, error) {
	bp.logger.Info("starting batch processing",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.RunReport, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("generating sitemap",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			// Create report for this seed
			rep := newReportForSeed(seed)

			// Create and execute pipeline
			pipeline := bp.pipelineFactory(seed)
			err := pipeline.Execute(ctx, rep)

			// Store result regardless of error
			bp.mu.Lock()
			bp.results[i] = rep
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("run failed",
					"seed", seed,
					"error", err,
				)
				// Don't return error to errgroup - we want to continue
				// the other seeds
				return nil
			}

			bp.logger.Info("run completed",
				"seed", seed,
				"entries", rep.EntryCount(),
			)

			return nil
		})
	}

	// Wait for all runs to complete
	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_seeds", len(seeds),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback generates sitemaps for multiple seeds and
// calls a callback for each completed run. This is useful for streaming
// results.
//
// The callback receives the report and the index of the seed in the
// original slice. The callback is called from the goroutine that
// completed the run, so it should be thread-safe if it accesses shared
// state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(rep *model.RunReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			rep := newReportForSeed(seed)
			pipeline := bp.pipelineFactory(seed)
			_ = pipeline.Execute(ctx, rep) //nolint:errcheck // Failures are logged by the pipeline

			// Call the callback with the result
			callback(rep, i)

			return nil
		})
	}

	return g.Wait()
}

// newReportForSeed builds a RunReport with the seed's derived origin.
// A seed that fails normalization still gets a report; the crawl step
// will surface the error.
func newReportForSeed(seed string) *model.RunReport {
	origin := ""
	if normalized, err := crawler.Normalize(seed); err == nil {
		if o, err := crawler.OriginOf(normalized); err == nil {
			origin = o
		}
	}
	return model.NewRunReport(seed, origin)
}
