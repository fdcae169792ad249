package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/filesph/sitemapgen/internal/fetcher"
	"github.com/filesph/sitemapgen/internal/model"
)

// Spider crawls a single website breadth-first from a seed URL.
// It drives fetch→parse→enqueue cycles against a Frontier and produces
// the canonical URL → PageRecord mapping the assembler consumes.
type Spider struct {
	// fetch is the page fetcher collaborator. The spider never touches
	// the network directly.
	fetch fetcher.Fetcher

	// maxPages limits the total number of distinct URLs visited.
	maxPages int

	// delay is the global minimum spacing between requests.
	delay time.Duration

	// workers is the maximum number of fetches in flight. 1 (the
	// default) gives the strictly sequential baseline behavior.
	workers int

	// ignorePatterns are substrings that exclude a URL from the crawl.
	ignorePatterns []string

	// logger for per-page and per-failure log emission.
	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the maximum number of distinct URLs to visit.
// Non-positive means unlimited.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the minimum spacing between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithWorkers sets the number of concurrent fetches.
// Values below 1 are treated as 1.
func WithWorkers(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithIgnorePatterns excludes URLs containing any of the given
// substrings. An excluded URL is never claimed, fetched, or emitted;
// it does not count against the page budget.
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithLogger sets a custom logger for the spider.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider using the given fetcher.
//
// Design decision: We require an external fetcher because:
//  1. Transport concerns (pooling, TLS, redirects) live in one place
//  2. Tests can substitute an in-memory fetcher
//  3. The crawl algorithm stays pure coordination logic
func NewSpider(fetch fetcher.Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetch:    fetch,
		maxPages: 5000,
		delay:    500 * time.Millisecond,
		workers:  1,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CrawlResult is the outcome of a crawl: the metadata map for every
// successfully fetched URL, plus the URLs that failed.
type CrawlResult struct {
	// Entries maps canonical URL to its inferred record.
	Entries map[string]model.PageRecord

	// Failures lists claimed URLs whose fetch failed. They do not
	// re-enter the queue and never appear in Entries.
	Failures []model.FetchFailure
}

// Crawl traverses the site breadth-first from seedURL.
//
// The traversal runs in waves: every URL queued at the start of a wave
// is claimed and fetched (subject to the page budget) before any URL
// discovered during the wave. Within a wave fetches may run in parallel
// up to the worker limit; the Frontier's atomic claim guarantees no URL
// is fetched twice regardless of worker count.
//
// On context cancellation Crawl returns the partial result together with
// the context's error, so the caller can decide whether partial output
// is worth serializing.
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*CrawlResult, error) {
	seed, err := Normalize(seedURL)
	if err != nil {
		return nil, err
	}
	origin, err := OriginOf(seed)
	if err != nil {
		return nil, err
	}

	frontier := NewFrontier(seed, s.maxPages)
	pace := newPacer(s.delay)
	result := &CrawlResult{
		Entries:  make(map[string]model.PageRecord),
		Failures: make([]model.FetchFailure, 0),
	}
	var mu sync.Mutex

	s.logger.Info("starting crawl",
		"seed", seed,
		"origin", origin,
		"maxPages", s.maxPages,
		"delay", s.delay,
		"workers", s.workers,
	)

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		batch := frontier.TakeQueued()
		if len(batch) == 0 {
			break
		}

		// discovered keeps per-batch-item link slices so enqueue order
		// stays deterministic regardless of fetch completion order.
		discovered := make([][]string, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)

		for i, pageURL := range batch {
			if s.ignored(pageURL) {
				continue
			}
			if !frontier.Claim(pageURL) {
				continue
			}
			g.Go(func() error {
				links, err := s.visit(gctx, pace, pageURL, origin, result, &mu)
				if err != nil {
					return err
				}
				mu.Lock()
				discovered[i] = links
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return result, err
		}

		for _, links := range discovered {
			for _, link := range links {
				frontier.Enqueue(link)
			}
		}

		if frontier.BudgetExhausted() {
			s.logger.Info("page budget reached", "visited", frontier.VisitedCount())
			break
		}
	}

	s.logger.Info("crawl complete",
		"visited", frontier.VisitedCount(),
		"entries", len(result.Entries),
		"failures", len(result.Failures),
	)
	return result, nil
}

// ignored reports whether a canonical URL matches any ignore pattern.
func (s *Spider) ignored(canonical string) bool {
	for _, pattern := range s.ignorePatterns {
		if pattern != "" && strings.Contains(canonical, pattern) {
			return true
		}
	}
	return false
}

// visit fetches one claimed URL, records its metadata, and returns the
// same-origin links discovered on it. Fetch and parse failures are
// recovered locally; only context cancellation propagates as an error.
func (s *Spider) visit(ctx context.Context, pace *pacer, pageURL, origin string, result *CrawlResult, mu *sync.Mutex) ([]string, error) {
	if err := pace.wait(ctx); err != nil {
		return nil, err
	}

	s.logger.Debug("fetching", "url", pageURL)
	res, err := s.fetch.Fetch(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("fetch failed", "url", pageURL, "reason", err)
		mu.Lock()
		result.Failures = append(result.Failures, model.FetchFailure{URL: pageURL, Reason: err.Error()})
		mu.Unlock()
		return nil, nil
	}

	priority, freq := Classify(pageURL)
	record := model.PageRecord{
		LastModified: res.LastModified,
		Priority:     priority,
		ChangeFreq:   freq,
	}
	mu.Lock()
	result.Entries[pageURL] = record
	mu.Unlock()

	if !res.IsHTML() {
		return nil, nil
	}

	parser, err := NewParser(pageURL, origin)
	if err != nil {
		return nil, nil
	}
	parsed, err := parser.Parse(bytes.NewReader(res.Body))
	if err != nil {
		// Parse failure yields no links, but the page itself stays
		// recorded: the fetch succeeded.
		s.logger.Warn("parse failed", "url", pageURL, "reason", err)
		return nil, nil
	}

	links := make([]string, 0, len(parsed.Pages)+len(parsed.Assets))
	links = append(links, parsed.Pages...)
	links = append(links, parsed.Assets...)
	return links, nil
}

// pacer enforces a global minimum spacing between requests.
// Each caller reserves the next available slot under the mutex and then
// sleeps outside it, so N workers still produce at most one request per
// interval.
type pacer struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval}
}

// wait blocks until the caller's reserved slot arrives or the context
// is cancelled.
func (p *pacer) wait(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	now := time.Now()
	if p.next.Before(now) {
		p.next = now
	}
	sleep := p.next.Sub(now)
	p.next = p.next.Add(p.interval)
	p.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}
