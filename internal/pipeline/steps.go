package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/filesph/sitemapgen/internal/crawler"
	"github.com/filesph/sitemapgen/internal/database"
	"github.com/filesph/sitemapgen/internal/fetcher"
	"github.com/filesph/sitemapgen/internal/model"
	"github.com/filesph/sitemapgen/internal/report"
	"github.com/filesph/sitemapgen/internal/sitemap"
)

// CrawlStep performs the breadth-first crawl of the target site.
// It fills the report's Entries and Failures and stamps the crawl
// window.
//
// Design decision: Crawling is a pipeline step rather than inline CLI
// code because:
// 1. It shares the RunReport contract with every later stage
// 2. Batch runs reuse the same step for each seed
// 3. Interrupt handling lives in one place
type CrawlStep struct {
	// fetch is the page fetcher handed to the spider.
	fetch fetcher.Fetcher

	// maxPages limits total pages to crawl.
	maxPages int

	// delay between requests for politeness.
	delay time.Duration

	// workers is the number of concurrent fetches.
	workers int

	// ignorePatterns are URL substrings excluded from the crawl.
	ignorePatterns []string

	// writePartial lets an interrupted crawl continue to the assemble
	// step with whatever it collected instead of aborting the pipeline.
	writePartial bool

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxPages sets the maximum pages to crawl.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlDelay sets the delay between requests.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.delay = d
	}
}

// WithCrawlWorkers sets the number of concurrent fetches.
func WithCrawlWorkers(n int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.workers = n
	}
}

// WithCrawlIgnorePatterns excludes URLs containing any of the given
// substrings from the crawl.
func WithCrawlIgnorePatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.ignorePatterns = patterns
	}
}

// WithCrawlWritePartial controls whether an interrupted crawl still
// flows into the assemble step. Default is to abort.
func WithCrawlWritePartial(writePartial bool) CrawlStepOption {
	return func(s *CrawlStep) {
		s.writePartial = writePartial
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawling step using the given fetcher.
//
// Default politeness settings are conservative: 500ms between requests
// and a single worker, matching the sequential baseline.
func NewCrawlStep(fetch fetcher.Fetcher, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
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

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
//
// On context cancellation the partial crawl result is still copied into
// the report and Interrupted is set. Whether the pipeline continues to
// the assemble step depends on writePartial.
func (s *CrawlStep) Do(ctx context.Context, rep *model.RunReport) error {
	spider := crawler.NewSpider(s.fetch,
		crawler.WithMaxPages(s.maxPages),
		crawler.WithDelay(s.delay),
		crawler.WithWorkers(s.workers),
		crawler.WithIgnorePatterns(s.ignorePatterns),
		crawler.WithLogger(s.logger),
	)

	result, err := spider.Crawl(ctx, rep.Seed)
	rep.Finished = time.Now()

	if result != nil {
		rep.Entries = result.Entries
		rep.Failures = result.Failures
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			rep.Interrupted = true
			s.logger.Warn("crawl interrupted",
				"entries", rep.EntryCount(),
				"write_partial", s.writePartial,
			)
			if s.writePartial {
				return nil
			}
		}
		return err
	}

	s.logger.Info("crawl step completed",
		"entries", rep.EntryCount(),
		"failures", len(rep.Failures),
		"duration", rep.Duration(),
	)
	return nil
}

// AssembleStep turns the crawl result into sitemap files on disk.
//
// Design decision: Assembly is separate from crawling because:
// 1. It operates purely on accumulated data (no network)
// 2. Dry-run and sharding concerns are output concerns
// 3. Batch runs can assemble per-site outputs independently
type AssembleStep struct {
	// outputPath is the sitemap (or index) destination.
	outputPath string

	// maxPerFile overrides the per-file entry cap when positive.
	maxPerFile int

	// dryRun suppresses file writes.
	dryRun bool

	// logger for structured logging.
	logger *slog.Logger
}

// AssembleStepOption configures an AssembleStep.
type AssembleStepOption func(*AssembleStep)

// WithAssembleMaxPerFile overrides the per-file entry cap.
func WithAssembleMaxPerFile(n int) AssembleStepOption {
	return func(s *AssembleStep) {
		s.maxPerFile = n
	}
}

// WithAssembleDryRun suppresses the final file writes.
func WithAssembleDryRun(dryRun bool) AssembleStepOption {
	return func(s *AssembleStep) {
		s.dryRun = dryRun
	}
}

// WithAssembleLogger sets a custom logger for the assemble step.
func WithAssembleLogger(logger *slog.Logger) AssembleStepOption {
	return func(s *AssembleStep) {
		s.logger = logger
	}
}

// NewAssembleStep creates a new assembly step writing to outputPath.
func NewAssembleStep(outputPath string, opts ...AssembleStepOption) *AssembleStep {
	s := &AssembleStep{
		outputPath: outputPath,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AssembleStep) Name() string {
	return "assemble"
}

// Do executes the assemble step.
func (s *AssembleStep) Do(_ context.Context, rep *model.RunReport) error {
	opts := []sitemap.Option{
		sitemap.WithDryRun(s.dryRun),
		sitemap.WithLogger(s.logger),
	}
	if s.maxPerFile > 0 {
		opts = append(opts, sitemap.WithMaxURLsPerFile(s.maxPerFile))
	}

	assembler := sitemap.NewAssembler(s.outputPath, rep.Origin, opts...)
	out, err := assembler.Assemble(rep)
	if err != nil {
		return err
	}

	rep.DryRun = s.dryRun
	rep.ShardFiles = out.ShardFiles
	rep.IndexFile = out.IndexFile
	return nil
}

// PersistStep saves the completed run to the history database.
//
// Design decision: Persistence failures are non-fatal. By the time this
// step runs the sitemap is already on disk; losing a history row is not
// worth failing the run over.
type PersistStep struct {
	// dbDir is the directory holding the SQLite database.
	dbDir string

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a new persistence step using the database in
// dbDir.
func NewPersistStep(dbDir string, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		dbDir:  dbDir,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, rep *model.RunReport) error {
	db, err := database.Open(s.dbDir, database.DefaultOptions())
	if err != nil {
		s.logger.Warn("failed to open history database", "dir", s.dbDir, "error", err)
		return nil
	}
	defer func() {
		if err := db.Close(); err != nil {
			s.logger.Warn("failed to close history database", "error", err)
		}
	}()

	runID, err := db.SaveRun(ctx, rep)
	if err != nil {
		s.logger.Warn("failed to save run", "error", err)
		return nil
	}

	s.logger.Info("run saved", "run_id", runID, "entries", rep.EntryCount())
	return nil
}

// ReportStep writes the operator-facing run summary.
type ReportStep struct {
	// writer renders the run report.
	writer report.Writer

	// logger for structured logging.
	logger *slog.Logger
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithReportLogger sets a custom logger for the report step.
func WithReportLogger(logger *slog.Logger) ReportStepOption {
	return func(s *ReportStep) {
		s.logger = logger
	}
}

// NewReportStep creates a new report step using the given writer.
func NewReportStep(w report.Writer, opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{
		writer: w,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do executes the report step.
func (s *ReportStep) Do(_ context.Context, rep *model.RunReport) error {
	if _, err := s.writer.Write(rep); err != nil {
		return err
	}
	return nil
}
