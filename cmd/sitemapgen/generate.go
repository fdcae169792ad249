package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/filesph/sitemapgen/internal/config"
	"github.com/filesph/sitemapgen/internal/crawler"
	"github.com/filesph/sitemapgen/internal/fetcher"
	"github.com/filesph/sitemapgen/internal/log"
	"github.com/filesph/sitemapgen/internal/model"
	"github.com/filesph/sitemapgen/internal/pipeline"
	"github.com/filesph/sitemapgen/internal/report"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [seed-url...]",
		Short: "Crawl a site and write its sitemap",
		Long: `Generate crawls a website breadth-first from the seed URL and writes a
sitemap.xml covering every same-origin page and linked document.

Only URLs on the seed's origin (scheme + host + port) are admitted. Each
URL is visited exactly once; priority and change frequency are inferred
from the URL shape, and lastmod from the Last-Modified header (or EXIF
data for JPEG/TIFF assets). Runs exceeding 50,000 entries are split into
shard files plus a sitemap index.

The seed may also come from the BASE_URL environment variable, and
MAX_PAGES, DELAY (seconds), and OUTPUT are honored the same way, so
existing cron jobs keep working unchanged.

Examples:
  # Generate public/sitemap.xml for a site
  sitemapgen generate https://filesph.com

  # Faster crawl with four workers and a smaller delay
  sitemapgen generate --workers 4 --delay 100ms https://filesph.com

  # Preview without writing anything
  sitemapgen generate --dry-run https://filesph.com

  # Generate sitemaps for several sites in one run
  sitemapgen generate https://filesph.com https://docs.filesph.com

Configuration file (.sitemapgen) example:
  defaults:
    delay: "500ms"
  sites:
    filesph.com:
      max_pages: 10000
      output: "public/sitemap.xml"`,
		Args: cobra.ArbitraryArgs,
		RunE: runGenerateCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Minimum delay between requests")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent fetches")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().StringP("user-agent", "u", "",
		"User-Agent header for requests (default: sitemapgen's own)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutput,
		"Sitemap output path (index path when sharding)")
	cmd.Flags().Bool("dry-run", false,
		"Run the full crawl and assembly without writing files")
	cmd.Flags().Bool("write-partial", false,
		"Write the collected entries even when the crawl is interrupted")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write the run summary as Markdown instead of plain text")
	cmd.Flags().String("report", "",
		"Write the run summary to the given file instead of stdout")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitemapgen in current or home directory)")

	// History database
	cmd.Flags().Bool("no-db", false,
		"Skip saving the run to the history database")

	return cmd
}

// runGenerateCmd executes the generate command.
func runGenerateCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags (and legacy environment variables)
	cfg, markdownSummary, reportFile, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	seeds := args
	if len(seeds) == 0 && cfg.Seed != "" {
		seeds = []string{cfg.Seed}
	}
	if len(seeds) == 0 {
		return config.ErrNoSeed
	}
	cfg.Seed = seeds[0]

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with URL credential scrubbing
	logger := log.NewRedactLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	if len(seeds) > 1 {
		return runBatchGenerate(ctx, cfg, seeds, markdownSummary, reportFile, logger)
	}
	return runGenerate(ctx, cfg, markdownSummary, reportFile, logger)
}

// buildConfig creates a Config from cobra command flags. Legacy
// environment variables (BASE_URL, MAX_PAGES, DELAY, OUTPUT) fill any
// value the user did not set explicitly.
func buildConfig(cmd *cobra.Command, _ []string) (*config.Config, bool, string, error) {
	cfg := config.NewConfig()

	var err error

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, false, "", err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, false, "", err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, false, "", err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, false, "", err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, false, "", err
	}

	cfg.Output, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, false, "", err
	}

	cfg.DryRun, err = cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, false, "", err
	}

	cfg.WritePartial, err = cmd.Flags().GetBool("write-partial")
	if err != nil {
		return nil, false, "", err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, false, "", err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, false, "", err
	}
	cfg.SaveToDB = !noDB
	cfg.Verbose = getVerboseFlag(cmd)

	markdownSummary, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, false, "", err
	}

	reportFile, err := cmd.Flags().GetString("report")
	if err != nil {
		return nil, false, "", err
	}

	applyEnvDefaults(cmd, cfg)

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, false, "", fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, false, "", fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	return cfg, markdownSummary, reportFile, nil
}

// applyEnvDefaults overlays the legacy environment variables onto
// values the user did not set via flags. Explicit flags always win.
func applyEnvDefaults(cmd *cobra.Command, cfg *config.Config) {
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.Seed = v
	}

	if v := os.Getenv("MAX_PAGES"); v != "" && !cmd.Flags().Changed("max-pages") {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxPages = n
		}
	}

	// DELAY is in seconds (possibly fractional) for compatibility with
	// the previous generator.
	if v := os.Getenv("DELAY"); v != "" && !cmd.Flags().Changed("delay") {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			cfg.Delay = time.Duration(secs * float64(time.Second))
		}
	}

	if v := os.Getenv("OUTPUT"); v != "" && !cmd.Flags().Changed("output") {
		cfg.Output = v
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runGenerate executes a single-seed generation run.
func runGenerate(ctx context.Context, cfg *config.Config, markdownSummary bool, reportFile string, logger *slog.Logger) error {
	seed, err := crawler.Normalize(cfg.Seed)
	if err != nil {
		return fmt.Errorf("invalid seed url %q: %w", cfg.Seed, err)
	}
	origin, err := crawler.OriginOf(seed)
	if err != nil {
		return fmt.Errorf("invalid seed url %q: %w", cfg.Seed, err)
	}

	// Per-site overrides from the config file
	cfg.ApplySiteConfig(origin)

	logger.Info("starting sitemap generation",
		"seed", seed,
		"origin", origin,
		"maxPages", cfg.MaxPages,
		"delay", cfg.Delay,
		"workers", cfg.Workers,
		"dryRun", cfg.DryRun,
	)

	summaryWriter, closeFn, err := newSummaryWriter(markdownSummary, reportFile, cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeFn()

	p := newGeneratePipeline(cfg, summaryWriter, logger)

	rep := model.NewRunReport(seed, origin)
	if err := p.Execute(ctx, rep); err != nil {
		return err
	}

	return nil
}

// runBatchGenerate executes one pipeline per seed with bounded
// concurrency. Per-site output paths come from the config file; seeds
// without an entry share the flag-provided output path, which only
// makes sense for a single seed, so a site entry is effectively
// required here.
func runBatchGenerate(ctx context.Context, cfg *config.Config, seeds []string, markdownSummary bool, reportFile string, logger *slog.Logger) error {
	if reportFile != "" {
		return fmt.Errorf("--report cannot be combined with multiple seeds")
	}

	summaryWriter, closeFn, err := newSummaryWriter(markdownSummary, "", cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeFn()

	factory := func(seed string) *pipeline.Pipeline {
		siteCfg := *cfg
		siteCfg.Seed = seed
		if normalized, err := crawler.Normalize(seed); err == nil {
			if origin, err := crawler.OriginOf(normalized); err == nil {
				siteCfg.ApplySiteConfig(origin)
			}
		}
		return newGeneratePipeline(&siteCfg, summaryWriter, logger)
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, seeds)
	if err != nil {
		return err
	}

	for i, rep := range reports {
		if rep == nil {
			continue
		}
		logger.Info("batch run finished",
			"seed", seeds[i],
			"entries", rep.EntryCount(),
			"interrupted", rep.Interrupted,
		)
	}
	return nil
}

// newGeneratePipeline assembles the standard crawl→assemble→persist→
// report pipeline for one run configuration.
func newGeneratePipeline(cfg *config.Config, summaryWriter report.Writer, logger *slog.Logger) *pipeline.Pipeline {
	fetchOpts := []fetcher.HTTPOption{
		fetcher.WithTimeout(cfg.Timeout),
	}
	if cfg.UserAgent != "" {
		fetchOpts = append(fetchOpts, fetcher.WithUserAgent(cfg.UserAgent))
	}
	if len(cfg.Headers) > 0 {
		fetchOpts = append(fetchOpts, fetcher.WithHeaders(cfg.Headers))
	}
	fetch := fetcher.NewHTTPFetcher(fetchOpts...)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewCrawlStep(fetch,
		pipeline.WithCrawlMaxPages(cfg.MaxPages),
		pipeline.WithCrawlDelay(cfg.Delay),
		pipeline.WithCrawlWorkers(cfg.Workers),
		pipeline.WithCrawlIgnorePatterns(cfg.IgnorePatterns),
		pipeline.WithCrawlWritePartial(cfg.WritePartial),
		pipeline.WithCrawlLogger(logger),
	))
	p.AddStep(pipeline.NewAssembleStep(cfg.Output,
		pipeline.WithAssembleDryRun(cfg.DryRun),
		pipeline.WithAssembleLogger(logger),
	))
	if cfg.SaveToDB && !cfg.DryRun {
		p.AddStep(pipeline.NewPersistStep(cfg.DBDir,
			pipeline.WithPersistLogger(logger),
		))
	}
	p.AddStep(pipeline.NewReportStep(summaryWriter,
		pipeline.WithReportLogger(logger),
	))
	return p
}

// newSummaryWriter builds the run summary writer for the chosen format
// and destination. The returned close function is a no-op for stdout.
func newSummaryWriter(markdownSummary bool, reportFile string, verbose bool) (report.Writer, func(), error) {
	output := os.Stdout
	closeFn := func() {}

	if reportFile != "" {
		dir := filepath.Dir(reportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(reportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create report file: %w", err)
		}
		output = f
		closeFn = func() { _ = f.Close() } //nolint:errcheck // Best effort close on exit
	}

	if markdownSummary {
		return report.NewMarkdownWriter(output), closeFn, nil
	}
	return report.NewSimpleWriter(output, report.WithVerbose(verbose)), closeFn, nil
}
