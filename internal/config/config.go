package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These match the defaults of the legacy generator where one existed, so
// a scheduled regeneration behaves identically after switching tools.
const (
	// DefaultMaxPages caps a crawl at 5000 distinct URLs. Large enough
	// for most sites, small enough that a link-generating bug on the
	// target site cannot run the crawl forever.
	DefaultMaxPages = 5000

	// DefaultDelay is the politeness delay between requests. Half a
	// second keeps the crawl well below anything a production site
	// would notice.
	DefaultDelay = 500 * time.Millisecond

	// DefaultOutput is the sitemap output path, relative to the working
	// directory. "public/" matches the static-site layout the tool was
	// built for.
	DefaultOutput = "public/sitemap.xml"

	// DefaultWorkers is the number of concurrent fetches. 1 preserves
	// the strictly sequential baseline; raising it fans out fetches
	// without changing output.
	DefaultWorkers = 1

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "sitemapgen"
)

// Config holds all configuration options for a sitemap generation run.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
type Config struct {
	// Seed is the URL the crawl starts from. Its origin becomes the
	// same-origin admission boundary.
	Seed string

	// MaxPages is the hard cap on distinct URLs visited.
	MaxPages int

	// Delay is the minimum spacing between requests (global across
	// workers).
	Delay time.Duration

	// Workers is the number of concurrent fetches.
	Workers int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	// Empty means the fetcher's default.
	UserAgent string

	// Output is the sitemap file path. When sharding is needed this
	// becomes the index path and shards derive their names from it.
	Output string

	// DryRun performs the full crawl and assembly but suppresses the
	// final writes.
	DryRun bool

	// Verbose enables debug-level log output.
	Verbose bool

	// WritePartial serializes whatever was collected when the crawl is
	// interrupted. When false an interrupted run writes nothing.
	WritePartial bool

	// IgnorePatterns lists URL substrings excluded from the crawl.
	IgnorePatterns []string

	// Headers are additional request headers sent with every fetch.
	Headers map[string]string

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .sitemapgen in the current directory and
	// then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-origin overrides loaded from the config
	// file.
	SiteConfigs *File

	// DBDir is the directory for the SQLite run-history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB controls whether the run is persisted.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxPages: DefaultMaxPages,
		Delay:    DefaultDelay,
		Workers:  DefaultWorkers,
		Timeout:  DefaultTimeout,
		Output:   DefaultOutput,
		SaveToDB: true,
		DBDir:    XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for sitemapgen.
// On Linux: ~/.local/share/sitemapgen
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitemapgen.
// On Linux: ~/.config/sitemapgen
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found rather than collecting all errors,
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Output == "" {
		return ErrNoOutput
	}
	return nil
}

// ApplySiteConfig overlays the per-origin overrides for the given origin
// onto the run configuration. Flag-provided values are not distinguished
// from defaults here; the file is the layer between built-in defaults
// and explicit flags, and the command layer applies them in that order.
func (c *Config) ApplySiteConfig(origin string) {
	if c.SiteConfigs == nil {
		return
	}
	site := c.SiteConfigs.ForOrigin(origin)

	if site.MaxPages > 0 {
		c.MaxPages = site.MaxPages
	}
	if site.Delay != "" {
		if d, err := time.ParseDuration(site.Delay); err == nil && d >= 0 {
			c.Delay = d
		}
	}
	if site.Workers > 0 {
		c.Workers = site.Workers
	}
	if site.UserAgent != "" {
		c.UserAgent = site.UserAgent
	}
	if site.Output != "" {
		c.Output = site.Output
	}
	if len(site.IgnorePatterns) > 0 {
		c.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.Headers) > 0 {
		c.Headers = site.Headers
	}
}
