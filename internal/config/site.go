package config

import "strings"

// SiteConfig holds per-site overrides for a single origin. A site that
// needs a slower crawl, a different page budget, or its own output path
// gets an entry here instead of a wrapper script per site.
type SiteConfig struct {
	// MaxPages overrides the global page budget for this site.
	// If zero, the global value is used.
	MaxPages int `yaml:"max_pages,omitempty"`

	// Delay overrides the inter-request delay for this site.
	// Parsed with time.ParseDuration (e.g. "500ms", "2s").
	Delay string `yaml:"delay,omitempty"`

	// Workers overrides the concurrent fetch count for this site.
	Workers int `yaml:"workers,omitempty"`

	// UserAgent overrides the User-Agent header for this site.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Output overrides the sitemap output path for this site.
	Output string `yaml:"output,omitempty"`

	// IgnorePatterns lists URL substrings excluded from the crawl for
	// this site. A non-empty site list replaces the default list.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`

	// Headers are additional request headers sent to this site. A
	// non-empty site map replaces the default map.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .sitemapgen configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are hostnames without the scheme (e.g. "filesph.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// ForOrigin returns the configuration for a specific origin.
// It merges the site-specific configuration with defaults. Site keys
// are hostnames, so "https://filesph.com" matches the "filesph.com"
// entry.
func (cf *File) ForOrigin(origin string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	if siteConfig, ok := cf.Sites[hostOf(origin)]; ok {
		if siteConfig.MaxPages != 0 {
			result.MaxPages = siteConfig.MaxPages
		}
		if siteConfig.Delay != "" {
			result.Delay = siteConfig.Delay
		}
		if siteConfig.Workers != 0 {
			result.Workers = siteConfig.Workers
		}
		if siteConfig.UserAgent != "" {
			result.UserAgent = siteConfig.UserAgent
		}
		if siteConfig.Output != "" {
			result.Output = siteConfig.Output
		}
		if len(siteConfig.IgnorePatterns) > 0 {
			result.IgnorePatterns = siteConfig.IgnorePatterns
		}
		if len(siteConfig.Headers) > 0 {
			result.Headers = siteConfig.Headers
		}
	}

	return result
}

// hostOf strips the scheme from an origin, leaving the host (with port
// if present). Origins are produced lowercase by the crawler, so no
// case folding is needed here.
func hostOf(origin string) string {
	if i := strings.Index(origin, "://"); i >= 0 {
		return origin[i+len("://"):]
	}
	return origin
}
