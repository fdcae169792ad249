// Package config holds the configuration surface of sitemapgen: crawl
// defaults, validation, the optional .sitemapgen YAML file with per-site
// overrides, and the XDG paths used for persistent data.
//
// Configuration is populated from CLI flags (and environment-variable
// defaults mirroring the legacy tool) and passed through the application
// by value, never through global state.
package config
