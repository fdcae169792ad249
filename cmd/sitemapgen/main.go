// Package main provides the entry point for the sitemapgen CLI.
//
// sitemapgen crawls a website breadth-first from a seed URL and writes a
// sitemap.xml (sharded with an index when large) describing every
// same-origin page and document it found.
//
// Usage:
//
//	sitemapgen generate https://example.com
//	sitemapgen history
//
// See --help for all available options.
package main

// main is the entry point for sitemapgen.
func main() {
	Execute()
}
