package sitemap

import "errors"

// Assembly errors returned by this package.
var (
	// ErrNoEntries is returned when the crawl discovered zero URLs.
	// An empty sitemap is never written silently; the caller surfaces
	// this as a failure of the whole run.
	ErrNoEntries = errors.New("no entries to serialize: crawl discovered zero urls")
)
