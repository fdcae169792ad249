package crawler

import "errors"

// Crawl errors returned by this package.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at each return site. This allows callers
// to use errors.Is() for programmatic handling while still providing
// human-readable messages.
var (
	// ErrNotAbsolute is returned when a URL has no scheme or host.
	// The crawler only works with absolute http/https URLs; relative
	// references must be resolved against a page URL first.
	ErrNotAbsolute = errors.New("url is not absolute: scheme and host are required")

	// ErrUnsupportedScheme is returned when a URL uses a scheme other
	// than http or https.
	ErrUnsupportedScheme = errors.New("unsupported url scheme: only http and https are crawlable")
)
