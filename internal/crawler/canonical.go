package crawler

import (
	"net/url"
	"strings"
)

// Normalize converts a raw URL into its canonical form used for identity
// comparison throughout the crawl:
//
//   - scheme and host are lower-cased (both are case-insensitive per
//     RFC 3986); path case is preserved and significant
//   - the fragment is stripped (it never changes the fetched resource)
//   - an empty path becomes "/" so the two spellings of the homepage
//     collapse to one canonical URL
//   - a single trailing slash is stripped unless the path is "/"
//   - the query string is preserved: URLs differing only in query are
//     distinct sitemap resources
//
// Normalize is a pure function with no I/O, and it is idempotent:
// Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", ErrNotAbsolute
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrUnsupportedScheme
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.Path == "" {
		u.Path = "/"
	} else if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// OriginOf returns the scheme://host[:port] tuple of a URL.
// The origin is the crawl's admission boundary: only URLs whose origin
// matches the seed's are ever fetched.
func OriginOf(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", ErrNotAbsolute
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// SameOrigin reports whether a URL belongs to the given origin.
// The comparison covers the full scheme+host+port tuple: http and https
// on the same host are different origins, as are different ports.
func SameOrigin(raw, origin string) bool {
	o, err := OriginOf(raw)
	if err != nil {
		return false
	}
	return o == origin
}
