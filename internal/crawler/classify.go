package crawler

import (
	"net/url"
	"strings"

	"github.com/filesph/sitemapgen/internal/model"
)

// assetExtensions is the fixed allow-list of static asset extensions.
// A URL ending in one of these is included in the sitemap as an asset
// rather than as a page.
var assetExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
}

// nonDocumentExtensions is the deny-list for candidate pages: the asset
// extensions plus machine-readable formats that are never pages.
var nonDocumentExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
	".css", ".js", ".json", ".xml", ".txt", ".zip", ".gz",
}

// IsAssetURL reports whether the URL's path ends in a known asset
// extension. The match is case-insensitive ("/logo.PNG" is an asset).
func IsAssetURL(raw string) bool {
	return hasSuffixIn(raw, assetExtensions)
}

// IsDocumentURL reports whether the URL is a candidate page.
// A URL is a candidate page if and only if its path does NOT end in a
// known non-page extension.
func IsDocumentURL(raw string) bool {
	return !hasSuffixIn(raw, nonDocumentExtensions)
}

// hasSuffixIn checks the URL's path against a list of extensions,
// ignoring case. Only the path is examined: query strings and fragments
// never influence classification.
func hasSuffixIn(raw string, extensions []string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Classify infers the sitemap priority and change-frequency hints from
// the URL's shape alone. It is a pure, deterministic function.
//
// The rules are an ordered list; the first match wins:
//
//  1. homepage (root path)                → priority 1.0, daily
//  2. /d/ or /view/ path segment          → priority 0.8, monthly
//  3. /agency/ or /category/ path segment → priority 0.7, weekly
//  4. asset URL                           → priority 0.3, yearly
//  5. everything else                     → priority 0.5, monthly
func Classify(raw string) (float64, model.ChangeFreq) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0.5, model.ChangeFreqMonthly
	}

	if u.Path == "" || u.Path == "/" {
		return 1.0, model.ChangeFreqDaily
	}
	if hasPathSegment(u.Path, "d") || hasPathSegment(u.Path, "view") {
		return 0.8, model.ChangeFreqMonthly
	}
	if hasPathSegment(u.Path, "agency") || hasPathSegment(u.Path, "category") {
		return 0.7, model.ChangeFreqWeekly
	}
	if IsAssetURL(raw) {
		return 0.3, model.ChangeFreqYearly
	}
	return 0.5, model.ChangeFreqMonthly
}

// hasPathSegment reports whether any slash-delimited segment of the path
// equals name. Segment matching avoids false positives like "/dd/1"
// matching "d" or "/preview/2" matching "view".
func hasPathSegment(path, name string) bool {
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == name {
			return true
		}
	}
	return false
}
