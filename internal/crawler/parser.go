package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts crawlable references from HTML content.
// It resolves relative references against the page URL and applies the
// same-origin admission policy, so everything it returns is already a
// canonical URL inside the crawl boundary.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative references.
	baseURL *url.URL

	// origin is the admission boundary; references outside it are dropped.
	origin string
}

// ParseResult contains the references extracted from one HTML page.
// All URLs are canonical and same-origin.
type ParseResult struct {
	// Pages are candidate page URLs discovered via anchor hrefs.
	Pages []string

	// Assets are static asset URLs discovered via anchor hrefs, <img>
	// sources, and icon <link> elements.
	Assets []string
}

// NewParser creates a parser for the page at pageURL, admitting only
// references within origin.
func NewParser(pageURL, origin string) (*Parser, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u, origin: origin}, nil
}

// Parse walks the HTML document and collects candidate pages and assets.
// Malformed markup is tolerated: x/net/html recovers from almost
// anything, and whatever was parseable is returned.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Pages:  make([]string, 0),
		Assets: make([]string, 0),
	}

	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result, seen)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement inspects a single element for crawlable references.
func (p *Parser) processElement(n *html.Node, result *ParseResult, seen map[string]bool) {
	switch n.Data {
	case "a":
		canonical := p.admit(getAttr(n, "href"))
		if canonical == "" || seen[canonical] {
			return
		}
		seen[canonical] = true
		// Anchors can point at documents or directly at assets; anything
		// else (scripts, stylesheets, archives) is not sitemap material.
		switch {
		case IsAssetURL(canonical):
			result.Assets = append(result.Assets, canonical)
		case IsDocumentURL(canonical):
			result.Pages = append(result.Pages, canonical)
		}

	case "img":
		canonical := p.admit(getAttr(n, "src"))
		if canonical == "" || seen[canonical] || !IsAssetURL(canonical) {
			return
		}
		seen[canonical] = true
		result.Assets = append(result.Assets, canonical)

	case "link":
		rel := getAttr(n, "rel")
		if rel != "icon" && rel != "shortcut icon" {
			return
		}
		canonical := p.admit(getAttr(n, "href"))
		if canonical == "" || seen[canonical] || !IsAssetURL(canonical) {
			return
		}
		seen[canonical] = true
		result.Assets = append(result.Assets, canonical)
	}
}

// admit resolves a raw reference against the page URL, normalizes it,
// and returns the canonical URL if it falls inside the crawl origin.
// Returns "" for references that are empty, non-navigational, malformed,
// or cross-origin.
func (p *Parser) admit(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := p.baseURL.ResolveReference(u)

	canonical, err := Normalize(resolved.String())
	if err != nil {
		return ""
	}
	if !SameOrigin(canonical, p.origin) {
		return ""
	}
	return canonical
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
