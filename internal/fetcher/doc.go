// Package fetcher implements the page fetcher the crawler delegates to.
//
// The fetcher owns every transport concern the crawl algorithm must not
// know about: connection pooling, TLS, redirect resolution, timeouts,
// response size limits, and the inference of a modification timestamp
// from transport metadata. The crawler consumes the small Fetcher
// interface and a Result value; tests substitute in-memory fetchers.
//
// # Modification time inference
//
// A Result's LastModified comes from the Last-Modified response header
// when it parses as an HTTP date. For JPEG and TIFF responses without a
// usable header, the fetcher falls back to the image's EXIF timestamp,
// which on document-hosting sites is frequently the only modification
// signal assets carry. Failure to infer a timestamp is never an error;
// the field is simply left zero and the sitemap omits <lastmod>.
//
// # Character sets
//
// HTML bodies declared in a non-UTF-8 charset are transcoded to UTF-8
// before being handed to the crawler, so link extraction sees sane text
// regardless of the site's encoding.
package fetcher
