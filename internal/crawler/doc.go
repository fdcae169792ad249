// Package crawler implements the frontier crawler: breadth-first traversal
// of a single website from a seed URL, producing a mapping from canonical
// URL to inferred sitemap metadata.
//
// # Architecture
//
// The package is designed around the Spider type, which drives
// fetch→parse→enqueue cycles against a Frontier. The Frontier owns the
// visited set and the pending FIFO queue; all mutation goes through its
// mutex so the visited check-and-mark stays atomic even when fetches run
// in parallel.
//
// # Components
//
//   - Normalize / OriginOf / SameOrigin: URL canonicalization and the
//     same-origin admission policy
//   - Classify / IsAssetURL / IsDocumentURL: per-URL metadata inference
//   - Parser: HTML link and asset extraction
//   - Frontier: visited set plus pending queue with enqueue-time dedup
//   - Spider: the crawl loop
//
// # Traversal order
//
// The queue is strictly FIFO, so traversal is breadth-first. With
// multiple workers the Spider processes the queue in waves: every URL
// pending at the start of a wave is fetched before any URL discovered
// during that wave, which preserves breadth-first order and makes the
// worker count invisible in the output.
//
// # Politeness
//
// The configured delay is a global minimum inter-request spacing, not a
// per-worker one: with N workers the site still sees at most one new
// request per delay interval. Slowing the whole crawl down is the point
// of the setting, so fanning out must not multiply the request rate.
package crawler
