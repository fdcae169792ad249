// Package database provides SQLite-based persistence for sitemap
// generation runs.
//
// Each run is stored with its configuration echo (seed, origin), outcome
// counters, and every per-URL record it produced. Persistence exists so
// a periodically regenerated sitemap leaves an inspectable history: the
// history command lists past runs without re-crawling anything.
//
// The driver is modernc.org/sqlite (pure Go, no cgo), with WAL enabled
// for concurrent readers.
package database
