// Package sitemap serializes crawl results into standards-compliant
// sitemap XML, chunking into multiple shard files plus an index document
// when the entry count exceeds the per-file cap.
//
// The assembler is pure given the crawl's metadata map: it performs no
// network I/O and its output is fully determined by its input. Entries
// are ordered by byte-lexicographic canonical URL; that ordering is the
// sole output guarantee and exists to make runs with identical inputs
// byte-identical.
package sitemap
