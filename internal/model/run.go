package model

import (
	"sort"
	"time"
)

// FetchFailure describes a URL that could not be fetched during a crawl.
// Failed URLs never appear in the sitemap; we keep them in the run report
// so the operator can diagnose gaps in the output.
type FetchFailure struct {
	// URL is the canonical URL that failed.
	URL string `json:"url"`

	// Reason is a human-readable description of the failure
	// (network error, non-2xx status, timeout).
	Reason string `json:"reason"`
}

// RunReport accumulates the state of one sitemap generation run as it
// moves through the pipeline: the crawl step fills Entries and Failures,
// the assemble step fills ShardFiles, and the persist/report steps read
// from it.
//
// Design decision: We use a single mutable report passed through pipeline
// steps rather than returning values between stages because:
//  1. Each step enriches the same logical object (one run)
//  2. Later steps need results from several earlier ones
//  3. Partial state survives an interrupted run for optional serialization
type RunReport struct {
	// Seed is the URL the crawl started from, as given by the user.
	Seed string `json:"seed"`

	// Origin is the normalized scheme://host[:port] admission boundary.
	Origin string `json:"origin"`

	// Started is when the crawl began.
	Started time.Time `json:"started"`

	// Finished is when the run completed (or was interrupted).
	Finished time.Time `json:"finished"`

	// Entries maps each visited canonical URL to its inferred record.
	Entries map[string]PageRecord `json:"entries"`

	// Failures lists URLs that were claimed but could not be fetched.
	Failures []FetchFailure `json:"failures,omitempty"`

	// ShardFiles lists the sitemap files written (or that would have been
	// written in dry-run mode), in shard order. The index file, when one
	// is produced, is not included here.
	ShardFiles []string `json:"shard_files,omitempty"`

	// IndexFile is the sitemap index path when entries exceeded the
	// per-file cap, empty otherwise.
	IndexFile string `json:"index_file,omitempty"`

	// DryRun records whether file writes were suppressed.
	DryRun bool `json:"dry_run"`

	// Interrupted records whether the crawl was cut short by cancellation.
	Interrupted bool `json:"interrupted"`
}

// NewRunReport creates a report for a run starting from seed within origin.
func NewRunReport(seed, origin string) *RunReport {
	return &RunReport{
		Seed:    seed,
		Origin:  origin,
		Started: time.Now(),
		Entries: make(map[string]PageRecord),
	}
}

// EntryCount returns the number of visited URLs in the report.
func (r *RunReport) EntryCount() int {
	return len(r.Entries)
}

// SortedEntries returns the entries ordered by canonical URL using byte
// lexicographic ordering. This is the global sort order the assembler
// shards from; it exists purely to make output deterministic.
func (r *RunReport) SortedEntries() []Entry {
	entries := make([]Entry, 0, len(r.Entries))
	for loc, rec := range r.Entries {
		entries = append(entries, Entry{Loc: loc, Record: rec})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Loc < entries[j].Loc
	})
	return entries
}

// Duration returns the elapsed run time. If the run has not finished,
// it measures up to now.
func (r *RunReport) Duration() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}

// CountByChangeFreq tallies entries per change-frequency value.
// Used by the report writers for the classification summary.
func (r *RunReport) CountByChangeFreq() map[ChangeFreq]int {
	counts := make(map[ChangeFreq]int)
	for _, rec := range r.Entries {
		counts[rec.ChangeFreq]++
	}
	return counts
}
