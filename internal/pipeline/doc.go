// Package pipeline orchestrates the stages of a sitemap generation run.
//
// A run is a sequence of steps executed against a shared RunReport: crawl
// the site, assemble the sitemap files, persist the run to the history
// database, and write the operator summary. Steps implement the Step
// interface and are executed in order by a Pipeline; the BatchProcessor
// runs complete pipelines for several seed URLs concurrently.
package pipeline
