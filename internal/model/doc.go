// Package model defines the core data types shared across sitemapgen:
// page records produced by the crawler, sitemap entries consumed by the
// assembler, and the run report accumulated through the pipeline.
//
// Types in this package carry no behavior beyond validation and simple
// accessors. All crawling, serialization, and persistence logic lives in
// the packages that operate on these types.
package model
