package model

import (
	"time"
)

// ChangeFreq is a sitemap change-frequency hint.
// The sitemap protocol defines exactly seven valid values; anything else
// is rejected by consumers, so we model it as a named string type with
// package-level constants rather than free-form strings.
type ChangeFreq string

// Valid change-frequency values per the sitemap protocol.
const (
	ChangeFreqAlways  ChangeFreq = "always"
	ChangeFreqHourly  ChangeFreq = "hourly"
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
	ChangeFreqNever   ChangeFreq = "never"
)

// Valid reports whether the value is one of the seven protocol values.
func (c ChangeFreq) Valid() bool {
	switch c {
	case ChangeFreqAlways, ChangeFreqHourly, ChangeFreqDaily,
		ChangeFreqWeekly, ChangeFreqMonthly, ChangeFreqYearly, ChangeFreqNever:
		return true
	}
	return false
}

// String returns the protocol representation.
func (c ChangeFreq) String() string {
	return string(c)
}

// PageRecord holds the metadata inferred for a single visited URL.
// A record is created exactly once, at the URL's first (and only) visit,
// and never mutated afterward.
type PageRecord struct {
	// LastModified is the resource's modification time, derived from the
	// Last-Modified response header or, for JPEG/TIFF assets, from EXIF
	// metadata. Zero when neither source yielded a parseable timestamp.
	LastModified time.Time `json:"last_modified,omitempty"`

	// Priority is the sitemap priority hint in [0.0, 1.0].
	Priority float64 `json:"priority"`

	// ChangeFreq is the sitemap change-frequency hint.
	ChangeFreq ChangeFreq `json:"change_freq"`
}

// HasLastModified reports whether the record carries a modification time.
// Sitemap serialization omits <lastmod> when this is false.
func (r PageRecord) HasLastModified() bool {
	return !r.LastModified.IsZero()
}

// Entry pairs a canonical URL with its record.
// The assembler works on ordered slices of entries; the crawler produces
// the unordered map they are built from.
type Entry struct {
	// Loc is the canonical URL of the resource.
	Loc string `json:"loc"`

	// Record is the metadata inferred at visit time.
	Record PageRecord `json:"record"`
}
