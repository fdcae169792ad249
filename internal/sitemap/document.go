package sitemap

import (
	"encoding/xml"
	"io"
	"strconv"
	"time"

	"github.com/filesph/sitemapgen/internal/model"
)

// Namespace is the sitemap protocol namespace carried by every root
// element this package emits.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// MaxURLsPerFile is the sitemap protocol's cap on entries per file.
// Exceeding it forces chunking into shards plus an index document.
const MaxURLsPerFile = 50000

// lastmodLayout is the ISO 8601 date form used for <lastmod> values.
// The protocol also allows full datetimes, but a date is what consumers
// act on and it keeps output stable across timezones.
const lastmodLayout = "2006-01-02"

// Document is one sitemap file: an ordered sequence of entries, at most
// MaxURLsPerFile of them.
type Document struct {
	// Entries are the (canonical URL, record) pairs in global sort order.
	Entries []model.Entry
}

// urlsetXML is the wire form of a sitemap document.
type urlsetXML struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []urlXML `xml:"url"`
}

// urlXML is one <url> element. LastMod is omitted when absent;
// changefreq and priority are always emitted.
type urlXML struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// WriteTo serializes the document as indented XML with the standard
// header. It implements io.WriterTo.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	set := urlsetXML{
		Xmlns: Namespace,
		URLs:  make([]urlXML, 0, len(d.Entries)),
	}
	for _, entry := range d.Entries {
		u := urlXML{
			Loc:        entry.Loc,
			ChangeFreq: entry.Record.ChangeFreq.String(),
			Priority:   formatPriority(entry.Record.Priority),
		}
		if entry.Record.HasLastModified() {
			u.LastMod = entry.Record.LastModified.UTC().Format(lastmodLayout)
		}
		set.URLs = append(set.URLs, u)
	}
	return marshalXML(w, set)
}

// MaxLastModified returns the latest modification time among the
// document's entries, or ok=false when no entry carries one. The index
// uses this as the shard's <lastmod>.
func (d *Document) MaxLastModified() (time.Time, bool) {
	var max time.Time
	for _, entry := range d.Entries {
		if entry.Record.LastModified.After(max) {
			max = entry.Record.LastModified
		}
	}
	return max, !max.IsZero()
}

// ShardRef is one <sitemap> entry in an index document.
type ShardRef struct {
	// Loc is the absolute URL of the shard file (origin + filename).
	Loc string

	// LastMod is the shard's modification time: the max entry lastmod,
	// or the generation time when no entry carried one.
	LastMod time.Time
}

// IndexDocument is a sitemap index referencing one or more shard files.
type IndexDocument struct {
	// Shards are the referenced shard files in shard order.
	Shards []ShardRef
}

// sitemapindexXML is the wire form of a sitemap index.
type sitemapindexXML struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Xmlns    string         `xml:"xmlns,attr"`
	Sitemaps []sitemapRefXML `xml:"sitemap"`
}

type sitemapRefXML struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// WriteTo serializes the index as indented XML with the standard header.
func (d *IndexDocument) WriteTo(w io.Writer) (int64, error) {
	idx := sitemapindexXML{
		Xmlns:    Namespace,
		Sitemaps: make([]sitemapRefXML, 0, len(d.Shards)),
	}
	for _, shard := range d.Shards {
		idx.Sitemaps = append(idx.Sitemaps, sitemapRefXML{
			Loc:     shard.Loc,
			LastMod: shard.LastMod.UTC().Format(lastmodLayout),
		})
	}
	return marshalXML(w, idx)
}

// formatPriority renders a priority with exactly one decimal place, as
// the protocol examples do (1.0, 0.5).
func formatPriority(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// marshalXML writes the XML declaration followed by the indented
// document.
func marshalXML(w io.Writer, v any) (int64, error) {
	var written int64

	n, err := io.WriteString(w, xml.Header)
	written += int64(n)
	if err != nil {
		return written, err
	}

	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return written, err
	}
	n, err = w.Write(data)
	written += int64(n)
	if err != nil {
		return written, err
	}

	n, err = io.WriteString(w, "\n")
	written += int64(n)
	return written, err
}
