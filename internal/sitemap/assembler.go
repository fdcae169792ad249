package sitemap

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/filesph/sitemapgen/internal/model"
)

// Assembler turns a finished crawl's metadata map into sitemap files on
// disk: a single document when the entry count fits the per-file cap, or
// N shard documents plus an index at the configured output path.
type Assembler struct {
	// outputPath is where the sitemap (or the index, when sharding) is
	// written. Shard filenames are derived from it.
	outputPath string

	// origin is the site origin used to build absolute shard URLs in
	// the index document.
	origin string

	// cap is the maximum entries per file. Overridable for tests;
	// production uses MaxURLsPerFile.
	cap int

	// dryRun suppresses file writes. All computation and logging still
	// happens so a dry run predicts the real one exactly.
	dryRun bool

	// logger for per-file log emission.
	logger *slog.Logger

	// now supplies the generation timestamp for shards without any
	// entry lastmod. Replaceable in tests.
	now func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithMaxURLsPerFile overrides the per-file entry cap.
// Values below 1 are ignored.
func WithMaxURLsPerFile(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.cap = n
		}
	}
}

// WithDryRun suppresses the final writes while keeping all computation
// and log output identical.
func WithDryRun(dryRun bool) Option {
	return func(a *Assembler) {
		a.dryRun = dryRun
	}
}

// WithLogger sets a custom logger for the assembler.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithClock replaces the generation-time source. Used by tests that
// assert on index lastmod values.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an Assembler writing to outputPath for a site at
// origin.
func NewAssembler(outputPath, origin string, opts ...Option) *Assembler {
	a := &Assembler{
		outputPath: outputPath,
		origin:     origin,
		cap:        MaxURLsPerFile,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Output describes what an assembly produced (or would have produced in
// dry-run mode).
type Output struct {
	// ShardFiles are the sitemap file paths in shard order. For an
	// unsharded run this is just the output path.
	ShardFiles []string

	// IndexFile is the index document path, empty when no sharding was
	// needed.
	IndexFile string

	// EntryCounts are the per-shard entry counts, aligned with
	// ShardFiles.
	EntryCounts []int
}

// TotalEntries returns the summed entry count across shards.
func (o *Output) TotalEntries() int {
	total := 0
	for _, n := range o.EntryCounts {
		total += n
	}
	return total
}

// Assemble sorts the report's entries, partitions them into shards of at
// most the configured cap, and writes the resulting file(s).
//
// Chunking slices the sorted sequence into consecutive runs: shard k
// (1-indexed) receives entries [(k-1)*cap, k*cap). Every entry lands in
// exactly one shard and the concatenation of shards reproduces the
// global order.
//
// A write failure is a hard failure of the whole run; partially written
// shard files are not assumed consistent.
func (a *Assembler) Assemble(report *model.RunReport) (*Output, error) {
	entries := report.SortedEntries()
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	if !a.dryRun {
		dir := filepath.Dir(a.outputPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
	}

	if len(entries) <= a.cap {
		doc := &Document{Entries: entries}
		if err := a.writeDocument(a.outputPath, doc); err != nil {
			return nil, err
		}
		a.logger.Info("sitemap assembled",
			"file", a.outputPath,
			"entries", len(entries),
			"dryRun", a.dryRun,
		)
		return &Output{
			ShardFiles:  []string{a.outputPath},
			EntryCounts: []int{len(entries)},
		}, nil
	}

	return a.assembleSharded(entries)
}

// assembleSharded writes shard documents plus the index document.
func (a *Assembler) assembleSharded(entries []model.Entry) (*Output, error) {
	a.logger.Info("entry count exceeds per-file cap, sharding",
		"entries", len(entries),
		"cap", a.cap,
	)

	out := &Output{IndexFile: a.outputPath}
	index := &IndexDocument{}
	generated := a.now()

	for k := 1; (k-1)*a.cap < len(entries); k++ {
		lo := (k - 1) * a.cap
		hi := min(k*a.cap, len(entries))

		doc := &Document{Entries: entries[lo:hi]}
		path := a.shardPath(k)
		if err := a.writeDocument(path, doc); err != nil {
			return nil, err
		}

		lastMod, ok := doc.MaxLastModified()
		if !ok {
			lastMod = generated
		}
		index.Shards = append(index.Shards, ShardRef{
			Loc:     a.origin + "/" + filepath.Base(path),
			LastMod: lastMod,
		})

		out.ShardFiles = append(out.ShardFiles, path)
		out.EntryCounts = append(out.EntryCounts, hi-lo)

		a.logger.Info("shard assembled",
			"file", path,
			"entries", hi-lo,
			"dryRun", a.dryRun,
		)
	}

	if err := a.writeIndex(a.outputPath, index); err != nil {
		return nil, err
	}
	a.logger.Info("sitemap index assembled",
		"file", a.outputPath,
		"shards", len(index.Shards),
		"dryRun", a.dryRun,
	)

	return out, nil
}

// shardPath derives shard k's filename from the output path: the base
// name gains a "-part-{k}" suffix before the extension.
func (a *Assembler) shardPath(k int) string {
	ext := filepath.Ext(a.outputPath)
	base := strings.TrimSuffix(a.outputPath, ext)
	return fmt.Sprintf("%s-part-%d%s", base, k, ext)
}

// writeDocument serializes a document to path, honoring dry-run.
func (a *Assembler) writeDocument(path string, doc *Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize sitemap: %w", err)
	}
	return a.writeFile(path, buf.Bytes())
}

// writeIndex serializes an index document to path, honoring dry-run.
func (a *Assembler) writeIndex(path string, idx *IndexDocument) error {
	var buf bytes.Buffer
	if _, err := idx.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize sitemap index: %w", err)
	}
	return a.writeFile(path, buf.Bytes())
}

// writeFile writes data to path unless dry-run is active.
func (a *Assembler) writeFile(path string, data []byte) error {
	if a.dryRun {
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
