package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/filesph/sitemapgen/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-failure listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the full failure listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(rep *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, rep)
	w.writeClassification(&sb, rep)
	w.writeOutputFiles(&sb, rep)
	w.writeFailures(&sb, rep)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, rep *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        SITEMAP GENERATION\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:      %s\n", rep.Seed))
	sb.WriteString(fmt.Sprintf("Origin:        %s\n", rep.Origin))
	sb.WriteString(fmt.Sprintf("Started:       %s\n", rep.Started.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:      %s\n", rep.Duration().Round(1e6)))
	sb.WriteString(fmt.Sprintf("URLs Visited:  %d\n", rep.EntryCount()))
	sb.WriteString(fmt.Sprintf("Failures:      %d\n", len(rep.Failures)))

	switch {
	case rep.Interrupted && rep.DryRun:
		sb.WriteString("Status:        INTERRUPTED (dry run)\n")
	case rep.Interrupted:
		sb.WriteString("Status:        INTERRUPTED (partial results)\n")
	case rep.DryRun:
		sb.WriteString("Status:        Complete (dry run, nothing written)\n")
	default:
		sb.WriteString("Status:        Complete\n")
	}

	sb.WriteString("\n")
}

// writeClassification writes the change-frequency tally section.
func (w *SimpleWriter) writeClassification(sb *strings.Builder, rep *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CLASSIFICATION\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := rep.CountByChangeFreq()
	for _, freq := range changeFreqOrder {
		n, ok := counts[freq]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-8s %d\n", freq.String()+":", n))
	}
	sb.WriteString("\n")
}

// writeOutputFiles writes the shard and index file section.
func (w *SimpleWriter) writeOutputFiles(sb *strings.Builder, rep *model.RunReport) {
	if len(rep.ShardFiles) == 0 && rep.IndexFile == "" {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OUTPUT FILES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, f := range rep.ShardFiles {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", f))
	}
	if rep.IndexFile != "" {
		sb.WriteString(fmt.Sprintf("  [i] %s (index)\n", rep.IndexFile))
	}
	if rep.DryRun {
		sb.WriteString("\n  (dry run: files were not written)\n")
	}
	sb.WriteString("\n")
}

// writeFailures writes the fetch failure section. The full listing only
// appears in verbose mode; otherwise a count suffices.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, rep *model.RunReport) {
	if len(rep.Failures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FETCH FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if !w.verbose {
		sb.WriteString(fmt.Sprintf("  %d URL(s) could not be fetched. Run with --verbose for details.\n\n", len(rep.Failures)))
		return
	}

	for _, f := range rep.Failures {
		sb.WriteString(fmt.Sprintf("  * %s\n", f.URL))
		sb.WriteString(fmt.Sprintf("    Reason: %s\n", f.Reason))
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Generated by sitemapgen\n")
	sb.WriteString("https://github.com/filesph/sitemapgen\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
