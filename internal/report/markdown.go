package report

import (
	"io"
	"strconv"

	"github.com/filesph/sitemapgen/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for job logs and documentation.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(rep *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, rep)
	w.writeClassification(md, rep)
	w.writeOutputFiles(md, rep)
	w.writeFailures(md, rep)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, rep *model.RunReport) {
	md.H1("Sitemap Generation Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + rep.Seed + "`"},
			{"Origin", "`" + rep.Origin + "`"},
			{"Started", rep.Started.Format("2006-01-02 15:04:05 MST")},
			{"Duration", rep.Duration().Round(1e6).String()},
			{"URLs Visited", strconv.Itoa(rep.EntryCount())},
			{"Fetch Failures", strconv.Itoa(len(rep.Failures))},
			{"Status", w.getStatusText(rep)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(rep *model.RunReport) string {
	switch {
	case rep.Interrupted:
		return "⚠️ Interrupted (partial results)"
	case rep.DryRun:
		return "✅ Complete (dry run)"
	default:
		return "✅ Complete"
	}
}

// writeClassification writes the change-frequency tally section.
func (w *MarkdownWriter) writeClassification(md *markdown.Markdown, rep *model.RunReport) {
	md.H2("Classification")
	md.PlainText("")

	counts := rep.CountByChangeFreq()
	rows := make([][]string, 0, len(counts))
	for _, freq := range changeFreqOrder {
		n, ok := counts[freq]
		if !ok {
			continue
		}
		rows = append(rows, []string{freq.String(), strconv.Itoa(n)})
	}

	if len(rows) == 0 {
		md.PlainText("No URLs were visited.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Change Frequency", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, rep)
}

// writePieChart writes a mermaid pie chart for the change-frequency
// distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, rep *model.RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Change Frequency Distribution"),
		piechart.WithShowData(true),
	)

	counts := rep.CountByChangeFreq()
	for _, freq := range changeFreqOrder {
		if n := counts[freq]; n > 0 {
			chart.LabelAndIntValue(freq.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeOutputFiles writes the shard and index file section.
func (w *MarkdownWriter) writeOutputFiles(md *markdown.Markdown, rep *model.RunReport) {
	md.H2("Output Files")
	md.PlainText("")

	if len(rep.ShardFiles) == 0 && rep.IndexFile == "" {
		md.PlainText("No sitemap files were produced.")
		md.PlainText("")
		return
	}

	files := make([]string, 0, len(rep.ShardFiles)+1)
	for _, f := range rep.ShardFiles {
		files = append(files, "`"+f+"`")
	}
	if rep.IndexFile != "" {
		files = append(files, "`"+rep.IndexFile+"` (index)")
	}
	md.BulletList(files...)
	md.PlainText("")

	if rep.DryRun {
		md.Note("Dry run: the files listed above were not written.")
		md.PlainText("")
	}
}

// writeFailures writes the fetch failure section.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, rep *model.RunReport) {
	if len(rep.Failures) == 0 {
		return
	}

	md.H2("Fetch Failures")
	md.PlainText("")

	rows := make([][]string, len(rep.Failures))
	for i, f := range rep.Failures {
		rows[i] = []string{
			"`" + truncateString(f.URL, 60) + "`",
			truncateString(f.Reason, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")

	md.Warningf("%d URL(s) could not be fetched and are missing from the sitemap.", len(rep.Failures))
	md.PlainText("")
}

// writeFooter writes the summary footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitemapgen](https://github.com/filesph/sitemapgen)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
