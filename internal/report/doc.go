// Package report renders run summaries for the operator.
//
// Two formats are provided: a plain-text summary for terminal display
// (SimpleWriter) and a Markdown document suitable for committing next to
// the generated sitemap or posting in a job log (MarkdownWriter). Both
// implement the Writer interface so the pipeline's report step does not
// care which format the user picked.
package report
