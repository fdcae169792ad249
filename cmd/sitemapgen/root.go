package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitCodeInterrupted is returned when a run is cut short by SIGINT or
// SIGTERM, following the shell convention of 128+signal.
const exitCodeInterrupted = 130

// NewRootCmd creates the root command for sitemapgen.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemapgen",
		Short: "Sitemap generator driven by a polite same-origin crawl",
		Long: `sitemapgen crawls a website breadth-first from a seed URL and writes a
sitemap.xml describing every same-origin page and linked document.

Pages are classified into priority and change-frequency hints by URL
shape, lastmod is taken from the Last-Modified header (or EXIF data for
images), and outputs above 50,000 entries are sharded with an index.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
// An interrupted run exits with 130 so schedulers can tell cancellation
// apart from failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, context.Canceled) {
			os.Exit(exitCodeInterrupted)
		}
		os.Exit(1)
	}
}
