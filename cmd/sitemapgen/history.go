package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/filesph/sitemapgen/internal/config"
	"github.com/filesph/sitemapgen/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command inspects past generation runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id] [run-id]",
		Short: "Inspect past sitemap generation runs",
		Long: `History lists past generation runs saved in the local database.

With no arguments it lists recent runs. With one run ID it prints every
URL that run put in the sitemap. With two run IDs it diffs them, showing
URLs that appeared or disappeared between the runs - useful for spotting
pages that silently dropped out of the sitemap after a site change.

Examples:
  # List the 20 most recent runs
  sitemapgen history

  # List more runs
  sitemapgen history --limit 100

  # Show every URL recorded by run 5
  sitemapgen history 5

  # Diff run 5 (older) against run 8 (newer)
  sitemapgen history 5 8

  # Machine-readable listing
  sitemapgen history --json`,
		Args: cobra.MaximumNArgs(2),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Parse run IDs before opening the database so bad input doesn't
	// touch the lock.
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid run id %q: expected a positive integer", arg)
		}
		ids = append(ids, id)
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch len(ids) {
	case 1:
		return showRunEntries(ctx, db, ids[0], jsonOutput)
	case 2:
		return diffRuns(ctx, db, ids[0], ids[1])
	default:
		return listRuns(ctx, db, limit, jsonOutput)
	}
}

// listRuns prints recent run summaries, newest first.
func listRuns(ctx context.Context, db *database.CrawlDB, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found in the database.")
		fmt.Println("\nUse 'sitemapgen generate <url>' to generate a sitemap.")
		return nil
	}

	fmt.Printf("Generation history (%d runs):\n\n", len(runs))
	fmt.Printf("  %-6s  %-20s  %-30s  %8s  %8s  %s\n",
		"ID", "Started", "Origin", "URLs", "Failures", "Flags")
	fmt.Println("  " + strings.Repeat("-", 90))

	for _, run := range runs {
		fmt.Printf("  %-6d  %-20s  %-30s  %8d  %8d  %s\n",
			run.ID,
			run.Started.Format("2006-01-02 15:04:05"),
			run.Origin,
			run.EntryCount,
			run.FailureCount,
			runFlags(run),
		)
	}

	fmt.Println("\nUse 'sitemapgen history <id>' to list a run's URLs.")
	fmt.Println("Use 'sitemapgen history <old-id> <new-id>' to diff two runs.")

	return nil
}

// runFlags renders a run's state markers for the listing.
func runFlags(run database.RunSummary) string {
	var flags []string
	if run.DryRun {
		flags = append(flags, "dry-run")
	}
	if run.Interrupted {
		flags = append(flags, "interrupted")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

// showRunEntries prints every URL recorded by one run.
func showRunEntries(ctx context.Context, db *database.CrawlDB, runID int64, jsonOutput bool) error {
	entries, err := db.GetRunEntries(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get entries for run %d: %w", runID, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries found for run %d", runID)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	urls := make([]string, 0, len(entries))
	for u := range entries {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	fmt.Printf("Run %d (%d URLs):\n\n", runID, len(urls))
	for _, u := range urls {
		rec := entries[u]
		lastMod := "-"
		if rec.HasLastModified() {
			lastMod = rec.LastModified.Format("2006-01-02")
		}
		fmt.Printf("  %.1f  %-8s  %-10s  %s\n", rec.Priority, rec.ChangeFreq, lastMod, u)
	}

	return nil
}

// diffRuns prints the URL-level differences between two runs.
func diffRuns(ctx context.Context, db *database.CrawlDB, oldID, newID int64) error {
	oldEntries, err := db.GetRunEntries(ctx, oldID)
	if err != nil {
		return fmt.Errorf("failed to get entries for run %d: %w", oldID, err)
	}
	if len(oldEntries) == 0 {
		return fmt.Errorf("no entries found for run %d", oldID)
	}

	newEntries, err := db.GetRunEntries(ctx, newID)
	if err != nil {
		return fmt.Errorf("failed to get entries for run %d: %w", newID, err)
	}
	if len(newEntries) == 0 {
		return fmt.Errorf("no entries found for run %d", newID)
	}

	var added, removed []string
	for u := range newEntries {
		if _, ok := oldEntries[u]; !ok {
			added = append(added, u)
		}
	}
	for u := range oldEntries {
		if _, ok := newEntries[u]; !ok {
			removed = append(removed, u)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	fmt.Printf("Diff: run %d (%d URLs) -> run %d (%d URLs)\n",
		oldID, len(oldEntries), newID, len(newEntries))
	fmt.Println(strings.Repeat("=", 60))

	if len(added) > 0 {
		fmt.Printf("\nAdded (%d):\n", len(added))
		for _, u := range added {
			fmt.Printf("  [+] %s\n", u)
		}
	}

	if len(removed) > 0 {
		fmt.Printf("\nRemoved (%d):\n", len(removed))
		for _, u := range removed {
			fmt.Printf("  [-] %s\n", u)
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		fmt.Println("\nNo URL changes between the two runs.")
	} else {
		fmt.Printf("\nUnchanged: %d URLs\n", len(newEntries)-len(added))
	}

	return nil
}
