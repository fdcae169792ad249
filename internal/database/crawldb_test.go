package database

import (
	"context"
	"testing"
	"time"

	"github.com/filesph/sitemapgen/internal/model"
)

// sampleReport builds a finished run report for persistence tests.
func sampleReport() *model.RunReport {
	rep := model.NewRunReport("https://filesph.com", "https://filesph.com")
	rep.Started = time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	rep.Finished = time.Date(2026, 8, 25, 10, 5, 0, 0, time.UTC)
	rep.Entries = map[string]model.PageRecord{
		"https://filesph.com/": {
			LastModified: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Priority:     1.0,
			ChangeFreq:   model.ChangeFreqDaily,
		},
		"https://filesph.com/about": {
			Priority:   0.5,
			ChangeFreq: model.ChangeFreqMonthly,
		},
	}
	rep.Failures = []model.FetchFailure{
		{URL: "https://filesph.com/broken", Reason: "connection refused"},
	}
	rep.ShardFiles = []string{"public/sitemap.xml"}
	return rep
}

// TestOpen tests database creation semantics.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database when allowed", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()
	})

	t.Run("refuses to create when disallowed", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := db.SaveRun(context.Background(), sampleReport()); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		reopened, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer reopened.Close()

		runs, err := reopened.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("expected 1 run after reopen, got %d", len(runs))
		}
	})
}

// TestSaveRunAndListRuns tests the save/list round trip.
func TestSaveRunAndListRuns(t *testing.T) {
	t.Parallel()

	t.Run("round trips run metadata", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		runID, err := db.SaveRun(context.Background(), sampleReport())
		if err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if runID <= 0 {
			t.Errorf("expected positive run id, got %d", runID)
		}

		runs, err := db.ListRuns(context.Background(), 10)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}

		run := runs[0]
		if run.ID != runID {
			t.Errorf("expected id %d, got %d", runID, run.ID)
		}
		if run.Seed != "https://filesph.com" {
			t.Errorf("unexpected seed %q", run.Seed)
		}
		if run.Origin != "https://filesph.com" {
			t.Errorf("unexpected origin %q", run.Origin)
		}
		if run.EntryCount != 2 {
			t.Errorf("expected 2 entries, got %d", run.EntryCount)
		}
		if run.FailureCount != 1 {
			t.Errorf("expected 1 failure, got %d", run.FailureCount)
		}
		if run.ShardCount != 1 {
			t.Errorf("expected 1 shard, got %d", run.ShardCount)
		}
		if run.DryRun || run.Interrupted {
			t.Error("expected clean run flags")
		}
		if !run.Started.Equal(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected started time %v", run.Started)
		}
	})

	t.Run("records dry run and interrupted flags", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		rep := sampleReport()
		rep.DryRun = true
		rep.Interrupted = true
		if _, err := db.SaveRun(context.Background(), rep); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		runs, err := db.ListRuns(context.Background(), 1)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if !runs[0].DryRun || !runs[0].Interrupted {
			t.Errorf("expected both flags set, got dryRun=%v interrupted=%v", runs[0].DryRun, runs[0].Interrupted)
		}
	})

	t.Run("newest first with limit", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		for i := 0; i < 3; i++ {
			rep := sampleReport()
			rep.Started = rep.Started.Add(time.Duration(i) * time.Hour)
			if _, err := db.SaveRun(context.Background(), rep); err != nil {
				t.Fatalf("failed to save run %d: %v", i, err)
			}
		}

		runs, err := db.ListRuns(context.Background(), 2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if !runs[0].Started.After(runs[1].Started) {
			t.Errorf("expected newest first, got %v then %v", runs[0].Started, runs[1].Started)
		}
	})

	t.Run("empty database lists nothing", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), 10)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no runs, got %d", len(runs))
		}
	})
}

// TestGetRunEntries tests page record retrieval.
func TestGetRunEntries(t *testing.T) {
	t.Parallel()

	t.Run("round trips page records", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		runID, err := db.SaveRun(context.Background(), sampleReport())
		if err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		entries, err := db.GetRunEntries(context.Background(), runID)
		if err != nil {
			t.Fatalf("failed to get entries: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}

		home, ok := entries["https://filesph.com/"]
		if !ok {
			t.Fatal("expected homepage entry")
		}
		if home.Priority != 1.0 || home.ChangeFreq != model.ChangeFreqDaily {
			t.Errorf("unexpected homepage record %+v", home)
		}
		if !home.LastModified.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected lastmod %v", home.LastModified)
		}

		about := entries["https://filesph.com/about"]
		if about.HasLastModified() {
			t.Errorf("expected no lastmod, got %v", about.LastModified)
		}
	})

	t.Run("unknown run id yields empty map", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		entries, err := db.GetRunEntries(context.Background(), 999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty map, got %d entries", len(entries))
		}
	})
}

// TestParseTimestamp tests timestamp format fallback.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", "2026-08-25T10:00:00Z", time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)},
		{"sqlite datetime", "2026-08-25 10:00:00", time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)},
		{"garbage", "not a time", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
