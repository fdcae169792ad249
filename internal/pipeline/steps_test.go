package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/filesph/sitemapgen/internal/fetcher"
	"github.com/filesph/sitemapgen/internal/model"
	"github.com/filesph/sitemapgen/internal/report"
	"github.com/filesph/sitemapgen/internal/sitemap"
)

// mapFetcher serves pages from an in-memory map keyed by canonical URL.
type mapFetcher struct {
	pages map[string]string
}

func (f *mapFetcher) Fetch(_ context.Context, rawURL string) (*fetcher.Result, error) {
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return &fetcher.Result{
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte(body),
	}, nil
}

// TestCrawlStep tests the crawl pipeline step end to end against an
// in-memory site.
func TestCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("fills report entries and failures", func(t *testing.T) {
		t.Parallel()

		fetch := &mapFetcher{pages: map[string]string{
			"https://example.com/": `<html><body>
				<a href="/about">About</a>
				<a href="/missing">Missing</a>
			</body></html>`,
			"https://example.com/about": `<html><body><a href="/">Home</a></body></html>`,
		}}

		step := NewCrawlStep(fetch, WithCrawlDelay(0))
		rep := model.NewRunReport("https://example.com", "https://example.com")

		if err := step.Do(context.Background(), rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rep.EntryCount() != 2 {
			t.Errorf("expected 2 entries, got %d", rep.EntryCount())
		}
		if _, ok := rep.Entries["https://example.com/"]; !ok {
			t.Error("expected seed under its canonical url in entries")
		}
		if _, ok := rep.Entries["https://example.com"]; ok {
			t.Error("entries must be keyed by canonical urls only")
		}
		if _, ok := rep.Entries["https://example.com/about"]; !ok {
			t.Error("expected /about in entries")
		}
		if len(rep.Failures) != 1 {
			t.Fatalf("expected 1 failure, got %d", len(rep.Failures))
		}
		if rep.Failures[0].URL != "https://example.com/missing" {
			t.Errorf("unexpected failure URL: %s", rep.Failures[0].URL)
		}
		if rep.Finished.IsZero() {
			t.Error("expected finished timestamp to be set")
		}
	})

	t.Run("cancelled crawl without write-partial returns error", func(t *testing.T) {
		t.Parallel()

		fetch := &mapFetcher{pages: map[string]string{
			"https://example.com/": "<html></html>",
		}}

		step := NewCrawlStep(fetch, WithCrawlDelay(0))
		rep := model.NewRunReport("https://example.com", "https://example.com")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := step.Do(ctx, rep)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !rep.Interrupted {
			t.Error("expected report marked interrupted")
		}
	})

	t.Run("cancelled crawl with write-partial continues", func(t *testing.T) {
		t.Parallel()

		fetch := &mapFetcher{pages: map[string]string{
			"https://example.com/": "<html></html>",
		}}

		step := NewCrawlStep(fetch, WithCrawlDelay(0), WithCrawlWritePartial(true))
		rep := model.NewRunReport("https://example.com", "https://example.com")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := step.Do(ctx, rep); err != nil {
			t.Fatalf("expected nil error with write-partial, got %v", err)
		}
		if !rep.Interrupted {
			t.Error("expected report marked interrupted")
		}
	})
}

// TestAssembleStep tests the assemble pipeline step.
func TestAssembleStep(t *testing.T) {
	t.Parallel()

	t.Run("writes single sitemap and records it", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		output := filepath.Join(tmpDir, "sitemap.xml")

		rep := model.NewRunReport("https://example.com", "https://example.com")
		rep.Entries = map[string]model.PageRecord{
			"https://example.com":       {Priority: 1.0, ChangeFreq: model.ChangeFreqDaily},
			"https://example.com/about": {Priority: 0.5, ChangeFreq: model.ChangeFreqMonthly},
		}

		step := NewAssembleStep(output)
		if err := step.Do(context.Background(), rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(rep.ShardFiles) != 1 || rep.ShardFiles[0] != output {
			t.Errorf("expected shard files [%s], got %v", output, rep.ShardFiles)
		}
		if rep.IndexFile != "" {
			t.Errorf("expected no index file, got %s", rep.IndexFile)
		}
		if _, err := os.Stat(output); err != nil {
			t.Errorf("expected sitemap file on disk: %v", err)
		}
	})

	t.Run("shards over the per-file cap", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		output := filepath.Join(tmpDir, "sitemap.xml")

		rep := model.NewRunReport("https://example.com", "https://example.com")
		rep.Entries = map[string]model.PageRecord{
			"https://example.com/a": {Priority: 0.5, ChangeFreq: model.ChangeFreqMonthly},
			"https://example.com/b": {Priority: 0.5, ChangeFreq: model.ChangeFreqMonthly},
			"https://example.com/c": {Priority: 0.5, ChangeFreq: model.ChangeFreqMonthly},
		}

		step := NewAssembleStep(output, WithAssembleMaxPerFile(2))
		if err := step.Do(context.Background(), rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(rep.ShardFiles) != 2 {
			t.Errorf("expected 2 shard files, got %v", rep.ShardFiles)
		}
		if rep.IndexFile != output {
			t.Errorf("expected index at %s, got %s", output, rep.IndexFile)
		}
	})

	t.Run("dry run records paths without writing", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		output := filepath.Join(tmpDir, "sitemap.xml")

		rep := model.NewRunReport("https://example.com", "https://example.com")
		rep.Entries = map[string]model.PageRecord{
			"https://example.com": {Priority: 1.0, ChangeFreq: model.ChangeFreqDaily},
		}

		step := NewAssembleStep(output, WithAssembleDryRun(true))
		if err := step.Do(context.Background(), rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !rep.DryRun {
			t.Error("expected report marked dry run")
		}
		if len(rep.ShardFiles) != 1 {
			t.Errorf("expected predicted shard files, got %v", rep.ShardFiles)
		}
		if _, err := os.Stat(output); !os.IsNotExist(err) {
			t.Error("expected no file written in dry run")
		}
	})

	t.Run("empty report returns ErrNoEntries", func(t *testing.T) {
		t.Parallel()

		rep := model.NewRunReport("https://example.com", "https://example.com")
		step := NewAssembleStep(filepath.Join(t.TempDir(), "sitemap.xml"))

		err := step.Do(context.Background(), rep)
		if !errors.Is(err, sitemap.ErrNoEntries) {
			t.Fatalf("expected ErrNoEntries, got %v", err)
		}
	})
}

// TestPersistStep tests the persist pipeline step.
func TestPersistStep(t *testing.T) {
	t.Parallel()

	t.Run("saves run to fresh database", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()

		rep := model.NewRunReport("https://example.com", "https://example.com")
		rep.Entries = map[string]model.PageRecord{
			"https://example.com": {Priority: 1.0, ChangeFreq: model.ChangeFreqDaily},
		}

		step := NewPersistStep(tmpDir)
		if err := step.Do(context.Background(), rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(filepath.Join(tmpDir, "sitemapgen.db")); err != nil {
			t.Errorf("expected database file: %v", err)
		}
	})

	t.Run("unusable directory is non-fatal", func(t *testing.T) {
		t.Parallel()

		// A regular file where the directory should be makes Open fail.
		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatalf("failed to create blocker file: %v", err)
		}

		rep := model.NewRunReport("https://example.com", "https://example.com")
		step := NewPersistStep(filepath.Join(blocker, "db"))

		if err := step.Do(context.Background(), rep); err != nil {
			t.Fatalf("expected persist failure to be swallowed, got %v", err)
		}
	})
}

// TestReportStep tests the report pipeline step.
func TestReportStep(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	step := NewReportStep(report.NewSimpleWriter(&buf))

	rep := model.NewRunReport("https://example.com", "https://example.com")
	rep.Entries = map[string]model.PageRecord{
		"https://example.com": {Priority: 1.0, ChangeFreq: model.ChangeFreqDaily},
	}

	if err := step.Do(context.Background(), rep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected summary output")
	}
}

// TestBatchProcessor tests concurrent multi-seed processing.
func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("processes all seeds and keeps order", func(t *testing.T) {
		t.Parallel()

		fetch := &mapFetcher{pages: map[string]string{
			"https://a.example/": "<html></html>",
			"https://b.example/": "<html></html>",
		}}

		factory := func(_ string) *Pipeline {
			p := New()
			p.AddStep(NewCrawlStep(fetch, WithCrawlDelay(0)))
			return p
		}

		bp := NewBatchProcessor(factory, WithConcurrency(2))
		seeds := []string{"https://a.example", "https://b.example"}

		reports, err := bp.ProcessBatch(context.Background(), seeds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(reports) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(reports))
		}
		for i, seed := range seeds {
			if reports[i] == nil {
				t.Fatalf("report %d is nil", i)
			}
			if reports[i].Seed != seed {
				t.Errorf("report %d: expected seed %q, got %q", i, seed, reports[i].Seed)
			}
			if reports[i].EntryCount() != 1 {
				t.Errorf("report %d: expected 1 entry, got %d", i, reports[i].EntryCount())
			}
		}
	})

	t.Run("failed seed does not abort batch", func(t *testing.T) {
		t.Parallel()

		factory := func(_ string) *Pipeline {
			p := New()
			p.AddStep(&recordingStep{name: "failing", err: errors.New("run failed")})
			return p
		}

		bp := NewBatchProcessor(factory)
		reports, err := bp.ProcessBatch(context.Background(), []string{"https://a.example", "https://b.example"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(reports))
		}
	})

	t.Run("callback receives every result", func(t *testing.T) {
		t.Parallel()

		fetch := &mapFetcher{pages: map[string]string{
			"https://a.example/": "<html></html>",
		}}

		factory := func(_ string) *Pipeline {
			p := New()
			p.AddStep(NewCrawlStep(fetch, WithCrawlDelay(0)))
			return p
		}

		var muCh sync.Mutex
		seen := make(map[int]bool)
		callback := func(_ *model.RunReport, index int) {
			muCh.Lock()
			seen[index] = true
			muCh.Unlock()
		}

		bp := NewBatchProcessor(factory)
		err := bp.ProcessBatchWithCallback(context.Background(), []string{"https://a.example"}, callback)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !seen[0] {
			t.Error("expected callback for seed 0")
		}
	})
}
