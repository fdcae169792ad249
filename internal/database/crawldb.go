package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/filesph/sitemapgen/internal/model"
)

// dbFileName is the SQLite database file created inside the data dir.
const dbFileName = "sitemapgen.db"

// CrawlDB provides SQLite-based storage for sitemap generation runs.
// It manages connection pooling and provides methods for saving runs
// and listing history.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned; the history command uses this to avoid creating an
// empty database just to report no runs.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite DSN: mode=rw prevents creating new files,
	// mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; readers benefit from WAL.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per sitemap generation run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		origin TEXT NOT NULL,
		started DATETIME NOT NULL,
		finished DATETIME NOT NULL,
		entry_count INTEGER NOT NULL,
		failure_count INTEGER NOT NULL,
		shard_count INTEGER NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		interrupted INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_origin ON runs(origin);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);

	-- Per-URL records produced by a run
	CREATE TABLE IF NOT EXISTS run_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		last_modified DATETIME,
		priority REAL NOT NULL,
		change_freq TEXT NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_run_pages_run ON run_pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_pages_url ON run_pages(url);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun persists a completed run and all of its page records in one
// transaction. Returns the new run's database ID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (seed, origin, started, finished, entry_count, failure_count, shard_count, dry_run, interrupted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Seed,
		report.Origin,
		report.Started.UTC().Format(time.RFC3339),
		report.Finished.UTC().Format(time.RFC3339),
		len(report.Entries),
		len(report.Failures),
		len(report.ShardFiles),
		boolToInt(report.DryRun),
		boolToInt(report.Interrupted),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_pages (run_id, url, last_modified, priority, change_freq)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for url, rec := range report.Entries {
		var lastMod any
		if rec.HasLastModified() {
			lastMod = rec.LastModified.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, runID, url, lastMod, rec.Priority, rec.ChangeFreq.String()); err != nil {
			return 0, fmt.Errorf("failed to insert page record for %s: %w", url, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunSummary contains one run's metadata without its page records.
// Used by the history command.
type RunSummary struct {
	// ID is the run's database identifier.
	ID int64

	// Seed is the URL the crawl started from.
	Seed string

	// Origin is the crawl's admission boundary.
	Origin string

	// Started and Finished bound the run's wall-clock duration.
	Started  time.Time
	Finished time.Time

	// EntryCount is the number of URLs in the generated sitemap.
	EntryCount int

	// FailureCount is the number of URLs that could not be fetched.
	FailureCount int

	// ShardCount is the number of sitemap files written.
	ShardCount int

	// DryRun and Interrupted record how the run ended.
	DryRun      bool
	Interrupted bool
}

// ListRuns returns the most recent runs, newest first, up to limit.
// A non-positive limit returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, seed, origin, started, finished, entry_count, failure_count, shard_count, dry_run, interrupted
	FROM runs
	ORDER BY started DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var run RunSummary
		var started, finished string
		var dryRun, interrupted int

		err := rows.Scan(
			&run.ID,
			&run.Seed,
			&run.Origin,
			&started,
			&finished,
			&run.EntryCount,
			&run.FailureCount,
			&run.ShardCount,
			&dryRun,
			&interrupted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Started = parseTimestamp(started)
		run.Finished = parseTimestamp(finished)
		run.DryRun = dryRun != 0
		run.Interrupted = interrupted != 0
		results = append(results, run)
	}

	return results, rows.Err()
}

// GetRunEntries retrieves the page records of one run as the crawl's
// URL → record mapping.
func (cdb *CrawlDB) GetRunEntries(ctx context.Context, runID int64) (map[string]model.PageRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, last_modified, priority, change_freq
	FROM run_pages
	WHERE run_id = ?
	ORDER BY url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run pages: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]model.PageRecord)
	for rows.Next() {
		var url, changeFreq string
		var lastMod sql.NullString
		var priority float64

		if err := rows.Scan(&url, &lastMod, &priority, &changeFreq); err != nil {
			return nil, fmt.Errorf("failed to scan page record: %w", err)
		}

		rec := model.PageRecord{
			Priority:   priority,
			ChangeFreq: model.ChangeFreq(changeFreq),
		}
		if lastMod.Valid && lastMod.String != "" {
			rec.LastModified = parseTimestamp(lastMod.String)
		}
		entries[url] = rec
	}

	return entries, rows.Err()
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. Returns zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
