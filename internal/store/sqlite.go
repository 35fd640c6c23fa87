package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/seqferry/internal/logging"
	"github.com/me/seqferry/internal/record"

	_ "modernc.org/sqlite"
)

// schema contains the DDL for the cache table. IF NOT EXISTS keeps the
// migration idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS run_records (
		run_accession    TEXT PRIMARY KEY,
		sample_accession TEXT NOT NULL,
		library_layout   TEXT NOT NULL,
		fastq_urls       TEXT NOT NULL,
		fetched_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_records_sample ON run_records(sample_accession)`,
}

// SQLiteCache implements RecordCache using SQLite.
type SQLiteCache struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteCache opens (or creates) a SQLite database at dbPath. Use
// ":memory:" for an in-memory cache (useful in tests).
func NewSQLiteCache(dbPath string, logger *slog.Logger) (*SQLiteCache, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteCache{
		db:     db,
		logger: logger.With("component", "record-cache"),
	}, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Migrate creates the cache table if missing.
func (c *SQLiteCache) Migrate(ctx context.Context) error {
	c.logger.Debug("sql", "op", "migrate")
	for _, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Get returns the cached record for a run accession, or a miss.
func (c *SQLiteCache) Get(ctx context.Context, runAccession string) (*record.RunRecord, bool, error) {
	c.logger.Debug("sql", "op", "select", "run", runAccession)

	row := c.db.QueryRowContext(ctx,
		`SELECT run_accession, sample_accession, library_layout, fastq_urls
		 FROM run_records WHERE run_accession = ?`, runAccession)

	var rec record.RunRecord
	var urlsJSON string
	err := row.Scan(&rec.RunAccession, &rec.SampleAccession, &rec.LibraryLayout, &urlsJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select run record: %w", err)
	}

	if err := json.Unmarshal([]byte(urlsJSON), &rec.FastqURLs); err != nil {
		return nil, false, fmt.Errorf("unmarshal fastq urls: %w", err)
	}
	return &rec, true, nil
}

// Put stores or replaces the record for its run accession.
func (c *SQLiteCache) Put(ctx context.Context, rec record.RunRecord) error {
	c.logger.Debug("sql", "op", "upsert", "run", rec.RunAccession)

	urlsJSON, err := json.Marshal(rec.FastqURLs)
	if err != nil {
		return fmt.Errorf("marshal fastq urls: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO run_records (run_accession, sample_accession, library_layout, fastq_urls, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_accession) DO UPDATE SET
			sample_accession = excluded.sample_accession,
			library_layout   = excluded.library_layout,
			fastq_urls       = excluded.fastq_urls,
			fetched_at       = excluded.fetched_at`,
		rec.RunAccession, rec.SampleAccession, string(rec.LibraryLayout), string(urlsJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert run record: %w", err)
	}
	return nil
}
