package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS processed_content (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	url_key TEXT NOT NULL,
	published_at TEXT,
	source TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_processed_source ON processed_content(source);
CREATE INDEX IF NOT EXISTS idx_processed_url_key ON processed_content(url_key);
`

// SQLiteSource is a file-backed Source for running the pipeline without
// the real persistence collaborator.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the records database at path.
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("records: open %s: %w", path, err)
	}
	if _, err := db.Exec(recordsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("records: init schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSource) Close() error { return s.db.Close() }

// Add stores one processed item. urlKey is the normalized comparison key
// for the record's URL.
func (s *SQLiteSource) Add(ctx context.Context, rec ProcessingRecord, urlKey string) error {
	var published any
	if rec.PublishedAt != nil {
		published = rec.PublishedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_content (title, url, url_key, published_at, source) VALUES (?, ?, ?, ?, ?)`,
		rec.Title, rec.URL, urlKey, published, rec.Source)
	if err != nil {
		return fmt.Errorf("records: insert: %w", err)
	}
	return nil
}

// Candidates returns records matching the source name or the exact URL key.
func (s *SQLiteSource) Candidates(ctx context.Context, sourceName, urlKey string) ([]ProcessingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, url, published_at, source FROM processed_content
		 WHERE source = ? OR url_key = ? ORDER BY id DESC LIMIT 50`,
		sourceName, urlKey)
	if err != nil {
		return nil, fmt.Errorf("records: query candidates: %w", err)
	}
	defer rows.Close()

	var out []ProcessingRecord
	for rows.Next() {
		var rec ProcessingRecord
		var published sql.NullString
		if err := rows.Scan(&rec.Title, &rec.URL, &published, &rec.Source); err != nil {
			return nil, fmt.Errorf("records: scan: %w", err)
		}
		if published.Valid {
			if t, err := time.Parse(time.RFC3339, published.String); err == nil {
				rec.PublishedAt = &t
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
