// Package store is the storage layer: a SQLite database holding every
// entity, the FTS5 text index over job title+description, the counter
// sequences that mint entity ids, and the location tree.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle. All methods are safe for concurrent use;
// writes serialize on the single connection.
type Store struct {
	db *sql.DB

	locations locationIndexState
}

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS counters (
			name TEXT PRIMARY KEY,
			seq  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS companies (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id INTEGER NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			country     TEXT NOT NULL DEFAULT '',
			state       TEXT NOT NULL DEFAULT '',
			city        TEXT NOT NULL DEFAULT '',
			address     TEXT NOT NULL DEFAULT '',
			url         TEXT NOT NULL DEFAULT '',
			size_min    INTEGER,
			size_max    INTEGER,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id            INTEGER NOT NULL UNIQUE,
			title             TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			min_salary        REAL,
			max_salary        REAL,
			pay_period        TEXT NOT NULL DEFAULT '',
			currency          TEXT NOT NULL DEFAULT '',
			listed_time       INTEGER,
			work_type         TEXT NOT NULL DEFAULT '',
			work_location_type TEXT NOT NULL DEFAULT '',
			normalized_salary REAL,
			city              TEXT NOT NULL DEFAULT '',
			state             TEXT NOT NULL DEFAULT '',
			country           TEXT NOT NULL DEFAULT '',
			company_id        INTEGER NOT NULL,
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_listed ON jobs(listed_time)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS jobs_fts USING fts5(
			title, description,
			content='jobs', content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS jobs_fts_ai AFTER INSERT ON jobs BEGIN
			INSERT INTO jobs_fts(rowid, title, description) VALUES (new.id, new.title, new.description);
		END`,
		`CREATE TRIGGER IF NOT EXISTS jobs_fts_ad AFTER DELETE ON jobs BEGIN
			INSERT INTO jobs_fts(jobs_fts, rowid, title, description) VALUES ('delete', old.id, old.title, old.description);
		END`,
		`CREATE TRIGGER IF NOT EXISTS jobs_fts_au AFTER UPDATE ON jobs BEGIN
			INSERT INTO jobs_fts(jobs_fts, rowid, title, description) VALUES ('delete', old.id, old.title, old.description);
			INSERT INTO jobs_fts(rowid, title, description) VALUES (new.id, new.title, new.description);
		END`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			candidate_id INTEGER NOT NULL UNIQUE,
			full_name    TEXT NOT NULL,
			email        TEXT NOT NULL,
			phone        TEXT NOT NULL DEFAULT '',
			linkedin_url TEXT NOT NULL DEFAULT '',
			country      TEXT NOT NULL DEFAULT '',
			state        TEXT NOT NULL DEFAULT '',
			city         TEXT NOT NULL DEFAULT '',
			headline     TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			application_id INTEGER NOT NULL UNIQUE,
			job_id         INTEGER NOT NULL,
			candidate_id   INTEGER NOT NULL,
			company_id     INTEGER NOT NULL,
			status         TEXT NOT NULL DEFAULT 'APPLIED',
			applied_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL,
			UNIQUE(candidate_id, job_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_company ON applications(company_id)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			favorite_id INTEGER NOT NULL UNIQUE,
			candidate_id INTEGER NOT NULL,
			job_id       INTEGER NOT NULL,
			created_at   TEXT NOT NULL,
			UNIQUE(candidate_id, job_id)
		)`,
		`CREATE TABLE IF NOT EXISTS featured_companies (
			company_id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS locations (
			country TEXT PRIMARY KEY,
			tree    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id       INTEGER NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			company_id    INTEGER,
			candidate_id  INTEGER,
			created_at    TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// nowRFC3339 is the canonical timestamp format for created_at/updated_at;
// RFC3339 UTC sorts lexicographically.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseRFC3339(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// execContext is a small helper that wraps errors with a stable prefix.
func (s *Store) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
