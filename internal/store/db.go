package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateApplication is returned when the (user, posting)
	// uniqueness backstop rejects a second application record.
	ErrDuplicateApplication = errors.New("application already exists for user and posting")
)

// DB wraps the sqlite handle shared by all stores.
type DB struct {
	pool *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and runs
// migrations.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite wants a single writer
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	db := &DB{pool: pool}
	if err := db.migrate(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func (d *DB) Close() error {
	if d == nil || d.pool == nil {
		return nil
	}
	return d.pool.Close()
}

func (d *DB) migrate() error {
	tx, err := d.pool.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT ''
);`,
		`CREATE TABLE IF NOT EXISTS profiles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  file_name TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '{}',
  active INTEGER NOT NULL DEFAULT 1,
  uploaded_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_user_active
ON profiles(user_id, active);`,
		`CREATE TABLE IF NOT EXISTS postings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT 'Remote',
  apply_url TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT 'Manual',
  posted_at TEXT NOT NULL
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_apply_url
ON postings(apply_url);`,
		`CREATE TABLE IF NOT EXISTS applications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  posting_id INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'Applied',
  match_score INTEGER NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  tracking_id TEXT NOT NULL,
  verification_log TEXT NOT NULL DEFAULT '[]',
  history TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_user_posting
ON applications(user_id, posting_id);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_tracking_id
ON applications(tracking_id);`,
		`PRAGMA user_version = 1;`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
