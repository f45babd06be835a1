package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Posting is a job opportunity, shared across users and deduplicated by its
// canonical apply URL. Postings are never updated in place: re-ingesting an
// URL already present leaves the stored row untouched.
type Posting struct {
	ID          int64
	Title       string
	Company     string
	Description string
	Location    string
	Source      string
	ApplyURL    string
	PostedAt    time.Time
}

// UpsertPosting finds or creates a posting by apply URL. The UNIQUE index on
// apply_url makes the insert a no-op for known URLs, so a concurrent creator
// can never produce a duplicate.
func (d *DB) UpsertPosting(ctx context.Context, p Posting) (Posting, bool, error) {
	if p.Location == "" {
		p.Location = "Remote"
	}
	if p.Source == "" {
		p.Source = "Manual"
	}
	if p.PostedAt.IsZero() {
		p.PostedAt = time.Now().UTC()
	}

	res, err := d.pool.ExecContext(ctx,
		`INSERT OR IGNORE INTO postings (title, company, description, location, apply_url, source, posted_at)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
		p.Title, p.Company, p.Description, p.Location, p.ApplyURL, p.Source,
		p.PostedAt.Format(time.RFC3339))
	if err != nil {
		return Posting{}, false, fmt.Errorf("insert posting: %w", err)
	}

	changes, err := res.RowsAffected()
	if err != nil {
		return Posting{}, false, err
	}

	stored, err := d.FindPostingByURL(ctx, p.ApplyURL)
	if err != nil {
		return Posting{}, false, err
	}

	return *stored, changes > 0, nil
}

func (d *DB) FindPostingByURL(ctx context.Context, applyURL string) (*Posting, error) {
	return d.queryPosting(ctx,
		`SELECT id, title, company, description, location, apply_url, source, posted_at
FROM postings WHERE apply_url = ?;`, applyURL)
}

func (d *DB) GetPosting(ctx context.Context, id int64) (*Posting, error) {
	return d.queryPosting(ctx,
		`SELECT id, title, company, description, location, apply_url, source, posted_at
FROM postings WHERE id = ?;`, id)
}

// ListPostings returns all postings, newest first.
func (d *DB) ListPostings(ctx context.Context) ([]Posting, error) {
	rows, err := d.pool.QueryContext(ctx,
		`SELECT id, title, company, description, location, apply_url, source, posted_at
FROM postings ORDER BY posted_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var postings []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (d *DB) queryPosting(ctx context.Context, query string, args ...any) (*Posting, error) {
	row := d.pool.QueryRowContext(ctx, query, args...)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query posting: %w", err)
	}
	return &p, nil
}

func scanPosting(row rowScanner) (Posting, error) {
	var (
		p        Posting
		postedAt string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Company, &p.Description, &p.Location,
		&p.ApplyURL, &p.Source, &postedAt); err != nil {
		return Posting{}, err
	}
	p.PostedAt, _ = time.Parse(time.RFC3339, postedAt)
	return p, nil
}
