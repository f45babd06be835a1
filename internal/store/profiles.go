package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobpilot/internal/resume"
)

// Profile is one extracted resume owned by a user. Exactly one profile per
// user is active; uploading a new resume supersedes the previous one without
// deleting it.
type Profile struct {
	ID         int64
	UserID     int64
	FileName   string
	Content    resume.ProfileContent
	Active     bool
	UploadedAt time.Time
}

// SaveProfile stores a freshly extracted profile and deactivates the user's
// previous profiles in the same transaction.
func (d *DB) SaveProfile(ctx context.Context, userID int64, fileName string, content *resume.ProfileContent) (Profile, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return Profile{}, fmt.Errorf("marshal profile content: %w", err)
	}

	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE profiles SET active = 0 WHERE user_id = ?;`, userID); err != nil {
		return Profile{}, fmt.Errorf("deactivate previous profiles: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, file_name, content, active, uploaded_at)
VALUES (?, ?, ?, 1, ?);`,
		userID, fileName, string(payload), now.Format(time.RFC3339))
	if err != nil {
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Profile{}, err
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, err
	}

	return Profile{
		ID:         id,
		UserID:     userID,
		FileName:   fileName,
		Content:    *content,
		Active:     true,
		UploadedAt: now,
	}, nil
}

// ActiveProfile returns the user's active profile. When none is flagged
// active the most recent upload is reactivated and returned, so a user with
// any profile history is never left without a usable one.
func (d *DB) ActiveProfile(ctx context.Context, userID int64) (*Profile, error) {
	profile, err := d.queryProfile(ctx,
		`SELECT id, user_id, file_name, content, active, uploaded_at
FROM profiles WHERE user_id = ? AND active = 1
ORDER BY uploaded_at DESC LIMIT 1;`, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	latest, err := d.queryProfile(ctx,
		`SELECT id, user_id, file_name, content, active, uploaded_at
FROM profiles WHERE user_id = ?
ORDER BY uploaded_at DESC LIMIT 1;`, userID)
	if err != nil {
		return nil, err
	}

	if _, err := d.pool.ExecContext(ctx,
		`UPDATE profiles SET active = 1 WHERE id = ?;`, latest.ID); err != nil {
		return nil, fmt.Errorf("reactivate profile: %w", err)
	}
	latest.Active = true

	return latest, nil
}

func (d *DB) queryProfile(ctx context.Context, query string, args ...any) (*Profile, error) {
	var (
		p          Profile
		payload    string
		active     int
		uploadedAt string
	)

	err := d.pool.QueryRowContext(ctx, query, args...).
		Scan(&p.ID, &p.UserID, &p.FileName, &payload, &active, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &p.Content); err != nil {
		return nil, fmt.Errorf("unmarshal profile content: %w", err)
	}
	p.Active = active != 0
	p.UploadedAt, _ = time.Parse(time.RFC3339, uploadedAt)

	return &p, nil
}
