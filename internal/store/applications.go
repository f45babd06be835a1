package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Application statuses.
const (
	StatusApplied   = "Applied"
	StatusInterview = "Interview"
	StatusRejected  = "Rejected"
	StatusOffer     = "Offer"
	StatusPending   = "Pending"
)

// Verification step outcomes.
const (
	StepOK   = "OK"
	StepWarn = "WARN"
	StepFail = "FAIL"
)

// VerificationStep is one entry of an application's audit log.
type VerificationStep struct {
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusChange is one entry of an application's status history.
type StatusChange struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Application records a user's decision or automated action for one posting.
// At most one application exists per (user, posting); the verification log
// and history are append-only.
type Application struct {
	ID              int64
	UserID          int64
	PostingID       int64
	Status          string
	MatchScore      int
	Notes           string
	TrackingID      string
	VerificationLog []VerificationStep
	History         []StatusChange
	CreatedAt       time.Time
}

// ApplicationWithPosting joins an application with its posting for reports.
type ApplicationWithPosting struct {
	Application
	PostingTitle   string
	PostingCompany string
}

// CreateApplication inserts the record, relying on the UNIQUE(user_id,
// posting_id) index as the backstop against concurrent duplicates. A rejected
// insert returns ErrDuplicateApplication.
func (d *DB) CreateApplication(ctx context.Context, app *Application) error {
	logJSON, err := json.Marshal(app.VerificationLog)
	if err != nil {
		return fmt.Errorf("marshal verification log: %w", err)
	}
	historyJSON, err := json.Marshal(app.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	if app.Status == "" {
		app.Status = StatusApplied
	}

	res, err := d.pool.ExecContext(ctx,
		`INSERT OR IGNORE INTO applications
(user_id, posting_id, status, match_score, notes, tracking_id, verification_log, history, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		app.UserID, app.PostingID, app.Status, app.MatchScore, app.Notes,
		app.TrackingID, string(logJSON), string(historyJSON),
		app.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	changes, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if changes == 0 {
		return ErrDuplicateApplication
	}

	app.ID, err = res.LastInsertId()
	return err
}

// HasApplication reports whether a record already exists for the pair. It is
// an optimization in front of the UNIQUE backstop, not the guarantee itself.
func (d *DB) HasApplication(ctx context.Context, userID, postingID int64) (bool, error) {
	var one int
	err := d.pool.QueryRowContext(ctx,
		`SELECT 1 FROM applications WHERE user_id = ? AND posting_id = ? LIMIT 1;`,
		userID, postingID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check application: %w", err)
	}
	return true, nil
}

// UpdateApplicationStatus changes the status and appends to the history.
func (d *DB) UpdateApplicationStatus(ctx context.Context, id int64, status string) error {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var historyJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT history FROM applications WHERE id = ?;`, id).Scan(&historyJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load application history: %w", err)
	}

	var history []StatusChange
	if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
		return fmt.Errorf("unmarshal history: %w", err)
	}
	history = append(history, StatusChange{Status: status, Timestamp: time.Now().UTC()})

	updated, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE applications SET status = ?, history = ? WHERE id = ?;`,
		status, string(updated), id); err != nil {
		return fmt.Errorf("update application: %w", err)
	}

	return tx.Commit()
}

// ListApplicationsBetween returns the user's applications created inside the
// half-open range [from, to), newest first, joined with their postings.
func (d *DB) ListApplicationsBetween(ctx context.Context, userID int64, from, to time.Time) ([]ApplicationWithPosting, error) {
	rows, err := d.pool.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.posting_id, a.status, a.match_score, a.notes,
       a.tracking_id, a.verification_log, a.history, a.created_at,
       p.title, p.company
FROM applications a
JOIN postings p ON p.id = a.posting_id
WHERE a.user_id = ? AND a.created_at >= ? AND a.created_at < ?
ORDER BY a.created_at DESC, a.id DESC;`,
		userID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []ApplicationWithPosting
	for rows.Next() {
		var (
			item        ApplicationWithPosting
			logJSON     string
			historyJSON string
			createdAt   string
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.PostingID, &item.Status,
			&item.MatchScore, &item.Notes, &item.TrackingID, &logJSON, &historyJSON,
			&createdAt, &item.PostingTitle, &item.PostingCompany); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(logJSON), &item.VerificationLog); err != nil {
			return nil, fmt.Errorf("unmarshal verification log: %w", err)
		}
		if err := json.Unmarshal([]byte(historyJSON), &item.History); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
		item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, item)
	}
	return out, rows.Err()
}

// PurgeApplications removes every application the user has tracked.
func (d *DB) PurgeApplications(ctx context.Context, userID int64) (int64, error) {
	res, err := d.pool.ExecContext(ctx,
		`DELETE FROM applications WHERE user_id = ?;`, userID)
	if err != nil {
		return 0, fmt.Errorf("purge applications: %w", err)
	}
	return res.RowsAffected()
}
