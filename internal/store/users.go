package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// User is the minimal identity the scheduler loop needs. Authentication and
// session handling live outside this module.
type User struct {
	ID    int64
	Name  string
	Email string
}

func (d *DB) CreateUser(ctx context.Context, name, email string) (User, error) {
	res, err := d.pool.ExecContext(ctx,
		`INSERT INTO users (name, email) VALUES (?, ?);`, name, email)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Name: name, Email: email}, nil
}

func (d *DB) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := d.pool.QueryRowContext(ctx,
		`SELECT id, name, email FROM users WHERE id = ?;`, id).
		Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (d *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := d.pool.QueryContext(ctx, `SELECT id, name, email FROM users ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
