package store

import (
	"context"
	"database/sql"
	"errors"

	"task-api-v1/api"
)

// CreateUser inserts a new identity and returns the stored record.
func CreateUser(ctx context.Context, email, username, passwordHash string, role api.Role) (*api.User, error) {
	u := api.User{
		Email:    email,
		Username: username,
		Role:     role,
	}
	err := DB.QueryRowContext(ctx,
		`INSERT INTO users (email, username, password_hash, role) VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		email, username, passwordHash, string(role),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = passwordHash
	return &u, nil
}

// GetUserByEmail returns (nil, nil) when no user has that email.
func GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	var u api.User
	var role string
	err := DB.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, role, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = api.Role(role)
	return &u, nil
}

// UserExists reports whether the email or username is already taken.
func UserExists(ctx context.Context, email, username string) (bool, error) {
	var count int
	err := DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = $1 OR username = $2",
		email, username,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUsers returns every user, newest first. Admin surface only.
func ListUsers(ctx context.Context) ([]api.User, error) {
	rows, err := DB.QueryContext(ctx,
		`SELECT id, email, username, role, created_at, updated_at
		 FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []api.User
	for rows.Next() {
		var u api.User
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = api.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}
