package db

import (
	"context"
)

// GetUserByUsername retrieves an operator account by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := db.GetContext(ctx, &user, `
        SELECT id, username, password_hash, created_at
        FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

// CreateUser inserts an operator account with a pre-hashed password.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	var user User
	err := db.GetContext(ctx, &user, `
        INSERT INTO users (username, password_hash)
        VALUES ($1, $2)
        RETURNING id, username, password_hash, created_at`,
		username, passwordHash)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}
