package db

import (
	"context"
	"fmt"
)

// WithPackageLock runs fn while holding the session-scoped advisory lock
// for a package name. Two concurrent updates for the same name serialize
// here regardless of which process runs them; updates for different
// names proceed in parallel.
func (db *DB) WithPackageLock(ctx context.Context, name string, fn func() error) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	key := "package:" + name
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("acquire package lock: %w", err)
	}
	defer conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock(hashtext($1))`, key)

	return fn()
}
