package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound signals an absent package or version.
	ErrNotFound = fmt.Errorf("not found")
	// ErrConflict signals a unique-key violation from a concurrent
	// writer; the losing side may retry.
	ErrConflict = fmt.Errorf("store conflict")
)

// wrapErr maps driver errors onto the store's error kinds.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}
