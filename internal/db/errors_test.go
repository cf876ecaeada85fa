package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestWrapErr(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows becomes not found", sql.ErrNoRows, ErrNotFound},
		{"unique violation becomes conflict", &pq.Error{Code: "23505", Constraint: "packages_name_key"}, ErrConflict},
		{"other pq errors pass through", &pq.Error{Code: "42P01"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapErr(tt.in)
			if tt.want == nil {
				if tt.in == nil && got != nil {
					t.Errorf("wrapErr(nil) = %v", got)
				}
				if tt.in != nil && (errors.Is(got, ErrNotFound) || errors.Is(got, ErrConflict)) {
					t.Errorf("wrapErr(%v) unexpectedly mapped to %v", tt.in, got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("wrapErr(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrapErrKeepsWrappedChain(t *testing.T) {
	inner := fmt.Errorf("query users: %w", sql.ErrNoRows)
	if got := wrapErr(inner); !errors.Is(got, ErrNotFound) {
		t.Errorf("wrapped ErrNoRows not mapped: %v", got)
	}
}
