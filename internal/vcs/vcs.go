package vcs

import (
	"context"
	"fmt"

	"packmirror/internal/db"
)

// Common adapter error kinds
var (
	// ErrMissingToken means the adapter cannot authenticate against the
	// backend; the update for this package is abandoned.
	ErrMissingToken = fmt.Errorf("missing vcs token")
	// ErrTransient covers network and rate-limit failures; the job
	// should be retried with backoff.
	ErrTransient = fmt.Errorf("transient vcs error")
	// ErrManifestInvalid means the composer manifest at a tag is absent
	// or undecodable; that version is skipped.
	ErrManifestInvalid = fmt.Errorf("invalid composer manifest")
)

// Adapter enumerates tagged versions of one repository and fills
// release metadata from its composer manifest.
type Adapter interface {
	// Versions returns every tag the backend exposes, mapped to its
	// commit sha.
	Versions(ctx context.Context) (map[string]string, error)

	// PopulateRelease fills the manifest fields of a release whose
	// PackageID, Version and SHA are already set, and returns the
	// manifest's require map.
	PopulateRelease(ctx context.Context, release *db.PackageVersion) (map[string]string, error)
}
