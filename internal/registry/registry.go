// Package registry is the read-side query surface consumed by the API
// handlers and the CLI. Writes go through the engine and the queue.
package registry

import (
	"context"
	"fmt"
	"time"

	"packmirror/internal/db"
	"packmirror/internal/semver"
)

// Store is the slice of the database layer the facade consumes.
// *db.DB satisfies it.
type Store interface {
	GetPackage(ctx context.Context, name string) (*db.Package, error)
	PackageExists(ctx context.Context, name string) (bool, error)
	PackageUpdatedWithin(ctx context.Context, name string, window time.Duration) (bool, error)
	AllVersions(ctx context.Context, name string, min semver.Stability, sorted bool) ([]string, error)
	GetRelease(ctx context.Context, name, rawVersion string) (*db.PackageVersion, error)
	GetReleases(ctx context.Context, name string, rawVersions []string) ([]db.PackageVersion, error)
}

// Registry answers read queries from stored state.
type Registry struct {
	store Store
}

// New wires a facade over a store.
func New(store Store) *Registry {
	return &Registry{store: store}
}

// Package returns the stored package record.
func (r *Registry) Package(ctx context.Context, name string) (*db.Package, error) {
	return r.store.GetPackage(ctx, name)
}

// Exists reports whether the package is known.
func (r *Registry) Exists(ctx context.Context, name string) (bool, error) {
	return r.store.PackageExists(ctx, name)
}

// UpdatedWithin reports whether the package reconciled inside the
// window.
func (r *Registry) UpdatedWithin(ctx context.Context, name string, window time.Duration) (bool, error) {
	return r.store.PackageUpdatedWithin(ctx, name, window)
}

// Versions returns the stored versions admitted by the stability
// floor, sorted ascending.
func (r *Registry) Versions(ctx context.Context, name string, min semver.Stability) ([]string, error) {
	return r.store.AllVersions(ctx, name, min, true)
}

// LatestVersion returns the newest stored version admitted by the
// stability floor.
func (r *Registry) LatestVersion(ctx context.Context, name string, min semver.Stability) (string, error) {
	versions, err := r.store.AllVersions(ctx, name, min, true)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("latest of %s at %s: %w", name, min, db.ErrNotFound)
	}
	return versions[len(versions)-1], nil
}

// Releases returns the stored rows for the requested versions; versions
// that are not stored are missing from the result.
func (r *Registry) Releases(ctx context.Context, name string, versions []string) ([]db.PackageVersion, error) {
	return r.store.GetReleases(ctx, name, versions)
}

// Release returns one stored version with its full manifest fields.
func (r *Registry) Release(ctx context.Context, name, version string) (*db.PackageVersion, error) {
	release, err := r.store.GetRelease(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if release == nil {
		return nil, fmt.Errorf("release %s %s: %w", name, version, db.ErrNotFound)
	}
	return release, nil
}
