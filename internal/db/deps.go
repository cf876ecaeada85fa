package db

import (
	"context"

	"packmirror/internal/semver"
)

// DependencyConstraintsOn returns the distinct constraint strings stored
// against a dependency target name, across all packages and versions.
func (db *DB) DependencyConstraintsOn(ctx context.Context, name string) ([]string, error) {
	var constraints []string
	err := db.SelectContext(ctx, &constraints, `
        SELECT DISTINCT constraints FROM package_deps WHERE name = $1`, name)
	return constraints, wrapErr(err)
}

// IsDependencyVersionRequired reports whether any stored dependency edge
// targeting name has a constraint the given version satisfies. This is
// the ingestion gate for unmanaged packages.
func (db *DB) IsDependencyVersionRequired(ctx context.Context, name, version string) (bool, error) {
	constraints, err := db.DependencyConstraintsOn(ctx, name)
	if err != nil {
		return false, err
	}
	for _, c := range constraints {
		if semver.Satisfies(version, c) {
			return true, nil
		}
	}
	return false, nil
}
