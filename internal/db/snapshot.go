package db

import (
	"context"
	"database/sql"
)

// Snapshot is a mutually consistent read of everything the provider
// dump needs: packages that have a latest version, all their stored
// releases, and the dependency edges grouped by owning version.
type Snapshot struct {
	Packages []Package
	Releases map[int][]PackageVersion // keyed by package id
	Edges    map[int][]DependencyEdge // keyed by version id
}

// LoadSnapshot performs the three reads inside one repeatable-read
// transaction so a concurrent update cannot tear a package's versions
// apart from its edges.
func (db *DB) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	snap := &Snapshot{
		Releases: make(map[int][]PackageVersion),
		Edges:    make(map[int][]DependencyEdge),
	}

	err = tx.SelectContext(ctx, &snap.Packages, `
        SELECT id, name, type, repository, managed, abandoned,
               replacement_package, latest_version, created_at, updated_at
        FROM packages
        WHERE latest_version IS NOT NULL
        ORDER BY name`)
	if err != nil {
		return nil, wrapErr(err)
	}

	var releases []PackageVersion
	err = tx.SelectContext(ctx, &releases, `
        SELECT * FROM package_versions ORDER BY package_id, normalized_version`)
	if err != nil {
		return nil, wrapErr(err)
	}
	for _, r := range releases {
		snap.Releases[r.PackageID] = append(snap.Releases[r.PackageID], r)
	}

	var edges []DependencyEdge
	err = tx.SelectContext(ctx, &edges, `
        SELECT id, package_id, version_id, name, constraints
        FROM package_deps ORDER BY version_id, name`)
	if err != nil {
		return nil, wrapErr(err)
	}
	for _, e := range edges {
		snap.Edges[e.VersionID] = append(snap.Edges[e.VersionID], e)
	}

	return snap, tx.Commit()
}
