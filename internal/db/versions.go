package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"packmirror/internal/semver"
)

// AllVersions returns the raw version strings stored for a package,
// filtered by minimum stability. Ordering is delegated to the semver
// package when sorted is set; otherwise storage order applies.
func (db *DB) AllVersions(ctx context.Context, name string, minStability semver.Stability, sorted bool) ([]string, error) {
	var versions []string
	err := db.SelectContext(ctx, &versions, `
        SELECT pv.version
        FROM package_versions pv
        JOIN packages p ON p.id = pv.package_id
        WHERE p.name = $1`, name)
	if err != nil {
		return nil, wrapErr(err)
	}

	versions = semver.Filter(versions, minStability)
	if sorted {
		semver.Sort(versions)
	}
	return versions, nil
}

// GetRelease looks up one stored version by its normalized form, so
// "v1.0" and "1.0.0" resolve to the same row. Returns nil when the
// release is absent.
func (db *DB) GetRelease(ctx context.Context, name, rawVersion string) (*PackageVersion, error) {
	normalized, err := semver.Normalize(rawVersion)
	if err != nil {
		return nil, fmt.Errorf("release lookup: %w", err)
	}

	var release PackageVersion
	err = db.GetContext(ctx, &release, `
        SELECT pv.*
        FROM package_versions pv
        JOIN packages p ON p.id = pv.package_id
        WHERE p.name = $1 AND pv.normalized_version = $2`, name, normalized)
	if err != nil {
		if wrapErr(err) == ErrNotFound {
			return nil, nil
		}
		return nil, wrapErr(err)
	}
	return &release, nil
}

// GetReleases is the batched form of GetRelease. Versions that are not
// stored are silently missing from the result.
func (db *DB) GetReleases(ctx context.Context, name string, rawVersions []string) ([]PackageVersion, error) {
	if len(rawVersions) == 0 {
		return nil, nil
	}

	normalized := make([]string, 0, len(rawVersions))
	for _, v := range rawVersions {
		n, err := semver.Normalize(v)
		if err != nil {
			continue
		}
		normalized = append(normalized, n)
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
        SELECT pv.*
        FROM package_versions pv
        JOIN packages p ON p.id = pv.package_id
        WHERE p.name = ? AND pv.normalized_version IN (?)`, name, normalized)
	if err != nil {
		return nil, err
	}

	var releases []PackageVersion
	err = db.SelectContext(ctx, &releases, db.Rebind(query), args...)
	return releases, wrapErr(err)
}

// VersionsWithSHAs returns the stored version → (id, sha) map the
// reconciler diffs against the VCS-reported tag set.
func (db *DB) VersionsWithSHAs(ctx context.Context, name string) (map[string]VersionRef, error) {
	var refs []VersionRef
	err := db.SelectContext(ctx, &refs, `
        SELECT pv.id, pv.version, pv.sha
        FROM package_versions pv
        JOIN packages p ON p.id = pv.package_id
        WHERE p.name = $1`, name)
	if err != nil {
		return nil, wrapErr(err)
	}

	out := make(map[string]VersionRef, len(refs))
	for _, ref := range refs {
		out[ref.Version] = ref
	}
	return out, nil
}

// VersionsExist reports whether every constraint is satisfied by at
// least one stored version of the package.
func (db *DB) VersionsExist(ctx context.Context, name string, constraints []string) (bool, error) {
	versions, err := db.AllVersions(ctx, name, semver.StabilityDev, false)
	if err != nil {
		return false, err
	}

	for _, constraint := range constraints {
		satisfied := false
		for _, v := range versions {
			if semver.Satisfies(v, constraint) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false, nil
		}
	}
	return true, nil
}

// ReplaceVersions applies one reconciliation delta in a single
// transaction: drop superseded versions (edges cascade), insert the
// fresh ones, insert their dependency edges. An edge with a negative
// VersionID refers to an insert in this call: -1 is the first insert,
// -2 the second. Inserted ids are written back into the passed structs.
func (db *DB) ReplaceVersions(ctx context.Context, packageID int, deleteIDs []int, inserts []*PackageVersion, edges []*DependencyEdge) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if len(deleteIDs) > 0 {
		query, args, err := sqlx.In(
			`DELETE FROM package_versions WHERE package_id = ? AND id IN (?)`,
			packageID, deleteIDs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return wrapErr(err)
		}
	}

	for _, v := range inserts {
		err := tx.GetContext(ctx, &v.ID, `
            INSERT INTO package_versions
                (package_id, version, normalized_version, stability, sha,
                 description, keywords, homepage, released, license, authors,
                 support, conflict, replace, provide, suggest, autoload,
                 include_paths, target_dir, extra, binaries, source, dist, changelog)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
                    $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
            RETURNING id`,
			packageID, v.Version, v.NormalizedVersion, v.Stability, v.SHA,
			v.Description, v.Keywords, v.Homepage, v.Released, v.License, v.Authors,
			v.Support, v.Conflict, v.Replace, v.Provide, v.Suggest, v.Autoload,
			v.IncludePaths, v.TargetDir, v.Extra, v.Binaries, v.Source, v.Dist, v.Changelog)
		if err != nil {
			return wrapErr(err)
		}
	}

	for _, edge := range edges {
		if edge.VersionID < 0 {
			idx := -edge.VersionID - 1
			if idx >= len(inserts) {
				return fmt.Errorf("edge references insert %d of %d", idx, len(inserts))
			}
			edge.VersionID = inserts[idx].ID
		}
		err := tx.GetContext(ctx, &edge.ID, `
            INSERT INTO package_deps (package_id, version_id, name, constraints)
            VALUES ($1, $2, $3, $4)
            RETURNING id`,
			packageID, edge.VersionID, edge.Name, edge.Constraints)
		if err != nil {
			return wrapErr(err)
		}
	}

	return tx.Commit()
}
