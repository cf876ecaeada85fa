package db

import (
	"context"
	"time"
)

// PackageExists reports whether a package row exists for name.
func (db *DB) PackageExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM packages WHERE name = $1)`, name)
	return exists, wrapErr(err)
}

// PackageUpdatedWithin reports whether the package was updated inside
// the window. A row whose updated_at still equals created_at has never
// been reconciled and does not count.
func (db *DB) PackageUpdatedWithin(ctx context.Context, name string, window time.Duration) (bool, error) {
	var recent bool
	err := db.GetContext(ctx, &recent, `
        SELECT EXISTS (
            SELECT 1 FROM packages
            WHERE name = $1
              AND updated_at > now() - ($2 * interval '1 second')
              AND updated_at <> created_at
        )`, name, window.Seconds())
	return recent, wrapErr(err)
}

// GetPackage retrieves a package by composer name.
func (db *DB) GetPackage(ctx context.Context, name string) (*Package, error) {
	var pkg Package
	err := db.GetContext(ctx, &pkg, `
        SELECT id, name, type, repository, managed, abandoned,
               replacement_package, latest_version, created_at, updated_at
        FROM packages WHERE name = $1`, name)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &pkg, nil
}

// GetPackageByID retrieves a package by primary key.
func (db *DB) GetPackageByID(ctx context.Context, id int) (*Package, error) {
	var pkg Package
	err := db.GetContext(ctx, &pkg, `
        SELECT id, name, type, repository, managed, abandoned,
               replacement_package, latest_version, created_at, updated_at
        FROM packages WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &pkg, nil
}

// SavePackage inserts a new package or updates an existing one by id.
// The row's updated_at is bumped either way; the caller gets the stored
// id back on insert.
func (db *DB) SavePackage(ctx context.Context, pkg *Package) error {
	if pkg.ID == 0 {
		err := db.GetContext(ctx, pkg, `
            INSERT INTO packages (name, type, repository, managed, abandoned,
                                  replacement_package, latest_version)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, name, type, repository, managed, abandoned,
                      replacement_package, latest_version, created_at, updated_at`,
			pkg.Name, pkg.Type, pkg.Repository, pkg.Managed, pkg.Abandoned,
			pkg.ReplacementPackage, pkg.LatestVersion)
		return wrapErr(err)
	}

	_, err := db.ExecContext(ctx, `
        UPDATE packages
        SET name = $2, type = $3, repository = $4, managed = $5, abandoned = $6,
            replacement_package = $7, latest_version = $8, updated_at = now()
        WHERE id = $1`,
		pkg.ID, pkg.Name, pkg.Type, pkg.Repository, pkg.Managed, pkg.Abandoned,
		pkg.ReplacementPackage, pkg.LatestVersion)
	return wrapErr(err)
}

// RemovePackage deletes a package; versions and dependency edges cascade.
func (db *DB) RemovePackage(ctx context.Context, name string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM packages WHERE name = $1`, name)
	if err != nil {
		return wrapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLatest updates the denormalized latest_version cache.
func (db *DB) SetLatest(ctx context.Context, packageID int, version string) error {
	_, err := db.ExecContext(ctx, `
        UPDATE packages SET latest_version = $2, updated_at = now() WHERE id = $1`,
		packageID, version)
	return wrapErr(err)
}
