// Package engine reconciles stored package state against the VCS
// backend: it diffs version sets, ingests new releases, maintains the
// latest-version cache, and cascades updates through transitive
// dependencies via the job queue.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"packmirror/internal/db"
	"packmirror/internal/queue"
	"packmirror/internal/semver"
	"packmirror/internal/vcs"
)

// Store is the slice of the database layer the engine consumes.
// *db.DB satisfies it; tests substitute a fake.
type Store interface {
	GetPackage(ctx context.Context, name string) (*db.Package, error)
	SavePackage(ctx context.Context, pkg *db.Package) error
	PackageExists(ctx context.Context, name string) (bool, error)
	GetPlugin(ctx context.Context, name string) (*db.Plugin, error)
	SetPluginLatest(ctx context.Context, pluginID int, version string) error
	VersionsWithSHAs(ctx context.Context, name string) (map[string]db.VersionRef, error)
	AllVersions(ctx context.Context, name string, min semver.Stability, sorted bool) ([]string, error)
	ReplaceVersions(ctx context.Context, packageID int, deleteIDs []int, inserts []*db.PackageVersion, edges []*db.DependencyEdge) error
	SetLatest(ctx context.Context, packageID int, version string) error
	IsDependencyVersionRequired(ctx context.Context, name, version string) (bool, error)
	VersionsExist(ctx context.Context, name string, constraints []string) (bool, error)
	WithPackageLock(ctx context.Context, name string, fn func() error) error
}

// AdapterFactory produces the VCS adapter for a package. *vcs.Factory
// satisfies it.
type AdapterFactory interface {
	ForPackage(pkg *db.Package, plugin *db.Plugin) (vcs.Adapter, error)
}

// Engine runs package reconciliations. It is stateless between
// invocations; all progress lives in the store.
type Engine struct {
	store   Store
	factory AdapterFactory
	queue   queue.Queue
	logger  *log.Logger
}

// New wires an engine from its collaborators.
func New(store Store, factory AdapterFactory, q queue.Queue, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{store: store, factory: factory, queue: q, logger: logger}
}

// UpdatePackage reconciles one package against its VCS backend. With
// force set, stored versions are re-ingested even when their shas still
// match.
func (e *Engine) UpdatePackage(ctx context.Context, name string, force bool) error {
	pkg, err := e.store.GetPackage(ctx, name)
	if err != nil {
		return fmt.Errorf("update %s: %w", name, err)
	}

	if pkg.Repository == nil || *pkg.Repository == "" {
		// Transitive libraries ingested from a dependency edge may not
		// have a repository registered yet; nothing to reconcile.
		e.logger.Warn("skipping update, no repository", "package", name)
		return nil
	}

	var plugin *db.Plugin
	if pkg.Managed {
		plugin, err = e.store.GetPlugin(ctx, name)
		if err != nil {
			return fmt.Errorf("update %s: load plugin: %w", name, err)
		}
	}

	adapter, err := e.factory.ForPackage(pkg, plugin)
	if err != nil {
		return fmt.Errorf("update %s: %w", name, err)
	}

	return e.store.WithPackageLock(ctx, name, func() error {
		return e.reconcile(ctx, pkg, plugin, adapter, force)
	})
}

func (e *Engine) reconcile(ctx context.Context, pkg *db.Package, plugin *db.Plugin, adapter vcs.Adapter, force bool) error {
	stored, err := e.store.VersionsWithSHAs(ctx, pkg.Name)
	if err != nil {
		return err
	}

	reported, err := adapter.Versions(ctx)
	if err != nil {
		return fmt.Errorf("list versions of %s: %w", pkg.Name, err)
	}

	vcsVersions, err := e.filterVersions(ctx, pkg, reported)
	if err != nil {
		return err
	}

	var deleteIDs []int
	var newVersions []string
	for version, ref := range stored {
		sha, kept := vcsVersions[version]
		switch {
		case !kept:
			deleteIDs = append(deleteIDs, ref.ID)
		case force || ref.SHA != sha:
			// sha drift: replace wholesale rather than mutate
			deleteIDs = append(deleteIDs, ref.ID)
			newVersions = append(newVersions, version)
		}
	}
	for version := range vcsVersions {
		if _, ok := stored[version]; !ok {
			newVersions = append(newVersions, version)
		}
	}

	if len(deleteIDs) > 0 {
		if err := e.store.ReplaceVersions(ctx, pkg.ID, deleteIDs, nil, nil); err != nil {
			return err
		}
	}

	if len(newVersions) == 0 {
		return e.finishWithoutNewVersions(ctx, pkg, plugin, len(deleteIDs) > 0)
	}

	// newest first; the first stable we meet becomes latest
	semver.Sort(newVersions)
	for i, j := 0, len(newVersions)-1; i < j; i, j = i+1, j-1 {
		newVersions[i], newVersions[j] = newVersions[j], newVersions[i]
	}

	latestStable := ""
	newestProcessed := ""
	packageDeps := make(map[string]map[string]bool)

	for _, version := range newVersions {
		normalized, err := semver.Normalize(version)
		if err != nil {
			e.logger.Warn("skipping unparseable version", "package", pkg.Name, "version", version, "err", err)
			continue
		}

		release := &db.PackageVersion{
			PackageID:         pkg.ID,
			Version:           version,
			NormalizedVersion: normalized,
			SHA:               vcsVersions[version],
		}
		require, err := adapter.PopulateRelease(ctx, release)
		if err != nil {
			if errors.Is(err, vcs.ErrManifestInvalid) {
				e.logger.Warn("skipping version with bad manifest", "package", pkg.Name, "version", version, "err", err)
				continue
			}
			return fmt.Errorf("populate %s %s: %w", pkg.Name, version, err)
		}

		edges := make([]*db.DependencyEdge, 0, len(require))
		for depName, constraint := range require {
			edges = append(edges, &db.DependencyEdge{
				PackageID:   pkg.ID,
				VersionID:   -1,
				Name:        depName,
				Constraints: constraint,
			})
			if IsPlatformDependency(depName) {
				continue
			}
			if packageDeps[depName] == nil {
				packageDeps[depName] = make(map[string]bool)
			}
			packageDeps[depName][constraint] = true
		}

		if err := e.store.ReplaceVersions(ctx, pkg.ID, nil, []*db.PackageVersion{release}, edges); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return fmt.Errorf("concurrent update of %s: %w", pkg.Name, err)
			}
			return err
		}

		if newestProcessed == "" {
			newestProcessed = version
		}
		if latestStable == "" && semver.ParseStability(version) == semver.StabilityStable {
			latestStable = version
		}
	}

	latest := latestStable
	if latest == "" {
		latest = newestProcessed
	}
	if latest != "" {
		if err := e.store.SetLatest(ctx, pkg.ID, latest); err != nil {
			return err
		}
		if plugin != nil {
			if err := e.store.SetPluginLatest(ctx, plugin.ID, latest); err != nil {
				return err
			}
		}
	}

	return e.cascade(ctx, pkg.Name, packageDeps)
}

// finishWithoutNewVersions still bumps the package row so the update
// window is recorded. When this reconcile deleted versions and a latest
// version is cached, the cache is recomputed from the remaining stored
// versions.
func (e *Engine) finishWithoutNewVersions(ctx context.Context, pkg *db.Package, plugin *db.Plugin, deleted bool) error {
	if deleted && pkg.LatestVersion != nil {
		remaining, err := e.store.AllVersions(ctx, pkg.Name, semver.StabilityDev, true)
		if err != nil {
			return err
		}
		latest := pickLatest(remaining)
		if latest == "" {
			pkg.LatestVersion = nil
		} else {
			pkg.LatestVersion = &latest
		}
		if plugin != nil && latest != "" {
			if err := e.store.SetPluginLatest(ctx, plugin.ID, latest); err != nil {
				return err
			}
		}
	}
	return e.store.SavePackage(ctx, pkg)
}

// pickLatest selects the newest stable version of a sorted-ascending
// list, falling back to the newest overall.
func pickLatest(sorted []string) string {
	for i := len(sorted) - 1; i >= 0; i-- {
		if semver.ParseStability(sorted[i]) == semver.StabilityStable {
			return sorted[i]
		}
	}
	if len(sorted) > 0 {
		return sorted[len(sorted)-1]
	}
	return ""
}

// filterVersions applies the ingestion rules to the VCS-reported tag
// set: dev stability is always rejected; for unmanaged packages, only
// versions some stored dependency edge requires are admitted.
func (e *Engine) filterVersions(ctx context.Context, pkg *db.Package, reported map[string]string) (map[string]string, error) {
	kept := make(map[string]string, len(reported))
	for version, sha := range reported {
		if semver.ParseStability(version) == semver.StabilityDev {
			continue
		}
		if !pkg.Managed {
			required, err := e.store.IsDependencyVersionRequired(ctx, pkg.Name, version)
			if err != nil {
				return nil, err
			}
			if !required {
				continue
			}
		}
		kept[version] = sha
	}
	return kept, nil
}

// cascade creates missing dependency targets and enqueues update jobs
// for every dependency that is new or no longer satisfiable from the
// store.
func (e *Engine) cascade(ctx context.Context, owner string, packageDeps map[string]map[string]bool) error {
	names := make([]string, 0, len(packageDeps))
	for name := range packageDeps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, depName := range names {
		constraints := make([]string, 0, len(packageDeps[depName]))
		for c := range packageDeps[depName] {
			constraints = append(constraints, c)
		}
		sort.Strings(constraints)

		exists, err := e.store.PackageExists(ctx, depName)
		if err != nil {
			return err
		}

		needsUpdate := false
		if !exists {
			dep := &db.Package{Name: depName, Type: "library", Managed: false}
			if err := e.store.SavePackage(ctx, dep); err != nil {
				if errors.Is(err, db.ErrConflict) {
					// concurrent cascade created it first
					needsUpdate = true
				} else {
					return err
				}
			} else {
				needsUpdate = true
			}
		} else {
			satisfied, err := e.store.VersionsExist(ctx, depName, constraints)
			if err != nil {
				return err
			}
			needsUpdate = !satisfied
		}

		if needsUpdate {
			e.logger.Info("cascading update", "from", owner, "to", depName)
			if err := e.queue.EnqueueUpdate(ctx, depName, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsPlatformDependency reports whether a dependency target names a
// platform capability or sentinel rather than a registry package; those
// are recorded as edges but never created as packages.
func IsPlatformDependency(name string) bool {
	switch name {
	case "php", "php-64bit", "php-ipv6", "hhvm", "composer-plugin-api", "composer-runtime-api", "__root__":
		return true
	}
	if len(name) > 4 && name[:4] == "ext-" {
		return true
	}
	if len(name) > 4 && name[:4] == "lib-" {
		return true
	}
	if len(name) >= 12 && name[:12] == "bower-asset/" {
		return true
	}
	if len(name) >= 10 && name[:10] == "npm-asset/" {
		return true
	}
	return false
}
