// Package emitter publishes the registry as a content-addressed
// Composer v1 provider tree: per-package provider files and a provider
// index, each stored under its sha256 content hash, and the packages.json
// root manifest, replaced by rename, so readers never observe a
// half-written file.
package emitter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"packmirror/internal/db"
	"packmirror/internal/queue"
)

// deleteDelay keeps superseded files alive long enough for in-flight
// readers resolving through the old provider tree.
const deleteDelay = 5 * time.Minute

// Store is the snapshot reader the emitter consumes. *db.DB satisfies
// it.
type Store interface {
	LoadSnapshot(ctx context.Context) (*db.Snapshot, error)
}

// Emitter writes the provider tree beneath a webroot.
type Emitter struct {
	store   Store
	queue   queue.Queue
	webroot string
	logger  *log.Logger
}

// New wires an emitter for a webroot directory.
func New(store Store, q queue.Queue, webroot string, logger *log.Logger) *Emitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Emitter{store: store, queue: q, webroot: webroot, logger: logger}
}

// DumpProviderJSON republishes the full tree from one consistent
// database snapshot. Unchanged content is detected by its hash and left
// alone; superseded files are handed to the queue for delayed deletion.
// packages.json is written last, and only when everything else
// succeeded.
func (e *Emitter) DumpProviderJSON(ctx context.Context) error {
	snap, err := e.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var obsolete []string
	providers := make(map[string]string, len(snap.Packages))

	names := make([]string, 0, len(snap.Packages))
	byName := make(map[string]db.Package, len(snap.Packages))
	for _, pkg := range snap.Packages {
		names = append(names, pkg.Name)
		byName[pkg.Name] = pkg
	}
	sort.Strings(names)

	for _, name := range names {
		pkg := byName[name]
		content, err := providerFile(&pkg, snap.Releases[pkg.ID], snap.Edges)
		if err != nil {
			return fmt.Errorf("compose provider for %s: %w", name, err)
		}

		hash := hashContent(content)
		dir := filepath.Join(e.webroot, "p", filepath.FromSlash(name))
		stale, err := e.writeHashed(dir, hash, content)
		if err != nil {
			return fmt.Errorf("write provider for %s: %w", name, err)
		}
		obsolete = append(obsolete, stale...)
		providers[name] = hash
	}

	indexContent, err := providerIndex(providers)
	if err != nil {
		return fmt.Errorf("compose provider index: %w", err)
	}
	indexHash := hashContent(indexContent)
	stale, err := e.writeHashed(filepath.Join(e.webroot, "p", "provider"), indexHash, indexContent)
	if err != nil {
		return fmt.Errorf("write provider index: %w", err)
	}
	obsolete = append(obsolete, stale...)

	if err := e.writeRoot(indexHash); err != nil {
		return fmt.Errorf("write packages.json: %w", err)
	}

	if len(obsolete) > 0 {
		e.logger.Info("scheduling delayed deletion", "files", len(obsolete), "delay", deleteDelay)
		if err := e.queue.EnqueueDelete(ctx, obsolete, deleteDelay); err != nil {
			return err
		}
	}
	return nil
}

// writeHashed writes content to dir/<hash>.json unless it already
// exists, returning the sibling hash files the new one supersedes.
func (e *Emitter) writeHashed(dir, hash string, content []byte) (obsolete []string, err error) {
	target := filepath.Join(dir, hash+".json")

	siblings, err := doublestar.FilepathGlob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(target); statErr == nil {
		// identical content already published
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return nil, err
	}

	for _, sibling := range siblings {
		if sibling != target {
			obsolete = append(obsolete, sibling)
		}
	}
	return obsolete, nil
}

// writeRoot atomically replaces packages.json via rename.
func (e *Emitter) writeRoot(indexHash string) error {
	content, err := rootManifest(indexHash)
	if err != nil {
		return err
	}

	target := filepath.Join(e.webroot, "packages.json")
	tmp := target + ".tmp"
	if err := os.MkdirAll(e.webroot, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
