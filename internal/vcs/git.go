package vcs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"packmirror/internal/db"
)

// GitAdapter serves repositories that are not hosted on GitHub. It
// clones into memory once per adapter and answers tag and manifest
// reads from the object store; no worktree is materialized.
type GitAdapter struct {
	url   string
	token string
	repo  *git.Repository
}

// NewGitAdapter creates an adapter for a plain git URL.
func NewGitAdapter(url, token string) *GitAdapter {
	return &GitAdapter{url: url, token: token}
}

func (g *GitAdapter) open(ctx context.Context) (*git.Repository, error) {
	if g.repo != nil {
		return g.repo, nil
	}

	opts := &git.CloneOptions{
		URL:        g.url,
		NoCheckout: true,
	}
	if g.token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "token", Password: g.token}
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: clone %s: %v", ErrTransient, g.url, err)
	}
	g.repo = repo
	return repo, nil
}

// Versions iterates the repository's tag refs. Annotated tags are
// peeled to their target commit.
func (g *GitAdapter) Versions(ctx context.Context) (map[string]string, error) {
	repo, err := g.open(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := repo.Tags()
	if err != nil {
		return nil, err
	}
	defer tags.Close()

	versions := make(map[string]string)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tagObj, tagErr := repo.TagObject(hash); tagErr == nil {
			commit, commitErr := tagObj.Commit()
			if commitErr != nil {
				return nil
			}
			hash = commit.Hash
		}
		versions[ref.Name().Short()] = hash.String()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// PopulateRelease reads composer.json from the commit tree at the
// release's sha.
func (g *GitAdapter) PopulateRelease(ctx context.Context, release *db.PackageVersion) (map[string]string, error) {
	repo, err := g.open(ctx)
	if err != nil {
		return nil, err
	}

	commit, err := repo.CommitObject(plumbing.NewHash(release.SHA))
	if err != nil {
		return nil, fmt.Errorf("%w: commit %s: %v", ErrManifestInvalid, release.SHA, err)
	}

	file, err := commit.File("composer.json")
	if err != nil {
		if err == object.ErrFileNotFound {
			return nil, fmt.Errorf("%w: no composer.json at %s", ErrManifestInvalid, release.SHA)
		}
		return nil, err
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest([]byte(contents))
	if err != nil {
		return nil, err
	}
	manifest.Apply(release)

	source, err := json.Marshal(map[string]string{
		"type":      "git",
		"url":       g.url,
		"reference": release.SHA,
	})
	if err == nil {
		s := string(source)
		release.Source = &s
	}
	return manifest.Require, nil
}
