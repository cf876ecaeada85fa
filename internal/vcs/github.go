package vcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"

	"packmirror/internal/db"
)

// GitHubAdapter reads tags and composer manifests through the GitHub
// API. One adapter serves one repository.
type GitHubAdapter struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubAdapter creates an adapter for owner/repo. An empty token
// yields an unauthenticated client subject to the anonymous rate limit.
func NewGitHubAdapter(token, owner, repo string) *GitHubAdapter {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &GitHubAdapter{
		client: github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}
}

// Versions lists every tag of the repository mapped to its commit sha.
func (g *GitHubAdapter) Versions(ctx context.Context) (map[string]string, error) {
	versions := make(map[string]string)
	opts := &github.ListOptions{PerPage: 100}

	for {
		tags, resp, err := g.client.Repositories.ListTags(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, classifyGitHubErr(err)
		}
		for _, tag := range tags {
			if tag.GetName() == "" || tag.GetCommit().GetSHA() == "" {
				continue
			}
			versions[tag.GetName()] = tag.GetCommit().GetSHA()
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return versions, nil
}

// PopulateRelease reads composer.json at the release's commit and fills
// the manifest fields, plus source and dist pointers.
func (g *GitHubAdapter) PopulateRelease(ctx context.Context, release *db.PackageVersion) (map[string]string, error) {
	content, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, "composer.json",
		&github.RepositoryContentGetOptions{Ref: release.SHA})
	if err != nil {
		if isGitHubNotFound(err) {
			return nil, fmt.Errorf("%w: no composer.json at %s", ErrManifestInvalid, release.SHA)
		}
		return nil, classifyGitHubErr(err)
	}

	raw, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}
	manifest, err := ParseManifest([]byte(raw))
	if err != nil {
		return nil, err
	}
	manifest.Apply(release)

	release.Source = marshalRef(map[string]string{
		"type":      "git",
		"url":       fmt.Sprintf("https://github.com/%s/%s.git", g.owner, g.repo),
		"reference": release.SHA,
	})
	release.Dist = marshalRef(map[string]string{
		"type":      "zip",
		"url":       fmt.Sprintf("https://api.github.com/repos/%s/%s/zipball/%s", g.owner, g.repo, release.SHA),
		"reference": release.SHA,
	})
	return manifest.Require, nil
}

func marshalRef(ref map[string]string) *string {
	data, err := json.Marshal(ref)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

func classifyGitHubErr(err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode >= 500 {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if strings.Contains(err.Error(), "connection") || strings.Contains(err.Error(), "timeout") {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

func isGitHubNotFound(err error) bool {
	var respErr *github.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound
}
