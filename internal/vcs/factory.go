package vcs

import (
	"fmt"
	"math/rand"
	"strings"

	"packmirror/internal/db"
)

// Factory produces the adapter for a package's repository URL. Managed
// plugins must present credentials when the host policy requires them;
// unmanaged libraries fall back to the shared token pool.
type Factory struct {
	FallbackTokens      []string
	RequirePluginTokens bool
}

// ForPackage selects and configures an adapter. The plugin record, when
// present, carries the package-specific token.
func (f *Factory) ForPackage(pkg *db.Package, plugin *db.Plugin) (Adapter, error) {
	if pkg.Repository == nil || *pkg.Repository == "" {
		return nil, fmt.Errorf("package %s has no repository", pkg.Name)
	}
	repoURL := *pkg.Repository

	token := ""
	if plugin != nil && plugin.VcsToken != nil {
		token = *plugin.VcsToken
	}
	if pkg.Managed && token == "" && f.RequirePluginTokens {
		return nil, fmt.Errorf("%w: plugin %s has no vcs token registered", ErrMissingToken, pkg.Name)
	}
	if token == "" {
		token = f.fallbackToken()
	}

	if strings.Contains(repoURL, "github.com") {
		owner, repo, err := ParseGitHubURL(repoURL)
		if err != nil {
			return nil, err
		}
		return NewGitHubAdapter(token, owner, repo), nil
	}
	return NewGitAdapter(repoURL, token), nil
}

// fallbackToken picks one of the shared credentials at random so load
// spreads across the pool.
func (f *Factory) fallbackToken() string {
	if len(f.FallbackTokens) == 0 {
		return ""
	}
	return f.FallbackTokens[rand.Intn(len(f.FallbackTokens))]
}

// ParseGitHubURL extracts owner and repo from a GitHub URL, accepting
// both https://github.com/owner/repo and git@github.com:owner/repo.
func ParseGitHubURL(repoURL string) (owner, repo string, err error) {
	if !strings.Contains(repoURL, "github.com") {
		return "", "", fmt.Errorf("not a GitHub URL")
	}

	repoURL = strings.TrimSuffix(repoURL, ".git")

	var parts []string
	if strings.Contains(repoURL, "github.com/") {
		parts = strings.Split(repoURL, "/")
	} else if strings.Contains(repoURL, "github.com:") {
		parts = strings.Split(strings.Replace(repoURL, ":", "/", -1), "/")
	} else {
		return "", "", fmt.Errorf("invalid GitHub URL format")
	}

	for i, part := range parts {
		if part == "github.com" && i+2 < len(parts) {
			owner = parts[i+1]
			repo = parts[i+2]
			break
		}
	}

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("could not parse owner/repo from URL")
	}
	return owner, repo, nil
}
