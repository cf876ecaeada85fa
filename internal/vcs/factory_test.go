package vcs

import (
	"errors"
	"testing"

	"packmirror/internal/db"
)

func strPtr(s string) *string { return &s }

func TestFactoryMissingToken(t *testing.T) {
	f := &Factory{RequirePluginTokens: true}
	pkg := &db.Package{
		Name:       "acme/plugin",
		Managed:    true,
		Repository: strPtr("https://github.com/acme/plugin"),
	}

	_, err := f.ForPackage(pkg, nil)
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}

	// a registered token clears the policy
	plugin := &db.Plugin{Name: "acme/plugin", VcsToken: strPtr("tok")}
	if _, err := f.ForPackage(pkg, plugin); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}

func TestFactoryUnmanagedWithoutToken(t *testing.T) {
	f := &Factory{RequirePluginTokens: true, FallbackTokens: []string{"shared-1", "shared-2"}}
	pkg := &db.Package{
		Name:       "psr/log",
		Managed:    false,
		Repository: strPtr("https://github.com/php-fig/log"),
	}

	adapter, err := f.ForPackage(pkg, nil)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if _, ok := adapter.(*GitHubAdapter); !ok {
		t.Fatalf("adapter = %T, want *GitHubAdapter", adapter)
	}
}

func TestFactoryNoRepository(t *testing.T) {
	f := &Factory{}
	if _, err := f.ForPackage(&db.Package{Name: "psr/log"}, nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}

func TestFactoryGitFallback(t *testing.T) {
	f := &Factory{}
	pkg := &db.Package{
		Name:       "acme/lib",
		Repository: strPtr("https://git.acme.example/acme/lib.git"),
	}

	adapter, err := f.ForPackage(pkg, nil)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if _, ok := adapter.(*GitAdapter); !ok {
		t.Fatalf("adapter = %T, want *GitAdapter", adapter)
	}
}
