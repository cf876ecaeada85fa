package vcs

import (
	"testing"

	"packmirror/internal/db"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`{
        "name": "acme/plugin",
        "description": "An example plugin",
        "type": "composer-plugin",
        "keywords": ["example", "plugin"],
        "homepage": "https://acme.example",
        "license": "MIT",
        "time": "2024-03-01T10:00:00+00:00",
        "authors": [{"name": "Jane Doe"}],
        "require": {
            "php": ">=8.1",
            "psr/log": "^1.0 || ^2.0",
            "ext-json": "*"
        },
        "autoload": {"psr-4": {"Acme\\": "src/"}},
        "extra": {"class": "Acme\\Plugin"},
        "x-future-key": {"anything": true}
    }`)

	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}

	if m.Name != "acme/plugin" {
		t.Errorf("name = %q", m.Name)
	}
	if m.Type != "composer-plugin" {
		t.Errorf("type = %q", m.Type)
	}
	if len(m.Require) != 3 {
		t.Errorf("require has %d entries, want 3", len(m.Require))
	}
	if m.Require["psr/log"] != "^1.0 || ^2.0" {
		t.Errorf("psr/log constraint = %q", m.Require["psr/log"])
	}
	// license given as a bare string stays raw
	if string(m.License) != `"MIT"` {
		t.Errorf("license raw = %s", m.License)
	}
}

func TestParseManifestTolerantRequire(t *testing.T) {
	// a malformed constraint value must not sink the manifest
	data := []byte(`{
        "name": "acme/odd",
        "require": {
            "psr/log": "^1.0",
            "broken/entry": {"not": "a string"}
        }
    }`)

	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if len(m.Require) != 1 {
		t.Errorf("require has %d entries, want 1", len(m.Require))
	}
	if _, ok := m.Require["broken/entry"]; ok {
		t.Error("non-string constraint should have been dropped")
	}
}

func TestParseManifestInvalid(t *testing.T) {
	if _, err := ParseManifest([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestManifestApply(t *testing.T) {
	m, err := ParseManifest([]byte(`{
        "name": "acme/plugin",
        "description": "desc",
        "license": ["MIT", "GPL-2.0"],
        "suggest": {"acme/extra": "adds sparkle"}
    }`))
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}

	release := &db.PackageVersion{PackageID: 7, Version: "1.1.0-beta1", SHA: "abc"}
	m.Apply(release)

	if release.Stability != "beta" {
		t.Errorf("stability = %q, want beta", release.Stability)
	}
	if release.Description == nil || *release.Description != "desc" {
		t.Errorf("description = %v", release.Description)
	}
	if release.License == nil || *release.License != `["MIT", "GPL-2.0"]` {
		t.Errorf("license = %v", release.License)
	}
	if release.Homepage != nil {
		t.Error("empty homepage should stay nil")
	}
	if release.Suggest == nil {
		t.Error("suggest should be recorded")
	}
}

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		owner   string
		repo    string
		wantErr bool
	}{
		{"https form", "https://github.com/acme/plugin", "acme", "plugin", false},
		{"trailing .git", "https://github.com/acme/plugin.git", "acme", "plugin", false},
		{"ssh form", "git@github.com:acme/plugin.git", "acme", "plugin", false},
		{"not github", "https://gitlab.com/acme/plugin", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseGitHubURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if owner != tt.owner || repo != tt.repo {
				t.Errorf("got %s/%s, want %s/%s", owner, repo, tt.owner, tt.repo)
			}
		})
	}
}
