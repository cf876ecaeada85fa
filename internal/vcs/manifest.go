package vcs

import (
	"encoding/json"
	"fmt"
	"strings"

	"packmirror/internal/db"
	"packmirror/internal/semver"
)

// Manifest is a decoded composer.json. Structured fields stay raw so
// unknown or oddly-shaped keys survive the round-trip into the store
// and back out through the provider dump.
type Manifest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Type        string            `json:"type"`
	Keywords    json.RawMessage   `json:"keywords"`
	Homepage    string            `json:"homepage"`
	Time        string            `json:"time"`
	License     json.RawMessage   `json:"license"`
	Authors     json.RawMessage   `json:"authors"`
	Support     json.RawMessage   `json:"support"`
	Require     map[string]string `json:"-"`
	Conflict    json.RawMessage   `json:"conflict"`
	Replace     json.RawMessage   `json:"replace"`
	Provide     json.RawMessage   `json:"provide"`
	Suggest     json.RawMessage   `json:"suggest"`
	Autoload    json.RawMessage   `json:"autoload"`
	IncludePath json.RawMessage   `json:"include-path"`
	TargetDir   string            `json:"target-dir"`
	Extra       json.RawMessage   `json:"extra"`
	Bin         json.RawMessage   `json:"bin"`
}

// ParseManifest decodes composer.json bytes. The require map is decoded
// tolerantly: non-string constraint values are dropped rather than
// failing the whole manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	var rawRequire struct {
		Require map[string]json.RawMessage `json:"require"`
	}
	if err := json.Unmarshal(data, &rawRequire); err == nil && len(rawRequire.Require) > 0 {
		m.Require = make(map[string]string, len(rawRequire.Require))
		for name, raw := range rawRequire.Require {
			var constraint string
			if json.Unmarshal(raw, &constraint) == nil {
				m.Require[strings.ToLower(name)] = constraint
			}
		}
	}
	return &m, nil
}

// Apply copies the manifest onto a release row. Version, sha and
// package id are the caller's; everything else comes from the manifest.
func (m *Manifest) Apply(release *db.PackageVersion) {
	release.Stability = semver.ParseStability(release.Version).String()
	release.Description = optString(m.Description)
	release.Homepage = optString(m.Homepage)
	release.Released = optString(m.Time)
	release.TargetDir = optString(m.TargetDir)
	release.Keywords = optRaw(m.Keywords)
	release.License = optRaw(m.License)
	release.Authors = optRaw(m.Authors)
	release.Support = optRaw(m.Support)
	release.Conflict = optRaw(m.Conflict)
	release.Replace = optRaw(m.Replace)
	release.Provide = optRaw(m.Provide)
	release.Suggest = optRaw(m.Suggest)
	release.Autoload = optRaw(m.Autoload)
	release.IncludePaths = optRaw(m.IncludePath)
	release.Extra = optRaw(m.Extra)
	release.Binaries = optRaw(m.Bin)
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optRaw(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	s := string(raw)
	return &s
}
