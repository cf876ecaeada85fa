package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"packmirror/internal/db"
	"packmirror/internal/semver"
)

type fakeStore struct {
	versions map[string][]string
	releases map[string]*db.PackageVersion
}

func (s *fakeStore) GetPackage(ctx context.Context, name string) (*db.Package, error) {
	if _, ok := s.versions[name]; !ok {
		return nil, db.ErrNotFound
	}
	return &db.Package{Name: name}, nil
}

func (s *fakeStore) PackageExists(ctx context.Context, name string) (bool, error) {
	_, ok := s.versions[name]
	return ok, nil
}

func (s *fakeStore) PackageUpdatedWithin(ctx context.Context, name string, window time.Duration) (bool, error) {
	return false, nil
}

func (s *fakeStore) AllVersions(ctx context.Context, name string, min semver.Stability, sorted bool) ([]string, error) {
	versions := semver.Filter(s.versions[name], min)
	if sorted {
		semver.Sort(versions)
	}
	return versions, nil
}

func (s *fakeStore) GetRelease(ctx context.Context, name, rawVersion string) (*db.PackageVersion, error) {
	return s.releases[name+"@"+rawVersion], nil
}

func (s *fakeStore) GetReleases(ctx context.Context, name string, rawVersions []string) ([]db.PackageVersion, error) {
	var out []db.PackageVersion
	for _, v := range rawVersions {
		if release := s.releases[name+"@"+v]; release != nil {
			out = append(out, *release)
		}
	}
	return out, nil
}

func TestLatestVersionStabilityFloors(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{versions: map[string][]string{
		"acme/plugin": {"1.0.0", "1.1.0-beta1", "1.1.0"},
		"acme/young":  {"1.0.0", "1.1.0-beta1"},
	}}
	r := New(store)

	tests := []struct {
		name string
		pkg  string
		min  semver.Stability
		want string
	}{
		{"stable floor picks stable", "acme/plugin", semver.StabilityStable, "1.1.0"},
		{"beta floor still newest", "acme/plugin", semver.StabilityBeta, "1.1.0"},
		{"stable floor skips beta", "acme/young", semver.StabilityStable, "1.0.0"},
		{"beta floor admits beta", "acme/young", semver.StabilityBeta, "1.1.0-beta1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.LatestVersion(ctx, tt.pkg, tt.min)
			if err != nil {
				t.Fatalf("LatestVersion: %v", err)
			}
			if got != tt.want {
				t.Errorf("LatestVersion = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLatestVersionEmpty(t *testing.T) {
	r := New(&fakeStore{versions: map[string][]string{"acme/empty": nil}})
	_, err := r.LatestVersion(context.Background(), "acme/empty", semver.StabilityStable)
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReleaseNotFound(t *testing.T) {
	r := New(&fakeStore{versions: map[string][]string{}, releases: map[string]*db.PackageVersion{}})
	_, err := r.Release(context.Background(), "acme/plugin", "1.0.0")
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
