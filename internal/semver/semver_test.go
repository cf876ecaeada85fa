package semver

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
		wantErr bool
	}{
		{
			name:    "plain three component",
			version: "1.2.3",
			want:    "1.2.3.0",
		},
		{
			name:    "v prefix stripped",
			version: "v2.0.1",
			want:    "2.0.1.0",
		},
		{
			name:    "short version padded",
			version: "1.2",
			want:    "1.2.0.0",
		},
		{
			name:    "single component",
			version: "3",
			want:    "3.0.0.0",
		},
		{
			name:    "four components kept",
			version: "1.2.3.4",
			want:    "1.2.3.4",
		},
		{
			name:    "beta with dotted number",
			version: "1.2.0-beta.3",
			want:    "1.2.0.0-beta3",
		},
		{
			name:    "rc normalized to upper",
			version: "1.0.0-rc1",
			want:    "1.0.0.0-RC1",
		},
		{
			name:    "short alpha alias",
			version: "1.0.0-a2",
			want:    "1.0.0.0-alpha2",
		},
		{
			name:    "patch alias",
			version: "1.0.0-pl1",
			want:    "1.0.0.0-patch1",
		},
		{
			name:    "stable suffix dropped",
			version: "1.0.0-stable",
			want:    "1.0.0.0",
		},
		{
			name:    "build metadata ignored",
			version: "1.0.0+build.5",
			want:    "1.0.0.0",
		},
		{
			name:    "dev branch",
			version: "dev-master",
			want:    "dev-master",
		},
		{
			name:    "numeric branch",
			version: "1.x-dev",
			want:    "1.9999999.9999999.9999999-dev",
		},
		{
			name:    "master alias",
			version: "master",
			want:    "dev-master",
		},
		{
			name:    "garbage rejected",
			version: "not-a-version",
			wantErr: true,
		},
		{
			name:    "empty rejected",
			version: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.version)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.version, got, tt.want)
			}
		})
	}
}

func TestParseStability(t *testing.T) {
	tests := []struct {
		version string
		want    Stability
	}{
		{"1.0.0", StabilityStable},
		{"v1.0.0", StabilityStable},
		{"1.0.0-stable", StabilityStable},
		{"1.1.0-beta1", StabilityBeta},
		{"1.1.0-b2", StabilityBeta},
		{"1.1.0-alpha.1", StabilityAlpha},
		{"1.1.0-a1", StabilityAlpha},
		{"2.0.0-RC2", StabilityRC},
		{"2.0.0-rc.1", StabilityRC},
		{"dev-master", StabilityDev},
		{"1.x-dev", StabilityDev},
		{"1.0.0-patch1", StabilityStable},
	}

	for _, tt := range tests {
		if got := ParseStability(tt.version); got != tt.want {
			t.Errorf("ParseStability(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "v1.0.0", 0},
		{"1.0.1", "1.0.0", 1},
		{"1.0.0", "1.1.0", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.0.0", "1.0.0.1", -1},
		{"1.0.0-alpha1", "1.0.0-beta1", -1},
		{"1.0.0-beta1", "1.0.0-beta2", -1},
		{"1.0.0-beta2", "1.0.0-RC1", -1},
		{"1.0.0-RC1", "1.0.0", -1},
		{"1.0.0", "1.0.0-patch1", -1},
		{"1.0.0-beta1", "1.0.0", -1},
		{"dev-master", "0.0.1", -1},
	}

	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSort(t *testing.T) {
	versions := []string{"1.1.0", "1.0.0", "2.0.0-beta1", "1.0.1", "2.0.0"}
	Sort(versions)

	want := []string{"1.0.0", "1.0.1", "1.1.0", "2.0.0-beta1", "2.0.0"}
	for i := range want {
		if versions[i] != want[i] {
			t.Fatalf("Sort = %v, want %v", versions, want)
		}
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		version    string
		constraint string
		want       bool
	}{
		{"1.2.3", "^1.2", true},
		{"1.9.0", "^1.2", true},
		{"2.0.0", "^1.2", false},
		{"2.0.0-beta1", "^1.2", false},
		{"1.1.0", "^1.2", false},
		{"0.3.5", "^0.3", true},
		{"0.4.0", "^0.3", false},
		{"1.2.5", "~1.2.3", true},
		{"1.3.0", "~1.2.3", false},
		{"1.9.0", "~1.2", true},
		{"2.0.0", "~1.2", false},
		{"1.2.9", "1.2.*", true},
		{"1.3.0", "1.2.*", false},
		{"1.2.0-beta1", "1.2.*", true},
		{"5.0.0", "*", true},
		{"1.5.0", ">=1.0 <2.0", true},
		{"2.1.0", ">=1.0 <2.0", false},
		{"1.5.0", ">=1.0, <2.0", true},
		{"1.2.0", "^1.2 || ^2.0", true},
		{"2.4.0", "^1.2 || ^2.0", true},
		{"3.0.0", "^1.2 || ^2.0", false},
		{"1.5.0", "1.0 - 2.0", true},
		{"2.0.5", "1.0 - 2.0", true},
		{"2.1.0", "1.0 - 2.0", false},
		{"1.0.0", "1.0 - 2.0.0", true},
		{"2.0.1", "1.0 - 2.0.0", false},
		{"1.0.0", "!=1.0.0", false},
		{"1.0.1", "!=1.0.0", true},
		{"1.0.0", "1.0.0", true},
		{"1.0.0", "=1.0.0", true},
		{"1.0.1", "1.0.0", false},
		{"1.0.0", "^1.0@beta", true},
		{"1.0.0-beta1", ">=1.0", false},
		{"not-a-version", "^1.0", false},
		{"1.0.0", "nonsense constraint ???", false},
	}

	for _, tt := range tests {
		if got := Satisfies(tt.version, tt.constraint); got != tt.want {
			t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.version, tt.constraint, got, tt.want)
		}
	}
}

func TestFilterMonotone(t *testing.T) {
	versions := []string{"1.0.0", "1.1.0-beta1", "1.1.0-RC1", "1.2.0-alpha1", "1.1.0", "2.x-dev"}

	counts := map[Stability]int{}
	for _, min := range []Stability{StabilityDev, StabilityAlpha, StabilityBeta, StabilityRC, StabilityStable} {
		counts[min] = len(Filter(versions, min))
	}

	if counts[StabilityDev] != 6 {
		t.Errorf("dev filter admitted %d versions, want 6", counts[StabilityDev])
	}
	if counts[StabilityStable] != 2 {
		t.Errorf("stable filter admitted %d versions, want 2", counts[StabilityStable])
	}

	// Raising the floor never adds versions.
	prev := counts[StabilityDev]
	for _, min := range []Stability{StabilityAlpha, StabilityBeta, StabilityRC, StabilityStable} {
		if counts[min] > prev {
			t.Errorf("filter at %v admitted more versions (%d) than the looser filter (%d)", min, counts[min], prev)
		}
		prev = counts[min]
	}
}

func TestFilterTables(t *testing.T) {
	tests := []struct {
		name string
		min  Stability
		want []string
	}{
		{"beta floor", StabilityBeta, []string{"1.0.0", "1.1.0-beta1", "1.1.0-RC1", "1.1.0"}},
		{"rc floor", StabilityRC, []string{"1.0.0", "1.1.0-RC1", "1.1.0"}},
		{"alpha floor", StabilityAlpha, []string{"1.0.0", "1.1.0-beta1", "1.1.0-RC1", "1.2.0-alpha1", "1.1.0"}},
	}
	versions := []string{"1.0.0", "1.1.0-beta1", "1.1.0-RC1", "1.2.0-alpha1", "1.1.0", "2.x-dev"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(versions, tt.min)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("Filter = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
