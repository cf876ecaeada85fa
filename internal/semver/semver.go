package semver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Stability classifies a version string per Composer rules.
type Stability int

const (
	StabilityDev Stability = iota
	StabilityAlpha
	StabilityBeta
	StabilityRC
	StabilityStable
)

var stabilityNames = map[Stability]string{
	StabilityDev:    "dev",
	StabilityAlpha:  "alpha",
	StabilityBeta:   "beta",
	StabilityRC:     "RC",
	StabilityStable: "stable",
}

func (s Stability) String() string {
	if name, ok := stabilityNames[s]; ok {
		return name
	}
	return "stable"
}

// ParseStabilityName parses a stability label such as "beta" or "RC".
func ParseStabilityName(name string) (Stability, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dev":
		return StabilityDev, nil
	case "alpha", "a":
		return StabilityAlpha, nil
	case "beta", "b":
		return StabilityBeta, nil
	case "rc":
		return StabilityRC, nil
	case "stable", "":
		return StabilityStable, nil
	}
	return StabilityStable, fmt.Errorf("unknown stability %q", name)
}

// ParseStability derives the stability of a version string.
// Anything carrying a dev marker is dev; otherwise the pre-release
// suffix decides, defaulting to stable.
func ParseStability(version string) Stability {
	v := strings.ToLower(version)
	if idx := strings.Index(v, "#"); idx != -1 {
		v = v[:idx]
	}
	if strings.HasPrefix(v, "dev-") || strings.HasSuffix(v, "-dev") || strings.HasSuffix(v, ".dev") {
		return StabilityDev
	}
	if m := suffixRe.FindStringSubmatch(v); m != nil {
		switch m[1] {
		case "alpha", "a":
			return StabilityAlpha
		case "beta", "b":
			return StabilityBeta
		case "rc":
			return StabilityRC
		}
	}
	return StabilityStable
}

var (
	versionRe = regexp.MustCompile(`^v?(\d{1,9})(\.\d{1,9})?(\.\d{1,9})?(\.\d{1,9})?` +
		`(?:[-_.]?(stable|beta|b|rc|alpha|a|patch|pl|p|dev)[-_.]?(\d{1,9})?)?` +
		`(?:[-_.]?dev)?$`)
	suffixRe = regexp.MustCompile(`[-_.](stable|beta|b|rc|alpha|a|patch|pl|p)[-_.]?\d*$`)
	branchRe = regexp.MustCompile(`^v?(\d+)(\.(?:\d+|[xX*]))?(\.(?:\d+|[xX*]))?(\.(?:\d+|[xX*]))?$`)
)

const branchFiller = "9999999"

// Normalize converts a raw tag into its canonical four-component form,
// e.g. "v1.2.0-beta.3" becomes "1.2.0.0-beta3". Branch-style versions
// ("dev-master", "1.x-dev") normalize to their dev forms. Unparseable
// strings are rejected.
func Normalize(version string) (string, error) {
	v := strings.TrimSpace(version)
	if v == "" {
		return "", fmt.Errorf("empty version string")
	}
	if idx := strings.Index(v, "#"); idx != -1 {
		v = v[:idx]
	}
	if idx := strings.Index(v, "+"); idx != -1 {
		v = v[:idx]
	}

	lower := strings.ToLower(v)
	if lower == "master" || lower == "trunk" || lower == "default" {
		return "dev-" + lower, nil
	}
	if strings.HasPrefix(lower, "dev-") {
		return "dev-" + v[len("dev-"):], nil
	}
	if strings.HasSuffix(lower, "-dev") {
		if normalized, err := normalizeBranch(v[:len(v)-len("-dev")]); err == nil {
			return normalized, nil
		}
		return "dev-" + v[:len(v)-len("-dev")], nil
	}

	m := versionRe.FindStringSubmatch(lower)
	if m == nil {
		return "", fmt.Errorf("invalid version string %q", version)
	}

	parts := []string{m[1], "0", "0", "0"}
	for i, grp := range []string{m[2], m[3], m[4]} {
		if grp != "" {
			parts[i+1] = grp[1:]
		}
	}
	normalized := strings.Join(parts, ".")

	if m[5] != "" {
		name := expandStability(m[5])
		if name != "stable" {
			normalized += "-" + name + m[6]
		}
	}
	if strings.HasSuffix(lower, "dev") && m[5] != "dev" {
		normalized += "-dev"
	}
	return normalized, nil
}

func normalizeBranch(name string) (string, error) {
	m := branchRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return "", fmt.Errorf("not a numeric branch: %q", name)
	}
	parts := []string{m[1], branchFiller, branchFiller, branchFiller}
	for i, grp := range []string{m[2], m[3], m[4]} {
		if grp == "" {
			continue
		}
		val := grp[1:]
		if val == "x" || val == "X" || val == "*" {
			val = branchFiller
		}
		parts[i+1] = val
	}
	return strings.Join(parts, ".") + "-dev", nil
}

func expandStability(name string) string {
	switch name {
	case "a":
		return "alpha"
	case "b":
		return "beta"
	case "rc":
		return "RC"
	case "p", "pl":
		return "patch"
	default:
		return name
	}
}

// suffix precedence when numeric components tie; stable sits between
// RC and patch.
var suffixOrder = map[string]int{
	"dev":   0,
	"alpha": 1,
	"beta":  2,
	"rc":    3,
	"":      4,
	"patch": 5,
}

type parsedVersion struct {
	nums      [4]int64
	suffix    string
	suffixNum int64
	devBranch string
}

func parseNormalized(version string) parsedVersion {
	normalized, err := Normalize(version)
	if err != nil {
		normalized = version
	}
	var p parsedVersion
	if strings.HasPrefix(normalized, "dev-") {
		p.devBranch = normalized
		p.suffix = "dev"
		return p
	}
	main := normalized
	if idx := strings.Index(normalized, "-"); idx != -1 {
		main = normalized[:idx]
		suffix := strings.ToLower(normalized[idx+1:])
		if extra := strings.Index(suffix, "-"); extra != -1 {
			// e.g. "beta2-dev"; the trailing dev marker dominates
			suffix = "dev"
		}
		numStart := len(suffix)
		for numStart > 0 && suffix[numStart-1] >= '0' && suffix[numStart-1] <= '9' {
			numStart--
		}
		p.suffix = suffix[:numStart]
		if numStart < len(suffix) {
			p.suffixNum, _ = strconv.ParseInt(suffix[numStart:], 10, 64)
		}
	}
	for i, part := range strings.SplitN(main, ".", 4) {
		n, _ := strconv.ParseInt(part, 10, 64)
		p.nums[i] = n
	}
	return p
}

// Compare orders two version strings, returning -1, 0 or +1. Inputs may
// be raw tags or already-normalized forms.
func Compare(a, b string) int {
	pa, pb := parseNormalized(a), parseNormalized(b)

	// Branch versions have no numeric ordering; compare lexically among
	// themselves and sort below everything numeric.
	if pa.devBranch != "" || pb.devBranch != "" {
		if pa.devBranch != "" && pb.devBranch != "" {
			return strings.Compare(pa.devBranch, pb.devBranch)
		}
		if pa.devBranch != "" {
			return -1
		}
		return 1
	}

	for i := 0; i < 4; i++ {
		if pa.nums[i] != pb.nums[i] {
			if pa.nums[i] > pb.nums[i] {
				return 1
			}
			return -1
		}
	}

	ra, rb := suffixOrder[pa.suffix], suffixOrder[pb.suffix]
	if ra != rb {
		if ra > rb {
			return 1
		}
		return -1
	}
	if pa.suffixNum != pb.suffixNum {
		if pa.suffixNum > pb.suffixNum {
			return 1
		}
		return -1
	}
	return 0
}

// Sort orders raw version strings ascending, oldest first.
func Sort(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) < 0
	})
}

// Filter returns the versions whose stability is at least min. Order is
// preserved.
func Filter(versions []string, min Stability) []string {
	var out []string
	for _, v := range versions {
		if ParseStability(v) >= min {
			out = append(out, v)
		}
	}
	return out
}
