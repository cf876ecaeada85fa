package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// constraint is a single comparison against a normalized boundary
// version. op is one of == != > >= < <=.
type constraint struct {
	op      string
	version string
}

func (c constraint) match(version string) bool {
	cmp := Compare(version, c.version)
	switch c.op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	}
	return false
}

// matchAny is the wildcard constraint "*".
var matchAny = constraint{op: ">=", version: "0.0.0.0-dev"}

// ParseConstraints parses a Composer constraint expression into OR-groups
// of AND-ed comparisons. Supported syntax: exact versions, comparison
// operators, "*" wildcards, "~" and "^" shorthands, hyphen ranges, ","
// or whitespace for AND, "||" or "|" for OR, and "@stability" suffixes
// (trimmed).
func ParseConstraints(expr string) ([][]constraint, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty constraint")
	}

	var groups [][]constraint
	for _, orPart := range splitOr(expr) {
		group, err := parseAndGroup(orPart)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func splitOr(expr string) []string {
	expr = strings.ReplaceAll(expr, "||", "\x00")
	expr = strings.ReplaceAll(expr, "|", "\x00")
	parts := strings.Split(expr, "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAndGroup(expr string) ([]constraint, error) {
	// Hyphen ranges use a spaced dash and bind the whole group.
	if lo, hi, ok := splitHyphenRange(expr); ok {
		return hyphenRange(lo, hi)
	}

	var group []constraint
	expr = strings.ReplaceAll(expr, ",", " ")
	for _, tok := range strings.Fields(expr) {
		cs, err := parseSimple(tok)
		if err != nil {
			return nil, err
		}
		group = append(group, cs...)
	}
	if len(group) == 0 {
		return nil, fmt.Errorf("empty constraint group")
	}
	return group, nil
}

func splitHyphenRange(expr string) (lo, hi string, ok bool) {
	idx := strings.Index(expr, " - ")
	if idx == -1 {
		return "", "", false
	}
	lo = strings.TrimSpace(expr[:idx])
	hi = strings.TrimSpace(expr[idx+3:])
	if lo == "" || hi == "" {
		return "", "", false
	}
	return lo, hi, true
}

func parseSimple(tok string) ([]constraint, error) {
	tok = stripStabilityFlag(tok)
	if tok == "" {
		return nil, fmt.Errorf("empty constraint token")
	}
	if tok == "*" || tok == "*.*" || tok == "*.*.*" {
		return []constraint{matchAny}, nil
	}

	switch {
	case strings.HasPrefix(tok, "^"):
		return caretRange(tok[1:])
	case strings.HasPrefix(tok, "~"):
		return tildeRange(tok[1:])
	case strings.HasPrefix(tok, ">="):
		return exactOp(">=", tok[2:])
	case strings.HasPrefix(tok, "<="):
		return exactOp("<=", tok[2:])
	case strings.HasPrefix(tok, "!="):
		return exactOp("!=", tok[2:])
	case strings.HasPrefix(tok, "<>"):
		return exactOp("!=", tok[2:])
	case strings.HasPrefix(tok, ">"):
		return exactOp(">", tok[1:])
	case strings.HasPrefix(tok, "<"):
		return exactOp("<", tok[1:])
	case strings.HasPrefix(tok, "=="):
		return exactOp("==", tok[2:])
	case strings.HasPrefix(tok, "="):
		return exactOp("==", tok[1:])
	}

	if strings.ContainsAny(tok, "*xX") {
		return wildcardRange(tok)
	}
	return exactOp("==", tok)
}

func stripStabilityFlag(tok string) string {
	if idx := strings.Index(tok, "@"); idx != -1 {
		tok = tok[:idx]
	}
	return strings.TrimSpace(tok)
}

func exactOp(op, version string) ([]constraint, error) {
	version = strings.TrimSpace(version)
	normalized, err := Normalize(version)
	if err != nil {
		return nil, fmt.Errorf("constraint boundary: %w", err)
	}
	return []constraint{{op: op, version: normalized}}, nil
}

// versionDigits splits the numeric prefix of a version token, returning
// the digits and the count the author actually wrote.
func versionDigits(version string) ([]int64, error) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	main := version
	if idx := strings.IndexAny(version, "-_+"); idx != -1 {
		main = version[:idx]
	}
	parts := strings.Split(main, ".")
	if len(parts) > 4 {
		return nil, fmt.Errorf("too many version components in %q", version)
	}
	digits := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid version component %q", p)
		}
		digits = append(digits, n)
	}
	return digits, nil
}

func boundary(digits []int64) string {
	full := []int64{0, 0, 0, 0}
	copy(full, digits)
	parts := make([]string, 4)
	for i, d := range full {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return strings.Join(parts, ".")
}

// caretRange implements "^": up to the next significant release of the
// leftmost non-zero component.
func caretRange(version string) ([]constraint, error) {
	digits, err := versionDigits(version)
	if err != nil {
		return nil, err
	}
	lower, err := Normalize(version)
	if err != nil {
		return nil, err
	}

	upper := make([]int64, len(digits))
	copy(upper, digits)
	pos := 0
	for pos < len(upper)-1 && upper[pos] == 0 {
		pos++
	}
	upper[pos]++
	for i := pos + 1; i < len(upper); i++ {
		upper[i] = 0
	}
	return []constraint{
		{op: ">=", version: lower},
		{op: "<", version: boundary(upper[:pos+1]) + "-dev"},
	}, nil
}

// tildeRange implements "~": the last written component may grow.
func tildeRange(version string) ([]constraint, error) {
	digits, err := versionDigits(version)
	if err != nil {
		return nil, err
	}
	lower, err := Normalize(version)
	if err != nil {
		return nil, err
	}
	var upper []int64
	if len(digits) < 2 {
		upper = []int64{digits[0] + 1}
	} else {
		upper = make([]int64, len(digits)-1)
		copy(upper, digits[:len(digits)-1])
		upper[len(upper)-1]++
	}
	return []constraint{
		{op: ">=", version: lower},
		{op: "<", version: boundary(upper) + "-dev"},
	}, nil
}

// wildcardRange implements "1.2.*" style constraints.
func wildcardRange(version string) ([]constraint, error) {
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	var digits []int64
	for _, p := range parts {
		if p == "*" || p == "x" || p == "X" {
			break
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid wildcard constraint %q", version)
		}
		digits = append(digits, n)
	}
	if len(digits) == 0 {
		return []constraint{matchAny}, nil
	}

	upper := make([]int64, len(digits))
	copy(upper, digits)
	upper[len(upper)-1]++
	return []constraint{
		{op: ">=", version: boundary(digits) + "-dev"},
		{op: "<", version: boundary(upper) + "-dev"},
	}, nil
}

// hyphenRange implements "1.0 - 2.0": inclusive lower bound; the upper
// bound is inclusive when fully specified, otherwise anything below the
// next significant release is admitted.
func hyphenRange(lo, hi string) ([]constraint, error) {
	lower, err := Normalize(lo)
	if err != nil {
		return nil, err
	}
	hiDigits, err := versionDigits(hi)
	if err != nil {
		return nil, err
	}
	if len(hiDigits) >= 3 {
		upper, err := Normalize(hi)
		if err != nil {
			return nil, err
		}
		return []constraint{{op: ">=", version: lower}, {op: "<=", version: upper}}, nil
	}

	upper := make([]int64, len(hiDigits))
	copy(upper, hiDigits)
	upper[len(upper)-1]++
	return []constraint{
		{op: ">=", version: lower},
		{op: "<", version: boundary(upper) + "-dev"},
	}, nil
}

// Satisfies reports whether version fulfills the constraint expression.
// Invalid expressions and invalid versions never match.
func Satisfies(version, expr string) bool {
	groups, err := ParseConstraints(expr)
	if err != nil {
		return false
	}
	normalized, err := Normalize(version)
	if err != nil {
		return false
	}
	for _, group := range groups {
		all := true
		for _, c := range group {
			if !c.match(normalized) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
