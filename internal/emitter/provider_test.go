package emitter

import (
	"bytes"
	"encoding/json"
	"testing"

	"packmirror/internal/db"
)

// fieldOrder extracts the top-level key sequence of a JSON object.
func fieldOrder(t *testing.T, data []byte) []string {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		t.Fatalf("not an object: %v %v", tok, err)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			t.Fatal(err)
		}
		key, ok := tok.(string)
		if !ok {
			t.Fatalf("expected object key, got %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			t.Fatal(err)
		}
	}
	return keys
}

func TestVersionObjectFieldOrder(t *testing.T) {
	pkg := &db.Package{ID: 1, Name: "acme/plugin", Type: "composer-plugin"}
	release := &db.PackageVersion{
		ID: 42, PackageID: 1, Version: "1.0.0", NormalizedVersion: "1.0.0.0",
		Description: strPtr("desc"),
		Released:    strPtr("2024-01-01T00:00:00+00:00"),
		Autoload:    strPtr(`{"psr-4":{"Acme\\":"src/"}}`),
		Suggest:     strPtr(`{"acme/extra":"sparkle"}`),
	}
	edges := []db.DependencyEdge{
		{Name: "psr/log", Constraints: "^1.0"},
	}

	data, err := versionObject(pkg, release, edges)
	if err != nil {
		t.Fatal(err)
	}
	if err := mustValid(data); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"name", "description", "keywords", "homepage", "version",
		"version_normalized", "license", "authors", "dist", "type",
		"time", "autoload", "require", "suggest", "uid",
	}
	got := fieldOrder(t, data)
	if len(got) != len(want) {
		t.Fatalf("field order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field order = %v, want %v", got, want)
		}
	}
}

func TestVersionObjectOmitsEmptyOptionals(t *testing.T) {
	pkg := &db.Package{ID: 1, Name: "acme/plugin", Type: "library"}
	release := &db.PackageVersion{ID: 7, Version: "1.0.0", NormalizedVersion: "1.0.0.0"}

	data, err := versionObject(pkg, release, nil)
	if err != nil {
		t.Fatal(err)
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatal(err)
	}

	for _, absent := range []string{"time", "autoload", "extra", "target-dir", "include-path", "bin", "require", "suggest", "conflict", "provide", "replace", "abandoned", "support", "source"} {
		if _, ok := obj[absent]; ok {
			t.Errorf("field %q should be omitted when empty", absent)
		}
	}
	// coerced and defaulted fields are always present
	if obj["description"] != "" {
		t.Errorf("description = %v, want empty string", obj["description"])
	}
	if dist, present := obj["dist"]; !present || dist != nil {
		t.Errorf("dist = %v, want null", dist)
	}
	if obj["uid"] != float64(7) {
		t.Errorf("uid = %v", obj["uid"])
	}
}

func TestReencodeCanonicalizes(t *testing.T) {
	// same object, different key order and spacing
	a := reencode(`{"b": 1,  "a": 2}`)
	b := reencode(`{"a":2,"b":1}`)
	if string(a) != string(b) {
		t.Errorf("reencode not canonical: %s vs %s", a, b)
	}

	// undecodable text survives as a JSON string
	got := reencode("not json")
	if string(got) != `"not json"` {
		t.Errorf("reencode fallback = %s", got)
	}
}

func TestRequireObjectSorted(t *testing.T) {
	edges := []db.DependencyEdge{
		{Name: "zeta/pkg", Constraints: "^2.0"},
		{Name: "alpha/pkg", Constraints: "^1.0"},
		{Name: "php", Constraints: ">=8.0"},
	}
	data := requireObject(edges)

	keys := fieldOrder(t, data)
	want := []string{"alpha/pkg", "php", "zeta/pkg"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("require keys = %v, want %v", keys, want)
		}
	}
}
