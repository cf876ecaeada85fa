package emitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"packmirror/internal/db"
)

// jsonObject accumulates key/value pairs in insertion order. The
// provider protocol hashes file content, so field order must never
// depend on map iteration.
type jsonObject struct {
	buf   bytes.Buffer
	count int
	err   error
}

func (o *jsonObject) raw(name string, raw []byte) {
	if o.err != nil {
		return
	}
	if o.count > 0 {
		o.buf.WriteByte(',')
	}
	key, err := json.Marshal(name)
	if err != nil {
		o.err = err
		return
	}
	o.buf.Write(key)
	o.buf.WriteByte(':')
	o.buf.Write(raw)
	o.count++
}

func (o *jsonObject) field(name string, value any) {
	if o.err != nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		o.err = err
		return
	}
	o.raw(name, data)
}

func (o *jsonObject) bytes() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	return append(append([]byte{'{'}, o.buf.Bytes()...), '}'), nil
}

// reencode canonicalizes a stored raw-JSON string: decoding and
// re-marshaling sorts object keys, so hashes do not depend on the
// whitespace or key order the original manifest used. Undecodable text
// is emitted as a JSON string.
func reencode(raw string) []byte {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		data, _ := json.Marshal(raw)
		return data
	}
	data, err := json.Marshal(value)
	if err != nil {
		out, _ := json.Marshal(raw)
		return out
	}
	return data
}

// stringCoerced renders a nullable text column as a JSON string,
// defaulting to "".
func stringCoerced(s *string) []byte {
	if s == nil {
		data, _ := json.Marshal("")
		return data
	}
	data, _ := json.Marshal(*s)
	return data
}

// versionObject emits one release in the fixed provider field order.
// Empty optional fields are omitted; keywords, license and authors
// default to [], dist to null. support and source are intentionally
// not published.
func versionObject(pkg *db.Package, release *db.PackageVersion, edges []db.DependencyEdge) ([]byte, error) {
	obj := &jsonObject{}

	obj.field("name", pkg.Name)
	obj.raw("description", stringCoerced(release.Description))
	obj.raw("keywords", rawOrDefault(release.Keywords, "[]"))
	obj.raw("homepage", stringCoerced(release.Homepage))
	obj.field("version", release.Version)
	obj.field("version_normalized", release.NormalizedVersion)
	obj.raw("license", rawOrDefault(release.License, "[]"))
	obj.raw("authors", rawOrDefault(release.Authors, "[]"))
	obj.raw("dist", rawOrDefault(release.Dist, "null"))
	obj.field("type", pkg.Type)

	if release.Released != nil {
		obj.field("time", *release.Released)
	}
	optionalRaw(obj, "autoload", release.Autoload)
	optionalRaw(obj, "extra", release.Extra)
	if release.TargetDir != nil {
		obj.field("target-dir", *release.TargetDir)
	}
	optionalRaw(obj, "include-path", release.IncludePaths)
	optionalRaw(obj, "bin", release.Binaries)

	if len(edges) > 0 {
		obj.raw("require", requireObject(edges))
	}
	optionalRaw(obj, "suggest", release.Suggest)
	optionalRaw(obj, "conflict", release.Conflict)
	optionalRaw(obj, "provide", release.Provide)
	optionalRaw(obj, "replace", release.Replace)

	if pkg.Abandoned {
		if pkg.ReplacementPackage != nil && *pkg.ReplacementPackage != "" {
			obj.field("abandoned", *pkg.ReplacementPackage)
		} else {
			obj.field("abandoned", true)
		}
	}
	obj.field("uid", release.ID)

	return obj.bytes()
}

func optionalRaw(obj *jsonObject, name string, value *string) {
	if value == nil || *value == "" || *value == "null" {
		return
	}
	data := reencode(*value)
	if string(data) == "[]" || string(data) == "{}" {
		return
	}
	obj.raw(name, data)
}

func rawOrDefault(value *string, def string) []byte {
	if value == nil || *value == "" || *value == "null" {
		return []byte(def)
	}
	return reencode(*value)
}

// requireObject renders dependency edges as a name-sorted constraint
// map.
func requireObject(edges []db.DependencyEdge) []byte {
	sorted := make([]db.DependencyEdge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	obj := &jsonObject{}
	for _, e := range sorted {
		obj.field(e.Name, e.Constraints)
	}
	data, err := obj.bytes()
	if err != nil {
		return []byte("{}")
	}
	return data
}

// providerFile composes p/<name>/<hash>.json content: every release of
// one package, ordered by normalized version.
func providerFile(pkg *db.Package, releases []db.PackageVersion, edgesByVersion map[int][]db.DependencyEdge) ([]byte, error) {
	sorted := make([]db.PackageVersion, len(releases))
	copy(sorted, releases)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].NormalizedVersion < sorted[j].NormalizedVersion
	})

	versions := &jsonObject{}
	for i := range sorted {
		release := &sorted[i]
		obj, err := versionObject(pkg, release, edgesByVersion[release.ID])
		if err != nil {
			return nil, err
		}
		versions.raw(release.Version, obj)
	}
	versionsData, err := versions.bytes()
	if err != nil {
		return nil, err
	}

	inner := &jsonObject{}
	inner.raw(pkg.Name, versionsData)
	innerData, err := inner.bytes()
	if err != nil {
		return nil, err
	}

	root := &jsonObject{}
	root.raw("packages", innerData)
	return root.bytes()
}

// providerIndex composes p/provider/<hash>.json: the name-sorted map of
// package name to provider file hash.
func providerIndex(providers map[string]string) ([]byte, error) {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	inner := &jsonObject{}
	for _, name := range names {
		entry := &jsonObject{}
		entry.field("sha256", providers[name])
		data, err := entry.bytes()
		if err != nil {
			return nil, err
		}
		inner.raw(name, data)
	}
	innerData, err := inner.bytes()
	if err != nil {
		return nil, err
	}

	root := &jsonObject{}
	root.raw("providers", innerData)
	return root.bytes()
}

// rootManifest composes packages.json. The packages array stays empty;
// clients follow provider-includes and providers-url.
func rootManifest(indexHash string) ([]byte, error) {
	include := &jsonObject{}
	include.field("sha256", indexHash)
	includeData, err := include.bytes()
	if err != nil {
		return nil, err
	}

	includes := &jsonObject{}
	includes.raw("p/provider/%hash%.json", includeData)
	includesData, err := includes.bytes()
	if err != nil {
		return nil, err
	}

	root := &jsonObject{}
	root.field("packages", []any{})
	root.raw("provider-includes", includesData)
	root.field("providers-url", "/p/%package%/%hash%.json")
	data, err := root.bytes()
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Sanity check: every emitted file must be valid JSON. Used by tests.
func mustValid(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("emitted invalid JSON: %w", err)
	}
	return nil
}
