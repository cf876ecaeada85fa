package db

import (
	"time"
)

// Package represents one composer package name in the registry.
// Managed packages are plugins we track proactively; unmanaged ones are
// transitive libraries pulled in because something requires them.
type Package struct {
	ID                 int       `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Type               string    `db:"type" json:"type"`
	Repository         *string   `db:"repository" json:"repository"`
	Managed            bool      `db:"managed" json:"managed"`
	Abandoned          bool      `db:"abandoned" json:"abandoned"`
	ReplacementPackage *string   `db:"replacement_package" json:"replacement_package"`
	LatestVersion      *string   `db:"latest_version" json:"latest_version"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// PackageVersion is one tagged release of a package. Mixed-shape
// composer manifest fields are kept as raw JSON text so unknown keys
// survive the store/emit round-trip.
type PackageVersion struct {
	ID                int       `db:"id" json:"id"`
	PackageID         int       `db:"package_id" json:"package_id"`
	Version           string    `db:"version" json:"version"`
	NormalizedVersion string    `db:"normalized_version" json:"normalized_version"`
	Stability         string    `db:"stability" json:"stability"`
	SHA               string    `db:"sha" json:"sha"`
	Description       *string   `db:"description" json:"description"`
	Keywords          *string   `db:"keywords" json:"keywords"`
	Homepage          *string   `db:"homepage" json:"homepage"`
	Released          *string   `db:"released" json:"released"`
	License           *string   `db:"license" json:"license"`
	Authors           *string   `db:"authors" json:"authors"`
	Support           *string   `db:"support" json:"support"`
	Conflict          *string   `db:"conflict" json:"conflict"`
	Replace           *string   `db:"replace" json:"replace"`
	Provide           *string   `db:"provide" json:"provide"`
	Suggest           *string   `db:"suggest" json:"suggest"`
	Autoload          *string   `db:"autoload" json:"autoload"`
	IncludePaths      *string   `db:"include_paths" json:"include_paths"`
	TargetDir         *string   `db:"target_dir" json:"target_dir"`
	Extra             *string   `db:"extra" json:"extra"`
	Binaries          *string   `db:"binaries" json:"binaries"`
	Source            *string   `db:"source" json:"source"`
	Dist              *string   `db:"dist" json:"dist"`
	Changelog         *string   `db:"changelog" json:"changelog"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// DependencyEdge records one require entry of a stored version. The
// target name is not a foreign key; the target package may not exist yet.
type DependencyEdge struct {
	ID          int    `db:"id" json:"id"`
	PackageID   int    `db:"package_id" json:"package_id"`
	VersionID   int    `db:"version_id" json:"version_id"`
	Name        string `db:"name" json:"name"`
	Constraints string `db:"constraints" json:"constraints"`
}

// Plugin mirrors an operator-registered plugin record. The engine only
// writes latest_version; the token feeds the VCS adapter factory.
type Plugin struct {
	ID            int     `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	LatestVersion *string `db:"latest_version" json:"latest_version"`
	VcsToken      *string `db:"vcs_token" json:"-"`
}

// User is an operator account for the API login endpoint.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// VersionRef is the (id, sha) pair the reconciler diffs against VCS
// reported state.
type VersionRef struct {
	ID      int    `db:"id"`
	Version string `db:"version"`
	SHA     string `db:"sha"`
}
