package db

import (
	"context"
)

// GetPlugin retrieves the operator-registered plugin record for a
// managed package name, or nil if none is registered.
func (db *DB) GetPlugin(ctx context.Context, name string) (*Plugin, error) {
	var plugin Plugin
	err := db.GetContext(ctx, &plugin, `
        SELECT id, name, latest_version, vcs_token FROM plugins WHERE name = $1`, name)
	if err != nil {
		if wrapErr(err) == ErrNotFound {
			return nil, nil
		}
		return nil, wrapErr(err)
	}
	return &plugin, nil
}

// CreatePlugin registers a plugin record alongside its managed package.
func (db *DB) CreatePlugin(ctx context.Context, plugin *Plugin) error {
	err := db.GetContext(ctx, plugin, `
        INSERT INTO plugins (name, latest_version, vcs_token)
        VALUES ($1, $2, $3)
        RETURNING id, name, latest_version, vcs_token`,
		plugin.Name, plugin.LatestVersion, plugin.VcsToken)
	return wrapErr(err)
}

// SetPluginLatest mirrors the package's latest version onto the plugin
// record.
func (db *DB) SetPluginLatest(ctx context.Context, pluginID int, version string) error {
	_, err := db.ExecContext(ctx, `
        UPDATE plugins SET latest_version = $2 WHERE id = $1`, pluginID, version)
	return wrapErr(err)
}
