package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"packmirror/internal/db"
)

var (
	pluginToken string
	pluginType  string
)

var addPluginCmd = &cobra.Command{
	Use:   "add-plugin <vendor/name> <repository-url>",
	Short: "Register a managed plugin and queue its first update",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := connect()
		if err != nil {
			return err
		}
		defer svc.Close()

		name, repo := args[0], args[1]
		pkg := &db.Package{
			Name:       name,
			Type:       pluginType,
			Repository: &repo,
			Managed:    true,
		}
		if err := svc.DB.SavePackage(cmd.Context(), pkg); err != nil {
			return fmt.Errorf("save package: %w", err)
		}

		plugin := &db.Plugin{Name: name}
		if pluginToken != "" {
			plugin.VcsToken = &pluginToken
		}
		if err := svc.DB.CreatePlugin(cmd.Context(), plugin); err != nil {
			return fmt.Errorf("save plugin: %w", err)
		}

		if err := svc.Queue.EnqueueUpdate(cmd.Context(), name, false); err != nil {
			return fmt.Errorf("enqueue update: %w", err)
		}
		fmt.Printf("✅ %s registered, update queued\n", name)
		return nil
	},
}

func init() {
	addPluginCmd.Flags().StringVar(&pluginToken, "token", "", "VCS token for this plugin")
	addPluginCmd.Flags().StringVar(&pluginType, "type", "composer-plugin", "composer package type")
}
