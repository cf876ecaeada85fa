package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	updateForce  bool
	updateRemote bool
)

var updateCmd = &cobra.Command{
	Use:   "update <vendor/name>",
	Short: "Reconcile a package against its VCS backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if updateRemote {
			path := "/api/v1/packages/" + name + "/update"
			if updateForce {
				path += "?force=true"
			}
			if err := remotePost(path); err != nil {
				return err
			}
			fmt.Printf("✅ update for %s queued remotely\n", name)
			return nil
		}

		svc, err := connect()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Engine.UpdatePackage(cmd.Context(), name, updateForce); err != nil {
			return fmt.Errorf("update %s: %w", name, err)
		}
		fmt.Printf("✅ %s reconciled\n", name)
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "re-ingest versions even when shas match")
	updateCmd.Flags().BoolVar(&updateRemote, "remote", false, "queue the update through the API instead of running locally")
}
