package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <vendor/name>",
	Short: "Delete a package with all its versions and dependency edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := connect()
		if err != nil {
			return err
		}
		defer svc.Close()

		name := args[0]
		if err := svc.DB.RemovePackage(cmd.Context(), name); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
		fmt.Printf("✅ %s removed\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
