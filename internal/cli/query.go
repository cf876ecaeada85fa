package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"packmirror/internal/semver"
)

var queryStability string

var latestCmd = &cobra.Command{
	Use:   "latest <vendor/name>",
	Short: "Print the newest version above the stability floor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := connect()
		if err != nil {
			return err
		}
		defer svc.Close()

		min, err := semver.ParseStabilityName(queryStability)
		if err != nil {
			return err
		}
		latest, err := svc.Registry.LatestVersion(cmd.Context(), args[0], min)
		if err != nil {
			return err
		}
		fmt.Println(latest)
		return nil
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <vendor/name>",
	Short: "List stored versions above the stability floor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := connect()
		if err != nil {
			return err
		}
		defer svc.Close()

		min, err := semver.ParseStabilityName(queryStability)
		if err != nil {
			return err
		}
		versions, err := svc.Registry.Versions(cmd.Context(), args[0], min)
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Println(v)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{latestCmd, versionsCmd} {
		cmd.Flags().StringVar(&queryStability, "stability", "stable", "minimum stability (dev, alpha, beta, RC, stable)")
	}
}
