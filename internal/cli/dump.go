package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dumpRemote bool

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Republish the provider JSON tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dumpRemote {
			if err := remotePost("/api/v1/dump"); err != nil {
				return err
			}
			fmt.Println("✅ dump queued remotely")
			return nil
		}

		svc, err := connect()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Emitter.DumpProviderJSON(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("✅ provider tree written to %s\n", svc.Config.Webroot)
		return nil
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpRemote, "remote", false, "queue the dump through the API instead of running locally")
}
