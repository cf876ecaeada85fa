package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"packmirror/internal/auth"
)

var userPassword string

var addUserCmd = &cobra.Command{
	Use:   "add-user <username>",
	Short: "Create an operator account for the API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userPassword == "" {
			return fmt.Errorf("--password is required")
		}

		svc, err := connect()
		if err != nil {
			return err
		}
		defer svc.Close()

		hash, err := auth.HashPassword(userPassword)
		if err != nil {
			return err
		}
		user, err := svc.DB.CreateUser(cmd.Context(), args[0], hash)
		if err != nil {
			return err
		}
		fmt.Printf("✅ user %s created (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	addUserCmd.Flags().StringVar(&userPassword, "password", "", "password for the new account")
}
