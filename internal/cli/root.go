package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"packmirror/internal/config"
	"packmirror/internal/services"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "packmirror",
	Short: "packmirror - composer package metadata registry",
	Long: `packmirror mirrors composer package metadata for a plugin ecosystem:
it discovers tagged versions from the VCS backend, tracks transitive
dependencies, and publishes a content-addressed provider tree.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadEnvFile(".env")
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(addPluginCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(addUserCmd)
}

// connect builds the shared services from the environment config.
func connect() (*services.Services, error) {
	cfg := config.Load()
	return services.New(cfg, log.Default())
}
