package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the build and encoding versions",
	Args:  cobra.NoArgs,
	// needs neither config nor service
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		printf(cmd, "Version: %s\n", config.GetVersionString())
		printf(
			cmd,
			"Minimum encoding version: %s\n",
			config.FormatVersion(config.GetMinimumVersion()),
		)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
