// Package cmd implements the zkp command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/app"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/toolkit"
)

var configDirectory string
var Config *config.Config
var Service *app.Service

var rootCmd = &cobra.Command{
	Use:           "zkp",
	Short:         "Zero-knowledge proofs for federated learning",
	Version:       config.GetVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		Config, err = config.LoadConfig(configDirectory)
		if err != nil {
			return errors.Wrapf(err, "invalid config directory: %s", configDirectory)
		}

		Service, err = app.NewService(Config)
		return errors.Wrap(err, "could not start")
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return nil
		}

		err := Service.Close()
		Service = nil
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if Service != nil {
			Service.Close()
			Service = nil
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configDirectory,
		"config",
		".config",
		"config directory (default is .config/)",
	)
}

func decodeHexArg(name string, value string) ([]byte, error) {
	b, err := toolkit.DecodeHex(value)
	return b, errors.Wrap(err, name)
}

func printf(cmd *cobra.Command, format string, a ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
