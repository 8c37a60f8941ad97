package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/toolkit"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manages the registry of client identities",
}

var identityRegisterCmd = &cobra.Command{
	Use:   "register <name> <public key>",
	Short: "Registers a client public key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		publicKey, err := decodeHexArg("public key", args[1])
		if err != nil {
			return err
		}

		rec, err := Service.RegisterIdentity(args[0], publicKey)
		if err != nil {
			return err
		}

		printf(cmd, "Registered %s\n", rec.Name)
		return nil
	},
}

var identityListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists registered client identities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := Service.ListIdentities()
		if err != nil {
			return err
		}

		for _, rec := range records {
			curveName := "unknown"
			if curve, err := curves.ByID(rec.Curve); err == nil {
				curveName = curve.Name()
			}

			printf(
				cmd,
				"%s\t%s\t%s\t%s\n",
				rec.Name,
				curveName,
				toolkit.EncodeHex(rec.PublicKey),
				time.Unix(rec.RegisteredAt, 0).UTC().Format(time.RFC3339),
			)
		}

		return nil
	},
}

func init() {
	identityCmd.AddCommand(identityRegisterCmd)
	identityCmd.AddCommand(identityListCmd)
	rootCmd.AddCommand(identityCmd)
}
