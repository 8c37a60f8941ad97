package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/toolkit"
)

var identityName string

var schnorrCmd = &cobra.Command{
	Use:   "schnorr",
	Short: "Proves and verifies knowledge of an identity key",
}

var schnorrProveCmd = &cobra.Command{
	Use:   "prove <challenge>",
	Short: "Answers a hex challenge with the stored identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		challenge, err := decodeHexArg("challenge", args[0])
		if err != nil {
			return err
		}

		name := identityName
		if name == "" {
			name = Config.Prover.DefaultIdentity
		}

		proof, err := Service.SchnorrProve(name, challenge)
		if err != nil {
			return err
		}

		printf(cmd, "%s\n", toolkit.EncodeHex(proof))
		return nil
	},
}

var schnorrVerifyCmd = &cobra.Command{
	Use:   "verify <public key> <proof> <challenge>",
	Short: "Checks a proof of knowledge against a public key and challenge",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		publicKey, err := decodeHexArg("public key", args[0])
		if err != nil {
			return err
		}

		proof, err := decodeHexArg("proof", args[1])
		if err != nil {
			return err
		}

		challenge, err := decodeHexArg("challenge", args[2])
		if err != nil {
			return err
		}

		ok, err := Service.SchnorrVerify(publicKey, proof, challenge)
		if err != nil {
			return err
		}

		printf(cmd, "%t\n", ok)
		return nil
	},
}

func init() {
	schnorrProveCmd.Flags().StringVar(
		&identityName,
		"identity",
		"",
		"name of the stored identity (defaults to prover.defaultIdentity)",
	)
	schnorrCmd.AddCommand(schnorrProveCmd)
	schnorrCmd.AddCommand(schnorrVerifyCmd)
	rootCmd.AddCommand(schnorrCmd)
}
