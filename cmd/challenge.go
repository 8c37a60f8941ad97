package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/toolkit"
)

var challengeRound uint64

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Issues identity challenges",
}

var challengeIssueCmd = &cobra.Command{
	Use:   "issue <public key>",
	Short: "Issues a single-use challenge to a registered identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		publicKey, err := decodeHexArg("public key", args[0])
		if err != nil {
			return err
		}

		ch, err := Service.IssueChallenge(publicKey, challengeRound)
		if err != nil {
			return err
		}

		printf(cmd, "Challenge: %s\n", toolkit.EncodeHex(ch.Value))
		printf(cmd, "Round: %d\n", ch.Round)
		printf(cmd, "Expires: %s\n", ch.ExpiresAt.UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	challengeIssueCmd.Flags().Uint64Var(&challengeRound, "round", 0, "training round the challenge is bound to")
	challengeCmd.AddCommand(challengeIssueCmd)
	rootCmd.AddCommand(challengeCmd)
}
