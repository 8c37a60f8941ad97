package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var round uint64
var aggregateOut string

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <proof file>...",
	Short: "Verifies statement proofs and folds them into one aggregate proof",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proofs, err := readFiles(args)
		if err != nil {
			return err
		}

		agg, err := Service.Aggregate(cmd.Context(), round, proofs)
		if err != nil {
			return err
		}

		if err := os.WriteFile(aggregateOut, agg, 0600); err != nil {
			return errors.Wrap(err, "write aggregate")
		}

		printf(cmd, "Aggregate: %s (%d proofs, %d bytes)\n", aggregateOut, len(proofs), len(agg))
		return nil
	},
}

var verifyAggregateCmd = &cobra.Command{
	Use:   "verify-aggregate [aggregate file]",
	Short: "Checks an aggregate proof, or the latest stored one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var agg []byte
		if len(args) == 1 {
			var err error
			agg, err = os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read aggregate")
			}
		} else {
			rec, err := Service.GetAggregateStore().GetLatestAggregate()
			if err != nil {
				return errors.Wrap(err, "latest aggregate")
			}

			printf(cmd, "Round: %d\n", rec.Round)
			agg = rec.Proof
		}

		ok, err := Service.VerifyAggregate(agg)
		if err != nil {
			return err
		}

		printf(cmd, "%t\n", ok)
		return nil
	},
}

func init() {
	aggregateCmd.Flags().Uint64Var(&round, "round", 0, "training round the aggregate is stored under")
	aggregateCmd.Flags().StringVarP(
		&aggregateOut,
		"out",
		"o",
		"aggregate.zkfl",
		"file the aggregate is written to",
	)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(verifyAggregateCmd)
}
