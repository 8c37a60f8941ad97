package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/toolkit"
)

var circuit config.CircuitConfig

var circuitCmd = &cobra.Command{
	Use:   "circuit",
	Short: "Manages the constraint systems statements are proven over",
}

var circuitPinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Pins the gradient step circuit of a training setup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := circuit
		cs, err := c.Shape()
		if err != nil {
			return err
		}

		digest := cs.Digest()
		pinned, err := Config.Prover.TrustedDigests()
		if err != nil {
			return err
		}

		for _, d := range pinned {
			if d == digest {
				printf(cmd, "Already pinned: %s\n", toolkit.EncodeHex(digest[:]))
				return nil
			}
		}

		Config.Prover.Circuits = append(Config.Prover.Circuits, &c)
		if err := config.SaveConfig(configDirectory, Config); err != nil {
			return errors.Wrap(err, "save config")
		}

		printf(cmd, "Pinned: %s (%d constraints)\n", toolkit.EncodeHex(digest[:]), cs.NumConstraints())
		return nil
	},
}

var circuitListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists pinned constraint system digests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		digests, err := Config.Prover.TrustedDigests()
		if err != nil {
			return err
		}

		for _, d := range digests {
			printf(cmd, "%s\n", toolkit.EncodeHex(d[:]))
		}

		return nil
	},
}

func init() {
	flags := circuitPinCmd.Flags()
	flags.IntVar(&circuit.Dimension, "dimension", 0, "number of model weights")
	flags.IntVar(&circuit.BatchSize, "batch-size", 0, "number of samples per step")
	flags.Int64Var(&circuit.StepNum, "step-num", 1, "learning rate numerator")
	flags.Int64Var(&circuit.StepDen, "step-den", 1, "learning rate denominator")

	circuitCmd.AddCommand(circuitPinCmd)
	circuitCmd.AddCommand(circuitListCmd)
	rootCmd.AddCommand(circuitCmd)
}
