package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/codec"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/toolkit"
	"gopkg.in/yaml.v2"
)

var traceOut string

// gradientStepFile is the YAML form of one local training step.
type gradientStepFile struct {
	Weights  []int64   `yaml:"weights"`
	Features [][]int64 `yaml:"features"`
	Labels   []int64   `yaml:"labels"`
	StepNum  int64     `yaml:"stepNum"`
	StepDen  int64     `yaml:"stepDen"`
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Builds computation traces",
}

var traceGradientCmd = &cobra.Command{
	Use:   "gradient <step file>",
	Short: "Encodes a linear regression gradient step as a computation trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read step")
		}

		var step gradientStepFile
		if err := yaml.UnmarshalStrict(data, &step); err != nil {
			return errors.Wrap(err, "parse step")
		}

		g := &r1cs.GradientStep{
			Weights:  step.Weights,
			Features: step.Features,
			Labels:   step.Labels,
			StepNum:  step.StepNum,
			StepDen:  step.StepDen,
		}

		trace, err := g.Trace()
		if err != nil {
			return err
		}

		cs, _, _, err := r1cs.Arithmetize(trace)
		if err != nil {
			return err
		}

		out, err := codec.EncodeTrace(trace)
		if err != nil {
			return err
		}

		if err := os.WriteFile(traceOut, out, 0600); err != nil {
			return errors.Wrap(err, "write trace")
		}

		digest := cs.Digest()
		printf(cmd, "Trace: %s (%d gates)\n", traceOut, len(trace.Gates))
		printf(cmd, "Shape: %s\n", toolkit.EncodeHex(digest[:]))
		return nil
	},
}

func init() {
	traceGradientCmd.Flags().StringVarP(
		&traceOut,
		"out",
		"o",
		"trace.cbor",
		"file the trace is written to",
	)
	traceCmd.AddCommand(traceGradientCmd)
	rootCmd.AddCommand(traceCmd)
}
