package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/toolkit"
)

var proofOut string

var statementCmd = &cobra.Command{
	Use:   "statement",
	Short: "Proves and verifies computation traces",
}

var statementProveCmd = &cobra.Command{
	Use:   "prove <trace file>...",
	Short: "Folds the traces in order into one session and writes the final proof",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		traces, err := readFiles(args)
		if err != nil {
			return err
		}

		proof, publicInstance, err := Service.StatementProve(traces)
		if err != nil {
			return err
		}

		if err := os.WriteFile(proofOut, proof, 0600); err != nil {
			return errors.Wrap(err, "write proof")
		}

		printf(cmd, "Proof: %s (%d bytes)\n", proofOut, len(proof))
		printf(cmd, "Public instance: %s\n", toolkit.EncodeHex(publicInstance))
		return nil
	},
}

var statementVerifyCmd = &cobra.Command{
	Use:   "verify <proof file> <public instance>",
	Short: "Checks a statement proof against the expected public instance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		proof, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read proof")
		}

		publicInstance, err := decodeHexArg("public instance", args[1])
		if err != nil {
			return err
		}

		ok, err := Service.StatementVerify(proof, publicInstance)
		if err != nil {
			return err
		}

		printf(cmd, "%t\n", ok)
		return nil
	},
}

func readFiles(paths []string) ([][]byte, error) {
	out := make([][]byte, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read file")
		}

		out[i] = data
	}

	return out, nil
}

func init() {
	statementProveCmd.Flags().StringVarP(
		&proofOut,
		"out",
		"o",
		"statement.zkfl",
		"file the proof is written to",
	)
	statementCmd.AddCommand(statementProveCmd)
	statementCmd.AddCommand(statementVerifyCmd)
	rootCmd.AddCommand(statementCmd)
}
