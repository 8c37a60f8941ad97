package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/toolkit"
	"golang.org/x/term"
)

var useMnemonic bool
var restoreMnemonic string
var mnemonicPassphrase string
var promptForPassphrase bool

var keygenCmd = &cobra.Command{
	Use:   "keygen [name]",
	Short: "Creates a new identity key pair and stores it under name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := Config.Prover.DefaultIdentity
		if len(args) == 1 {
			name = args[0]
		}

		var kp *identity.KeyPair
		var phrase string
		var err error
		switch {
		case restoreMnemonic != "":
			if promptForPassphrase {
				mnemonicPassphrase, err = readPassphrase(cmd)
				if err != nil {
					return err
				}
			}
			kp, err = Service.RestoreIdentity(
				name,
				strings.TrimSpace(restoreMnemonic),
				mnemonicPassphrase,
			)
		default:
			kp, phrase, err = Service.CreateIdentity(name, useMnemonic)
		}
		if err != nil {
			return err
		}

		printf(cmd, "Identity: %s\n", name)
		printf(cmd, "Curve: %s\n", kp.Curve.Name())
		printf(cmd, "Public key: %s\n", toolkit.EncodeHex(kp.PublicKey))
		if phrase != "" {
			printf(cmd, "Mnemonic: %s\n", phrase)
		}

		return nil
	},
}

func init() {
	keygenCmd.Flags().BoolVar(
		&useMnemonic,
		"mnemonic",
		false,
		"derive the key from a new BIP-39 mnemonic and print it",
	)
	keygenCmd.Flags().StringVar(
		&restoreMnemonic,
		"restore",
		"",
		"restore the key derived from an existing mnemonic",
	)
	keygenCmd.Flags().StringVar(
		&mnemonicPassphrase,
		"passphrase",
		"",
		"BIP-39 passphrase used with --restore",
	)
	keygenCmd.Flags().BoolVar(
		&promptForPassphrase,
		"passphrase-prompt",
		false,
		"read the BIP-39 passphrase from the terminal without echo",
	)
	rootCmd.AddCommand(keygenCmd)
}

// readPassphrase reads without echo when stdin is a terminal, and falls back
// to the first line of the command input otherwise.
func readPassphrase(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		printf(cmd, "Passphrase: ")
		b, err := term.ReadPassword(int(f.Fd()))
		printf(cmd, "\n")
		if err != nil {
			return "", errors.Wrap(err, "read passphrase")
		}

		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "read passphrase")
	}

	return strings.TrimRight(line, "\r\n"), nil
}
