package identity

import (
	"io"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// NewMnemonic returns a 24 word BIP-39 phrase drawn from rand.
func NewMnemonic(rand io.Reader) (string, error) {
	entropy := make([]byte, 32)
	if _, err := io.ReadFull(rand, entropy); err != nil {
		return "", zkerr.Entropy(err, "new mnemonic")
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	return mnemonic, errors.Wrap(err, "new mnemonic")
}

// KeyPairFromMnemonic uses the first scalar-length bytes of the BIP-39 seed
// as the secret key. Curves whose order is too small for that prefix to be a
// canonical scalar hash the whole seed instead.
func KeyPairFromMnemonic(
	curve curves.Curve,
	mnemonic string,
	passphrase string,
) (*KeyPair, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidMnemonic, err.Error())
	}

	sk, err := ParseSecretKey(curve, seed[:curve.ScalarLength()])
	if err != nil {
		sk = curve.HashToScalar(seed)
		if sk.IsZero() {
			return nil, errors.Wrap(ErrInvalidMnemonic, "zero scalar")
		}
	}

	return &KeyPair{
		Curve:     curve,
		SecretKey: sk.Bytes(),
		PublicKey: curve.Generator().Mul(sk).Bytes(),
	}, nil
}
