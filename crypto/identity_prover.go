package crypto

import "github.com/zkfl/zkptoolkit/crypto/identity"

type IdentityProver interface {
	GenerateKeyPair() (*identity.KeyPair, error)
	KeyPairFromMnemonic(mnemonic string, passphrase string) (
		*identity.KeyPair,
		error,
	)
	Prove(secretKey []byte, publicKey []byte, challenge []byte) ([]byte, error)
	Verify(publicKey []byte, proof []byte, challenge []byte) (bool, error)
}
