package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"io"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

// KeyPair is a prover identity. PublicKey is always SecretKey·G on Curve.
type KeyPair struct {
	Curve     curves.Curve
	SecretKey []byte
	PublicKey []byte
}

type Generator struct {
	curve curves.Curve
	rand  io.Reader
}

func NewGenerator(curve curves.Curve, rand io.Reader) *Generator {
	return &Generator{
		curve: curve,
		rand:  rand,
	}
}

func DefaultGenerator() *Generator {
	return NewGenerator(curves.Secp256k1(), rand.Reader)
}

func (g *Generator) Curve() curves.Curve {
	return g.curve
}

// Generate draws a fresh secret key. A failing entropy source is reported as
// ErrEntropyUnavailable.
func (g *Generator) Generate() (*KeyPair, error) {
	sk, err := g.curve.RandomScalar(g.rand)
	if err != nil {
		return nil, zkerr.Entropy(err, "generate key pair")
	}

	return &KeyPair{
		Curve:     g.curve,
		SecretKey: sk.Bytes(),
		PublicKey: g.curve.Generator().Mul(sk).Bytes(),
	}, nil
}

func PublicKeyFromSecret(curve curves.Curve, secretKey []byte) ([]byte, error) {
	sk, err := ParseSecretKey(curve, secretKey)
	if err != nil {
		return nil, err
	}

	return curve.Generator().Mul(sk).Bytes(), nil
}

func ParseSecretKey(curve curves.Curve, secretKey []byte) (curves.Scalar, error) {
	sk, err := curve.ScalarFromBytes(secretKey)
	if err != nil {
		return nil, zkerr.Encoding(err, "parse secret key")
	}

	if sk.IsZero() {
		return nil, zkerr.Encoding(nil, "parse secret key: zero")
	}

	return sk, nil
}

func ParsePublicKey(curve curves.Curve, publicKey []byte) (curves.Point, error) {
	pk, err := curve.PointFromBytes(publicKey)
	if err != nil {
		return nil, zkerr.Encoding(err, "parse public key")
	}

	return pk, nil
}

// Validate checks that the pair is well formed and consistent.
func (k *KeyPair) Validate() error {
	pk, err := PublicKeyFromSecret(k.Curve, k.SecretKey)
	if err != nil {
		return errors.Wrap(err, "validate")
	}

	if _, err := ParsePublicKey(k.Curve, k.PublicKey); err != nil {
		return errors.Wrap(err, "validate")
	}

	if subtle.ConstantTimeCompare(pk, k.PublicKey) != 1 {
		return zkerr.Encoding(nil, "validate: public key does not match secret key")
	}

	return nil
}
