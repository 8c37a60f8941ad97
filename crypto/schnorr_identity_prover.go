package crypto

import (
	"io"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/crypto/schnorr"
	"go.uber.org/zap"
)

type SchnorrIdentityProver struct {
	curve     curves.Curve
	generator *identity.Generator
	prover    *schnorr.Prover
	logger    *zap.Logger
}

func NewSchnorrIdentityProver(
	logger *zap.Logger,
	curve curves.Curve,
	rand io.Reader,
) *SchnorrIdentityProver {
	return &SchnorrIdentityProver{
		curve:     curve,
		generator: identity.NewGenerator(curve, rand),
		prover:    schnorr.NewProver(curve, rand),
		logger:    logger,
	}
}

func (s *SchnorrIdentityProver) Curve() curves.Curve {
	return s.curve
}

// GenerateKeyPair implements IdentityProver.
func (s *SchnorrIdentityProver) GenerateKeyPair() (*identity.KeyPair, error) {
	kp, err := s.generator.Generate()
	if err != nil {
		s.logger.Error("could not generate key pair", zap.Error(err))
		return nil, errors.Wrap(err, "generate key pair")
	}

	s.logger.Debug(
		"generated key pair",
		zap.String("curve", s.curve.Name()),
		zap.Binary("public_key", kp.PublicKey),
	)
	return kp, nil
}

// KeyPairFromMnemonic implements IdentityProver.
func (s *SchnorrIdentityProver) KeyPairFromMnemonic(
	mnemonic string,
	passphrase string,
) (*identity.KeyPair, error) {
	kp, err := identity.KeyPairFromMnemonic(s.curve, mnemonic, passphrase)
	return kp, errors.Wrap(err, "key pair from mnemonic")
}

// Prove implements IdentityProver.
func (s *SchnorrIdentityProver) Prove(
	secretKey []byte,
	publicKey []byte,
	challenge []byte,
) ([]byte, error) {
	proof, err := s.prover.Prove(secretKey, publicKey, challenge)
	if err != nil {
		s.logger.Error("could not prove identity", zap.Error(err))
		return nil, errors.Wrap(err, "prove")
	}

	return proof.Bytes(), nil
}

// Verify implements IdentityProver. Only a malformed public key is an error;
// a malformed proof simply does not verify.
func (s *SchnorrIdentityProver) Verify(
	publicKey []byte,
	proof []byte,
	challenge []byte,
) (bool, error) {
	if _, err := identity.ParsePublicKey(s.curve, publicKey); err != nil {
		return false, errors.Wrap(err, "verify")
	}

	ok := schnorr.Verify(s.curve, publicKey, proof, challenge)
	if !ok {
		s.logger.Debug("identity proof rejected", zap.Binary("public_key", publicKey))
	}

	return ok, nil
}
