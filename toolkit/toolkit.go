// Package toolkit is the byte-oriented boundary of the proof core. Keys,
// challenges and proofs enter and leave as opaque byte slices; malformed
// input is reported as zkerr.ErrInvalidEncoding, distinct from a proof that
// simply does not verify.
package toolkit

import (
	"context"
	"crypto/rand"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/codec"
	"github.com/zkfl/zkptoolkit/crypto"
	"github.com/zkfl/zkptoolkit/crypto/aggregate"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/folding"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
	"go.uber.org/zap"
)

// Session is a caller-owned statement accumulator.
type Session = folding.Session

type Toolkit struct {
	identity   crypto.IdentityProver
	statement  crypto.StatementProver
	aggregator crypto.ProofAggregator
	logger     *zap.Logger
}

func New(
	logger *zap.Logger,
	identity crypto.IdentityProver,
	statement crypto.StatementProver,
	aggregator crypto.ProofAggregator,
) *Toolkit {
	return &Toolkit{
		identity:   identity,
		statement:  statement,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Default builds a toolkit over secp256k1 identities and the folding
// statement scheme, reading entropy from crypto/rand. Statements are only
// proven and verified over the constraint systems named by trusted; with
// none, every statement is rejected with zkerr.ErrShapeMismatch.
func Default(logger *zap.Logger, trusted ...[32]byte) (*Toolkit, error) {
	scheme, err := folding.NewScheme(nil, folding.WithTrustedShapes(trusted...))
	if err != nil {
		return nil, errors.Wrap(err, "default")
	}

	return New(
		logger,
		crypto.NewSchnorrIdentityProver(logger, curves.Secp256k1(), rand.Reader),
		crypto.NewFoldingStatementProver(logger, scheme),
		crypto.NewFoldingProofAggregator(logger, aggregate.NewAggregator(scheme)),
	), nil
}

func (t *Toolkit) GenerateKeyPair() ([]byte, []byte, error) {
	kp, err := t.identity.GenerateKeyPair()
	if err != nil {
		return nil, nil, errors.Wrap(err, "generate key pair")
	}

	return kp.SecretKey, kp.PublicKey, nil
}

func (t *Toolkit) SchnorrProve(
	secretKey []byte,
	publicKey []byte,
	challenge []byte,
) ([]byte, error) {
	proof, err := t.identity.Prove(secretKey, publicKey, challenge)
	return proof, errors.Wrap(err, "schnorr prove")
}

// SchnorrVerify returns an error only for a malformed public key. A malformed
// or truncated proof is reported as false.
func (t *Toolkit) SchnorrVerify(
	publicKey []byte,
	proof []byte,
	challenge []byte,
) (bool, error) {
	ok, err := t.identity.Verify(publicKey, proof, challenge)
	return ok, errors.Wrap(err, "schnorr verify")
}

func (t *Toolkit) NewSession() *Session {
	return t.statement.NewSession()
}

// StatementProve folds the encoded computation trace into the session and
// returns the encoded statement proof.
func (t *Toolkit) StatementProve(
	session *Session,
	computationData []byte,
) ([]byte, error) {
	trace, err := codec.DecodeTrace(computationData)
	if err != nil {
		return nil, errors.Wrap(err, "statement prove")
	}

	proof, err := t.statement.Prove(session, trace)
	if err != nil {
		return nil, errors.Wrap(err, "statement prove")
	}

	out, err := codec.EncodeStatementProof(proof)
	return out, errors.Wrap(err, "statement prove")
}

func (t *Toolkit) StatementVerify(
	proofBytes []byte,
	publicInstanceBytes []byte,
) (bool, error) {
	proof, err := codec.DecodeStatementProof(proofBytes)
	if err != nil {
		return false, errors.Wrap(err, "statement verify")
	}

	x, err := codec.DecodePublicInstance(publicInstanceBytes)
	if err != nil {
		return false, errors.Wrap(err, "statement verify")
	}

	return t.statement.Verify(proof, x), nil
}

// AggregateVerify verifies the encoded proofs and returns the encoded
// aggregate. A proof that fails to decode and a proof that fails to verify
// are both reported as an *zkerr.InvalidProofError for the lowest such
// index.
func (t *Toolkit) AggregateVerify(
	ctx context.Context,
	proofBytesList [][]byte,
) ([]byte, error) {
	if len(proofBytesList) == 0 {
		return nil, errors.Wrap(zkerr.ErrEmptyBatch, "aggregate verify")
	}

	proofs := make([]*folding.StatementProof, 0, len(proofBytesList))
	for i, b := range proofBytesList {
		proof, err := codec.DecodeStatementProof(b)
		if err != nil {
			if i > 0 {
				// an earlier proof may still be the first invalid one
				if verr := t.aggregator.Verify(ctx, proofs); verr != nil {
					return nil, errors.Wrap(verr, "aggregate verify")
				}
			}

			return nil, &zkerr.InvalidProofError{Index: i, Err: err}
		}

		proofs = append(proofs, proof)
	}

	agg, err := t.aggregator.VerifyAndAggregate(ctx, proofs)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate verify")
	}

	out, err := codec.EncodeAggregateProof(agg)
	return out, errors.Wrap(err, "aggregate verify")
}

// VerifyAggregate checks an encoded aggregate proof on its own.
func (t *Toolkit) VerifyAggregate(aggBytes []byte) (bool, error) {
	agg, err := codec.DecodeAggregateProof(aggBytes)
	if err != nil {
		return false, errors.Wrap(err, "verify aggregate")
	}

	return t.aggregator.VerifyAggregate(agg), nil
}
