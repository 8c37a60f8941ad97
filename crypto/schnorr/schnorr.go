// Package schnorr implements a non-interactive Schnorr proof of knowledge of
// the discrete log of a public key, bound to a caller supplied challenge.
//
// The prover samples k, sends R = k·G and s = k + e·x where
// e = H(R || pk || challenge). The verifier checks s·G - e·pk == R. The
// caller is responsible for deriving the challenge from fresh, protocol bound
// context; reusing a challenge for the same key allows replay.
package schnorr

import (
	"crypto/rand"
	"crypto/subtle"
	"io"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

const ProofVersion byte = 0x01

// Proof contains the commitment R and the response s.
type Proof struct {
	Curve curves.Curve
	R     curves.Point
	S     curves.Scalar
}

type Prover struct {
	curve curves.Curve
	rand  io.Reader
}

func NewProver(curve curves.Curve, rand io.Reader) *Prover {
	return &Prover{
		curve: curve,
		rand:  rand,
	}
}

func DefaultProver() *Prover {
	return NewProver(curves.Secp256k1(), rand.Reader)
}

// Prove generates a proof of knowledge of secretKey for publicKey. It fails
// only if the keys are malformed or do not belong together, or if the nonce
// cannot be sampled.
func (p *Prover) Prove(
	secretKey []byte,
	publicKey []byte,
	challenge []byte,
) (*Proof, error) {
	x, err := identity.ParseSecretKey(p.curve, secretKey)
	if err != nil {
		return nil, errors.Wrap(err, "schnorr prove")
	}

	pk, err := identity.ParsePublicKey(p.curve, publicKey)
	if err != nil {
		return nil, errors.Wrap(err, "schnorr prove")
	}

	g := p.curve.Generator()
	if subtle.ConstantTimeCompare(g.Mul(x).Bytes(), pk.Bytes()) != 1 {
		return nil, zkerr.Encoding(
			nil,
			"schnorr prove: public key does not match secret key",
		)
	}

	k, err := p.curve.RandomScalar(p.rand)
	if err != nil {
		return nil, zkerr.Entropy(err, "schnorr prove")
	}

	r := g.Mul(k)
	e := challengeScalar(p.curve, r.Bytes(), publicKey, challenge)

	return &Proof{
		Curve: p.curve,
		R:     r,
		S:     e.Mul(x).Add(k),
	}, nil
}

// Verify reports whether proof is a valid proof for publicKey and challenge.
// Malformed proofs are rejected rather than reported as errors. The final
// comparison runs in constant time over the full commitment encoding.
func Verify(
	curve curves.Curve,
	publicKey []byte,
	proof []byte,
	challenge []byte,
) bool {
	pk, err := curve.PointFromBytes(publicKey)
	if err != nil {
		return false
	}

	pointLen := curve.PointLength()
	scalarLen := curve.ScalarLength()
	if len(proof) != 2+pointLen+scalarLen ||
		proof[0] != ProofVersion ||
		proof[1] != byte(curve.ID()) {
		return false
	}

	rBytes := proof[2 : 2+pointLen]
	s, err := curve.ScalarFromBytes(proof[2+pointLen:])
	if err != nil {
		return false
	}

	e := challengeScalar(curve, rBytes, publicKey, challenge)
	expected := curve.Generator().Mul(s).Add(pk.Mul(e.Neg()))
	if expected.IsIdentity() {
		return false
	}

	return subtle.ConstantTimeCompare(expected.Bytes(), rBytes) == 1
}

func (p *Proof) Bytes() []byte {
	out := make([]byte, 0, 2+p.Curve.PointLength()+p.Curve.ScalarLength())
	out = append(out, ProofVersion, byte(p.Curve.ID()))
	out = append(out, p.R.Bytes()...)
	out = append(out, p.S.Bytes()...)
	return out
}

// ParseProof decodes a proof produced by Bytes.
func ParseProof(b []byte) (*Proof, error) {
	if len(b) < 2 || b[0] != ProofVersion {
		return nil, zkerr.Encoding(nil, "parse proof: version")
	}

	curve, err := curves.ByID(curves.CurveID(b[1]))
	if err != nil {
		return nil, zkerr.Encoding(err, "parse proof")
	}

	pointLen := curve.PointLength()
	if len(b) != 2+pointLen+curve.ScalarLength() {
		return nil, zkerr.Encoding(nil, "parse proof: length")
	}

	r, err := curve.PointFromBytes(b[2 : 2+pointLen])
	if err != nil {
		return nil, zkerr.Encoding(err, "parse proof")
	}

	s, err := curve.ScalarFromBytes(b[2+pointLen:])
	if err != nil {
		return nil, zkerr.Encoding(err, "parse proof")
	}

	return &Proof{Curve: curve, R: r, S: s}, nil
}

func challengeScalar(
	curve curves.Curve,
	r []byte,
	publicKey []byte,
	challenge []byte,
) curves.Scalar {
	msg := make([]byte, 0, len(r)+len(publicKey)+len(challenge))
	msg = append(msg, r...)
	msg = append(msg, publicKey...)
	msg = append(msg, challenge...)
	return curve.HashToScalar(msg)
}
