package curves

import (
	"bytes"
	"crypto/sha256"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

type secp256k1Curve struct{}

type secp256k1Scalar struct {
	v secp256k1.ModNScalar
}

type secp256k1Point struct {
	p secp256k1.JacobianPoint
}

var secp256k1Instance = &secp256k1Curve{}

var ErrInvalidScalar = errors.New("invalid scalar")
var ErrInvalidPoint = errors.New("invalid point")

func Secp256k1() Curve {
	return secp256k1Instance
}

func (c *secp256k1Curve) ID() CurveID       { return CurveSecp256k1 }
func (c *secp256k1Curve) Name() string      { return Secp256k1Name }
func (c *secp256k1Curve) ScalarLength() int { return 32 }
func (c *secp256k1Curve) PointLength() int  { return 33 }

func (c *secp256k1Curve) Generator() Point {
	one := new(secp256k1.ModNScalar).SetInt(1)
	result := &secp256k1Point{}
	secp256k1.ScalarBaseMultNonConst(one, &result.p)
	return result
}

func (c *secp256k1Curve) RandomScalar(rand io.Reader) (Scalar, error) {
	buf := make([]byte, 32)
	for {
		if err := readFull(rand, buf); err != nil {
			return nil, errors.Wrap(err, "random scalar")
		}

		s := &secp256k1Scalar{}
		if overflow := s.v.SetByteSlice(buf); overflow || s.v.IsZero() {
			continue
		}

		return s, nil
	}
}

func (c *secp256k1Curve) ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != 32 {
		return nil, errors.Wrap(ErrInvalidScalar, "scalar from bytes")
	}

	s := &secp256k1Scalar{}
	if overflow := s.v.SetByteSlice(b); overflow {
		return nil, errors.Wrap(ErrInvalidScalar, "scalar from bytes")
	}

	return s, nil
}

// HashToScalar reduces SHA-256(msg) modulo the group order.
func (c *secp256k1Curve) HashToScalar(msg []byte) Scalar {
	digest := sha256.Sum256(msg)
	s := &secp256k1Scalar{}
	s.v.SetBytes(&digest)
	return s
}

func (c *secp256k1Curve) PointFromBytes(b []byte) (Point, error) {
	if len(b) != 33 {
		return nil, errors.Wrap(ErrInvalidPoint, "point from bytes")
	}

	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPoint, err.Error())
	}

	result := &secp256k1Point{}
	pk.AsJacobian(&result.p)
	return result, nil
}

func (s *secp256k1Scalar) Add(rhs Scalar) Scalar {
	r := rhs.(*secp256k1Scalar)
	result := &secp256k1Scalar{}
	result.v.Add2(&s.v, &r.v)
	return result
}

func (s *secp256k1Scalar) Mul(rhs Scalar) Scalar {
	r := rhs.(*secp256k1Scalar)
	result := &secp256k1Scalar{}
	result.v.Mul2(&s.v, &r.v)
	return result
}

func (s *secp256k1Scalar) Neg() Scalar {
	result := &secp256k1Scalar{}
	result.v.NegateVal(&s.v)
	return result
}

func (s *secp256k1Scalar) IsZero() bool {
	return s.v.IsZero()
}

func (s *secp256k1Scalar) Equal(rhs Scalar) bool {
	r, ok := rhs.(*secp256k1Scalar)
	return ok && s.v.Equals(&r.v)
}

func (s *secp256k1Scalar) Bytes() []byte {
	b := s.v.Bytes()
	return b[:]
}

func (p *secp256k1Point) Add(rhs Point) Point {
	r := rhs.(*secp256k1Point)
	result := &secp256k1Point{}
	secp256k1.AddNonConst(&p.p, &r.p, &result.p)
	return result
}

func (p *secp256k1Point) Mul(s Scalar) Point {
	k := s.(*secp256k1Scalar)
	result := &secp256k1Point{}
	secp256k1.ScalarMultNonConst(&k.v, &p.p, &result.p)
	return result
}

func (p *secp256k1Point) IsIdentity() bool {
	return (p.p.X.IsZero() && p.p.Y.IsZero()) || p.p.Z.IsZero()
}

func (p *secp256k1Point) Equal(rhs Point) bool {
	return bytes.Equal(p.Bytes(), rhs.Bytes())
}

// Bytes returns the 33 byte SEC1 compressed encoding, or 33 zero bytes for
// the point at infinity.
func (p *secp256k1Point) Bytes() []byte {
	if p.IsIdentity() {
		return make([]byte, 33)
	}

	affine := p.p
	affine.ToAffine()
	return secp256k1.NewPublicKey(&affine.X, &affine.Y).SerializeCompressed()
}
