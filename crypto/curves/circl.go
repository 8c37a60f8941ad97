package curves

import (
	"bytes"
	"crypto/elliptic"
	"io"
	"math/big"

	"github.com/cloudflare/circl/group"
	"github.com/pkg/errors"
)

var scalarHashDST = []byte("zkptoolkit-v1-schnorr-challenge")

// circlCurve adapts a circl prime-order group. Scalars are encoded the way the
// group marshals them: little-endian for Ristretto255, big-endian for P-256.
type circlCurve struct {
	id           CurveID
	name         string
	g            group.Group
	order        *big.Int
	littleEndian bool
}

type circlScalar struct {
	c *circlCurve
	s group.Scalar
}

type circlPoint struct {
	c *circlCurve
	e group.Element
}

var ristrettoOrder, _ = new(big.Int).SetString(
	"7237005577332262213973186563042994240857116359379907606001950938285454250989",
	10,
)

var ristretto255Instance = &circlCurve{
	id:           CurveRistretto255,
	name:         Ristretto255Name,
	g:            group.Ristretto255,
	order:        ristrettoOrder,
	littleEndian: true,
}

var p256Instance = &circlCurve{
	id:    CurveP256,
	name:  P256Name,
	g:     group.P256,
	order: elliptic.P256().Params().N,
}

func Ristretto255() Curve {
	return ristretto255Instance
}

func P256() Curve {
	return p256Instance
}

func (c *circlCurve) ID() CurveID  { return c.id }
func (c *circlCurve) Name() string { return c.name }
func (c *circlCurve) ScalarLength() int {
	return int(c.g.Params().ScalarLength)
}

func (c *circlCurve) PointLength() int {
	return int(c.g.Params().CompressedElementLength)
}

func (c *circlCurve) Generator() Point {
	return &circlPoint{c: c, e: c.g.Generator()}
}

// RandomScalar reads 64 bytes and hashes them into the scalar field, so a
// short read surfaces as an error instead of the panic group.RandomScalar
// raises.
func (c *circlCurve) RandomScalar(rand io.Reader) (Scalar, error) {
	buf := make([]byte, 64)
	for {
		if err := readFull(rand, buf); err != nil {
			return nil, errors.Wrap(err, "random scalar")
		}

		s := c.g.HashToScalar(buf, []byte("zkptoolkit-v1-random-scalar"))
		if s.IsZero() {
			continue
		}

		return &circlScalar{c: c, s: s}, nil
	}
}

func (c *circlCurve) ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != c.ScalarLength() {
		return nil, errors.Wrap(ErrInvalidScalar, "scalar from bytes")
	}

	be := b
	if c.littleEndian {
		be = reversed(b)
	}

	if new(big.Int).SetBytes(be).Cmp(c.order) >= 0 {
		return nil, errors.Wrap(ErrInvalidScalar, "scalar from bytes")
	}

	s := c.g.NewScalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(ErrInvalidScalar, err.Error())
	}

	return &circlScalar{c: c, s: s}, nil
}

func (c *circlCurve) HashToScalar(msg []byte) Scalar {
	return &circlScalar{c: c, s: c.g.HashToScalar(msg, scalarHashDST)}
}

func (c *circlCurve) PointFromBytes(b []byte) (Point, error) {
	if len(b) != c.PointLength() {
		return nil, errors.Wrap(ErrInvalidPoint, "point from bytes")
	}

	e := c.g.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(ErrInvalidPoint, err.Error())
	}

	if e.IsIdentity() {
		return nil, errors.Wrap(ErrInvalidPoint, "identity")
	}

	p := &circlPoint{c: c, e: e}
	if !bytes.Equal(p.Bytes(), b) {
		return nil, errors.Wrap(ErrInvalidPoint, "non-canonical encoding")
	}

	return p, nil
}

func (s *circlScalar) Add(rhs Scalar) Scalar {
	r := rhs.(*circlScalar)
	return &circlScalar{c: s.c, s: s.c.g.NewScalar().Add(s.s, r.s)}
}

func (s *circlScalar) Mul(rhs Scalar) Scalar {
	r := rhs.(*circlScalar)
	return &circlScalar{c: s.c, s: s.c.g.NewScalar().Mul(s.s, r.s)}
}

func (s *circlScalar) Neg() Scalar {
	return &circlScalar{c: s.c, s: s.c.g.NewScalar().Neg(s.s)}
}

func (s *circlScalar) IsZero() bool {
	return s.s.IsZero()
}

func (s *circlScalar) Equal(rhs Scalar) bool {
	r, ok := rhs.(*circlScalar)
	return ok && r.c == s.c && s.s.IsEqual(r.s)
}

func (s *circlScalar) Bytes() []byte {
	b, err := s.s.MarshalBinary()
	if err != nil {
		panic(err)
	}

	return b
}

func (p *circlPoint) Add(rhs Point) Point {
	r := rhs.(*circlPoint)
	return &circlPoint{c: p.c, e: p.c.g.NewElement().Add(p.e, r.e)}
}

func (p *circlPoint) Mul(s Scalar) Point {
	k := s.(*circlScalar)
	return &circlPoint{c: p.c, e: p.c.g.NewElement().Mul(p.e, k.s)}
}

func (p *circlPoint) IsIdentity() bool {
	return p.e.IsIdentity()
}

func (p *circlPoint) Equal(rhs Point) bool {
	r, ok := rhs.(*circlPoint)
	return ok && r.c == p.c && p.e.IsEqual(r.e)
}

// Bytes returns the compressed encoding. The identity encodes as zero bytes
// of the usual length so proofs keep a fixed layout.
func (p *circlPoint) Bytes() []byte {
	if p.e.IsIdentity() {
		return make([]byte, p.c.PointLength())
	}

	b, err := p.e.MarshalBinaryCompress()
	if err != nil {
		panic(err)
	}

	return b
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}

	return out
}
