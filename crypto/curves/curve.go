// Package curves provides the prime-order groups identity keys and Schnorr
// proofs are defined over. Values are immutable: every operation returns a
// new Scalar or Point.
package curves

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

type CurveID byte

const (
	CurveSecp256k1    CurveID = 0x01
	CurveRistretto255 CurveID = 0x02
	CurveP256         CurveID = 0x03
)

const (
	Secp256k1Name    = "secp256k1"
	Ristretto255Name = "ristretto255"
	P256Name         = "P-256"
)

var ErrUnknownCurve = errors.New("unknown curve")

type Scalar interface {
	Add(rhs Scalar) Scalar
	Mul(rhs Scalar) Scalar
	Neg() Scalar
	IsZero() bool
	Equal(rhs Scalar) bool
	Bytes() []byte
}

type Point interface {
	Add(rhs Point) Point
	Mul(s Scalar) Point
	IsIdentity() bool
	Equal(rhs Point) bool
	// Bytes returns the compressed encoding of the point.
	Bytes() []byte
}

type Curve interface {
	ID() CurveID
	Name() string
	ScalarLength() int
	PointLength() int
	Generator() Point
	// RandomScalar draws a uniformly random non-zero scalar, failing when the
	// reader cannot supply bytes.
	RandomScalar(rand io.Reader) (Scalar, error)
	// ScalarFromBytes parses a canonical scalar encoding.
	ScalarFromBytes(b []byte) (Scalar, error)
	// HashToScalar maps msg to a scalar. The mapping is fixed per curve.
	HashToScalar(msg []byte) Scalar
	// PointFromBytes parses a compressed encoding of a non-identity point.
	PointFromBytes(b []byte) (Point, error)
}

func ByID(id CurveID) (Curve, error) {
	switch id {
	case CurveSecp256k1:
		return Secp256k1(), nil
	case CurveRistretto255:
		return Ristretto255(), nil
	case CurveP256:
		return P256(), nil
	}

	return nil, errors.Wrap(ErrUnknownCurve, fmt.Sprintf("curve id %d", id))
}

func ByName(name string) (Curve, error) {
	switch name {
	case Secp256k1Name:
		return Secp256k1(), nil
	case Ristretto255Name:
		return Ristretto255(), nil
	case P256Name:
		return P256(), nil
	}

	return nil, errors.Wrap(ErrUnknownCurve, name)
}

func readFull(rand io.Reader, buf []byte) error {
	if rand == nil {
		return errors.New("no entropy source")
	}

	_, err := io.ReadFull(rand, buf)
	return err
}
