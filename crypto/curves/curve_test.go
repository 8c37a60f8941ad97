package curves_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/crypto/curves"
)

func allCurves() []curves.Curve {
	return []curves.Curve{
		curves.Secp256k1(),
		curves.Ristretto255(),
		curves.P256(),
	}
}

func TestScalarRoundTrip(t *testing.T) {
	for _, c := range allCurves() {
		t.Run(c.Name(), func(t *testing.T) {
			s, err := c.RandomScalar(rand.Reader)
			require.NoError(t, err)
			assert.False(t, s.IsZero())
			assert.Len(t, s.Bytes(), c.ScalarLength())

			parsed, err := c.ScalarFromBytes(s.Bytes())
			require.NoError(t, err)
			assert.True(t, s.Equal(parsed))
		})
	}
}

func TestPointRoundTrip(t *testing.T) {
	for _, c := range allCurves() {
		t.Run(c.Name(), func(t *testing.T) {
			s, err := c.RandomScalar(rand.Reader)
			require.NoError(t, err)

			p := c.Generator().Mul(s)
			assert.Len(t, p.Bytes(), c.PointLength())

			parsed, err := c.PointFromBytes(p.Bytes())
			require.NoError(t, err)
			assert.True(t, p.Equal(parsed))
		})
	}
}

func TestGroupLaws(t *testing.T) {
	for _, c := range allCurves() {
		t.Run(c.Name(), func(t *testing.T) {
			a, err := c.RandomScalar(rand.Reader)
			require.NoError(t, err)
			b, err := c.RandomScalar(rand.Reader)
			require.NoError(t, err)

			g := c.Generator()
			lhs := g.Mul(a.Add(b))
			rhs := g.Mul(a).Add(g.Mul(b))
			assert.True(t, lhs.Equal(rhs))

			assert.True(t, g.Mul(a).Add(g.Mul(a.Neg())).IsIdentity())
			assert.True(t, g.Mul(a).Mul(b).Equal(g.Mul(a.Mul(b))))
		})
	}
}

func TestRejectsMalformed(t *testing.T) {
	for _, c := range allCurves() {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.ScalarFromBytes([]byte{0x01})
			assert.ErrorIs(t, err, curves.ErrInvalidScalar)

			_, err = c.ScalarFromBytes(bytes.Repeat([]byte{0xff}, c.ScalarLength()))
			assert.ErrorIs(t, err, curves.ErrInvalidScalar)

			_, err = c.PointFromBytes(make([]byte, c.PointLength()))
			assert.ErrorIs(t, err, curves.ErrInvalidPoint)

			_, err = c.PointFromBytes(c.Generator().Bytes()[1:])
			assert.ErrorIs(t, err, curves.ErrInvalidPoint)
		})
	}
}

func TestRandomScalarShortRead(t *testing.T) {
	for _, c := range allCurves() {
		_, err := c.RandomScalar(bytes.NewReader([]byte{0x01, 0x02}))
		assert.Error(t, err)
	}
}

func TestByID(t *testing.T) {
	for _, c := range allCurves() {
		byID, err := curves.ByID(c.ID())
		require.NoError(t, err)
		assert.Equal(t, c.Name(), byID.Name())

		byName, err := curves.ByName(c.Name())
		require.NoError(t, err)
		assert.Equal(t, c.ID(), byName.ID())
	}

	_, err := curves.ByID(0x7f)
	assert.ErrorIs(t, err, curves.ErrUnknownCurve)
}
