package codec_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	cbor "github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/codec"
	"github.com/zkfl/zkptoolkit/crypto/aggregate"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/folding"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

func elem(v int64) fr.Element {
	var e fr.Element
	e.SetInt64(v)
	return e
}

func cubeTrace(t *testing.T, v int64) *r1cs.ComputationTrace {
	b := r1cs.NewBuilder()
	out := b.Public(elem(v*v*v + v + 5))
	x := b.Private(elem(v))
	cube := b.Mul(b.Mul(x, x), x)
	b.AssertEqual(b.Add(b.Add(cube, x), b.Const(elem(5))), out)

	trace, err := b.Build()
	require.NoError(t, err)
	return trace
}

func newScheme(t *testing.T) *folding.Scheme {
	cs, _, _, err := r1cs.Arithmetize(cubeTrace(t, 1))
	require.NoError(t, err)
	s, err := folding.NewScheme(nil, folding.WithTrustedSystems(cs))
	require.NoError(t, err)
	return s
}

func statementProofs(t *testing.T, s *folding.Scheme, n int) []*folding.StatementProof {
	out := make([]*folding.StatementProof, n)
	for i := range out {
		sess := folding.NewSession()
		for j := 0; j <= i%2; j++ {
			p, err := s.Prove(sess, cubeTrace(t, int64(i+j+1)))
			require.NoError(t, err)
			out[i] = p
		}
	}

	return out
}

func TestTraceRoundTrip(t *testing.T) {
	trace := cubeTrace(t, 3)
	b, err := codec.EncodeTrace(trace)
	require.NoError(t, err)

	decoded, err := codec.DecodeTrace(b)
	require.NoError(t, err)
	assert.Equal(t, trace, decoded)

	again, err := codec.EncodeTrace(decoded)
	require.NoError(t, err)
	assert.Equal(t, b, again)

	kind, err := codec.KindOf(b)
	require.NoError(t, err)
	assert.Equal(t, codec.KindTrace, kind)
}

func TestStatementProofRoundTrip(t *testing.T) {
	s := newScheme(t)
	for _, p := range statementProofs(t, s, 2) {
		b, err := codec.EncodeStatementProof(p)
		require.NoError(t, err)

		decoded, err := codec.DecodeStatementProof(b)
		require.NoError(t, err)
		assert.True(t, s.Verify(decoded, p.PublicInstance()))
		assert.Equal(t, p.Claim.Step, decoded.Claim.Step)
		assert.True(t, p.Claim.Accumulator.Equal(decoded.Claim.Accumulator))

		again, err := codec.EncodeStatementProof(decoded)
		require.NoError(t, err)
		assert.Equal(t, b, again)
	}
}

func TestAggregateProofRoundTrip(t *testing.T) {
	s := newScheme(t)
	agg := aggregate.NewAggregator(s, aggregate.WithBatchSize(2))

	out, err := agg.VerifyAndAggregate(context.Background(), statementProofs(t, s, 3))
	require.NoError(t, err)

	b, err := codec.EncodeAggregateProof(out)
	require.NoError(t, err)
	decoded, err := codec.DecodeAggregateProof(b)
	require.NoError(t, err)
	assert.Equal(t, out.Count, decoded.Count)
	assert.True(t, out.Final.Equal(decoded.Final))
	require.NoError(t, agg.VerifyAggregate(decoded))

	again, err := codec.EncodeAggregateProof(decoded)
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestDecodeRejectsSparseShape(t *testing.T) {
	p := statementProofs(t, newScheme(t), 1)[0]

	for _, extra := range []int{1, 1 << 30} {
		shape := *p.Shape
		shape.NumWitness += extra
		cp := *p
		cp.Shape = &shape

		b, err := codec.EncodeStatementProof(&cp)
		require.NoError(t, err)
		_, err = codec.DecodeStatementProof(b)
		assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding, "extra %d", extra)
		assert.ErrorIs(t, err, r1cs.ErrUnreferencedWire, "extra %d", extra)
	}
}

func TestKeyPairRoundTrip(t *testing.T) {
	for _, curve := range []curves.Curve{curves.Secp256k1(), curves.Ristretto255(), curves.P256()} {
		kp, err := identity.NewGenerator(curve, rand.Reader).Generate()
		require.NoError(t, err)

		b, err := codec.EncodeKeyPair(kp)
		require.NoError(t, err)
		decoded, err := codec.DecodeKeyPair(b)
		require.NoError(t, err)
		assert.Equal(t, kp.SecretKey, decoded.SecretKey)
		assert.Equal(t, kp.PublicKey, decoded.PublicKey)
		assert.Equal(t, curve.ID(), decoded.Curve.ID())

		other, err := identity.NewGenerator(curve, rand.Reader).Generate()
		require.NoError(t, err)
		kp.PublicKey = other.PublicKey
		b, err = codec.EncodeKeyPair(kp)
		require.NoError(t, err)
		_, err = codec.DecodeKeyPair(b)
		assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding)
	}
}

func TestStrictDecoding(t *testing.T) {
	good, err := codec.EncodeTrace(cubeTrace(t, 2))
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":        nil,
		"header only":  good[:6],
		"bad magic":    append([]byte("ZKFX"), good[4:]...),
		"bad version":  append(append([]byte{}, good[:4]...), append([]byte{codec.Version + 1}, good[5:]...)...),
		"old version":  append(append([]byte{}, good[:4]...), append([]byte{codec.MinimumVersion - 1}, good[5:]...)...),
		"wrong kind":   append(append([]byte{}, good[:5]...), append([]byte{byte(codec.KindKeyPair)}, good[6:]...)...),
		"trailing":     append(append([]byte{}, good...), 0x00),
		"truncated":    good[:len(good)-1],
		"not cbor":     append(append([]byte{}, good[:6]...), 0xff, 0xff),
		"indef length": append(append([]byte{}, good[:6]...), 0x9f, 0xff),
	}

	for name, b := range cases {
		_, err := codec.DecodeTrace(b)
		assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding, name)
	}
}

type gate struct {
	_     struct{} `cbor:",toarray"`
	Op    uint8
	Left  uint32
	Right uint32
	Out   uint32
	Const []byte
}

type trace struct {
	_       struct{} `cbor:",toarray"`
	Public  [][]byte
	Private [][]byte
	Gates   []gate
}

func envelope(t *testing.T, body interface{}) []byte {
	raw, err := cbor.Marshal(body)
	require.NoError(t, err)
	return append([]byte{'Z', 'K', 'F', 'L', codec.Version, byte(codec.KindTrace)}, raw...)
}

func TestDecodeTraceRejectsBadValues(t *testing.T) {
	one := elem(1)
	oneBytes := one.Bytes()
	modulus := fr.Modulus().FillBytes(make([]byte, fr.Bytes))

	ok := trace{
		Public:  [][]byte{oneBytes[:]},
		Private: [][]byte{},
		Gates:   []gate{{Op: uint8(r1cs.GateConst), Out: 0, Const: oneBytes[:]}},
	}
	_, err := codec.DecodeTrace(envelope(t, ok))
	require.NoError(t, err)

	nonCanonical := ok
	nonCanonical.Public = [][]byte{modulus}
	_, err = codec.DecodeTrace(envelope(t, nonCanonical))
	assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding)

	short := ok
	short.Public = [][]byte{oneBytes[:31]}
	_, err = codec.DecodeTrace(envelope(t, short))
	assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding)

	unknownOp := ok
	unknownOp.Gates = []gate{{Op: 42, Const: oneBytes[:]}}
	_, err = codec.DecodeTrace(envelope(t, unknownOp))
	assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding)

	null := ok
	null.Private = nil
	_, err = codec.DecodeTrace(envelope(t, null))
	assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding)

	noGates := ok
	noGates.Gates = []gate{}
	_, err = codec.DecodeTrace(envelope(t, noGates))
	assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding)
}

func TestPublicInstance(t *testing.T) {
	x := []fr.Element{elem(1), elem(-1), elem(1 << 40)}
	b := codec.EncodePublicInstance(x)
	assert.Len(t, b, 3*fr.Bytes)

	decoded, err := codec.DecodePublicInstance(b)
	require.NoError(t, err)
	assert.Equal(t, x, decoded)

	_, err = codec.DecodePublicInstance(b[:40])
	assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding)

	empty, err := codec.DecodePublicInstance(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
