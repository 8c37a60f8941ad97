package pedersen_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/crypto/pedersen"
)

func randomVector(t *testing.T, n int) []fr.Element {
	v := make([]fr.Element, n)
	for i := range v {
		_, err := v[i].SetRandom()
		require.NoError(t, err)
	}

	return v
}

func TestCommitOpen(t *testing.T) {
	key, err := pedersen.Derive("test", 8)
	require.NoError(t, err)
	assert.Equal(t, 8, key.Size())

	v := randomVector(t, 5)
	r := randomVector(t, 1)[0]
	c, err := key.Commit(v, r)
	require.NoError(t, err)
	assert.True(t, key.Open(c, v, r))

	v[2].SetUint64(7)
	assert.False(t, key.Open(c, v, r))

	_, err = key.Commit(randomVector(t, 9), r)
	assert.ErrorIs(t, err, pedersen.ErrKeyTooShort)
}

func TestCommitIsHomomorphic(t *testing.T) {
	key, err := pedersen.Derive("test", 4)
	require.NoError(t, err)

	a, b := randomVector(t, 4), randomVector(t, 4)
	ra, rb := randomVector(t, 1)[0], randomVector(t, 1)[0]
	ca, err := key.Commit(a, ra)
	require.NoError(t, err)
	cb, err := key.Commit(b, rb)
	require.NoError(t, err)

	sum := make([]fr.Element, 4)
	for i := range sum {
		sum[i].Add(&a[i], &b[i])
	}
	var rs fr.Element
	rs.Add(&ra, &rb)

	cs, err := key.Commit(sum, rs)
	require.NoError(t, err)
	ca.Add(&ca, &cb)
	assert.True(t, cs.Equal(&ca))
}

func TestDeriveIsDeterministic(t *testing.T) {
	a, err := pedersen.Derive("label", 3)
	require.NoError(t, err)
	b, err := pedersen.Derive("label", 5)
	require.NoError(t, err)
	c, err := pedersen.Derive("other", 3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.True(t, a.G[i].Equal(&b.G[i]))
		assert.False(t, a.G[i].Equal(&c.G[i]))
	}
	assert.True(t, a.H.Equal(&b.H))
	assert.False(t, a.G[0].Equal(&a.G[1]))
}

func TestKeyCache(t *testing.T) {
	cache, err := pedersen.NewKeyCache(2)
	require.NoError(t, err)

	a, err := cache.Get("x", 4)
	require.NoError(t, err)
	b, err := cache.Get("x", 4)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = cache.Get("x", 5)
	require.NoError(t, err)
	_, err = cache.Get("y", 4)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestPointFromBytes(t *testing.T) {
	key, err := pedersen.Derive("test", 1)
	require.NoError(t, err)

	enc := key.G[0].Bytes()
	p, err := pedersen.PointFromBytes(enc[:])
	require.NoError(t, err)
	assert.True(t, p.Equal(&key.G[0]))

	_, err = pedersen.PointFromBytes(enc[:31])
	assert.Error(t, err)

	bad := enc
	bad[31] ^= 0x01
	if q, err := pedersen.PointFromBytes(bad[:]); err == nil {
		assert.False(t, q.Equal(&key.G[0]))
	}
}
