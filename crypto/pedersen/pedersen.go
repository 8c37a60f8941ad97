// Package pedersen implements hiding vector commitments on BN254 G1 with
// transparently derived generators.
package pedersen

import (
	"encoding/binary"
	"runtime"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

const generatorDST = "ZKPTOOLKIT-V01-CS01-with-BN254G1_XMD:SHA-256_SVDW_RO_"

var ErrKeyTooShort = errors.New("commitment key too short")

// CommitmentKey holds generators G_0..G_{n-1} for the committed vector and H
// for the blinding factor.
type CommitmentKey struct {
	G []bn254.G1Affine
	H bn254.G1Affine
}

func (k *CommitmentKey) Size() int {
	return len(k.G)
}

// Commit returns Σ v_i·G_i + r·H.
func (k *CommitmentKey) Commit(
	values []fr.Element,
	blind fr.Element,
) (bn254.G1Affine, error) {
	if len(values) > len(k.G) {
		return bn254.G1Affine{}, errors.Wrap(ErrKeyTooShort, "commit")
	}

	points := make([]bn254.G1Affine, 0, len(values)+1)
	points = append(points, k.G[:len(values)]...)
	points = append(points, k.H)

	scalars := make([]fr.Element, 0, len(values)+1)
	scalars = append(scalars, values...)
	scalars = append(scalars, blind)

	var out bn254.G1Affine
	if _, err := out.MultiExp(
		points,
		scalars,
		ecc.MultiExpConfig{NbTasks: runtime.NumCPU()},
	); err != nil {
		return bn254.G1Affine{}, errors.Wrap(err, "commit")
	}

	return out, nil
}

// Open reports whether c commits to values under blind.
func (k *CommitmentKey) Open(
	c bn254.G1Affine,
	values []fr.Element,
	blind fr.Element,
) bool {
	expected, err := k.Commit(values, blind)
	if err != nil {
		return false
	}

	return expected.Equal(&c)
}

// Derive computes a key with n vector generators. Generator i is the
// hash-to-curve image of SHA3-256(label || i), so every party derives the
// same key without a setup ceremony.
func Derive(label string, n int) (*CommitmentKey, error) {
	key := &CommitmentKey{G: make([]bn254.G1Affine, n)}
	h, err := hashGenerator(label, "blind", 0)
	if err != nil {
		return nil, errors.Wrap(err, "derive")
	}
	key.H = h

	for i := 0; i < n; i++ {
		g, err := hashGenerator(label, "vector", uint64(i))
		if err != nil {
			return nil, errors.Wrap(err, "derive")
		}

		key.G[i] = g
	}

	return key, nil
}

func hashGenerator(label string, kind string, i uint64) (bn254.G1Affine, error) {
	seed := sha3.New256()
	seed.Write([]byte(label))
	seed.Write([]byte{0x00})
	seed.Write([]byte(kind))
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, i)
	seed.Write(buf)
	return bn254.HashToG1(seed.Sum(nil), []byte(generatorDST))
}

// KeyCache derives keys once per (label, size) and keeps the most recently
// used ones.
type KeyCache struct {
	mx    sync.Mutex
	cache *lru.Cache[cacheKey, *CommitmentKey]
}

type cacheKey struct {
	label string
	size  int
}

func NewKeyCache(size int) (*KeyCache, error) {
	cache, err := lru.New[cacheKey, *CommitmentKey](size)
	if err != nil {
		return nil, errors.Wrap(err, "new key cache")
	}

	return &KeyCache{cache: cache}, nil
}

func (c *KeyCache) Get(label string, size int) (*CommitmentKey, error) {
	k := cacheKey{label: label, size: size}

	c.mx.Lock()
	defer c.mx.Unlock()

	if key, ok := c.cache.Get(k); ok {
		return key, nil
	}

	key, err := Derive(label, size)
	if err != nil {
		return nil, errors.Wrap(err, "get")
	}

	c.cache.Add(k, key)
	return key, nil
}

func (c *KeyCache) Len() int {
	return c.cache.Len()
}

// PointFromBytes parses a compressed G1 point, including the subgroup check,
// and rejects non-canonical encodings.
func PointFromBytes(b []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if len(b) != bn254.SizeOfG1AffineCompressed {
		return p, errors.New("point from bytes: length")
	}

	if _, err := p.SetBytes(b); err != nil {
		return p, errors.Wrap(err, "point from bytes")
	}

	enc := p.Bytes()
	if string(enc[:]) != string(b) {
		return p, errors.New("point from bytes: non-canonical encoding")
	}

	return p, nil
}

// ScalarFromBytes parses a canonical 32 byte big-endian field element.
func ScalarFromBytes(b []byte) (fr.Element, error) {
	var e fr.Element
	if err := e.SetBytesCanonical(b); err != nil {
		return e, errors.Wrap(err, "scalar from bytes")
	}

	return e, nil
}
