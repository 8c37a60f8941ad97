// Package auth issues single-use challenges that clients answer with a
// Schnorr proof of their identity key.
package auth

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
	"github.com/zkfl/zkptoolkit/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"
)

const (
	DefaultChallengeTTL   = 5 * time.Minute
	DefaultNonceSize      = 32
	DefaultMaxOutstanding = 4096
	minNonceSize          = 16
	contextLabel          = "zkptoolkit/challenge/v1"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrUnknownIdentity   = errors.New("unknown identity")
)

type Challenge struct {
	Value     []byte
	Round     uint64
	ExpiresAt time.Time
}

type issued struct {
	publicKey []byte
	round     uint64
}

// ChallengeIssuer tracks outstanding challenges in a bounded, expiring
// cache. When the bound is reached the oldest challenge is dropped.
type ChallengeIssuer struct {
	logger      *zap.Logger
	prover      *crypto.SchnorrIdentityProver
	identities  store.IdentityStore
	outstanding *expirable.LRU[[32]byte, *issued]
	nonceSize   int
	ttl         time.Duration
	rand        io.Reader
	redeemMx    sync.Mutex
}

// NewChallengeIssuer returns an issuer for identities on the prover's curve.
// When identities is non-nil, only registered public keys are challenged.
func NewChallengeIssuer(
	logger *zap.Logger,
	cfg *config.AuthConfig,
	prover *crypto.SchnorrIdentityProver,
	identities store.IdentityStore,
) *ChallengeIssuer {
	ttl := DefaultChallengeTTL
	nonceSize := DefaultNonceSize
	maxOutstanding := DefaultMaxOutstanding
	if cfg != nil {
		if cfg.ChallengeTTL > 0 {
			ttl = cfg.ChallengeTTL
		}
		if cfg.ChallengeSize >= minNonceSize {
			nonceSize = cfg.ChallengeSize
		}
		if cfg.MaxOutstanding > 0 {
			maxOutstanding = cfg.MaxOutstanding
		}
	}

	return &ChallengeIssuer{
		logger:     logger,
		prover:     prover,
		identities: identities,
		outstanding: expirable.NewLRU[[32]byte, *issued](
			maxOutstanding,
			nil,
			ttl,
		),
		nonceSize: nonceSize,
		ttl:       ttl,
		rand:      rand.Reader,
	}
}

// Issue draws a fresh nonce for publicKey and round and returns the
// challenge the client must prove against.
func (c *ChallengeIssuer) Issue(
	publicKey []byte,
	round uint64,
) (*Challenge, error) {
	curve := c.prover.Curve()
	if _, err := identity.ParsePublicKey(curve, publicKey); err != nil {
		return nil, errors.Wrap(err, "issue")
	}

	if c.identities != nil {
		_, err := c.identities.GetIdentity(curve.ID(), publicKey)
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.Wrap(ErrUnknownIdentity, "issue")
		}
		if err != nil {
			return nil, errors.Wrap(err, "issue")
		}
	}

	nonce := make([]byte, c.nonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		c.logger.Error("could not read nonce", zap.Error(err))
		return nil, zkerr.Entropy(err, "issue")
	}

	value := contextHash(byte(curve.ID()), publicKey, round, nonce)
	c.outstanding.Add(value, &issued{
		publicKey: append([]byte{}, publicKey...),
		round:     round,
	})

	c.logger.Debug(
		"issued challenge",
		zap.Binary("public_key", publicKey),
		zap.Uint64("round", round),
	)

	return &Challenge{
		Value:     value[:],
		Round:     round,
		ExpiresAt: time.Now().Add(c.ttl),
	}, nil
}

// Redeem consumes challenge and verifies proof against it, returning the
// round the challenge was issued for. A challenge that was never issued to
// publicKey, has expired, or was already redeemed yields
// ErrChallengeNotFound.
func (c *ChallengeIssuer) Redeem(
	publicKey []byte,
	challenge []byte,
	proof []byte,
) (uint64, error) {
	if len(challenge) != 32 {
		return 0, errors.Wrap(ErrChallengeNotFound, "redeem")
	}

	var key [32]byte
	copy(key[:], challenge)

	c.redeemMx.Lock()
	entry, ok := c.outstanding.Get(key)
	if !ok || !bytes.Equal(entry.publicKey, publicKey) {
		c.redeemMx.Unlock()
		return 0, errors.Wrap(ErrChallengeNotFound, "redeem")
	}
	c.outstanding.Remove(key)
	c.redeemMx.Unlock()

	valid, err := c.prover.Verify(publicKey, proof, challenge)
	if err != nil {
		return 0, errors.Wrap(err, "redeem")
	}

	if !valid {
		c.logger.Info(
			"challenge answered with invalid proof",
			zap.Binary("public_key", publicKey),
			zap.Uint64("round", entry.round),
		)
		return 0, errors.Wrap(zkerr.ErrVerificationFailed, "redeem")
	}

	return entry.round, nil
}

// Outstanding returns the number of live challenges.
func (c *ChallengeIssuer) Outstanding() int {
	return c.outstanding.Len()
}

func contextHash(
	curve byte,
	publicKey []byte,
	round uint64,
	nonce []byte,
) [32]byte {
	h := sha3.New256()
	h.Write([]byte(contextLabel))
	h.Write([]byte{curve})
	h.Write(binary.BigEndian.AppendUint64(nil, uint64(len(publicKey))))
	h.Write(publicKey)
	h.Write(binary.BigEndian.AppendUint64(nil, round))
	h.Write(nonce)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
