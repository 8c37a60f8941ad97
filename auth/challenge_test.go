package auth_test

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/auth"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
	"github.com/zkfl/zkptoolkit/store"
	"go.uber.org/zap"
)

func newProver() *crypto.SchnorrIdentityProver {
	return crypto.NewSchnorrIdentityProver(zap.NewNop(), curves.Secp256k1(), rand.Reader)
}

func TestIssueAndRedeem(t *testing.T) {
	prover := newProver()
	issuer := auth.NewChallengeIssuer(zap.NewNop(), nil, prover, nil)

	kp, err := prover.GenerateKeyPair()
	require.NoError(t, err)

	ch, err := issuer.Issue(kp.PublicKey, 7)
	require.NoError(t, err)
	assert.Len(t, ch.Value, 32)
	assert.Equal(t, 1, issuer.Outstanding())

	other, err := issuer.Issue(kp.PublicKey, 7)
	require.NoError(t, err)
	assert.NotEqual(t, ch.Value, other.Value)

	proof, err := prover.Prove(kp.SecretKey, kp.PublicKey, ch.Value)
	require.NoError(t, err)

	round, err := issuer.Redeem(kp.PublicKey, ch.Value, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), round)

	_, err = issuer.Redeem(kp.PublicKey, ch.Value, proof)
	assert.ErrorIs(t, err, auth.ErrChallengeNotFound)

	// a proof for one challenge does not answer another
	_, err = issuer.Redeem(kp.PublicKey, other.Value, proof)
	assert.ErrorIs(t, err, zkerr.ErrVerificationFailed)
	assert.Equal(t, 0, issuer.Outstanding())
}

func TestRedeemWrongKey(t *testing.T) {
	prover := newProver()
	issuer := auth.NewChallengeIssuer(zap.NewNop(), nil, prover, nil)

	alice, err := prover.GenerateKeyPair()
	require.NoError(t, err)
	mallory, err := prover.GenerateKeyPair()
	require.NoError(t, err)

	ch, err := issuer.Issue(alice.PublicKey, 1)
	require.NoError(t, err)

	proof, err := prover.Prove(mallory.SecretKey, mallory.PublicKey, ch.Value)
	require.NoError(t, err)
	_, err = issuer.Redeem(mallory.PublicKey, ch.Value, proof)
	assert.ErrorIs(t, err, auth.ErrChallengeNotFound)

	// mallory's attempt leaves alice's challenge in place
	proof, err = prover.Prove(alice.SecretKey, alice.PublicKey, ch.Value)
	require.NoError(t, err)
	_, err = issuer.Redeem(alice.PublicKey, ch.Value, proof)
	require.NoError(t, err)

	_, err = issuer.Redeem(alice.PublicKey, []byte{1, 2, 3}, proof)
	assert.ErrorIs(t, err, auth.ErrChallengeNotFound)
}

func TestChallengeExpiry(t *testing.T) {
	prover := newProver()
	issuer := auth.NewChallengeIssuer(
		zap.NewNop(),
		&config.AuthConfig{ChallengeTTL: 20 * time.Millisecond},
		prover,
		nil,
	)

	kp, err := prover.GenerateKeyPair()
	require.NoError(t, err)
	ch, err := issuer.Issue(kp.PublicKey, 1)
	require.NoError(t, err)
	proof, err := prover.Prove(kp.SecretKey, kp.PublicKey, ch.Value)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, err = issuer.Redeem(kp.PublicKey, ch.Value, proof)
	assert.ErrorIs(t, err, auth.ErrChallengeNotFound)
}

func TestMaxOutstanding(t *testing.T) {
	prover := newProver()
	issuer := auth.NewChallengeIssuer(
		zap.NewNop(),
		&config.AuthConfig{MaxOutstanding: 2},
		prover,
		nil,
	)

	kp, err := prover.GenerateKeyPair()
	require.NoError(t, err)

	first, err := issuer.Issue(kp.PublicKey, 1)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := issuer.Issue(kp.PublicKey, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, issuer.Outstanding())

	proof, err := prover.Prove(kp.SecretKey, kp.PublicKey, first.Value)
	require.NoError(t, err)
	_, err = issuer.Redeem(kp.PublicKey, first.Value, proof)
	assert.ErrorIs(t, err, auth.ErrChallengeNotFound)
}

func TestIssueRequiresRegisteredIdentity(t *testing.T) {
	db, err := store.NewPebbleDB(&config.DBConfig{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	identities := store.NewPebbleIdentityStore(db, zap.NewNop())
	prover := newProver()
	issuer := auth.NewChallengeIssuer(zap.NewNop(), nil, prover, identities)

	kp, err := prover.GenerateKeyPair()
	require.NoError(t, err)

	_, err = issuer.Issue(kp.PublicKey, 1)
	assert.ErrorIs(t, err, auth.ErrUnknownIdentity)

	_, err = identities.RegisterIdentity("client", prover.Curve(), kp.PublicKey)
	require.NoError(t, err)
	_, err = issuer.Issue(kp.PublicKey, 1)
	require.NoError(t, err)

	_, err = issuer.Issue([]byte{0x02}, 1)
	assert.ErrorIs(t, err, zkerr.ErrInvalidEncoding)

	mnemonicKey, err := identity.KeyPairFromMnemonic(
		curves.Ristretto255(),
		"legal winner thank year wave sausage worth useful legal winner thank yellow",
		"",
	)
	require.NoError(t, err)
	_, err = issuer.Issue(mnemonicKey.PublicKey, 1)
	assert.Error(t, err)
}
