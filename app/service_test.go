package app_test

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/app"
	"github.com/zkfl/zkptoolkit/auth"
	"github.com/zkfl/zkptoolkit/codec"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig(t.TempDir())
	cfg.Key.KeyStore = config.KeyManagerTypeInMemory
	cfg.DB.InMemory = true
	cfg.Aggregator.BatchSize = 2
	return cfg
}

func start(t *testing.T, cfg *config.Config) *app.Service {
	svc, err := app.NewService(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

// newService pins the squareTrace circuit.
func newService(t *testing.T) *app.Service {
	cfg := testConfig(t)
	digest := squareShape(t).Digest()
	cfg.Prover.TrustedShapes = []string{hex.EncodeToString(digest[:])}
	return start(t, cfg)
}

func squareShape(t *testing.T) *r1cs.ConstraintSystem {
	trace, err := codec.DecodeTrace(squareTrace(t, 1))
	require.NoError(t, err)
	cs, _, _, err := r1cs.Arithmetize(trace)
	require.NoError(t, err)
	return cs
}

func squareTrace(t *testing.T, v int64) []byte {
	var x, out fr.Element
	x.SetInt64(v)
	out.Mul(&x, &x)

	b := r1cs.NewBuilder()
	pub := b.Public(out)
	w := b.Private(x)
	b.AssertEqual(b.Mul(w, w), pub)
	trace, err := b.Build()
	require.NoError(t, err)

	data, err := codec.EncodeTrace(trace)
	require.NoError(t, err)
	return data
}

func TestIdentityChallengeFlow(t *testing.T) {
	svc := newService(t)

	kp, phrase, err := svc.CreateIdentity("client-1", true)
	require.NoError(t, err)
	assert.NotEmpty(t, phrase)

	restored, err := svc.RestoreIdentity("client-1-copy", phrase, "")
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, restored.PublicKey)

	_, err = svc.IssueChallenge(kp.PublicKey, 1)
	assert.ErrorIs(t, err, auth.ErrUnknownIdentity)

	_, err = svc.RegisterIdentity("client-1", kp.PublicKey)
	require.NoError(t, err)

	records, err := svc.ListIdentities()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "client-1", records[0].Name)

	ch, err := svc.IssueChallenge(kp.PublicKey, 4)
	require.NoError(t, err)

	proof, err := svc.SchnorrProve("client-1", ch.Value)
	require.NoError(t, err)

	ok, err := svc.SchnorrVerify(kp.PublicKey, proof, ch.Value)
	require.NoError(t, err)
	assert.True(t, ok)

	round, err := svc.RedeemChallenge(kp.PublicKey, ch.Value, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), round)

	_, err = svc.RedeemChallenge(kp.PublicKey, ch.Value, proof)
	assert.ErrorIs(t, err, auth.ErrChallengeNotFound)
}

func TestStatementAndAggregateFlow(t *testing.T) {
	svc := newService(t)

	var proofs [][]byte
	for i := int64(0); i < 3; i++ {
		proof, pub, err := svc.StatementProve([][]byte{
			squareTrace(t, 2+i),
			squareTrace(t, 5+i),
		})
		require.NoError(t, err)

		ok, err := svc.StatementVerify(proof, pub)
		require.NoError(t, err)
		assert.True(t, ok)
		proofs = append(proofs, proof)
	}

	agg, err := svc.Aggregate(context.Background(), 9, proofs)
	require.NoError(t, err)

	ok, err := svc.VerifyAggregate(agg)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := svc.GetAggregateStore().GetLatestAggregate()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), rec.Round)
	assert.Equal(t, uint64(3), rec.Count)
	assert.Equal(t, agg, rec.Proof)

	proofs[1] = []byte{0x00}
	_, err = svc.Aggregate(context.Background(), 10, proofs)
	var ipe *zkerr.InvalidProofError
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, 1, ipe.Index)

	_, _, err = svc.StatementProve(nil)
	assert.Error(t, err)
}

func TestServiceOnlyProvesPinnedCircuits(t *testing.T) {
	unpinned := start(t, testConfig(t))
	_, _, err := unpinned.StatementProve([][]byte{squareTrace(t, 3)})
	assert.ErrorIs(t, err, zkerr.ErrShapeMismatch)

	proof, pub, err := newService(t).StatementProve([][]byte{squareTrace(t, 3)})
	require.NoError(t, err)
	ok, err := unpinned.StatementVerify(proof, pub)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = unpinned.Aggregate(context.Background(), 1, [][]byte{proof})
	assert.ErrorIs(t, err, zkerr.ErrShapeMismatch)

	cfg := testConfig(t)
	cfg.Prover.Circuits = []*config.CircuitConfig{{Dimension: 2, BatchSize: 1, StepNum: 1, StepDen: 4}}
	gradient := start(t, cfg)
	step := &r1cs.GradientStep{
		Weights:  []int64{1, 2},
		Features: [][]int64{{3, 1}},
		Labels:   []int64{2},
		StepNum:  1,
		StepDen:  4,
	}
	trace, err := step.Trace()
	require.NoError(t, err)
	data, err := codec.EncodeTrace(trace)
	require.NoError(t, err)

	proof, pub, err = gradient.StatementProve([][]byte{data})
	require.NoError(t, err)
	ok, err = gradient.StatementVerify(proof, pub)
	require.NoError(t, err)
	assert.True(t, ok)
}
