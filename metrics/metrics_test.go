package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
	"github.com/zkfl/zkptoolkit/metrics"
	"go.uber.org/zap"
)

func TestObserve(t *testing.T) {
	m := metrics.NewMetrics(zap.NewNop(), nil)
	start := time.Now()

	m.ObserveProve(metrics.KindStatement, start, nil)
	m.ObserveVerify(metrics.KindStatement, start, true, nil)
	m.ObserveVerify(metrics.KindStatement, start, false, nil)
	m.ObserveVerify(metrics.KindSchnorr, start, false, errors.Wrap(zkerr.ErrInvalidEncoding, "x"))
	m.ObserveAggregate(start, 5, nil)
	m.ObserveAggregate(start, 3, &zkerr.InvalidProofError{Index: 1})
	m.ObserveChallenge("issue", nil)

	count, err := testutil.GatherAndCount(m.Registry())
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	problems, err := testutil.GatherAndLint(m.Registry())
	require.NoError(t, err)
	assert.Empty(t, problems)

	for name, want := range map[string]int{
		"zkp_proofs_generated_total":   1,
		"zkp_proofs_verified_total":    3,
		"zkp_aggregator_batches_total": 2,
		"zkp_aggregator_proofs_total":  1,
		"zkp_auth_challenges_total":    1,
	} {
		got, err := testutil.GatherAndCount(m.Registry(), name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zkp.prom")
	m := metrics.NewMetrics(zap.NewNop(), &config.MetricsConfig{
		Enabled:      true,
		Namespace:    "fl",
		TextfilePath: path,
	})

	m.ObserveAggregate(time.Now(), 4, nil)
	require.NoError(t, m.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fl_aggregator_proofs_total 4")

	disabled := metrics.NewMetrics(zap.NewNop(), &config.MetricsConfig{TextfilePath: path + ".off"})
	require.NoError(t, disabled.Flush())
	assert.NoFileExists(t, path+".off")
}
