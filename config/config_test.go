package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".config")

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, config.KeyManagerTypeFile, cfg.Key.KeyStore)
	assert.Len(t, cfg.Key.KeyStoreFile.EncryptionKey, 64)
	assert.Equal(t, 5*time.Minute, cfg.Auth.ChallengeTTL)
	assert.Equal(t, 8, cfg.Aggregator.BatchSize)
	assert.FileExists(t, filepath.Join(dir, "config.yml"))
	assert.FileExists(t, filepath.Join(dir, "keys.yml"))

	curve, err := cfg.Prover.Curve.Curve()
	require.NoError(t, err)
	assert.Equal(t, curves.CurveSecp256k1, curve.ID())

	cfg.Prover.Curve = config.CurveTypeRistretto255
	cfg.Aggregator.BatchSize = 3
	require.NoError(t, config.SaveConfig(dir, cfg))

	again, err := config.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Key.KeyStoreFile.EncryptionKey, again.Key.KeyStoreFile.EncryptionKey)
	assert.Equal(t, config.CurveTypeRistretto255, again.Prover.Curve)
	assert.Equal(t, 3, again.Aggregator.BatchSize)
}

func TestLoadConfigRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}

func TestNewConfigRejectsUnknownValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("prover:\n  curve: ed25519\n"), 0600))

	_, err := config.NewConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("key:\n  keyManagerType: mem\nprover:\n  curve: P-256\n"), 0600))
	cfg, err := config.NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.KeyManagerTypeInMemory, cfg.Key.KeyStore)
	assert.Equal(t, config.CurveTypeP256, cfg.Prover.Curve)
}

func TestTrustedDigests(t *testing.T) {
	p := &config.ProverConfig{
		TrustedShapes: []string{
			"0000000000000000000000000000000000000000000000000000000000000001",
		},
	}

	digests, err := p.TrustedDigests()
	require.NoError(t, err)
	require.Len(t, digests, 1)
	assert.Equal(t, byte(1), digests[0][31])

	p.TrustedShapes = []string{"abcd"}
	_, err = p.TrustedDigests()
	assert.Error(t, err)
}

func TestCircuitDigests(t *testing.T) {
	shape, err := r1cs.GradientShape(3, 4, 1, 100)
	require.NoError(t, err)

	p := &config.ProverConfig{
		Circuits: []*config.CircuitConfig{{Dimension: 3, BatchSize: 4, StepNum: 1, StepDen: 100}},
	}
	digests, err := p.TrustedDigests()
	require.NoError(t, err)
	assert.Equal(t, [][32]byte{shape.Digest()}, digests)

	p.Circuits = append(p.Circuits, &config.CircuitConfig{Dimension: 3, BatchSize: 4, StepNum: 1})
	_, err = p.TrustedDigests()
	assert.ErrorIs(t, err, r1cs.ErrInvalidGradientStep)
}

func TestCircuitsSurviveSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".config")
	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Prover.Circuits)

	cfg.Prover.Circuits = []*config.CircuitConfig{{Dimension: 2, BatchSize: 2, StepNum: 1, StepDen: 2}}
	require.NoError(t, config.SaveConfig(dir, cfg))

	again, err := config.LoadConfig(dir)
	require.NoError(t, err)
	require.Len(t, again.Prover.Circuits, 1)
	assert.Equal(t, *cfg.Prover.Circuits[0], *again.Prover.Circuits[0])
}

func TestKeyConfigValidate(t *testing.T) {
	assert.NoError(t, (&config.KeyConfig{KeyStore: config.KeyManagerTypeInMemory}).Validate())

	cfg := &config.KeyConfig{
		KeyStore: config.KeyManagerTypeFile,
		KeyStoreFile: &config.KeyStoreFileConfig{
			Path:          "keys.yml",
			EncryptionKey: strings.Repeat("ab", config.EncryptionKeySize),
		},
	}
	require.NoError(t, cfg.Validate())

	cfg.KeyStoreFile.EncryptionKey = "abcd"
	assert.Error(t, cfg.Validate())
	cfg.KeyStoreFile.EncryptionKey = "zz"
	assert.Error(t, cfg.Validate())

	cfg.KeyStoreFile = nil
	assert.Error(t, cfg.Validate())
	assert.Error(t, (&config.KeyConfig{KeyStore: config.KeyManagerType(7)}).Validate())
}

func TestKeyManagerTypeText(t *testing.T) {
	for _, k := range []config.KeyManagerType{
		config.KeyManagerTypeInMemory,
		config.KeyManagerTypeFile,
	} {
		b, err := k.MarshalText()
		require.NoError(t, err)

		var back config.KeyManagerType
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, k, back)
		assert.Equal(t, string(b), k.String())
	}

	_, err := config.KeyManagerType(7).MarshalText()
	assert.Error(t, err)
	var k config.KeyManagerType
	assert.Error(t, k.UnmarshalText([]byte("pkcs11")))
}
