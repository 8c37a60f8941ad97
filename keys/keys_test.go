package keys_test

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/keys"
	"go.uber.org/zap"
)

func fileConfig(t *testing.T) *config.KeyConfig {
	return &config.KeyConfig{
		KeyStore: config.KeyManagerTypeFile,
		KeyStoreFile: &config.KeyStoreFileConfig{
			Path:            filepath.Join(t.TempDir(), "keys.yml"),
			CreateIfMissing: true,
			EncryptionKey:   hex.EncodeToString(make([]byte, 32)),
		},
	}
}

func managers(t *testing.T) map[string]keys.KeyManager {
	f, err := keys.NewFileKeyManager(fileConfig(t), zap.NewNop())
	require.NoError(t, err)

	return map[string]keys.KeyManager{
		"mem":  keys.NewInMemoryKeyManager(),
		"file": f,
	}
}

func TestKeyManagers(t *testing.T) {
	for name, km := range managers(t) {
		t.Run(name, func(t *testing.T) {
			for _, kt := range []keys.KeyType{
				keys.KeyTypeSecp256k1Schnorr,
				keys.KeyTypeRistretto255Schnorr,
				keys.KeyTypeP256Schnorr,
			} {
				kp, err := km.CreateIdentity(kt.String(), kt)
				require.NoError(t, err)
				require.NoError(t, kp.Validate())

				got, err := km.GetIdentity(kt.String())
				require.NoError(t, err)
				assert.Equal(t, kp.SecretKey, got.SecretKey)
				assert.Equal(t, kp.PublicKey, got.PublicKey)
				assert.Equal(t, kp.Curve.ID(), got.Curve.ID())
			}

			list, err := km.ListKeys()
			require.NoError(t, err)
			assert.Len(t, list, 3)

			require.NoError(t, km.DeleteKey(curves.P256Name))
			_, err = km.GetIdentity(curves.P256Name)
			assert.ErrorIs(t, err, keys.KeyNotFoundErr)

			_, err = km.CreateIdentity("bad", keys.KeyType(9))
			assert.ErrorIs(t, err, keys.UnsupportedKeyTypeErr)
		})
	}
}

func TestImportIdentity(t *testing.T) {
	for name, km := range managers(t) {
		t.Run(name, func(t *testing.T) {
			kp, err := identity.DefaultGenerator().Generate()
			require.NoError(t, err)
			require.NoError(t, km.ImportIdentity("imported", kp))

			raw, err := km.GetRawKey("imported")
			require.NoError(t, err)
			assert.Equal(t, keys.KeyTypeSecp256k1Schnorr, raw.Type)

			bad := *kp
			bad.PublicKey = append([]byte{}, kp.PublicKey...)
			bad.PublicKey[1] ^= 0x01
			assert.Error(t, km.ImportIdentity("bad", &bad))
		})
	}
}

func TestFileKeyManagerEncryptsAtRest(t *testing.T) {
	cfg := fileConfig(t)
	f, err := keys.NewFileKeyManager(cfg, zap.NewNop())
	require.NoError(t, err)

	kp, err := f.CreateIdentity("client-1", keys.KeyTypeSecp256k1Schnorr)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.KeyStoreFile.Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), hex.EncodeToString(kp.PublicKey))
	assert.NotContains(t, string(raw), hex.EncodeToString(kp.SecretKey))

	reopened, err := keys.NewFileKeyManager(cfg, zap.NewNop())
	require.NoError(t, err)
	got, err := reopened.GetIdentity("client-1")
	require.NoError(t, err)
	assert.Equal(t, kp.SecretKey, got.SecretKey)

	cfg.KeyStoreFile.EncryptionKey = hex.EncodeToString(append(make([]byte, 31), 1))
	wrongKey, err := keys.NewFileKeyManager(cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = wrongKey.GetIdentity("client-1")
	assert.Error(t, err)
}

func TestFileKeyManagerRejectsBadConfig(t *testing.T) {
	cfg := fileConfig(t)
	cfg.KeyStoreFile.EncryptionKey = "zz"
	_, err := keys.NewFileKeyManager(cfg, zap.NewNop())
	assert.Error(t, err)

	_, err = keys.NewFileKeyManager(&config.KeyConfig{}, zap.NewNop())
	assert.Error(t, err)
}
