package config

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

// KeyManagerType selects where named identities are kept.
type KeyManagerType int

const (
	KeyManagerTypeInMemory KeyManagerType = iota
	KeyManagerTypeFile
)

// EncryptionKeySize is the AES-256 key length sealing the key file.
const EncryptionKeySize = 32

var keyManagerTypeNames = map[KeyManagerType]string{
	KeyManagerTypeInMemory: "mem",
	KeyManagerTypeFile:     "file",
}

func (k KeyManagerType) String() string {
	if name, ok := keyManagerTypeNames[k]; ok {
		return name
	}

	return fmt.Sprintf("KeyManagerType(%d)", int(k))
}

func (k KeyManagerType) MarshalText() ([]byte, error) {
	name, ok := keyManagerTypeNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown key manager type (%d)", int(k))
	}

	return []byte(name), nil
}

func (k *KeyManagerType) UnmarshalText(b []byte) error {
	for t, name := range keyManagerTypeNames {
		if name == string(b) {
			*k = t
			return nil
		}
	}

	return fmt.Errorf("unknown key manager type %q", b)
}

type KeyConfig struct {
	KeyStore     KeyManagerType      `yaml:"keyManagerType"`
	KeyStoreFile *KeyStoreFileConfig `yaml:"keyManagerFile"`
}

// Validate checks that a file backed key manager has a path and a usable
// sealing key. In-memory managers need nothing.
func (k *KeyConfig) Validate() error {
	switch k.KeyStore {
	case KeyManagerTypeInMemory:
		return nil
	case KeyManagerTypeFile:
		if k.KeyStoreFile == nil || k.KeyStoreFile.Path == "" {
			return errors.New("validate: key manager file path missing")
		}

		_, err := k.KeyStoreFile.Key()
		return errors.Wrap(err, "validate")
	}

	return errors.Errorf("validate: %s", k.KeyStore)
}

// KeyStoreFileConfig locates the identity file. EncryptionKey is the hex
// AES-256 key generated on first run.
type KeyStoreFileConfig struct {
	Path            string `yaml:"path"`
	CreateIfMissing bool   `yaml:"createIfMissing"`
	EncryptionKey   string `yaml:"encryptionKey"`
}

func (f *KeyStoreFileConfig) Key() ([]byte, error) {
	key, err := hex.DecodeString(f.EncryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "key")
	}

	if len(key) != EncryptionKeySize {
		return nil, errors.Errorf(
			"key: encryption key must be %d bytes, got %d",
			EncryptionKeySize,
			len(key),
		)
	}

	return key, nil
}
