package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// FileKeyManager keeps identities in a YAML file with every private key
// sealed under AES-256-GCM.
type FileKeyManager struct {
	keyStoreConfig *config.KeyStoreFileConfig
	logger         *zap.Logger
	rand           io.Reader
	key            ByteString
	store          map[string]Key
	storeMx        sync.Mutex
}

func NewFileKeyManager(
	keyStoreConfig *config.KeyConfig,
	logger *zap.Logger,
) (*FileKeyManager, error) {
	if keyStoreConfig.KeyStoreFile == nil {
		return nil, errors.New("key store config missing")
	}

	key, err := keyStoreConfig.KeyStoreFile.Key()
	if err != nil {
		return nil, errors.Wrap(err, "new file key manager")
	}

	f := &FileKeyManager{
		keyStoreConfig: keyStoreConfig.KeyStoreFile,
		logger:         logger,
		rand:           rand.Reader,
		key:            key,
		store:          make(map[string]Key),
	}

	f.storeMx.Lock()
	defer f.storeMx.Unlock()
	if err := f.load(); err != nil {
		return nil, errors.Wrap(err, "new file key manager")
	}

	return f, nil
}

// CreateIdentity implements KeyManager
func (f *FileKeyManager) CreateIdentity(
	id string,
	keyType KeyType,
) (*identity.KeyPair, error) {
	key, kp, err := generate(id, keyType, f.rand)
	if err != nil {
		return nil, err
	}

	if err = f.save(id, *key); err != nil {
		return nil, errors.Wrap(err, "could not save")
	}

	f.logger.Info(
		"created identity",
		zap.String("id", id),
		zap.Stringer("key_type", keyType),
	)

	return kp, nil
}

// ImportIdentity implements KeyManager
func (f *FileKeyManager) ImportIdentity(
	id string,
	keyPair *identity.KeyPair,
) error {
	key, err := fromKeyPair(id, keyPair)
	if err != nil {
		return err
	}

	return errors.Wrap(f.save(id, *key), "could not save")
}

// GetIdentity implements KeyManager
func (f *FileKeyManager) GetIdentity(id string) (*identity.KeyPair, error) {
	key, err := f.read(id)
	if err != nil {
		return nil, err
	}

	return key.KeyPair()
}

// GetRawKey implements KeyManager
func (f *FileKeyManager) GetRawKey(id string) (*Key, error) {
	key, err := f.read(id)
	return &key, err
}

// PutRawKey implements KeyManager
func (f *FileKeyManager) PutRawKey(key *Key) error {
	return f.save(key.Id, *key)
}

// DeleteKey implements KeyManager
func (f *FileKeyManager) DeleteKey(id string) error {
	f.storeMx.Lock()
	defer f.storeMx.Unlock()

	if err := f.load(); err != nil {
		return err
	}

	delete(f.store, id)

	return errors.Wrap(f.flush(), "could not store")
}

// ListKeys implements KeyManager
func (f *FileKeyManager) ListKeys() ([]*Key, error) {
	f.storeMx.Lock()
	defer f.storeMx.Unlock()

	if err := f.load(); err != nil {
		return nil, err
	}

	keys := []*Key{}
	for id := range f.store {
		key, err := f.decryptKey(id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, &key)
	}

	return keys, nil
}

var _ KeyManager = (*FileKeyManager)(nil)

func (f *FileKeyManager) save(id string, key Key) error {
	encKey, err := f.encrypt(key.PrivateKey)
	if err != nil {
		return errors.Wrap(err, "could not encrypt")
	}

	f.storeMx.Lock()
	defer f.storeMx.Unlock()

	if err := f.load(); err != nil {
		return err
	}

	f.store[id] = Key{
		Id:         key.Id,
		Type:       key.Type,
		PublicKey:  key.PublicKey,
		PrivateKey: encKey,
	}

	return errors.Wrap(f.flush(), "could not store")
}

func (f *FileKeyManager) read(id string) (Key, error) {
	f.storeMx.Lock()
	defer f.storeMx.Unlock()

	if err := f.load(); err != nil {
		return Key{}, err
	}

	return f.decryptKey(id)
}

// load refreshes the in-memory view from disk. Callers hold storeMx.
func (f *FileKeyManager) load() error {
	flag := os.O_RDONLY

	if f.keyStoreConfig.CreateIfMissing {
		flag |= os.O_CREATE
	}

	file, err := os.OpenFile(f.keyStoreConfig.Path, flag, os.FileMode(0600))
	if err != nil {
		return errors.Wrap(err, "could not open store")
	}

	defer file.Close()

	store := make(map[string]Key)
	d := yaml.NewDecoder(file)
	if err = d.Decode(store); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "could not decode")
	}

	f.store = store
	return nil
}

// flush writes the in-memory view to disk. Callers hold storeMx.
func (f *FileKeyManager) flush() error {
	file, err := os.OpenFile(
		f.keyStoreConfig.Path,
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC,
		os.FileMode(0600),
	)
	if err != nil {
		return errors.Wrap(err, "could not open store")
	}

	defer file.Close()

	return yaml.NewEncoder(file).Encode(f.store)
}

func (f *FileKeyManager) decryptKey(id string) (Key, error) {
	stored, ok := f.store[id]
	if !ok {
		return Key{}, KeyNotFoundErr
	}

	data, err := f.decrypt(stored.PrivateKey)
	if err != nil {
		return Key{}, errors.Wrap(err, "could not decrypt")
	}

	return Key{
		Id:         stored.Id,
		Type:       stored.Type,
		PublicKey:  stored.PublicKey,
		PrivateKey: data,
	}, nil
}

func (f *FileKeyManager) encrypt(data []byte) ([]byte, error) {
	iv := [12]byte{}
	if _, err := io.ReadFull(f.rand, iv[:]); err != nil {
		return nil, errors.Wrap(err, "could not read iv")
	}

	aesCipher, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, errors.Wrap(err, "could not construct cipher")
	}

	gcm, err := cipher.NewGCM(aesCipher)
	if err != nil {
		return nil, errors.Wrap(err, "could not construct block")
	}

	ciphertext := gcm.Seal(nil, iv[:], data, nil)
	ciphertext = append(append([]byte{}, iv[:]...), ciphertext...)

	return ciphertext, nil
}

func (f *FileKeyManager) decrypt(data []byte) ([]byte, error) {
	if len(data) < 12 {
		return nil, errors.New("ciphertext too short")
	}

	iv := data[:12]
	aesCipher, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, errors.Wrap(err, "could not construct cipher")
	}

	gcm, err := cipher.NewGCM(aesCipher)
	if err != nil {
		return nil, errors.Wrap(err, "could not construct block")
	}

	ciphertext := data[12:]
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)

	return plaintext, errors.Wrap(err, "could not decrypt ciphertext")
}
