package keys

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/identity"
)

type InMemoryKeyManager struct {
	rand    io.Reader
	store   map[string]Key
	storeMx sync.Mutex
}

func NewInMemoryKeyManager() *InMemoryKeyManager {
	store := make(map[string]Key)

	return &InMemoryKeyManager{
		rand:  rand.Reader,
		store: store,
	}
}

// CreateIdentity implements KeyManager
func (f *InMemoryKeyManager) CreateIdentity(
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

	return kp, nil
}

// ImportIdentity implements KeyManager
func (f *InMemoryKeyManager) ImportIdentity(
	id string,
	keyPair *identity.KeyPair,
) error {
	key, err := fromKeyPair(id, keyPair)
	if err != nil {
		return err
	}

	return f.save(id, *key)
}

// GetIdentity implements KeyManager
func (f *InMemoryKeyManager) GetIdentity(id string) (*identity.KeyPair, error) {
	key, err := f.read(id)
	if err != nil {
		return nil, err
	}

	return key.KeyPair()
}

// GetRawKey implements KeyManager
func (f *InMemoryKeyManager) GetRawKey(id string) (*Key, error) {
	key, err := f.read(id)
	return &key, err
}

// PutRawKey implements KeyManager
func (f *InMemoryKeyManager) PutRawKey(key *Key) error {
	return f.save(key.Id, *key)
}

// DeleteKey implements KeyManager
func (f *InMemoryKeyManager) DeleteKey(id string) error {
	f.storeMx.Lock()
	delete(f.store, id)
	f.storeMx.Unlock()

	return nil
}

// ListKeys implements KeyManager
func (f *InMemoryKeyManager) ListKeys() ([]*Key, error) {
	keys := []*Key{}

	f.storeMx.Lock()
	for _, k := range f.store {
		k := k
		keys = append(keys, &k)
	}
	f.storeMx.Unlock()

	return keys, nil
}

var _ KeyManager = (*InMemoryKeyManager)(nil)

func (f *InMemoryKeyManager) save(id string, key Key) error {
	f.storeMx.Lock()
	f.store[id] = Key{
		Id:         key.Id,
		Type:       key.Type,
		PublicKey:  append(ByteString{}, key.PublicKey...),
		PrivateKey: append(ByteString{}, key.PrivateKey...),
	}
	f.storeMx.Unlock()

	return nil
}

func (f *InMemoryKeyManager) read(id string) (Key, error) {
	f.storeMx.Lock()
	defer f.storeMx.Unlock()

	k, ok := f.store[id]
	if !ok {
		return Key{}, KeyNotFoundErr
	}

	return Key{
		Id:         k.Id,
		Type:       k.Type,
		PublicKey:  k.PublicKey,
		PrivateKey: k.PrivateKey,
	}, nil
}
