package keys

import (
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/identity"
)

type KeyType int

const (
	KeyTypeSecp256k1Schnorr KeyType = iota
	KeyTypeRistretto255Schnorr
	KeyTypeP256Schnorr
)

// KeyManager stores named Schnorr identities.
type KeyManager interface {
	GetRawKey(id string) (*Key, error)
	GetIdentity(id string) (*identity.KeyPair, error)
	PutRawKey(key *Key) error
	CreateIdentity(id string, keyType KeyType) (*identity.KeyPair, error)
	ImportIdentity(id string, keyPair *identity.KeyPair) error
	DeleteKey(id string) error
	ListKeys() ([]*Key, error)
}

var UnsupportedKeyTypeErr = errors.New("unsupported key type")
var KeyNotFoundErr = errors.New("key not found")

type ByteString []byte

func (b ByteString) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

func (b *ByteString) UnmarshalText(text []byte) error {
	value, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}

	*b = value
	return nil
}

type Key struct {
	Id         string     `yaml:"id"`
	Type       KeyType    `yaml:"type"`
	PrivateKey ByteString `yaml:"privateKey"`
	PublicKey  ByteString `yaml:"publicKey"`
}

// KeyPair parses the stored key back into a validated identity.
func (k *Key) KeyPair() (*identity.KeyPair, error) {
	curve, err := k.Type.Curve()
	if err != nil {
		return nil, err
	}

	kp := &identity.KeyPair{
		Curve:     curve,
		SecretKey: k.PrivateKey,
		PublicKey: k.PublicKey,
	}
	if err := kp.Validate(); err != nil {
		return nil, errors.Wrapf(err, "key %s", k.Id)
	}

	return kp, nil
}

func (t KeyType) Curve() (curves.Curve, error) {
	switch t {
	case KeyTypeSecp256k1Schnorr:
		return curves.Secp256k1(), nil
	case KeyTypeRistretto255Schnorr:
		return curves.Ristretto255(), nil
	case KeyTypeP256Schnorr:
		return curves.P256(), nil
	}

	return nil, UnsupportedKeyTypeErr
}

func (t KeyType) String() string {
	curve, err := t.Curve()
	if err != nil {
		return "unknown"
	}

	return curve.Name()
}

func MapCurveToKeyType(curve curves.Curve) (KeyType, error) {
	switch curve.ID() {
	case curves.CurveSecp256k1:
		return KeyTypeSecp256k1Schnorr, nil
	case curves.CurveRistretto255:
		return KeyTypeRistretto255Schnorr, nil
	case curves.CurveP256:
		return KeyTypeP256Schnorr, nil
	}

	return KeyTypeSecp256k1Schnorr, errors.New("no keytype for curve")
}

func generate(id string, keyType KeyType, rand io.Reader) (*Key, *identity.KeyPair, error) {
	curve, err := keyType.Curve()
	if err != nil {
		return nil, nil, err
	}

	kp, err := identity.NewGenerator(curve, rand).Generate()
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate key")
	}

	return &Key{
		Id:         id,
		Type:       keyType,
		PrivateKey: kp.SecretKey,
		PublicKey:  kp.PublicKey,
	}, kp, nil
}

func fromKeyPair(id string, kp *identity.KeyPair) (*Key, error) {
	if err := kp.Validate(); err != nil {
		return nil, errors.Wrap(err, "could not import key")
	}

	keyType, err := MapCurveToKeyType(kp.Curve)
	if err != nil {
		return nil, err
	}

	return &Key{
		Id:         id,
		Type:       keyType,
		PrivateKey: kp.SecretKey,
		PublicKey:  kp.PublicKey,
	}, nil
}
