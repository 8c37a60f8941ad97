package store

import (
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"
)

// IdentityRecord is a registered client identity. Only the public key is
// ever stored.
type IdentityRecord struct {
	Name         string         `cbor:"1,keyasint"`
	Curve        curves.CurveID `cbor:"2,keyasint"`
	PublicKey    []byte         `cbor:"3,keyasint"`
	RegisteredAt int64          `cbor:"4,keyasint"`
}

type IdentityStore interface {
	RegisterIdentity(name string, curve curves.Curve, publicKey []byte) (
		*IdentityRecord,
		error,
	)
	GetIdentity(curve curves.CurveID, publicKey []byte) (*IdentityRecord, error)
	RemoveIdentity(curve curves.CurveID, publicKey []byte) error
	RangeIdentities() (*PebbleIdentityIterator, error)
}

type PebbleIdentityStore struct {
	db     KVDB
	logger *zap.Logger
	now    func() time.Time
}

type PebbleIdentityIterator struct {
	i Iterator
}

var _ TypedIterator[*IdentityRecord] = (*PebbleIdentityIterator)(nil)
var _ IdentityStore = (*PebbleIdentityStore)(nil)

func (p *PebbleIdentityIterator) First() bool {
	return p.i.First()
}

func (p *PebbleIdentityIterator) Next() bool {
	return p.i.Next()
}

func (p *PebbleIdentityIterator) Valid() bool {
	return p.i.Valid()
}

func (p *PebbleIdentityIterator) Value() (*IdentityRecord, error) {
	if !p.i.Valid() {
		return nil, ErrNotFound
	}

	record := &IdentityRecord{}
	if err := unmarshalRecord(p.i.Value(), record); err != nil {
		return nil, errors.Wrap(err, "get identity iterator value")
	}

	return record, nil
}

func (p *PebbleIdentityIterator) Close() error {
	return errors.Wrap(p.i.Close(), "closing iterator")
}

func NewPebbleIdentityStore(db KVDB, logger *zap.Logger) *PebbleIdentityStore {
	return &PebbleIdentityStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

const (
	IDENTITY      = 0x01
	IDENTITY_DATA = 0x00
)

// identityKey addresses a public key by its curve and SHA3-256 digest so
// that keys of every curve share one fixed width layout.
func identityKey(curve curves.CurveID, publicKey []byte) []byte {
	digest := sha3.Sum256(publicKey)
	key := []byte{IDENTITY, IDENTITY_DATA, byte(curve)}
	key = append(key, digest[:]...)
	return key
}

// RegisterIdentity stores a new identity. The public key must be a valid
// point on curve; registering the same key twice yields ErrAlreadyExists.
func (p *PebbleIdentityStore) RegisterIdentity(
	name string,
	curve curves.Curve,
	publicKey []byte,
) (*IdentityRecord, error) {
	if _, err := identity.ParsePublicKey(curve, publicKey); err != nil {
		return nil, errors.Wrap(err, "register identity")
	}

	key := identityKey(curve.ID(), publicKey)
	_, closer, err := p.db.Get(key)
	if err == nil {
		closer.Close()
		return nil, errors.Wrap(ErrAlreadyExists, "register identity")
	}

	if !errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrap(err, "register identity")
	}

	record := &IdentityRecord{
		Name:         name,
		Curve:        curve.ID(),
		PublicKey:    append([]byte{}, publicKey...),
		RegisteredAt: p.now().Unix(),
	}

	data, err := marshalRecord(record)
	if err != nil {
		return nil, errors.Wrap(err, "register identity")
	}

	if err := p.db.Set(key, data); err != nil {
		return nil, errors.Wrap(err, "register identity")
	}

	p.logger.Debug(
		"registered identity",
		zap.String("name", name),
		zap.String("curve", curve.Name()),
	)

	return record, nil
}

// Retrieves a registered identity, returns ErrNotFound if not present.
func (p *PebbleIdentityStore) GetIdentity(
	curve curves.CurveID,
	publicKey []byte,
) (*IdentityRecord, error) {
	value, closer, err := p.db.Get(identityKey(curve, publicKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "get identity")
	}

	defer closer.Close()

	record := &IdentityRecord{}
	if err := unmarshalRecord(value, record); err != nil {
		return nil, errors.Wrap(err, "get identity")
	}

	return record, nil
}

func (p *PebbleIdentityStore) RemoveIdentity(
	curve curves.CurveID,
	publicKey []byte,
) error {
	if _, err := p.GetIdentity(curve, publicKey); err != nil {
		return errors.Wrap(err, "remove identity")
	}

	return errors.Wrap(
		p.db.Delete(identityKey(curve, publicKey)),
		"remove identity",
	)
}

func (p *PebbleIdentityStore) RangeIdentities() (
	*PebbleIdentityIterator,
	error,
) {
	iter, err := p.db.NewIter(
		[]byte{IDENTITY, IDENTITY_DATA},
		[]byte{IDENTITY, IDENTITY_DATA + 1},
	)
	if err != nil {
		return nil, errors.Wrap(err, "range identities")
	}

	return &PebbleIdentityIterator{i: iter}, nil
}
