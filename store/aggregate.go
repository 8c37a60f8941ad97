package store

import (
	"encoding/binary"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AggregateRecord is an encoded aggregate proof accepted for a training
// round.
type AggregateRecord struct {
	Round    uint64 `cbor:"1,keyasint"`
	Count    uint64 `cbor:"2,keyasint"`
	Proof    []byte `cbor:"3,keyasint"`
	StoredAt int64  `cbor:"4,keyasint"`
}

type AggregateStore interface {
	NewTransaction() (Transaction, error)
	PutAggregate(record *AggregateRecord, txn Transaction) error
	GetAggregate(round uint64) (*AggregateRecord, error)
	GetLatestAggregate() (*AggregateRecord, error)
	RangeAggregates(startRound, endRound uint64) (*PebbleAggregateIterator, error)
}

type PebbleAggregateStore struct {
	db     KVDB
	logger *zap.Logger
	now    func() time.Time
}

type PebbleAggregateIterator struct {
	i Iterator
}

var _ TypedIterator[*AggregateRecord] = (*PebbleAggregateIterator)(nil)
var _ AggregateStore = (*PebbleAggregateStore)(nil)

func (p *PebbleAggregateIterator) First() bool {
	return p.i.First()
}

func (p *PebbleAggregateIterator) Next() bool {
	return p.i.Next()
}

func (p *PebbleAggregateIterator) Valid() bool {
	return p.i.Valid()
}

func (p *PebbleAggregateIterator) Value() (*AggregateRecord, error) {
	if !p.i.Valid() {
		return nil, ErrNotFound
	}

	record := &AggregateRecord{}
	if err := unmarshalRecord(p.i.Value(), record); err != nil {
		return nil, errors.Wrap(err, "get aggregate iterator value")
	}

	return record, nil
}

func (p *PebbleAggregateIterator) Close() error {
	return errors.Wrap(p.i.Close(), "closing iterator")
}

func NewPebbleAggregateStore(db KVDB, logger *zap.Logger) *PebbleAggregateStore {
	return &PebbleAggregateStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

const (
	AGGREGATE        = 0x02
	AGGREGATE_DATA   = 0x00
	AGGREGATE_LATEST = 0x01
)

func aggregateKey(round uint64) []byte {
	key := []byte{AGGREGATE, AGGREGATE_DATA}
	key = binary.BigEndian.AppendUint64(key, round)
	return key
}

func aggregateLatestKey() []byte {
	return []byte{AGGREGATE, AGGREGATE_LATEST}
}

func (p *PebbleAggregateStore) NewTransaction() (Transaction, error) {
	return p.db.NewBatch(), nil
}

// PutAggregate stores record for its round, replacing any earlier aggregate
// of that round, and advances the latest round marker when the round is
// newer.
func (p *PebbleAggregateStore) PutAggregate(
	record *AggregateRecord,
	txn Transaction,
) error {
	if record.StoredAt == 0 {
		record.StoredAt = p.now().Unix()
	}

	data, err := marshalRecord(record)
	if err != nil {
		return errors.Wrap(err, "put aggregate")
	}

	if err := txn.Set(aggregateKey(record.Round), data); err != nil {
		return errors.Wrap(err, "put aggregate")
	}

	latest, closer, err := txn.Get(aggregateLatestKey())
	if err != nil && !errors.Is(err, pebble.ErrNotFound) {
		return errors.Wrap(err, "put aggregate")
	}

	advance := err != nil
	if err == nil {
		corrupt := len(latest) != 8
		advance = !corrupt && binary.BigEndian.Uint64(latest) <= record.Round
		closer.Close()
		if corrupt {
			return errors.Wrap(ErrInvalidData, "put aggregate: latest round")
		}
	}

	if advance {
		if err := txn.Set(
			aggregateLatestKey(),
			binary.BigEndian.AppendUint64(nil, record.Round),
		); err != nil {
			return errors.Wrap(err, "put aggregate")
		}
	}

	return nil
}

func (p *PebbleAggregateStore) GetAggregate(
	round uint64,
) (*AggregateRecord, error) {
	value, closer, err := p.db.Get(aggregateKey(round))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "get aggregate")
	}

	defer closer.Close()

	record := &AggregateRecord{}
	if err := unmarshalRecord(value, record); err != nil {
		return nil, errors.Wrap(err, "get aggregate")
	}

	return record, nil
}

// Returns the aggregate of the highest round stored.
func (p *PebbleAggregateStore) GetLatestAggregate() (*AggregateRecord, error) {
	value, closer, err := p.db.Get(aggregateLatestKey())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "get latest aggregate")
	}

	if len(value) != 8 {
		closer.Close()
		return nil, errors.Wrap(ErrInvalidData, "get latest aggregate")
	}

	round := binary.BigEndian.Uint64(value)
	if err := closer.Close(); err != nil {
		return nil, errors.Wrap(err, "get latest aggregate")
	}

	return p.GetAggregate(round)
}

// RangeAggregates iterates rounds in [startRound, endRound].
func (p *PebbleAggregateStore) RangeAggregates(
	startRound uint64,
	endRound uint64,
) (*PebbleAggregateIterator, error) {
	upper := []byte{AGGREGATE, AGGREGATE_DATA + 1}
	if endRound != ^uint64(0) {
		upper = aggregateKey(endRound + 1)
	}

	iter, err := p.db.NewIter(aggregateKey(startRound), upper)
	if err != nil {
		return nil, errors.Wrap(err, "range aggregates")
	}

	return &PebbleAggregateIterator{i: iter}, nil
}
