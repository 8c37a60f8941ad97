package app

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/auth"
	"github.com/zkfl/zkptoolkit/codec"
	"github.com/zkfl/zkptoolkit/config"
	"github.com/zkfl/zkptoolkit/crypto"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/keys"
	"github.com/zkfl/zkptoolkit/metrics"
	"github.com/zkfl/zkptoolkit/store"
	"github.com/zkfl/zkptoolkit/toolkit"
	"go.uber.org/zap"
)

// Service ties the byte-level toolkit to key storage, the identity registry,
// the aggregate archive and the challenge issuer.
type Service struct {
	logger     *zap.Logger
	config     *config.Config
	toolkit    *toolkit.Toolkit
	prover     *crypto.SchnorrIdentityProver
	keyManager keys.KeyManager
	db         store.KVDB
	identities store.IdentityStore
	aggregates store.AggregateStore
	challenges *auth.ChallengeIssuer
	metrics    *metrics.Metrics
	rand       io.Reader
}

func newService(
	logger *zap.Logger,
	cfg *config.Config,
	tk *toolkit.Toolkit,
	prover *crypto.SchnorrIdentityProver,
	keyManager keys.KeyManager,
	db store.KVDB,
	identities store.IdentityStore,
	aggregates store.AggregateStore,
	challenges *auth.ChallengeIssuer,
	m *metrics.Metrics,
	rand io.Reader,
) (*Service, error) {
	if tk == nil {
		return nil, errors.New("toolkit must not be nil")
	}

	return &Service{
		logger:     logger,
		config:     cfg,
		toolkit:    tk,
		prover:     prover,
		keyManager: keyManager,
		db:         db,
		identities: identities,
		aggregates: aggregates,
		challenges: challenges,
		metrics:    m,
		rand:       rand,
	}, nil
}

func (s *Service) GetLogger() *zap.Logger {
	return s.logger
}

func (s *Service) GetToolkit() *toolkit.Toolkit {
	return s.toolkit
}

func (s *Service) GetKeyManager() keys.KeyManager {
	return s.keyManager
}

func (s *Service) GetIdentityStore() store.IdentityStore {
	return s.identities
}

func (s *Service) GetAggregateStore() store.AggregateStore {
	return s.aggregates
}

func (s *Service) GetMetrics() *metrics.Metrics {
	return s.metrics
}

// CreateIdentity generates a key pair under name. With mnemonic set the key is
// derived from a fresh BIP-39 phrase, which is returned so it can be written
// down.
func (s *Service) CreateIdentity(
	name string,
	mnemonic bool,
) (*identity.KeyPair, string, error) {
	keyType, err := keys.MapCurveToKeyType(s.prover.Curve())
	if err != nil {
		return nil, "", errors.Wrap(err, "create identity")
	}

	if !mnemonic {
		kp, err := s.keyManager.CreateIdentity(name, keyType)
		return kp, "", errors.Wrap(err, "create identity")
	}

	phrase, err := identity.NewMnemonic(s.rand)
	if err != nil {
		return nil, "", errors.Wrap(err, "create identity")
	}

	kp, err := s.prover.KeyPairFromMnemonic(phrase, "")
	if err != nil {
		return nil, "", errors.Wrap(err, "create identity")
	}

	if err := s.keyManager.ImportIdentity(name, kp); err != nil {
		return nil, "", errors.Wrap(err, "create identity")
	}

	return kp, phrase, nil
}

// RestoreIdentity re-derives and stores the identity of a mnemonic.
func (s *Service) RestoreIdentity(
	name string,
	mnemonic string,
	passphrase string,
) (*identity.KeyPair, error) {
	kp, err := s.prover.KeyPairFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, errors.Wrap(err, "restore identity")
	}

	return kp, errors.Wrap(s.keyManager.ImportIdentity(name, kp), "restore identity")
}

// SchnorrProve answers challenge with the stored identity name.
func (s *Service) SchnorrProve(name string, challenge []byte) ([]byte, error) {
	start := time.Now()
	kp, err := s.keyManager.GetIdentity(name)
	if err != nil {
		return nil, errors.Wrap(err, "schnorr prove")
	}

	proof, err := s.toolkit.SchnorrProve(kp.SecretKey, kp.PublicKey, challenge)
	s.metrics.ObserveProve(metrics.KindSchnorr, start, err)
	return proof, errors.Wrap(err, "schnorr prove")
}

func (s *Service) SchnorrVerify(
	publicKey []byte,
	proof []byte,
	challenge []byte,
) (bool, error) {
	start := time.Now()
	ok, err := s.toolkit.SchnorrVerify(publicKey, proof, challenge)
	s.metrics.ObserveVerify(metrics.KindSchnorr, start, ok, err)
	return ok, err
}

// StatementProve folds each trace, in order, into one new session and
// returns the proof of the final step together with its public instance.
func (s *Service) StatementProve(traces [][]byte) ([]byte, []byte, error) {
	if len(traces) == 0 {
		return nil, nil, errors.New("statement prove: no traces")
	}

	session := s.toolkit.NewSession()
	var proof []byte
	for i, trace := range traces {
		start := time.Now()
		var err error
		proof, err = s.toolkit.StatementProve(session, trace)
		s.metrics.ObserveProve(metrics.KindStatement, start, err)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "statement prove: trace %d", i)
		}
	}

	decoded, err := codec.DecodeStatementProof(proof)
	if err != nil {
		return nil, nil, errors.Wrap(err, "statement prove")
	}

	return proof, codec.EncodePublicInstance(decoded.PublicInstance()), nil
}

func (s *Service) StatementVerify(
	proof []byte,
	publicInstance []byte,
) (bool, error) {
	start := time.Now()
	ok, err := s.toolkit.StatementVerify(proof, publicInstance)
	s.metrics.ObserveVerify(metrics.KindStatement, start, ok, err)
	return ok, err
}

// Aggregate verifies and folds proofs and archives the aggregate under
// round.
func (s *Service) Aggregate(
	ctx context.Context,
	round uint64,
	proofs [][]byte,
) ([]byte, error) {
	start := time.Now()
	agg, err := s.toolkit.AggregateVerify(ctx, proofs)
	s.metrics.ObserveAggregate(start, len(proofs), err)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate")
	}

	txn, err := s.aggregates.NewTransaction()
	if err != nil {
		return nil, errors.Wrap(err, "aggregate")
	}

	if err := s.aggregates.PutAggregate(&store.AggregateRecord{
		Round: round,
		Count: uint64(len(proofs)),
		Proof: agg,
	}, txn); err != nil {
		txn.Abort()
		return nil, errors.Wrap(err, "aggregate")
	}

	if err := txn.Commit(); err != nil {
		return nil, errors.Wrap(err, "aggregate")
	}

	s.logger.Info(
		"stored aggregate",
		zap.Uint64("round", round),
		zap.Int("proofs", len(proofs)),
	)
	return agg, nil
}

func (s *Service) VerifyAggregate(agg []byte) (bool, error) {
	start := time.Now()
	ok, err := s.toolkit.VerifyAggregate(agg)
	s.metrics.ObserveVerify(metrics.KindAggregate, start, ok, err)
	return ok, err
}

func (s *Service) RegisterIdentity(
	name string,
	publicKey []byte,
) (*store.IdentityRecord, error) {
	rec, err := s.identities.RegisterIdentity(name, s.prover.Curve(), publicKey)
	return rec, errors.Wrap(err, "register identity")
}

func (s *Service) ListIdentities() ([]*store.IdentityRecord, error) {
	iter, err := s.identities.RangeIdentities()
	if err != nil {
		return nil, errors.Wrap(err, "list identities")
	}

	defer iter.Close()

	records := []*store.IdentityRecord{}
	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := iter.Value()
		if err != nil {
			return nil, errors.Wrap(err, "list identities")
		}

		records = append(records, rec)
	}

	return records, nil
}

func (s *Service) IssueChallenge(
	publicKey []byte,
	round uint64,
) (*auth.Challenge, error) {
	ch, err := s.challenges.Issue(publicKey, round)
	s.metrics.ObserveChallenge("issue", err)
	return ch, errors.Wrap(err, "issue challenge")
}

func (s *Service) RedeemChallenge(
	publicKey []byte,
	challenge []byte,
	proof []byte,
) (uint64, error) {
	round, err := s.challenges.Redeem(publicKey, challenge, proof)
	s.metrics.ObserveChallenge("redeem", err)
	return round, errors.Wrap(err, "redeem challenge")
}

// Close flushes metrics and closes the database.
func (s *Service) Close() error {
	if err := s.metrics.Flush(); err != nil {
		s.logger.Warn("could not flush metrics", zap.Error(err))
	}

	return errors.Wrap(s.db.Close(), "close")
}
