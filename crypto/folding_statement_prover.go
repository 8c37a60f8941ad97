package crypto

import (
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/folding"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"go.uber.org/zap"
)

type FoldingStatementProver struct {
	scheme *folding.Scheme
	logger *zap.Logger
}

func NewFoldingStatementProver(
	logger *zap.Logger,
	scheme *folding.Scheme,
) *FoldingStatementProver {
	return &FoldingStatementProver{
		scheme: scheme,
		logger: logger,
	}
}

func (f *FoldingStatementProver) Scheme() *folding.Scheme {
	return f.scheme
}

// NewSession implements StatementProver.
func (f *FoldingStatementProver) NewSession() *folding.Session {
	return folding.NewSession()
}

// Prove implements StatementProver.
func (f *FoldingStatementProver) Prove(
	session *folding.Session,
	trace *r1cs.ComputationTrace,
) (*folding.StatementProof, error) {
	start := time.Now()
	proof, err := f.scheme.Prove(session, trace)
	if err != nil {
		f.logger.Error(
			"could not prove statement",
			zap.Stringer("session_state", session.State()),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "prove")
	}

	f.logger.Debug(
		"folded statement into session",
		zap.Uint64("step", proof.Claim.Step),
		zap.Int("constraints", proof.Shape.NumConstraints()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return proof, nil
}

// Verify implements StatementProver.
func (f *FoldingStatementProver) Verify(
	proof *folding.StatementProof,
	publicInstance []fr.Element,
) bool {
	if err := f.scheme.Check(proof, publicInstance); err != nil {
		f.logger.Debug("statement proof rejected", zap.Error(err))
		return false
	}

	return true
}
