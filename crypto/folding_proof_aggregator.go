package crypto

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/aggregate"
	"github.com/zkfl/zkptoolkit/crypto/folding"
	"go.uber.org/zap"
)

type FoldingProofAggregator struct {
	aggregator *aggregate.Aggregator
	logger     *zap.Logger
}

func NewFoldingProofAggregator(
	logger *zap.Logger,
	aggregator *aggregate.Aggregator,
) *FoldingProofAggregator {
	return &FoldingProofAggregator{
		aggregator: aggregator,
		logger:     logger,
	}
}

// Verify implements ProofAggregator.
func (f *FoldingProofAggregator) Verify(
	ctx context.Context,
	proofs []*folding.StatementProof,
) error {
	if err := f.aggregator.Verify(ctx, proofs); err != nil {
		f.logger.Debug(
			"batch rejected",
			zap.Int("proofs", len(proofs)),
			zap.Error(err),
		)
		return errors.Wrap(err, "verify")
	}

	return nil
}

// VerifyAndAggregate implements ProofAggregator.
func (f *FoldingProofAggregator) VerifyAndAggregate(
	ctx context.Context,
	proofs []*folding.StatementProof,
) (*aggregate.AggregateProof, error) {
	start := time.Now()
	f.logger.Debug("verifying batch", zap.Int("proofs", len(proofs)))

	agg, err := f.aggregator.VerifyAndAggregate(ctx, proofs)
	if err != nil {
		f.logger.Error(
			"could not aggregate batch",
			zap.Int("proofs", len(proofs)),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "verify and aggregate")
	}

	f.logger.Debug(
		"aggregated batch",
		zap.Uint64("count", agg.Count),
		zap.Int("chunks", len(agg.Chunks)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return agg, nil
}

// VerifyAggregate implements ProofAggregator.
func (f *FoldingProofAggregator) VerifyAggregate(
	proof *aggregate.AggregateProof,
) bool {
	if err := f.aggregator.VerifyAggregate(proof); err != nil {
		f.logger.Debug("aggregate proof rejected", zap.Error(err))
		return false
	}

	return true
}
