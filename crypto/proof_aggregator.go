package crypto

import (
	"context"

	"github.com/zkfl/zkptoolkit/crypto/aggregate"
	"github.com/zkfl/zkptoolkit/crypto/folding"
)

type ProofAggregator interface {
	Verify(ctx context.Context, proofs []*folding.StatementProof) error
	VerifyAndAggregate(
		ctx context.Context,
		proofs []*folding.StatementProof,
	) (*aggregate.AggregateProof, error)
	VerifyAggregate(proof *aggregate.AggregateProof) bool
}
