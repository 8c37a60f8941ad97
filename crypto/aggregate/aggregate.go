// Package aggregate verifies batches of statement proofs and folds them into
// one aggregate proof.
package aggregate

import (
	"context"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/folding"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/transcript"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 8
	transcriptLabel  = "zkptoolkit/aggregate/v1"
)

// AggregateProof represents Count statement proofs. It keeps every claim so
// a verifier can recompute each accumulator, but only one witness opening:
// that of the fold of all decider instances.
type AggregateProof struct {
	Count   uint64
	Shape   *r1cs.ConstraintSystem
	Claims  []*folding.StatementClaim
	Chunks  []*folding.FoldProof
	Final   *folding.Instance
	Opening *folding.Witness
}

// PublicInstances returns the public input of the latest step of every
// aggregated claim, in batch order.
func (a *AggregateProof) PublicInstances() [][]fr.Element {
	out := make([][]fr.Element, len(a.Claims))
	for i, c := range a.Claims {
		if c != nil && c.Fresh != nil {
			out[i] = c.Fresh.X
		}
	}

	return out
}

type Aggregator struct {
	scheme    *folding.Scheme
	batchSize int
	workers   int
}

type Option func(*Aggregator)

// WithBatchSize sets how many instances each fold consumes, including the
// running accumulator. Values below 2 are ignored.
func WithBatchSize(k int) Option {
	return func(a *Aggregator) {
		if k >= 2 {
			a.batchSize = k
		}
	}
}

// WithWorkers bounds the number of proofs verified concurrently.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

func NewAggregator(scheme *folding.Scheme, opts ...Option) *Aggregator {
	a := &Aggregator{
		scheme:    scheme,
		batchSize: DefaultBatchSize,
		workers:   runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *Aggregator) BatchSize() int {
	return a.batchSize
}

// Verify checks every proof of a batch without folding it. It reports the
// same errors as VerifyAndAggregate.
func (a *Aggregator) Verify(
	ctx context.Context,
	proofs []*folding.StatementProof,
) error {
	_, _, _, err := a.verify(ctx, proofs)
	return err
}

// VerifyAndAggregate verifies every proof and folds the batch. Any invalid
// proof aborts the whole aggregation with an *zkerr.InvalidProofError naming
// the lowest failing index.
func (a *Aggregator) VerifyAndAggregate(
	ctx context.Context,
	proofs []*folding.StatementProof,
) (*AggregateProof, error) {
	p, insts, wits, err := a.verify(ctx, proofs)
	if err != nil {
		return nil, err
	}

	t := newTranscript(p, uint64(len(proofs)))
	acc, accWit := insts[0], wits[0]
	spans := chunksOf(len(proofs), a.batchSize)
	chunks := make([]*folding.FoldProof, 0, len(spans))
	for _, c := range spans {
		batch := insts[c.start:c.end]
		batchWits := wits[c.start:c.end]
		if c.start != 0 {
			batch = append([]*folding.Instance{acc}, batch...)
			batchWits = append([]*folding.Witness{accWit}, batchWits...)
		}

		var proof *folding.FoldProof
		acc, accWit, proof, err = p.Fold(t, batch, batchWits, a.scheme.Entropy())
		if err != nil {
			return nil, errors.Wrap(err, "verify and aggregate")
		}

		chunks = append(chunks, proof)
	}

	claims := make([]*folding.StatementClaim, len(proofs))
	for i, proof := range proofs {
		claims[i] = proof.Claim
	}

	return &AggregateProof{
		Count:   uint64(len(proofs)),
		Shape:   proofs[0].Shape,
		Claims:  claims,
		Chunks:  chunks,
		Final:   acc,
		Opening: accWit,
	}, nil
}

func (a *Aggregator) verify(
	ctx context.Context,
	proofs []*folding.StatementProof,
) (*folding.Params, []*folding.Instance, []*folding.Witness, error) {
	if len(proofs) == 0 {
		return nil, nil, nil, errors.Wrap(zkerr.ErrEmptyBatch, "verify")
	}

	if proofs[0] == nil || proofs[0].Shape == nil {
		return nil, nil, nil, &zkerr.InvalidProofError{
			Index: 0,
			Err:   errors.Wrap(zkerr.ErrVerificationFailed, "missing shape"),
		}
	}

	p, err := a.scheme.Params(proofs[0].Shape)
	if err != nil {
		return nil, nil, nil, &zkerr.InvalidProofError{Index: 0, Err: err}
	}

	insts, wits, err := a.verifyAll(ctx, p, proofs)
	if err != nil {
		return nil, nil, nil, err
	}

	return p, insts, wits, nil
}

// verifyAll opens every proof concurrently. Every proof is checked even after
// a failure so that the reported index does not depend on scheduling.
func (a *Aggregator) verifyAll(
	ctx context.Context,
	p *folding.Params,
	proofs []*folding.StatementProof,
) ([]*folding.Instance, []*folding.Witness, error) {
	insts := make([]*folding.Instance, len(proofs))
	wits := make([]*folding.Witness, len(proofs))
	errs := make([]error, len(proofs))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range proofs {
		g.Go(func() error {
			insts[i], errs[i] = open(p, proofs[i])
			if errs[i] == nil {
				wits[i] = proofs[i].Opening
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, errors.Wrap(err, "verify all")
	}

	for i, err := range errs {
		if err != nil {
			return nil, nil, &zkerr.InvalidProofError{Index: i, Err: err}
		}
	}

	return insts, wits, nil
}

func open(p *folding.Params, proof *folding.StatementProof) (*folding.Instance, error) {
	if proof == nil || proof.Shape == nil {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "missing shape")
	}

	if proof.Shape.Digest() != p.Digest {
		return nil, errors.Wrap(zkerr.ErrShapeMismatch, "open")
	}

	return p.OpenStatement(proof)
}

// VerifyAggregate checks all claims of an aggregate with a single opening.
func (a *Aggregator) VerifyAggregate(agg *AggregateProof) error {
	if agg == nil || agg.Shape == nil || agg.Final == nil {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify aggregate")
	}

	n := len(agg.Claims)
	if n == 0 || agg.Count != uint64(n) {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify aggregate: count")
	}

	p, err := a.scheme.Params(agg.Shape)
	if err != nil {
		return errors.Wrap(err, "verify aggregate")
	}

	insts := make([]*folding.Instance, n)
	for i, c := range agg.Claims {
		insts[i], err = p.Replay(c)
		if err != nil {
			return errors.Wrapf(err, "verify aggregate: claim %d", i)
		}
	}

	spans := chunksOf(n, batchSizeOf(agg, n))
	if spans == nil || len(spans) != len(agg.Chunks) {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify aggregate: chunks")
	}

	t := newTranscript(p, agg.Count)
	acc := insts[0]
	for i, c := range spans {
		batch := insts[c.start:c.end]
		if c.start != 0 {
			batch = append([]*folding.Instance{acc}, batch...)
		}

		acc, err = p.VerifyFold(t, batch, agg.Chunks[i])
		if err != nil {
			return errors.Wrapf(err, "verify aggregate: chunk %d", i)
		}
	}

	if !acc.Equal(agg.Final) {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify aggregate: final instance")
	}

	if !p.IsSatisfied(acc, agg.Opening) {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify aggregate: opening")
	}

	return nil
}

func newTranscript(p *folding.Params, count uint64) *transcript.Transcript {
	t := transcript.New(transcriptLabel)
	t.AppendMessage("shape", p.Digest[:])
	t.AppendUint64("count", count)
	return t
}

type span struct {
	start int
	end   int
}

// chunksOf splits n instances into fold rounds of at most k instances. The
// first round takes up to k fresh instances; every later round takes the
// accumulator and up to k-1 more.
func chunksOf(n int, k int) []span {
	if n <= 0 || k < 2 {
		return nil
	}

	first := k
	if n < first {
		first = n
	}

	out := []span{{start: 0, end: first}}
	for start := first; start < n; start += k - 1 {
		end := start + k - 1
		if end > n {
			end = n
		}

		out = append(out, span{start: start, end: end})
	}

	return out
}

// batchSizeOf recovers the fold width from the first chunk's quotient count.
func batchSizeOf(agg *AggregateProof, n int) int {
	if len(agg.Chunks) == 0 || agg.Chunks[0] == nil {
		return 0
	}

	k := len(agg.Chunks[0].Quotients) + 1
	if n == 1 {
		// a single claim folds alone and carries no quotients
		return 2
	}

	return k
}
