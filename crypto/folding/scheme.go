package folding

import (
	"crypto/rand"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/pedersen"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

const DefaultKeyCacheSize = 16

// Scheme proves and verifies statements over sessions, for pinned constraint
// systems only. It is safe for concurrent use; each Session must only be
// driven by one caller at a time.
type Scheme struct {
	keys    *pedersen.KeyCache
	rand    io.Reader
	trusted map[[32]byte]struct{}
}

type SchemeOption func(*Scheme)

// WithEntropy replaces the randomness source used for blinders.
func WithEntropy(r io.Reader) SchemeOption {
	return func(s *Scheme) {
		s.rand = r
	}
}

// WithTrustedShapes pins the constraint systems a scheme proves and verifies
// statements over, by digest.
func WithTrustedShapes(digests ...[32]byte) SchemeOption {
	return func(s *Scheme) {
		for _, d := range digests {
			s.trusted[d] = struct{}{}
		}
	}
}

// WithTrustedSystems pins the given constraint systems.
func WithTrustedSystems(systems ...*r1cs.ConstraintSystem) SchemeOption {
	return func(s *Scheme) {
		for _, cs := range systems {
			s.trusted[cs.Digest()] = struct{}{}
		}
	}
}

func NewScheme(keys *pedersen.KeyCache, opts ...SchemeOption) (*Scheme, error) {
	if keys == nil {
		var err error
		keys, err = pedersen.NewKeyCache(DefaultKeyCacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "new scheme")
		}
	}

	s := &Scheme{
		keys:    keys,
		rand:    rand.Reader,
		trusted: make(map[[32]byte]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Scheme) Entropy() io.Reader {
	return s.rand
}

// Trusts reports whether digest names a pinned shape.
func (s *Scheme) Trusts(digest [32]byte) bool {
	_, ok := s.trusted[digest]
	return ok
}

func (s *Scheme) NumTrusted() int {
	return len(s.trusted)
}

// Params returns the folding parameters of cs. Only pinned shapes are
// accepted, and the check happens before any commitment key is derived, so
// the size of an unpinned shape never reaches the key cache.
func (s *Scheme) Params(cs *r1cs.ConstraintSystem) (*Params, error) {
	if cs == nil {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "params: missing shape")
	}

	if len(s.trusted) == 0 {
		return nil, errors.Wrap(zkerr.ErrShapeMismatch, "params: no pinned shapes")
	}

	if !s.Trusts(cs.Digest()) {
		return nil, errors.Wrap(zkerr.ErrShapeMismatch, "params: untrusted shape")
	}

	p, err := NewParams(cs, s.keys)
	return p, errors.Wrap(err, "params")
}

// Prove folds trace into the session accumulator and proves the result.
// A trace whose assignment does not satisfy its own constraints fails the
// session for good. A trace that cannot be arithmetized at all leaves the
// session untouched.
func (s *Scheme) Prove(
	sess *Session,
	trace *r1cs.ComputationTrace,
) (*StatementProof, error) {
	if err := sess.acquire(); err != nil {
		return nil, errors.Wrap(err, "prove")
	}
	defer sess.release()

	if trace == nil {
		return nil, zkerr.Encoding(nil, "prove: missing trace")
	}

	cs, x, w, err := r1cs.Arithmetize(trace)
	if err != nil {
		return nil, zkerr.Encoding(err, "prove")
	}

	if err := sess.checkShape(cs); err != nil {
		return nil, errors.Wrap(err, "prove")
	}

	p := sess.params
	if p == nil {
		p, err = s.Params(cs)
		if err != nil {
			return nil, errors.Wrap(err, "prove")
		}
	}

	if !cs.IsSatisfied(x, w) {
		sess.fail()
		return nil, errors.Wrap(zkerr.ErrUnsatisfiable, "prove")
	}

	fresh, freshWit, err := p.Commit(x, w, s.rand)
	if err != nil {
		return nil, errors.Wrap(err, "prove")
	}

	step := sess.steps + 1
	t := newStatementTranscript(p, step)
	claim := &StatementClaim{
		Step:  step,
		Fresh: &FreshInstance{CommW: fresh.CommW, X: fresh.X},
	}

	acc, accWit := fresh, freshWit
	if sess.acc != nil {
		acc, accWit, claim.StepFold, err = p.Fold(
			t,
			[]*Instance{sess.acc, fresh},
			[]*Witness{sess.accWit, freshWit},
			s.rand,
		)
		if err != nil {
			return nil, errors.Wrap(err, "prove")
		}

		claim.Prior = sess.acc.Clone()
	}

	if !p.IsSatisfied(acc, accWit) {
		sess.fail()
		return nil, errors.Wrap(zkerr.ErrUnsatisfiable, "prove: accumulator")
	}

	claim.Accumulator = acc.Clone()
	decider, err := p.ProveDecider(t, acc, accWit, s.rand)
	if err != nil {
		return nil, errors.Wrap(err, "prove")
	}

	claim.Random = decider.Random
	claim.DeciderFold = decider.Fold
	sess.commit(p, acc, accWit)

	return &StatementProof{
		Shape:   cs,
		Claim:   claim,
		Opening: decider.Opening,
	}, nil
}

// Check verifies proof against the public input the caller expects and
// returns why it fails.
func (s *Scheme) Check(proof *StatementProof, publicInstance []fr.Element) error {
	if proof == nil || proof.Shape == nil {
		return errors.Wrap(zkerr.ErrVerificationFailed, "check")
	}

	p, err := s.Params(proof.Shape)
	if err != nil {
		return errors.Wrap(err, "check")
	}

	return errors.Wrap(p.VerifyStatement(proof, publicInstance), "check")
}

func (s *Scheme) Verify(proof *StatementProof, publicInstance []fr.Element) bool {
	return s.Check(proof, publicInstance) == nil
}
