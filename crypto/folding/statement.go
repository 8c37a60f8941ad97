package folding

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/transcript"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

const statementTranscriptLabel = "zkptoolkit/statement/v1"

// StatementClaim is the witness-free part of a statement proof: the step that
// was folded into the session accumulator and the decider fold of the
// resulting accumulator.
type StatementClaim struct {
	Step        uint64
	Fresh       *FreshInstance
	Prior       *Instance
	StepFold    *FoldProof
	Accumulator *Instance
	Random      *Instance
	DeciderFold *FoldProof
}

// StatementProof proves that the accumulator after Step folds is satisfiable
// and that its latest step had public input Fresh.X.
type StatementProof struct {
	Shape   *r1cs.ConstraintSystem
	Claim   *StatementClaim
	Opening *Witness
}

func (s *StatementProof) PublicInstance() []fr.Element {
	if s.Claim == nil || s.Claim.Fresh == nil {
		return nil
	}

	return s.Claim.Fresh.X
}

func newStatementTranscript(p *Params, step uint64) *transcript.Transcript {
	t := transcript.New(statementTranscriptLabel)
	t.AppendMessage("shape", p.Digest[:])
	t.AppendUint64("step", step)
	return t
}

// Replay recomputes the instance the claim's decider opening must satisfy,
// checking that the claimed accumulator is the fold of the prior accumulator
// and the fresh step.
func (p *Params) Replay(c *StatementClaim) (*Instance, error) {
	if c == nil || c.Fresh == nil || c.Accumulator == nil || c.Step == 0 {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "replay: incomplete claim")
	}

	if len(c.Fresh.X) != p.CS.NumPublic {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "replay: public input length")
	}

	t := newStatementTranscript(p, c.Step)
	fresh := c.Fresh.Relax()

	var acc *Instance
	if c.Step == 1 {
		if c.Prior != nil || c.StepFold != nil {
			return nil, errors.Wrap(zkerr.ErrVerificationFailed, "replay: first step has prior")
		}

		acc = fresh
	} else {
		if c.Prior == nil || c.StepFold == nil {
			return nil, errors.Wrap(zkerr.ErrVerificationFailed, "replay: missing prior")
		}

		var err error
		acc, err = p.VerifyFold(t, []*Instance{c.Prior, fresh}, c.StepFold)
		if err != nil {
			return nil, errors.Wrap(err, "replay")
		}
	}

	if !acc.Equal(c.Accumulator) {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "replay: accumulator")
	}

	folded, err := p.DeciderInstance(t, acc, c.Random, c.DeciderFold)
	return folded, errors.Wrap(err, "replay")
}

// VerifyStatement checks a statement proof against the public input the
// verifier expects. The proof's shape must match p.
func (p *Params) VerifyStatement(
	proof *StatementProof,
	publicInstance []fr.Element,
) error {
	if proof == nil || proof.Claim == nil || proof.Claim.Fresh == nil {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify statement")
	}

	x := proof.Claim.Fresh.X
	if len(x) != len(publicInstance) {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify statement: public instance")
	}

	// evaluate every element so the comparison does not exit early
	match := true
	for i := range x {
		match = x[i].Equal(&publicInstance[i]) && match
	}

	if !match {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify statement: public instance")
	}

	_, err := p.OpenStatement(proof)
	return errors.Wrap(err, "verify statement")
}

// OpenStatement replays the claim and checks the decider opening against it,
// returning the opened instance. It does not check the public input.
func (p *Params) OpenStatement(proof *StatementProof) (*Instance, error) {
	if proof == nil {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "open statement")
	}

	folded, err := p.Replay(proof.Claim)
	if err != nil {
		return nil, errors.Wrap(err, "open statement")
	}

	if !p.IsSatisfied(folded, proof.Opening) {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "open statement: opening")
	}

	return folded, nil
}
