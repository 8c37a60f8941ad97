package folding

import (
	"io"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/transcript"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

// DeciderProof shows an accumulated instance is satisfiable without revealing
// its witness: the instance is first folded with a random satisfying one and
// only the witness of the result is opened.
type DeciderProof struct {
	Random  *Instance
	Fold    *FoldProof
	Opening *Witness
}

func (p *Params) ProveDecider(
	t *transcript.Transcript,
	inst *Instance,
	wit *Witness,
	rand io.Reader,
) (*DeciderProof, error) {
	randInst, randWit, err := p.RandomInstance(rand)
	if err != nil {
		return nil, errors.Wrap(err, "prove decider")
	}

	_, folded, proof, err := p.Fold(
		t,
		[]*Instance{inst, randInst},
		[]*Witness{wit, randWit},
		rand,
	)
	if err != nil {
		return nil, errors.Wrap(err, "prove decider")
	}

	return &DeciderProof{
		Random:  randInst,
		Fold:    proof,
		Opening: folded,
	}, nil
}

// DeciderInstance recomputes the instance the decider opening must satisfy.
func (p *Params) DeciderInstance(
	t *transcript.Transcript,
	inst *Instance,
	random *Instance,
	proof *FoldProof,
) (*Instance, error) {
	if random == nil {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "decider instance")
	}

	folded, err := p.VerifyFold(t, []*Instance{inst, random}, proof)
	return folded, errors.Wrap(err, "decider instance")
}

func (p *Params) VerifyDecider(
	t *transcript.Transcript,
	inst *Instance,
	proof *DeciderProof,
) error {
	if proof == nil {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify decider")
	}

	folded, err := p.DeciderInstance(t, inst, proof.Random, proof.Fold)
	if err != nil {
		return errors.Wrap(err, "verify decider")
	}

	if !p.IsSatisfied(folded, proof.Opening) {
		return errors.Wrap(zkerr.ErrVerificationFailed, "verify decider: opening")
	}

	return nil
}
