// Package folding implements folding of committed relaxed R1CS instances.
//
// A relaxed instance (comW, comE, u, X) is satisfied by a witness
// (W, rW, E, rE) when comW = Com(W; rW), comE = Com(E; rE) and
// Az∘Bz = u·Cz + E for z = (u, X, W). Fresh instances have u = 1 and E = 0.
//
// k instances are folded into one by interpolating them over the domain
// {0..k-1} and evaluating at a transcript challenge γ. The prover commits to
// the quotient of the combined residual by the vanishing polynomial of the
// domain, which is what lets the error commitments fold linearly. With k = 2
// this is a Nova-style two-to-one fold; larger k batch many claims in one
// round in the manner of ProtoGalaxy.
package folding

import (
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/pedersen"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/transcript"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

const commitmentKeyLabel = "zkptoolkit/folding/v1"

type Instance struct {
	CommW bn254.G1Affine
	CommE bn254.G1Affine
	U     fr.Element
	X     []fr.Element
}

type Witness struct {
	W  []fr.Element
	RW fr.Element
	E  []fr.Element
	RE fr.Element
}

// FreshInstance is the public part of a newly arithmetized step: u = 1 and
// E = 0 are implied.
type FreshInstance struct {
	CommW bn254.G1Affine
	X     []fr.Element
}

func (f *FreshInstance) Relax() *Instance {
	return &Instance{
		CommW: f.CommW,
		U:     fr.One(),
		X:     append([]fr.Element{}, f.X...),
	}
}

func (i *Instance) Equal(o *Instance) bool {
	if i == nil || o == nil {
		return i == o
	}

	if !i.CommW.Equal(&o.CommW) || !i.CommE.Equal(&o.CommE) ||
		!i.U.Equal(&o.U) || len(i.X) != len(o.X) {
		return false
	}

	for j := range i.X {
		if !i.X[j].Equal(&o.X[j]) {
			return false
		}
	}

	return true
}

func (i *Instance) Clone() *Instance {
	return &Instance{
		CommW: i.CommW,
		CommE: i.CommE,
		U:     i.U,
		X:     append([]fr.Element{}, i.X...),
	}
}

func (i *Instance) appendTo(t *transcript.Transcript, label string) {
	t.AppendPoint(label+".comW", &i.CommW)
	t.AppendPoint(label+".comE", &i.CommE)
	t.AppendScalar(label+".u", &i.U)
	t.AppendScalars(label+".x", i.X)
}

// Params binds a constraint system shape to a commitment key large enough
// for both its witness and its error vector.
type Params struct {
	CS     *r1cs.ConstraintSystem
	Digest [32]byte
	Key    *pedersen.CommitmentKey
}

func NewParams(
	cs *r1cs.ConstraintSystem,
	keys *pedersen.KeyCache,
) (*Params, error) {
	if err := cs.Validate(); err != nil {
		return nil, errors.Wrap(err, "new params")
	}

	if cs.NumConstraints() == 0 {
		return nil, errors.New("new params: empty constraint system")
	}

	size := cs.NumWitness
	if cs.NumConstraints() > size {
		size = cs.NumConstraints()
	}

	key, err := keys.Get(commitmentKeyLabel, size)
	if err != nil {
		return nil, errors.Wrap(err, "new params")
	}

	return &Params{
		CS:     cs,
		Digest: cs.Digest(),
		Key:    key,
	}, nil
}

// Commit commits to a fresh assignment, sampling the witness blinder.
func (p *Params) Commit(
	x []fr.Element,
	w []fr.Element,
	rand io.Reader,
) (*Instance, *Witness, error) {
	if len(x) != p.CS.NumPublic || len(w) != p.CS.NumWitness {
		return nil, nil, errors.Wrap(r1cs.ErrAssignmentMismatch, "commit")
	}

	rW, err := randomElement(rand)
	if err != nil {
		return nil, nil, errors.Wrap(err, "commit")
	}

	commW, err := p.Key.Commit(w, rW)
	if err != nil {
		return nil, nil, errors.Wrap(err, "commit")
	}

	return &Instance{
			CommW: commW,
			U:     fr.One(),
			X:     append([]fr.Element{}, x...),
		}, &Witness{
			W:  append([]fr.Element{}, w...),
			RW: rW,
			E:  make([]fr.Element, p.CS.NumConstraints()),
		}, nil
}

// RandomInstance samples a uniformly random satisfying relaxed pair.
func (p *Params) RandomInstance(rand io.Reader) (*Instance, *Witness, error) {
	x, err := randomVector(rand, p.CS.NumPublic)
	if err != nil {
		return nil, nil, errors.Wrap(err, "random instance")
	}

	w, err := randomVector(rand, p.CS.NumWitness)
	if err != nil {
		return nil, nil, errors.Wrap(err, "random instance")
	}

	blinds, err := randomVector(rand, 3)
	if err != nil {
		return nil, nil, errors.Wrap(err, "random instance")
	}

	u, rW, rE := blinds[0], blinds[1], blinds[2]
	e, err := p.CS.Residual(u, x, w)
	if err != nil {
		return nil, nil, errors.Wrap(err, "random instance")
	}

	commW, err := p.Key.Commit(w, rW)
	if err != nil {
		return nil, nil, errors.Wrap(err, "random instance")
	}

	commE, err := p.Key.Commit(e, rE)
	if err != nil {
		return nil, nil, errors.Wrap(err, "random instance")
	}

	return &Instance{CommW: commW, CommE: commE, U: u, X: x},
		&Witness{W: w, RW: rW, E: e, RE: rE},
		nil
}

// IsSatisfied checks the commitment openings and the relaxed relation.
func (p *Params) IsSatisfied(inst *Instance, wit *Witness) bool {
	if inst == nil || wit == nil {
		return false
	}

	if len(inst.X) != p.CS.NumPublic ||
		len(wit.W) != p.CS.NumWitness ||
		len(wit.E) != p.CS.NumConstraints() {
		return false
	}

	if !p.Key.Open(inst.CommW, wit.W, wit.RW) ||
		!p.Key.Open(inst.CommE, wit.E, wit.RE) {
		return false
	}

	return p.CS.IsRelaxedSatisfied(inst.U, inst.X, wit.W, wit.E)
}

func randomElement(rand io.Reader) (fr.Element, error) {
	var e fr.Element
	buf := make([]byte, 48)
	if rand == nil {
		return e, zkerr.Entropy(errors.New("no entropy source"), "random element")
	}

	if _, err := io.ReadFull(rand, buf); err != nil {
		return e, zkerr.Entropy(err, "random element")
	}

	e.SetBytes(buf)
	return e, nil
}

func randomVector(rand io.Reader, n int) ([]fr.Element, error) {
	v := make([]fr.Element, n)
	for i := range v {
		e, err := randomElement(rand)
		if err != nil {
			return nil, err
		}

		v[i] = e
	}

	return v, nil
}

// combine returns Σ s_i·P_i.
func combine(points []bn254.G1Affine, scalars []fr.Element) bn254.G1Affine {
	var acc, term bn254.G1Jac
	acc.FromAffine(&bn254.G1Affine{})
	var s big.Int
	for i := range points {
		if points[i].IsInfinity() || scalars[i].IsZero() {
			continue
		}

		term.FromAffine(&points[i])
		scalars[i].BigInt(&s)
		term.ScalarMultiplication(&term, &s)
		acc.AddAssign(&term)
	}

	var out bn254.G1Affine
	out.FromJacobian(&acc)
	return out
}
