package folding

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/transcript"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

var ErrInstanceCount = errors.New("instance count mismatch")

// FoldProof carries commitments to the quotient polynomial evaluated at the
// points k..2k-2, for k folded instances.
type FoldProof struct {
	Quotients []bn254.G1Affine
}

// Fold folds k instance-witness pairs into one. Every pair must satisfy the
// relation for the result to; the caller is expected to have checked this.
func (p *Params) Fold(
	t *transcript.Transcript,
	insts []*Instance,
	wits []*Witness,
	rand io.Reader,
) (*Instance, *Witness, *FoldProof, error) {
	k := len(insts)
	if k == 0 || len(wits) != k {
		return nil, nil, nil, errors.Wrap(ErrInstanceCount, "fold")
	}

	if k == 1 {
		absorb(t, p, insts, nil)
		return insts[0].Clone(), cloneWitness(wits[0]), &FoldProof{}, nil
	}

	domain := points(0, k)
	evalPoints := points(k, k-1)
	m := p.CS.NumConstraints()

	zs := make([][]fr.Element, k)
	for j := range insts {
		z, err := p.CS.Assemble(insts[j].U, insts[j].X, wits[j].W)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "fold")
		}

		zs[j] = z
	}

	quotients := make([][]fr.Element, len(evalPoints))
	blinds, err := randomVector(rand, len(evalPoints))
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fold")
	}

	commitments := make([]bn254.G1Affine, len(evalPoints))
	for xi, x := range evalPoints {
		basis := lagrangeBasis(domain, x)
		z := linearVector(zs, basis)
		az, bz, cz := p.CS.Multiply(z)

		var zInv fr.Element
		vanishing := vanishingAt(domain, x)
		zInv.Inverse(&vanishing)

		q := make([]fr.Element, m)
		var t1 fr.Element
		for i := 0; i < m; i++ {
			q[i].Mul(&az[i], &bz[i])
			t1.Mul(&z[0], &cz[i])
			q[i].Sub(&q[i], &t1)
			for j := range wits {
				t1.Mul(&basis[j], &wits[j].E[i])
				q[i].Sub(&q[i], &t1)
			}
			q[i].Mul(&q[i], &zInv)
		}

		quotients[xi] = q
		c, err := p.Key.Commit(q, blinds[xi])
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "fold")
		}

		commitments[xi] = c
	}

	proof := &FoldProof{Quotients: commitments}
	gamma := absorb(t, p, insts, proof)

	folded := foldInstances(domain, evalPoints, gamma, insts, proof)

	basis := lagrangeBasis(domain, gamma)
	qBasis := lagrangeBasis(evalPoints, gamma)
	vanishing := vanishingAt(domain, gamma)
	for i := range qBasis {
		qBasis[i].Mul(&qBasis[i], &vanishing)
	}

	ws := make([][]fr.Element, k)
	es := make([][]fr.Element, k+len(quotients))
	rWs := make([]fr.Element, k)
	rEs := make([]fr.Element, k+len(quotients))
	for j := range wits {
		ws[j] = wits[j].W
		es[j] = wits[j].E
		rWs[j] = wits[j].RW
		rEs[j] = wits[j].RE
	}
	for i := range quotients {
		es[k+i] = quotients[i]
		rEs[k+i] = blinds[i]
	}
	eBasis := append(append([]fr.Element{}, basis...), qBasis...)

	wit := &Witness{
		W:  linearVector(ws, basis),
		RW: innerProduct(rWs, basis),
		E:  linearVector(es, eBasis),
		RE: innerProduct(rEs, eBasis),
	}

	return folded, wit, proof, nil
}

// VerifyFold recomputes the folded instance from the public inputs of a fold.
func (p *Params) VerifyFold(
	t *transcript.Transcript,
	insts []*Instance,
	proof *FoldProof,
) (*Instance, error) {
	k := len(insts)
	if k == 0 || proof == nil {
		return nil, errors.Wrap(ErrInstanceCount, "verify fold")
	}

	expected := 0
	if k > 1 {
		expected = k - 1
	}

	if len(proof.Quotients) != expected {
		return nil, errors.Wrap(zkerr.ErrVerificationFailed, "verify fold: quotient count")
	}

	for _, inst := range insts {
		if inst == nil || len(inst.X) != p.CS.NumPublic {
			return nil, errors.Wrap(zkerr.ErrVerificationFailed, "verify fold: instance shape")
		}
	}

	gamma := absorb(t, p, insts, proof)
	if k == 1 {
		return insts[0].Clone(), nil
	}

	return foldInstances(points(0, k), points(k, k-1), gamma, insts, proof), nil
}

func foldInstances(
	domain []fr.Element,
	evalPoints []fr.Element,
	gamma fr.Element,
	insts []*Instance,
	proof *FoldProof,
) *Instance {
	k := len(insts)
	basis := lagrangeBasis(domain, gamma)
	qBasis := lagrangeBasis(evalPoints, gamma)
	vanishing := vanishingAt(domain, gamma)
	for i := range qBasis {
		qBasis[i].Mul(&qBasis[i], &vanishing)
	}

	commWs := make([]bn254.G1Affine, k)
	commEs := make([]bn254.G1Affine, 0, k+len(proof.Quotients))
	us := make([]fr.Element, k)
	xs := make([][]fr.Element, k)
	for j, inst := range insts {
		commWs[j] = inst.CommW
		commEs = append(commEs, inst.CommE)
		us[j] = inst.U
		xs[j] = inst.X
	}
	commEs = append(commEs, proof.Quotients...)

	return &Instance{
		CommW: combine(commWs, basis),
		CommE: combine(commEs, append(append([]fr.Element{}, basis...), qBasis...)),
		U:     innerProduct(us, basis),
		X:     linearVector(xs, basis),
	}
}

// absorb binds the shape, the instances and the quotient commitments, then
// draws γ outside of the interpolation points.
func absorb(
	t *transcript.Transcript,
	p *Params,
	insts []*Instance,
	proof *FoldProof,
) fr.Element {
	t.AppendMessage("shape", p.Digest[:])
	t.AppendUint64("k", uint64(len(insts)))
	for _, inst := range insts {
		inst.appendTo(t, "instance")
	}

	if proof != nil {
		for i := range proof.Quotients {
			t.AppendPoint("quotient", &proof.Quotients[i])
		}
	}

	limit := uint64(2*len(insts) - 1)
	for {
		gamma := t.ChallengeScalar("gamma")
		if !isSmall(&gamma, limit) {
			return gamma
		}
	}
}

func isSmall(e *fr.Element, limit uint64) bool {
	if !e.IsUint64() {
		return false
	}

	return e.Uint64() < limit
}

func points(start int, n int) []fr.Element {
	out := make([]fr.Element, n)
	for i := range out {
		out[i].SetUint64(uint64(start + i))
	}

	return out
}

// lagrangeBasis evaluates every Lagrange basis polynomial of the node set at
// x. x must not be a node.
func lagrangeBasis(nodes []fr.Element, x fr.Element) []fr.Element {
	out := make([]fr.Element, len(nodes))
	var num, den, t fr.Element
	for j := range nodes {
		num.SetOne()
		den.SetOne()
		for i := range nodes {
			if i == j {
				continue
			}

			t.Sub(&x, &nodes[i])
			num.Mul(&num, &t)
			t.Sub(&nodes[j], &nodes[i])
			den.Mul(&den, &t)
		}

		den.Inverse(&den)
		out[j].Mul(&num, &den)
	}

	return out
}

func vanishingAt(nodes []fr.Element, x fr.Element) fr.Element {
	var acc, t fr.Element
	acc.SetOne()
	for i := range nodes {
		t.Sub(&x, &nodes[i])
		acc.Mul(&acc, &t)
	}

	return acc
}

func linearVector(vs [][]fr.Element, coeffs []fr.Element) []fr.Element {
	if len(vs) == 0 {
		return nil
	}

	out := make([]fr.Element, len(vs[0]))
	var t fr.Element
	for j := range vs {
		for i := range vs[j] {
			t.Mul(&coeffs[j], &vs[j][i])
			out[i].Add(&out[i], &t)
		}
	}

	return out
}

func innerProduct(a []fr.Element, b []fr.Element) fr.Element {
	var acc, t fr.Element
	for i := range a {
		t.Mul(&a[i], &b[i])
		acc.Add(&acc, &t)
	}

	return acc
}

func cloneWitness(w *Witness) *Witness {
	return &Witness{
		W:  append([]fr.Element{}, w.W...),
		RW: w.RW,
		E:  append([]fr.Element{}, w.E...),
		RE: w.RE,
	}
}
