package r1cs

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
)

type GateOp uint8

const (
	GateAdd GateOp = iota + 1
	GateSub
	GateMul
	GateConstMul
	GateConst
	GateAssertEqual
)

func (g GateOp) String() string {
	switch g {
	case GateAdd:
		return "add"
	case GateSub:
		return "sub"
	case GateMul:
		return "mul"
	case GateConstMul:
		return "const-mul"
	case GateConst:
		return "const"
	case GateAssertEqual:
		return "assert-eq"
	}

	return fmt.Sprintf("gate(%d)", uint8(g))
}

// Gate relates trace wires. Wires are numbered over Public followed by
// Private. Depending on Op:
//
//	add:       out = left + right
//	sub:       out = left - right
//	mul:       out = left * right
//	const-mul: out = const * left
//	const:     out = const
//	assert-eq: left = right
type Gate struct {
	Op    GateOp
	Left  uint32
	Right uint32
	Out   uint32
	Const fr.Element
}

// ComputationTrace is a fully assigned arithmetic circuit. Values must
// already be reduced into the field.
type ComputationTrace struct {
	Public  []fr.Element
	Private []fr.Element
	Gates   []Gate
}

func (t *ComputationTrace) NumWires() int {
	return len(t.Public) + len(t.Private)
}

// Arithmetize turns the trace into one constraint per gate, along with the
// public and private parts of the assignment. It does not check that the
// assignment satisfies the system.
func Arithmetize(trace *ComputationTrace) (
	*ConstraintSystem,
	[]fr.Element,
	[]fr.Element,
	error,
) {
	if len(trace.Gates) == 0 {
		return nil, nil, nil, errors.New("arithmetize: trace has no gates")
	}

	nPub := len(trace.Public)
	nWires := uint32(trace.NumWires())
	wire := func(i int, w uint32) (uint32, error) {
		if w >= nWires {
			return 0, errors.Wrapf(ErrWireOutOfRange, "gate %d wire %d", i, w)
		}

		// z index 0 is the constant slot
		return w + 1, nil
	}

	one := fr.One()
	var minusOne fr.Element
	minusOne.Neg(&one)
	constant := []Term{{Wire: 0, Coeff: one}}

	cs := &ConstraintSystem{
		NumPublic:   nPub,
		NumWitness:  len(trace.Private),
		Constraints: make([]Constraint, 0, len(trace.Gates)),
	}

	for i, g := range trace.Gates {
		var c Constraint
		switch g.Op {
		case GateAdd, GateSub, GateMul:
			l, err := wire(i, g.Left)
			if err != nil {
				return nil, nil, nil, err
			}
			r, err := wire(i, g.Right)
			if err != nil {
				return nil, nil, nil, err
			}
			o, err := wire(i, g.Out)
			if err != nil {
				return nil, nil, nil, err
			}

			switch g.Op {
			case GateAdd:
				c.A = mergeTerms(Term{Wire: l, Coeff: one}, Term{Wire: r, Coeff: one})
				c.B = constant
			case GateSub:
				c.A = mergeTerms(
					Term{Wire: l, Coeff: one},
					Term{Wire: r, Coeff: minusOne},
				)
				c.B = constant
			case GateMul:
				c.A = LinearCombination{{Wire: l, Coeff: one}}
				c.B = LinearCombination{{Wire: r, Coeff: one}}
			}
			c.C = LinearCombination{{Wire: o, Coeff: one}}
		case GateConstMul:
			l, err := wire(i, g.Left)
			if err != nil {
				return nil, nil, nil, err
			}
			o, err := wire(i, g.Out)
			if err != nil {
				return nil, nil, nil, err
			}

			c.A = LinearCombination{{Wire: l, Coeff: g.Const}}
			c.B = constant
			c.C = LinearCombination{{Wire: o, Coeff: one}}
		case GateConst:
			o, err := wire(i, g.Out)
			if err != nil {
				return nil, nil, nil, err
			}

			c.A = LinearCombination{{Wire: 0, Coeff: g.Const}}
			c.B = constant
			c.C = LinearCombination{{Wire: o, Coeff: one}}
		case GateAssertEqual:
			l, err := wire(i, g.Left)
			if err != nil {
				return nil, nil, nil, err
			}
			r, err := wire(i, g.Right)
			if err != nil {
				return nil, nil, nil, err
			}

			c.A = LinearCombination{{Wire: l, Coeff: one}}
			c.B = constant
			c.C = LinearCombination{{Wire: r, Coeff: one}}
		default:
			return nil, nil, nil, errors.Errorf("arithmetize: gate %d: unknown op %s", i, g.Op)
		}

		cs.Constraints = append(cs.Constraints, c)
	}

	if err := cs.CheckReferenced(); err != nil {
		return nil, nil, nil, errors.Wrap(err, "arithmetize")
	}

	x := append([]fr.Element{}, trace.Public...)
	w := append([]fr.Element{}, trace.Private...)
	return cs, x, w, nil
}

// mergeTerms collapses two terms on the same wire into one.
func mergeTerms(a Term, b Term) LinearCombination {
	if a.Wire == b.Wire {
		var c fr.Element
		c.Add(&a.Coeff, &b.Coeff)
		return LinearCombination{{Wire: a.Wire, Coeff: c}}
	}

	return LinearCombination{a, b}
}
