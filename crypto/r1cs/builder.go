package r1cs

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
)

var ErrPublicAfterPrivate = errors.New("public wire allocated after private")

type Wire uint32

// Builder records a computation and its assignment gate by gate. All public
// wires must be allocated before the first private wire. Errors are sticky
// and reported by Build.
type Builder struct {
	public  []fr.Element
	private []fr.Element
	gates   []Gate
	err     error
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Public(v fr.Element) Wire {
	if len(b.private) != 0 && b.err == nil {
		b.err = ErrPublicAfterPrivate
	}

	b.public = append(b.public, v)
	return Wire(len(b.public) - 1)
}

func (b *Builder) Private(v fr.Element) Wire {
	b.private = append(b.private, v)
	return Wire(len(b.public) + len(b.private) - 1)
}

func (b *Builder) Value(w Wire) fr.Element {
	if int(w) < len(b.public) {
		return b.public[w]
	}

	return b.private[int(w)-len(b.public)]
}

func (b *Builder) Add(l, r Wire) Wire {
	var v fr.Element
	lv, rv := b.Value(l), b.Value(r)
	v.Add(&lv, &rv)
	return b.gate(GateAdd, l, r, v, fr.Element{})
}

func (b *Builder) Sub(l, r Wire) Wire {
	var v fr.Element
	lv, rv := b.Value(l), b.Value(r)
	v.Sub(&lv, &rv)
	return b.gate(GateSub, l, r, v, fr.Element{})
}

func (b *Builder) Mul(l, r Wire) Wire {
	var v fr.Element
	lv, rv := b.Value(l), b.Value(r)
	v.Mul(&lv, &rv)
	return b.gate(GateMul, l, r, v, fr.Element{})
}

func (b *Builder) ConstMul(c fr.Element, l Wire) Wire {
	var v fr.Element
	lv := b.Value(l)
	v.Mul(&c, &lv)
	return b.gate(GateConstMul, l, 0, v, c)
}

func (b *Builder) Const(c fr.Element) Wire {
	return b.gate(GateConst, 0, 0, c, c)
}

func (b *Builder) AssertEqual(l, r Wire) {
	b.gates = append(b.gates, Gate{
		Op:    GateAssertEqual,
		Left:  uint32(l),
		Right: uint32(r),
	})
}

func (b *Builder) Build() (*ComputationTrace, error) {
	if b.err != nil {
		return nil, errors.Wrap(b.err, "build")
	}

	return &ComputationTrace{
		Public:  append([]fr.Element{}, b.public...),
		Private: append([]fr.Element{}, b.private...),
		Gates:   append([]Gate{}, b.gates...),
	}, nil
}

func (b *Builder) gate(
	op GateOp,
	l Wire,
	r Wire,
	out fr.Element,
	c fr.Element,
) Wire {
	o := b.Private(out)
	b.gates = append(b.gates, Gate{
		Op:    op,
		Left:  uint32(l),
		Right: uint32(r),
		Out:   uint32(o),
		Const: c,
	})
	return o
}
