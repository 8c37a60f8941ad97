package codec

import (
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

type shapeBody struct {
	_           struct{} `cbor:",toarray"`
	NumPublic   uint32
	NumWitness  uint32
	Constraints []constraintBody
}

type constraintBody struct {
	_ struct{} `cbor:",toarray"`
	A []termBody
	B []termBody
	C []termBody
}

type termBody struct {
	_     struct{} `cbor:",toarray"`
	Wire  uint32
	Coeff []byte
}

func encodeShape(cs *r1cs.ConstraintSystem) shapeBody {
	body := shapeBody{
		NumPublic:   uint32(cs.NumPublic),
		NumWitness:  uint32(cs.NumWitness),
		Constraints: make([]constraintBody, len(cs.Constraints)),
	}

	for i, c := range cs.Constraints {
		body.Constraints[i] = constraintBody{
			A: encodeTerms(c.A),
			B: encodeTerms(c.B),
			C: encodeTerms(c.C),
		}
	}

	return body
}

func decodeShape(body shapeBody) (*r1cs.ConstraintSystem, error) {
	cs := &r1cs.ConstraintSystem{
		NumPublic:   int(body.NumPublic),
		NumWitness:  int(body.NumWitness),
		Constraints: make([]r1cs.Constraint, len(body.Constraints)),
	}

	for i, c := range body.Constraints {
		a, err := decodeTerms(c.A)
		if err != nil {
			return nil, err
		}

		b, err := decodeTerms(c.B)
		if err != nil {
			return nil, err
		}

		cc, err := decodeTerms(c.C)
		if err != nil {
			return nil, err
		}

		cs.Constraints[i] = r1cs.Constraint{A: a, B: b, C: cc}
	}

	if err := cs.Validate(); err != nil {
		return nil, zkerr.Encoding(err, "shape")
	}

	if cs.NumConstraints() == 0 {
		return nil, zkerr.Encoding(nil, "shape: no constraints")
	}

	if err := cs.CheckReferenced(); err != nil {
		return nil, zkerr.Encoding(err, "shape")
	}

	return cs, nil
}

func encodeTerms(lc r1cs.LinearCombination) []termBody {
	out := make([]termBody, len(lc))
	for i := range lc {
		out[i] = termBody{Wire: lc[i].Wire, Coeff: encodeElement(&lc[i].Coeff)}
	}

	return out
}

func decodeTerms(v []termBody) (r1cs.LinearCombination, error) {
	out := make(r1cs.LinearCombination, len(v))
	for i := range v {
		c, err := decodeElement(v[i].Coeff)
		if err != nil {
			return nil, errors.Wrap(err, "terms")
		}

		out[i] = r1cs.Term{Wire: v[i].Wire, Coeff: c}
	}

	return out, nil
}
