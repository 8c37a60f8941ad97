// Package r1cs holds rank-1 constraint systems over the BN254 scalar field
// and the arithmetization of computation traces into them.
//
// Assignments are laid out as z = (u, X, W): index 0 is the constant slot
// (1 for a fresh instance, u for a relaxed one), followed by the public inputs
// and then the private witness.
package r1cs

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

var (
	ErrWireOutOfRange     = errors.New("wire out of range")
	ErrAssignmentMismatch = errors.New("assignment does not match constraint system")
	ErrUnreferencedWire   = errors.New("wire not referenced by any constraint")
)

type Term struct {
	Wire  uint32
	Coeff fr.Element
}

type LinearCombination []Term

type Constraint struct {
	A LinearCombination
	B LinearCombination
	C LinearCombination
}

type ConstraintSystem struct {
	NumPublic   int
	NumWitness  int
	Constraints []Constraint
}

func (cs *ConstraintSystem) NumVariables() int {
	return 1 + cs.NumPublic + cs.NumWitness
}

func (cs *ConstraintSystem) NumConstraints() int {
	return len(cs.Constraints)
}

// Validate checks that every term references an allocated variable.
func (cs *ConstraintSystem) Validate() error {
	if cs.NumPublic < 0 || cs.NumWitness < 0 {
		return errors.Wrap(ErrWireOutOfRange, "validate")
	}

	n := uint32(cs.NumVariables())
	for i := range cs.Constraints {
		for _, lc := range []LinearCombination{
			cs.Constraints[i].A,
			cs.Constraints[i].B,
			cs.Constraints[i].C,
		} {
			for _, t := range lc {
				if t.Wire >= n {
					return errors.Wrapf(ErrWireOutOfRange, "constraint %d", i)
				}
			}
		}
	}

	return nil
}

// CheckReferenced checks that every allocated variable appears in at least
// one constraint, which bounds the number of variables by the number of
// terms. It expects a system that passes Validate.
func (cs *ConstraintSystem) CheckReferenced() error {
	terms := 0
	for i := range cs.Constraints {
		c := &cs.Constraints[i]
		terms += len(c.A) + len(c.B) + len(c.C)
	}

	if cs.NumPublic+cs.NumWitness > terms {
		return errors.Wrapf(
			ErrUnreferencedWire,
			"check referenced: %d variables for %d terms",
			cs.NumPublic+cs.NumWitness,
			terms,
		)
	}

	seen := make([]bool, cs.NumVariables())
	for i := range cs.Constraints {
		c := &cs.Constraints[i]
		for _, lc := range []LinearCombination{c.A, c.B, c.C} {
			for _, t := range lc {
				if int(t.Wire) < len(seen) {
					seen[t.Wire] = true
				}
			}
		}
	}

	// index 0 is the constant slot
	for i := 1; i < len(seen); i++ {
		if !seen[i] {
			return errors.Wrapf(ErrUnreferencedWire, "check referenced: wire %d", i-1)
		}
	}

	return nil
}

// Digest identifies the shape of the system. Two systems with the same digest
// accept exactly the same assignments.
func (cs *ConstraintSystem) Digest() [32]byte {
	h := sha3.New256()
	buf := make([]byte, 8)
	writeUint := func(v uint64) {
		binary.BigEndian.PutUint64(buf, v)
		h.Write(buf)
	}

	h.Write([]byte("zkptoolkit-r1cs-v1"))
	writeUint(uint64(cs.NumPublic))
	writeUint(uint64(cs.NumWitness))
	writeUint(uint64(len(cs.Constraints)))
	for _, c := range cs.Constraints {
		for _, lc := range []LinearCombination{c.A, c.B, c.C} {
			writeUint(uint64(len(lc)))
			for _, t := range lc {
				writeUint(uint64(t.Wire))
				b := t.Coeff.Bytes()
				h.Write(b[:])
			}
		}
	}

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// Assemble builds z = (u, x, w).
func (cs *ConstraintSystem) Assemble(
	u fr.Element,
	x []fr.Element,
	w []fr.Element,
) ([]fr.Element, error) {
	if len(x) != cs.NumPublic || len(w) != cs.NumWitness {
		return nil, errors.Wrap(ErrAssignmentMismatch, "assemble")
	}

	z := make([]fr.Element, 0, cs.NumVariables())
	z = append(z, u)
	z = append(z, x...)
	z = append(z, w...)
	return z, nil
}

// Multiply returns Az, Bz and Cz.
func (cs *ConstraintSystem) Multiply(z []fr.Element) (
	az []fr.Element,
	bz []fr.Element,
	cz []fr.Element,
) {
	m := len(cs.Constraints)
	az = make([]fr.Element, m)
	bz = make([]fr.Element, m)
	cz = make([]fr.Element, m)
	for i, c := range cs.Constraints {
		az[i] = evaluate(c.A, z)
		bz[i] = evaluate(c.B, z)
		cz[i] = evaluate(c.C, z)
	}

	return az, bz, cz
}

// Residual returns Az∘Bz - u·Cz for z = (u, x, w). A fresh instance is
// satisfied when the residual is zero; a relaxed instance when it equals its
// error vector.
func (cs *ConstraintSystem) Residual(
	u fr.Element,
	x []fr.Element,
	w []fr.Element,
) ([]fr.Element, error) {
	z, err := cs.Assemble(u, x, w)
	if err != nil {
		return nil, errors.Wrap(err, "residual")
	}

	az, bz, cz := cs.Multiply(z)
	res := make([]fr.Element, len(az))
	var t fr.Element
	for i := range az {
		res[i].Mul(&az[i], &bz[i])
		t.Mul(&u, &cz[i])
		res[i].Sub(&res[i], &t)
	}

	return res, nil
}

func (cs *ConstraintSystem) IsSatisfied(x []fr.Element, w []fr.Element) bool {
	res, err := cs.Residual(fr.One(), x, w)
	if err != nil {
		return false
	}

	for i := range res {
		if !res[i].IsZero() {
			return false
		}
	}

	return true
}

func (cs *ConstraintSystem) IsRelaxedSatisfied(
	u fr.Element,
	x []fr.Element,
	w []fr.Element,
	e []fr.Element,
) bool {
	if len(e) != cs.NumConstraints() {
		return false
	}

	res, err := cs.Residual(u, x, w)
	if err != nil {
		return false
	}

	ok := true
	for i := range res {
		ok = ok && res[i].Equal(&e[i])
	}

	return ok
}

func evaluate(lc LinearCombination, z []fr.Element) fr.Element {
	var acc, t fr.Element
	for i := range lc {
		t.Mul(&lc[i].Coeff, &z[lc[i].Wire])
		acc.Add(&acc, &t)
	}

	return acc
}
