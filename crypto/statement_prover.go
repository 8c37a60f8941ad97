package crypto

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/zkfl/zkptoolkit/crypto/folding"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
)

type StatementProver interface {
	NewSession() *folding.Session
	Prove(
		session *folding.Session,
		trace *r1cs.ComputationTrace,
	) (*folding.StatementProof, error)
	Verify(proof *folding.StatementProof, publicInstance []fr.Element) bool
}
