// Package transcript derives Fiat-Shamir challenges over the BN254 scalar
// field from a merlin (STROBE) transcript.
package transcript

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/gtank/merlin"
)

// challengeBytes is wide enough that reducing it into fr leaves a
// statistically negligible bias.
const challengeBytes = 48

type Transcript struct {
	t *merlin.Transcript
}

func New(label string) *Transcript {
	return &Transcript{t: merlin.NewTranscript(label)}
}

func (t *Transcript) AppendMessage(label string, msg []byte) {
	t.t.AppendMessage([]byte(label), msg)
}

func (t *Transcript) AppendUint64(label string, v uint64) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	t.t.AppendMessage([]byte(label), buf)
}

func (t *Transcript) AppendScalar(label string, s *fr.Element) {
	b := s.Bytes()
	t.t.AppendMessage([]byte(label), b[:])
}

func (t *Transcript) AppendScalars(label string, s []fr.Element) {
	t.AppendUint64(label+".len", uint64(len(s)))
	for i := range s {
		t.AppendScalar(label, &s[i])
	}
}

func (t *Transcript) AppendPoint(label string, p *bn254.G1Affine) {
	b := p.Bytes()
	t.t.AppendMessage([]byte(label), b[:])
}

// ChallengeScalar squeezes a field element bound to everything appended so
// far.
func (t *Transcript) ChallengeScalar(label string) fr.Element {
	var e fr.Element
	e.SetBytes(t.t.ExtractBytes([]byte(label), challengeBytes))
	return e
}
