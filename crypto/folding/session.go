package folding

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

type SessionState int

const (
	SessionEmpty SessionState = iota
	SessionFolded
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionEmpty:
		return "empty"
	case SessionFolded:
		return "folded"
	case SessionFailed:
		return "failed"
	}

	return "unknown"
}

// Session owns one running accumulator. A session is used by one caller at a
// time; a Prove that finds the session busy fails with ErrSessionBusy rather
// than waiting.
type Session struct {
	mx    sync.Mutex
	state SessionState
	steps uint64

	params *Params
	acc    *Instance
	accWit *Witness
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) State() SessionState {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.state
}

// Steps returns the number of traces folded into the accumulator.
func (s *Session) Steps() uint64 {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.steps
}

// Accumulator returns a copy of the current accumulated instance, or nil for
// an empty session.
func (s *Session) Accumulator() *Instance {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.acc == nil {
		return nil
	}

	return s.acc.Clone()
}

func (s *Session) acquire() error {
	if !s.mx.TryLock() {
		return zkerr.ErrSessionBusy
	}

	if s.state == SessionFailed {
		s.mx.Unlock()
		return zkerr.ErrSessionFailed
	}

	return nil
}

func (s *Session) release() {
	s.mx.Unlock()
}

func (s *Session) fail() {
	s.state = SessionFailed
	s.acc = nil
	s.accWit = nil
}

func (s *Session) checkShape(cs *r1cs.ConstraintSystem) error {
	if s.params == nil {
		return nil
	}

	if s.params.Digest != cs.Digest() {
		return errors.Wrap(zkerr.ErrShapeMismatch, "session")
	}

	return nil
}

func (s *Session) commit(p *Params, acc *Instance, wit *Witness) {
	s.params = p
	s.acc = acc
	s.accWit = wit
	s.steps++
	s.state = SessionFolded
}
