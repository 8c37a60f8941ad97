package zkerr

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidEncoding    = errors.New("invalid encoding")
	ErrVerificationFailed = errors.New("verification failed")
	ErrEmptyBatch         = errors.New("empty batch")
	ErrInvalidProof       = errors.New("invalid proof")
	ErrEntropyUnavailable = errors.New("entropy unavailable")
	ErrUnsatisfiable      = errors.New("unsatisfiable instance")
	ErrShapeMismatch      = errors.New("constraint system shape mismatch")
	ErrSessionFailed      = errors.New("session failed")
	ErrSessionBusy        = errors.New("session busy")
)

// InvalidProofError identifies the first proof of a batch that failed to
// decode or verify.
type InvalidProofError struct {
	Index int
	Err   error
}

func (e *InvalidProofError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid proof at index %d", e.Index)
	}

	return fmt.Sprintf("invalid proof at index %d: %s", e.Index, e.Err)
}

func (e *InvalidProofError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidProof}
	}

	return []error{ErrInvalidProof, e.Err}
}

// Encoding wraps err so that it matches ErrInvalidEncoding.
func Encoding(err error, msg string) error {
	if err == nil {
		return errors.Wrap(ErrInvalidEncoding, msg)
	}

	return errors.Wrap(
		fmt.Errorf("%w: %w", ErrInvalidEncoding, err),
		msg,
	)
}

// Entropy wraps a randomness source failure so that it matches
// ErrEntropyUnavailable.
func Entropy(err error, msg string) error {
	return errors.Wrap(
		fmt.Errorf("%w: %w", ErrEntropyUnavailable, err),
		msg,
	)
}
