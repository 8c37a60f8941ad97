package config

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
)

type CurveType int

const (
	CurveTypeSecp256k1 CurveType = iota
	CurveTypeRistretto255
	CurveTypeP256
)

func (c CurveType) MarshalText() ([]byte, error) {
	switch c {
	case CurveTypeSecp256k1:
		return []byte(curves.Secp256k1Name), nil
	case CurveTypeRistretto255:
		return []byte(curves.Ristretto255Name), nil
	case CurveTypeP256:
		return []byte(curves.P256Name), nil
	default:
		return nil, fmt.Errorf("unknown curve type (%d)", int(c))
	}
}

func (c *CurveType) UnmarshalText(b []byte) error {
	switch string(b) {
	case curves.Secp256k1Name:
		*c = CurveTypeSecp256k1
	case curves.Ristretto255Name:
		*c = CurveTypeRistretto255
	case curves.P256Name:
		*c = CurveTypeP256
	default:
		return fmt.Errorf("unknown curve type %q", b)
	}
	return nil
}

func (c CurveType) Curve() (curves.Curve, error) {
	name, err := c.MarshalText()
	if err != nil {
		return nil, err
	}

	return curves.ByName(string(name))
}

type ProverConfig struct {
	Curve        CurveType `yaml:"curve"`
	KeyCacheSize int       `yaml:"keyCacheSize"`
	// TrustedShapes lists hex encoded constraint system digests accepted in
	// addition to Circuits. Statements over any other shape are neither
	// proven nor verified.
	TrustedShapes   []string         `yaml:"trustedShapes"`
	Circuits        []*CircuitConfig `yaml:"circuits"`
	DefaultIdentity string           `yaml:"defaultIdentity"`
}

// CircuitConfig pins the gradient step circuit of one training setup.
type CircuitConfig struct {
	Dimension int   `yaml:"dimension"`
	BatchSize int   `yaml:"batchSize"`
	StepNum   int64 `yaml:"stepNum"`
	StepDen   int64 `yaml:"stepDen"`
}

func (c *CircuitConfig) Shape() (*r1cs.ConstraintSystem, error) {
	cs, err := r1cs.GradientShape(c.Dimension, c.BatchSize, c.StepNum, c.StepDen)
	return cs, errors.Wrap(err, "shape")
}

// TrustedDigests returns the digests of every pinned shape, explicit digests
// first.
func (p *ProverConfig) TrustedDigests() ([][32]byte, error) {
	out := make([][32]byte, 0, len(p.TrustedShapes)+len(p.Circuits))
	for _, s := range p.TrustedShapes {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, errors.Wrap(err, "trusted digests")
		}

		if len(b) != 32 {
			return nil, errors.Errorf("trusted digests: %q is not 32 bytes", s)
		}

		var d [32]byte
		copy(d[:], b)
		out = append(out, d)
	}

	for i, c := range p.Circuits {
		cs, err := c.Shape()
		if err != nil {
			return nil, errors.Wrapf(err, "trusted digests: circuit %d", i)
		}

		out = append(out, cs.Digest())
	}

	return out, nil
}

type AggregatorConfig struct {
	BatchSize     int `yaml:"batchSize"`
	VerifyWorkers int `yaml:"verifyWorkers"`
}
