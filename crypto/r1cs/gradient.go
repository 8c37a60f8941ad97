package r1cs

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
)

var ErrInvalidGradientStep = errors.New("invalid gradient step")

// GradientStep is one full-batch gradient descent step of a linear
// regression model, expressed over fixed-point integers:
//
//	w' = w - (StepNum / StepDen) · Xᵀ(Xw - y)
//
// StepDen usually folds in both the learning rate denominator and the batch
// size. The circuit proves StepDen·(w - w') = StepNum·Xᵀ(Xw - y) with w and w'
// public and X, y private.
type GradientStep struct {
	Weights  []int64
	Features [][]int64
	Labels   []int64
	StepNum  int64
	StepDen  int64
}

func (g *GradientStep) validate() error {
	d := len(g.Weights)
	if d == 0 || len(g.Features) == 0 {
		return errors.Wrap(ErrInvalidGradientStep, "empty model or batch")
	}

	if len(g.Labels) != len(g.Features) {
		return errors.Wrap(ErrInvalidGradientStep, "labels do not match batch")
	}

	for _, row := range g.Features {
		if len(row) != d {
			return errors.Wrap(ErrInvalidGradientStep, "ragged features")
		}
	}

	if g.StepDen == 0 {
		return errors.Wrap(ErrInvalidGradientStep, "zero step denominator")
	}

	return nil
}

// UpdatedWeights computes w' in the field.
func (g *GradientStep) UpdatedWeights() ([]fr.Element, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	grad := g.gradient()
	scale := g.scale()
	out := make([]fr.Element, len(g.Weights))
	for j := range g.Weights {
		var w, t fr.Element
		w.SetInt64(g.Weights[j])
		t.Mul(&scale, &grad[j])
		out[j].Sub(&w, &t)
	}

	return out, nil
}

// Trace builds the computation trace of the step. Public wires are the d
// input weights followed by the d updated weights.
func (g *GradientStep) Trace() (*ComputationTrace, error) {
	updated, err := g.UpdatedWeights()
	if err != nil {
		return nil, err
	}

	d := len(g.Weights)
	b := NewBuilder()

	w := make([]Wire, d)
	for j := range g.Weights {
		var v fr.Element
		v.SetInt64(g.Weights[j])
		w[j] = b.Public(v)
	}

	wNext := make([]Wire, d)
	for j := range updated {
		wNext[j] = b.Public(updated[j])
	}

	x := make([][]Wire, len(g.Features))
	y := make([]Wire, len(g.Labels))
	for i, row := range g.Features {
		x[i] = make([]Wire, d)
		for j := range row {
			var v fr.Element
			v.SetInt64(row[j])
			x[i][j] = b.Private(v)
		}

		var v fr.Element
		v.SetInt64(g.Labels[i])
		y[i] = b.Private(v)
	}

	// residuals r_i = <x_i, w> - y_i
	r := make([]Wire, len(g.Features))
	for i := range x {
		acc := b.Mul(x[i][0], w[0])
		for j := 1; j < d; j++ {
			acc = b.Add(acc, b.Mul(x[i][j], w[j]))
		}

		r[i] = b.Sub(acc, y[i])
	}

	var num, den fr.Element
	num.SetInt64(g.StepNum)
	den.SetInt64(g.StepDen)

	for j := 0; j < d; j++ {
		grad := b.Mul(r[0], x[0][j])
		for i := 1; i < len(x); i++ {
			grad = b.Add(grad, b.Mul(r[i], x[i][j]))
		}

		delta := b.Sub(w[j], wNext[j])
		b.AssertEqual(b.ConstMul(den, delta), b.ConstMul(num, grad))
	}

	return b.Build()
}

// GradientShape returns the constraint system shared by every gradient step
// over a model of the given dimension and a batch of the given size. The
// shape does not depend on the weights or the data.
func GradientShape(
	dimension int,
	batchSize int,
	stepNum int64,
	stepDen int64,
) (*ConstraintSystem, error) {
	if dimension <= 0 || batchSize <= 0 {
		return nil, errors.Wrap(ErrInvalidGradientStep, "gradient shape")
	}

	g := &GradientStep{
		Weights:  make([]int64, dimension),
		Features: make([][]int64, batchSize),
		Labels:   make([]int64, batchSize),
		StepNum:  stepNum,
		StepDen:  stepDen,
	}
	for i := range g.Features {
		g.Features[i] = make([]int64, dimension)
	}

	trace, err := g.Trace()
	if err != nil {
		return nil, errors.Wrap(err, "gradient shape")
	}

	cs, _, _, err := Arithmetize(trace)
	return cs, errors.Wrap(err, "gradient shape")
}

func (g *GradientStep) gradient() []fr.Element {
	d := len(g.Weights)
	grad := make([]fr.Element, d)
	for i, row := range g.Features {
		var res, t, xv, wv fr.Element
		for j := range row {
			xv.SetInt64(row[j])
			wv.SetInt64(g.Weights[j])
			t.Mul(&xv, &wv)
			res.Add(&res, &t)
		}

		t.SetInt64(g.Labels[i])
		res.Sub(&res, &t)
		for j := range row {
			xv.SetInt64(row[j])
			t.Mul(&res, &xv)
			grad[j].Add(&grad[j], &t)
		}
	}

	return grad
}

func (g *GradientStep) scale() fr.Element {
	var num, den fr.Element
	num.SetInt64(g.StepNum)
	den.SetInt64(g.StepDen)
	den.Inverse(&den)
	num.Mul(&num, &den)
	return num
}
