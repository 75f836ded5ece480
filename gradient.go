package tista

import (
	"math"

	"github.com/unixpickle/autofunc"
	"gonum.org/v1/gonum/floats"
)

// A CheckedGradient is a gradient which has been scanned
// for NaN and infinite components.
// Only valid gradients may be used to update parameters.
type CheckedGradient struct {
	grad    autofunc.Gradient
	invalid []*autofunc.Variable
}

// CheckGradient scans every component of g.
func CheckGradient(g autofunc.Gradient) CheckedGradient {
	res := CheckedGradient{grad: g}
	for v, vec := range g {
		if floats.HasNaN(vec) || math.IsInf(floats.Norm(vec, math.Inf(1)), 0) {
			res.invalid = append(res.invalid, v)
		}
	}
	return res
}

// Valid returns true if every component is finite.
func (c CheckedGradient) Valid() bool {
	return len(c.invalid) == 0
}

// Gradient returns the gradient if it is valid, or nil
// otherwise.
func (c CheckedGradient) Gradient() autofunc.Gradient {
	if !c.Valid() {
		return nil
	}
	return c.grad
}

// Invalid returns the variables whose gradients contain
// non-finite components.
func (c CheckedGradient) Invalid() []*autofunc.Variable {
	return c.invalid
}
