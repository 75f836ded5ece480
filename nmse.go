package tista

import (
	"math"

	"github.com/unixpickle/num-analysis/linalg"
	"gonum.org/v1/gonum/floats"
)

// NMSE computes the normalized squared error of an
// estimate in decibels:
//
//	10*log10(||x - estimate||^2 / ||x||^2)
//
// The second return value is false if x is the zero
// vector, in which case the ratio is undefined.
func NMSE(x, estimate linalg.Vector) (float64, bool) {
	energy := floats.Dot(x, x)
	if energy == 0 {
		return 0, false
	}
	dist := floats.Distance(x, estimate, 2)
	return 10 * math.Log10(dist*dist/energy), true
}
