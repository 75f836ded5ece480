package tista

import (
	"math"

	"github.com/unixpickle/num-analysis/linalg"
	"gonum.org/v1/gonum/floats"
)

// VarianceFloor is the smallest signal-variance estimate
// used by ErrorVariance.
const VarianceFloor = 1e-7

// GaussianDensity computes exp(-x^2/(2*v)).
//
// There is no normalization constant, so the result is
// only meaningful as part of a ratio of densities.
func GaussianDensity(x, v float64) float64 {
	return math.Exp(-x * x / (2 * v))
}

// Shrinkage is the MMSE denoiser for a Bernoulli-Gaussian
// source observed through Gaussian noise.
type Shrinkage struct {
	// P is the probability of a non-zero component.
	P float64

	// Alpha2 is the variance of non-zero components.
	Alpha2 float64

	// Xi is Alpha2 plus the measurement noise variance.
	Xi float64
}

// NewShrinkage creates the denoiser for a prior and a
// calibrated noise level.
func NewShrinkage(p, alpha2 float64, noise NoiseLevel) *Shrinkage {
	return &Shrinkage{P: p, Alpha2: alpha2, Xi: noise.Xi}
}

// Apply evaluates the shrinkage function at r given the
// error variance tau2.
//
// If both density terms underflow, the result is 0.
func (s *Shrinkage) Apply(r, tau2 float64) float64 {
	a, b := s.terms(r, tau2)
	if a+b == 0 {
		return 0
	}
	return (r * s.Alpha2 / s.Xi) * a / (a + b)
}

// Derivatives computes the partial derivatives of Apply
// with respect to r and tau2.
func (s *Shrinkage) Derivatives(r, tau2 float64) (dr, dTau2 float64) {
	a, b := s.terms(r, tau2)
	if a+b == 0 {
		return 0, 0
	}
	q := a / (a + b)
	c := s.Alpha2 / s.Xi
	r2 := r * r
	dr = c * q * (1 + (1-q)*r2*(1/tau2-1/s.Xi))
	dTau2 = -c * q * (1 - q) * r2 * r / (2 * tau2 * tau2)
	return
}

func (s *Shrinkage) terms(r, tau2 float64) (signal, noise float64) {
	signal = s.P * GaussianDensity(r, s.Xi)
	noise = (1 - s.P) * GaussianDensity(r, tau2)
	return
}

// ErrorVariance estimates the variance of the error in
// the linear estimate r at each layer.
type ErrorVariance struct {
	M       int
	N       int
	Sigma2  float64
	TraceAA float64
	TraceWW float64
}

// NewErrorVariance creates an estimator for a sensing
// model and noise level.
func NewErrorVariance(model *SensingModel, noise NoiseLevel) *ErrorVariance {
	return &ErrorVariance{
		M:       model.M(),
		N:       model.N(),
		Sigma2:  noise.Sigma2,
		TraceAA: model.TraceAA(),
		TraceWW: model.TraceWW(),
	}
}

// Apply computes tau^2 for the residual t and the gain
// of the current layer.
func (e *ErrorVariance) Apply(t linalg.Vector, gamma float64) float64 {
	v2, _ := e.SignalVariance(t)
	return e.Tau2(v2, gamma)
}

// SignalVariance computes the estimate
//
//	v^2 = max((||t||^2 - M*sigma^2) / trace(A^T A), VarianceFloor)
//
// and reports whether the floor was used.
func (e *ErrorVariance) SignalVariance(t linalg.Vector) (v2 float64, clamped bool) {
	v2 = (floats.Dot(t, t) - float64(e.M)*e.Sigma2) / e.TraceAA
	if !(v2 > VarianceFloor) {
		return VarianceFloor, true
	}
	return v2, false
}

// Tau2 computes the error variance from a signal
// variance estimate and a layer gain.
func (e *ErrorVariance) Tau2(v2, gamma float64) float64 {
	n, m := float64(e.N), float64(e.M)
	return (v2/n)*(n+(gamma*gamma-2*gamma)*m) + gamma*gamma*e.TraceWW*e.Sigma2/n
}

// Partials computes the partial derivatives of Tau2 with
// respect to the gain and the signal variance.
func (e *ErrorVariance) Partials(v2, gamma float64) (dGamma, dV2 float64) {
	n, m := float64(e.N), float64(e.M)
	dGamma = (v2/n)*(2*gamma-2)*m + 2*gamma*e.TraceWW*e.Sigma2/n
	dV2 = (n + (gamma*gamma-2*gamma)*m) / n
	return
}
