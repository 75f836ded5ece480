package tista

import (
	"github.com/unixpickle/num-analysis/linalg"
	"gonum.org/v1/gonum/floats"
)

// recursion stores everything a layer needs besides its
// gain and the previous estimate.
type recursion struct {
	Model       *SensingModel
	Shrink      *Shrinkage
	Variance    *ErrorVariance
	Measurement linalg.Vector
}

// StartState returns the state before any layer has been
// applied.
func (r *recursion) StartState(start linalg.Vector) *layerState {
	return &layerState{Recursion: r, Estimate: start}
}

// layerState is the estimate s after Depth layers, along
// with the intermediate values needed to back-propagate
// through the layer which produced it.
type layerState struct {
	Recursion *recursion
	Estimate  linalg.Vector
	Depth     int

	// The fields below are unset for the start state.
	Last     *layerState
	Gamma    float64
	Residual linalg.Vector
	Feedback linalg.Vector
	Linear   linalg.Vector
	V2       float64
	Clamped  bool
	Tau2     float64
}

// NextState applies one layer with the given gain.
// The receiver is not modified.
func (s *layerState) NextState(gamma float64) *layerState {
	rec := s.Recursion

	residual := rec.Measurement.Copy()
	floats.Sub(residual, rec.Model.Measure(s.Estimate))

	v2, clamped := rec.Variance.SignalVariance(residual)
	tau2 := rec.Variance.Tau2(v2, gamma)

	feedback := rec.Model.Backproject(residual)
	linear := s.Estimate.Copy()
	floats.AddScaled(linear, gamma, feedback)

	estimate := make(linalg.Vector, len(linear))
	for i, x := range linear {
		estimate[i] = rec.Shrink.Apply(x, tau2)
	}

	return &layerState{
		Recursion: rec,
		Estimate:  estimate,
		Depth:     s.Depth + 1,
		Last:      s,
		Gamma:     gamma,
		Residual:  residual,
		Feedback:  feedback,
		Linear:    linear,
		V2:        v2,
		Clamped:   clamped,
		Tau2:      tau2,
	}
}

// Gradient computes the gradient of some value with
// respect to the previous estimate and to this layer's
// gain, given the gradient with respect to s.Estimate.
func (s *layerState) Gradient(upstream linalg.Vector) (linalg.Vector, float64) {
	if s.Last == nil {
		panic("cannot propagate through start state")
	}
	rec := s.Recursion

	linearGrad := make(linalg.Vector, len(upstream))
	var tau2Grad float64
	for i, u := range upstream {
		dr, dTau2 := rec.Shrink.Derivatives(s.Linear[i], s.Tau2)
		linearGrad[i] = u * dr
		tau2Grad += u * dTau2
	}

	dGamma, dV2 := rec.Variance.Partials(s.V2, s.Gamma)
	gammaGrad := floats.Dot(linearGrad, s.Feedback) + tau2Grad*dGamma

	residualGrad := rec.Model.BackprojectAdjoint(linearGrad)
	floats.Scale(s.Gamma, residualGrad)
	if !s.Clamped {
		floats.AddScaled(residualGrad, 2*tau2Grad*dV2/rec.Variance.TraceAA, s.Residual)
	}

	downstream := linearGrad.Copy()
	floats.Sub(downstream, rec.Model.MeasureAdjoint(residualGrad))
	return downstream, gammaGrad
}
