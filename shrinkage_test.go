package tista

import (
	"math"
	"testing"

	"github.com/unixpickle/num-analysis/linalg"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestShrinkageOdd(t *testing.T) {
	s := &Shrinkage{P: 0.1, Alpha2: 1, Xi: 1.0001}
	for _, tau2 := range []float64{1e-6, 0.01, 0.5, 3} {
		for _, r := range []float64{0, 1e-3, 0.2, 1, 2.5, 7, 40} {
			pos := s.Apply(r, tau2)
			neg := s.Apply(-r, tau2)
			if pos != -neg {
				t.Errorf("f(%f, %f)=%f but f(-r)=%f", r, tau2, pos, neg)
			}
		}
	}
}

func TestShrinkageValues(t *testing.T) {
	s := &Shrinkage{P: 0.2, Alpha2: 1, Xi: 1.01}
	r, tau2 := 0.75, 0.10815
	a := 0.2 * math.Exp(-r*r/(2*1.01))
	b := 0.8 * math.Exp(-r*r/(2*tau2))
	expected := (r / 1.01) * a / (a + b)
	if actual := s.Apply(r, tau2); !scalar.EqualWithinAbs(actual, expected, 1e-12) {
		t.Errorf("expected %f but got %f", expected, actual)
	}

	// Large inputs are kept (almost) as-is, small inputs
	// are driven towards zero.
	if actual := s.Apply(5, 0.01); math.Abs(actual-5/1.01) > 1e-6 {
		t.Errorf("unexpected large-input value %f", actual)
	}
	if actual := s.Apply(0.01, 0.01); math.Abs(actual) > 0.25*0.01 {
		t.Errorf("unexpected small-input value %f", actual)
	}
}

func TestShrinkageUnderflow(t *testing.T) {
	s := &Shrinkage{P: 0.1, Alpha2: 1, Xi: 1}
	if GaussianDensity(1e3, 1) != 0 || GaussianDensity(1e3, 1e-3) != 0 {
		t.Fatal("expected densities to underflow")
	}
	for _, r := range []float64{1e3, -1e3, 1e10} {
		if actual := s.Apply(r, 1e-3); actual != 0 {
			t.Errorf("f(%e) should be 0 but got %f", r, actual)
		}
		dr, dTau2 := s.Derivatives(r, 1e-3)
		if dr != 0 || dTau2 != 0 {
			t.Errorf("derivatives at %e should be 0 but got %f, %f", r, dr, dTau2)
		}
	}
}

func TestShrinkageDerivatives(t *testing.T) {
	s := &Shrinkage{P: 0.1, Alpha2: 1.5, Xi: 1.52}
	settings := &fd.Settings{Formula: fd.Central}
	for _, tau2 := range []float64{0.05, 0.3, 1} {
		for _, r := range []float64{-2, -0.4, 0, 0.1, 0.9, 3} {
			dr, dTau2 := s.Derivatives(r, tau2)
			expDr := fd.Derivative(func(x float64) float64 {
				return s.Apply(x, tau2)
			}, r, settings)
			expDTau2 := fd.Derivative(func(x float64) float64 {
				return s.Apply(r, x)
			}, tau2, settings)
			if math.Abs(dr-expDr) > 1e-5 {
				t.Errorf("d/dr at (%f, %f): expected %f but got %f", r, tau2, expDr, dr)
			}
			if math.Abs(dTau2-expDTau2) > 1e-5 {
				t.Errorf("d/dtau2 at (%f, %f): expected %f but got %f", r, tau2,
					expDTau2, dTau2)
			}
		}
	}
}

func TestErrorVarianceFloor(t *testing.T) {
	e := &ErrorVariance{M: 5, N: 10, Sigma2: 0.1, TraceAA: 10, TraceWW: 2}
	residuals := []linalg.Vector{
		make(linalg.Vector, 5),
		{0.01, 0, 0, 0, 0},
		{0.1, 0.1, 0.1, 0.1, 0.1},
	}
	for _, gamma := range []float64{0.5, 1, 1.5} {
		floor := e.Tau2(VarianceFloor, gamma)
		if floor <= 0 {
			t.Fatalf("floor for gamma=%f is not positive: %e", gamma, floor)
		}
		for _, res := range residuals {
			v2, clamped := e.SignalVariance(res)
			if !clamped || v2 != VarianceFloor {
				t.Errorf("residual %v should be clamped but got %e", res, v2)
			}
			if actual := e.Apply(res, gamma); actual < floor {
				t.Errorf("tau2 %e is below floor %e", actual, floor)
			}
		}
	}
}

func TestErrorVarianceValue(t *testing.T) {
	model := smallModel(t)
	e := NewErrorVariance(model, NoiseLevel{Sigma2: 0.01, Xi: 1.01})
	actual := e.Apply(linalg.Vector{1, -0.5}, 0.9)
	if !scalar.EqualWithinAbs(actual, 0.10815, 1e-12) {
		t.Errorf("expected 0.10815 but got %f", actual)
	}
}

func TestErrorVariancePartials(t *testing.T) {
	e := &ErrorVariance{M: 5, N: 10, Sigma2: 0.1, TraceAA: 10, TraceWW: 2}
	settings := &fd.Settings{Formula: fd.Central}
	for _, gamma := range []float64{0.3, 1, 1.7} {
		v2 := 0.25
		dGamma, dV2 := e.Partials(v2, gamma)
		expGamma := fd.Derivative(func(x float64) float64 {
			return e.Tau2(v2, x)
		}, gamma, settings)
		expV2 := fd.Derivative(func(x float64) float64 {
			return e.Tau2(x, gamma)
		}, v2, settings)
		if math.Abs(dGamma-expGamma) > 1e-6 || math.Abs(dV2-expV2) > 1e-6 {
			t.Errorf("gamma=%f: expected (%f, %f) but got (%f, %f)", gamma,
				expGamma, expV2, dGamma, dV2)
		}
	}
}
