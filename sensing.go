package tista

import (
	"errors"
	"fmt"
	"math"

	"github.com/unixpickle/num-analysis/linalg"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrSingularSensing is returned when the pseudo-inverse
// of a sensing matrix cannot be computed.
var ErrSingularSensing = errors.New("sensing matrix has no right inverse")

// A SensingModel is a fixed linear measurement map A
// along with its right pseudo-inverse W = A^T(AA^T)^-1.
//
// A SensingModel is never modified after construction,
// so it may be shared freely.
type SensingModel struct {
	a *mat.Dense
	w *mat.Dense

	traceAA float64
	traceWW float64
}

// NewSensingModel draws an m-by-n sensing matrix with
// i.i.d. Normal(0, 1/m) entries from src.
func NewSensingModel(m, n int, src rand.Source) (*SensingModel, error) {
	if m <= 0 || m >= n {
		return nil, fmt.Errorf("invalid sensing dimensions %dx%d", m, n)
	}
	dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(1 / float64(m)), Src: src}
	data := make([]float64, m*n)
	for i := range data {
		data[i] = dist.Rand()
	}
	return NewSensingModelMatrix(mat.NewDense(m, n, data))
}

// NewSensingModelMatrix creates a SensingModel for an
// existing matrix with fewer rows than columns.
// The matrix should not be modified afterwards.
func NewSensingModelMatrix(a *mat.Dense) (*SensingModel, error) {
	m, n := a.Dims()
	if m >= n {
		return nil, fmt.Errorf("sensing matrix must be wide but is %dx%d", m, n)
	}

	var aat, inv mat.Dense
	aat.Mul(a, a.T())
	if err := inv.Inverse(&aat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSensing, err)
	}
	w := mat.NewDense(n, m, nil)
	w.Mul(a.T(), &inv)

	var ata, wwt mat.Dense
	ata.Mul(a.T(), a)
	wwt.Mul(w, w.T())

	return &SensingModel{
		a:       a,
		w:       w,
		traceAA: mat.Trace(&ata),
		traceWW: mat.Trace(&wwt),
	}, nil
}

// M returns the measurement dimension.
func (s *SensingModel) M() int {
	r, _ := s.a.Dims()
	return r
}

// N returns the signal dimension.
func (s *SensingModel) N() int {
	_, c := s.a.Dims()
	return c
}

// Matrix returns the sensing matrix A.
func (s *SensingModel) Matrix() mat.Matrix {
	return s.a
}

// PseudoInverse returns W = A^T(AA^T)^-1.
func (s *SensingModel) PseudoInverse() mat.Matrix {
	return s.w
}

// TraceAA returns trace(A^T A).
func (s *SensingModel) TraceAA() float64 {
	return s.traceAA
}

// TraceWW returns trace(W W^T).
func (s *SensingModel) TraceWW() float64 {
	return s.traceWW
}

// Measure computes the noiseless measurement Ax.
func (s *SensingModel) Measure(x linalg.Vector) linalg.Vector {
	return mulVec(s.a, x)
}

// MeasureAdjoint computes A^T t for a measurement-space
// vector t.
func (s *SensingModel) MeasureAdjoint(t linalg.Vector) linalg.Vector {
	return mulVec(s.a.T(), t)
}

// Backproject computes Wt, mapping a measurement-space
// vector back into signal space.
func (s *SensingModel) Backproject(t linalg.Vector) linalg.Vector {
	return mulVec(s.w, t)
}

// BackprojectAdjoint computes W^T u for a signal-space
// vector u.
func (s *SensingModel) BackprojectAdjoint(u linalg.Vector) linalg.Vector {
	return mulVec(s.w.T(), u)
}

func mulVec(m mat.Matrix, v linalg.Vector) linalg.Vector {
	rows, cols := m.Dims()
	if len(v) != cols {
		panic(fmt.Sprintf("vector length %d does not match %d columns", len(v), cols))
	}
	res := make(linalg.Vector, rows)
	mat.NewVecDense(rows, res).MulVec(m, mat.NewVecDense(cols, v))
	return res
}
