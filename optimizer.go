package tista

import (
	"github.com/unixpickle/autofunc"
	"github.com/unixpickle/sgd"
	"gonum.org/v1/gonum/floats"
)

// An Optimizer updates variables in place given their
// gradient.
type Optimizer interface {
	Step(grad autofunc.Gradient)
}

// Adam is an Optimizer which uses the adaptive moment
// estimates of sgd.Adam with a fixed learning rate.
type Adam struct {
	LearningRate float64

	adam sgd.Adam
}

// NewAdam creates an Adam optimizer with default decay
// rates.
func NewAdam(learningRate float64) *Adam {
	return &Adam{LearningRate: learningRate}
}

// Step updates the moment estimates with grad and takes
// one step against the resulting direction.
func (a *Adam) Step(grad autofunc.Gradient) {
	a.adam.Gradienter = presetGradienter{Grad: grad}
	for v, step := range a.adam.Gradient(nil) {
		floats.AddScaled(v.Vector, -a.LearningRate, step)
	}
}

// presetGradienter hands an already computed gradient to
// an sgd.Gradienter consumer.
type presetGradienter struct {
	Grad autofunc.Gradient
}

func (p presetGradienter) Gradient(s sgd.SampleSet) autofunc.Gradient {
	return p.Grad
}
