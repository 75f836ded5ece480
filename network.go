package tista

import (
	"errors"
	"fmt"

	"github.com/unixpickle/autofunc"
	"github.com/unixpickle/num-analysis/linalg"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrLayerRange is returned when a network is asked to
// run more layers than it has gains for, or fewer than
// one layer.
var ErrLayerRange = errors.New("layer count out of range")

// A Network is a TISTA network with one trainable gain
// per layer.
//
// Besides its gains, a Network owns the random source for
// the measurement noise it injects in Forward.
type Network struct {
	Model    *SensingModel
	Shrink   *Shrinkage
	Variance *ErrorVariance
	Noise    NoiseLevel

	// Gamma stores the gain for each layer.
	Gamma *autofunc.Variable

	noise distuv.Normal
}

// InitGamma draws count gains from Normal(mean, std^2).
func InitGamma(count int, mean, std float64, src rand.Source) linalg.Vector {
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: src}
	res := make(linalg.Vector, count)
	for i := range res {
		res[i] = dist.Rand()
	}
	return res
}

// NewNetwork creates a network with the given initial
// gains, one per supported layer.
// Measurement noise is drawn from noiseSrc.
func NewNetwork(model *SensingModel, shrink *Shrinkage, noise NoiseLevel,
	gamma linalg.Vector, noiseSrc rand.Source) *Network {
	return &Network{
		Model:    model,
		Shrink:   shrink,
		Variance: NewErrorVariance(model, noise),
		Noise:    noise,
		Gamma:    &autofunc.Variable{Vector: gamma},
		noise:    distuv.Normal{Mu: 0, Sigma: noise.Sigma(), Src: noiseSrc},
	}
}

// MaxLayers returns the number of layers the network
// has gains for.
func (n *Network) MaxLayers() int {
	return len(n.Gamma.Vector)
}

// Parameters returns the gain variable.
func (n *Network) Parameters() []*autofunc.Variable {
	return []*autofunc.Variable{n.Gamma}
}

// Forward measures the ground truth x through the noisy
// sensing channel and recovers it with the given number
// of layers, starting from the estimate start.
func (n *Network) Forward(x, start linalg.Vector, layers int) (autofunc.Result, error) {
	if err := n.checkLayers(layers); err != nil {
		return nil, err
	}
	y := n.Model.Measure(x)
	for i := range y {
		y[i] += n.noise.Rand()
	}
	return n.Recover(y, start, layers)
}

// Recover runs the given number of layers on the
// measurement y, starting from the estimate start.
//
// The result can back-propagate into n.Gamma.
func (n *Network) Recover(y, start linalg.Vector, layers int) (autofunc.Result, error) {
	if err := n.checkLayers(layers); err != nil {
		return nil, err
	}
	f := &Recovery{Network: n, Measurement: y, Start: start, Layers: layers}
	return f.Apply(n.Gamma), nil
}

func (n *Network) checkLayers(layers int) error {
	if layers < 1 || layers > n.MaxLayers() {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrLayerRange, layers, n.MaxLayers())
	}
	return nil
}

// Recovery is an autofunc.Func which maps a vector of
// per-layer gains to the estimate produced by running a
// network on a fixed measurement.
type Recovery struct {
	Network     *Network
	Measurement linalg.Vector
	Start       linalg.Vector
	Layers      int
}

// Apply runs r.Layers layers using the gains in the
// input vector.
func (r *Recovery) Apply(gamma autofunc.Result) autofunc.Result {
	gains := gamma.Output()
	if r.Layers > len(gains) {
		panic("not enough gains for layer count")
	}
	rec := &recursion{
		Model:       r.Network.Model,
		Shrink:      r.Network.Shrink,
		Variance:    r.Network.Variance,
		Measurement: r.Measurement,
	}
	state := rec.StartState(r.Start)
	for i := 0; i < r.Layers; i++ {
		state = state.NextState(gains[i])
	}
	return &recoveryResult{Gamma: gamma, Final: state}
}

type recoveryResult struct {
	Gamma autofunc.Result
	Final *layerState
}

func (r *recoveryResult) Output() linalg.Vector {
	return r.Final.Estimate
}

func (r *recoveryResult) Constant(g autofunc.Gradient) bool {
	return r.Gamma.Constant(g)
}

func (r *recoveryResult) PropagateGradient(upstream linalg.Vector, g autofunc.Gradient) {
	if r.Gamma.Constant(g) {
		return
	}
	gammaGrad := make(linalg.Vector, len(r.Gamma.Output()))
	stateGrad := upstream
	for state := r.Final; state.Last != nil; state = state.Last {
		var layerGrad float64
		stateGrad, layerGrad = state.Gradient(stateGrad)
		gammaGrad[state.Depth-1] = layerGrad
	}
	r.Gamma.PropagateGradient(gammaGrad, g)
}
