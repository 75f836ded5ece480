package tista

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/unixpickle/autofunc"
	"github.com/unixpickle/num-analysis/linalg"
	"github.com/unixpickle/weakai/neuralnet"
	"golang.org/x/exp/rand"
)

// A GenerationReport summarizes one generation of
// incremental training.
type GenerationReport struct {
	// Generation is the 0-based generation index.
	Generation int

	// Layers is the number of layers that were trained
	// and evaluated.
	Layers int

	// NMSE is the mean normalized squared error in dB on
	// held-out batches.
	NMSE float64

	// Loss is the mean training loss over the steps which
	// updated the parameters.
	Loss float64

	// Skipped is the number of steps which were dropped
	// because of a non-finite gradient.
	Skipped int
}

// StepResult is the outcome of a single training step.
type StepResult struct {
	Loss    float64
	Skipped bool
}

// A Trainer trains a Network incrementally, one more
// layer per generation.
type Trainer struct {
	Config    *Config
	Network   *Network
	Sampler   Sampler
	Optimizer Optimizer

	// Cost is the per-sample cost function.
	// If nil, neuralnet.MeanSquaredCost is used.
	Cost neuralnet.CostFunc

	// Log receives progress and diagnostics.
	// If nil, the standard logrus logger is used.
	Log *logrus.Logger

	// Report, if non-nil, is called after every
	// generation.
	Report func(GenerationReport)
}

// NewTrainer builds the sensing model, sampler, noise
// calibration, network, and optimizer described by c.
// Every component gets its own random source, seeded
// from c.
func NewTrainer(c *Config, log *logrus.Logger) (*Trainer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	model, err := NewSensingModel(c.M, c.N, rand.NewSource(c.MatrixSeed))
	if err != nil {
		return nil, err
	}
	sampler := NewBernoulliGaussian(c.N, c.P, c.Alpha2, rand.NewSource(c.SamplerSeed))
	noise, err := Calibrate(model, sampler, c.CalibrationBatches, c.BatchSize, c.SNR, c.Alpha2)
	if err != nil {
		return nil, fmt.Errorf("calibrate noise: %w", err)
	}
	gamma := InitGamma(c.MaxLayers, c.GammaMean, c.GammaStd, rand.NewSource(c.GammaSeed))
	network := NewNetwork(model, NewShrinkage(c.P, c.Alpha2, noise), noise, gamma,
		rand.NewSource(c.NoiseSeed))
	return &Trainer{
		Config:    c,
		Network:   network,
		Sampler:   sampler,
		Optimizer: NewAdam(c.LearningRate),
		Log:       log,
	}, nil
}

// Train runs every generation and returns their reports.
func (t *Trainer) Train() ([]GenerationReport, error) {
	var reports []GenerationReport
	for gen := 0; gen < t.Config.NumGenerations; gen++ {
		report, err := t.TrainGeneration(gen)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// TrainGeneration trains the first gen+1 layers for
// t.Config.NumBatches steps and evaluates the result.
func (t *Trainer) TrainGeneration(gen int) (GenerationReport, error) {
	layers := gen + 1
	report := GenerationReport{Generation: gen, Layers: layers}

	var lossSum float64
	for i := 0; i < t.Config.NumBatches; i++ {
		res, err := t.Step(layers)
		if err != nil {
			return report, err
		}
		if res.Skipped {
			report.Skipped++
			t.logger().WithFields(logrus.Fields{
				"generation": gen + 1,
				"batch":      i,
			}).Warn("skipping step with non-finite gradient")
			continue
		}
		lossSum += res.Loss
		t.logger().WithFields(logrus.Fields{
			"generation": gen + 1,
			"batch":      i,
			"loss":       res.Loss,
		}).Debug("step")
	}
	if applied := t.Config.NumBatches - report.Skipped; applied > 0 {
		report.Loss = lossSum / float64(applied)
	}

	nmse, err := t.Evaluate(layers)
	if err != nil {
		return report, err
	}
	report.NMSE = nmse

	t.logger().WithFields(logrus.Fields{
		"generation": gen + 1,
		"layers":     layers,
		"nmse_db":    nmse,
		"loss":       report.Loss,
		"skipped":    report.Skipped,
	}).Info("generation complete")
	if t.Report != nil {
		t.Report(report)
	}
	return report, nil
}

// Step trains the first layers of the network on one
// freshly sampled batch.
// The parameters are left untouched if the gradient is
// not finite.
func (t *Trainer) Step(layers int) (StepResult, error) {
	batch := t.Sampler.Sample(t.Config.BatchSize)
	grad, loss, err := t.BatchGradient(batch, layers)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Loss: loss, Skipped: !t.Apply(grad)}, nil
}

// BatchGradient computes the mean squared error over the
// batch and every coordinate, along with its gradient
// with respect to the network's parameters.
func (t *Trainer) BatchGradient(batch []linalg.Vector, layers int) (CheckedGradient,
	float64, error) {
	if len(batch) == 0 {
		return CheckedGradient{}, 0, errors.New("empty batch")
	}
	grad := autofunc.NewGradient(t.Network.Parameters())
	start := make(linalg.Vector, t.Network.Model.N())
	scale := 1 / float64(len(batch)*len(start))

	var loss float64
	for _, x := range batch {
		estimate, err := t.Network.Forward(x, start, layers)
		if err != nil {
			return CheckedGradient{}, 0, err
		}
		cost := t.cost().Cost(x, estimate)
		loss += cost.Output()[0] * scale
		cost.PropagateGradient(linalg.Vector{scale}, grad)
	}
	return CheckGradient(grad), loss, nil
}

// Apply steps the optimizer if the gradient is valid and
// reports whether it did.
func (t *Trainer) Apply(grad CheckedGradient) bool {
	if !grad.Valid() {
		return false
	}
	t.Optimizer.Step(grad.Gradient())
	return true
}

// Evaluate computes the mean NMSE (in dB) of the first
// layers of the network over t.Config.EvalBatches fresh
// batches.
// Samples with no energy are left out of the mean.
func (t *Trainer) Evaluate(layers int) (float64, error) {
	start := make(linalg.Vector, t.Network.Model.N())
	var sum float64
	var count int
	for i := 0; i < t.Config.EvalBatches; i++ {
		for _, x := range t.Sampler.Sample(t.Config.BatchSize) {
			estimate, err := t.Network.Forward(x, start, layers)
			if err != nil {
				return 0, err
			}
			if nmse, ok := NMSE(x, estimate.Output()); ok {
				sum += nmse
				count++
			}
		}
	}
	if count == 0 {
		return 0, errors.New("no evaluation sample has non-zero energy")
	}
	return sum / float64(count), nil
}

func (t *Trainer) cost() neuralnet.CostFunc {
	if t.Cost == nil {
		return neuralnet.MeanSquaredCost{}
	}
	return t.Cost
}

func (t *Trainer) logger() *logrus.Logger {
	if t.Log == nil {
		return logrus.StandardLogger()
	}
	return t.Log
}
