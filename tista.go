// Package tista implements Trainable ISTA, an iterative
// shrinkage algorithm for sparse signal recovery whose
// only learned parameters are one step-size gain per
// iteration.
//
// The recursion uses an MMSE shrinkage function for a
// Bernoulli-Gaussian prior and is trained incrementally,
// adding one layer per generation.
package tista

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every error returned
// from Config.Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config stores every option that is fixed at process
// start.
type Config struct {
	// N is the length of the sparse signal.
	N int `json:"n"`

	// M is the number of measurements, M < N.
	M int `json:"m"`

	// P is the probability of a non-zero component.
	P float64 `json:"p"`

	// Alpha2 is the variance of non-zero components.
	Alpha2 float64 `json:"alpha2"`

	BatchSize      int     `json:"batch_size"`
	NumBatches     int     `json:"num_batches"`
	NumGenerations int     `json:"num_generations"`
	MaxLayers      int     `json:"max_layers"`
	SNR            float64 `json:"snr"`
	LearningRate   float64 `json:"learning_rate"`

	// CalibrationBatches is the number of batches used to
	// estimate the measurement energy.
	CalibrationBatches int `json:"calibration_batches"`

	// EvalBatches is the number of held-out batches used
	// at the end of every generation.
	EvalBatches int `json:"eval_batches"`

	// GammaMean and GammaStd control the initial
	// distribution of the per-layer gains.
	GammaMean float64 `json:"gamma_mean"`
	GammaStd  float64 `json:"gamma_std"`

	MatrixSeed  uint64 `json:"matrix_seed"`
	SamplerSeed uint64 `json:"sampler_seed"`
	NoiseSeed   uint64 `json:"noise_seed"`
	GammaSeed   uint64 `json:"gamma_seed"`
}

// DefaultConfig returns the configuration used for the
// experiments in the TISTA paper.
func DefaultConfig() *Config {
	return &Config{
		N:                  500,
		M:                  250,
		P:                  0.1,
		Alpha2:             1,
		BatchSize:          100,
		NumBatches:         200,
		NumGenerations:     15,
		MaxLayers:          20,
		SNR:                40,
		LearningRate:       0.04,
		CalibrationBatches: 100,
		EvalBatches:        10,
		GammaMean:          1,
		GammaStd:           0.1,
		MatrixSeed:         1,
		SamplerSeed:        2,
		NoiseSeed:          3,
		GammaSeed:          4,
	}
}

// Validate checks that the configuration describes a
// runnable experiment.
func (c *Config) Validate() error {
	switch {
	case c.N <= 0 || c.M <= 0:
		return fmt.Errorf("%w: dimensions must be positive (N=%d, M=%d)",
			ErrInvalidConfig, c.N, c.M)
	case c.M >= c.N:
		return fmt.Errorf("%w: M (%d) must be less than N (%d)", ErrInvalidConfig, c.M, c.N)
	case c.P <= 0 || c.P >= 1:
		return fmt.Errorf("%w: p must be in (0, 1) but got %f", ErrInvalidConfig, c.P)
	case c.Alpha2 <= 0:
		return fmt.Errorf("%w: alpha2 must be positive", ErrInvalidConfig)
	case c.BatchSize <= 0 || c.NumBatches <= 0 || c.EvalBatches <= 0 ||
		c.CalibrationBatches <= 0:
		return fmt.Errorf("%w: batch counts and sizes must be positive", ErrInvalidConfig)
	case c.MaxLayers <= 0:
		return fmt.Errorf("%w: max_layers must be positive", ErrInvalidConfig)
	case c.NumGenerations <= 0 || c.NumGenerations > c.MaxLayers:
		return fmt.Errorf("%w: num_generations must be in [1, %d] but got %d",
			ErrInvalidConfig, c.MaxLayers, c.NumGenerations)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning_rate must be positive", ErrInvalidConfig)
	case c.GammaStd < 0:
		return fmt.Errorf("%w: gamma_std must not be negative", ErrInvalidConfig)
	}
	return nil
}
