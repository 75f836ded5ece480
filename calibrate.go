package tista

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// NoiseLevel stores the constants derived from the
// target SNR before training starts.
type NoiseLevel struct {
	// Sigma2 is the variance of the additive noise on
	// each measurement.
	Sigma2 float64

	// Xi is alpha^2 + sigma^2, the variance of a non-zero
	// component observed through the noise.
	Xi float64
}

// Sigma returns the noise standard deviation.
func (n NoiseLevel) Sigma() float64 {
	return math.Sqrt(n.Sigma2)
}

// Calibrate estimates the average measurement energy
// E[||Ax||^2] over batches*batchSize samples and derives
// the noise variance for the given SNR (in dB):
//
//	sigma^2 = E[||Ax||^2] / (M * 10^(snr/10))
func Calibrate(model *SensingModel, sampler Sampler, batches, batchSize int,
	snr, alpha2 float64) (NoiseLevel, error) {
	if batches <= 0 || batchSize <= 0 {
		return NoiseLevel{}, errors.New("calibration needs at least one sample")
	}
	var sum float64
	for i := 0; i < batches; i++ {
		for _, x := range sampler.Sample(batchSize) {
			y := model.Measure(x)
			sum += floats.Dot(y, y)
		}
	}
	if sum == 0 {
		return NoiseLevel{}, errors.New("calibration samples carry no energy")
	}
	ave := sum / float64(batches*batchSize)
	sigma2 := ave / (float64(model.M()) * math.Pow(10, snr/10))
	return NoiseLevel{Sigma2: sigma2, Xi: alpha2 + sigma2}, nil
}
