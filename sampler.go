package tista

import (
	"math"

	"github.com/unixpickle/num-analysis/linalg"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// A Sampler produces batches of ground-truth signals.
type Sampler interface {
	Sample(batchSize int) []linalg.Vector
}

// BernoulliGaussian is a Sampler for sparse vectors whose
// components are non-zero with probability P, in which
// case they are drawn from Normal(0, Alpha2).
type BernoulliGaussian struct {
	support distuv.Bernoulli
	value   distuv.Normal
	n       int
}

// NewBernoulliGaussian creates a sampler for vectors of
// length n which draws from src.
func NewBernoulliGaussian(n int, p, alpha2 float64, src rand.Source) *BernoulliGaussian {
	return &BernoulliGaussian{
		support: distuv.Bernoulli{P: p, Src: src},
		value:   distuv.Normal{Mu: 0, Sigma: math.Sqrt(alpha2), Src: src},
		n:       n,
	}
}

// Sample generates batchSize independent vectors.
func (b *BernoulliGaussian) Sample(batchSize int) []linalg.Vector {
	res := make([]linalg.Vector, batchSize)
	for i := range res {
		vec := make(linalg.Vector, b.n)
		for j := range vec {
			vec[j] = b.value.Rand() * b.support.Rand()
		}
		res[i] = vec
	}
	return res
}
