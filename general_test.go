package tista

import (
	"math"
	"testing"

	"github.com/unixpickle/num-analysis/linalg"
	"gonum.org/v1/gonum/mat"
)

func vectorsClose(v1, v2 linalg.Vector, tol float64) bool {
	if len(v1) != len(v2) {
		return false
	}
	for i, x := range v1 {
		if math.Abs(x-v2[i]) > tol {
			return false
		}
	}
	return true
}

// smallModel returns the model for
//
//	A = [1 0 1]
//	    [0 1 1]
//
// whose pseudo-inverse is
//
//	W = [ 2/3 -1/3]
//	    [-1/3  2/3]
//	    [ 1/3  1/3]
func smallModel(t testing.TB) *SensingModel {
	model, err := NewSensingModelMatrix(mat.NewDense(2, 3, []float64{
		1, 0, 1,
		0, 1, 1,
	}))
	if err != nil {
		t.Fatal(err)
	}
	return model
}

// fixedSampler cycles through a list of vectors.
type fixedSampler struct {
	Vecs []linalg.Vector
	next int
}

func (f *fixedSampler) Sample(batchSize int) []linalg.Vector {
	res := make([]linalg.Vector, batchSize)
	for i := range res {
		res[i] = f.Vecs[f.next].Copy()
		f.next = (f.next + 1) % len(f.Vecs)
	}
	return res
}

func smallConfig() *Config {
	c := DefaultConfig()
	c.N = 10
	c.M = 5
	c.P = 0.2
	c.Alpha2 = 1
	c.BatchSize = 4
	c.NumBatches = 5
	c.NumGenerations = 1
	c.MaxLayers = 4
	c.SNR = 20
	return c
}

func copyGamma(n *Network) linalg.Vector {
	return n.Gamma.Vector.Copy()
}
