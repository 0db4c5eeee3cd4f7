package lateral

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Layer is a single GNN message-passing layer:
//
//	H' = ReLU(H·W_self + Â·H·W_neigh + bias)
//
// where Â is the row-normalized adjacency matrix. Weights are
// initialized once with He scaling from a seeded generator and never
// updated — this is deterministic feature extraction, not a trained
// model (see package doc).
type Layer struct {
	inDim, outDim int
	wSelf         *mat.Dense
	wNeigh        *mat.Dense
	bias          []float64
}

// NewLayer builds a layer with He-scaled Gaussian weights drawn from a
// seeded generator, so embeddings are reproducible across runs given
// the same seed.
func NewLayer(inDim, outDim int, seed int64) *Layer {
	rng := rand.New(rand.NewSource(seed))
	scale := math.Sqrt(2.0 / float64(inDim))

	wSelf := mat.NewDense(inDim, outDim, nil)
	wNeigh := mat.NewDense(inDim, outDim, nil)
	for i := 0; i < inDim; i++ {
		for j := 0; j < outDim; j++ {
			wSelf.Set(i, j, rng.NormFloat64()*scale)
			wNeigh.Set(i, j, rng.NormFloat64()*scale)
		}
	}

	return &Layer{
		inDim:  inDim,
		outDim: outDim,
		wSelf:  wSelf,
		wNeigh: wNeigh,
		bias:   make([]float64, outDim),
	}
}

// normalizeRows divides every row of adj by its sum, leaving all-zero
// rows as zeros (substituting 1 for a zero divisor).
func normalizeRows(adj *mat.Dense) *mat.Dense {
	r, c := adj.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row := adj.RawRowView(i)
		var sum float64
		for _, v := range row {
			sum += v
		}
		if sum == 0 {
			sum = 1
		}
		for j := 0; j < c; j++ {
			out.Set(i, j, adj.At(i, j)/sum)
		}
	}
	return out
}

// Forward runs one message-passing pass: row-normalizes adj, computes
// H·W_self + Â·H·W_neigh + bias, and applies ReLU.
func (l *Layer) Forward(features, adj *mat.Dense) *mat.Dense {
	adjNorm := normalizeRows(adj)

	var selfTransform mat.Dense
	selfTransform.Mul(features, l.wSelf)

	var agg mat.Dense
	agg.Mul(adjNorm, features)
	var neighTransform mat.Dense
	neighTransform.Mul(&agg, l.wNeigh)

	r, c := selfTransform.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := selfTransform.At(i, j) + neighTransform.At(i, j) + l.bias[j]
			if v < 0 {
				v = 0
			}
			out.Set(i, j, v)
		}
	}
	return out
}

// DefaultHiddenDim is the hidden layer width used between the two GNN
// layers unless a caller overrides it.
const DefaultHiddenDim = 16

// DefaultSeed is the base seed for the first GNN layer; the second
// layer uses DefaultSeed+1 so the two layers draw distinct weights.
const DefaultSeed = 42
