package embedder

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// computeSoftCosine computes the N×M soft cosine similarity matrix
// between two row sets under affinity matrix a: row i against row j is
// (1/norm1[i]) * (sum over x in idx1[i], y in idx2[j] of a[x,y]) *
// (1/norm2[j]). This is the sparse form of diag(1/norms1) @ X1 @ A @
// X2^T @ diag(1/norms2), evaluated directly over the Bloom index sets
// rather than materialising the dense 0/1 X1, X2 matrices, per
// spec.md §4.6.
func computeSoftCosine(a *mat.SymDense, idx1 [][]int, norms1 []float64, idx2 [][]int, norms2 []float64) *mat.Dense {
	n, m := len(idx1), len(idx2)
	out := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		if norms1[i] == 0 {
			continue
		}
		for j := 0; j < m; j++ {
			if norms2[j] == 0 {
				continue
			}
			sum := 0.0
			for _, x := range idx1[i] {
				for _, y := range idx2[j] {
					sum += a.At(x, y)
				}
			}
			out.Set(i, j, sum/(norms1[i]*norms2[j]))
		}
	}
	return out
}

// UpdateThresholds computes a per-row self-threshold: the highest
// similarity row i in this table has with any *other* row in this same
// table, under the owning Embedder's current affinity matrix. This is
// used downstream as a per-row floor a candidate match must clear,
// rather than relying solely on a single global cutoff.
//
// This masks the diagonal of the self-comparison before taking the row
// maximum: every row is identical to itself under any valid affinity
// matrix, so an unmasked self-compare would make every threshold
// trivially 1.0 and useless for discriminating real matches.
func (t *EmbeddedTable) UpdateThresholds() error {
	if err := t.verifyChecksum(); err != nil {
		return err
	}
	if t.Norms == nil {
		if err := t.UpdateNorms(); err != nil {
			return err
		}
	}

	a := t.Embedder.A()
	sim := computeSoftCosine(a, t.Indices, t.Norms, t.Indices, t.Norms)

	n := len(t.Indices)
	thresholds := make([]float64, n)
	for i := 0; i < n; i++ {
		max := math.Inf(-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if v := sim.At(i, j); v > max {
				max = v
			}
		}
		if math.IsInf(max, -1) {
			max = 0
		}
		thresholds[i] = max
	}
	t.Thresholds = thresholds
	return nil
}
