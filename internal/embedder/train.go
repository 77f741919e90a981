package embedder

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/pprl-toolkit/pprl-go/internal/pprlerr"
)

// TrainOptions configures Train. The zero value is not usable directly;
// call DefaultTrainOptions and override fields as needed.
type TrainOptions struct {
	// Update makes training cumulative: frequency matrices accumulate
	// across calls instead of being reinitialised each time.
	Update bool
	// LearningRate dampens each call's contribution to the frequency
	// matrices. Must be in (0, 1].
	LearningRate float64
	// Eps is added inside the log ratio to avoid log(0). Must be >= 0.
	Eps float64
	// Rand drives the non-match jumbling permutation. Defaults to a
	// fixed-seed source when nil, so training is reproducible unless
	// the caller passes its own *rand.Rand for a different jumble.
	Rand *rand.Rand
}

// DefaultTrainOptions mirrors the reference defaults: cumulative
// updates, an unscaled learning rate, and eps=0.01.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Update: true, LearningRate: 1.0, Eps: 0.01}
}

// Train fits the affinity matrix A to a pair of pre-matched embedded
// tables, per spec.md §4.9: it builds a joint co-occurrence matrix for
// the true pairing and for a randomly jumbled (non-match) pairing,
// folds both into the running frequency matrices, takes the log-ratio,
// and projects the result onto the nearest positive semi-definite
// matrix. Train recomputes the checksum afterwards, so any
// EmbeddedTable created before this call becomes stale.
func (e *Embedder) Train(t1, t2 *EmbeddedTable, opts TrainOptions) error {
	if err := t1.verifyChecksum(); err != nil {
		return err
	}
	if err := t2.verifyChecksum(); err != nil {
		return err
	}
	if len(t1.Indices) != len(t2.Indices) {
		return fmt.Errorf("%w: training tables must have the same row count, got %d and %d",
			pprlerr.ErrInvalidParameters, len(t1.Indices), len(t2.Indices))
	}
	if opts.Eps < 0 {
		return fmt.Errorf("%w: eps must be non-negative, got %g", pprlerr.ErrInvalidParameters, opts.Eps)
	}
	if opts.LearningRate <= 0 || opts.LearningRate > 1 {
		return fmt.Errorf("%w: learning_rate must be in (0, 1], got %g", pprlerr.ErrInvalidParameters, opts.LearningRate)
	}

	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}

	jumbled := jumble(t2.Indices, r)

	matched := jointFreqMatrix(t1.Indices, t2.Indices, e.dim())
	unmatched := jointFreqMatrix(t1.Indices, jumbled, e.dim())

	if opts.Update {
		addScaled(e.fMatch, matched, opts.LearningRate)
		addScaled(e.fUnmatch, unmatched, opts.LearningRate)
	} else {
		e.fMatch = identityMatrix(e.dim())
		e.fUnmatch = identityMatrix(e.dim())
		addScaled(e.fMatch, matched, opts.LearningRate)
		addScaled(e.fUnmatch, unmatched, opts.LearningRate)
	}

	logRatio := logRatioMatrix(e.fMatch, e.fUnmatch, opts.Eps)
	e.a = nearestPSD(logRatio, 1e-6)
	e.checksum = e.computeChecksum()

	return nil
}

// jumble returns a copy of rows in a uniformly random permutation,
// producing the "definitely not matched" pairing used to estimate the
// unmatched co-occurrence frequencies.
func jumble(rows [][]int, r *rand.Rand) [][]int {
	perm := r.Perm(len(rows))
	out := make([][]int, len(rows))
	for i, p := range perm {
		out[i] = rows[p]
	}
	return out
}

// jointFreqMatrix counts, over every row, how often Bloom index i from
// x and index j from y co-occur, then symmetrises the result.
func jointFreqMatrix(x, y [][]int, dim int) *mat.Dense {
	s := mat.NewDense(dim, dim, nil)
	for row := range x {
		for _, i := range x[row] {
			for _, j := range y[row] {
				s.Set(i, j, s.At(i, j)+1)
			}
		}
	}
	var out mat.Dense
	out.Add(s, s.T())
	out.Scale(0.5, &out)
	return &out
}

// addScaled computes dst += scale*src in place, over a symmetric
// matrix's upper triangle.
func addScaled(dst *mat.SymDense, src *mat.Dense, scale float64) {
	n := dst.Symmetric()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, dst.At(i, j)+scale*src.At(i, j))
		}
	}
}

// logRatioMatrix computes log(matched+eps) - log(unmatched+eps)
// element-wise.
func logRatioMatrix(matched, unmatched *mat.SymDense, eps float64) *mat.Dense {
	n := matched.Symmetric()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, math.Log(matched.At(i, j)+eps)-math.Log(unmatched.At(i, j)+eps))
		}
	}
	return out
}
