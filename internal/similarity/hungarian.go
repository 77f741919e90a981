package similarity

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// hungarianAssign finds the assignment of rows to columns that
// maximises total score over the *entire* similarity matrix data (per
// spec.md §4.7 step 4: Kuhn-Munkres runs on the full, unmasked S), via
// the classic O(dim^3) potentials-and-augmenting-path formulation on a
// square cost matrix padded with zero-cost "no match" cells. Masking
// (the threshold/cutoff candidate filter) is applied only afterwards,
// as a post-filter on the resulting assignment: a pair the optimal
// assignment picks is kept only if it also appears in candidates,
// discarded otherwise. Solving over a matrix already zeroed outside
// candidates would change which global assignment is optimal, since A
// (and hence S) is only guaranteed PSD, not non-negative — masked-out
// cells can be negative, which zero is not a neutral stand-in for.
//
// No public, already-packaged Kuhn-Munkres implementation is reachable
// from this module's dependency set, so this is a from-scratch port of
// the standard algorithm, specialised to maximisation.
func hungarianAssign(data *mat.Dense, candidates []Pair, nRows, nCols int) []Pair {
	dim := nRows
	if nCols > dim {
		dim = nCols
	}
	if dim == 0 {
		return nil
	}

	const inf = math.MaxFloat64 / 4

	// 1-indexed, as the classic formulation requires a sentinel row/col 0.
	cost := make([][]float64, dim+1)
	for i := range cost {
		cost[i] = make([]float64, dim+1)
	}
	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			cost[i+1][j+1] = -data.At(i, j)
		}
	}
	isCandidate := make(map[[2]int]bool, len(candidates))
	for _, c := range candidates {
		isCandidate[[2]int{c.Row, c.Col}] = true
	}

	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1) // p[j]: row currently assigned to column j
	way := make([]int, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, dim+1)
		used := make([]bool, dim+1)
		for j := range minv {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0][j] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignedCol := make([]int, dim+1) // assignedCol[row] = col
	for j := 1; j <= dim; j++ {
		if p[j] != 0 {
			assignedCol[p[j]] = j
		}
	}

	out := make([]Pair, 0, nRows)
	for i := 1; i <= nRows; i++ {
		j := assignedCol[i]
		if j == 0 || j > nCols {
			continue
		}
		row, col := i-1, j-1
		if !isCandidate[[2]int{row, col}] {
			continue
		}
		out = append(out, Pair{Row: row, Col: col, Score: data.At(row, col)})
	}
	return out
}
