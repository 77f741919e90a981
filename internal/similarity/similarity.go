// Package similarity holds the comparison result (the similarity
// matrix S) and the matching logic that turns S into row/column pairs:
// threshold filtering and optimal bipartite assignment.
package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/pprl-toolkit/pprl-go/internal/pprlerr"
)

// Matrix is the N×M pairwise soft-cosine similarity matrix produced by
// comparing two embedded tables, plus the self-thresholds (if any)
// that were carried along from each side.
type Matrix struct {
	Data *mat.Dense

	// Thresholds1 and Thresholds2 are per-row/per-column self
	// thresholds, or nil if either side's table did not carry them.
	Thresholds1 []float64
	Thresholds2 []float64

	// Checksum is the embedder checksum this matrix was computed
	// under; Match re-checks nothing itself, the embedder layer does.
	Checksum string
}

// Dims returns (rows, cols).
func (m *Matrix) Dims() (int, int) { return m.Data.Dims() }

// At returns the similarity of row i (table 1) against row j (table 2).
func (m *Matrix) At(i, j int) float64 { return m.Data.At(i, j) }

// HasThresholds reports whether both sides carry self-thresholds.
func (m *Matrix) HasThresholds() bool {
	return m.Thresholds1 != nil && m.Thresholds2 != nil
}

// MatchOptions configures Match.
type MatchOptions struct {
	// AbsCutoff is the minimum similarity score a candidate pair must
	// clear, independent of any row/column thresholds.
	AbsCutoff float64
	// RelCutoff is added to each side's self-threshold before
	// filtering, raising (or lowering, if negative) the bar by a
	// constant margin. Ignored unless thresholds are in use.
	RelCutoff float64
	// Hungarian selects the optimal one-to-one assignment (Kuhn-Munkres)
	// over the full score matrix, keeping only assigned pairs that pass
	// the filters, instead of the greedy descending-score assignment.
	Hungarian bool
	// RequireThresholds fails the match if the matrix was not built
	// with self-thresholds on both sides.
	RequireThresholds bool
}

// Pair is one matched (row in table 1, row in table 2) index pair.
type Pair struct {
	Row, Col int
	Score    float64
}

// Match filters the similarity matrix down to plausible candidate
// pairs and then resolves them to a one-to-one assignment, per
// spec.md §4.7. With Hungarian=false, matching is greedy: each row is
// assigned to its highest-scoring still-available column, scanned in
// descending score order. With Hungarian=true, the optimal assignment
// over the full, unfiltered score matrix is found via Kuhn-Munkres, and
// only the assigned pairs that are also candidates are returned.
func (m *Matrix) Match(opts MatchOptions) ([]Pair, error) {
	if opts.RequireThresholds && !m.HasThresholds() {
		return nil, fmt.Errorf("%w: Match requires self-thresholds on both sides", pprlerr.ErrMissingThresholds)
	}

	n, mm := m.Dims()
	candidates := make([]Pair, 0)
	for i := 0; i < n; i++ {
		for j := 0; j < mm; j++ {
			score := m.Data.At(i, j)
			if score < opts.AbsCutoff {
				continue
			}
			if m.HasThresholds() {
				floor := maxFloat(m.Thresholds1[i], m.Thresholds2[j]) + opts.RelCutoff
				if score < floor {
					continue
				}
			}
			candidates = append(candidates, Pair{Row: i, Col: j, Score: score})
		}
	}

	if opts.Hungarian {
		return hungarianAssign(m.Data, candidates, n, mm), nil
	}
	return greedyAssign(candidates), nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// greedyAssign sorts candidates by descending score and greedily takes
// each one whose row and column are still unclaimed.
func greedyAssign(candidates []Pair) []Pair {
	sorted := make([]Pair, len(candidates))
	copy(sorted, candidates)
	insertionSortByScoreDesc(sorted)

	usedRows := make(map[int]bool, len(sorted))
	usedCols := make(map[int]bool, len(sorted))
	out := make([]Pair, 0, len(sorted))
	for _, c := range sorted {
		if usedRows[c.Row] || usedCols[c.Col] {
			continue
		}
		usedRows[c.Row] = true
		usedCols[c.Col] = true
		out = append(out, c)
	}
	return out
}

func insertionSortByScoreDesc(pairs []Pair) {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].Score > pairs[j-1].Score; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}
