package similarity

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func identityMatrix(data []float64, n int) *Matrix {
	return &Matrix{Data: mat.NewDense(n, n, data)}
}

func TestMatchAbsCutoffFiltersLowScores(t *testing.T) {
	m := identityMatrix([]float64{
		0.9, 0.1,
		0.2, 0.95,
	}, 2)

	pairs, err := m.Match(MatchOptions{AbsCutoff: 0.5})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestMatchRequireThresholdsFailsWithoutThem(t *testing.T) {
	m := identityMatrix([]float64{1, 0, 0, 1}, 2)
	if _, err := m.Match(MatchOptions{RequireThresholds: true}); err == nil {
		t.Fatal("expected error when thresholds required but absent")
	}
}

func TestGreedyAssignIsOneToOne(t *testing.T) {
	// Row 0 prefers col 0 (0.9) and row 1 also prefers col 0 (0.8) over
	// col 1 (0.3); greedy must not double-assign col 0.
	m := identityMatrix([]float64{
		0.9, 0.1,
		0.8, 0.3,
	}, 2)

	pairs, err := m.Match(MatchOptions{AbsCutoff: 0})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	seenRows := map[int]bool{}
	seenCols := map[int]bool{}
	for _, p := range pairs {
		if seenRows[p.Row] || seenCols[p.Col] {
			t.Fatalf("non-injective assignment: %+v", pairs)
		}
		seenRows[p.Row] = true
		seenCols[p.Col] = true
	}
}

func TestHungarianBeatsGreedyOnTotalScore(t *testing.T) {
	// Greedy picks (0,0)=0.9 then is forced into (1,1)=0.1, total 1.0.
	// The optimal assignment is (0,1)=0.85 and (1,0)=0.8, total 1.65.
	data := []float64{
		0.9, 0.85,
		0.8, 0.1,
	}
	greedy := identityMatrix(data, 2)
	hungarian := identityMatrix(data, 2)

	gPairs, err := greedy.Match(MatchOptions{AbsCutoff: 0})
	require.NoError(t, err)
	hPairs, err := hungarian.Match(MatchOptions{AbsCutoff: 0, Hungarian: true})
	require.NoError(t, err)

	require.Greater(t, totalScore(hPairs), totalScore(gPairs))
}

func totalScore(pairs []Pair) float64 {
	sum := 0.0
	for _, p := range pairs {
		sum += p.Score
	}
	return sum
}

func TestHungarianSolvesOverFullMatrixNotZeroedMask(t *testing.T) {
	// spec.md §4.7 step 4: Kuhn-Munkres runs on the full similarity
	// matrix, and masking is applied only as a post-filter on the
	// resulting assignment — it must NOT zero out masked cells before
	// solving. Here the off-diagonal cells are masked (below AbsCutoff)
	// and more negative than zero, so zeroing them would make the
	// off-diagonal pairing look more attractive than it truly is and
	// flip which assignment is optimal.
	//
	// True data:
	//   row0: -1 (candidate), -10 (masked)
	//   row1: -10 (masked), -1 (candidate)
	// True optimal assignment is the diagonal: -1 + -1 = -2, beating the
	// masked off-diagonal pairing's true total of -10 + -10 = -20. A
	// solver that zeroes masked cells first would instead see an
	// off-diagonal total of 0 + 0 = 0, which beats -2, and wrongly
	// picks (and then discards) the masked pairing — leaving no matches
	// at all instead of the two genuine ones.
	data := mat.NewDense(2, 2, []float64{
		-1, -10,
		-10, -1,
	})
	m := &Matrix{Data: data}

	pairs, err := m.Match(MatchOptions{AbsCutoff: -5, Hungarian: true})
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	seen := map[[2]int]float64{}
	for _, p := range pairs {
		seen[[2]int{p.Row, p.Col}] = p.Score
	}
	require.Contains(t, seen, [2]int{0, 0})
	require.Contains(t, seen, [2]int{1, 1})
	require.NotContains(t, seen, [2]int{0, 1})
	require.NotContains(t, seen, [2]int{1, 0})
}

func TestHungarianHandlesRectangularCandidates(t *testing.T) {
	// 3 rows, 2 columns: some row must go unmatched.
	data := mat.NewDense(3, 2, []float64{
		0.9, 0.1,
		0.2, 0.8,
		0.5, 0.5,
	})
	rect := &Matrix{Data: data}
	pairs, err := rect.Match(MatchOptions{AbsCutoff: 0, Hungarian: true})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(pairs) > 2 {
		t.Fatalf("expected at most 2 pairs for a 3x2 matrix, got %d", len(pairs))
	}
	seenCols := map[int]bool{}
	for _, p := range pairs {
		if seenCols[p.Col] {
			t.Fatalf("column reused: %+v", pairs)
		}
		seenCols[p.Col] = true
	}
}
