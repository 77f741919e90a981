package matching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pprl-toolkit/pprl-go/internal/embedder"
	"github.com/pprl-toolkit/pprl-go/internal/features"
	"github.com/pprl-toolkit/pprl-go/internal/similarity"
	"github.com/pprl-toolkit/pprl-go/internal/table"
)

func twoRowTables(t *testing.T) (table.Table, table.Table) {
	t.Helper()
	f1, err := table.NewFrameFromColumns(map[string][]any{
		"name":    {"Dave Johnson", "Maria Lopez"},
		"true_id": {"a", "b"},
	})
	if err != nil {
		t.Fatalf("NewFrameFromColumns: %v", err)
	}
	f2, err := table.NewFrameFromColumns(map[string][]any{
		"name":    {"Dave Johnson", "Maria Lopez"},
		"true_id": {"a", "b"},
	})
	if err != nil {
		t.Fatalf("NewFrameFromColumns: %v", err)
	}
	return f1, f2
}

func TestAddPrivateIndexAssignsSharedValuesToMatches(t *testing.T) {
	t1, t2 := twoRowTables(t)
	match := []similarity.Pair{{Row: 0, Col: 0, Score: 1}, {Row: 1, Col: 1, Score: 1}}

	out1, out2, err := AddPrivateIndex(t1, t2, match, 10_000, "")
	require.NoError(t, err)

	c1, _ := out1.Column(DefaultPrivateIndexColumn)
	c2, _ := out2.Column(DefaultPrivateIndexColumn)
	require.Equal(t, c1[0], c2[0], "matched row 0 should share private index")
	require.Equal(t, c1[1], c2[1], "matched row 1 should share private index")
	for _, v := range append(append([]any{}, c1...), c2...) {
		n, ok := v.(int)
		if !ok || n < 10_000 || n >= 30_000 {
			t.Fatalf("private index %v out of expected window", v)
		}
	}
}

func TestAddPrivateIndexRejectsManyToOne(t *testing.T) {
	t1, t2 := twoRowTables(t)
	match := []similarity.Pair{{Row: 0, Col: 0, Score: 1}, {Row: 1, Col: 0, Score: 1}}
	_, _, err := AddPrivateIndex(t1, t2, match, 10_000, "")
	require.Error(t, err)
}

func TestAddPrivateIndexRejectsExistingColumn(t *testing.T) {
	t1, t2 := twoRowTables(t)
	_ = t1.SetColumn(DefaultPrivateIndexColumn, []any{0, 0})
	_, _, err := AddPrivateIndex(t1, t2, nil, 10_000, "")
	require.Error(t, err)
}

func TestCalculatePerformanceCountsTruePositives(t *testing.T) {
	t1, t2 := twoRowTables(t)
	match := []similarity.Pair{{Row: 0, Col: 0, Score: 1}, {Row: 1, Col: 1, Score: 1}}

	tp, fp, err := CalculatePerformance(nil, t1, t2, match, "true_id")
	require.NoError(t, err)
	require.Equal(t, 2, tp)
	require.Equal(t, 0, fp)
}

func TestPerformMatchingEndToEnd(t *testing.T) {
	e, err := embedder.New(embedder.Options{Size: 512, NumHashes: 4, Offset: 0, Salt: []byte("salt")})
	require.NoError(t, err)
	t1, t2 := twoRowTables(t)

	colspec := map[string]features.ColumnKind{"name": features.KindName}
	opts := Options{
		Colspec1:     colspec,
		Colspec2:     colspec,
		MatchOptions: similarity.MatchOptions{AbsCutoff: 0, RequireThresholds: true, Hungarian: true},
		SizeAssumed:  10_000,
		TrueIDColumn: "true_id",
	}

	res, err := PerformMatching(e, t1, t2, opts)
	require.NoError(t, err)
	require.Len(t, res.Match, 2)
	require.True(t, res.PerformanceComputed)
	require.Equal(t, 2, res.TruePositives)
}
