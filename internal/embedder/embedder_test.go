package embedder

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/pprl-toolkit/pprl-go/internal/features"
	"github.com/pprl-toolkit/pprl-go/internal/pprlerr"
	"github.com/pprl-toolkit/pprl-go/internal/table"
)

func newTestEmbedder(t *testing.T) *Embedder {
	t.Helper()
	e, err := New(Options{Size: 256, NumHashes: 4, Offset: 0, Salt: []byte("test-salt")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func nameTable(t *testing.T, names []string) table.Table {
	t.Helper()
	fr, err := table.NewFrameFromColumns(map[string][]any{
		"name": anySlice(names),
	})
	if err != nil {
		t.Fatalf("NewFrameFromColumns: %v", err)
	}
	return fr
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func TestEmbedIsDeterministic(t *testing.T) {
	e := newTestEmbedder(t)
	tbl := nameTable(t, []string{"Dave Johnson", "Maria Lopez"})
	colspec := map[string]features.ColumnKind{"name": features.KindName}

	et1, err := e.Embed(tbl, colspec, false)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	et2, err := e.Embed(tbl, colspec, false)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i := range et1.Indices {
		if len(et1.Indices[i]) != len(et2.Indices[i]) {
			t.Fatalf("row %d: non-deterministic embedding lengths", i)
		}
	}
}

func TestEmbedRejectsMissingColumn(t *testing.T) {
	e := newTestEmbedder(t)
	tbl := nameTable(t, []string{"Dave Johnson"})
	colspec := map[string]features.ColumnKind{"missing_col": features.KindName}

	if _, err := e.Embed(tbl, colspec, false); err == nil {
		t.Fatal("expected error for missing column")
	}
}

func TestUpdateNormsDetectsChecksumDrift(t *testing.T) {
	e := newTestEmbedder(t)
	tbl := nameTable(t, []string{"Dave Johnson"})
	colspec := map[string]features.ColumnKind{"name": features.KindName}

	et, err := e.Embed(tbl, colspec, false)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	// Force the embedder's checksum to drift out from under the table by
	// training it (Train recomputes A, and therefore the checksum).
	other, _ := New(Options{Size: 256, NumHashes: 4, Offset: 0, Salt: []byte("test-salt")})
	matchT1, _ := other.Embed(tbl, colspec, true)
	matchT2, _ := other.Embed(tbl, colspec, true)
	if err := other.Train(matchT1, matchT2, DefaultTrainOptions()); err != nil {
		t.Fatalf("Train: %v", err)
	}

	et.Embedder = other // simulate a stale table pointed at a retrained embedder
	if err := et.UpdateNorms(); !errors.Is(err, pprlerr.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestTrainProducesPositiveSemiDefiniteMatrix(t *testing.T) {
	e := newTestEmbedder(t)
	tbl := nameTable(t, []string{"Dave Johnson", "Maria Lopez", "Amit Singh"})
	colspec := map[string]features.ColumnKind{"name": features.KindName}

	et1, err := e.Embed(tbl, colspec, true)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	et2, err := e.Embed(tbl, colspec, true)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	opts := DefaultTrainOptions()
	opts.Rand = rand.New(rand.NewSource(42))
	if err := e.Train(et1, et2, opts); err != nil {
		t.Fatalf("Train: %v", err)
	}

	dim := e.dim()
	for i := 0; i < dim; i++ {
		if v := e.A().At(i, i); v < 0 {
			t.Fatalf("diagonal entry %d is negative after PSD projection: %v", i, v)
		}
	}
}

func TestCompareSelfSimilarityIsMaximalOnDiagonal(t *testing.T) {
	e := newTestEmbedder(t)
	tbl := nameTable(t, []string{"Dave Johnson", "Maria Lopez"})
	colspec := map[string]features.ColumnKind{"name": features.KindName}

	et, err := e.Embed(tbl, colspec, true)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	s, err := e.Compare(et, et, false)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	n, m := s.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if s.At(i, j) > s.At(i, i)+1e-9 {
				t.Fatalf("row %d: off-diagonal score %v exceeds self-score %v", i, s.At(i, j), s.At(i, i))
			}
		}
	}
}

func TestUpdateThresholdsExcludesSelf(t *testing.T) {
	e := newTestEmbedder(t)
	tbl := nameTable(t, []string{"Dave Johnson", "Dave Johnson", "Maria Lopez"})
	colspec := map[string]features.ColumnKind{"name": features.KindName}

	et, err := e.Embed(tbl, colspec, true)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if err := et.UpdateThresholds(); err != nil {
		t.Fatalf("UpdateThresholds: %v", err)
	}
	// Row 0 and row 1 are identical inputs, so row 0's threshold (its best
	// match to a *different* row) should be close to a perfect score.
	if et.Thresholds[0] < 0.99 {
		t.Fatalf("expected near-1.0 threshold for duplicate row, got %v", et.Thresholds[0])
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e := newTestEmbedder(t)
	tbl := nameTable(t, []string{"Dave Johnson", "Maria Lopez"})
	colspec := map[string]features.ColumnKind{"name": features.KindName}

	et1, _ := e.Embed(tbl, colspec, true)
	et2, _ := e.Embed(tbl, colspec, true)
	if err := e.Train(et1, et2, DefaultTrainOptions()); err != nil {
		t.Fatalf("Train: %v", err)
	}

	var buf bytes.Buffer
	if err := e.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(&buf, features.DefaultRegistry(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Checksum() != e.Checksum() {
		t.Fatalf("checksum mismatch after round trip: %s vs %s", loaded.Checksum(), e.Checksum())
	}
}
