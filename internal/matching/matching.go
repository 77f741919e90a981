// Package matching orchestrates the end-to-end linkage run: embedding
// two tables, comparing them, resolving a one-to-one match, anonymising
// the result with a private index, and reporting match quality when a
// ground-truth identifier is available.
package matching

import (
	"crypto/rand"
	"fmt"
	mrand "math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/pprl-toolkit/pprl-go/internal/embedder"
	"github.com/pprl-toolkit/pprl-go/internal/features"
	"github.com/pprl-toolkit/pprl-go/internal/pprlerr"
	"github.com/pprl-toolkit/pprl-go/internal/similarity"
	"github.com/pprl-toolkit/pprl-go/internal/table"
)

// DefaultPrivateIndexColumn is the column name PerformMatching uses for
// the anonymised join key unless the caller overrides it.
const DefaultPrivateIndexColumn = "private_index"

// AddPrivateIndex assigns an anonymous matching index to both tables,
// per spec.md §4.8: matched row pairs share an index value, unmatched
// rows each get their own, and every value is drawn from the same
// [sizeAssumed, 3*sizeAssumed) range so a party cannot distinguish
// matched from unmatched rows by looking at the index alone.
//
// match must already be one-to-one (as produced by similarity.Match);
// AddPrivateIndex only single-checks this defensively, it does not
// resolve many-to-one matches itself.
func AddPrivateIndex(t1, t2 table.Table, match []similarity.Pair, sizeAssumed int, colname string) (table.Table, table.Table, error) {
	if colname == "" {
		colname = DefaultPrivateIndexColumn
	}
	for _, c := range t1.Columns() {
		if c == colname {
			return nil, nil, fmt.Errorf("%w: column %q already present in first table", pprlerr.ErrInvalidParameters, colname)
		}
	}
	for _, c := range t2.Columns() {
		if c == colname {
			return nil, nil, fmt.Errorf("%w: column %q already present in second table", pprlerr.ErrInvalidParameters, colname)
		}
	}

	assigned1 := make([]bool, t1.Len())
	assigned2 := make([]bool, t2.Len())
	for _, p := range match {
		if p.Row < 0 || p.Row >= t1.Len() || p.Col < 0 || p.Col >= t2.Len() {
			return nil, nil, fmt.Errorf("%w: match pair (%d, %d) out of range", pprlerr.ErrInvalidParameters, p.Row, p.Col)
		}
		if assigned1[p.Row] || assigned2[p.Col] {
			return nil, nil, fmt.Errorf("%w: add_private_index cannot handle repeated match indices (many-to-one matches)", pprlerr.ErrInvalidParameters)
		}
		assigned1[p.Row] = true
		assigned2[p.Col] = true
	}

	innerJoinSize := len(match)
	outerJoinSize := t1.Len() + t2.Len() - innerJoinSize

	privateIndex, err := generatePrivateIndex(outerJoinSize, sizeAssumed)
	if err != nil {
		return nil, nil, err
	}

	out1Vals := make([]any, t1.Len())
	out2Vals := make([]any, t2.Len())

	for k, p := range match {
		out1Vals[p.Row] = privateIndex[k]
		out2Vals[p.Col] = privateIndex[k]
	}

	idx := innerJoinSize
	for row := 0; row < t1.Len(); row++ {
		if !assigned1[row] {
			out1Vals[row] = privateIndex[idx]
			idx++
		}
	}
	for row := 0; row < t2.Len(); row++ {
		if !assigned2[row] {
			out2Vals[row] = privateIndex[idx]
			idx++
		}
	}

	out1 := t1.Clone()
	out2 := t2.Clone()
	if err := out1.SetColumn(colname, out1Vals); err != nil {
		return nil, nil, err
	}
	if err := out2.SetColumn(colname, out2Vals); err != nil {
		return nil, nil, err
	}

	return out1, out2, nil
}

// generatePrivateIndex draws n distinct values, without replacement,
// from [sizeAssumed, 3*sizeAssumed), in a crypto-random order — the
// permutation comes from a ChaCha8 generator keyed with 32 bytes from
// crypto/rand, so the sequence cannot be predicted by a party that only
// sees its own share of the index.
func generatePrivateIndex(n, sizeAssumed int) ([]int, error) {
	window := 2 * sizeAssumed
	if n > window {
		return nil, fmt.Errorf("%w: outer join size %d exceeds assumed index window %d; raise sizeAssumed", pprlerr.ErrInvalidParameters, n, window)
	}

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("matching: reading random seed: %w", err)
	}
	r := mrand.New(mrand.NewChaCha8(seed))

	perm := r.Perm(window)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = sizeAssumed + perm[i]
	}
	return out, nil
}

// CalculatePerformance reports true/false positive counts for a match,
// comparing the trueIDColumn value on each matched pair. It logs the
// counts and returns them so callers (tests, CLI output) can use them
// directly.
func CalculatePerformance(log *logrus.Logger, t1, t2 table.Table, match []similarity.Pair, trueIDColumn string) (truePositives, falsePositives int, err error) {
	col1, ok := t1.Column(trueIDColumn)
	if !ok {
		return 0, 0, fmt.Errorf("%w: column %q not present in first table", pprlerr.ErrInvalidParameters, trueIDColumn)
	}
	col2, ok := t2.Column(trueIDColumn)
	if !ok {
		return 0, 0, fmt.Errorf("%w: column %q not present in second table", pprlerr.ErrInvalidParameters, trueIDColumn)
	}

	ids1 := table.Strings(col1)
	ids2 := table.Strings(col2)

	for _, p := range match {
		if ids1[p.Row] == ids2[p.Col] {
			truePositives++
		} else {
			falsePositives++
		}
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"true_positives":  truePositives,
			"false_positives": falsePositives,
		}).Info("match performance")
	}
	return truePositives, falsePositives, nil
}

// Options configures PerformMatching.
type Options struct {
	Colspec1, Colspec2 map[string]features.ColumnKind
	MatchOptions       similarity.MatchOptions
	SizeAssumed        int
	PrivateIndexColumn string
	// TrueIDColumn, if non-empty and present in both tables, makes
	// PerformMatching log match performance via CalculatePerformance.
	TrueIDColumn string
	Log          *logrus.Logger
}

// Result is everything PerformMatching produces.
type Result struct {
	Output1, Output2             table.Table
	Match                        []similarity.Pair
	TruePositives, FalsePositives int
	PerformanceComputed           bool
}

// PerformMatching runs the full pipeline described in spec.md §4.7-4.8:
// embed both tables under e, compare them, resolve the comparison to a
// one-to-one match, anonymise the result with a private index, and
// optionally report match performance against a ground-truth column.
func PerformMatching(e *embedder.Embedder, t1, t2 table.Table, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	log.Info("embedding tables with norms and thresholds")
	et1, err := e.Embed(t1, opts.Colspec1, true)
	if err != nil {
		return nil, fmt.Errorf("matching: embedding first table: %w", err)
	}
	if err := et1.UpdateThresholds(); err != nil {
		return nil, fmt.Errorf("matching: thresholds for first table: %w", err)
	}
	et2, err := e.Embed(t2, opts.Colspec2, true)
	if err != nil {
		return nil, fmt.Errorf("matching: embedding second table: %w", err)
	}
	if err := et2.UpdateThresholds(); err != nil {
		return nil, fmt.Errorf("matching: thresholds for second table: %w", err)
	}

	log.Info("computing similarity matrix")
	sim, err := e.Compare(et1, et2, true)
	if err != nil {
		return nil, fmt.Errorf("matching: comparing tables: %w", err)
	}

	match, err := sim.Match(opts.MatchOptions)
	if err != nil {
		return nil, fmt.Errorf("matching: resolving matches: %w", err)
	}
	log.WithField("matches", len(match)).Info("match resolved")

	sizeAssumed := opts.SizeAssumed
	if sizeAssumed <= 0 {
		sizeAssumed = 10_000
	}
	out1, out2, err := AddPrivateIndex(t1, t2, match, sizeAssumed, opts.PrivateIndexColumn)
	if err != nil {
		return nil, fmt.Errorf("matching: assigning private index: %w", err)
	}

	res := &Result{Output1: out1, Output2: out2, Match: match}

	if opts.TrueIDColumn != "" {
		if _, ok1 := t1.Column(opts.TrueIDColumn); ok1 {
			if _, ok2 := t2.Column(opts.TrueIDColumn); ok2 {
				tp, fp, err := CalculatePerformance(log, t1, t2, match, opts.TrueIDColumn)
				if err != nil {
					return nil, err
				}
				res.TruePositives, res.FalsePositives, res.PerformanceComputed = tp, fp, true
			}
		}
	}

	return res, nil
}
