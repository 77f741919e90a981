// Package embedder implements the Embedder (E) and Embedded table (T)
// pieces of the linkage core: construction, feature-to-Bloom embedding,
// norms, self-thresholds, training, checksums, and serialisation.
package embedder

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/pprl-toolkit/pprl-go/internal/bloom"
	"github.com/pprl-toolkit/pprl-go/internal/features"
	"github.com/pprl-toolkit/pprl-go/internal/pprlerr"
	"github.com/pprl-toolkit/pprl-go/internal/table"
)

// Embedder owns the Bloom-encoding parameters, the feature-factory
// registry, and the affinity matrix A (together with its two
// constituent frequency matrices). It produces EmbeddedTables from raw
// tables and is the only object that crosses party boundaries.
type Embedder struct {
	size      int
	numHashes int
	offset    int
	salt      []byte

	registry features.Registry
	ffArgs   map[features.ColumnKind]any

	a        *mat.SymDense
	fMatch   *mat.SymDense
	fUnmatch *mat.SymDense
	checksum string

	log *logrus.Logger
}

// Options configures New.
type Options struct {
	Size      int
	NumHashes int
	Offset    int
	Salt      []byte
	// Registry defaults to features.DefaultRegistry() when nil.
	Registry features.Registry
	// FFArgs overrides the default options of individual feature
	// functions, keyed by column kind.
	FFArgs map[features.ColumnKind]any
	// Logger defaults to logrus.StandardLogger() when nil.
	Logger *logrus.Logger
}

// New constructs an untrained Embedder: A, FMatch, and FUnmatch all
// start as the identity matrix of dimension size+offset, so comparing
// with an untrained Embedder is equivalent to ordinary (non-soft)
// cosine similarity on Bloom filters.
func New(opts Options) (*Embedder, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", pprlerr.ErrInvalidParameters, opts.Size)
	}
	if opts.NumHashes < 1 {
		return nil, fmt.Errorf("%w: num_hashes must be at least 1, got %d", pprlerr.ErrInvalidParameters, opts.NumHashes)
	}
	if opts.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must be non-negative, got %d", pprlerr.ErrInvalidParameters, opts.Offset)
	}

	registry := opts.Registry
	if registry == nil {
		registry = features.DefaultRegistry()
	}
	ffArgs := opts.FFArgs
	if ffArgs == nil {
		ffArgs = map[features.ColumnKind]any{}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	e := &Embedder{
		size:      opts.Size,
		numHashes: opts.NumHashes,
		offset:    opts.Offset,
		salt:      append([]byte(nil), opts.Salt...),
		registry:  registry,
		ffArgs:    ffArgs,
		log:       log,
	}
	e.a = identityMatrix(e.dim())
	e.fMatch = identityMatrix(e.dim())
	e.fUnmatch = identityMatrix(e.dim())
	e.checksum = e.computeChecksum()

	return e, nil
}

func identityMatrix(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}

func (e *Embedder) dim() int { return e.size + e.offset }

// Size returns the Bloom vector length.
func (e *Embedder) Size() int { return e.size }

// NumHashes returns the number of hash replications per token.
func (e *Embedder) NumHashes() int { return e.numHashes }

// Offset returns the low-index reservation used for masking.
func (e *Embedder) Offset() int { return e.offset }

// Checksum returns the current stable digest of this Embedder.
func (e *Embedder) Checksum() string { return e.checksum }

// A returns the current affinity matrix. Callers must not mutate it;
// only Train changes A, and only by replacing the pointer.
func (e *Embedder) A() *mat.SymDense { return e.a }

// EmbeddedTable is a table augmented with a per-row Bloom index set, its
// norm under the owning Embedder's affinity matrix, and optionally a
// matching self-threshold. It is produced by Embedder.Embed and
// verifies its Embedder's checksum before every operation, per spec.md
// §4.5.
type EmbeddedTable struct {
	Table    table.Table
	Embedder *Embedder
	Checksum string

	Indices    [][]int
	Norms      []float64
	Thresholds []float64
}

// Len returns the number of rows.
func (t *EmbeddedTable) Len() int { return len(t.Indices) }

func (t *EmbeddedTable) verifyChecksum() error {
	if t.Checksum != t.Embedder.Checksum() {
		return fmt.Errorf("%w: embedded table was created with checksum %s, embedder now has %s",
			pprlerr.ErrChecksumMismatch, t.Checksum, t.Embedder.Checksum())
	}
	return nil
}

// Embed encodes the columns named in colspec into Bloom index sets,
// producing an EmbeddedTable. colspec maps a column name in t to the
// semantic kind the feature factory should use for it. Columns not
// mentioned in colspec pass through unchanged (the caller keeps the
// original table; EmbeddedTable.Table is the same table reference).
func (e *Embedder) Embed(t table.Table, colspec map[string]features.ColumnKind, updateNorms bool) (*EmbeddedTable, error) {
	n := t.Len()
	perRow := make([][]string, n)

	for col, kind := range colspec {
		entry, ok := e.registry[kind]
		if !ok {
			return nil, fmt.Errorf("%w: no feature function registered for kind %q", pprlerr.ErrInvalidParameters, kind)
		}
		values, ok := t.Column(col)
		if !ok {
			return nil, fmt.Errorf("%w: column %q not present in table", pprlerr.ErrInvalidParameters, col)
		}
		tokens, err := entry.Fn(values, col, e.ffArgs[kind])
		if err != nil {
			return nil, fmt.Errorf("features: column %q (kind %s): %w", col, kind, err)
		}
		if len(tokens) != n {
			return nil, fmt.Errorf("features: column %q produced %d rows, table has %d", col, len(tokens), n)
		}
		for row, rowTokens := range tokens {
			perRow[row] = append(perRow[row], rowTokens...)
		}
	}

	enc, err := bloom.New(e.size, e.numHashes, e.offset, e.salt)
	if err != nil {
		return nil, err
	}

	indices := make([][]int, n)
	for row, tokens := range perRow {
		dedup := dedupeNonEmpty(tokens)
		indices[row] = enc.Encode(dedup)
	}

	et := &EmbeddedTable{
		Table:    t,
		Embedder: e,
		Checksum: e.checksum,
		Indices:  indices,
	}
	if updateNorms {
		if err := et.UpdateNorms(); err != nil {
			return nil, err
		}
	}

	e.log.WithFields(logrus.Fields{"rows": n, "columns": len(colspec)}).Debug("embedded table")
	return et, nil
}

// dedupeNonEmpty deduplicates tokens, dropping the empty-string
// sentinel that sex/misc feature functions emit for missing data: a
// missing field should contribute no Bloom index, not a spurious index
// shared by every row with missing data for that field.
func dedupeNonEmpty(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// UpdateNorms populates Norms for every row: the norm of row i under A
// is sqrt(sum_{a,b in indices[i]} A[a,b]). PSD of A guarantees the
// radicand is non-negative. Idempotent, and required before any
// similarity computation.
func (t *EmbeddedTable) UpdateNorms() error {
	if err := t.verifyChecksum(); err != nil {
		return err
	}
	a := t.Embedder.A()
	norms := make([]float64, len(t.Indices))
	for i, idx := range t.Indices {
		norms[i] = rowNorm(a, idx)
	}
	t.Norms = norms
	return nil
}

func rowNorm(a *mat.SymDense, idx []int) float64 {
	sum := 0.0
	for _, x := range idx {
		for _, y := range idx {
			sum += a.At(x, y)
		}
	}
	if sum < 0 {
		// Should not happen for a genuinely PSD A; guard against tiny
		// negative floating-point noise rather than NaN-ing out.
		sum = 0
	}
	return math.Sqrt(sum)
}
