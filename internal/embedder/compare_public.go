package embedder

import (
	"fmt"

	"github.com/pprl-toolkit/pprl-go/internal/pprlerr"
	"github.com/pprl-toolkit/pprl-go/internal/similarity"
)

// Compare computes the pairwise soft-cosine similarity matrix between
// two embedded tables under this Embedder's current affinity matrix,
// per spec.md §4.6. Both tables must have been produced by (and never
// diverged in checksum from) this exact Embedder. If requireThresholds
// is true, both tables must already have self-thresholds (see
// EmbeddedTable.UpdateThresholds); the resulting Matrix carries them
// forward for Matrix.Match's relative-cutoff filtering.
func (e *Embedder) Compare(t1, t2 *EmbeddedTable, requireThresholds bool) (*similarity.Matrix, error) {
	if err := t1.verifyChecksum(); err != nil {
		return nil, err
	}
	if err := t2.verifyChecksum(); err != nil {
		return nil, err
	}

	if t1.Norms == nil {
		if err := t1.UpdateNorms(); err != nil {
			return nil, err
		}
	}
	if t2.Norms == nil {
		if err := t2.UpdateNorms(); err != nil {
			return nil, err
		}
	}

	var thresholds1, thresholds2 []float64
	if t1.Thresholds != nil && t2.Thresholds != nil {
		thresholds1, thresholds2 = t1.Thresholds, t2.Thresholds
	} else if requireThresholds {
		return nil, fmt.Errorf("%w: both tables must carry self-thresholds when requireThresholds is true", pprlerr.ErrMissingThresholds)
	}

	data := computeSoftCosine(e.a, t1.Indices, t1.Norms, t2.Indices, t2.Norms)

	return &similarity.Matrix{
		Data:        data,
		Thresholds1: thresholds1,
		Thresholds2: thresholds2,
		Checksum:    e.checksum,
	}, nil
}
