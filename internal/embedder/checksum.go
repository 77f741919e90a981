package embedder

import (
	"crypto/md5" //nolint:gosec // content digest, not a security boundary
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/pprl-toolkit/pprl-go/internal/features"
)

// computeChecksum reproduces spec.md §4.5: an MD5 digest over the
// (column kind, feature-function identity) pairs in the registry, the
// affinity matrix A, and the Bloom parameters [size, num_hashes,
// offset]. The salt is not part of the digest: two Embedders with the
// same checksum but different salts encode identical input into
// different Bloom index sets.
func (e *Embedder) computeChecksum() string {
	h := md5.New() //nolint:gosec

	kinds := make([]string, 0, len(e.registry))
	for kind := range e.registry {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(h, "kind:%s=%s;", kind, e.registry[features.ColumnKind(kind)].Identity)
	}

	n := e.a.Symmetric()
	fmt.Fprintf(h, "dim:%d;", n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			fmt.Fprintf(h, "%.12g,", e.a.At(i, j))
		}
	}

	fmt.Fprintf(h, "params:%d:%d:%d", e.size, e.numHashes, e.offset)

	return hex.EncodeToString(h.Sum(nil))
}
