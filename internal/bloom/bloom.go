// Package bloom implements the deterministic Bloom-filter encoder that
// maps a token list to a deduplicated set of integer indices in
// [offset, offset+size). This is the SHA-256 variant spec.md §9 picks as
// authoritative over the SHA-1 "size-1" variant found elsewhere in the
// original source.
package bloom

import (
	"crypto/sha256"
	"fmt"
	"math/big"
)

// Encoder is a deterministic map from a token list to a Bloom index set.
// Two Encoders with identical parameters produce identical index sets
// for identical tokens — that determinism is what lets two parties
// independently encode their data into a comparable space.
type Encoder struct {
	Size      int
	NumHashes int
	Offset    int
	Salt      []byte
}

// New builds an Encoder. size must be positive and numHashes must be at
// least 1.
func New(size, numHashes, offset int, salt []byte) (*Encoder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("bloom: size must be positive, got %d", size)
	}
	if numHashes < 1 {
		return nil, fmt.Errorf("bloom: num_hashes must be at least 1, got %d", numHashes)
	}
	if offset < 0 {
		return nil, fmt.Errorf("bloom: offset must be non-negative, got %d", offset)
	}
	return &Encoder{Size: size, NumHashes: numHashes, Offset: offset, Salt: salt}, nil
}

// Encode hashes each token in feature num_hashes times under the salt,
// and returns the deduplicated set of resulting indices, each in
// [offset, offset+size). Order is insertion order of first occurrence;
// callers needing a canonical order should sort.
func (e *Encoder) Encode(feature []string) []int {
	idx, _ := e.EncodeWithStats(feature)
	return idx
}

// EncodeWithStats is Encode plus the collision fraction diagnostic: the
// proportion of the num_hashes*len(feature) raw hash outputs that
// collided with an index already seen. It is never part of the
// matching math, only a diagnostic.
func (e *Encoder) EncodeWithStats(feature []string) ([]int, float64) {
	seen := make(map[int]struct{}, len(feature)*e.NumHashes)
	ordered := make([]int, 0, len(feature)*e.NumHashes)
	raw := 0

	for _, token := range feature {
		for i := 0; i < e.NumHashes; i++ {
			idx := e.hashIndex(token, i)
			raw++
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			ordered = append(ordered, idx)
		}
	}

	if raw == 0 {
		return ordered, 0
	}
	collisionFraction := 1 - float64(len(ordered))/float64(raw)
	return ordered, collisionFraction
}

// hashIndex computes concat(token, i, salt) -> SHA-256 -> little-endian
// uint -> mod size + offset, per spec.md §4.2.
func (e *Encoder) hashIndex(token string, i int) int {
	h := sha256.New()
	h.Write([]byte(token))
	h.Write([]byte(fmt.Sprintf("%d", i)))
	h.Write(e.Salt)
	digest := h.Sum(nil)

	// Interpret the digest as a little-endian unsigned integer, per
	// spec.md §4.2 step 3.
	reversed := make([]byte, len(digest))
	for i, b := range digest {
		reversed[len(digest)-1-i] = b
	}
	n := new(big.Int).SetBytes(reversed)
	n.Mod(n, big.NewInt(int64(e.Size)))

	return int(n.Int64()) + e.Offset
}
