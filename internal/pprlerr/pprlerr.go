// Package pprlerr defines the sentinel error values shared across the
// linkage core. Every package wraps one of these with fmt.Errorf and
// "%w" so callers can still use errors.Is against a stable value.
package pprlerr

import "errors"

var (
	// ErrChecksumMismatch means an embedded table's stored checksum and
	// its Embedder's current checksum disagree. Always fatal. The
	// serialised Embedder format carries no checksum, so loading one
	// never returns this error; Load recomputes the checksum instead.
	ErrChecksumMismatch = errors.New("pprl: embedder checksum mismatch")

	// ErrMissingThresholds means a comparison or match was requested with
	// thresholds required, but the embedded table (or similarity matrix)
	// doesn't have any. Recoverable by calling UpdateThresholds first or
	// explicitly opting out.
	ErrMissingThresholds = errors.New("pprl: thresholds required but not present")

	// ErrInvalidParameters covers caller bugs: out-of-range learning
	// rates, negative eps, mismatched table lengths, many-to-one matches
	// passed to private indexing, an undersized size_assumed, and so on.
	ErrInvalidParameters = errors.New("pprl: invalid parameters")

	// ErrLoadError means a serialised Embedder was malformed on load.
	ErrLoadError = errors.New("pprl: failed to load embedder")
)
