package embedder

import "gonum.org/v1/gonum/mat"

// nearestPSD projects a (possibly asymmetric, possibly indefinite)
// square matrix onto the nearest positive semi-definite matrix: it
// symmetrises, eigendecomposes, raises every eigenvalue below eps to eps, and
// reconstructs. eps > 0 yields a strictly positive definite result,
// which guarantees every row norm computed from it is strictly
// positive. Grounded on the classic "nearest correlation matrix"
// eigenvalue-clamping technique.
func nearestPSD(raw *mat.Dense, eps float64) *mat.SymDense {
	r, c := raw.Dims()
	if r != c {
		panic("embedder: nearestPSD requires a square matrix")
	}

	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, (raw.At(i, j)+raw.At(j, i))/2)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		// Eigendecomposition failure on a real symmetric matrix should
		// not happen; fall back to the symmetrised input rather than
		// panicking on untrusted frequency data.
		return sym
	}

	values := eig.Values(nil)
	for i := range values {
		if values[i] < eps {
			values[i] = eps
		}
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	diag := mat.NewDiagDense(r, values)
	var scaled mat.Dense
	scaled.Mul(&vectors, diag)
	var reconstructed mat.Dense
	reconstructed.Mul(&scaled, vectors.T())

	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			out.SetSym(i, j, (reconstructed.At(i, j)+reconstructed.At(j, i))/2)
		}
	}
	return out
}
