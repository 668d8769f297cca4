package solver

// Dense row-major S×N matrix/vector helpers. No third-party linear-algebra
// package is exercised anywhere in the reference pack, so these are
// hand-written rather than borrowed from an unseen dependency.

// dot computes the standard inner product of two equal-length vectors.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// matVec computes H·x for H stored row-major with s rows and n columns.
func matVec(h []float64, s, n int, x []float64) []float64 {
	out := make([]float64, s)
	for i := 0; i < s; i++ {
		row := h[i*n : (i+1)*n]
		out[i] = dot(row, x)
	}
	return out
}

// matTVec computes Hᵀ·x (x has length s, result has length n) without
// materialising the transpose.
func matTVec(h []float64, s, n int, x []float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < s; i++ {
		xi := x[i]
		if xi == 0 {
			continue
		}
		row := h[i*n : (i+1)*n]
		for j := 0; j < n; j++ {
			out[j] += row[j] * xi
		}
	}
	return out
}

// axpy computes dst = a + alpha*b, writing into a freshly allocated slice.
func axpy(a []float64, alpha float64, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + alpha*b[i]
	}
	return out
}
