// Package solver implements the CGNR/CGNE normal-equations solvers that
// reconstruct an image f from a measured signal g and a forward-model
// matrix H, per original_source/server/src/reconstruction.rs.
package solver

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
	"github.com/TKach1/image-reconstruction-go/internal/modelstore"
)

const (
	maxIterations        = 1000
	convergenceThreshold = 1e-4
	degenerateOmegaEps   = 1e-20
	degenerateZetaEps    = 1e-20
	degeneratePiEpsCGNE  = 1e-12
)

// Solve runs the requested algorithm against H and g, returning a populated
// ReconstructionResult. Preconditions (len(g) == S, dims(H) == (S,N)) are
// the caller's responsibility; modelstore.Store.Get already enforces them.
func Solve(algorithm domain.Algorithm, h *modelstore.Matrix, g []float64, userID uuid.UUID) (domain.ReconstructionResult, error) {
	start := time.Now()

	gamma := preconditioned(g)

	var f []float64
	var iterations int
	switch algorithm {
	case domain.AlgorithmCGNR:
		f, iterations = cgnr(h.Data, h.S, h.N, gamma)
	case domain.AlgorithmCGNE:
		f, iterations = cgne(h.Data, h.S, h.N, gamma)
	default:
		return domain.ReconstructionResult{}, domain.NewDomainError(domain.ErrUnknownAlgorithm,
			fmt.Errorf("unrecognised algorithm_id %q", algorithm))
	}

	end := time.Now()
	side := int(math.Sqrt(float64(h.N)))

	return domain.ReconstructionResult{
		UserID:               userID,
		AlgorithmID:          algorithm,
		StartTime:            start,
		EndTime:              end,
		ReconstructionTimeMs: end.Sub(start).Milliseconds(),
		ImagePixels:          domain.ImagePixels{Height: side, Width: side},
		Iterations:           iterations,
		F:                    f,
	}, nil
}

// preconditioned returns a new slice holding g with the per-sample signal
// gain applied: g[l] *= sqrt(100 + 0.05*l^2).
func preconditioned(g []float64) []float64 {
	out := make([]float64, len(g))
	for l, v := range g {
		gammaL := math.Sqrt(100.0 + 0.05*float64(l)*float64(l))
		out[l] = v * gammaL
	}
	return out
}

// cgnr implements the Conjugate Gradient on the Normal Residual variant.
func cgnr(h []float64, s, n int, g []float64) ([]float64, int) {
	f := make([]float64, n)
	r := g
	z := matTVec(h, s, n, r)
	p := append([]float64(nil), z...)
	zeta := dot(z, z)

	i := 0
	for iterationCount := 0; iterationCount < maxIterations; iterationCount++ {
		i = iterationCount

		w := matVec(h, s, n, p)
		omega := dot(w, w)
		if math.Abs(omega) < degenerateOmegaEps {
			break
		}
		alpha := zeta / omega

		f = axpy(f, alpha, p)
		r = axpy(r, -alpha, w)

		zNext := matTVec(h, s, n, r)
		zetaNext := dot(zNext, zNext)
		if zetaNext < convergenceThreshold {
			zeta = zetaNext
			break
		}
		if math.Abs(zeta) < degenerateZetaEps {
			break
		}
		beta := zetaNext / zeta
		p = axpy(zNext, beta, p)
		zeta = zetaNext
	}
	return f, i + 1
}

// cgne implements the Conjugate Gradient on the Normal Error variant.
func cgne(h []float64, s, n int, g []float64) ([]float64, int) {
	f := make([]float64, n)
	r := g
	p := matTVec(h, s, n, r)
	rho := dot(r, r)

	i := 0
	for iterationCount := 0; iterationCount < maxIterations; iterationCount++ {
		i = iterationCount

		pi := dot(p, p)
		if math.Abs(pi) < degeneratePiEpsCGNE {
			break
		}
		alpha := rho / pi

		f = axpy(f, alpha, p)
		hp := matVec(h, s, n, p)
		r = axpy(r, -alpha, hp)

		rhoNext := dot(r, r)
		if rhoNext < convergenceThreshold {
			break
		}
		beta := rhoNext / rho
		pNext := matTVec(h, s, n, r)
		p = axpy(pNext, beta, p)
		rho = rhoNext
	}
	return f, i + 1
}
