package mps

import (
	"math"
	"math/cmplx"
	"slices"
)

// svd computes the singular value decomposition a = u @ diag(s) @ vh using
// one-sided Jacobi rotations. Singular values are returned in descending
// order. Columns of u belonging to numerically zero singular values are
// noise, not an orthonormal basis of the null space; callers discard them
// via rank. The matrices involved are small, at most
// 2*maxBond x 2*maxBond, so Jacobi's robustness matters more than speed.
func svd(a [][]complex128) (u [][]complex128, s []float64, vh [][]complex128) {
	m, n := len(a), len(a[0])

	// Work on a copy of a, accumulating rotations in v.
	w := make([][]complex128, m)
	for i := range w {
		w[i] = append([]complex128(nil), a[i]...)
	}
	v := make([][]complex128, n)
	for i := range v {
		v[i] = make([]complex128, n)
		v[i][i] = 1
	}

	const maxSweeps = 60
	const eps = 1e-14
	for sweep := 0; sweep < maxSweeps; sweep++ {
		converged := true
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				var alpha, beta float64
				var gamma complex128
				for i := 0; i < m; i++ {
					wp, wq := w[i][p], w[i][q]
					alpha += real(wp)*real(wp) + imag(wp)*imag(wp)
					beta += real(wq)*real(wq) + imag(wq)*imag(wq)
					gamma += cmplx.Conj(wp) * wq
				}
				gammaAbs := cmplx.Abs(gamma)
				if gammaAbs <= eps*math.Sqrt(alpha*beta) {
					continue
				}
				converged = false

				// Jacobi rotation zeroing the off-diagonal Gram entry.
				zeta := (beta - alpha) / (2 * gammaAbs)
				t := math.Copysign(1, zeta) / (math.Abs(zeta) + math.Sqrt(1+zeta*zeta))
				c := 1 / math.Sqrt(1+t*t)
				sn := c * t
				phase := gamma / complex(gammaAbs, 0)

				cc := complex(c, 0)
				snPhase := complex(sn, 0) * phase
				snPhaseConj := complex(sn, 0) * cmplx.Conj(phase)
				for i := 0; i < m; i++ {
					wp, wq := w[i][p], w[i][q]
					w[i][p] = cc*wp - snPhaseConj*wq
					w[i][q] = snPhase*wp + cc*wq
				}
				for i := 0; i < n; i++ {
					vp, vq := v[i][p], v[i][q]
					v[i][p] = cc*vp - snPhaseConj*vq
					v[i][q] = snPhase*vp + cc*vq
				}
			}
		}
		if converged {
			break
		}
	}

	// Column norms are the singular values.
	norms := make([]float64, n)
	for j := 0; j < n; j++ {
		var sum float64
		for i := 0; i < m; i++ {
			sum += real(w[i][j])*real(w[i][j]) + imag(w[i][j])*imag(w[i][j])
		}
		norms[j] = math.Sqrt(sum)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case norms[a] > norms[b]:
			return -1
		case norms[a] < norms[b]:
			return 1
		}
		return 0
	})

	u = make([][]complex128, m)
	for i := range u {
		u[i] = make([]complex128, n)
	}
	s = make([]float64, n)
	vh = make([][]complex128, n)
	for j, oj := range order {
		s[j] = norms[oj]
		vh[j] = make([]complex128, n)
		for i := 0; i < n; i++ {
			vh[j][i] = cmplx.Conj(v[i][oj])
		}
		if s[j] == 0 {
			continue
		}
		inv := complex(1/s[j], 0)
		for i := 0; i < m; i++ {
			u[i][j] = w[i][oj] * inv
		}
	}
	return u, s, vh
}
