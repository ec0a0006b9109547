package optimizer

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	gmat "gonum.org/v1/gonum/mat"

	"qsim/gate"
)

// Equivalent reports whether two gate sequences on n qubits implement the
// same unitary up to a global phase. It materializes both full operators,
// so it is meant for verification on small n.
func Equivalent(a, b []gate.Gate, n int, tol float64) bool {
	ua := unitary(a, n)
	ub := unitary(b, n)
	dim := 1 << n

	// Divide out the global phase at the first significant entry.
	phase := complex128(1)
	for i := 0; i < dim*dim; i++ {
		va := ua.At(i/dim, i%dim)
		if cmplx.Abs(va) > tol {
			phase = ub.At(i/dim, i%dim) / va
			break
		}
	}
	if math.Abs(cmplx.Abs(phase)-1) > tol {
		return false
	}

	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			if cmplx.Abs(ua.At(i, j)*phase-ub.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}

// unitary multiplies the expanded gates into the full circuit operator.
func unitary(gates []gate.Gate, n int) *gmat.CDense {
	dim := 1 << n
	u := gmat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		u.Set(i, i, 1)
	}
	for _, g := range gates {
		op := gate.Expand(g, n).CDense()
		next := gmat.NewCDense(dim, dim, nil)
		cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, op.RawCMatrix(), u.RawCMatrix(), 0, next.RawCMatrix())
		u = next
	}
	return u
}
