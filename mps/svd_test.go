package mps

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"
)

func TestSVD(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewPCG(1, 2))
	tests := []struct {
		m, n int
	}{
		{m: 2, n: 2},
		{m: 4, n: 4},
		{m: 8, n: 4},
		{m: 4, n: 8},
		{m: 16, n: 16},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%dx%d", test.m, test.n), func(t *testing.T) {
			t.Parallel()
			a := make([][]complex128, test.m)
			for i := range a {
				a[i] = make([]complex128, test.n)
				for j := range a[i] {
					a[i][j] = complex(rnd.NormFloat64(), rnd.NormFloat64())
				}
			}

			u, s, vh := svd(a)

			// Singular values descend.
			for j := 1; j < len(s); j++ {
				if s[j] > s[j-1]+1e-12 {
					t.Fatalf("%v, expected descending", s)
				}
			}

			// u columns are orthonormal for significant singular values.
			// Columns of numerically zero singular values are noise.
			for p := 0; p < test.n; p++ {
				for q := 0; q < test.n; q++ {
					if s[p] <= 1e-12*s[0] || s[q] <= 1e-12*s[0] {
						continue
					}
					var ip complex128
					for i := 0; i < test.m; i++ {
						ip += cmplx.Conj(u[i][p]) * u[i][q]
					}
					expected := complex128(0)
					if p == q {
						expected = 1
					}
					if cmplx.Abs(ip-expected) > 1e-9 {
						t.Fatalf("u columns %d, %d: %v, expected %v", p, q, ip, expected)
					}
				}
			}

			// u @ diag(s) @ vh reconstructs a.
			for i := 0; i < test.m; i++ {
				for j := 0; j < test.n; j++ {
					var sum complex128
					for k := 0; k < test.n; k++ {
						sum += u[i][k] * complex(s[k], 0) * vh[k][j]
					}
					if cmplx.Abs(sum-a[i][j]) > 1e-9 {
						t.Fatalf("(%d,%d): %v, expected %v", i, j, sum, a[i][j])
					}
				}
			}
		})
	}
}

func TestSVDRankDeficient(t *testing.T) {
	t.Parallel()
	// Rank 1: every row is a multiple of the first.
	a := [][]complex128{
		{1, 2i, -1},
		{2, 4i, -2},
		{-1, -2i, 1},
	}
	u, s, vh := svd(a)
	// The only singular value is the Frobenius norm, sqrt(36).
	if math.Abs(s[0]-6) > 1e-9 {
		t.Fatalf("%v, expected 6", s[0])
	}
	for _, sv := range s[1:] {
		if sv > 1e-9 {
			t.Fatalf("%v, expected rank 1", s)
		}
	}
	for i := range a {
		for j := range a[i] {
			var sum complex128
			for k := range s {
				sum += u[i][k] * complex(s[k], 0) * vh[k][j]
			}
			if cmplx.Abs(sum-a[i][j]) > 1e-9 {
				t.Fatalf("(%d,%d): %v, expected %v", i, j, sum, a[i][j])
			}
		}
	}
}
