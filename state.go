package qsim

import (
	"fmt"
	"math"
	"math/cmplx"
)

// NewState returns the 2^n amplitude vector of |0...0>.
func NewState(n int) []complex128 {
	state := make([]complex128, 1<<n)
	state[0] = 1
	return state
}

// Norm is the Euclidean norm of a state.
func Norm(state []complex128) float64 {
	var sum float64
	for _, a := range state {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

// Label is the big-endian bit string of a basis-state index, qubit 0
// leftmost.
func Label(index, n int) string {
	return fmt.Sprintf("%0*b", n, index)
}

// Fidelity is |<x|y>|^2.
func Fidelity(x, y []complex128) float64 {
	var ip complex128
	for i := range x {
		ip += cmplx.Conj(x[i]) * y[i]
	}
	return real(ip)*real(ip) + imag(ip)*imag(ip)
}

func denseMulVec(a [][]complex128, x []complex128) []complex128 {
	y := make([]complex128, len(a))
	for i, row := range a {
		var sum complex128
		for j, v := range row {
			sum += v * x[j]
		}
		y[i] = sum
	}
	return y
}
