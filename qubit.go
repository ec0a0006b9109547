package qsim

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
)

// Qubit is a single-qubit state alpha|0> + beta|1>, kept normalized.
type Qubit struct {
	Alpha complex128
	Beta  complex128
}

// NewQubit normalizes the given amplitudes. The zero state is rejected.
func NewQubit(alpha, beta complex128) (Qubit, error) {
	norm := math.Sqrt(real(alpha)*real(alpha) + imag(alpha)*imag(alpha) +
		real(beta)*real(beta) + imag(beta)*imag(beta))
	if norm == 0 {
		return Qubit{}, errors.Errorf("zero amplitudes")
	}
	inv := complex(1/norm, 0)
	return Qubit{Alpha: alpha * inv, Beta: beta * inv}, nil
}

// QubitZero is |0>.
func QubitZero() Qubit { return Qubit{Alpha: 1} }

// QubitOne is |1>.
func QubitOne() Qubit { return Qubit{Beta: 1} }

// QubitPlus is (|0> + |1>)/sqrt(2).
func QubitPlus() Qubit {
	h := complex(1/math.Sqrt2, 0)
	return Qubit{Alpha: h, Beta: h}
}

// QubitMinus is (|0> - |1>)/sqrt(2).
func QubitMinus() Qubit {
	h := complex(1/math.Sqrt2, 0)
	return Qubit{Alpha: h, Beta: -h}
}

// QubitFromState interprets a length-2 state vector as a single qubit.
func QubitFromState(state []complex128) (Qubit, error) {
	if len(state) != 2 {
		return Qubit{}, errors.Errorf("state length %d, expected 2", len(state))
	}
	return NewQubit(state[0], state[1])
}

// Probabilities returns P(0) and P(1).
func (q Qubit) Probabilities() (p0, p1 float64) {
	p0 = real(q.Alpha)*real(q.Alpha) + imag(q.Alpha)*imag(q.Alpha)
	p1 = real(q.Beta)*real(q.Beta) + imag(q.Beta)*imag(q.Beta)
	return p0, p1
}

// Bloch returns the Bloch sphere coordinates of the qubit.
// x = 2 Re(conj(alpha) beta), y = 2 Im(conj(alpha) beta),
// z = |alpha|^2 - |beta|^2.
func (q Qubit) Bloch() (x, y, z float64) {
	cross := cmplx.Conj(q.Alpha) * q.Beta
	p0, p1 := q.Probabilities()
	return 2 * real(cross), 2 * imag(cross), p0 - p1
}
