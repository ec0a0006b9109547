// Package measure computes outcome probabilities, samples measurement
// shots, and collapses states.
//
// Outcome labels are big-endian bit strings, qubit 0 leftmost.
package measure

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"qsim/mat"
)

// ErrZeroProbability reports a collapse onto an outcome of probability
// zero, which leaves no state to renormalize.
var ErrZeroProbability = errors.New("outcome has zero probability")

// Probabilities returns |amplitude|^2 per basis state. The result sums to
// one up to the simulator's norm tolerance.
func Probabilities(state []complex128) []float64 {
	probs := make([]float64, len(state))
	for i, a := range state {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

// Sample draws shots independent full measurements from the state's
// distribution and returns outcome counts keyed by bit string label. The
// state is not modified.
func Sample(state []complex128, shots int, src rand.Source) (map[string]int, error) {
	n := qubits(state)
	if n < 0 {
		return nil, errors.Errorf("state length %d is not a power of two", len(state))
	}

	dist := distuv.NewCategorical(Probabilities(state), src)
	counts := make(map[string]int)
	for i := 0; i < shots; i++ {
		outcome := int(dist.Rand())
		counts[label(outcome, n)]++
	}
	return counts, nil
}

// Collapse measures the given qubits, chooses an outcome according to its
// marginal probability, and returns the outcome bits together with the
// projected, renormalized post-measurement state. The input state is not
// modified.
func Collapse(state []complex128, measured []int, src rand.Source) (string, []complex128, error) {
	n := qubits(state)
	if n < 0 {
		return "", nil, errors.Errorf("state length %d is not a power of two", len(state))
	}
	for i, q := range measured {
		if q < 0 || q >= n {
			return "", nil, errors.Errorf("qubit %d not in [0, %d)", q, n)
		}
		for _, p := range measured[:i] {
			if p == q {
				return "", nil, errors.Errorf("duplicate qubit %d", q)
			}
		}
	}

	// Marginal distribution over the 2^k outcomes of the measured qubits.
	k := len(measured)
	marginal := make([]float64, 1<<k)
	for i, a := range state {
		marginal[outcomeOf(i, measured, n)] += real(a)*real(a) + imag(a)*imag(a)
	}

	dist := distuv.NewCategorical(marginal, src)
	outcome := int(dist.Rand())
	if marginal[outcome] == 0 {
		return "", nil, errors.Wrapf(ErrZeroProbability, "outcome %s", label(outcome, k))
	}

	// Project and renormalize.
	collapsed := make([]complex128, len(state))
	inv := complex(1/math.Sqrt(marginal[outcome]), 0)
	for i, a := range state {
		if outcomeOf(i, measured, n) == outcome {
			collapsed[i] = a * inv
		}
	}
	return label(outcome, k), collapsed, nil
}

// ExpectationValue is <state| obs |state> for a Hermitian observable. The
// imaginary part is discarded; for a Hermitian obs it is numerical noise.
func ExpectationValue(state []complex128, obs *mat.COO) (float64, error) {
	if obs.Rows() != len(state) || obs.Cols() != len(state) {
		return 0, errors.Errorf("%dx%d observable, expected %dx%d", obs.Rows(), obs.Cols(), len(state), len(state))
	}
	y := obs.MulVec(state)
	var ev complex128
	for i, a := range state {
		ev += cmplx.Conj(a) * y[i]
	}
	return real(ev), nil
}

// outcomeOf packs the measured qubits' bits of basis index i, in measured
// order, into a small outcome index.
func outcomeOf(i int, measured []int, n int) int {
	out := 0
	for _, q := range measured {
		out = out<<1 | (i>>(n-1-q))&1
	}
	return out
}

func label(index, n int) string {
	return fmt.Sprintf("%0*b", n, index)
}

// qubits returns n for a length 2^n state, or -1 otherwise.
func qubits(state []complex128) int {
	if len(state) < 2 {
		return -1
	}
	n := 0
	for d := len(state); d > 1; d >>= 1 {
		if d&1 == 1 {
			return -1
		}
		n++
	}
	return n
}
