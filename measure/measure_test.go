package measure

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"qsim/mat"
)

func TestProbabilities(t *testing.T) {
	t.Parallel()
	h := complex(1/math.Sqrt2, 0)
	bell := []complex128{h, 0, 0, h}
	probs := Probabilities(bell)
	expected := []float64{0.5, 0, 0, 0.5}
	for i, p := range probs {
		if math.Abs(p-expected[i]) > 1e-12 {
			t.Fatalf("%v, expected %v", probs, expected)
		}
	}
}

func TestSampleBell(t *testing.T) {
	t.Parallel()
	h := complex(1/math.Sqrt2, 0)
	bell := []complex128{h, 0, 0, h}

	const shots = 1000
	counts, err := Sample(bell, shots, rand.NewPCG(1, 2))
	if err != nil {
		t.Fatalf("%+v", err)
	}

	total := 0
	for outcome, c := range counts {
		if outcome != "00" && outcome != "11" {
			t.Fatalf("impossible outcome %q with count %d", outcome, c)
		}
		// Each branch has probability 1/2; a count outside [400, 600]
		// over 1000 shots is far beyond statistical fluctuation.
		if c < 400 || c > 600 {
			t.Fatalf("outcome %q count %d, expected around %d", outcome, c, shots/2)
		}
		total += c
	}
	if total != shots {
		t.Fatalf("%d, expected %d", total, shots)
	}
}

func TestSampleDeterministic(t *testing.T) {
	t.Parallel()
	state := []complex128{0, 1, 0, 0}
	counts, err := Sample(state, 50, rand.NewPCG(7, 7))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(counts) != 1 || counts["01"] != 50 {
		t.Fatalf("%v, expected all shots on 01", counts)
	}
}

func TestCollapse(t *testing.T) {
	t.Parallel()
	h := complex(1/math.Sqrt2, 0)
	bell := []complex128{h, 0, 0, h}

	outcome, collapsed, err := Collapse(bell, []int{0}, rand.NewPCG(3, 5))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// Measuring one half of a Bell pair collapses the other half too.
	var expected []complex128
	switch outcome {
	case "0":
		expected = []complex128{1, 0, 0, 0}
	case "1":
		expected = []complex128{0, 0, 0, 1}
	default:
		t.Fatalf("outcome %q, expected 0 or 1", outcome)
	}
	for i, a := range collapsed {
		if cAbs(a-expected[i]) > 1e-12 {
			t.Fatalf("%v, expected %v", collapsed, expected)
		}
	}
	// The input state is untouched.
	if cAbs(bell[0]-h) > 1e-12 || cAbs(bell[3]-h) > 1e-12 {
		t.Fatalf("%v, expected unchanged Bell state", bell)
	}
}

func TestCollapseSubset(t *testing.T) {
	t.Parallel()
	// (|00> + |01>)/sqrt(2): qubit 0 is surely 0, qubit 1 is uniform.
	h := complex(1/math.Sqrt2, 0)
	state := []complex128{h, h, 0, 0}

	outcome, collapsed, err := Collapse(state, []int{0}, rand.NewPCG(11, 13))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if outcome != "0" {
		t.Fatalf("%q, expected 0", outcome)
	}
	// Qubit 1 stays in superposition after measuring qubit 0.
	if cAbs(collapsed[0]-h) > 1e-12 || cAbs(collapsed[1]-h) > 1e-12 {
		t.Fatalf("%v, expected %v", collapsed, state)
	}
}

func TestCollapseErrors(t *testing.T) {
	t.Parallel()
	state := []complex128{1, 0, 0, 0}
	tests := []struct {
		qubits []int
	}{
		{qubits: []int{2}},
		{qubits: []int{-1}},
		{qubits: []int{0, 0}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.qubits), func(t *testing.T) {
			t.Parallel()
			if _, _, err := Collapse(state, test.qubits, rand.NewPCG(0, 0)); err == nil {
				t.Fatalf("expected error for qubits %v", test.qubits)
			}
		})
	}
}

func TestExpectationValue(t *testing.T) {
	t.Parallel()
	z := mat.M(mat.PauliZ)
	tests := []struct {
		state    []complex128
		expected float64
	}{
		{state: []complex128{1, 0}, expected: 1},
		{state: []complex128{0, 1}, expected: -1},
		{state: []complex128{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)}, expected: 0},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			t.Parallel()
			ev, err := ExpectationValue(test.state, z)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if math.Abs(ev-test.expected) > 1e-12 {
				t.Fatalf("%v, expected %v", ev, test.expected)
			}
		})
	}

	if _, err := ExpectationValue([]complex128{1, 0, 0, 0}, z); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestSampleBadLength(t *testing.T) {
	t.Parallel()
	if _, err := Sample([]complex128{1, 0, 0}, 1, rand.NewPCG(0, 0)); err == nil {
		t.Fatalf("expected error")
	}
}

func cAbs(a complex128) float64 {
	return math.Hypot(real(a), imag(a))
}
