package qsim

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"

	"qsim/gate"
)

func TestBell(t *testing.T) {
	t.Parallel()
	for _, mode := range []Mode{Dense, Sparse, TensorNetwork} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()
			result, err := BellState().Run(mode)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			tol := 1e-9
			if mode == TensorNetwork {
				tol = 1e-4
			}
			expected := []float64{0.5, 0, 0, 0.5}
			for i, a := range result.State {
				p := real(a)*real(a) + imag(a)*imag(a)
				if math.Abs(p-expected[i]) > tol {
					t.Fatalf("%v, expected probabilities %v", result.State, expected)
				}
			}
			if result.Backend != mode {
				t.Fatalf("%v, expected %v", result.Backend, mode)
			}
		})
	}
}

func TestGHZ(t *testing.T) {
	t.Parallel()
	const n = 3
	c, err := GHZState(n)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	result, err := c.Run(Dense)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	h := complex(1/math.Sqrt2, 0)
	for i, a := range result.State {
		expected := complex128(0)
		if i == 0 || i == 1<<n-1 {
			expected = h
		}
		if cmplx.Abs(a-expected) > 1e-9 {
			t.Fatalf("%v, expected amplitude %v at %d", result.State, expected, i)
		}
	}
}

func TestDenseSparseAgree(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewPCG(17, 18))
	const n = 4
	for trial := 0; trial < 10; trial++ {
		c, err := New(n)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		for i := 0; i < 20; i++ {
			var err error
			switch rnd.IntN(5) {
			case 0:
				err = c.H(rnd.IntN(n))
			case 1:
				err = c.T(rnd.IntN(n))
			case 2:
				err = c.RX(rnd.IntN(n), rnd.Float64()*2*math.Pi)
			case 3:
				err = c.Phase(rnd.IntN(n), rnd.Float64()*2*math.Pi)
			default:
				control := rnd.IntN(n)
				target := (control + 1 + rnd.IntN(n-1)) % n
				err = c.CNOT(control, target)
			}
			if err != nil {
				t.Fatalf("%+v", err)
			}
		}

		dense, err := c.Run(Dense)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		sparse, err := c.Run(Sparse)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		for i := range dense.State {
			if cmplx.Abs(dense.State[i]-sparse.State[i]) > 1e-9 {
				t.Fatalf("trial %d: %v, expected %v", trial, sparse.State, dense.State)
			}
		}
		if math.Abs(Norm(dense.State)-1) > 1e-9 {
			t.Fatalf("%v, expected 1", Norm(dense.State))
		}
	}
}

func TestSelfInverse(t *testing.T) {
	t.Parallel()
	builders := map[string]func(c *Circuit) error{
		"X": func(c *Circuit) error { return c.X(0) },
		"Y": func(c *Circuit) error { return c.Y(0) },
		"Z": func(c *Circuit) error { return c.Z(0) },
		"H": func(c *Circuit) error { return c.H(0) },
	}
	for name, apply := range builders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c, err := New(1)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if err := apply(c); err != nil {
				t.Fatalf("%+v", err)
			}
			if err := apply(c); err != nil {
				t.Fatalf("%+v", err)
			}
			result, err := c.Run(Dense)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if cmplx.Abs(result.State[0]-1) > 1e-9 || cmplx.Abs(result.State[1]) > 1e-9 {
				t.Fatalf("%v, expected |0>", result.State)
			}
		})
	}
}

func TestAutoDispatch(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.SparseThreshold = 2

	small, err := New(2, cfg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	result, err := small.Run(Auto)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if result.Backend != Dense {
		t.Fatalf("%v, expected %v", result.Backend, Dense)
	}

	big, err := New(3, cfg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	result, err = big.Run(Auto)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if result.Backend != Sparse {
		t.Fatalf("%v, expected %v", result.Backend, Sparse)
	}
}

func TestDenseCap(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.MaxDenseQubits = 3
	c, err := New(4, cfg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := c.Run(Dense); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("%+v, expected %v", err, ErrUnsupported)
	}
	// The sparse backend is not capped at MaxDenseQubits.
	if _, err := c.Run(Sparse); err != nil {
		t.Fatalf("%+v", err)
	}
}

func TestAppendErrors(t *testing.T) {
	t.Parallel()
	c, err := New(2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	tests := []struct {
		kind   gate.Kind
		qubits []int
		theta  []float64
		err    error
	}{
		{kind: gate.H, qubits: []int{2}, err: ErrQubitIndex},
		{kind: gate.H, qubits: []int{-1}, err: ErrQubitIndex},
		{kind: gate.CNOT, qubits: []int{0, 0}, err: ErrDuplicateQubit},
		{kind: gate.CNOT, qubits: []int{0}, err: gate.ErrArity},
		{kind: gate.RX, qubits: []int{0}, err: gate.ErrParameter},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v_%v", test.kind, test.qubits), func(t *testing.T) {
			t.Parallel()
			if err := c.Append(test.kind, test.qubits, test.theta...); !errors.Is(err, test.err) {
				t.Fatalf("%+v, expected %v", err, test.err)
			}
		})
	}
	// Rejected gates never enter the history.
	if len(c.Gates()) != 0 {
		t.Fatalf("%v, expected empty history", c.Gates())
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()
	if _, err := New(0); !errors.Is(err, ErrQubitCount) {
		t.Fatalf("%+v, expected %v", err, ErrQubitCount)
	}
	if _, err := New(DefaultConfig().MaxQubits + 1); !errors.Is(err, ErrQubitCount) {
		t.Fatalf("%+v, expected %v", err, ErrQubitCount)
	}
}

func TestRunRepeatable(t *testing.T) {
	t.Parallel()
	c := BellState()
	first, err := c.Run(Dense)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	second, err := c.Run(Dense)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for i := range first.State {
		if first.State[i] != second.State[i] {
			t.Fatalf("%v, expected %v", second.State, first.State)
		}
	}
	if len(c.Gates()) != 2 {
		t.Fatalf("%d gates, expected the history unchanged", len(c.Gates()))
	}
}

func TestOptimized(t *testing.T) {
	t.Parallel()
	c, err := New(2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for _, fn := range []func() error{
		func() error { return c.H(0) },
		func() error { return c.H(0) },
		func() error { return c.RY(1, 0.3) },
		func() error { return c.RY(1, 0.2) },
	} {
		if err := fn(); err != nil {
			t.Fatalf("%+v", err)
		}
	}

	optimized, metrics := c.Optimized()
	if metrics.GatesBefore != 4 || metrics.GatesAfter != 1 {
		t.Fatalf("%+v, expected 4 -> 1", metrics)
	}
	gates := optimized.Gates()
	if len(gates) != 1 || gates[0].Kind != gate.RY || math.Abs(gates[0].Theta-0.5) > 1e-12 {
		t.Fatalf("%v, expected single RY(0.5)", gates)
	}
	// The original is untouched.
	if len(c.Gates()) != 4 {
		t.Fatalf("%d, expected 4", len(c.Gates()))
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()
	c := BellState()
	info := c.Info()
	if info.Qubits != 2 || info.Gates != 2 || info.Depth != 2 {
		t.Fatalf("%+v, expected 2 qubits, 2 gates, depth 2", info)
	}
	if info.GateCount[gate.H] != 1 || info.GateCount[gate.CNOT] != 1 {
		t.Fatalf("%+v, expected one H and one CNOT", info.GateCount)
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		index    int
		n        int
		expected string
	}{
		{index: 0, n: 3, expected: "000"},
		{index: 5, n: 3, expected: "101"},
		{index: 1, n: 4, expected: "0001"},
	}
	for _, test := range tests {
		if got := Label(test.index, test.n); got != test.expected {
			t.Fatalf("%q, expected %q", got, test.expected)
		}
	}
}
