// Package qsim simulates multi-qubit quantum circuits.
//
// A circuit is an ordered list of gates applied to the state |0...0>.
// Run rebuilds the state from scratch on every call, dispatching to one of
// three backends: dense full-operator application, sparse matrix-vector
// products, or a matrix product state with a bounded bond dimension.
//
// Basis-state indices and measurement labels are big-endian: qubit 0 is the
// most significant bit.
package qsim

import (
	"math"

	"github.com/pkg/errors"

	"qsim/gate"
	"qsim/mps"
	"qsim/optimizer"
)

// Mode selects the simulation backend.
type Mode int

const (
	// Auto picks Sparse above Config.SparseThreshold qubits, Dense below.
	Auto Mode = iota
	Dense
	Sparse
	// TensorNetwork must be requested explicitly; Auto never selects it.
	TensorNetwork
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	case TensorNetwork:
		return "tensor_network"
	}
	return "invalid"
}

var (
	// ErrQubitCount reports a qubit count outside [1, Config.MaxQubits].
	ErrQubitCount = errors.New("bad qubit count")
	// ErrQubitIndex reports a gate qubit index outside the circuit.
	ErrQubitIndex = errors.New("qubit index out of range")
	// ErrDuplicateQubit reports repeated indices in a multi-qubit gate.
	ErrDuplicateQubit = errors.New("duplicate qubit index")
	// ErrNormDrift reports a state norm drifting beyond Config.NormTol.
	// It indicates an engine bug and is never corrected silently.
	ErrNormDrift = errors.New("state norm drift")
	// ErrUnsupported reports a mode the circuit cannot run in, such as
	// dense mode beyond Config.MaxDenseQubits.
	ErrUnsupported = errors.New("unsupported simulation mode")
)

// Config bounds the resources of a single run. It is passed explicitly so
// tests can exercise every backend deterministically.
type Config struct {
	// SparseThreshold is the qubit count above which Auto switches from
	// dense operators to sparse products.
	SparseThreshold int
	// MaxDenseQubits is the hard cap for the dense backend. Dense state
	// grows as O(2^n); beyond the cap callers must use the sparse or
	// tensor network backends.
	MaxDenseQubits int
	// MaxQubits is the hard cap for any backend.
	MaxQubits int
	// MaxBondDim caps the matrix product state bond dimension.
	MaxBondDim int
	// NormTol is the tolerance on the state norm for the complex128
	// backends.
	NormTol float64
}

// DefaultConfig returns the documented default limits.
func DefaultConfig() Config {
	return Config{
		SparseThreshold: 10,
		MaxDenseQubits:  14,
		MaxQubits:       24,
		MaxBondDim:      64,
		NormTol:         1e-9,
	}
}

// Circuit is an ordered sequence of gates on n qubits. Gates are validated
// when appended and immutable afterwards.
type Circuit struct {
	n     int
	gates []gate.Gate
	cfg   Config
}

// New creates an empty circuit of n qubits. The optional config overrides
// DefaultConfig.
func New(n int, config ...Config) (*Circuit, error) {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if n < 1 || n > cfg.MaxQubits {
		return nil, errors.Wrapf(ErrQubitCount, "%d not in [1, %d]", n, cfg.MaxQubits)
	}
	return &Circuit{n: n, cfg: cfg}, nil
}

// Len is the qubit count.
func (c *Circuit) Len() int { return c.n }

// Config returns the resource limits of the circuit.
func (c *Circuit) Config() Config { return c.cfg }

// Gates returns a copy of the gate history.
func (c *Circuit) Gates() []gate.Gate {
	return append([]gate.Gate(nil), c.gates...)
}

// Append validates a gate and adds it to the history. Arity, parameter,
// index-range and duplicate-index violations are rejected here, never
// deferred to execution.
func (c *Circuit) Append(k gate.Kind, qubits []int, theta ...float64) error {
	g, err := gate.New(k, qubits, theta...)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for i, q := range g.Qubits {
		if q < 0 || q >= c.n {
			return errors.Wrapf(ErrQubitIndex, "%d not in [0, %d)", q, c.n)
		}
		for _, p := range g.Qubits[:i] {
			if p == q {
				return errors.Wrapf(ErrDuplicateQubit, "%d", q)
			}
		}
	}
	c.gates = append(c.gates, g)
	return nil
}

func (c *Circuit) X(q int) error { return c.Append(gate.X, []int{q}) }
func (c *Circuit) Y(q int) error { return c.Append(gate.Y, []int{q}) }
func (c *Circuit) Z(q int) error { return c.Append(gate.Z, []int{q}) }
func (c *Circuit) H(q int) error { return c.Append(gate.H, []int{q}) }
func (c *Circuit) T(q int) error { return c.Append(gate.T, []int{q}) }
func (c *Circuit) S(q int) error { return c.Append(gate.S, []int{q}) }

func (c *Circuit) RX(q int, theta float64) error    { return c.Append(gate.RX, []int{q}, theta) }
func (c *Circuit) RY(q int, theta float64) error    { return c.Append(gate.RY, []int{q}, theta) }
func (c *Circuit) RZ(q int, theta float64) error    { return c.Append(gate.RZ, []int{q}, theta) }
func (c *Circuit) Phase(q int, phi float64) error   { return c.Append(gate.Phase, []int{q}, phi) }
func (c *Circuit) CNOT(control, target int) error   { return c.Append(gate.CNOT, []int{control, target}) }
func (c *Circuit) CZ(control, target int) error     { return c.Append(gate.CZ, []int{control, target}) }
func (c *Circuit) SWAP(q1, q2 int) error            { return c.Append(gate.SWAP, []int{q1, q2}) }
func (c *Circuit) Toffoli(c1, c2, target int) error { return c.Append(gate.Toffoli, []int{c1, c2, target}) }

// Result is the outcome of one run.
type Result struct {
	// State is the final dense amplitude vector of length 2^n, whichever
	// backend produced it.
	State []complex128
	// Backend is the mode that actually ran (Auto resolved).
	Backend Mode
	// Truncation is the fidelity loss of the tensor network backend. It
	// is zero for the other backends.
	Truncation mps.Truncation
}

// Run applies the recorded gates in order to |0...0> and returns the final
// state in dense form. The gate history is not mutated, and repeated runs
// rebuild the state from scratch.
func (c *Circuit) Run(mode Mode) (*Result, error) {
	backend := mode
	if backend == Auto {
		backend = Dense
		if c.n > c.cfg.SparseThreshold {
			backend = Sparse
		}
	}

	switch backend {
	case Dense:
		if c.n > c.cfg.MaxDenseQubits {
			return nil, errors.Wrapf(ErrUnsupported, "dense mode with %d qubits exceeds cap %d", c.n, c.cfg.MaxDenseQubits)
		}
		state, err := c.runMatrix(false)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return &Result{State: state, Backend: Dense}, nil
	case Sparse:
		state, err := c.runMatrix(true)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return &Result{State: state, Backend: Sparse}, nil
	case TensorNetwork:
		return c.runMPS()
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%d", int(mode))
	}
}

// runMatrix is the dense and sparse execution path. Both expand each gate
// into its full-space operator; the dense path materializes it while the
// sparse path multiplies only the nonzero entries.
func (c *Circuit) runMatrix(sparse bool) ([]complex128, error) {
	state := NewState(c.n)
	for i, g := range c.gates {
		op := gate.Expand(g, c.n)
		switch {
		case sparse:
			state = op.MulVec(state)
		default:
			state = denseMulVec(op.Dense(), state)
		}

		if err := c.checkNorm(state); err != nil {
			return nil, errors.Wrapf(err, "gate %d %v%v", i, g.Kind, g.Qubits)
		}
	}
	return state, nil
}

func (c *Circuit) runMPS() (*Result, error) {
	m, err := mps.New(c.n, c.cfg.MaxBondDim)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for i, g := range c.gates {
		if err := m.Apply(g.Matrix(), g.Qubits); err != nil {
			return nil, errors.Wrapf(err, "gate %d %v%v", i, g.Kind, g.Qubits)
		}
	}
	return &Result{State: m.Dense(), Backend: TensorNetwork, Truncation: m.Truncation()}, nil
}

func (c *Circuit) checkNorm(state []complex128) error {
	if norm := Norm(state); math.Abs(norm-1) > c.cfg.NormTol {
		return errors.Wrapf(ErrNormDrift, "norm %v", norm)
	}
	return nil
}

// Optimized returns a copy of the circuit with the optimizer's rewritten
// gate sequence, together with the reduction metrics. The receiver is
// unchanged.
func (c *Circuit) Optimized() (*Circuit, optimizer.Metrics) {
	gates, metrics := optimizer.Optimize(c.gates)
	return &Circuit{n: c.n, gates: gates, cfg: c.cfg}, metrics
}

// Info describes a circuit without running it.
type Info struct {
	Qubits    int
	Gates     int
	Depth     int
	GateCount map[gate.Kind]int
}

// Info returns gate and depth statistics of the circuit.
func (c *Circuit) Info() Info {
	return Info{
		Qubits:    c.n,
		Gates:     len(c.gates),
		Depth:     optimizer.Depth(c.gates),
		GateCount: optimizer.CountByKind(c.gates),
	}
}

// BellState is the 2-qubit circuit preparing (|00> + |11>)/sqrt(2).
func BellState() *Circuit {
	c, err := New(2)
	if err != nil {
		panic(err)
	}
	if err := c.H(0); err != nil {
		panic(err)
	}
	if err := c.CNOT(0, 1); err != nil {
		panic(err)
	}
	return c
}

// GHZState is the n-qubit circuit preparing (|0...0> + |1...1>)/sqrt(2).
func GHZState(n int) (*Circuit, error) {
	c, err := New(n)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := c.H(0); err != nil {
		return nil, errors.Wrap(err, "")
	}
	for i := 0; i < n-1; i++ {
		if err := c.CNOT(i, i+1); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	return c, nil
}
