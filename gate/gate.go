// Package gate defines the unitary gates of the simulator and their
// expansion into full multi-qubit operators.
//
// Basis-state indices are big-endian: qubit 0 is the most significant bit.
package gate

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"

	"qsim/mat"
)

// Kind enumerates the supported gates.
type Kind int

const (
	X Kind = iota
	Y
	Z
	H
	T
	S
	RX
	RY
	RZ
	Phase
	CNOT
	CZ
	SWAP
	Toffoli
)

var (
	ErrUnknownKind = errors.New("unknown gate kind")
	ErrArity       = errors.New("wrong number of qubits")
	ErrParameter   = errors.New("wrong gate parameter")
)

type kindInfo struct {
	name       string
	arity      int
	parametric bool
	paramName  string
	// selfInverse marks gates that are their own inverse.
	selfInverse bool
	matrix      func(theta float64) [][]complex128
}

// kinds is the exhaustive dispatch table, indexed by Kind.
var kinds = [...]kindInfo{
	X:       {name: "X", arity: 1, selfInverse: true, matrix: func(float64) [][]complex128 { return mat.PauliX }},
	Y:       {name: "Y", arity: 1, selfInverse: true, matrix: func(float64) [][]complex128 { return mat.PauliY }},
	Z:       {name: "Z", arity: 1, selfInverse: true, matrix: func(float64) [][]complex128 { return mat.PauliZ }},
	H:       {name: "H", arity: 1, selfInverse: true, matrix: hadamard},
	T:       {name: "T", arity: 1, matrix: tGate},
	S:       {name: "S", arity: 1, matrix: sGate},
	RX:      {name: "RX", arity: 1, parametric: true, paramName: "theta", matrix: rx},
	RY:      {name: "RY", arity: 1, parametric: true, paramName: "theta", matrix: ry},
	RZ:      {name: "RZ", arity: 1, parametric: true, paramName: "theta", matrix: rz},
	Phase:   {name: "PHASE", arity: 1, parametric: true, paramName: "phi", matrix: phase},
	CNOT:    {name: "CNOT", arity: 2, selfInverse: true, matrix: cnot},
	CZ:      {name: "CZ", arity: 2, selfInverse: true, matrix: cz},
	SWAP:    {name: "SWAP", arity: 2, selfInverse: true, matrix: swap},
	Toffoli: {name: "TOFFOLI", arity: 3, selfInverse: true, matrix: toffoli},
}

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kinds)
}

func (k Kind) String() string {
	if !k.valid() {
		return "INVALID"
	}
	return kinds[k].name
}

// ParseKind parses a gate name such as "CNOT".
func ParseKind(name string) (Kind, error) {
	for k, info := range kinds {
		if info.name == name {
			return Kind(k), nil
		}
	}
	return 0, errors.Wrap(ErrUnknownKind, name)
}

// Arity is the number of qubits the gate acts on.
func Arity(k Kind) int {
	return kinds[k].arity
}

// Parametric reports whether the gate takes an angle parameter.
func Parametric(k Kind) bool {
	return kinds[k].parametric
}

// ParamName is the serialization key of the gate parameter, such as "theta".
func ParamName(k Kind) string {
	return kinds[k].paramName
}

// SelfInverse reports whether applying the gate twice is the identity.
func SelfInverse(k Kind) bool {
	return kinds[k].selfInverse
}

// Rotation reports whether two adjacent gates of this kind on the same
// qubit merge into one by summing their angles.
func Rotation(k Kind) bool {
	return kinds[k].parametric
}

// Gate is one step of a circuit. It is immutable once appended to a
// circuit's history.
type Gate struct {
	Kind   Kind
	Qubits []int
	Theta  float64
}

// New validates the gate kind, arity and parameter arity at construction
// time. Qubit index range checks are done by the circuit, which knows the
// qubit count.
func New(k Kind, qubits []int, theta ...float64) (Gate, error) {
	if !k.valid() {
		return Gate{}, errors.Wrapf(ErrUnknownKind, "%d", int(k))
	}
	info := kinds[k]
	if len(qubits) != info.arity {
		return Gate{}, errors.Wrapf(ErrArity, "%v wants %d qubits, got %d", k, info.arity, len(qubits))
	}
	switch {
	case info.parametric && len(theta) != 1:
		return Gate{}, errors.Wrapf(ErrParameter, "%v requires an angle", k)
	case !info.parametric && len(theta) != 0:
		return Gate{}, errors.Wrapf(ErrParameter, "%v takes no angle", k)
	}
	g := Gate{Kind: k, Qubits: append([]int(nil), qubits...)}
	if info.parametric {
		g.Theta = theta[0]
	}
	return g, nil
}

// Matrix returns the 2^k x 2^k unitary of the gate, where k is its arity.
func (g Gate) Matrix() [][]complex128 {
	return kinds[g.Kind].matrix(g.Theta)
}

// Expand embeds the gate into the full 2^n x 2^n operator space.
// Single-qubit gates are expanded as a Kronecker chain of identities with
// the gate inserted at the target position. Multi-qubit gates at arbitrary
// positions are expanded by constructing the nonzero entries directly from
// the basis-index bits.
func Expand(g Gate, n int) *mat.COO {
	if len(g.Qubits) == 1 {
		return expandKron(g.Matrix(), g.Qubits[0], n)
	}
	return expandExplicit(g.Matrix(), g.Qubits, n)
}

var identity = mat.COOIdentity(2)

func expandKron(u [][]complex128, qubit, n int) *mat.COO {
	g := mat.M(u)
	system := mat.COOZeros(1, 1)
	system.Scalar(1)
	for q := 0; q < n; q++ {
		switch q {
		case qubit:
			system.Kron(g)
		default:
			system.Kron(identity)
		}
	}
	return system
}

func expandExplicit(u [][]complex128, qubits []int, n int) *mat.COO {
	k := len(qubits)
	dim := 1 << n

	entries := make([]mat.Entry, 0, dim)
	for c := 0; c < dim; c++ {
		// j is the gate-space column selected by the target bits of c.
		j := 0
		for t, q := range qubits {
			j |= bit(c, q, n) << (k - 1 - t)
		}

		for i := 0; i < 1<<k; i++ {
			v := u[i][j]
			if v == 0 {
				continue
			}
			// r is c with the target bits replaced by the bits of i.
			r := c
			for t, q := range qubits {
				r = setBit(r, q, n, (i>>(k-1-t))&1)
			}
			entries = append(entries, mat.Entry{V: v, Row: r, Col: c})
		}
	}
	return mat.FromEntries(dim, dim, entries)
}

func bit(i, q, n int) int {
	return (i >> (n - 1 - q)) & 1
}

func setBit(i, q, n, b int) int {
	mask := 1 << (n - 1 - q)
	if b == 0 {
		return i &^ mask
	}
	return i | mask
}

func hadamard(float64) [][]complex128 {
	h := complex(1/math.Sqrt2, 0)
	return [][]complex128{
		{h, h},
		{h, -h},
	}
}

func tGate(float64) [][]complex128 {
	return [][]complex128{
		{1, 0},
		{0, cmplx.Exp(complex(0, math.Pi/4))},
	}
}

func sGate(float64) [][]complex128 {
	return [][]complex128{
		{1, 0},
		{0, 1i},
	}
}

func rx(theta float64) [][]complex128 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return [][]complex128{
		{c, s},
		{s, c},
	}
}

func ry(theta float64) [][]complex128 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return [][]complex128{
		{c, -s},
		{s, c},
	}
}

func rz(theta float64) [][]complex128 {
	return [][]complex128{
		{cmplx.Exp(complex(0, -theta/2)), 0},
		{0, cmplx.Exp(complex(0, theta/2))},
	}
}

func phase(phi float64) [][]complex128 {
	return [][]complex128{
		{1, 0},
		{0, cmplx.Exp(complex(0, phi))},
	}
}

func cnot(float64) [][]complex128 {
	return [][]complex128{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
	}
}

func cz(float64) [][]complex128 {
	return [][]complex128{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, -1},
	}
}

func swap(float64) [][]complex128 {
	return [][]complex128{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
}

func toffoli(float64) [][]complex128 {
	u := make([][]complex128, 8)
	for i := range u {
		u[i] = make([]complex128, 8)
		u[i][i] = 1
	}
	u[6][6], u[7][7] = 0, 0
	u[6][7], u[7][6] = 1, 1
	return u
}
