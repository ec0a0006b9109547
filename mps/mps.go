// Package mps implements the matrix product state simulation backend.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock
//
// Site tensors have axes {left bond, physical, right bond} with bond
// dimension 1 at both boundaries. Site i holds qubit i, and qubit 0 is the
// most significant bit of a basis index, so contracting the chain left to
// right yields amplitudes in basis order.
//
// Site tensors are complex64, so results agree with the complex128 dense
// backend only within Tolerance, not within the dense paths' 1e-9.
// Two-qubit gates on non-adjacent qubits are routed with adjacent SWAP
// contractions, which is exact up to truncation. Three-qubit gates are not
// supported on this backend and report ErrUnsupported.
package mps

import (
	"math"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

const (
	mpsLeftAxis  = 0
	mpsUpAxis    = 1
	mpsRightAxis = 2

	// Tolerance is the documented agreement tolerance against the dense
	// backend for circuits whose bond dimension stays under the cap.
	Tolerance = 1e-4

	// svdTol is the relative threshold under which singular values are
	// numerical noise and dropped silently.
	svdTol = 1e-7
)

// ErrUnsupported reports an operation the tensor network backend cannot
// perform.
var ErrUnsupported = errors.New("unsupported on the tensor network backend")

// Truncation quantifies the fidelity loss from enforcing the bond cap.
type Truncation struct {
	// Events is the number of splits where the cap discarded singular
	// values above the noise threshold.
	Events int
	// Discarded is the total squared singular value mass dropped.
	Discarded float64
}

var swapGate = [][]complex128{
	{1, 0, 0, 0},
	{0, 0, 1, 0},
	{0, 1, 0, 0},
	{0, 0, 0, 1},
}

// MPS is a matrix product state of n qubits with a bounded bond dimension.
type MPS struct {
	sites   []*tensor.Dense
	maxBond int
	trunc   Truncation

	bufs [3]*tensor.Dense
}

// New creates the state |0...0> as a matrix product state.
func New(n, maxBond int) (*MPS, error) {
	if n < 1 {
		return nil, errors.Errorf("%d qubits", n)
	}
	if maxBond < 1 {
		return nil, errors.Errorf("bond cap %d", maxBond)
	}
	m := &MPS{maxBond: maxBond}
	for range n {
		site := tensor.Zeros(1, 2, 1)
		site.SetAt([]int{0, 0, 0}, 1)
		m.sites = append(m.sites, site)
	}
	for i := range m.bufs {
		m.bufs[i] = tensor.Zeros(1)
	}
	return m, nil
}

// FromDense factorizes a dense state vector into a matrix product state by
// successive singular value decompositions.
func FromDense(state []complex128, maxBond int) (*MPS, error) {
	n := 0
	for 1<<n < len(state) {
		n++
	}
	if 1<<n != len(state) || len(state) < 2 {
		return nil, errors.Errorf("state length %d", len(state))
	}

	m, err := New(n, maxBond)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	// rem has logical shape (leftD*2, cols).
	rem := append([]complex128(nil), state...)
	leftD := 1
	for i := 0; i < n-1; i++ {
		rows := leftD * 2
		cols := len(rem) / rows
		u, s, vh := svd(toMatrix(rem, rows, cols))
		keep := rank(s, m.maxBond)

		site := tensor.Zeros(leftD, 2, keep)
		for l := 0; l < leftD; l++ {
			for b := 0; b < 2; b++ {
				for a := 0; a < keep; a++ {
					site.SetAt([]int{l, b, a}, complex64(u[l*2+b][a]))
				}
			}
		}
		m.sites[i] = site

		next := make([]complex128, keep*cols)
		for a := 0; a < keep; a++ {
			for c := 0; c < cols; c++ {
				next[a*cols+c] = complex(s[a], 0) * vh[a][c]
			}
		}
		rem = next
		leftD = keep
	}

	last := tensor.Zeros(leftD, 2, 1)
	for l := 0; l < leftD; l++ {
		for b := 0; b < 2; b++ {
			last.SetAt([]int{l, b, 0}, complex64(rem[l*2+b]))
		}
	}
	m.sites[n-1] = last
	return m, nil
}

// Len is the number of qubits.
func (m *MPS) Len() int { return len(m.sites) }

// Truncation reports the fidelity loss accumulated so far.
func (m *MPS) Truncation() Truncation { return m.trunc }

// BondDims returns the current bond dimensions between neighboring sites.
func (m *MPS) BondDims() []int {
	dims := make([]int, 0, len(m.sites)-1)
	for _, site := range m.sites[:len(m.sites)-1] {
		dims = append(dims, site.Shape()[mpsRightAxis])
	}
	return dims
}

// Apply applies a single- or two-qubit gate to the state.
func (m *MPS) Apply(u [][]complex128, qubits []int) error {
	switch len(qubits) {
	case 1:
		m.apply1(qubits[0], u)
		return nil
	case 2:
		return m.apply2(qubits[0], qubits[1], u)
	default:
		return errors.Wrapf(ErrUnsupported, "%d-qubit gate", len(qubits))
	}
}

func (m *MPS) apply1(q int, u [][]complex128) {
	g := t2(u)
	// res is of shape {out, mpsLeft, mpsRight}.
	res := tensor.Product(m.bufs[0], g, m.sites[q], [][2]int{{1, mpsUpAxis}})
	resetCopy(m.sites[q], res.Transpose(1, 0, 2))
}

func (m *MPS) apply2(q1, q2 int, u [][]complex128) error {
	if q1 == q2 {
		return errors.Errorf("duplicate qubit %d", q1)
	}
	if q1 > q2 {
		// Reverse the wire order of the gate so that q1 < q2.
		u = reverse2(u)
		q1, q2 = q2, q1
	}

	// Route q2 next to q1 with adjacent SWAPs, apply, and route back.
	for p := q2 - 1; p >= q1+1; p-- {
		m.applyAdjacent(p, swapGate)
	}
	m.applyAdjacent(q1, u)
	for p := q1 + 1; p <= q2-1; p++ {
		m.applyAdjacent(p, swapGate)
	}
	return nil
}

// applyAdjacent merges sites p and p+1, contracts the 4x4 gate into the
// merged tensor, and re-splits it with a truncated singular value
// decomposition.
func (m *MPS) applyAdjacent(p int, u [][]complex128) {
	g := t2(u).Reshape(2, 2, 2, 2)

	// theta is of shape {mpsLeft, up1, up2, mpsRight}.
	theta := tensor.Product(m.bufs[0], m.sites[p], m.sites[p+1], [][2]int{{mpsRightAxis, mpsLeftAxis}})

	// tg is of shape {out1, out2, mpsLeft, mpsRight}.
	tg := tensor.Product(m.bufs[1], g, theta, [][2]int{{2, 1}, {3, 2}})

	resetCopy(m.bufs[2], tg.Transpose(2, 0, 1, 3))
	left := m.sites[p].Shape()[mpsLeftAxis]
	right := m.sites[p+1].Shape()[mpsRightAxis]
	a := m.bufs[2].Reshape(left*2, 2*right)

	aM := make([][]complex128, left*2)
	for i := range aM {
		aM[i] = make([]complex128, 2*right)
		for j := range aM[i] {
			aM[i][j] = complex128(a.At(i, j))
		}
	}
	uM, s, vh := svd(aM)

	// Truncate to the bond cap.
	r := rank(s, len(s))
	keep := r
	if keep > m.maxBond {
		keep = m.maxBond
	}

	site1 := tensor.Zeros(left, 2, keep)
	for l := 0; l < left; l++ {
		for b := 0; b < 2; b++ {
			for k := 0; k < keep; k++ {
				site1.SetAt([]int{l, b, k}, complex64(uM[l*2+b][k]))
			}
		}
	}
	site2 := tensor.Zeros(keep, 2, right)
	for k := 0; k < keep; k++ {
		sv := complex(s[k], 0)
		for b := 0; b < 2; b++ {
			for rr := 0; rr < right; rr++ {
				site2.SetAt([]int{k, b, rr}, complex64(sv*vh[k][b*right+rr]))
			}
		}
	}
	m.sites[p] = site1
	m.sites[p+1] = site2

	if keep < r {
		var discarded float64
		for _, sv := range s[keep:r] {
			discarded += sv * sv
		}
		m.trunc.Events++
		m.trunc.Discarded += discarded

		// The chain is not kept in canonical form, so the singular values
		// of this block alone cannot restore the global norm. Renormalize
		// against the exact inner product instead.
		if norm := m.Norm(); norm > 0 {
			m.sites[p+1].Mul(complex64(complex(1/norm, 0)))
		}
	}
}

// Dense contracts the chain into a dense state vector.
func (m *MPS) Dense() []complex128 {
	p := product(tensor.Zeros(1), m.sites, m.bufs[0])

	out := make([]complex128, 1<<len(m.sites))
	i := 0
	for _, v := range p.All() {
		out[i] = complex128(v)
		i++
	}
	return out
}

// InnerProduct computes <x|y>.
// See Section 4.2.1 Efficient evaluation of contractions, Ulrich Schollwock.
func InnerProduct(x, y *MPS) (complex128, error) {
	if len(x.sites) != len(y.sites) {
		return 0, errors.Errorf("%d %d", len(x.sites), len(y.sites))
	}

	bufs := [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}
	f := ones(bufs[0], 1, 1)
	const fTopAxis, fBottomAxis = 0, 1
	for i, xi := range x.sites {
		yi := y.sites[i]

		fyi := tensor.Product(bufs[1], f, yi, [][2]int{{fBottomAxis, mpsLeftAxis}})
		f = tensor.Product(bufs[0], xi.Conj(), fyi, [][2]int{{mpsLeftAxis, fTopAxis}, {mpsUpAxis, mpsUpAxis}})
	}
	return complex128(f.At(0, 0)), nil
}

// Norm is the 2-norm of the state.
func (m *MPS) Norm() float64 {
	ip, err := InnerProduct(m, m)
	if err != nil {
		panic(err)
	}
	return math.Sqrt(real(ip))
}

// rank counts the singular values above the noise threshold, capped at
// maxKeep, and always at least 1.
func rank(s []float64, maxKeep int) int {
	r := 0
	for _, sv := range s {
		if sv > svdTol*s[0] {
			r++
		}
	}
	if r > maxKeep {
		r = maxKeep
	}
	if r < 1 {
		r = 1
	}
	return r
}

func reverse2(u [][]complex128) [][]complex128 {
	perm := [4]int{0, 2, 1, 3}
	r := make([][]complex128, 4)
	for i := range r {
		r[i] = make([]complex128, 4)
		for j := range r[i] {
			r[i][j] = u[perm[i]][perm[j]]
		}
	}
	return r
}

func toMatrix(flat []complex128, rows, cols int) [][]complex128 {
	a := make([][]complex128, rows)
	for i := range a {
		a[i] = flat[i*cols : (i+1)*cols]
	}
	return a
}

func t2(u [][]complex128) *tensor.Dense {
	u64 := make([][]complex64, len(u))
	for i, row := range u {
		u64[i] = make([]complex64, len(row))
		for j, v := range row {
			u64[i][j] = complex64(v)
		}
	}
	return tensor.T2(u64)
}

func product(p *tensor.Dense, ms []*tensor.Dense, buf *tensor.Dense) *tensor.Dense {
	// mmi is the product of m0 @ m1 @ ... mi.
	var mmi *tensor.Dense

	// Do mmi = mmi @ mi.
	mmiPrev := buf
	resetCopy(mmiPrev, ms[0])
	for _, mi := range ms[1:] {
		if mmiPrev == buf {
			mmi = p
		} else {
			mmi = buf
		}
		axes := [][2]int{{len(mmiPrev.Shape()) - 1, 0}}
		tensor.Product(mmi, mmiPrev, mi, axes)

		mmiPrev = mmi
	}

	if mmi == nil || mmi == buf {
		resetCopy(p, mmiPrev)
	}
	return p
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}

func ones(t *tensor.Dense, shape ...int) *tensor.Dense {
	t.Reset(shape...)
	for ijk := range t.All() {
		t.SetAt(ijk, 1)
	}
	return t
}
