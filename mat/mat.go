// Package mat implements sparse complex matrices in coordinate format.
package mat

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	gmat "gonum.org/v1/gonum/mat"
)

var (
	PauliX = [][]complex128{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex128{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex128{
		{1, 0},
		{0, -1},
	}
)

// Entry is a nonzero value at a row and column.
type Entry struct {
	V   complex128
	Row int
	Col int
}

// COO is a sparse matrix in coordinate format.
// Entries are kept sorted in row major order.
type COO struct {
	rows int
	cols int
	Data []Entry

	m map[[2]int]complex128
}

// M creates a COO matrix from a dense slice of rows.
func M(dense [][]complex128) *COO {
	m := &COO{rows: len(dense), cols: len(dense[0]), Data: make([]Entry, 0), m: make(map[[2]int]complex128)}
	for i, row := range dense {
		for j, v := range row {
			if v == 0 {
				continue
			}
			m.Data = append(m.Data, Entry{V: v, Row: i, Col: j})
		}
	}
	return m
}

// FromEntries creates a COO matrix from nonzero entries.
func FromEntries(rows, cols int, entries []Entry) *COO {
	m := M([][]complex128{{0}})
	m.Zeros(rows, cols)
	m.Data = append(m.Data, entries...)
	slices.SortFunc(m.Data, rowMajor)
	return m
}

func COOZeros(rows, cols int) *COO {
	m := M([][]complex128{{0}})
	m.Zeros(rows, cols)
	return m
}

func COOIdentity(rows int) *COO {
	m := M([][]complex128{{0}})
	m.Zeros(rows, rows)
	for i := 0; i < rows; i++ {
		m.Data = append(m.Data, Entry{V: 1, Row: i, Col: i})
	}
	return m
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

func (m *COO) Zeros(rows, cols int) {
	m.rows, m.cols = rows, cols
	m.Data = m.Data[:0]
}

func (m *COO) Scalar(v complex128) {
	m.rows, m.cols = 1, 1
	m.Data = m.Data[:0]
	m.Data = append(m.Data, Entry{V: v, Row: 0, Col: 0})
}

func (a *COO) Equal(b *COO) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i, av := range a.Data {
		bv := b.Data[i]
		if av != bv {
			return false
		}
	}
	return true
}

func (m *COO) Slice(yBoundN, xBoundN [2]int) *COO {
	yBound, xBound := yBoundN, xBoundN
	for i := 0; i < 2; i++ {
		if yBound[i] < 0 {
			yBound[i] += m.rows
		}
		if xBound[i] < 0 {
			xBound[i] += m.cols
		}
	}

	s := &COO{rows: yBound[1] - yBound[0], cols: xBound[1] - xBound[0], Data: make([]Entry, 0)}
	for _, v := range m.Data {
		if v.Row < yBound[0] {
			continue
		}
		if v.Row >= yBound[1] {
			break
		}
		if v.Col < xBound[0] || v.Col >= xBound[1] {
			continue
		}
		s.Data = append(s.Data, Entry{V: v.V, Row: v.Row - yBound[0], Col: v.Col - xBound[0]})
	}
	return s
}

// Add computes a = a + c*b.
// b may be a scalar, a column vector, or a matrix of the same shape as a,
// in which case it is broadcast accordingly.
func (a *COO) Add(c complex128, b *COO) {
	if b.m == nil {
		b.m = make(map[[2]int]complex128)
	}
	clear(b.m)
	for _, v := range b.Data {
		b.m[[2]int{v.Row, v.Col}] = v.V
	}

	for i, av := range a.Data {
		var byx [2]int
		switch {
		case b.rows == 1 && b.cols == 1:
		case b.rows == a.rows && b.cols == 1:
			byx[0] = av.Row
		case b.rows == a.rows && b.cols == a.cols:
			byx[0], byx[1] = av.Row, av.Col
		default:
			panic(fmt.Sprintf("%dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
		}
		bv := b.m[byx]
		delete(b.m, byx)

		a.Data[i].V = av.V + c*bv
	}

	a.Data = slices.DeleteFunc(a.Data, func(v Entry) bool {
		return v.V == 0
	})
	for yx, bv := range b.m {
		a.Data = append(a.Data, Entry{V: c * bv, Row: yx[0], Col: yx[1]})
	}
	slices.SortFunc(a.Data, rowMajor)
	clear(b.m)
}

// Mul computes the elementwise product a = a*b, with the same broadcast
// rules as Add.
func (a *COO) Mul(b *COO) {
	if b.m == nil {
		b.m = make(map[[2]int]complex128)
	}
	clear(b.m)
	for _, v := range b.Data {
		b.m[[2]int{v.Row, v.Col}] = v.V
	}

	for i, av := range a.Data {
		var byx [2]int
		switch {
		case b.rows == 1 && b.cols == 1:
		case b.rows == a.rows && b.cols == 1:
			byx[0] = av.Row
		case b.rows == a.rows && b.cols == a.cols:
			byx[0], byx[1] = av.Row, av.Col
		default:
			panic(fmt.Sprintf("%dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
		}
		bv := b.m[byx]

		a.Data[i].V = av.V * bv
	}

	a.Data = slices.DeleteFunc(a.Data, func(v Entry) bool {
		return v.V == 0
	})
	clear(b.m)
}

// Kron computes the Kronecker product a = a ⊗ b.
func (a *COO) Kron(b *COO) {
	rows := a.rows * b.rows
	cols := a.cols * b.cols
	a.rows, a.cols = rows, cols

	prevElemNum := len(a.Data)
	for i := prevElemNum - 1; i >= 0; i-- {
		av := a.Data[i]
		a.Data[i].V = 0
		for _, bv := range b.Data {
			ky := av.Row*b.rows + bv.Row
			kx := av.Col*b.cols + bv.Col
			a.Data = append(a.Data, Entry{V: av.V * bv.V, Row: ky, Col: kx})
		}
	}

	a.Data = slices.DeleteFunc(a.Data, func(v Entry) bool {
		return v.V == 0
	})
	slices.SortFunc(a.Data, rowMajor)
}

// MulVec computes the matrix vector product m @ x, visiting only the
// nonzero entries of m.
func (m *COO) MulVec(x []complex128) []complex128 {
	if len(x) != m.cols {
		panic(fmt.Sprintf("%d %d", len(x), m.cols))
	}
	y := make([]complex128, m.rows)
	for _, v := range m.Data {
		y[v.Row] += v.V * x[v.Col]
	}
	return y
}

// Sparsity is the fraction of entries that are zero.
func (m *COO) Sparsity() float64 {
	total := m.rows * m.cols
	if total == 0 {
		return 0
	}
	return 1 - float64(len(m.Data))/float64(total)
}

func (m *COO) Dense() [][]complex128 {
	dense := make([][]complex128, m.rows)
	for i := range dense {
		dense[i] = make([]complex128, m.cols)
	}

	for _, v := range m.Data {
		dense[v.Row][v.Col] = v.V
	}

	return dense
}

// CDense materializes m as a gonum dense complex matrix.
func (m *COO) CDense() *gmat.CDense {
	d := gmat.NewCDense(m.rows, m.cols, nil)
	for _, v := range m.Data {
		d.Set(v.Row, v.Col, v.V)
	}
	return d
}

func (m *COO) String() string {
	if m.m == nil {
		m.m = make(map[[2]int]complex128)
	}
	clear(m.m)
	for _, v := range m.Data {
		m.m[[2]int{v.Row, v.Col}] = v.V
	}

	lines := []string{}
	for i := 0; i < m.rows; i++ {
		cs := []string{}
		for j := 0; j < m.cols; j++ {
			v := m.m[[2]int{i, j}]
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		l := strings.Join(cs, "\t")
		lines = append(lines, l)
	}

	clear(m.m)
	return strings.Join(lines, "\n")
}

func rowMajor(a, b Entry) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Col, b.Col)
}

func format(v float64) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%v", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}
