package features

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix holds one row per book, column-aligned with Names.
type Matrix struct {
	Names []string
	Rows  [][]float64

	index map[string]int
}

func newMatrix(names []string, n int) *Matrix {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, len(names))
	}
	index := make(map[string]int, len(names))
	for j, name := range names {
		index[name] = j
	}
	return &Matrix{Names: names, Rows: rows, index: index}
}

// NewMatrix wraps existing rows, e.g. ones restored from a snapshot.
func NewMatrix(names []string, rows [][]float64) *Matrix {
	m := newMatrix(names, 0)
	m.Rows = rows
	return m
}

func (m *Matrix) Len() int { return len(m.Rows) }

func (m *Matrix) Width() int { return len(m.Names) }

// Column returns the index of the named column, or -1.
func (m *Matrix) Column(name string) int {
	if m.index != nil {
		if j, ok := m.index[name]; ok {
			return j
		}
		return -1
	}
	for i, n := range m.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Col copies out a single column.
func (m *Matrix) Col(j int) []float64 {
	out := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		out[i] = row[j]
	}
	return out
}

// Dense returns the matrix as a gonum dense matrix, or nil when empty.
func (m *Matrix) Dense() *mat.Dense {
	if m.Len() == 0 || m.Width() == 0 {
		return nil
	}
	d := mat.NewDense(m.Len(), m.Width(), nil)
	for i, row := range m.Rows {
		d.SetRow(i, row)
	}
	return d
}

// Clone deep-copies the matrix.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{Names: append([]string(nil), m.Names...), Rows: make([][]float64, len(m.Rows)), index: m.index}
	for i, row := range m.Rows {
		out.Rows[i] = append([]float64(nil), row...)
	}
	return out
}

func (m *Matrix) set(i int, name string, v float64) {
	if j := m.Column(name); j >= 0 {
		m.Rows[i][j] = v
	}
}

func (m *Matrix) fillNaN() {
	for _, row := range m.Rows {
		for j, v := range row {
			row[j] = nanToZero(v)
		}
	}
}
