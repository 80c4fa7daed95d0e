package vector

import "fmt"

// Matrix is a row-major sample matrix, one V per sample.
type Matrix []V

// NewMatrix validates that every row has the same width.
func NewMatrix(rows [][]float64) (Matrix, error) {
	m := make(Matrix, len(rows))
	for i := range rows {
		if i > 0 && len(rows[i]) != len(rows[0]) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(rows[i]), len(rows[0]), ErrDimNotEqual)
		}
		m[i] = rows[i]
	}
	return m, nil
}

func (m Matrix) Rows() int {
	return len(m)
}

func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Column copies column j.
func (m Matrix) Column(j int) V {
	col := make(V, len(m))
	for i := range m {
		col[i] = m[i][j]
	}
	return col
}

// Raw returns the rows as plain slices.
func (m Matrix) Raw() [][]float64 {
	raw := make([][]float64, len(m))
	for i := range m {
		raw[i] = m[i]
	}
	return raw
}
