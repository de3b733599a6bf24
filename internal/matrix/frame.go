package matrix

import (
	"fmt"

	"hotel_churn/internal/domain"
)

// Frame is a dense, row-major numeric table with named columns.
type Frame struct {
	Columns []string
	Rows    [][]float64
}

// Index returns the position of col, or -1.
func (f *Frame) Index(col string) int {
	for i, c := range f.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Column copies one column out of the frame.
func (f *Frame) Column(col string) ([]float64, error) {
	j := f.Index(col)
	if j < 0 {
		return nil, fmt.Errorf("column %q: %w", col, domain.ErrMissingColumn)
	}
	out := make([]float64, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[j]
	}
	return out, nil
}

// Select projects the frame onto cols, in that order.
func (f *Frame) Select(cols []string) (*Frame, error) {
	pos := make([]int, len(cols))
	for k, c := range cols {
		if pos[k] = f.Index(c); pos[k] < 0 {
			return nil, fmt.Errorf("select %q: %w", c, domain.ErrMissingColumn)
		}
	}
	out := &Frame{Columns: append([]string(nil), cols...), Rows: make([][]float64, len(f.Rows))}
	for i, r := range f.Rows {
		row := make([]float64, len(cols))
		for k, j := range pos {
			row[k] = r[j]
		}
		out.Rows[i] = row
	}
	return out, nil
}

// Take returns a frame holding the given rows, sharing row storage.
func (f *Frame) Take(idx []int) *Frame {
	out := &Frame{Columns: f.Columns, Rows: make([][]float64, len(idx))}
	for k, i := range idx {
		out.Rows[k] = f.Rows[i]
	}
	return out
}
