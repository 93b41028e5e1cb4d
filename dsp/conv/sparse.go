package conv

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-upols/dsp/fft"
	"github.com/cwbudde/algo-upols/internal/contract"
)

// KeepFunc decides whether a dense entry is stored in a sparse matrix.
type KeepFunc[C fft.Complex] func(row, col int, v C) bool

// KeepNonZero keeps every entry that is not exactly zero.
func KeepNonZero[C fft.Complex](_, _ int, v C) bool { return v != 0 }

// SparseMatrixT is a compressed sparse row (CSR) matrix.
//
// Row r occupies columnIndices[rowOffsets[r]:rowOffsets[r+1]] and the same
// range of values. Column indices are strictly increasing within a row.
type SparseMatrixT[C fft.Complex] struct {
	rows          int
	cols          int
	rowOffsets    []int
	columnIndices []int
	values        []C
}

// SparseMatrix is the complex128 specialization.
type SparseMatrix = SparseMatrixT[complex128]

// SparseMatrix32 is the complex64 specialization.
type SparseMatrix32 = SparseMatrixT[complex64]

// NewSparseMatrixT returns an empty rows x cols matrix.
func NewSparseMatrixT[C fft.Complex](rows, cols int) (*SparseMatrixT[C], error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	return &SparseMatrixT[C]{
		rows:       rows,
		cols:       cols,
		rowOffsets: make([]int, rows+1),
	}, nil
}

// BuildSparseT converts a dense [rows][cols] matrix, storing the entries
// keep accepts. All rows must have the same length.
func BuildSparseT[C fft.Complex](dense [][]C, keep KeepFunc[C]) (*SparseMatrixT[C], error) {
	cols := 0
	if len(dense) > 0 {
		cols = len(dense[0])
	}
	for r, row := range dense {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidShape, r, len(row), cols)
		}
	}
	if keep == nil {
		keep = KeepNonZero[C]
	}

	m, err := NewSparseMatrixT[C](len(dense), cols)
	if err != nil {
		return nil, err
	}

	nnz := 0
	for r, row := range dense {
		for c, v := range row {
			if keep(r, c, v) {
				nnz++
			}
		}
		m.rowOffsets[r+1] = nnz
	}

	m.columnIndices = make([]int, 0, nnz)
	m.values = make([]C, 0, nnz)
	for r, row := range dense {
		for c, v := range row {
			if keep(r, c, v) {
				m.columnIndices = append(m.columnIndices, c)
				m.values = append(m.values, v)
			}
		}
	}

	return m, nil
}

// Rows returns the number of rows.
func (m *SparseMatrixT[C]) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *SparseMatrixT[C]) Cols() int { return m.cols }

// NNZ returns the number of stored entries.
func (m *SparseMatrixT[C]) NNZ() int { return len(m.values) }

// Density returns NNZ / (rows*cols), or 0 for an empty shape.
func (m *SparseMatrixT[C]) Density() float64 {
	if m.rows == 0 || m.cols == 0 {
		return 0
	}
	return float64(len(m.values)) / float64(m.rows*m.cols)
}

// Row returns the stored columns and values of row r.
// The slices alias the matrix and must not be modified.
func (m *SparseMatrixT[C]) Row(r int) ([]int, []C) {
	start, end := m.rowOffsets[r], m.rowOffsets[r+1]
	return m.columnIndices[start:end:end], m.values[start:end:end]
}

// At returns the entry at (r, c), or 0 if it is not stored.
func (m *SparseMatrixT[C]) At(r, c int) C {
	if r < 0 || r >= m.rows {
		return 0
	}
	cols, vals := m.Row(r)
	if i, ok := slices.BinarySearch(cols, c); ok {
		return vals[i]
	}
	return 0
}

// Insert stores v at (r, c), overwriting an existing entry.
func (m *SparseMatrixT[C]) Insert(r, c int, v C) error {
	if err := m.checkIndex(r, c); err != nil {
		return err
	}

	start, end := m.rowOffsets[r], m.rowOffsets[r+1]
	i, found := slices.BinarySearch(m.columnIndices[start:end], c)
	pos := start + i
	if found {
		m.values[pos] = v
		return nil
	}

	m.columnIndices = slices.Insert(m.columnIndices, pos, c)
	m.values = slices.Insert(m.values, pos, v)
	m.shiftOffsets(r, 1)
	return nil
}

// InsertRow merges the entries (cols[i], vals[i]) into row r. cols must be
// strictly increasing; entries already present are overwritten.
func (m *SparseMatrixT[C]) InsertRow(r int, cols []int, vals []C) error {
	if len(cols) != len(vals) {
		return fmt.Errorf("%w: %d columns, %d values", ErrLengthMismatch, len(cols), len(vals))
	}
	for i, c := range cols {
		if err := m.checkIndex(r, c); err != nil {
			return err
		}
		if i > 0 && cols[i-1] >= c {
			return fmt.Errorf("%w: columns not strictly increasing at %d", ErrInvalidShape, i)
		}
	}

	oldCols, oldVals := m.Row(r)
	mergedCols := make([]int, 0, len(oldCols)+len(cols))
	mergedVals := make([]C, 0, len(oldCols)+len(cols))

	i, j := 0, 0
	for i < len(oldCols) || j < len(cols) {
		switch {
		case j == len(cols) || (i < len(oldCols) && oldCols[i] < cols[j]):
			mergedCols = append(mergedCols, oldCols[i])
			mergedVals = append(mergedVals, oldVals[i])
			i++
		case i == len(oldCols) || cols[j] < oldCols[i]:
			mergedCols = append(mergedCols, cols[j])
			mergedVals = append(mergedVals, vals[j])
			j++
		default:
			mergedCols = append(mergedCols, cols[j])
			mergedVals = append(mergedVals, vals[j])
			i++
			j++
		}
	}

	start, end := m.rowOffsets[r], m.rowOffsets[r+1]
	m.columnIndices = slices.Replace(m.columnIndices, start, end, mergedCols...)
	m.values = slices.Replace(m.values, start, end, mergedVals...)
	m.shiftOffsets(r, len(mergedCols)-(end-start))
	return nil
}

func (m *SparseMatrixT[C]) checkIndex(r, c int) error {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		return fmt.Errorf("%w: (%d, %d) in %dx%d", ErrIndexOutOfRange, r, c, m.rows, m.cols)
	}
	return nil
}

func (m *SparseMatrixT[C]) shiftOffsets(r, delta int) {
	for i := r + 1; i <= m.rows; i++ {
		m.rowOffsets[i] += delta
	}
}

// MultiplyAccumulate computes acc[c] += dense[c] * m[r, c] for the stored
// columns of row r only. acc and dense must hold Cols() entries.
func (m *SparseMatrixT[C]) MultiplyAccumulate(acc, dense []C, r int) {
	contract.RequireLen(len(acc), m.cols, "conv: sparse accumulator")
	contract.RequireLen(len(dense), m.cols, "conv: sparse operand")

	start, end := m.rowOffsets[r], m.rowOffsets[r+1]
	cols := m.columnIndices[start:end]
	vals := m.values[start:end]
	for i, c := range cols {
		acc[c] += dense[c] * vals[i]
	}
}

// SchurProductAccumulate walks a and b row by row and adds the product of
// every entry stored in both at the same (row, col) to acc[col].
// a and b must have the same shape and acc must hold Cols() entries.
func SchurProductAccumulate[C fft.Complex](acc []C, a, b *SparseMatrixT[C]) {
	contract.Require(a.rows == b.rows && a.cols == b.cols, "conv: schur product shape mismatch")
	contract.RequireLen(len(acc), a.cols, "conv: schur accumulator")

	for r := range a.rows {
		aCols, aVals := a.Row(r)
		bCols, bVals := b.Row(r)

		i, j := 0, 0
		for i < len(aCols) && j < len(bCols) {
			switch {
			case aCols[i] < bCols[j]:
				i++
			case aCols[i] > bCols[j]:
				j++
			default:
				acc[aCols[i]] += aVals[i] * bVals[j]
				i++
				j++
			}
		}
	}
}
