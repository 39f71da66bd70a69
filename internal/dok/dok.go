// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dok implements a dictionary-of-keys sparse matrix for assembling
// matrices entry by entry.
package dok

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/TrymSaether/krylov/internal/triplet"
)

// ErrIndexOutOfRange is returned when an index lies outside the matrix.
var ErrIndexOutOfRange = errors.New("dok: index out of range")

// DOK is a sparse matrix that maps indices to values.
type DOK struct {
	Rows, Cols int

	data map[index]float64
}

type index struct {
	row, col int
}

// New returns an empty r×c matrix.
func New(r, c int) *DOK {
	return &DOK{
		Rows: r,
		Cols: c,
		data: make(map[index]float64),
	}
}

func (m *DOK) check(i, j int) error {
	if i < 0 || m.Rows <= i || j < 0 || m.Cols <= j {
		return fmt.Errorf("%w: (%d, %d) in %d×%d", ErrIndexOutOfRange, i, j, m.Rows, m.Cols)
	}
	return nil
}

// At returns the element at row i and column j. It panics if the indices
// are out of range.
func (m *DOK) At(i, j int) float64 {
	if err := m.check(i, j); err != nil {
		panic(err)
	}
	return m.data[index{i, j}]
}

// Has reports whether the element at row i and column j is stored.
func (m *DOK) Has(i, j int) bool {
	_, ok := m.data[index{i, j}]
	return ok
}

// SetAt sets the element at row i and column j to v.
func (m *DOK) SetAt(i, j int, v float64) error {
	if err := m.check(i, j); err != nil {
		return err
	}
	m.data[index{i, j}] = v
	return nil
}

// AddAt adds v to the element at row i and column j.
func (m *DOK) AddAt(i, j int, v float64) error {
	if err := m.check(i, j); err != nil {
		return err
	}
	m.data[index{i, j}] += v
	return nil
}

// NNZ returns the number of stored elements.
func (m *DOK) NNZ() int {
	return len(m.data)
}

// MulVec computes A*x and stores the result into dst.
func (m *DOK) MulVec(dst, x []float64) {
	if m.Cols != len(x) {
		panic("dok: dimension mismatch")
	}
	if m.Rows != len(dst) {
		panic("dok: dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for ij, aij := range m.data {
		dst[ij.row] += aij * x[ij.col]
	}
}

// Triplet returns the matrix in coordinate format with the entries sorted by
// row and then by column, so that products do not depend on map order.
func (m *DOK) Triplet() *triplet.Matrix {
	keys := make([]index, 0, len(m.data))
	for ij := range m.data {
		keys = append(keys, ij)
	}
	slices.SortFunc(keys, func(a, b index) int {
		if c := cmp.Compare(a.row, b.row); c != 0 {
			return c
		}
		return cmp.Compare(a.col, b.col)
	})
	t := triplet.New(m.Rows, m.Cols)
	for _, ij := range keys {
		// Keys were checked on insertion.
		_ = t.Append(ij.row, ij.col, m.data[ij])
	}
	return t
}
