// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package triplet implements a sparse matrix in coordinate format.
package triplet

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// ErrIndexOutOfRange is returned when an entry lies outside the matrix.
var ErrIndexOutOfRange = errors.New("triplet: index out of range")

type triplet struct {
	i, j int
	v    float64
}

// Matrix is a sparse matrix stored as a list of (i, j, v) entries.
// Duplicate entries are summed.
type Matrix struct {
	r, c int
	data []triplet
}

// New returns an empty r×c matrix.
func New(r, c int) *Matrix {
	if r < 0 || c < 0 {
		panic("triplet: negative dimension")
	}
	return &Matrix{
		r: r,
		c: c,
	}
}

// Dims returns the dimensions of the matrix.
func (m *Matrix) Dims() (r, c int) {
	return m.r, m.c
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.data)
}

// Append adds v to the element at row i and column j.
func (m *Matrix) Append(i, j int, v float64) error {
	if i < 0 || m.r <= i || j < 0 || m.c <= j {
		return fmt.Errorf("%w: (%d, %d) in %d×%d", ErrIndexOutOfRange, i, j, m.r, m.c)
	}
	m.data = append(m.data, triplet{i, j, v})
	return nil
}

// Do calls fn for each stored entry in insertion order.
func (m *Matrix) Do(fn func(i, j int, v float64)) {
	for _, aij := range m.data {
		fn(aij.i, aij.j, aij.v)
	}
}

// MulVec computes A*x and stores the result into dst.
func (m *Matrix) MulVec(dst, x []float64) {
	if m.c != len(x) {
		panic("triplet: dimension mismatch")
	}
	if m.r != len(dst) {
		panic("triplet: dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, aij := range m.data {
		dst[aij.i] += aij.v * x[aij.j]
	}
}

// Dense returns the matrix as a dense gonum matrix.
func (m *Matrix) Dense() *mat.Dense {
	if m.r == 0 || m.c == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.r, m.c, nil)
	for _, aij := range m.data {
		d.Set(aij.i, aij.j, d.At(aij.i, aij.j)+aij.v)
	}
	return d
}

// IsSymmetric reports whether the matrix is square and equal to its
// transpose within tol, absolute or relative. Duplicate entries are summed
// before the comparison, and the matrix is never densified.
func (m *Matrix) IsSymmetric(tol float64) bool {
	if m.r != m.c {
		return false
	}
	sum := make(map[[2]int]float64, len(m.data))
	for _, aij := range m.data {
		sum[[2]int{aij.i, aij.j}] += aij.v
	}
	for k, v := range sum {
		if k[0] == k[1] {
			continue
		}
		// A missing mirror entry reads as zero.
		if !scalar.EqualWithinAbsOrRel(v, sum[[2]int{k[1], k[0]}], tol, tol) {
			return false
		}
	}
	return true
}
