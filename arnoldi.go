// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Orthogonalization specifies the Gram-Schmidt variant used by the Arnoldi
// process.
type Orthogonalization int

const (
	// ModifiedGramSchmidt subtracts the projections one basis vector at a
	// time.
	ModifiedGramSchmidt Orthogonalization = iota
	// ClassicalGramSchmidt computes all projections from the same vector
	// and subtracts them at once using level 2 BLAS.
	ClassicalGramSchmidt
)

func (o Orthogonalization) String() string {
	switch o {
	case ModifiedGramSchmidt:
		return "MGS"
	case ClassicalGramSchmidt:
		return "CGS"
	}
	return fmt.Sprintf("Orthogonalization(%d)", int(o))
}

const (
	// reorthThreshold is the factor by which the norm of w must drop in
	// an orthogonalization pass for a second pass to be done.
	reorthThreshold = 0.7

	defaultBreakdownTol = 1e-12
)

// orthogonalize orthogonalizes w of length n against the first k rows of v,
// each of which holds one basis vector of length n, and stores the
// projection coefficients into h[:k]. If reorth is true, a second pass is
// done when the norm of w drops below reorthThreshold times its initial
// norm, and its coefficients are added to h. work must have length at least
// k. orthogonalize returns the norm of w before and after.
func orthogonalize(w, v []float64, n, k int, h, work []float64, orth Orthogonalization, reorth bool) (before, after float64) {
	before = floats.Norm(w, 2)
	gramSchmidt(w, v, n, k, h[:k], orth)
	after = floats.Norm(w, 2)
	if reorth && after < reorthThreshold*before {
		c := work[:k]
		gramSchmidt(w, v, n, k, c, orth)
		floats.Add(h[:k], c)
		after = floats.Norm(w, 2)
	}
	return before, after
}

func gramSchmidt(w, v []float64, n, k int, c []float64, orth Orthogonalization) {
	switch orth {
	case ModifiedGramSchmidt:
		for j := 0; j < k; j++ {
			vj := v[j*n : j*n+n]
			c[j] = floats.Dot(vj, w)
			floats.AddScaled(w, -c[j], vj)
		}
	case ClassicalGramSchmidt:
		bi := blas64.Implementation()
		// c = V_k * w, w -= V_k^T * c with V_k stored by rows.
		bi.Dgemv(blas.NoTrans, k, n, 1, v, n, w, 1, 0, c, 1)
		bi.Dgemv(blas.Trans, k, n, -1, v, n, c, 1, 1, w, 1)
	default:
		panic("krylov: invalid orthogonalization")
	}
}

// ArnoldiResult holds the output of Arnoldi.
type ArnoldiResult struct {
	// Steps is the number of Arnoldi steps done.
	Steps int
	// Breakdown is true if the process stopped before k steps because
	// the Krylov subspace is invariant under A.
	Breakdown bool
	// Q holds the orthonormal basis vectors in its columns. It is
	// n×(Steps+1), or n×Steps after a breakdown.
	Q *mat.Dense
	// H is the upper Hessenberg matrix of projection coefficients such
	// that A*Q[:, :Steps] = Q*H. It is (Steps+1)×Steps, or Steps×Steps
	// after a breakdown.
	H *mat.Dense
}

// Arnoldi runs k steps of the Arnoldi process for the operator a starting
// from the direction of v, using the given orthogonalization. If reorth is
// true, a second orthogonalization pass is done when cancellation is
// detected. Arnoldi stops early if the new basis vector is numerically zero.
func Arnoldi(a Operator, v []float64, k int, orth Orthogonalization, reorth bool) (ArnoldiResult, error) {
	if a == nil {
		return ArnoldiResult{}, ErrNilOperator
	}
	r, c := a.Dims()
	n := len(v)
	switch {
	case r != c:
		return ArnoldiResult{}, fmt.Errorf("%w: operator is %d×%d", ErrDimensionMismatch, r, c)
	case r != n:
		return ArnoldiResult{}, fmt.Errorf("%w: operator is %d×%d, len(v) = %d", ErrDimensionMismatch, r, c, n)
	case k <= 0 || n < k:
		return ArnoldiResult{}, fmt.Errorf("%w: %d for dimension %d", ErrInvalidSteps, k, n)
	}
	vnorm := floats.Norm(v, 2)
	if vnorm == 0 {
		return ArnoldiResult{}, ErrZeroVector
	}

	ldh := k + 1
	basis := make([]float64, (k+1)*n)
	h := make([]float64, k*ldh)
	w := make([]float64, n)
	work := make([]float64, k)
	floats.ScaleTo(basis[:n], 1/vnorm, v)

	steps := 0
	breakdown := false
	for i := 0; i < k; i++ {
		a.MulVec(w, basis[i*n:i*n+n])
		hi := h[i*ldh : i*ldh+ldh]
		before, after := orthogonalize(w, basis, n, i+1, hi, work, orth, reorth)
		hi[i+1] = after
		steps++
		if after <= defaultBreakdownTol*before {
			hi[i+1] = 0
			breakdown = true
			break
		}
		floats.ScaleTo(basis[(i+1)*n:(i+2)*n], 1/after, w)
	}

	cols := steps + 1
	rows := steps + 1
	if breakdown {
		cols = steps
		rows = steps
	}
	// Row j of basis is the j-th basis vector, and row j of h is the j-th
	// column of H.
	var q, hm mat.Dense
	q.CloneFrom(mat.NewDense(cols, n, basis[:cols*n]).T())
	hm.CloneFrom(mat.NewDense(steps, ldh, h[:steps*ldh]).Slice(0, steps, 0, rows).T())
	return ArnoldiResult{
		Steps:     steps,
		Breakdown: breakdown,
		Q:         &q,
		H:         &hm,
	}, nil
}
