// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"fmt"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/mat"
)

// ZOperator describes a complex matrix in terms of the A*x operation.
type ZOperator interface {
	// Dims returns the dimensions of A.
	Dims() (r, c int)

	// MulVec computes A*x and stores the result into dst.
	MulVec(dst, x []complex128)
}

// ZMatrixOps is a ZOperator given by a dimension and a function.
type ZMatrixOps struct {
	Dim    int
	MatVec func(dst, x []complex128)
}

// Dims implements the ZOperator interface.
func (m ZMatrixOps) Dims() (r, c int) { return m.Dim, m.Dim }

// MulVec implements the ZOperator interface.
func (m ZMatrixOps) MulVec(dst, x []complex128) { m.MatVec(dst, x) }

// CDense returns a ZOperator that multiplies by the gonum matrix a.
func CDense(a *mat.CDense) ZOperator {
	return cdenseOperator{a: a}
}

type cdenseOperator struct {
	a *mat.CDense
}

func (d cdenseOperator) Dims() (r, c int) { return d.a.Dims() }

func (d cdenseOperator) MulVec(dst, x []complex128) {
	r, c := d.a.Dims()
	cblas128.Gemv(blas.NoTrans, 1, d.a.RawCMatrix(),
		cblas128.Vector{N: c, Inc: 1, Data: x},
		0, cblas128.Vector{N: r, Inc: 1, Data: dst})
}

// ZSettings holds settings for solving a complex linear system. The fields
// have the same meaning as in Settings.
type ZSettings struct {
	X0            []complex128
	Tolerance     float64
	MaxIterations int
}

// ZGMRES holds the parameters of GMRES for complex systems. The fields have
// the same meaning as in GMRES.
type ZGMRES struct {
	Restart            int
	Orthogonalization  Orthogonalization
	Reorthogonalize    bool
	BreakdownTolerance float64
}

// ZResult holds the result of a complex solve.
type ZResult struct {
	X     []complex128
	Stats Stats
}

// ZLinearSolve solves the complex system of n linear equations
//  A*x = b
// by restarted GMRES without preconditioning. Inner products are
// conjugate-linear in the basis vector,
//  h_ij = sum_k conj(v_i[k]) * w[k].
// Errors and the reported statistics are as in LinearSolve.
func ZLinearSolve(a ZOperator, b []complex128, g ZGMRES, settings ZSettings) (ZResult, error) {
	stats := Stats{StartTime: time.Now()}

	if a == nil {
		return ZResult{Stats: stats}, ErrNilOperator
	}
	dim := len(b)
	r, c := a.Dims()
	switch {
	case r != c:
		return ZResult{Stats: stats}, fmt.Errorf("%w: operator is %d×%d", ErrDimensionMismatch, r, c)
	case r != dim:
		return ZResult{Stats: stats}, fmt.Errorf("%w: operator is %d×%d, len(b) = %d", ErrDimensionMismatch, r, c, dim)
	case settings.X0 != nil && len(settings.X0) != dim:
		return ZResult{Stats: stats}, fmt.Errorf("%w: len(X0) = %d, want %d", ErrDimensionMismatch, len(settings.X0), dim)
	}
	if dim == 0 {
		stats.Converged = true
		stats.Status = Converged
		return ZResult{X: []complex128{}, Stats: stats}, nil
	}

	tol := settings.Tolerance
	if tol == 0 {
		tol = 1e-8
	}
	if tol < dlamchE || 1 <= tol {
		return ZResult{Stats: stats}, fmt.Errorf("%w: %v", ErrInvalidTolerance, tol)
	}
	maxIter := settings.MaxIterations
	switch {
	case maxIter < 0:
		return ZResult{Stats: stats}, fmt.Errorf("%w: %d", ErrInvalidMaxIterations, maxIter)
	case maxIter == 0:
		maxIter = 2 * dim
	}
	if g.Restart < 0 {
		return ZResult{Stats: stats}, fmt.Errorf("%w: %d", ErrInvalidRestart, g.Restart)
	}
	bdTol := g.BreakdownTolerance
	switch {
	case bdTol < 0 || 1 <= bdTol:
		return ZResult{Stats: stats}, fmt.Errorf("%w: %v", ErrInvalidBreakdownTolerance, bdTol)
	case bdTol == 0:
		bdTol = defaultBreakdownTol
	}
	m := g.Restart
	if m == 0 || dim < m {
		m = dim
	}

	x := make([]complex128, dim)
	res := make([]complex128, dim)
	if settings.X0 != nil {
		copy(x, settings.X0)
		a.MulVec(res, x)
		stats.MatVec++
		cmplxs.AddScaledTo(res, b, -1, res)
	} else {
		copy(res, b)
	}
	bnorm := cmplxs.Norm(b, 2)
	if bnorm == 0 {
		bnorm = 1
	}
	rnorm := cmplxs.Norm(res, 2)
	stats.ResidualNorm = rnorm
	stats.ResidualHistory = append(stats.ResidualHistory, rnorm)
	if rnorm <= tol*bnorm {
		stats.Converged = true
		stats.Status = Converged
		stats.Runtime = time.Since(stats.StartTime)
		return ZResult{X: x, Stats: stats}, nil
	}

	ws := newZWorkspace(dim, m)
	for {
		breakdown := ws.cycle(a, res, rnorm, tol*bnorm, maxIter-stats.Iterations, bdTol, g, &stats)
		ws.update(x)
		a.MulVec(res, x)
		stats.MatVec++
		cmplxs.AddScaledTo(res, b, -1, res)
		rnorm = cmplxs.Norm(res, 2)
		stats.ResidualNorm = rnorm
		stats.ResidualHistory[len(stats.ResidualHistory)-1] = rnorm
		if breakdown {
			stats.Breakdown = true
		}

		if rnorm <= tol*bnorm {
			stats.Converged = true
			stats.Status = Converged
			break
		}
		if breakdown {
			stats.Status = Breakdown
			break
		}
		if stats.Iterations >= maxIter {
			stats.Status = IterationLimit
			break
		}
		stats.Restarts++
	}
	stats.Runtime = time.Since(stats.StartTime)
	return ZResult{X: x, Stats: stats}, nil
}

type zworkspace struct {
	n, m, ldh int
	k         int // Number of columns in the last least-squares problem.

	v    []complex128
	h    []complex128
	s    []complex128
	y    []complex128
	w    []complex128
	work []complex128
	givs []zgivens
}

func newZWorkspace(n, m int) *zworkspace {
	return &zworkspace{
		n:    n,
		m:    m,
		ldh:  m + 1,
		v:    make([]complex128, (m+1)*n),
		h:    make([]complex128, (m+1)*m),
		s:    make([]complex128, m+1),
		y:    make([]complex128, m),
		w:    make([]complex128, n),
		work: make([]complex128, m),
		givs: make([]zgivens, m),
	}
}

// cycle runs at most min(m, limit) Arnoldi steps starting from the residual
// res and reports whether a breakdown occurred. It appends the residual
// estimate of every step to the history.
func (ws *zworkspace) cycle(a ZOperator, res []complex128, rnorm, target float64, limit int, bdTol float64, g ZGMRES, stats *Stats) (breakdown bool) {
	n := ws.n
	cmplxs.ScaleTo(ws.v[:n], complex(1/rnorm, 0), res)
	for i := range ws.s {
		ws.s[i] = 0
	}
	ws.s[0] = complex(rnorm, 0)

	for i := 0; i < ws.m && i < limit; i++ {
		a.MulVec(ws.w, ws.v[i*n:i*n+n])
		stats.MatVec++

		hi := ws.h[i*ws.ldh : i*ws.ldh+ws.ldh]
		before, after := zorthogonalize(ws.w, ws.v, n, i+1, hi, ws.work, g.Orthogonalization, g.Reorthogonalize)
		if after <= bdTol*before {
			hi[i+1] = 0
			breakdown = true
		} else {
			hi[i+1] = complex(after, 0)
			cmplxs.ScaleTo(ws.v[(i+1)*n:(i+2)*n], complex(1/after, 0), ws.w)
		}

		for j := 0; j < i; j++ {
			hi[j], hi[j+1] = zrotvec(hi[j], hi[j+1], ws.givs[j])
		}
		ws.givs[i] = zrotg(hi[i], hi[i+1])
		hi[i], hi[i+1] = zrotvec(hi[i], hi[i+1], ws.givs[i])
		ws.s[i], ws.s[i+1] = zrotvec(ws.s[i], ws.s[i+1], ws.givs[i])

		ws.k = i + 1
		if breakdown && cmplx.Abs(hi[i]) <= bdTol*before {
			ws.k = i
		}
		est := cmplx.Abs(ws.s[i+1])
		stats.Iterations++
		stats.ResidualHistory = append(stats.ResidualHistory, est)
		if breakdown || est <= target {
			return breakdown
		}
	}
	return false
}

// update adds V_k y to x where y solves the rotated triangular system.
func (ws *zworkspace) update(x []complex128) {
	k := ws.k
	if k == 0 {
		return
	}
	y := ws.y[:k]
	copy(y, ws.s[:k])
	// H is stored by columns, so its transpose is lower triangular in
	// row-major order.
	bi := cblas128.Implementation()
	bi.Ztrsv(blas.Lower, blas.Trans, blas.NonUnit, k, ws.h, ws.ldh, y, 1)
	n := ws.n
	for j := 0; j < k; j++ {
		cmplxs.AddScaled(x, y[j], ws.v[j*n:j*n+n])
	}
}

// zorthogonalize is the complex counterpart of orthogonalize.
func zorthogonalize(w, v []complex128, n, k int, h, work []complex128, orth Orthogonalization, reorth bool) (before, after float64) {
	before = cmplxs.Norm(w, 2)
	zgramSchmidt(w, v, n, k, h[:k], orth)
	after = cmplxs.Norm(w, 2)
	if reorth && after < reorthThreshold*before {
		c := work[:k]
		zgramSchmidt(w, v, n, k, c, orth)
		cmplxs.Add(h[:k], c)
		after = cmplxs.Norm(w, 2)
	}
	return before, after
}

func zgramSchmidt(w, v []complex128, n, k int, c []complex128, orth Orthogonalization) {
	switch orth {
	case ModifiedGramSchmidt:
		for j := 0; j < k; j++ {
			vj := v[j*n : j*n+n]
			c[j] = cmplxs.Dot(vj, w)
			cmplxs.AddScaled(w, -c[j], vj)
		}
	case ClassicalGramSchmidt:
		bi := cblas128.Implementation()
		// Zgemv has no conjugate-without-transpose form, so
		// c = conj(V_k * conj(w)), then w -= V_k^T * c with V_k stored
		// by rows.
		conj(w)
		bi.Zgemv(blas.NoTrans, k, n, 1, v, n, w, 1, 0, c, 1)
		conj(w)
		conj(c)
		bi.Zgemv(blas.Trans, k, n, -1, v, n, c, 1, 1, w, 1)
	default:
		panic("krylov: invalid orthogonalization")
	}
}

func conj(s []complex128) {
	for i, v := range s {
		s[i] = cmplx.Conj(v)
	}
}
