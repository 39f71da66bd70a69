// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
)

// GMRES implements the restarted Generalized Minimal RESidual method with
// right preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a general non-singular matrix.
//
// In each cycle GMRES builds an orthonormal basis V of the Krylov subspace
// generated by A M^{-1} and the current residual, and minimizes the residual
// over x + M^{-1} V y. The residual norm is tracked by Givens rotations without
// forming x, which is computed only at the end of a cycle. At that point the
// true residual is computed and checked, so Stats.ResidualNorm of a converged
// solve is the norm of b - A x.
//
// GMRES needs MatVec and PSolve matrix operations.
type GMRES struct {
	// Restart is the restart parameter.
	// It must be 0 <= Restart. If it is 0
	// or larger than dim, dim is used.
	Restart int

	// Orthogonalization is the Gram-Schmidt
	// variant of the Arnoldi process.
	// The zero value is ModifiedGramSchmidt.
	Orthogonalization Orthogonalization

	// Reorthogonalize enables a second
	// Gram-Schmidt pass when cancellation
	// is detected.
	Reorthogonalize bool

	// BreakdownTolerance is the relative
	// size of the new Arnoldi vector below
	// which the subspace is considered
	// invariant. If it is 0, 1e-12 is used.
	BreakdownTolerance float64

	m, n   int
	resume int
	i      int // Counter for inner iterations.

	breakdown bool
	colNorm   float64

	s    []float64
	y    []float64
	work []float64
	z    []float64
	w    []float64
	u    []float64

	v    []float64
	h    []float64
	ldh  int
	givs []givens
}

// Init implements the Method interface.
func (g *GMRES) Init(dim int) error {
	if dim <= 0 {
		panic("krylov: invalid dim")
	}
	if g.Restart < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRestart, g.Restart)
	}
	if g.BreakdownTolerance < 0 || 1 <= g.BreakdownTolerance {
		return fmt.Errorf("%w: %v", ErrInvalidBreakdownTolerance, g.BreakdownTolerance)
	}

	m := g.Restart
	if m == 0 || dim < m {
		m = dim
	}
	g.m = m
	g.n = dim

	g.s = reuse(g.s, m+1)
	g.y = reuse(g.y, m)
	g.work = reuse(g.work, m)
	g.z = reuse(g.z, dim)
	g.w = reuse(g.w, dim)
	g.u = reuse(g.u, dim)

	g.v = reuse(g.v, (m+1)*dim)
	g.ldh = m + 1
	g.h = reuse(g.h, g.ldh*m)
	if cap(g.givs) < m {
		g.givs = make([]givens, m)
	} else {
		g.givs = g.givs[:m]
	}

	g.resume = 1
	return nil
}

// Iterate implements the Method interface.
func (g *GMRES) Iterate(ctx *Context) (Operation, error) {
	n := g.n
	switch g.resume {
	case 1:
		// v_0 = r / |r|
		rnorm := floats.Norm(ctx.Residual, 2)
		floats.ScaleTo(g.v[:n], 1/rnorm, ctx.Residual)
		// The rotated right-hand side starts as |r| e_1.
		for i := range g.s {
			g.s[i] = 0
		}
		g.s[0] = rnorm
		g.breakdown = false
		ctx.Breakdown = false

		g.i = 0
		return g.step(ctx), nil
	case 2:
		ctx.Src = g.z
		ctx.Dst = g.w
		g.resume = 3
		// Compute A M^{-1} V[:,i].
		return MatVec, nil
	case 3:
		i := g.i
		hi := g.h[i*g.ldh : i*g.ldh+g.ldh]

		// Construct i-th column of the upper Hessenberg matrix by
		// orthogonalizing w against the first i+1 columns of V.
		before, after := orthogonalize(g.w, g.v, n, i+1, hi, g.work, g.Orthogonalization, g.Reorthogonalize)
		g.colNorm = before
		if after <= g.breakdownTol()*before {
			// The Krylov subspace is invariant, the minimizer over it
			// is the best we can get.
			hi[i+1] = 0
			g.breakdown = true
		} else {
			hi[i+1] = after // H[i+1,i] = |w|
			floats.ScaleTo(g.v[(i+1)*n:(i+2)*n], 1/after, g.w)
		}

		// Bring the new column up to date with the earlier rotations.
		for j := 0; j < i; j++ {
			hi[j], hi[j+1] = rotvec(hi[j], hi[j+1], g.givs[j])
		}
		// Eliminate H[i+1,i].
		g.givs[i] = drotg(hi[i], hi[i+1])
		hi[i], hi[i+1] = rotvec(hi[i], hi[i+1], g.givs[i])

		g.s[i], g.s[i+1] = rotvec(g.s[i], g.s[i+1], g.givs[i])
		// |s[i+1]| is the residual norm of the minimizer.
		ctx.ResidualNorm = math.Abs(g.s[i+1])
		ctx.Src = nil
		ctx.Dst = nil
		ctx.Converged = false
		g.resume = 4
		return CheckResidualNorm, nil
	case 4:
		if !ctx.Converged && !g.breakdown && !ctx.IterationLimit && g.i+1 < g.m {
			g.resume = 5
			return EndIteration, nil
		}
		// Compute the correction M^{-1} V y.
		g.combine()
		ctx.Src = g.u
		ctx.Dst = g.z
		g.resume = 6
		return PSolve, nil
	case 5:
		g.i++
		return g.step(ctx), nil
	case 6:
		floats.Add(ctx.X, g.z)
		ctx.Src = nil
		ctx.Dst = nil
		g.resume = 7
		// Compute the true residual of the new x.
		return ComputeResidual, nil
	case 7:
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		g.resume = 8
		return CheckResidualNorm, nil
	case 8:
		ctx.Breakdown = g.breakdown
		if ctx.Converged || g.breakdown || ctx.IterationLimit {
			g.resume = 0
		} else {
			g.resume = 9
		}
		return EndIteration, nil
	case 9:
		g.resume = 1
		return RestartCycle, nil

	default:
		panic("krylov: GMRES.Init not called")
	}
}

// step commands the preconditioner solve with the i-th column of V.
func (g *GMRES) step(ctx *Context) Operation {
	i := g.i
	ctx.Src = g.v[i*g.n : i*g.n+g.n]
	ctx.Dst = g.z
	g.resume = 2
	return PSolve
}

// combine solves the triangular system for y and stores V y into u.
func (g *GMRES) combine() {
	for j := range g.u {
		g.u[j] = 0
	}
	i := g.i
	k := i + 1
	if g.breakdown && math.Abs(g.h[i*g.ldh+i]) <= g.breakdownTol()*g.colNorm {
		// A is singular on the subspace. The last column of the
		// rotated H lies in the span of the previous ones, so the
		// least-squares problem is solved without it.
		k = i
	}
	if k == 0 {
		return
	}
	y := g.y[:k]
	copy(y, g.s[:k])
	// The columns of the rotated H are stored contiguously, so as a
	// row-major matrix it is the lower triangular transpose.
	bi := blas64.Implementation()
	bi.Dtrsv(blas.Lower, blas.Trans, blas.NonUnit, k, g.h, g.ldh, y, 1)
	// Compute u = V_k y where the columns of V_k are stored as rows.
	bi.Dgemv(blas.Trans, k, g.n, 1, g.v, g.n, y, 1, 0, g.u, 1)
}

func (g *GMRES) breakdownTol() float64 {
	if g.BreakdownTolerance == 0 {
		return defaultBreakdownTol
	}
	return g.BreakdownTolerance
}
