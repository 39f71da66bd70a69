// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// BiCGSTAB implements the BiConjugate Gradient STABilized method of van der
// Vorst with right preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a general non-singular matrix. It needs storage for six vectors
// regardless of the number of iterations, but its residual norm does not
// decrease monotonically and it may break down where GMRES does not.
//
// Each iteration commands two MatVec and two PSolve operations and checks
// the residual after both half steps.
type BiCGSTAB struct {
	resume int
	first  bool

	rho, rhoOld  float64
	alpha, omega float64

	shadow []float64 // Shadow residual, fixed to the initial residual.
	p      []float64 // Search direction.
	y      []float64 // M^{-1} p
	v      []float64 // A M^{-1} p
	z      []float64 // M^{-1} s
	t      []float64 // A M^{-1} s
}

// Init implements the Method interface.
func (b *BiCGSTAB) Init(dim int) error {
	if dim <= 0 {
		panic("krylov: dimension not positive")
	}
	b.shadow = reuse(b.shadow, dim)
	b.p = reuse(b.p, dim)
	b.y = reuse(b.y, dim)
	b.v = reuse(b.v, dim)
	b.z = reuse(b.z, dim)
	b.t = reuse(b.t, dim)
	b.first = true
	b.resume = 1
	return nil
}

// Iterate implements the Method interface.
//
// Between the two half steps Context.Residual holds the intermediate
// residual s = r - alpha*v, and Context.X the matching approximation.
func (b *BiCGSTAB) Iterate(ctx *Context) (Operation, error) {
	r := ctx.Residual
	switch b.resume {
	case 1:
		if b.first {
			copy(b.shadow, r)
		}
		b.rho = floats.Dot(b.shadow, r)
		if math.Abs(b.rho) < dlamchE*dlamchE {
			b.resume = 0
			return NoOperation, fmt.Errorf("%w: BiCGSTAB: rho = %v", ErrBreakdown, b.rho)
		}
		if b.first {
			copy(b.p, r)
		} else {
			// p = r + beta*(p - omega*v)
			beta := (b.rho / b.rhoOld) * (b.alpha / b.omega)
			floats.AddScaled(b.p, -b.omega, b.v)
			floats.AddScaledTo(b.p, r, beta, b.p)
		}
		ctx.Src = b.p
		ctx.Dst = b.y
		b.resume = 2
		return PSolve, nil
	case 2:
		ctx.Src = b.y
		ctx.Dst = b.v
		b.resume = 3
		return MatVec, nil
	case 3:
		sv := floats.Dot(b.shadow, b.v)
		if sv == 0 {
			b.resume = 0
			return NoOperation, fmt.Errorf("%w: BiCGSTAB: shadow residual orthogonal to A M^{-1} p", ErrBreakdown)
		}
		b.alpha = b.rho / sv
		floats.AddScaled(ctx.X, b.alpha, b.y)
		floats.AddScaled(r, -b.alpha, b.v)
		return b.check(ctx, 4), nil
	case 4:
		if ctx.Converged {
			b.resume = 0
			return EndIteration, nil
		}
		ctx.Src = r
		ctx.Dst = b.z
		b.resume = 5
		return PSolve, nil
	case 5:
		ctx.Src = b.z
		ctx.Dst = b.t
		b.resume = 6
		return MatVec, nil
	case 6:
		b.omega = 0
		if tt := floats.Dot(b.t, b.t); tt != 0 {
			b.omega = floats.Dot(b.t, r) / tt
		}
		floats.AddScaled(ctx.X, b.omega, b.z)
		floats.AddScaled(r, -b.omega, b.t)
		return b.check(ctx, 7), nil
	case 7:
		if ctx.Converged {
			b.resume = 0
			return EndIteration, nil
		}
		b.rhoOld = b.rho
		b.first = false
		b.resume = 1
		if math.Abs(b.omega) < dlamchE*dlamchE {
			// The next direction would divide by omega.
			b.resume = 8
		}
		return EndIteration, nil
	case 8:
		b.resume = 0
		return NoOperation, fmt.Errorf("%w: BiCGSTAB: omega = %v", ErrBreakdown, b.omega)

	default:
		panic("krylov: BiCGSTAB.Init not called")
	}
}

// check commands CheckResidualNorm for the current residual and resumes at
// next.
func (b *BiCGSTAB) check(ctx *Context, next int) Operation {
	ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
	ctx.Converged = false
	ctx.Src = nil
	ctx.Dst = nil
	b.resume = next
	return CheckResidualNorm
}
