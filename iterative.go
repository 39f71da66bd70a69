// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package krylov provides Krylov subspace methods for solving linear systems
//  A x = b,
// where A is a non-singular n×n matrix available only through matrix-vector
// products.
//
// The central method is restarted GMRES: an orthonormal basis of the Krylov
// subspace span{r0, A r0, ..., A^{k-1} r0} is built by the Arnoldi process
// and the residual is minimized over x0 + span{...} by solving a small
// least-squares problem with Givens rotations. CG and BiCGSTAB are provided
// for comparison. Complex systems are solved by ZLinearSolve.
package krylov

// Operation is a request from a Method to its driver.
type Operation uint64

// Operations requested by Method.Iterate. Except for NoOperation they are
// distinct bits.
const (
	NoOperation Operation = 0

	// MatVec: store A*Context.Src into
	// Context.Dst.
	MatVec Operation = 1 << (iota - 1)

	// PSolve: solve M z = Context.Src for
	// the preconditioner M and store z
	// into Context.Dst.
	PSolve

	// ComputeResidual: store b - A*Context.X
	// into Context.Residual.
	ComputeResidual

	// CheckResidualNorm: set
	// Context.Converged from
	// Context.ResidualNorm.
	CheckResidualNorm

	// RestartCycle: the Method dropped its
	// subspace and continues from
	// Context.X and Context.Residual.
	RestartCycle

	// EndIteration: one iteration is
	// complete. After an EndIteration with
	// Context.Converged or Context.Breakdown
	// set the solve is over and the Method
	// must be initialized again.
	EndIteration
)

// Method is an iterative solver for a dim×dim system driven by reverse
// communication: instead of holding the matrix, it returns from Iterate the
// Operation it needs next and expects the driver to carry it out on the
// vectors in Context before the next call. The driver, such as LinearSolve,
// owns the matrix and the preconditioner, applies the stopping criterion and
// keeps the statistics.
type Method interface {
	// Init prepares the method for a system
	// of dimension dim, discarding any
	// previous state. It returns an error
	// for parameters that cannot be used
	// with dim.
	Init(dim int) error

	// Iterate advances the method until it
	// needs the driver and returns the
	// Operation to perform. An error
	// wrapping ErrBreakdown ends the solve
	// with Context.X as the last
	// approximation.
	Iterate(*Context) (Operation, error)
}

// Context holds the vectors exchanged between a Method and its driver. The
// driver touches only what the commanded Operation names.
type Context struct {
	// X is the approximation. It holds the initial guess before the
	// first Iterate. The Method keeps it current when it commands
	// ComputeResidual, and when it commands EndIteration while
	// Converged or IterationLimit is set.
	X []float64
	// Residual is b - A*X, initially for the initial guess.
	Residual []float64
	// ResidualNorm is the residual norm that CheckResidualNorm tests.
	// It may be an estimate, GMRES for example reads it off the
	// rotated least-squares problem.
	ResidualNorm float64
	// Converged is the outcome of the last CheckResidualNorm.
	Converged bool
	// IterationLimit is set by the driver while the last allowed
	// iteration is in progress.
	IterationLimit bool
	// Breakdown is set by the Method when its current iteration could
	// not extend the subspace. The driver stops at the next EndIteration.
	Breakdown bool

	// Src and Dst are the operands of MatVec and PSolve.
	Src, Dst []float64
}

// reuse returns a zeroed slice of length n, reusing the storage of v when
// it is large enough.
func reuse(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	v = v[:n]
	for i := range v {
		v[i] = 0
	}
	return v
}

// dlamchE is the machine epsilon.
const dlamchE = 1.0 / (1 << 53)
