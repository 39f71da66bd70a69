// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Operator describes the matrix of the
// linear system in terms of the A*x
// operation.
type Operator interface {
	// Dims returns the dimensions of A.
	Dims() (r, c int)

	// MulVec computes A*x and stores the
	// result into dst.
	MulVec(dst, x []float64)
}

// MatrixOps is an Operator given by
// a dimension and a function.
type MatrixOps struct {
	// Dim is the dimension of the
	// square matrix.
	Dim int

	// Compute A*x and store the result
	// into dst.
	// It must be non-nil.
	MatVec func(dst, x []float64)
}

// Dims implements the Operator interface.
func (m MatrixOps) Dims() (r, c int) { return m.Dim, m.Dim }

// MulVec implements the Operator interface.
func (m MatrixOps) MulVec(dst, x []float64) { m.MatVec(dst, x) }

// Dense returns an Operator that multiplies by the gonum matrix a.
func Dense(a mat.Matrix) Operator {
	return denseOperator{a: a}
}

type denseOperator struct {
	a mat.Matrix
}

func (d denseOperator) Dims() (r, c int) { return d.a.Dims() }

func (d denseOperator) MulVec(dst, x []float64) {
	r, c := d.a.Dims()
	mat.NewVecDense(r, dst).MulVec(d.a, mat.NewVecDense(c, x))
}

// Settings controls a call to
// LinearSolve. The zero value is
// usable.
type Settings struct {
	// X0 is the starting
	// approximation, the zero vector
	// when nil. Its length must match
	// the system.
	X0 []float64

	// Tolerance is the relative
	// residual reduction to reach:
	//  |r_i| <= Tolerance * |b|,
	// or |r_i| <= Tolerance for zero
	// b. It must lie in [eps, 1).
	// Zero selects 1e-8.
	Tolerance float64

	// MaxIterations caps the
	// iterations of the method, Arnoldi
	// steps for GMRES. Zero selects
	// twice the dimension.
	MaxIterations int

	// PSolve, when not nil, applies
	// the preconditioner by storing the
	// solution of
	//  M z = rhs
	// into dst. Without it M is the
	// identity.
	PSolve func(dst, rhs []float64) error
}

// DefaultSettings returns the settings used for zero fields.
func DefaultSettings() Settings {
	return Settings{
		Tolerance: 1e-8,
	}
}

func defaultSettings(s *Settings, dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-8
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 2 * dim
	}
}

// Status describes how a solve ended.
type Status int

const (
	// Failure means the solve was ended by an error.
	Failure Status = iota
	// Converged means the residual satisfies the stopping criterion.
	Converged
	// IterationLimit means MaxIterations was reached first.
	IterationLimit
	// Breakdown means the method could not extend its subspace and the
	// residual does not satisfy the stopping criterion.
	Breakdown
)

func (s Status) String() string {
	switch s {
	case Failure:
		return "failure"
	case Converged:
		return "converged"
	case IterationLimit:
		return "iteration limit"
	case Breakdown:
		return "breakdown"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of LinearSolve.
type Result struct {
	// X is the last approximation.
	X []float64
	// Stats describes how X was
	// obtained.
	Stats Stats
}

// Stats collects counters and the
// residual record of a solve.
type Stats struct {
	// Iterations counts completed
	// iterations, Arnoldi steps for
	// GMRES.
	Iterations int
	// Restarts counts GMRES cycles
	// after the first.
	Restarts int
	// MatVec counts products with A,
	// residual computations included.
	MatVec int
	// PSolve counts preconditioner
	// solves.
	PSolve int
	// ResidualNorm is the last residual
	// norm seen by the driver. For GMRES
	// it is the norm of b - A*X.
	ResidualNorm float64
	// ResidualHistory starts with the
	// initial residual norm and gets one
	// entry per iteration.
	ResidualHistory []float64
	// Converged reports whether the
	// stopping criterion was met.
	Converged bool
	// Breakdown reports whether the
	// method ran out of directions,
	// converged or not.
	Breakdown bool
	// Status summarizes the end of the
	// solve.
	Status Status
	// StartTime and Runtime are wall
	// clock measurements of the solve.
	StartTime time.Time
	Runtime   time.Duration
}

// LinearSolve solves the n×n system
//  A*x = b
// with the iterative method, asking a for the products method commands.
// method must not be nil and is reinitialized, so a value can serve several
// solves. Zero fields of settings take their default values.
//
// A solve that stops at the iteration limit or on a breakdown is not an
// error, Result.Stats.Status tells how it ended. LinearSolve returns an error
// for malformed input, before any product with a is computed, and when the
// preconditioner fails.
func LinearSolve(a Operator, b []float64, method Method, settings Settings) (Result, error) {
	stats := Stats{StartTime: time.Now()}

	if a == nil {
		return Result{Stats: stats}, ErrNilOperator
	}
	if method == nil {
		panic("krylov: nil method")
	}
	dim := len(b)
	r, c := a.Dims()
	switch {
	case r != c:
		return Result{Stats: stats}, fmt.Errorf("%w: operator is %d×%d", ErrDimensionMismatch, r, c)
	case r != dim:
		return Result{Stats: stats}, fmt.Errorf("%w: operator is %d×%d, len(b) = %d", ErrDimensionMismatch, r, c, dim)
	case settings.X0 != nil && len(settings.X0) != dim:
		return Result{Stats: stats}, fmt.Errorf("%w: len(X0) = %d, want %d", ErrDimensionMismatch, len(settings.X0), dim)
	}

	if dim == 0 {
		stats.Converged = true
		stats.Status = Converged
		return Result{X: []float64{}, Stats: stats}, nil
	}

	defaultSettings(&settings, dim)
	if settings.Tolerance < dlamchE || 1 <= settings.Tolerance {
		return Result{Stats: stats}, fmt.Errorf("%w: %v", ErrInvalidTolerance, settings.Tolerance)
	}
	if settings.MaxIterations < 0 {
		return Result{Stats: stats}, fmt.Errorf("%w: %d", ErrInvalidMaxIterations, settings.MaxIterations)
	}
	if err := method.Init(dim); err != nil {
		return Result{Stats: stats}, err
	}

	ctx := &Context{
		X:        make([]float64, dim),
		Residual: make([]float64, dim),
	}
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		a.MulVec(ctx.Residual, ctx.X)
		stats.MatVec++
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax
	} else {
		copy(ctx.Residual, b) // r = b
	}

	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		bnorm = 1
	}
	ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
	stats.ResidualNorm = ctx.ResidualNorm
	stats.ResidualHistory = append(stats.ResidualHistory, ctx.ResidualNorm)

	var err error
	if ctx.ResidualNorm <= settings.Tolerance*bnorm {
		stats.Converged = true
		stats.Status = Converged
	} else {
		err = iterate(a, b, bnorm, ctx, settings, method, &stats)
	}

	stats.Runtime = time.Since(stats.StartTime)
	return Result{
		X:     ctx.X,
		Stats: stats,
	}, err
}

func iterate(a Operator, b []float64, bnorm float64, ctx *Context, settings Settings, method Method, stats *Stats) error {
	ctx.IterationLimit = settings.MaxIterations == 1

	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			if errors.Is(err, ErrBreakdown) {
				stats.Breakdown = true
				stats.Status = Breakdown
				return nil
			}
			return err
		}

		switch op {
		case NoOperation:

		case ComputeResidual:
			a.MulVec(ctx.Residual, ctx.X)
			stats.MatVec++
			floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual)

		case MatVec:
			a.MulVec(ctx.Dst, ctx.Src)
			stats.MatVec++

		case PSolve:
			if settings.PSolve == nil {
				copy(ctx.Dst, ctx.Src)
				continue
			}
			err = settings.PSolve(ctx.Dst, ctx.Src)
			if err != nil {
				return fmt.Errorf("krylov: preconditioner solve: %w", err)
			}
			stats.PSolve++

		case CheckResidualNorm:
			ctx.Converged = ctx.ResidualNorm <= settings.Tolerance*bnorm

		case RestartCycle:
			stats.Restarts++

		case EndIteration:
			stats.Iterations++
			stats.ResidualNorm = ctx.ResidualNorm
			stats.ResidualHistory = append(stats.ResidualHistory, ctx.ResidualNorm)
			if ctx.Breakdown {
				stats.Breakdown = true
			}
			switch {
			case ctx.Converged:
				stats.Converged = true
				stats.Status = Converged
				return nil
			case ctx.Breakdown:
				stats.Status = Breakdown
				return nil
			case stats.Iterations >= settings.MaxIterations:
				stats.Status = IterationLimit
				return nil
			}
			ctx.IterationLimit = stats.Iterations+1 == settings.MaxIterations

		default:
			panic("krylov: invalid operation")
		}
	}
}
