// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import "errors"

var (
	// ErrDimensionMismatch is returned when the operator is not square or
	// when the lengths of b or X0 do not match its dimension. It is
	// returned before any operator product is performed.
	ErrDimensionMismatch = errors.New("krylov: dimension mismatch")

	// ErrNilOperator is returned when the operator is nil.
	ErrNilOperator = errors.New("krylov: nil operator")

	// ErrInvalidTolerance is returned when the tolerance is not in
	// [eps, 1).
	ErrInvalidTolerance = errors.New("krylov: invalid tolerance")

	// ErrInvalidMaxIterations is returned for a negative iteration limit.
	ErrInvalidMaxIterations = errors.New("krylov: invalid iteration limit")

	// ErrInvalidRestart is returned for a negative GMRES restart length.
	ErrInvalidRestart = errors.New("krylov: invalid restart length")

	// ErrInvalidBreakdownTolerance is returned when a GMRES breakdown
	// tolerance is not in [0, 1).
	ErrInvalidBreakdownTolerance = errors.New("krylov: invalid breakdown tolerance")

	// ErrInvalidSteps is returned by Arnoldi when the number of steps is
	// not in [1, n].
	ErrInvalidSteps = errors.New("krylov: invalid number of Arnoldi steps")

	// ErrZeroVector is returned by Arnoldi for a zero start vector.
	ErrZeroVector = errors.New("krylov: zero start vector")

	// ErrBreakdown is returned by a Method from Iterate when it cannot
	// continue. LinearSolve does not return it; it ends the solve with
	// Stats.Status set to Breakdown instead.
	ErrBreakdown = errors.New("krylov: breakdown")
)
