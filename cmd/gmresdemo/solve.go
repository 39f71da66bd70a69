// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/TrymSaether/krylov"
	"github.com/TrymSaether/krylov/internal/market"
	"github.com/TrymSaether/krylov/internal/testmat"
	"github.com/TrymSaether/krylov/internal/triplet"
)

// maxReferenceDim is the largest dimension for which the dense LU
// reference solution is computed.
const maxReferenceDim = 2000

// problem is a linear system A x = b.
type problem struct {
	name      string
	a         *triplet.Matrix
	b         []float64
	symmetric bool
}

// loadProblem reads the system named by cfg or generates the perturbed
// Poisson system. Without a right-hand side file b = A*[1,...,1].
func loadProblem(cfg Config) (problem, error) {
	var p problem
	if cfg.Matrix != "" {
		a, h, err := market.ReadMatrixFile(cfg.Matrix)
		if err != nil {
			return p, err
		}
		r, c := a.Dims()
		if r != c {
			return p, fmt.Errorf("%w: matrix %s is %d×%d", krylov.ErrDimensionMismatch, cfg.Matrix, r, c)
		}
		p.name = filepath.Base(cfg.Matrix)
		p.a = a
		p.symmetric = h.Symmetry == "symmetric" || a.IsSymmetric(0)
	} else {
		p.name = fmt.Sprintf("perturbed Poisson n=%d density=%g seed=%d", cfg.N, cfg.Density, cfg.Seed)
		p.a = testmat.PerturbedPoisson(cfg.N, cfg.Density, cfg.Scale, cfg.Seed)
		p.symmetric = p.a.IsSymmetric(0)
	}

	n, _ := p.a.Dims()
	if cfg.RHS != "" {
		b, err := market.ReadVectorFile(cfg.RHS)
		if err != nil {
			return p, err
		}
		if len(b) != n {
			return p, fmt.Errorf("%w: matrix is %d×%d, right-hand side has length %d", krylov.ErrDimensionMismatch, n, n, len(b))
		}
		p.b = b
	} else {
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		p.b = make([]float64, n)
		p.a.MulVec(p.b, ones)
	}
	return p, nil
}

// outcome is the result of one method.
type outcome struct {
	method string
	label  string
	result krylov.Result
	// fwdErr is the maximum norm of the difference from the reference
	// solution, or NaN if there is none.
	fwdErr float64
}

// solver returns the method and settings used for the named method.
func solver(name string, cfg Config) (krylov.Method, krylov.Settings) {
	orth, _ := cfg.orthogonalization()
	settings := krylov.Settings{
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIter,
	}
	switch name {
	case methodGMRES:
		return &krylov.GMRES{
			Restart:           cfg.MaxIter,
			Orthogonalization: orth,
			Reorthogonalize:   cfg.Reorthogonalize,
		}, settings
	case methodGMRESRestarted:
		settings.MaxIterations = cfg.Restart * cfg.Cycles
		return &krylov.GMRES{
			Restart:           cfg.Restart,
			Orthogonalization: orth,
			Reorthogonalize:   cfg.Reorthogonalize,
		}, settings
	case methodBiCGSTAB:
		return &krylov.BiCGSTAB{}, settings
	case methodCG:
		return &krylov.CG{}, settings
	}
	panic("gmresdemo: unknown method " + name)
}

// solveAll runs the selected methods and the reference solve concurrently.
func solveAll(p problem, cfg Config) ([]outcome, error) {
	var methods []string
	for _, m := range cfg.Methods {
		if m == methodCG && !p.symmetric {
			logger.Info("Skipping CG for nonsymmetric matrix")
			continue
		}
		if !slices.Contains(methods, m) {
			methods = append(methods, m)
		}
	}

	outcomes := make([]outcome, len(methods))
	var ref []float64

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range methods {
		i, name := i, name
		g.Go(func() error {
			method, settings := solver(name, cfg)
			r, err := krylov.LinearSolve(p.a, p.b, method, settings)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			logger.Debug("Solve finished",
				zap.String("method", name),
				zap.Stringer("status", r.Stats.Status),
				zap.Int("iterations", r.Stats.Iterations),
				zap.Duration("runtime", r.Stats.Runtime),
			)
			outcomes[i] = outcome{method: name, label: label(name, cfg), result: r, fwdErr: math.NaN()}
			return nil
		})
	}
	if n, _ := p.a.Dims(); n <= maxReferenceDim {
		g.Go(func() error {
			var err error
			ref, err = referenceSolution(p.a, p.b)
			return err
		})
	} else {
		logger.Info("Skipping reference solution", zap.Int("n", n), zap.Int("max", maxReferenceDim))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if ref != nil {
		for i := range outcomes {
			outcomes[i].fwdErr = floats.Distance(outcomes[i].result.X, ref, math.Inf(1))
		}
	}
	return outcomes, nil
}

// referenceSolution solves A x = b by dense LU factorization.
func referenceSolution(a *triplet.Matrix, b []float64) ([]float64, error) {
	n, _ := a.Dims()
	var lu mat.LU
	lu.Factorize(a.Dense())
	var x mat.VecDense
	err := lu.SolveVecTo(&x, false, mat.NewVecDense(n, b))
	if err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("reference solution: %w", err)
		}
		logger.Warn("Reference solution is ill-conditioned", zap.Float64("condition", float64(cond)))
	}
	return x.RawVector().Data, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := loadProblem(cfg)
	if err != nil {
		return err
	}
	n, _ := p.a.Dims()
	logger.Info("Solving linear system",
		zap.String("problem", p.name),
		zap.Int("n", n),
		zap.Int("nnz", p.a.NNZ()),
		zap.Bool("symmetric", p.symmetric),
		zap.Float64("tolerance", cfg.Tolerance),
	)

	outcomes, err := solveAll(p, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := writeReport(out, p, cfg, outcomes); err != nil {
		return err
	}
	if cfg.PrintSolution && len(outcomes) > 0 {
		if err := writeSolution(out, outcomes[0]); err != nil {
			return err
		}
	}
	if cfg.Plot != "" {
		if err := plotResiduals(cfg.Plot, p.name, outcomes); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
		logger.Info("Wrote residual plot", zap.String("path", cfg.Plot))
	}
	if cfg.HTML != "" {
		if err := writeChart(cfg.HTML, p.name, outcomes); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		logger.Info("Wrote residual chart", zap.String("path", cfg.HTML))
	}
	return nil
}

func runArnoldi(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := loadProblem(cfg)
	if err != nil {
		return err
	}
	n, _ := p.a.Dims()
	orth, _ := cfg.orthogonalization()
	k := min(cfg.Steps, n)
	res, err := krylov.Arnoldi(p.a, p.b, k, orth, cfg.Reorthogonalize)
	if err != nil {
		return err
	}
	logger.Debug("Arnoldi finished", zap.Int("steps", res.Steps), zap.Bool("breakdown", res.Breakdown))

	// Loss of orthogonality |Q^T Q - I|_F.
	_, cols := res.Q.Dims()
	var qtq mat.Dense
	qtq.Mul(res.Q.T(), res.Q)
	for i := 0; i < cols; i++ {
		qtq.Set(i, i, qtq.At(i, i)-1)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Problem: %s\n", p.name)
	fmt.Fprintf(out, "Arnoldi steps: %d (%v", res.Steps, orth)
	if cfg.Reorthogonalize {
		fmt.Fprint(out, ", reorthogonalized")
	}
	fmt.Fprint(out, ")\n")
	fmt.Fprintf(out, "Breakdown: %v\n", res.Breakdown)
	fmt.Fprintf(out, "Orthogonality loss: %.3e\n", mat.Norm(&qtq, 2))
	fmt.Fprintf(out, "H = %.6g\n", mat.Formatted(res.H, mat.Prefix("    "), mat.Squeeze()))
	return nil
}
