// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/floats"

	"github.com/TrymSaether/krylov/internal/testmat"
)

func TestGMRES(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, tc := range []testCase{
		randomSPD(1, rnd),
		randomSPD(2, rnd),
		randomSPD(3, rnd),
		randomSPD(4, rnd),
		randomSPD(5, rnd),
		randomSPD(10, rnd),
		randomSPD(20, rnd),
		randomSPD(50, rnd),
		randomSPD(100, rnd),
		randomNonsymmetric(10, rnd),
		randomNonsymmetric(50, rnd),
		randomNonsymmetric(200, rnd),
		perturbedPoisson(50, 42),
		perturbedPoisson(100, 42),
		market("convdiff20", 1e-6),
		market("poisson4x4", 1e-8),
	} {
		for _, orth := range []struct {
			Orthogonalization
			reorth bool
		}{
			{ModifiedGramSchmidt, false},
			{ModifiedGramSchmidt, true},
			{ClassicalGramSchmidt, true},
		} {
			n := tc.n
			b, want := onesRHS(tc.a, n)
			g := &GMRES{Orthogonalization: orth.Orthogonalization, Reorthogonalize: orth.reorth}
			r, err := LinearSolve(tc.a, b, g, Settings{
				MaxIterations: tc.iters,
				Tolerance:     1e-10,
			})
			if err != nil {
				t.Errorf("Case %v (n=%v, %v): unexpected error %v", tc.name, n, orth, err)
				continue
			}
			if r.Stats.Status != Converged {
				t.Errorf("Case %v (n=%v, %v): unexpected status %v", tc.name, n, orth, r.Stats.Status)
				continue
			}
			dist := floats.Distance(r.X, want, math.Inf(1))
			if dist > tc.tol {
				t.Errorf("Case %v (n=%v, %v): unexpected solution, |want-got|=%v", tc.name, n, orth, dist)
			}
		}
	}
}

func TestGMRESConvergedResidual(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{3, 10, 40, 100} {
		a := Dense(testmat.RandomSPD(n, rnd))
		b := make([]float64, n)
		for i := range b {
			b[i] = rnd.NormFloat64()
		}
		for _, tol := range []float64{1e-4, 1e-8, 1e-12} {
			r, err := LinearSolve(a, b, &GMRES{Restart: 5}, Settings{Tolerance: tol, MaxIterations: 10 * n})
			if err != nil {
				t.Fatalf("n=%v, tol=%v: unexpected error %v", n, tol, err)
			}
			if !r.Stats.Converged {
				t.Errorf("n=%v, tol=%v: not converged, status %v", n, tol, r.Stats.Status)
				continue
			}
			rnorm := residualNorm(a, b, r.X)
			if rnorm > tol*floats.Norm(b, 2) {
				t.Errorf("n=%v, tol=%v: |b-Ax|/|b| = %v", n, tol, rnorm/floats.Norm(b, 2))
			}
			if rnorm != r.Stats.ResidualNorm {
				t.Errorf("n=%v, tol=%v: reported residual %v, want %v", n, tol, r.Stats.ResidualNorm, rnorm)
			}
		}
	}
}

func TestGMRESIdentity(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 5, 50} {
		a := &countingOperator{Operator: MatrixOps{
			Dim:    n,
			MatVec: func(dst, x []float64) { copy(dst, x) },
		}}
		b := make([]float64, n)
		for i := range b {
			b[i] = rnd.NormFloat64()
		}
		r, err := LinearSolve(a, b, &GMRES{}, Settings{})
		if err != nil {
			t.Fatalf("n=%v: unexpected error %v", n, err)
		}
		if !r.Stats.Converged || r.Stats.Iterations != 1 {
			t.Errorf("n=%v: got status %v after %v iterations, want convergence after 1", n, r.Stats.Status, r.Stats.Iterations)
		}
		// One Arnoldi step and one residual.
		if a.calls != 2 || r.Stats.MatVec != 2 {
			t.Errorf("n=%v: %v products, %v counted, want 2", n, a.calls, r.Stats.MatVec)
		}
		if dist := floats.Distance(r.X, b, math.Inf(1)); dist > 1e-14 {
			t.Errorf("n=%v: |b-x|=%v", n, dist)
		}
	}
}

func TestGMRESBreakdown(t *testing.T) {
	// The Krylov subspace generated by b has dimension 3 because A has
	// three distinct eigenvalues.
	d := []float64{1, 2, 4, 1, 2, 4, 4, 2, 1, 1, 2, 4}
	n := len(d)
	a := testmat.Diagonal(d)
	b := make([]float64, n)
	want := make([]float64, n)
	for i := range b {
		b[i] = 1
		want[i] = 1 / d[i]
	}
	for _, orth := range []Orthogonalization{ModifiedGramSchmidt, ClassicalGramSchmidt} {
		r, err := LinearSolve(a, b, &GMRES{Orthogonalization: orth}, Settings{Tolerance: 1e-10})
		if err != nil {
			t.Fatalf("%v: unexpected error %v", orth, err)
		}
		if r.Stats.Iterations != 3 {
			t.Errorf("%v: got %v iterations, want 3", orth, r.Stats.Iterations)
		}
		if !r.Stats.Breakdown {
			t.Errorf("%v: breakdown not detected", orth)
		}
		if r.Stats.Status != Converged {
			t.Errorf("%v: unexpected status %v", orth, r.Stats.Status)
		}
		if dist := floats.Distance(r.X, want, math.Inf(1)); dist > 1e-12 {
			t.Errorf("%v: |want-got|=%v", orth, dist)
		}
	}
}

func TestGMRESBreakdownSingular(t *testing.T) {
	// b is not in the range of A. The Krylov subspace is invariant after
	// two steps and the least-squares residual is the component of b
	// outside the range.
	a := testmat.Diagonal([]float64{1, 0})
	b := []float64{1, 1}
	r, err := LinearSolve(a, b, &GMRES{}, Settings{})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if r.Stats.Status != Breakdown || r.Stats.Converged || !r.Stats.Breakdown {
		t.Errorf("got status %v, converged %v, breakdown %v", r.Stats.Status, r.Stats.Converged, r.Stats.Breakdown)
	}
	if math.Abs(r.Stats.ResidualNorm-1) > 1e-14 {
		t.Errorf("unexpected residual norm %v", r.Stats.ResidualNorm)
	}
	if math.Abs(r.X[0]-1) > 1e-14 {
		t.Errorf("unexpected solution %v", r.X)
	}
}

func TestGMRESRestart(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, tc := range []testCase{
		randomNonsymmetric(30, rnd),
		randomNonsymmetric(60, rnd),
		randomSPD(40, rnd),
	} {
		n := tc.n
		b, _ := onesRHS(tc.a, n)
		full, err := LinearSolve(tc.a, b, &GMRES{Restart: n}, Settings{Tolerance: 1e-12, MaxIterations: 50 * n})
		if err != nil {
			t.Fatalf("Case %v: unexpected error %v", tc.name, err)
		}
		if full.Stats.Restarts != 0 {
			t.Errorf("Case %v: full GMRES restarted %v times", tc.name, full.Stats.Restarts)
		}
		for _, m := range []int{2, 5, 10} {
			r, err := LinearSolve(tc.a, b, &GMRES{Restart: m}, Settings{Tolerance: 1e-12, MaxIterations: 50 * n})
			if err != nil {
				t.Fatalf("Case %v, restart %v: unexpected error %v", tc.name, m, err)
			}
			if !r.Stats.Converged {
				t.Errorf("Case %v, restart %v: not converged, status %v", tc.name, m, r.Stats.Status)
				continue
			}
			if r.Stats.Iterations > m && r.Stats.Restarts == 0 {
				t.Errorf("Case %v, restart %v: %v iterations without restart", tc.name, m, r.Stats.Iterations)
			}
			if dist := floats.Distance(r.X, full.X, math.Inf(1)); dist > tc.tol {
				t.Errorf("Case %v, restart %v: |full-restarted|=%v", tc.name, m, dist)
			}
		}
	}
}

func TestGMRESIterationLimit(t *testing.T) {
	a := testmat.PerturbedPoisson(100, 0.01, 0.5, 42)
	b, _ := onesRHS(a, 100)
	for _, limit := range []int{1, 5, 12} {
		for _, m := range []int{0, 4} {
			r, err := LinearSolve(a, b, &GMRES{Restart: m}, Settings{MaxIterations: limit, Tolerance: 1e-12})
			if err != nil {
				t.Fatalf("limit %v, restart %v: unexpected error %v", limit, m, err)
			}
			if r.Stats.Status != IterationLimit || r.Stats.Converged {
				t.Errorf("limit %v, restart %v: unexpected status %v", limit, m, r.Stats.Status)
			}
			if r.Stats.Iterations != limit {
				t.Errorf("limit %v, restart %v: got %v iterations", limit, m, r.Stats.Iterations)
			}
			if len(r.Stats.ResidualHistory) != limit+1 {
				t.Errorf("limit %v, restart %v: history has %v entries", limit, m, len(r.Stats.ResidualHistory))
			}
			// X must be the approximation whose residual is reported.
			rnorm := residualNorm(a, b, r.X)
			if math.Abs(rnorm-r.Stats.ResidualNorm) > 1e-12*rnorm {
				t.Errorf("limit %v, restart %v: reported residual %v, want %v", limit, m, r.Stats.ResidualNorm, rnorm)
			}
			if rnorm >= floats.Norm(b, 2) {
				t.Errorf("limit %v, restart %v: residual did not decrease", limit, m)
			}
		}
	}
}

func TestGMRESIdempotent(t *testing.T) {
	a := testmat.PerturbedPoisson(60, 0.02, 0.5, 7)
	b, _ := onesRHS(a, 60)
	x0 := make([]float64, 60)
	for i := range x0 {
		x0[i] = float64(i % 3)
	}
	bCopy := append([]float64(nil), b...)
	x0Copy := append([]float64(nil), x0...)

	g := &GMRES{Restart: 7, Reorthogonalize: true}
	settings := Settings{X0: x0, Tolerance: 1e-10, MaxIterations: 500}
	r1, err := LinearSolve(a, b, g, settings)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	r2, err := LinearSolve(a, b, g, settings)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if diff := cmp.Diff(r1.X, r2.X); diff != "" {
		t.Errorf("solutions differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(r1.Stats.ResidualHistory, r2.Stats.ResidualHistory); diff != "" {
		t.Errorf("residual histories differ (-first +second):\n%s", diff)
	}
	if r1.Stats.Iterations != r2.Stats.Iterations || r1.Stats.Restarts != r2.Stats.Restarts {
		t.Errorf("statistics differ: %+v and %+v", r1.Stats, r2.Stats)
	}
	if diff := cmp.Diff(bCopy, b); diff != "" {
		t.Errorf("b was modified:\n%s", diff)
	}
	if diff := cmp.Diff(x0Copy, x0); diff != "" {
		t.Errorf("X0 was modified:\n%s", diff)
	}
}

func TestGMRESResidualHistory(t *testing.T) {
	a := Dense(testmat.RandomNonsymmetric(40, rand.New(rand.NewSource(3))))
	b, _ := onesRHS(a, 40)
	r, err := LinearSolve(a, b, &GMRES{}, Settings{Tolerance: 1e-12})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	h := r.Stats.ResidualHistory
	if len(h) != r.Stats.Iterations+1 {
		t.Fatalf("history has %v entries after %v iterations", len(h), r.Stats.Iterations)
	}
	if h[0] != floats.Norm(b, 2) {
		t.Errorf("initial residual %v, want %v", h[0], floats.Norm(b, 2))
	}
	// Without restarts the estimates do not increase.
	for i := 1; i < len(h)-1; i++ {
		if h[i] > h[i-1]*(1+1e-12) {
			t.Errorf("residual increased at iteration %v: %v > %v", i, h[i], h[i-1])
		}
	}
}

func TestGMRESPreconditioner(t *testing.T) {
	// A badly scaled diagonally dominant matrix for which Jacobi
	// preconditioning is nearly exact.
	rnd := rand.New(rand.NewSource(1))
	n := 80
	ad := testmat.RandomNonsymmetric(n, rnd)
	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		s := math.Pow(10, float64(i%5))
		for j := 0; j < n; j++ {
			ad.Set(i, j, s*ad.At(i, j))
		}
		diag[i] = ad.At(i, i)
	}
	a := Dense(ad)
	b, want := onesRHS(a, n)
	jacobi := func(dst, rhs []float64) error {
		floats.DivTo(dst, rhs, diag)
		return nil
	}

	plain, err := LinearSolve(a, b, &GMRES{Restart: 10}, Settings{Tolerance: 1e-10, MaxIterations: 1000})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	r, err := LinearSolve(a, b, &GMRES{Restart: 10}, Settings{Tolerance: 1e-10, MaxIterations: 1000, PSolve: jacobi})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Stats.Converged {
		t.Fatalf("not converged, status %v", r.Stats.Status)
	}
	if r.Stats.PSolve == 0 {
		t.Errorf("preconditioner not used")
	}
	if plain.Stats.Converged && r.Stats.Iterations > plain.Stats.Iterations {
		t.Errorf("preconditioned solve took %v iterations, unpreconditioned %v", r.Stats.Iterations, plain.Stats.Iterations)
	}
	if dist := floats.Distance(r.X, want, math.Inf(1)); dist > 1e-8 {
		t.Errorf("|want-got|=%v", dist)
	}

	errPrec := errors.New("factorization failed")
	_, err = LinearSolve(a, b, &GMRES{}, Settings{PSolve: func(dst, rhs []float64) error { return errPrec }})
	if !errors.Is(err, errPrec) {
		t.Errorf("got error %v, want %v", err, errPrec)
	}
}

func TestGMRESInvalid(t *testing.T) {
	ident := func(n int) *countingOperator {
		return &countingOperator{Operator: MatrixOps{Dim: n, MatVec: func(dst, x []float64) { copy(dst, x) }}}
	}
	for _, test := range []struct {
		name     string
		a        *countingOperator
		b        []float64
		method   Method
		settings Settings
		want     error
	}{
		{"short b", ident(3), make([]float64, 2), &GMRES{}, Settings{}, ErrDimensionMismatch},
		{"long b", ident(3), make([]float64, 4), &GMRES{}, Settings{}, ErrDimensionMismatch},
		{"short X0", ident(3), make([]float64, 3), &GMRES{}, Settings{X0: make([]float64, 2)}, ErrDimensionMismatch},
		{"non-square", &countingOperator{Operator: Dense(testmat.Diagonal([]float64{1, 2}).Dense().Slice(0, 2, 0, 1))}, make([]float64, 2), &GMRES{}, Settings{}, ErrDimensionMismatch},
		{"tolerance", ident(3), []float64{1, 2, 3}, &GMRES{}, Settings{Tolerance: 1}, ErrInvalidTolerance},
		{"negative tolerance", ident(3), []float64{1, 2, 3}, &GMRES{}, Settings{Tolerance: -1e-3}, ErrInvalidTolerance},
		{"iterations", ident(3), []float64{1, 2, 3}, &GMRES{}, Settings{MaxIterations: -1}, ErrInvalidMaxIterations},
		{"restart", ident(3), []float64{1, 2, 3}, &GMRES{Restart: -2}, Settings{}, ErrInvalidRestart},
		{"breakdown tolerance", ident(3), []float64{1, 2, 3}, &GMRES{BreakdownTolerance: 1}, Settings{}, ErrInvalidBreakdownTolerance},
		{"negative breakdown tolerance", ident(3), []float64{1, 2, 3}, &GMRES{BreakdownTolerance: -1e-3}, Settings{}, ErrInvalidBreakdownTolerance},
	} {
		_, err := LinearSolve(test.a, test.b, test.method, test.settings)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: got error %v, want %v", test.name, err, test.want)
		}
		if test.a.calls != 0 {
			t.Errorf("%s: %v products computed", test.name, test.a.calls)
		}
	}

	if _, err := LinearSolve(nil, []float64{1}, &GMRES{}, Settings{}); !errors.Is(err, ErrNilOperator) {
		t.Errorf("nil operator: got error %v", err)
	}
}

func TestGMRESTrivial(t *testing.T) {
	a := testmat.PerturbedPoisson(20, 0.05, 0.5, 1)
	b, want := onesRHS(a, 20)

	// The initial guess is the solution.
	r, err := LinearSolve(a, b, &GMRES{}, Settings{X0: want})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Stats.Converged || r.Stats.Iterations != 0 || r.Stats.MatVec != 1 {
		t.Errorf("exact X0: got %+v", r.Stats)
	}

	// Zero right-hand side.
	r, err = LinearSolve(a, make([]float64, 20), &GMRES{}, Settings{})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Stats.Converged || r.Stats.Iterations != 0 || floats.Norm(r.X, math.Inf(1)) != 0 {
		t.Errorf("zero b: got x=%v, %+v", r.X, r.Stats)
	}

	// Empty system.
	r, err = LinearSolve(MatrixOps{}, nil, &GMRES{}, Settings{})
	if err != nil || !r.Stats.Converged || len(r.X) != 0 {
		t.Errorf("empty system: got %v, %+v, %v", r.X, r.Stats, err)
	}
}
