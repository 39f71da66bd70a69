// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	mtx "github.com/TrymSaether/krylov/internal/market"
	"github.com/TrymSaether/krylov/internal/testmat"
)

type testCase struct {
	name  string
	n     int
	a     Operator
	iters int     // Iteration limit.
	tol   float64 // Tolerance for the distance from the exact solution.
}

func randomSPD(n int, rnd *rand.Rand) testCase {
	return testCase{
		name:  fmt.Sprintf("randomSPD%d", n),
		n:     n,
		a:     Dense(testmat.RandomSPD(n, rnd)),
		iters: 2 * n,
		tol:   1e-8,
	}
}

func randomNonsymmetric(n int, rnd *rand.Rand) testCase {
	return testCase{
		name:  fmt.Sprintf("randomNonsymmetric%d", n),
		n:     n,
		a:     Dense(testmat.RandomNonsymmetric(n, rnd)),
		iters: 2 * n,
		tol:   1e-8,
	}
}

func perturbedPoisson(n int, seed int64) testCase {
	return testCase{
		name:  fmt.Sprintf("perturbedPoisson%d", n),
		n:     n,
		a:     testmat.PerturbedPoisson(n, 0.01, 0.5, seed),
		iters: 4 * n,
		tol:   1e-5,
	}
}

// market returns the test case stored in testdata/name.mtx.
func market(name string, tol float64) testCase {
	a, _, err := mtx.ReadMatrixFile(filepath.Join("testdata", name+".mtx"))
	if err != nil {
		panic(err)
	}
	n, _ := a.Dims()
	return testCase{
		name:  name,
		n:     n,
		a:     a,
		iters: 2 * n,
		tol:   tol,
	}
}

// countingOperator counts the products with the wrapped operator.
type countingOperator struct {
	Operator
	calls int
}

func (c *countingOperator) MulVec(dst, x []float64) {
	c.calls++
	c.Operator.MulVec(dst, x)
}

// onesRHS returns b = A*[1,...,1] and the solution [1,...,1].
func onesRHS(a Operator, n int) (b, want []float64) {
	want = make([]float64, n)
	for i := range want {
		want[i] = 1
	}
	b = make([]float64, n)
	a.MulVec(b, want)
	return b, want
}

// residualNorm returns |b - A*x|.
func residualNorm(a Operator, b, x []float64) float64 {
	r := make([]float64, len(b))
	a.MulVec(r, x)
	floats.AddScaledTo(r, b, -1, r)
	return floats.Norm(r, 2)
}
