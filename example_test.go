// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov_test

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/TrymSaether/krylov"
)

func ExampleGMRES() {
	a := mat.NewDiagDense(3, []float64{1, 2, 4})
	b := []float64{1, 2, 4}

	r, err := krylov.LinearSolve(krylov.Dense(a), b, &krylov.GMRES{}, krylov.DefaultSettings())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Status:", r.Stats.Status)
	fmt.Println("Iterations:", r.Stats.Iterations)
	fmt.Printf("Solution: %.6f\n", r.X)

	// Output:
	// Status: converged
	// Iterations: 3
	// Solution: [1.000000 1.000000 1.000000]
}

func ExampleMatrixOps() {
	// The 1D Laplacian applied without storing the matrix.
	const n = 50
	a := krylov.MatrixOps{
		Dim: n,
		MatVec: func(dst, x []float64) {
			for i := range dst {
				dst[i] = 2 * x[i]
				if i > 0 {
					dst[i] -= x[i-1]
				}
				if i < n-1 {
					dst[i] -= x[i+1]
				}
			}
		},
	}
	b := make([]float64, n)
	b[n/2] = 1

	r, err := krylov.LinearSolve(a, b, &krylov.CG{}, krylov.Settings{Tolerance: 1e-10})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Status:", r.Stats.Status)

	// Output:
	// Status: converged
}

func ExampleArnoldi() {
	a := mat.NewDense(3, 3, []float64{
		2, 1, 0,
		0, 2, 1,
		0, 0, 2,
	})
	res, err := krylov.Arnoldi(krylov.Dense(a), []float64{0, 0, 1}, 2, krylov.ModifiedGramSchmidt, false)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("H =\n%v\n", mat.Formatted(res.H, mat.Squeeze()))

	// Output:
	// H =
	// ⎡2  0⎤
	// ⎢1  2⎥
	// ⎣0  1⎦
}
