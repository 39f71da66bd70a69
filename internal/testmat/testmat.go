// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testmat generates matrices for exercising the solvers.
package testmat

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/TrymSaether/krylov/internal/dok"
	"github.com/TrymSaether/krylov/internal/triplet"
)

// PerturbedPoisson returns the n×n tridiagonal matrix with 2 on the diagonal
// and -1 on the off-diagonals, plus the upper triangle of a random sparse
// matrix with the given density whose entries are uniform in [0, scale).
// The result is nonsymmetric but reasonably well conditioned.
func PerturbedPoisson(n int, density, scale float64, seed int64) *triplet.Matrix {
	if n <= 0 {
		panic("testmat: dimension not positive")
	}
	if density < 0 || 1 < density {
		panic("testmat: density out of range")
	}
	a := dok.New(n, n)
	for i := 0; i < n; i++ {
		_ = a.SetAt(i, i, 2)
		if i > 0 {
			_ = a.SetAt(i, i-1, -1)
		}
		if i < n-1 {
			_ = a.SetAt(i, i+1, -1)
		}
	}

	// Sample distinct positions of the n×n random matrix and keep those
	// on or above the diagonal.
	rnd := rand.New(rand.NewSource(seed))
	nnz := int(math.Round(density * float64(n) * float64(n)))
	r := dok.New(n, n)
	for r.NNZ() < nnz {
		i, j := rnd.Intn(n), rnd.Intn(n)
		if r.Has(i, j) {
			continue
		}
		_ = r.SetAt(i, j, scale*rnd.Float64())
		if i <= j {
			_ = a.AddAt(i, j, r.At(i, j))
		}
	}
	return a.Triplet()
}

// RandomSPD returns an n×n symmetric positive definite matrix with entries
// uniform in [0, 1) and n added to the diagonal.
func RandomSPD(n int, rnd *rand.Rand) *mat.SymDense {
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a.SetSym(i, j, rnd.Float64())
		}
	}
	for i := 0; i < n; i++ {
		a.SetSym(i, i, a.At(i, i)+float64(n))
	}
	return a
}

// RandomNonsymmetric returns an n×n diagonally dominant matrix with entries
// uniform in [-1, 1) and n added to the diagonal.
func RandomNonsymmetric(n int, rnd *rand.Rand) *mat.Dense {
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, 2*rnd.Float64()-1)
		}
		a.Set(i, i, a.At(i, i)+float64(n))
	}
	return a
}

// Diagonal returns the diagonal matrix with diagonal d.
func Diagonal(d []float64) *triplet.Matrix {
	a := triplet.New(len(d), len(d))
	for i, v := range d {
		_ = a.Append(i, i, v)
	}
	return a
}

// ConvectionDiffusion returns the n×n central difference discretization of
//  -u'' + peclet u' on (0, 1)
// with homogeneous Dirichlet boundary conditions, scaled by h^2. It is
// nonsymmetric for non-zero peclet.
func ConvectionDiffusion(n int, peclet float64) *triplet.Matrix {
	h := 1 / float64(n+1)
	c := peclet * h / 2
	a := triplet.New(n, n)
	for i := 0; i < n; i++ {
		_ = a.Append(i, i, 2)
		if i > 0 {
			_ = a.Append(i, i-1, -1-c)
		}
		if i < n-1 {
			_ = a.Append(i, i+1, -1+c)
		}
	}
	return a
}
