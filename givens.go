// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"math"
	"math/cmplx"
)

// givens is the plane rotation
//  [ c -s ]
//  [ s  c ].
type givens struct {
	c, s float64
}

// drotg returns the rotation that zeroes the second component of (a, b).
func drotg(a, b float64) givens {
	if b == 0 {
		return givens{c: 1, s: 0}
	}
	if math.Abs(b) > math.Abs(a) {
		tmp := -a / b
		s := 1 / math.Sqrt(1+tmp*tmp)
		return givens{c: tmp * s, s: s}
	}
	tmp := -b / a
	c := 1 / math.Sqrt(1+tmp*tmp)
	return givens{c: c, s: tmp * c}
}

func rotvec(x, y float64, g givens) (rx, ry float64) {
	rx = g.c*x - g.s*y
	ry = g.s*x + g.c*y
	return
}

// zgivens is the complex plane rotation
//  [  c        s ]
//  [ -conj(s)  c ]
// with real c.
type zgivens struct {
	c float64
	s complex128
}

// zrotg returns the rotation that zeroes the second component of (a, b).
// The first component becomes real and non-negative when a is zero.
func zrotg(a, b complex128) zgivens {
	if b == 0 {
		return zgivens{c: 1}
	}
	absb := cmplx.Abs(b)
	if a == 0 {
		return zgivens{c: 0, s: cmplx.Conj(b) / complex(absb, 0)}
	}
	absa := cmplx.Abs(a)
	norm := math.Hypot(absa, absb)
	phase := a / complex(absa, 0)
	return zgivens{
		c: absa / norm,
		s: phase * cmplx.Conj(b) / complex(norm, 0),
	}
}

func zrotvec(x, y complex128, g zgivens) (rx, ry complex128) {
	c := complex(g.c, 0)
	rx = c*x + g.s*y
	ry = -cmplx.Conj(g.s)*x + c*y
	return
}
