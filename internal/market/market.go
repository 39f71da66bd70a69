// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package market reads matrices and vectors in the Matrix Market exchange
// format.
//
// Sparse matrices must use the coordinate format with real, integer or
// pattern fields and general, symmetric or skew-symmetric symmetry. Vectors
// must use the array format with a single column.
package market

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/TrymSaether/krylov/internal/triplet"
)

// ErrFormat is returned for input that is not valid or supported Matrix
// Market data.
var ErrFormat = errors.New("market: invalid Matrix Market data")

// Header is the banner line of a Matrix Market file.
type Header struct {
	Format   string // "coordinate" or "array"
	Field    string // "real", "integer" or "pattern"
	Symmetry string // "general", "symmetric" or "skew-symmetric"
}

type scanner struct {
	s    *bufio.Scanner
	line int
}

// next returns the fields of the next line that is not blank or a comment.
func (sc *scanner) next() ([]string, error) {
	for sc.s.Scan() {
		sc.line++
		text := strings.TrimSpace(sc.s.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		return strings.Fields(text), nil
	}
	if err := sc.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

func (sc *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, sc.line, fmt.Sprintf(format, args...))
}

func readHeader(sc *scanner) (Header, error) {
	if !sc.s.Scan() {
		if err := sc.s.Err(); err != nil {
			return Header{}, err
		}
		return Header{}, fmt.Errorf("%w: empty input", ErrFormat)
	}
	sc.line++
	f := strings.Fields(strings.ToLower(sc.s.Text()))
	if len(f) != 5 || f[0] != "%%matrixmarket" || f[1] != "matrix" {
		return Header{}, sc.errorf("missing %%%%MatrixMarket matrix banner")
	}
	h := Header{Format: f[2], Field: f[3], Symmetry: f[4]}
	switch h.Format {
	case "coordinate", "array":
	default:
		return Header{}, sc.errorf("unsupported format %q", h.Format)
	}
	switch h.Field {
	case "real", "integer", "pattern":
	default:
		return Header{}, sc.errorf("unsupported field %q", h.Field)
	}
	switch h.Symmetry {
	case "general", "symmetric", "skew-symmetric":
	default:
		return Header{}, sc.errorf("unsupported symmetry %q", h.Symmetry)
	}
	if h.Format == "array" && h.Field == "pattern" {
		return Header{}, sc.errorf("pattern field in array format")
	}
	return h, nil
}

func (sc *scanner) ints(f []string, want int) ([]int, error) {
	if len(f) != want {
		return nil, sc.errorf("want %d integers, got %d fields", want, len(f))
	}
	v := make([]int, want)
	for i, s := range f {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, sc.errorf("invalid size %q", s)
		}
		v[i] = n
	}
	return v, nil
}

func (sc *scanner) float(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, sc.errorf("invalid value %q", s)
	}
	return v, nil
}

// ReadMatrix reads a sparse matrix in coordinate format. Symmetric and
// skew-symmetric matrices are expanded to all their entries.
func ReadMatrix(r io.Reader) (*triplet.Matrix, Header, error) {
	sc := &scanner{s: bufio.NewScanner(r)}
	h, err := readHeader(sc)
	if err != nil {
		return nil, Header{}, err
	}
	if h.Format != "coordinate" {
		return nil, h, sc.errorf("want coordinate format, got %q", h.Format)
	}
	f, err := sc.next()
	if err != nil {
		return nil, h, fmt.Errorf("%w: missing size line: %v", ErrFormat, err)
	}
	size, err := sc.ints(f, 3)
	if err != nil {
		return nil, h, err
	}
	rows, cols, nnz := size[0], size[1], size[2]
	if h.Symmetry != "general" && rows != cols {
		return nil, h, sc.errorf("%s matrix is %d×%d", h.Symmetry, rows, cols)
	}

	fields := 3
	if h.Field == "pattern" {
		fields = 2
	}
	m := triplet.New(rows, cols)
	for k := 0; k < nnz; k++ {
		f, err := sc.next()
		if err != nil {
			return nil, h, fmt.Errorf("%w: entry %d of %d: %v", ErrFormat, k+1, nnz, err)
		}
		if len(f) != fields {
			return nil, h, sc.errorf("want %d fields, got %d", fields, len(f))
		}
		i, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, h, sc.errorf("invalid row index %q", f[0])
		}
		j, err := strconv.Atoi(f[1])
		if err != nil {
			return nil, h, sc.errorf("invalid column index %q", f[1])
		}
		v := 1.0
		if h.Field != "pattern" {
			v, err = sc.float(f[2])
			if err != nil {
				return nil, h, err
			}
		}
		// Indices are 1-based.
		i--
		j--
		if err := m.Append(i, j, v); err != nil {
			return nil, h, sc.errorf("%v", err)
		}
		if i == j {
			continue
		}
		switch h.Symmetry {
		case "symmetric":
			_ = m.Append(j, i, v)
		case "skew-symmetric":
			_ = m.Append(j, i, -v)
		}
	}
	return m, h, nil
}

// ReadVector reads an n×1 array.
func ReadVector(r io.Reader) ([]float64, error) {
	sc := &scanner{s: bufio.NewScanner(r)}
	h, err := readHeader(sc)
	if err != nil {
		return nil, err
	}
	if h.Format != "array" || h.Symmetry != "general" {
		return nil, sc.errorf("want general array, got %s %s", h.Format, h.Symmetry)
	}
	f, err := sc.next()
	if err != nil {
		return nil, fmt.Errorf("%w: missing size line: %v", ErrFormat, err)
	}
	size, err := sc.ints(f, 2)
	if err != nil {
		return nil, err
	}
	if size[1] != 1 {
		return nil, sc.errorf("want one column, got %d", size[1])
	}
	v := make([]float64, size[0])
	for i := range v {
		f, err := sc.next()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d of %d: %v", ErrFormat, i+1, len(v), err)
		}
		if len(f) != 1 {
			return nil, sc.errorf("want 1 field, got %d", len(f))
		}
		v[i], err = sc.float(f[0])
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// ReadMatrixFile reads a sparse matrix from the named file.
func ReadMatrixFile(path string) (*triplet.Matrix, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer f.Close()
	m, h, err := ReadMatrix(f)
	if err != nil {
		return nil, h, fmt.Errorf("%s: %w", path, err)
	}
	return m, h, nil
}

// ReadVectorFile reads an n×1 array from the named file.
func ReadVectorFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	v, err := ReadVector(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
