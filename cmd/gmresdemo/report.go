// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// writeReport prints one line per method with the statistics of its solve
// and its distance from the reference solution.
func writeReport(w io.Writer, p problem, cfg Config, outcomes []outcome) error {
	n, _ := p.a.Dims()
	fmt.Fprintf(w, "Problem: %s (n=%d, nnz=%d)\n", p.name, n, p.a.NNZ())
	fmt.Fprintf(w, "Tolerance: %g\n\n", cfg.Tolerance)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tITERATIONS\tRESTARTS\tMATVECS\tRESIDUAL\tSTATUS\tERROR")
	for _, o := range outcomes {
		s := o.result.Stats
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3e\t%v\t%s\n",
			o.label, s.Iterations, s.Restarts, s.MatVec, s.ResidualNorm, s.Status, formatError(o.fwdErr))
	}
	return tw.Flush()
}

func label(method string, cfg Config) string {
	switch method {
	case methodGMRES:
		return "GMRES"
	case methodGMRESRestarted:
		return fmt.Sprintf("GMRES(%d)", cfg.Restart)
	case methodBiCGSTAB:
		return "BiCGSTAB"
	case methodCG:
		return "CG"
	}
	return method
}

func formatError(e float64) string {
	if math.IsNaN(e) {
		return "-"
	}
	return fmt.Sprintf("%.3e", e)
}

// writeSolution prints the solution computed by o, one element per line.
func writeSolution(w io.Writer, o outcome) error {
	if _, err := fmt.Fprintf(w, "\nSolution (%s):\n", o.label); err != nil {
		return err
	}
	for i, v := range o.result.X {
		if _, err := fmt.Fprintf(w, "x[%d] = %.15g\n", i, v); err != nil {
			return err
		}
	}
	return nil
}
