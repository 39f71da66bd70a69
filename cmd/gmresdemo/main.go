// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gmresdemo solves a sparse nonsymmetric linear system with full
// and restarted GMRES and compares the result with other Krylov methods
// and a dense LU solution.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "gmresdemo",
	Short: "Compare restarted GMRES with other Krylov solvers",
	Long: `gmresdemo builds a test system, by default the tridiagonal Poisson
matrix with a random sparse upper-triangular perturbation, and solves it with
full GMRES, restarted GMRES, BiCGSTAB and, for symmetric matrices, CG.

Every solution is compared with a dense LU solution of the same system.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// solveCmd solves one system with every selected method.
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a linear system and print a comparison table",
	Example: `  gmresdemo solve --n 400 --restart 20
  gmresdemo solve --matrix A.mtx --rhs b.mtx --plot residuals.png --html residuals.html
  gmresdemo solve --config demo.yaml --tol 1e-10`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

// arnoldiCmd prints the Hessenberg matrix of a few Arnoldi steps.
var arnoldiCmd = &cobra.Command{
	Use:   "arnoldi",
	Short: "Run the Arnoldi process and print the Hessenberg matrix",
	Args:  cobra.NoArgs,
	RunE:  runArnoldi,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file with parameters; flags override it")

	addProblemFlags(solveCmd)
	addSolveFlags(solveCmd)
	addProblemFlags(arnoldiCmd)
	addArnoldiFlags(arnoldiCmd)

	rootCmd.AddCommand(solveCmd, arnoldiCmd)
}

func addProblemFlags(cmd *cobra.Command) {
	d := DefaultConfig()
	cmd.Flags().Int("n", d.N, "dimension of the generated matrix")
	cmd.Flags().Float64("density", d.Density, "density of the random perturbation")
	cmd.Flags().Float64("scale", d.Scale, "maximum value of the random perturbation")
	cmd.Flags().Int64("seed", d.Seed, "seed of the random perturbation")
	cmd.Flags().String("matrix", "", "read the matrix from a Matrix Market file")
	cmd.Flags().String("rhs", "", "read the right-hand side from a Matrix Market array file")
}

func addSolveFlags(cmd *cobra.Command) {
	d := DefaultConfig()
	cmd.Flags().Float64("tol", d.Tolerance, "relative residual tolerance")
	cmd.Flags().Int("max-iter", d.MaxIter, "iteration limit of full GMRES, BiCGSTAB and CG")
	cmd.Flags().Int("restart", d.Restart, "restart parameter of restarted GMRES")
	cmd.Flags().Int("cycles", d.Cycles, "number of restart cycles of restarted GMRES")
	cmd.Flags().String("orth", d.Orthogonalization, "Gram-Schmidt variant: mgs or cgs")
	cmd.Flags().Bool("reorth", false, "reorthogonalize on cancellation")
	cmd.Flags().StringSlice("methods", d.Methods, "methods to run: gmres, gmres-restarted, bicgstab, cg")
	cmd.Flags().String("plot", "", "write the residual histories to this image file")
	cmd.Flags().String("html", "", "write an interactive chart of the residual histories to this HTML file")
	cmd.Flags().Bool("print-solution", false, "print the solution of the first method")
}

func addArnoldiFlags(cmd *cobra.Command) {
	d := DefaultConfig()
	cmd.Flags().Int("steps", d.Steps, "number of Arnoldi steps")
	cmd.Flags().String("orth", d.Orthogonalization, "Gram-Schmidt variant: mgs or cgs")
	cmd.Flags().Bool("reorth", false, "reorthogonalize on cancellation")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
