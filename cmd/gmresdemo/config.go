// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TrymSaether/krylov"
)

// Config holds the parameters of a demo run.
type Config struct {
	// Generated problem.
	N       int     `yaml:"n"`
	Density float64 `yaml:"density"`
	Scale   float64 `yaml:"scale"`
	Seed    int64   `yaml:"seed"`

	// Problem read from Matrix Market files. Matrix overrides the
	// generated problem.
	Matrix string `yaml:"matrix"`
	RHS    string `yaml:"rhs"`

	// Orthogonalization is "mgs" or "cgs". Steps is the number of
	// Arnoldi steps of the arnoldi command.
	Tolerance         float64  `yaml:"tolerance"`
	MaxIter           int      `yaml:"max_iter"`
	Restart           int      `yaml:"restart"`
	Cycles            int      `yaml:"cycles"`
	Orthogonalization string   `yaml:"orthogonalization"`
	Reorthogonalize   bool     `yaml:"reorthogonalize"`
	Methods           []string `yaml:"methods"`
	Steps             int      `yaml:"steps"`

	// Output files for the residual histories: an image whose format
	// follows the extension, and an interactive HTML chart.
	Plot          string `yaml:"plot"`
	HTML          string `yaml:"html"`
	PrintSolution bool   `yaml:"print_solution"`
}

// Method names accepted in Config.Methods.
const (
	methodGMRES          = "gmres"
	methodGMRESRestarted = "gmres-restarted"
	methodBiCGSTAB       = "bicgstab"
	methodCG             = "cg"
)

var allMethods = []string{methodGMRES, methodGMRESRestarted, methodBiCGSTAB, methodCG}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		N:       400,
		Density: 0.01,
		Scale:   0.5,
		Seed:    42,

		Tolerance:         1e-8,
		MaxIter:           200,
		Restart:           50,
		Cycles:            10,
		Orthogonalization: "mgs",
		Methods:           append([]string(nil), allMethods...),
		Steps:             5,
	}
}

// LoadConfig reads the YAML file at path over the default configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values no solve can use.
func (c Config) Validate() error {
	if c.Matrix == "" {
		switch {
		case c.N <= 0:
			return fmt.Errorf("invalid dimension %d", c.N)
		case c.Density < 0 || 1 < c.Density:
			return fmt.Errorf("invalid density %v", c.Density)
		case c.Scale < 0:
			return fmt.Errorf("invalid scale %v", c.Scale)
		}
	}
	if c.RHS != "" && c.Matrix == "" {
		return fmt.Errorf("--rhs requires --matrix")
	}
	switch {
	case c.Tolerance <= 0 || 1 <= c.Tolerance:
		return fmt.Errorf("invalid tolerance %v", c.Tolerance)
	case c.MaxIter <= 0:
		return fmt.Errorf("invalid iteration limit %d", c.MaxIter)
	case c.Restart <= 0:
		return fmt.Errorf("invalid restart %d", c.Restart)
	case c.Cycles <= 0:
		return fmt.Errorf("invalid number of cycles %d", c.Cycles)
	case c.Steps <= 0:
		return fmt.Errorf("invalid number of Arnoldi steps %d", c.Steps)
	}
	if _, err := c.orthogonalization(); err != nil {
		return err
	}
	if len(c.Methods) == 0 {
		return fmt.Errorf("no methods selected")
	}
	for _, m := range c.Methods {
		switch m {
		case methodGMRES, methodGMRESRestarted, methodBiCGSTAB, methodCG:
		default:
			return fmt.Errorf("unknown method %q", m)
		}
	}
	return nil
}

func (c Config) orthogonalization() (krylov.Orthogonalization, error) {
	switch strings.ToLower(c.Orthogonalization) {
	case "", "mgs":
		return krylov.ModifiedGramSchmidt, nil
	case "cgs":
		return krylov.ClassicalGramSchmidt, nil
	}
	return 0, fmt.Errorf("unknown orthogonalization %q", c.Orthogonalization)
}

// loadConfig builds the configuration of cmd from the defaults, the file
// given by --config and the flags set on the command line, in this order.
func loadConfig(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		logger.Debug("Loaded config file")
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyFlags copies the flags that were set explicitly into cfg.
func applyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, fn func() error) {
		if err == nil && flags.Lookup(name) != nil && flags.Changed(name) {
			err = fn()
		}
	}
	set("n", func() (e error) { cfg.N, e = flags.GetInt("n"); return })
	set("density", func() (e error) { cfg.Density, e = flags.GetFloat64("density"); return })
	set("scale", func() (e error) { cfg.Scale, e = flags.GetFloat64("scale"); return })
	set("seed", func() (e error) { cfg.Seed, e = flags.GetInt64("seed"); return })
	set("matrix", func() (e error) { cfg.Matrix, e = flags.GetString("matrix"); return })
	set("rhs", func() (e error) { cfg.RHS, e = flags.GetString("rhs"); return })
	set("tol", func() (e error) { cfg.Tolerance, e = flags.GetFloat64("tol"); return })
	set("max-iter", func() (e error) { cfg.MaxIter, e = flags.GetInt("max-iter"); return })
	set("restart", func() (e error) { cfg.Restart, e = flags.GetInt("restart"); return })
	set("cycles", func() (e error) { cfg.Cycles, e = flags.GetInt("cycles"); return })
	set("orth", func() (e error) { cfg.Orthogonalization, e = flags.GetString("orth"); return })
	set("reorth", func() (e error) { cfg.Reorthogonalize, e = flags.GetBool("reorth"); return })
	set("methods", func() (e error) { cfg.Methods, e = flags.GetStringSlice("methods"); return })
	set("steps", func() (e error) { cfg.Steps, e = flags.GetInt("steps"); return })
	set("plot", func() (e error) { cfg.Plot, e = flags.GetString("plot"); return })
	set("html", func() (e error) { cfg.HTML, e = flags.GetString("html"); return })
	set("print-solution", func() (e error) { cfg.PrintSolution, e = flags.GetBool("print-solution"); return })
	return err
}
