// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// plotResiduals saves the residual histories of outcomes on a logarithmic
// axis. The image format is given by the extension of path.
func plotResiduals(path, title string, outcomes []outcome) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Residual norm"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, o := range outcomes {
		var pts plotter.XYs
		for k, r := range o.result.Stats.ResidualHistory {
			// Zero residuals cannot be shown on a log scale.
			if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(k), Y: r})
			lo = math.Min(lo, r)
			hi = math.Max(hi, r)
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(o.label, line)
	}
	if math.IsInf(lo, 1) {
		return errors.New("no positive residuals to plot")
	}
	p.Y.Min = lo / 2
	p.Y.Max = hi * 2
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
