// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// renderResiduals writes an interactive HTML chart of the residual
// histories of outcomes to w.
func renderResiduals(w io.Writer, title string, outcomes []outcome) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "gmresdemo",
			Theme:     types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Residual history",
			Subtitle: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:  opts.Bool(true),
			Right: "10",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Iteration",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Residual norm",
			Type: "log",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			XAxisIndex: []int{0},
		}),
	)

	var longest int
	for _, o := range outcomes {
		longest = max(longest, len(o.result.Stats.ResidualHistory))
	}
	xs := make([]int, longest)
	for i := range xs {
		xs[i] = i
	}
	line.SetXAxis(xs)

	for _, o := range outcomes {
		h := o.result.Stats.ResidualHistory
		data := make([]opts.LineData, len(h))
		for k, r := range h {
			if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
				// Gap in the line.
				data[k] = opts.LineData{Value: "-"}
				continue
			}
			data[k] = opts.LineData{Value: r}
		}
		line.AddSeries(o.label, data)
	}
	return line.Render(w)
}

// writeChart writes the chart of renderResiduals to the named file.
func writeChart(path, title string, outcomes []outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := renderResiduals(f, title, outcomes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
