/*
NAME
  gutter_debug.go - renders the smoothed horizontal projection used by
  DetectGutter, for tuning the acceptance thresholds.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package cluster

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/discvault/menuscan/geom"
)

// DetectGutterWithPlot runs the same search as DetectGutter and
// additionally renders the smoothed horizontal projection, with the
// search band and the chosen valley marked, to plotPath as a PNG. It
// is meant for interactive tuning of the gutter thresholds (--debug-plots)
// and is not on the hot path of a normal run.
func DetectGutterWithPlot(glyphs []geom.Rect, pageWidth int, plotPath string) (int, bool, error) {
	r := detectGutter(glyphs, pageWidth)
	if err := renderGutterPlot(r, pageWidth, plotPath); err != nil {
		return r.valleyIdx, r.accepted, err
	}
	return r.valleyIdx, r.accepted, nil
}

func renderGutterPlot(r gutterDetection, pageWidth int, plotPath string) error {
	if len(r.smoothed) == 0 {
		return fmt.Errorf("cluster: no projection to plot (empty glyph set or zero page width)")
	}

	p := plot.New()
	p.Title.Text = "column-gutter projection"
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "smoothed glyph coverage"

	pts := make(plotter.XYs, len(r.smoothed))
	for i, v := range r.smoothed {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("cluster: could not build projection line: %w", err)
	}
	p.Add(line)

	band := plotter.XYs{
		{X: float64(pageWidth) * gutterSearchLo, Y: 0},
		{X: float64(pageWidth) * gutterSearchHi, Y: 0},
	}
	bandLine, err := plotter.NewLine(band)
	if err != nil {
		return fmt.Errorf("cluster: could not build search-band marker: %w", err)
	}
	bandLine.Color = plotter.DefaultLineStyle.Color
	p.Add(bandLine)

	if r.valleyIdx > 0 && r.valleyIdx < len(r.smoothed) {
		valley, err := plotter.NewScatter(plotter.XYs{{X: float64(r.valleyIdx), Y: r.smoothed[r.valleyIdx]}})
		if err != nil {
			return fmt.Errorf("cluster: could not build valley marker: %w", err)
		}
		p.Add(valley)
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, plotPath); err != nil {
		return fmt.Errorf("cluster: could not save plot to %s: %w", plotPath, err)
	}
	return nil
}
