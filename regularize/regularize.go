/*
NAME
  regularize.go - reconciles a page's clustered rectangle count against
  the nav stage's expected button count, and normalizes rectangle
  heights, using IQR outlier bounds.

DESCRIPTION
  The clustering selector does not bound its output to expected_button_count;
  this package trims surplus rectangles (navigation arrows, stray widgets)
  and normalizes the height of the surviving "regular" rectangles so that
  menu rows -- which are visually regular on an authored disc -- end up
  geometrically regular in the emitted rectangle set too, without any
  hard-coded pixel thresholds. Every step operates on one page's
  rectangles independently.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package regularize applies IQR-based outlier removal and height
// normalization to a page's button rectangles, reconciling their count
// against the nav stage's expected_button_count.
package regularize

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/discvault/menuscan/geom"
)

// iqrMultiplier is the standard Tukey fence multiplier used throughout
// this package's low/high outlier bounds.
const iqrMultiplier = 1.5

// Regularize reconciles rects (one page's clustered button rectangles)
// against expected, the nav-stage-supplied button count, and normalizes
// the heights of the surviving inlier rectangles. expected <= 0 disables
// the count-reconciliation filters (there is nothing to reconcile
// against) but height normalization still runs.
func Regularize(rects []geom.Rect, expected int) []geom.Rect {
	out := append([]geom.Rect(nil), rects...)

	if expected > 0 && len(out) > expected {
		out = dropLowSizeOutliers(out)
	}
	if expected > 0 && len(out) > expected {
		out = dropLowHeightOutliers(out, expected)
	}
	if expected > 0 && len(out) > expected {
		out = keepWidest(out, expected)
	}

	return normalizeHeights(out)
}

// dropLowSizeOutliers removes rectangles whose width *and* height are
// both low outliers (below Q1-1.5*IQR on their respective dimension),
// intended to drop navigation arrows and small widgets that survived
// clustering. Applied only when the page has more rectangles than
// expected.
func dropLowSizeOutliers(rects []geom.Rect) []geom.Rect {
	widthLow, _ := fences(widths(rects))
	heightLow, _ := fences(heights(rects))

	var out []geom.Rect
	for _, r := range rects {
		if float64(r.Width()) < widthLow && float64(r.Height()) < heightLow {
			continue
		}
		out = append(out, r)
	}
	return out
}

// dropLowHeightOutliers removes rectangles whose height alone is a low
// outlier, but stops as soon as the remaining count would drop below
// expected -- the filter must not eat into legitimately-expected
// buttons just because their heights happen to vary.
func dropLowHeightOutliers(rects []geom.Rect, expected int) []geom.Rect {
	heightLow, _ := fences(heights(rects))

	// Decide drops shortest-first, but keep survivors in their input
	// order: clustering's header/left/right ordering is authoritative
	// for entry_id assignment and must survive this filter.
	order := make([]int, len(rects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rects[order[i]].Height() < rects[order[j]].Height()
	})

	drop := make([]bool, len(rects))
	remaining := len(rects)
	for _, idx := range order {
		if remaining <= expected {
			break
		}
		if float64(rects[idx].Height()) < heightLow {
			drop[idx] = true
			remaining--
		}
	}

	var out []geom.Rect
	for i, r := range rects {
		if !drop[i] {
			out = append(out, r)
		}
	}
	return out
}

// keepWidest keeps the expected widest rectangles, used as a last
// resort when the low-outlier filters still leave a surplus.
func keepWidest(rects []geom.Rect, expected int) []geom.Rect {
	order := make([]int, len(rects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rects[order[i]].Width() > rects[order[j]].Width()
	})

	keep := make([]bool, len(rects))
	for _, idx := range order[:expected] {
		keep[idx] = true
	}

	out := make([]geom.Rect, 0, expected)
	for i, r := range rects {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}

// normalizeHeights resizes inlier rectangles (neither low nor high
// height outliers) to the median inlier height, keeping each
// rectangle's Y-centre fixed. Outlier rectangles -- which may
// legitimately span multiple text lines -- are left untouched.
func normalizeHeights(rects []geom.Rect) []geom.Rect {
	if len(rects) < 2 {
		return rects
	}

	hs := heights(rects)
	low, high := fences(hs)

	var inlierHeights []float64
	for _, h := range hs {
		if h >= low && h <= high {
			inlierHeights = append(inlierHeights, h)
		}
	}
	if len(inlierHeights) == 0 {
		return rects
	}
	sort.Float64s(inlierHeights)
	median := stat.Quantile(0.5, stat.Empirical, inlierHeights, nil)

	height := int(math.Round(median))

	out := make([]geom.Rect, len(rects))
	for i, r := range rects {
		h := float64(r.Height())
		if h < low || h > high {
			out[i] = r
			continue
		}
		// y1 is chosen so that the new inclusive rectangle's centre lands
		// as close as possible to the original centre; this is a fixed
		// point of repeated application for a rectangle already at the
		// target height, which is what idempotence on already-regularized
		// input requires.
		y1 := int(math.Round(r.CenterY() - float64(height-1)/2))
		out[i] = geom.Rect{X1: r.X1, Y1: y1, X2: r.X2, Y2: y1 + height - 1}
	}
	return out
}

// fences returns the Tukey low and high outlier bounds for values:
// Q1-1.5*IQR and Q3+1.5*IQR.
func fences(values []float64) (low, high float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	return q1 - iqrMultiplier*iqr, q3 + iqrMultiplier*iqr
}

func widths(rects []geom.Rect) []float64 {
	out := make([]float64, len(rects))
	for i, r := range rects {
		out[i] = float64(r.Width())
	}
	return out
}

func heights(rects []geom.Rect) []float64 {
	out := make([]float64, len(rects))
	for i, r := range rects {
		out[i] = float64(r.Height())
	}
	return out
}
