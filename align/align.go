/*
NAME
  align.go - corrects a systematic vertical offset between SPU
  coordinates and the OCR'd rendered frame.

DESCRIPTION
  SPU rectangle coordinates and the actual rendered-frame pixel
  coordinates can disagree by a constant vertical offset (authoring
  tools frequently encode against a slightly different raster origin
  than the one DVD players render to). For each page, this pairs SPU
  rectangles with OCR text lines by horizontal overlap and takes the
  median vertical delta across confident pairs as the page's shift.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package align corrects the vertical offset between SPU-derived
// button rectangles and the rendered frame they will be cropped from.
package align

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/discvault/menuscan/geom"
)

// Minimum fraction of a rectangle's width that an OCR line must
// overlap to be considered its pair, and the minimum number of
// confident pairs required before a page's shift is trusted.
const (
	minOverlapFrac = 0.50
	minPairs       = 3

	// maxShiftFrac bounds the plausible shift magnitude as a fraction
	// of frame height; larger shifts are rejected as noise rather than
	// a genuine systematic offset.
	maxShiftFrac = 0.20
)

// OCRLine is one text-line bounding box returned by the OCR
// capability for a representative frame.
type OCRLine struct {
	Rect geom.Rect
}

// OCR is the capability to request text-line bounding boxes for a
// frame image.
type OCR interface {
	Lines(ctx context.Context, framePath string) ([]OCRLine, error)
}

// Shift aligns rects against the OCR lines found on the frame at
// framePath, of height frameHeight, and returns the rectangles shifted
// by the page's median vertical delta. If fewer than minPairs
// confident pairs are found, or the computed shift implausibly
// exceeds maxShiftFrac of frameHeight, rects is returned unmodified.
func Shift(ctx context.Context, ocr OCR, framePath string, frameHeight int, rects []geom.Rect) ([]geom.Rect, error) {
	lines, err := ocr.Lines(ctx, framePath)
	if err != nil {
		return nil, err
	}

	var deltas []float64
	for _, r := range rects {
		line, ok := bestOverlap(r, lines)
		if !ok {
			continue
		}
		deltas = append(deltas, line.Rect.CenterY()-r.CenterY())
	}

	if len(deltas) < minPairs {
		return rects, nil
	}

	sort.Float64s(deltas)
	shift := stat.Quantile(0.5, stat.Empirical, deltas, nil)
	if frameHeight > 0 && absFloat(shift) > float64(frameHeight)*maxShiftFrac {
		return rects, nil
	}

	out := make([]geom.Rect, len(rects))
	for i, r := range rects {
		out[i] = r.Shifted(0, int(shift))
	}
	return out, nil
}

// bestOverlap returns the OCR line with the greatest horizontal
// overlap with r, provided that overlap is at least minOverlapFrac of
// r's width. Overlap ties are broken by vertical proximity: on a
// single-column page every line shares the same horizontal span, so
// overlap alone cannot pick the line belonging to this rectangle.
func bestOverlap(r geom.Rect, lines []OCRLine) (OCRLine, bool) {
	var best OCRLine
	var bestFrac, bestDy float64
	found := false
	for _, l := range lines {
		frac := r.HOverlapFrac(l.Rect)
		if frac < minOverlapFrac {
			continue
		}
		dy := absFloat(l.Rect.CenterY() - r.CenterY())
		if !found || frac > bestFrac || (frac == bestFrac && dy < bestDy) {
			best, bestFrac, bestDy, found = l, frac, dy, true
		}
	}
	return best, found
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
