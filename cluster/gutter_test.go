/*
NAME
  gutter_test.go - tests for gutter.go.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package cluster

import (
	"testing"

	"github.com/discvault/menuscan/geom"
)

// glyphsInBand synthesizes n glyph boxes of fixed size evenly spread
// across [x0,x1).
func glyphsInBand(n, x0, x1, y int) []geom.Rect {
	var out []geom.Rect
	step := (x1 - x0) / n
	if step < 1 {
		step = 1
	}
	for i := 0; i < n; i++ {
		x := x0 + i*step
		out = append(out, geom.Rect{X1: x, Y1: y, X2: x + 8, Y2: y + 12})
	}
	return out
}

func TestDetectGutterAcceptsTwoColumnLayout(t *testing.T) {
	const pageWidth = 720
	var glyphs []geom.Rect
	glyphs = append(glyphs, glyphsInBand(40, 40, 320, 100)...)
	glyphs = append(glyphs, glyphsInBand(40, 400, 680, 100)...)

	gutterX, ok := DetectGutter(glyphs, pageWidth)
	if !ok {
		t.Fatal("DetectGutter() on a clear two-column layout: expected gutter, got none")
	}
	if gutterX < 320 || gutterX > 400 {
		t.Errorf("DetectGutter() gutter X = %d, want in [320,400]", gutterX)
	}
}

func TestDetectGutterRejectsSingleColumnLayout(t *testing.T) {
	const pageWidth = 720
	glyphs := glyphsInBand(80, 40, 420, 100)

	_, ok := DetectGutter(glyphs, pageWidth)
	if ok {
		t.Error("DetectGutter() on a single-column layout: expected no gutter, got one")
	}
}

func TestDetectGutterRejectsUnbalancedColumns(t *testing.T) {
	const pageWidth = 720
	var glyphs []geom.Rect
	// A dense left column and a single glyph on the right: density
	// balance should reject this even though a geometric gap exists.
	glyphs = append(glyphs, glyphsInBand(60, 20, 320, 100)...)
	glyphs = append(glyphs, geom.Rect{X1: 700, Y1: 100, X2: 708, Y2: 112})

	_, ok := DetectGutter(glyphs, pageWidth)
	if ok {
		t.Error("DetectGutter() on unbalanced columns: expected no gutter due to density imbalance")
	}
}

func TestDetectGutterEmptyInput(t *testing.T) {
	if _, ok := DetectGutter(nil, 720); ok {
		t.Error("DetectGutter(nil) = ok, want false")
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	k := gaussianKernel(gaussianKernelSize, gaussianSigma)
	var sum float64
	for _, v := range k {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("gaussianKernel() sums to %f, want ~1.0", sum)
	}
	if len(k)%2 == 0 {
		t.Errorf("gaussianKernel() length %d, want odd", len(k))
	}
}
