/*
NAME
  regularize_test.go - tests for regularize.go.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package regularize

import (
	"testing"

	"github.com/discvault/menuscan/geom"
)

func regularRow(y, width, height int) geom.Rect {
	return geom.Rect{X1: 100, Y1: y, X2: 100 + width - 1, Y2: y + height - 1}
}

func TestRegularizeDropsLowSizeOutliers(t *testing.T) {
	rects := []geom.Rect{
		regularRow(0, 300, 40),
		regularRow(60, 300, 40),
		regularRow(120, 300, 40),
		regularRow(180, 300, 40),
		{X1: 10, Y1: 10, X2: 20, Y2: 18}, // small arrow: low outlier on both dims
	}
	got := Regularize(rects, 4)
	if len(got) != 4 {
		t.Fatalf("Regularize() returned %d rects, want 4; got %+v", len(got), got)
	}
	for _, r := range got {
		if r.Width() < 100 {
			t.Errorf("Regularize() kept a small-width rect: %+v", r)
		}
	}
}

func TestRegularizeKeepsWidestAsLastResort(t *testing.T) {
	rects := []geom.Rect{
		regularRow(0, 300, 40),
		regularRow(60, 295, 40),
		regularRow(120, 290, 40),
		regularRow(180, 100, 40), // narrower, but not an IQR outlier
	}
	got := Regularize(rects, 3)
	if len(got) != 3 {
		t.Fatalf("Regularize() returned %d rects, want 3", len(got))
	}
	for _, r := range got {
		if r.Width() == 100 {
			t.Errorf("Regularize() kept the narrowest rect when trimming to 3: %+v", r)
		}
	}
}

func TestRegularizeNormalizesInlierHeights(t *testing.T) {
	rects := []geom.Rect{
		regularRow(0, 300, 38),
		regularRow(60, 300, 40),
		regularRow(120, 300, 42),
		regularRow(180, 300, 120), // tall outlier: spans multiple lines, left untouched
	}
	got := Regularize(rects, 0)
	if len(got) != 4 {
		t.Fatalf("Regularize() returned %d rects, want 4", len(got))
	}
	for i, r := range got[:3] {
		if r.Height() != 40 {
			t.Errorf("rect %d height = %d, want 40 (normalized to median inlier)", i, r.Height())
		}
	}
	if got[3].Height() != 120 {
		t.Errorf("outlier rect height = %d, want untouched 120", got[3].Height())
	}
}

func TestRegularizeIsIdempotentOnAlreadyRegularInput(t *testing.T) {
	rects := []geom.Rect{
		regularRow(0, 300, 40),
		regularRow(60, 300, 40),
		regularRow(120, 300, 40),
	}
	first := Regularize(rects, 0)
	second := Regularize(first, 0)
	if len(first) != len(second) {
		t.Fatalf("second Regularize() pass changed count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("rect %d changed on second pass: %+v -> %+v", i, first[i], second[i])
		}
	}
}

func TestRegularizeNoExpectedCountStillNormalizesHeights(t *testing.T) {
	rects := []geom.Rect{
		regularRow(0, 300, 39),
		regularRow(60, 300, 41),
	}
	got := Regularize(rects, -1)
	if len(got) != 2 {
		t.Fatalf("Regularize() returned %d rects, want 2", len(got))
	}
}
